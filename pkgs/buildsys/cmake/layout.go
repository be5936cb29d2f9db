package cmake

import (
	"path"

	"github.com/goplus/hdrpkg/recipe"
)

// Layout applies the standard CMake folder convention to c. Multi-config
// generators share one "build" folder; single-config ones build under
// "build/<BuildType>". Generated files go to "generators" inside it.
func Layout(c *recipe.Context, generator string) {
	c.Layout.Source = "."
	if IsMultiConfig(generator) {
		c.Layout.Build = "build"
	} else {
		bt := c.Settings.BuildType
		if bt == "" {
			bt = "Release"
		}
		c.Layout.Build = path.Join("build", bt)
	}
	c.Layout.Generators = path.Join(c.Layout.Build, "generators")
}
