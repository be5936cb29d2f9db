package deps

import (
	"fmt"
	"maps"
	"slices"

	"github.com/goplus/hdrpkg/recipe"
)

// Source describes where a dependency comes from and how consumers see it.
type Source struct {
	Name string
	// Remote is the git URL of the sources.
	Remote string
	// TagFormat turns a version into a tag with fmt.Sprintf, e.g. "v%s".
	// When the formatted tag does not exist the remote tags are searched.
	TagFormat string
	// CMakeFileName is the find_package name.
	CMakeFileName string
	// Defines are passed to the configure step.
	Defines map[string]string
	// CppInfo describes the installed layout. Zero means NewCppInfo.
	CppInfo    *recipe.CppInfo
	Components []recipe.Component
}

// Tag returns the tag of version.
func (s *Source) Tag(version string) string {
	format := s.TagFormat
	if format == "" {
		format = "%s"
	}
	return fmt.Sprintf(format, version)
}

// Registry maps dependency names to their sources.
type Registry struct {
	sources map[string]*Source
}

// NewRegistry returns a registry holding the built-in sources.
func NewRegistry() *Registry {
	r := &Registry{sources: map[string]*Source{}}
	r.Add(googleTest())
	return r
}

// Add registers s, replacing any source of the same name.
func (r *Registry) Add(s *Source) {
	r.sources[s.Name] = s
}

// Lookup returns the source of name.
func (r *Registry) Lookup(name string) (*Source, error) {
	s, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("no source known for %q (known: %v)", name, r.Names())
	}
	return s, nil
}

// Names returns the registered names in order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.sources))
}

func googleTest() *Source {
	return &Source{
		Name:          "gtest",
		Remote:        "https://github.com/google/googletest.git",
		TagFormat:     "v%s",
		CMakeFileName: "GTest",
		Defines: map[string]string{
			"BUILD_GMOCK":            "ON",
			"INSTALL_GTEST":          "ON",
			"gtest_force_shared_crt": "ON",
		},
		Components: []recipe.Component{
			{Name: "gtest", Libs: []string{"gtest"}, SystemLibs: threadLibs()},
			{Name: "gtest_main", Libs: []string{"gtest_main"}, Requires: []string{"gtest"}},
			{Name: "gmock", Libs: []string{"gmock"}, Requires: []string{"gtest"}},
			{Name: "gmock_main", Libs: []string{"gmock_main"}, Requires: []string{"gmock"}},
		},
	}
}
