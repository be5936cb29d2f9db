// Package headeronly is the recipe of a header-only CMake library whose
// identity comes from the package.json next to it.
package headeronly

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/goplus/hdrpkg/pkgs/buildsys"
	"github.com/goplus/hdrpkg/pkgs/buildsys/cmake"
	"github.com/goplus/hdrpkg/pkgs/cmakedeps"
	"github.com/goplus/hdrpkg/recipe"
)

const (
	// Generator is the CMake generator the toolchain is written for.
	Generator = "Ninja Multi-Config"
	// TestRequirement is the pinned test framework.
	TestRequirement = "gtest/1.14.0"
	// InstallPrefix is the install prefix recorded in the presets, relative
	// to the source folder.
	InstallPrefix = "${sourceDir}/out/install"
)

// Descriptor is the header-only recipe.
type Descriptor struct {
	meta recipe.Metadata

	newBuildSystem func(c *recipe.Context) buildsys.BuildSystem
}

var _ recipe.Recipe = (*Descriptor)(nil)

// Option configures a Descriptor.
type Option func(*Descriptor)

// WithBuildSystem replaces the CMake orchestrator used by Build and Package.
func WithBuildSystem(fn func(c *recipe.Context) buildsys.BuildSystem) Option {
	return func(d *Descriptor) {
		d.newBuildSystem = fn
	}
}

// New reads the manifest in recipeDir and returns the recipe it describes.
// It writes nothing.
func New(recipeDir string, opts ...Option) (*Descriptor, error) {
	m, err := recipe.ReadManifest(filepath.Join(recipeDir, recipe.ManifestFile))
	if err != nil {
		return nil, err
	}
	return FromManifest(m, opts...), nil
}

// FromManifest returns the recipe described by m.
func FromManifest(m *recipe.Manifest, opts ...Option) *Descriptor {
	meta := recipe.MetadataFrom(m)
	meta.Settings = slices.Clone(recipe.DefaultAxes)
	meta.Exports = []string{recipe.ManifestFile}
	meta.ExportsSources = []string{recipe.ManifestFile, "CMakeLists.txt", "include/*", "test/*"}
	meta.NoCopySource = true

	d := &Descriptor{
		meta: meta,
		newBuildSystem: func(c *recipe.Context) buildsys.BuildSystem {
			return cmake.New(c)
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Descriptor) Metadata() recipe.Metadata {
	return d.meta
}

func (d *Descriptor) Requirements(reqs *recipe.Requirements) {
	reqs.TestRequires(TestRequirement)
}

func (d *Descriptor) Layout(c *recipe.Context) {
	cmake.Layout(c, Generator)
}

// Generate writes the dependency lookup files and the toolchain, then links
// the generated presets into the source folder as the user presets. The
// toolchain's own user presets are disabled: their schema version is not
// understood by older IDE integrations.
func (d *Descriptor) Generate(ctx context.Context, c *recipe.Context) error {
	gen := c.Folders.Generators
	if err := cmakedeps.New(c.Dependencies).Generate(gen); err != nil {
		return recipe.Wrap(recipe.ErrGenerate, "generate dependencies", err)
	}

	tc := cmake.NewToolchain(c, Generator)
	tc.UserPresetsPath = ""
	tc.CacheVariables["CMAKE_TOOLCHAIN_FILE"] = filepath.ToSlash(filepath.Join(gen, tc.Filename))
	tc.CacheVariables["CMAKE_INSTALL_PREFIX"] = InstallPrefix
	if err := tc.Generate(); err != nil {
		return recipe.Wrap(recipe.ErrGenerate, "generate toolchain", err)
	}

	src := filepath.Join(gen, cmake.PresetsFile)
	dst := filepath.Join(c.Folders.Source, cmake.UserPresetsFile)
	return recipe.Wrap(recipe.ErrGenerate, "copy presets", copyFile(dst, src))
}

func (d *Descriptor) Build(ctx context.Context, c *recipe.Context) error {
	bs := d.newBuildSystem(c)
	if err := bs.Configure(ctx); err != nil {
		return recipe.Wrap(recipe.ErrConfigure, "configure", err)
	}
	if err := bs.Build(ctx); err != nil {
		return recipe.Wrap(recipe.ErrBuild, "build", err)
	}
	return recipe.Wrap(recipe.ErrTest, "test", bs.Test(ctx))
}

func (d *Descriptor) Package(ctx context.Context, c *recipe.Context) error {
	bs := d.newBuildSystem(c)
	return recipe.Wrap(recipe.ErrInstall, "install", bs.Install(ctx))
}

// PackageID drops all settings: the headers are the same for every variant.
func (d *Descriptor) PackageID(info *recipe.Info) {
	info.Clear()
}

// PackageInfo declares no library and no binary folders.
func (d *Descriptor) PackageInfo(cpp *recipe.CppInfo) {
	cpp.BinDirs = []string{}
	cpp.LibDirs = []string{}
}

func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
