package recipe

import (
	"io"
	"path/filepath"
)

// Layout holds the folder convention chosen by a recipe, relative to the
// source and build roots.
type Layout struct {
	Source     string
	Build      string
	Generators string // relative to the build root
}

// Folders are the absolute folders a lifecycle step works in.
type Folders struct {
	Source     string
	Build      string
	Generators string
	Package    string
}

// Resolve joins l onto the given roots.
func (l Layout) Resolve(sourceRoot, buildRoot, packageDir string) Folders {
	return Folders{
		Source:     filepath.Join(sourceRoot, l.Source),
		Build:      filepath.Join(buildRoot, l.Build),
		Generators: filepath.Join(buildRoot, l.Generators),
		Package:    packageDir,
	}
}

// Context is passed to every lifecycle hook of a single invocation.
type Context struct {
	Settings     Settings
	Layout       Layout
	Folders      Folders
	Dependencies []Dependency

	Stdout io.Writer
	Stderr io.Writer
}

// CppInfo describes what consumers of a package need to compile and link
// against it.
type CppInfo struct {
	IncludeDirs []string `toml:"include_dirs" json:"include_dirs"`
	LibDirs     []string `toml:"lib_dirs" json:"lib_dirs"`
	BinDirs     []string `toml:"bin_dirs" json:"bin_dirs"`
	Libs        []string `toml:"libs,omitempty" json:"libs,omitempty"`
	SystemLibs  []string `toml:"system_libs,omitempty" json:"system_libs,omitempty"`
	Defines     []string `toml:"defines,omitempty" json:"defines,omitempty"`
}

// NewCppInfo returns the default layout of an installed package.
func NewCppInfo() *CppInfo {
	return &CppInfo{
		IncludeDirs: []string{"include"},
		LibDirs:     []string{"lib"},
		BinDirs:     []string{"bin"},
	}
}

// Component is a named part of a dependency, exposed as its own target.
type Component struct {
	Name       string   `json:"name"`
	Libs       []string `json:"libs,omitempty"`
	SystemLibs []string `json:"system_libs,omitempty"`
	Requires   []string `json:"requires,omitempty"`
}

// Dependency is a resolved requirement installed under RootDir.
type Dependency struct {
	Ref     string `json:"ref"`
	Name    string `json:"name"`
	Version string `json:"version"`
	RootDir string `json:"root_dir"`
	Test    bool   `json:"test,omitempty"`

	// CMakeFileName is the name used by find_package. Defaults to Name.
	CMakeFileName string      `json:"cmake_file_name,omitempty"`
	CppInfo       CppInfo     `json:"cpp_info"`
	Components    []Component `json:"components,omitempty"`
}

// FileName returns the find_package name of d.
func (d *Dependency) FileName() string {
	if d.CMakeFileName != "" {
		return d.CMakeFileName
	}
	return d.Name
}
