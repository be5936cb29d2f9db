// Package cmakedeps generates the find_package config files that let a CMake
// project consume resolved dependencies as imported targets.
package cmakedeps

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/goplus/hdrpkg/recipe"
)

// CMakeDeps writes one config and one version file per dependency.
type CMakeDeps struct {
	deps []recipe.Dependency
}

// New returns a generator for deps.
func New(deps []recipe.Dependency) *CMakeDeps {
	return &CMakeDeps{deps: slices.Clone(deps)}
}

// Files returns the generated files keyed by file name.
func (g *CMakeDeps) Files() map[string]string {
	files := make(map[string]string, 2*len(g.deps))
	for i := range g.deps {
		d := &g.deps[i]
		config, version := fileNames(d.FileName())
		files[config] = configContent(d)
		files[version] = versionContent(d.Version)
	}
	return files
}

// Generate writes the files into dir, replacing older copies.
func (g *CMakeDeps) Generate(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	files := g.Files()
	for _, name := range slices.Sorted(maps.Keys(files)) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(files[name]), 0o644); err != nil {
			return fmt.Errorf("cmakedeps: %w", err)
		}
	}
	return nil
}

// fileNames follows find_package's two accepted spellings.
func fileNames(name string) (config, version string) {
	if strings.IndexFunc(name, unicode.IsUpper) < 0 {
		return name + "-config.cmake", name + "-config-version.cmake"
	}
	return name + "Config.cmake", name + "ConfigVersion.cmake"
}

func absDirs(root string, dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if !filepath.IsAbs(d) {
			d = filepath.Join(root, d)
		}
		out = append(out, filepath.ToSlash(d))
	}
	return out
}

func cmakeList(items []string) string {
	return strings.Join(items, ";")
}

func configContent(d *recipe.Dependency) string {
	name := d.FileName()
	var b strings.Builder
	b.WriteString("# Generated by hdrpkg. Do not edit.\n")
	b.WriteString("include_guard()\n\n")
	fmt.Fprintf(&b, "set(%s_FOUND TRUE)\n", name)
	fmt.Fprintf(&b, "set(%s_VERSION %q)\n", name, d.Version)
	fmt.Fprintf(&b, "set(%s_ROOT_DIR %q)\n", name, filepath.ToSlash(d.RootDir))
	fmt.Fprintf(&b, "set(%s_INCLUDE_DIRS %q)\n", name, cmakeList(absDirs(d.RootDir, d.CppInfo.IncludeDirs)))
	fmt.Fprintf(&b, "set(%s_LIB_DIRS %q)\n", name, cmakeList(absDirs(d.RootDir, d.CppInfo.LibDirs)))
	fmt.Fprintf(&b, "set(%s_DEFINITIONS %q)\n", name, cmakeList(d.CppInfo.Defines))

	if len(d.Components) == 0 {
		writeTarget(&b, name, recipe.Component{
			Name:       name,
			Libs:       d.CppInfo.Libs,
			SystemLibs: d.CppInfo.SystemLibs,
		})
		return b.String()
	}

	var all []string
	for _, c := range d.Components {
		writeTarget(&b, name, c)
		all = append(all, name+"::"+c.Name)
	}
	umbrella := name + "::" + name
	if !slices.Contains(all, umbrella) {
		fmt.Fprintf(&b, "\nif(NOT TARGET %s)\n", umbrella)
		fmt.Fprintf(&b, "  add_library(%s INTERFACE IMPORTED)\n", umbrella)
		fmt.Fprintf(&b, "  set_property(TARGET %s PROPERTY INTERFACE_LINK_LIBRARIES %q)\n", umbrella, cmakeList(all))
		b.WriteString("endif()\n")
	}
	return b.String()
}

func writeTarget(b *strings.Builder, name string, c recipe.Component) {
	target := name + "::" + c.Name
	fmt.Fprintf(b, "\nif(NOT TARGET %s)\n", target)
	fmt.Fprintf(b, "  add_library(%s INTERFACE IMPORTED)\n", target)
	fmt.Fprintf(b, "  set_property(TARGET %s PROPERTY INTERFACE_INCLUDE_DIRECTORIES \"${%s_INCLUDE_DIRS}\")\n", target, name)
	fmt.Fprintf(b, "  set_property(TARGET %s PROPERTY INTERFACE_COMPILE_DEFINITIONS \"${%s_DEFINITIONS}\")\n", target, name)
	for _, lib := range c.Libs {
		v := fmt.Sprintf("%s_%s_%s_LIBRARY", name, c.Name, lib)
		fmt.Fprintf(b, "  find_library(%s NAMES %s PATHS ${%s_LIB_DIRS} NO_DEFAULT_PATH)\n", v, lib, name)
		fmt.Fprintf(b, "  if(NOT %s)\n", v)
		fmt.Fprintf(b, "    message(FATAL_ERROR \"hdrpkg: library %s of %s not found in ${%s_LIB_DIRS}\")\n", lib, name, name)
		b.WriteString("  endif()\n")
		fmt.Fprintf(b, "  set_property(TARGET %s APPEND PROPERTY INTERFACE_LINK_LIBRARIES \"${%s}\")\n", target, v)
	}
	for _, req := range c.Requires {
		if !strings.Contains(req, "::") {
			req = name + "::" + req
		}
		fmt.Fprintf(b, "  set_property(TARGET %s APPEND PROPERTY INTERFACE_LINK_LIBRARIES %s)\n", target, req)
	}
	for _, lib := range c.SystemLibs {
		fmt.Fprintf(b, "  set_property(TARGET %s APPEND PROPERTY INTERFACE_LINK_LIBRARIES %s)\n", target, lib)
	}
	b.WriteString("endif()\n")
}

func versionContent(version string) string {
	major, _, _ := strings.Cut(strings.TrimPrefix(version, "v"), ".")
	var b strings.Builder
	b.WriteString("# Generated by hdrpkg. Do not edit.\n")
	fmt.Fprintf(&b, "set(PACKAGE_VERSION %q)\n\n", strings.TrimPrefix(version, "v"))
	b.WriteString("if(PACKAGE_FIND_VERSION VERSION_GREATER PACKAGE_VERSION)\n")
	b.WriteString("  set(PACKAGE_VERSION_COMPATIBLE FALSE)\n")
	b.WriteString("else()\n")
	fmt.Fprintf(&b, "  if(PACKAGE_FIND_VERSION_MAJOR STREQUAL %q)\n", major)
	b.WriteString("    set(PACKAGE_VERSION_COMPATIBLE TRUE)\n")
	b.WriteString("  else()\n")
	b.WriteString("    set(PACKAGE_VERSION_COMPATIBLE FALSE)\n")
	b.WriteString("  endif()\n")
	b.WriteString("  if(PACKAGE_FIND_VERSION STREQUAL PACKAGE_VERSION)\n")
	b.WriteString("    set(PACKAGE_VERSION_EXACT TRUE)\n")
	b.WriteString("  endif()\n")
	b.WriteString("endif()\n")
	return b.String()
}
