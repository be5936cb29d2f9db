package cmake

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goplus/hdrpkg/recipe"
)

// ToolchainFile is the default name of the generated toolchain file.
const ToolchainFile = "hdrpkg_toolchain.cmake"

const vendor = "hdrpkg"

// Toolchain generates a CMake toolchain file and the presets pointing at it
// into the generators folder.
type Toolchain struct {
	Filename  string
	Generator string

	// CacheVariables are forced in the configure preset.
	CacheVariables map[string]string
	// Variables are set by the toolchain file.
	Variables               map[string]string
	PreprocessorDefinitions map[string]string

	// UserPresetsPath is where a user presets file including the generated
	// presets is written. Empty disables it.
	UserPresetsPath string

	settings recipe.Settings
	folders  recipe.Folders
}

// NewToolchain returns a toolchain for the settings and folders of c.
func NewToolchain(c *recipe.Context, generator string) *Toolchain {
	return &Toolchain{
		Filename:                ToolchainFile,
		Generator:               generator,
		CacheVariables:          map[string]string{},
		Variables:               map[string]string{},
		PreprocessorDefinitions: map[string]string{},
		UserPresetsPath:         c.Folders.Source,
		settings:                c.Settings,
		folders:                 c.Folders,
	}
}

// Path returns the absolute path of the toolchain file.
func (t *Toolchain) Path() string {
	return filepath.Join(t.folders.Generators, t.Filename)
}

// PresetsPath returns the absolute path of the generated presets file.
func (t *Toolchain) PresetsPath() string {
	return filepath.Join(t.folders.Generators, PresetsFile)
}

// Generate writes the toolchain file, the presets file and, when enabled,
// the user presets file. Existing files are overwritten.
func (t *Toolchain) Generate() error {
	if t.folders.Generators == "" {
		return fmt.Errorf("toolchain: generators folder is not set")
	}
	if err := os.MkdirAll(t.folders.Generators, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(t.Path(), []byte(t.content()), 0o644); err != nil {
		return err
	}
	if err := writeJSON(t.PresetsPath(), t.presets()); err != nil {
		return err
	}
	if t.UserPresetsPath == "" {
		return nil
	}
	return t.writeUserPresets()
}

func (t *Toolchain) content() string {
	var b strings.Builder
	b.WriteString("# Generated by hdrpkg. Do not edit.\n")
	b.WriteString("cmake_minimum_required(VERSION 3.15)\n")
	b.WriteString("include_guard()\n\n")
	b.WriteString("message(STATUS \"Using hdrpkg toolchain: ${CMAKE_CURRENT_LIST_FILE}\")\n\n")

	if IsMultiConfig(t.Generator) && t.settings.BuildType != "" {
		fmt.Fprintf(&b, "set(CMAKE_CONFIGURATION_TYPES %q CACHE STRING \"\" FORCE)\n\n", t.settings.BuildType)
	}
	if t.settings.Compiler == "msvc" {
		b.WriteString("cmake_policy(SET CMP0091 NEW)\n")
		b.WriteString("set(CMAKE_MSVC_RUNTIME_LIBRARY \"MultiThreaded$<$<CONFIG:Debug>:Debug>DLL\")\n\n")
	}

	gen := filepath.ToSlash(t.folders.Generators)
	b.WriteString("# Dependency lookup files live next to this toolchain.\n")
	fmt.Fprintf(&b, "list(PREPEND CMAKE_PREFIX_PATH %q)\n", gen)
	fmt.Fprintf(&b, "list(PREPEND CMAKE_MODULE_PATH %q)\n", gen)
	b.WriteString("set(CMAKE_FIND_PACKAGE_PREFER_CONFIG ON)\n")

	if len(t.Variables) > 0 {
		b.WriteString("\n")
		for _, k := range slices.Sorted(maps.Keys(t.Variables)) {
			fmt.Fprintf(&b, "set(%s %q)\n", k, t.Variables[k])
		}
	}
	if len(t.PreprocessorDefinitions) > 0 {
		b.WriteString("\n")
		for _, k := range slices.Sorted(maps.Keys(t.PreprocessorDefinitions)) {
			def := k
			if v := t.PreprocessorDefinitions[k]; v != "" {
				def += "=" + v
			}
			fmt.Fprintf(&b, "add_compile_definitions(%q)\n", def)
		}
	}
	return b.String()
}

func (t *Toolchain) configurePresetName() string {
	if IsMultiConfig(t.Generator) || t.settings.BuildType == "" {
		return vendor + "-default"
	}
	return vendor + "-" + strings.ToLower(t.settings.BuildType)
}

func (t *Toolchain) buildPresetName() string {
	bt := t.settings.BuildType
	if bt == "" {
		bt = "default"
	}
	return vendor + "-" + strings.ToLower(bt)
}

func (t *Toolchain) presets() *Presets {
	cache := CacheVariables{"CMAKE_POLICY_DEFAULT_CMP0091": "NEW"}
	if !IsMultiConfig(t.Generator) && t.settings.BuildType != "" {
		cache["CMAKE_BUILD_TYPE"] = t.settings.BuildType
	}
	for k, v := range t.CacheVariables {
		cache[k] = v
	}

	configure := t.configurePresetName()
	return &Presets{
		Version:              3,
		Vendor:               map[string]struct{}{vendor: {}},
		CMakeMinimumRequired: &CMakeVersion{Major: 3, Minor: 15},
		ConfigurePresets: []ConfigurePreset{{
			Name:           configure,
			DisplayName:    fmt.Sprintf("'%s' config", configure),
			Description:    fmt.Sprintf("'%s' configure using '%s' generator", configure, t.Generator),
			Generator:      t.Generator,
			CacheVariables: cache,
			ToolchainFile:  filepath.ToSlash(t.Path()),
			BinaryDir:      filepath.ToSlash(t.folders.Build),
		}},
		BuildPresets: []BuildPreset{{
			Name:            t.buildPresetName(),
			ConfigurePreset: configure,
			Configuration:   t.settings.BuildType,
		}},
		TestPresets: []TestPreset{{
			Name:            t.buildPresetName(),
			ConfigurePreset: configure,
			Configuration:   t.settings.BuildType,
		}},
	}
}

// writeUserPresets writes a version 4 presets file including the generated
// one. A user presets file not written by hdrpkg is left alone.
func (t *Toolchain) writeUserPresets() error {
	path := t.UserPresetsPath
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, UserPresetsFile)
	}

	include := filepath.ToSlash(t.PresetsPath())
	user := &Presets{
		Version: 4,
		Vendor:  map[string]struct{}{vendor: {}},
	}
	if existing, err := LoadPresets(path); err == nil {
		if _, ours := existing.Vendor[vendor]; !ours {
			return nil
		}
		for _, inc := range existing.Include {
			if _, err := os.Stat(inc); err == nil {
				user.Include = append(user.Include, inc)
			}
		}
	}
	if !slices.Contains(user.Include, include) {
		user.Include = append(user.Include, include)
	}
	slices.Sort(user.Include)
	return writeJSON(path, user)
}
