// Package cmake drives CMake-based builds: layout convention, toolchain and
// presets generation, and the configure/build/test/install steps.
package cmake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goplus/hdrpkg/pkgs/buildsys"
	"github.com/goplus/hdrpkg/recipe"
)

type defineValue struct {
	value    string
	typeName string
}

type runFunc func(ctx context.Context, name string, args []string) error

// CMake wraps common CMake build steps with chainable configuration.
type CMake struct {
	SourceDir  string
	buildDir   string
	installDir string
	generator  string
	buildType  string
	toolchain  string
	Defines    map[string]defineValue
	env        map[string]string

	stdout io.Writer
	stderr io.Writer
	run    runFunc

	presetsErr error
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New creates a CMake helper for the folders and settings of c. When the
// generators folder holds a presets file, its generator, toolchain file and
// cache variables are used; a presets file that cannot be parsed makes
// Configure fail. A nil context yields a helper building in
// "build" with no source set.
func New(c *recipe.Context) *CMake {
	cm := &CMake{
		buildDir: "build",
		Defines:  map[string]defineValue{},
		env:      map[string]string{},
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	cm.run = cm.exec
	if c == nil {
		return cm
	}

	cm.SourceDir = c.Folders.Source
	if c.Folders.Build != "" {
		cm.buildDir = c.Folders.Build
	}
	cm.installDir = c.Folders.Package
	cm.buildType = c.Settings.BuildType
	if c.Stdout != nil {
		cm.stdout = c.Stdout
	}
	if c.Stderr != nil {
		cm.stderr = c.Stderr
	}
	if c.Folders.Generators != "" {
		p, err := LoadPresets(filepath.Join(c.Folders.Generators, PresetsFile))
		switch {
		case err == nil:
			cm.applyPresets(p)
		case !errors.Is(err, fs.ErrNotExist):
			cm.presetsErr = err
		}
	}
	return cm
}

func (c *CMake) applyPresets(p *Presets) {
	if len(p.ConfigurePresets) == 0 {
		return
	}
	cp := p.ConfigurePresets[0]
	c.generator = cp.Generator
	c.toolchain = cp.ToolchainFile
	for k, v := range cp.CacheVariables {
		switch k {
		case "CMAKE_TOOLCHAIN_FILE":
			if c.toolchain == "" {
				c.toolchain = v
			}
		case "CMAKE_INSTALL_PREFIX":
			// The package folder wins over the presets' prefix.
		default:
			c.Define(k, v)
		}
	}
}

func (c *CMake) Source(dir string) {
	c.SourceDir = dir
}

func (c *CMake) InstallDir(dir string) {
	c.installDir = dir
}

// BuildDir overrides the build folder.
func (c *CMake) BuildDir(dir string) *CMake {
	c.buildDir = dir
	return c
}

func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

func (c *CMake) Toolchain(path string) *CMake {
	c.toolchain = path
	return c
}

func (c *CMake) Define(key, value string) *CMake {
	if c.Defines == nil {
		c.Defines = map[string]defineValue{}
	}
	c.Defines[key] = defineValue{value: value, typeName: "STRING"}
	return c
}

func (c *CMake) DefineBool(key string, value bool) *CMake {
	if c.Defines == nil {
		c.Defines = map[string]defineValue{}
	}
	if value {
		c.Defines[key] = defineValue{value: "ON", typeName: "BOOL"}
		return c
	}
	c.Defines[key] = defineValue{value: "OFF", typeName: "BOOL"}
	return c
}

// Env sets a variable for every command this helper runs. The process
// environment is left untouched.
func (c *CMake) Env(key, value string) {
	if c.env == nil {
		c.env = map[string]string{}
	}
	c.env[key] = value
}

// Output redirects the tools' stdout and stderr.
func (c *CMake) Output(stdout, stderr io.Writer) {
	c.stdout = stdout
	c.stderr = stderr
}

// Configure runs "cmake -G <generator> -S <source> -B <build>" with all
// configured definitions. Extra args are appended at the end.
func (c *CMake) Configure(ctx context.Context, args ...string) error {
	if c.presetsErr != nil {
		return fmt.Errorf("cmake presets: %w", c.presetsErr)
	}
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return err
	}
	var cmakeArgs []string
	if c.generator != "" {
		cmakeArgs = append(cmakeArgs, "-G", c.generator)
	}
	cmakeArgs = append(cmakeArgs, "-S", c.SourceDir, "-B", c.buildDir)
	if c.installDir != "" {
		c.Define("CMAKE_INSTALL_PREFIX", filepath.ToSlash(c.installDir))
	}
	if c.toolchain != "" {
		c.Define("CMAKE_TOOLCHAIN_FILE", filepath.ToSlash(c.toolchain))
	}
	if c.buildType != "" && !IsMultiConfig(c.generator) {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	cmakeArgs = append(cmakeArgs, args...)

	return c.run(ctx, "cmake", cmakeArgs)
}

// Build runs "cmake --build <build>" for the configured build type.
func (c *CMake) Build(ctx context.Context, args ...string) error {
	cmdArgs := []string{"--build", c.buildDir}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "--config", c.buildType)
	}
	cmdArgs = append(cmdArgs, args...)
	return c.run(ctx, "cmake", cmdArgs)
}

// Test runs the tests registered with CTest in the build folder.
func (c *CMake) Test(ctx context.Context, args ...string) error {
	cmdArgs := []string{"--test-dir", c.buildDir}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "-C", c.buildType)
	}
	cmdArgs = append(cmdArgs, "--output-on-failure")
	cmdArgs = append(cmdArgs, args...)
	return c.run(ctx, "ctest", cmdArgs)
}

// Install runs "cmake --install <build>" into the install folder.
func (c *CMake) Install(ctx context.Context, args ...string) error {
	cmdArgs := []string{"--install", c.buildDir}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "--config", c.buildType)
	}
	if c.installDir != "" {
		cmdArgs = append(cmdArgs, "--prefix", c.installDir)
	}
	cmdArgs = append(cmdArgs, args...)
	return c.run(ctx, "cmake", cmdArgs)
}

// OutputDir returns the install dir if set, otherwise the build dir.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}
	return c.buildDir
}

// IsMultiConfig reports whether generator builds several configurations
// from one build folder.
func IsMultiConfig(generator string) bool {
	return strings.Contains(generator, "Multi-Config") ||
		strings.HasPrefix(generator, "Visual Studio") ||
		generator == "Xcode"
}

func (c *CMake) definesArgs() []string {
	if len(c.Defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.Defines))
	for k := range c.Defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := c.Defines[k]
		if def.typeName != "" {
			args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
			continue
		}
		args = append(args, "-D"+k+"="+def.value)
	}
	return args
}

func (c *CMake) exec(ctx context.Context, bin string, args []string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr
	if len(c.env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), c.env)
	}
	return cmd.Run()
}

func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
