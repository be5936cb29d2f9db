// Package config loads hdrpkg settings from defaults, an optional
// hdrpkg.toml and HDRPKG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/goplus/hdrpkg/internal/deps"
	"github.com/goplus/hdrpkg/internal/env"
	"github.com/goplus/hdrpkg/recipe"
)

const (
	// FileName is the config file looked up in the config dir.
	FileName = "hdrpkg.toml"
	// EnvPrefix prefixes environment overrides, e.g. HDRPKG_SETTINGS_BUILD_TYPE.
	EnvPrefix = "HDRPKG"
)

// Config is the merged configuration.
type Config struct {
	Home     string            `mapstructure:"home"`
	Verbose  bool              `mapstructure:"verbose"`
	Settings Settings          `mapstructure:"settings"`
	Sources  map[string]Source `mapstructure:"sources"`
}

// Settings are the default build settings.
type Settings struct {
	OS        string `mapstructure:"os"`
	Compiler  string `mapstructure:"compiler"`
	BuildType string `mapstructure:"build_type"`
	Arch      string `mapstructure:"arch"`
}

// Source adds or overrides a dependency source.
type Source struct {
	Remote        string `mapstructure:"remote"`
	TagFormat     string `mapstructure:"tag_format"`
	CMakeFileName string `mapstructure:"cmake_file_name"`
}

// LoadOptions select where the config file comes from.
type LoadOptions struct {
	// ConfigFile is used exclusively when set and must exist.
	ConfigFile string
	// ConfigDir replaces the user config dir.
	ConfigDir string
}

// Load reads the configuration. It returns the config file used, empty when
// none was found.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()
	v.SetConfigType("toml")

	home, err := env.WorkDir()
	if err != nil {
		return nil, "", fmt.Errorf("work dir: %w", err)
	}
	host := HostSettings()
	v.SetDefault("home", home)
	v.SetDefault("verbose", false)
	v.SetDefault("settings.os", host.OS)
	v.SetDefault("settings.compiler", host.Compiler)
	v.SetDefault("settings.build_type", host.BuildType)
	v.SetDefault("settings.arch", host.Arch)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := configPath(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("parse config: %w", err)
	}
	if cfg.Home, err = filepath.Abs(cfg.Home); err != nil {
		return nil, "", err
	}
	return &cfg, path, nil
}

func configPath(opts LoadOptions) (string, error) {
	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return "", fmt.Errorf("config file not found: %s", opts.ConfigFile)
		}
		return opts.ConfigFile, nil
	}
	dir := opts.ConfigDir
	if dir == "" {
		var err error
		if dir, err = env.ConfigDir(); err != nil {
			// No config dir means no config file.
			return "", nil
		}
	}
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return "", nil
	} else if err != nil {
		return "", err
	}
	return path, nil
}

// RecipeSettings returns the configured default settings.
func (c *Config) RecipeSettings() recipe.Settings {
	return recipe.Settings{
		OS:        c.Settings.OS,
		Compiler:  c.Settings.Compiler,
		BuildType: c.Settings.BuildType,
		Arch:      c.Settings.Arch,
	}
}

// Registry returns the built-in sources with the configured ones applied.
// Fields left empty keep the built-in value.
func (c *Config) Registry() *deps.Registry {
	reg := deps.NewRegistry()
	for name, s := range c.Sources {
		src := &deps.Source{Name: name}
		if old, err := reg.Lookup(name); err == nil {
			cp := *old
			src = &cp
		}
		if s.Remote != "" {
			src.Remote = s.Remote
		}
		if s.TagFormat != "" {
			src.TagFormat = s.TagFormat
		}
		if s.CMakeFileName != "" {
			src.CMakeFileName = s.CMakeFileName
		}
		reg.Add(src)
	}
	return reg
}

// HostSettings describes the machine hdrpkg runs on, in Release.
func HostSettings() recipe.Settings {
	return hostSettings(runtime.GOOS, runtime.GOARCH)
}

func hostSettings(goos, goarch string) recipe.Settings {
	s := recipe.Settings{BuildType: "Release"}
	switch goos {
	case "linux":
		s.OS, s.Compiler = "Linux", "gcc"
	case "darwin":
		s.OS, s.Compiler = "Macos", "apple-clang"
	case "windows":
		s.OS, s.Compiler = "Windows", "msvc"
	case "freebsd":
		s.OS, s.Compiler = "FreeBSD", "clang"
	default:
		s.OS, s.Compiler = goos, "gcc"
	}
	switch goarch {
	case "amd64":
		s.Arch = "x86_64"
	case "386":
		s.Arch = "x86"
	case "arm64":
		s.Arch = "armv8"
	case "arm":
		s.Arch = "armv7"
	default:
		s.Arch = goarch
	}
	return s
}

// ParseSetting parses an "axis=value" override.
func ParseSetting(s string) (axis, value string, err error) {
	axis, value, ok := strings.Cut(s, "=")
	if !ok || axis == "" {
		return "", "", fmt.Errorf("invalid setting %q: expected axis=value", s)
	}
	axis, value = strings.TrimSpace(axis), strings.TrimSpace(value)
	var known recipe.Settings
	if !known.Set(axis, value) {
		return "", "", fmt.Errorf("unknown setting %q (known: %s)", axis, strings.Join(recipe.DefaultAxes, ", "))
	}
	if value == "" {
		return axis, value, nil
	}
	if err := recipe.ValidSegment(value); err != nil {
		return "", "", fmt.Errorf("setting %s: %w", axis, err)
	}
	return axis, value, nil
}
