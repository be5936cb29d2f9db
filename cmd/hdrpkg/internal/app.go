package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/goplus/hdrpkg/internal/config"
	"github.com/goplus/hdrpkg/internal/deps"
	"github.com/goplus/hdrpkg/internal/driver"
	"github.com/goplus/hdrpkg/internal/env"
	"github.com/goplus/hdrpkg/internal/index"
	"github.com/goplus/hdrpkg/recipe"
	"github.com/goplus/hdrpkg/recipe/headeronly"
)

// app is what a command needs: configuration, folders and the runner.
type app struct {
	cfg      *config.Config
	settings recipe.Settings
	dirs     env.Dirs
	logger   *log.Logger
	index    *index.Index
	runner   *driver.Runner
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, path, err := config.Load(config.LoadOptions{ConfigFile: cfgFile})
	if err != nil {
		return nil, err
	}
	s, err := applySettings(cfg.RecipeSettings(), settingsF)
	if err != nil {
		return nil, err
	}

	logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{Prefix: "hdrpkg"})
	if verbose || cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	if path != "" {
		logger.Debug("loaded config", "path", path)
	}

	dirs := env.Dirs{Home: cfg.Home}
	if err := dirs.Ensure(); err != nil {
		return nil, fmt.Errorf("prepare %s: %w", dirs.Home, err)
	}
	x, err := index.Open(dirs.Index())
	if err != nil {
		return nil, err
	}
	mgr := deps.NewManager(deps.Options{
		Dir:      dirs.Store(),
		Registry: cfg.Registry(),
		Logger:   logger,
		Stdout:   cmd.OutOrStdout(),
		Stderr:   cmd.ErrOrStderr(),
	})
	return &app{
		cfg:      cfg,
		settings: s,
		dirs:     dirs,
		logger:   logger,
		index:    x,
		runner: &driver.Runner{
			Resolver: mgr,
			Index:    x,
			Logger:   logger,
			Stdout:   cmd.OutOrStdout(),
			Stderr:   cmd.ErrOrStderr(),
		},
	}, nil
}

// applySettings applies "axis=value" overrides to s.
func applySettings(s recipe.Settings, overrides []string) (recipe.Settings, error) {
	for _, o := range overrides {
		axis, value, err := config.ParseSetting(o)
		if err != nil {
			return s, err
		}
		s.Set(axis, value)
	}
	return s, nil
}

// recipeDir returns the absolute recipe folder named by args, "." by default.
func recipeDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// loadRecipe reads the header-only recipe in the folder named by args.
func loadRecipe(args []string) (*headeronly.Descriptor, string, error) {
	dir, err := recipeDir(args)
	if err != nil {
		return nil, "", err
	}
	rec, err := headeronly.New(dir)
	if err != nil {
		return nil, "", err
	}
	return rec, dir, nil
}

func (a *app) exportDir(meta recipe.Metadata) string {
	return filepath.Join(a.dirs.Export(), meta.Name, meta.Version)
}

func (a *app) buildDir(meta recipe.Metadata) string {
	variant := a.settings.String()
	if variant == "" {
		variant = "default"
	}
	return filepath.Join(a.dirs.Build(), meta.Name, meta.Version, variant)
}
