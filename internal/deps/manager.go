// Package deps resolves the dependencies a recipe declares: it fetches their
// sources, builds and installs them once per settings variant into a local
// store, and describes the result for the lookup file generators.
package deps

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/goplus/hdrpkg/internal/lockedfile"
	"github.com/goplus/hdrpkg/internal/vcs"
	"github.com/goplus/hdrpkg/pkgs/buildsys/cmake"
	"github.com/goplus/hdrpkg/recipe"
)

// BuildRequest is what a Builder is asked to build.
type BuildRequest struct {
	SourceDir  string
	BuildDir   string
	InstallDir string
	Settings   recipe.Settings
	Defines    map[string]string

	Stdout io.Writer
	Stderr io.Writer
}

// Builder builds the sources of a dependency and installs them.
type Builder func(ctx context.Context, req BuildRequest) error

// Options configures a Manager.
type Options struct {
	// Dir is the store root.
	Dir      string
	Registry *Registry
	VCS      vcs.VCS
	Builder  Builder
	Logger   *log.Logger
	Stdout   io.Writer
	Stderr   io.Writer
}

// Manager resolves requirements into installed dependencies.
type Manager struct {
	dir      string
	registry *Registry
	vcs      vcs.VCS
	build    Builder
	logger   *log.Logger
	stdout   io.Writer
	stderr   io.Writer
}

// NewManager returns a Manager storing dependencies under opts.Dir.
func NewManager(opts Options) *Manager {
	m := &Manager{
		dir:      opts.Dir,
		registry: opts.Registry,
		vcs:      opts.VCS,
		build:    opts.Builder,
		logger:   opts.Logger,
		stdout:   opts.Stdout,
		stderr:   opts.Stderr,
	}
	if m.registry == nil {
		m.registry = NewRegistry()
	}
	if m.vcs == nil {
		m.vcs = vcs.NewGitVCS()
	}
	if m.build == nil {
		m.build = CMakeBuilder
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard)
	}
	if m.stdout == nil {
		m.stdout = os.Stdout
	}
	if m.stderr == nil {
		m.stderr = os.Stderr
	}
	return m
}

// Resolve installs every requirement for settings s and returns them in
// declaration order.
func (m *Manager) Resolve(ctx context.Context, reqs []recipe.Requirement, s recipe.Settings) ([]recipe.Dependency, error) {
	deps := make([]recipe.Dependency, 0, len(reqs))
	for _, req := range reqs {
		ref, err := ParseRef(req.Ref)
		if err != nil {
			return nil, err
		}
		src, err := m.registry.Lookup(ref.Name)
		if err != nil {
			return nil, err
		}
		dep, err := m.resolve(ctx, ref, src, s)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", ref, err)
		}
		dep.Test = req.Test
		deps = append(deps, dep)
	}
	return deps, nil
}

func variantOf(s recipe.Settings) string {
	if v := s.String(); v != "" {
		return v
	}
	return "default"
}

func (m *Manager) resolve(ctx context.Context, ref Ref, src *Source, s recipe.Settings) (recipe.Dependency, error) {
	variant := variantOf(s)
	if err := recipe.ValidSegment(variant); err != nil {
		return recipe.Dependency{}, fmt.Errorf("variant: %w", err)
	}
	modDir := filepath.Join(m.dir, ref.Name, ref.Version)
	installDir := filepath.Join(modDir, variant)

	unlock, err := lockedfile.MutexAt(filepath.Join(modDir, ".lock")).Lock()
	if err != nil {
		return recipe.Dependency{}, err
	}
	defer unlock()

	cache, err := loadCache(modDir)
	if err != nil {
		return recipe.Dependency{}, err
	}
	// Another process may have built it while we waited for the lock.
	if _, ok := cache.get(variant); ok {
		if _, err := os.Stat(installDir); err == nil {
			m.logger.Debug("dependency cached", "ref", ref, "variant", variant)
			return dependencyOf(ref, src, installDir), nil
		}
	}

	tmp, err := os.MkdirTemp("", "hdrpkg-dep-")
	if err != nil {
		return recipe.Dependency{}, err
	}
	defer os.RemoveAll(tmp)

	srcDir := filepath.Join(tmp, "src")
	m.logger.Info("fetching dependency", "ref", ref, "remote", src.Remote)
	tag, err := m.fetch(ctx, src, ref.Version, srcDir)
	if err != nil {
		return recipe.Dependency{}, err
	}

	if err := os.RemoveAll(installDir); err != nil {
		return recipe.Dependency{}, err
	}
	m.logger.Info("building dependency", "ref", ref, "variant", variant)
	err = m.build(ctx, BuildRequest{
		SourceDir:  srcDir,
		BuildDir:   filepath.Join(tmp, "build"),
		InstallDir: installDir,
		Settings:   s,
		Defines:    src.Defines,
		Stdout:     m.stdout,
		Stderr:     m.stderr,
	})
	if err != nil {
		os.RemoveAll(installDir)
		return recipe.Dependency{}, fmt.Errorf("build: %w", err)
	}

	cache.set(variant, &cacheEntry{Tag: tag, BuildTime: time.Now()})
	if err := saveCache(modDir, cache); err != nil {
		return recipe.Dependency{}, err
	}
	return dependencyOf(ref, src, installDir), nil
}

// fetch checks out the tag of version, falling back to a search of the
// remote tags when the formatted tag is missing.
func (m *Manager) fetch(ctx context.Context, src *Source, version, dir string) (string, error) {
	tag := src.Tag(version)
	err := m.vcs.Sync(ctx, src.Remote, tag, dir)
	if err == nil {
		return tag, nil
	}
	tags, terr := m.vcs.Tags(ctx, src.Remote)
	if terr != nil {
		return "", err
	}
	alt, ok := vcs.MatchTag(tags, version)
	if !ok || alt == tag {
		return "", fmt.Errorf("no tag for version %s: %w", version, err)
	}
	m.logger.Debug("retrying with matched tag", "tag", alt)
	if err := m.vcs.Sync(ctx, src.Remote, alt, dir); err != nil {
		return "", err
	}
	return alt, nil
}

func dependencyOf(ref Ref, src *Source, root string) recipe.Dependency {
	cpp := recipe.NewCppInfo()
	if src.CppInfo != nil {
		cpp = src.CppInfo
	}
	return recipe.Dependency{
		Ref:           ref.String(),
		Name:          ref.Name,
		Version:       ref.Version,
		RootDir:       root,
		CMakeFileName: src.CMakeFileName,
		CppInfo:       *cpp,
		Components:    src.Components,
	}
}

// CMakeBuilder configures, builds and installs req with CMake. Tests of the
// dependency are not built.
func CMakeBuilder(ctx context.Context, req BuildRequest) error {
	s := req.Settings
	if s.BuildType == "" {
		s.BuildType = "Release"
	}
	cm := cmake.New(&recipe.Context{
		Settings: s,
		Folders: recipe.Folders{
			Source:  req.SourceDir,
			Build:   req.BuildDir,
			Package: req.InstallDir,
		},
		Stdout: req.Stdout,
		Stderr: req.Stderr,
	})
	cm.DefineBool("BUILD_TESTING", false)
	for k, v := range req.Defines {
		cm.Define(k, v)
	}
	if err := cm.Configure(ctx); err != nil {
		return fmt.Errorf("configure: %w", err)
	}
	if err := cm.Build(ctx); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	if err := cm.Install(ctx); err != nil {
		return fmt.Errorf("install: %w", err)
	}
	return nil
}
