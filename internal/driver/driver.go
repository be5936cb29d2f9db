// Package driver runs the lifecycle of a recipe: it resolves dependencies,
// lays out folders and calls the hooks in order.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/goplus/hdrpkg/internal/fsutil"
	"github.com/goplus/hdrpkg/internal/index"
	"github.com/goplus/hdrpkg/recipe"
)

// Resolver installs requirements for a settings variant.
type Resolver interface {
	Resolve(ctx context.Context, reqs []recipe.Requirement, s recipe.Settings) ([]recipe.Dependency, error)
}

// Runner drives recipes.
type Runner struct {
	Resolver Resolver
	// Index receives created packages. Nil skips publishing.
	Index  *index.Index
	Logger *log.Logger

	Stdout io.Writer
	Stderr io.Writer
}

// Options locate a local invocation.
type Options struct {
	Settings recipe.Settings
	// SourceDir is the source root, usually the recipe folder.
	SourceDir string
	// BuildDir is the build root. Empty means SourceDir.
	BuildDir string
	// PackageDir receives the installed package.
	PackageDir string
}

// CreateOptions locate a create invocation.
type CreateOptions struct {
	Settings  recipe.Settings
	RecipeDir string
	// ExportDir receives the recipe snapshot.
	ExportDir string
	// BuildDir is the build root. The package folder is BuildDir/package.
	BuildDir string
}

// Result is the outcome of Create.
type Result struct {
	Context   *recipe.Context
	PackageID string
	CppInfo   *recipe.CppInfo
	Record    *index.Record
	// Published is the index folder of the package, empty without an index.
	Published string
}

var discard = log.New(io.Discard)

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		return discard
	}
	return r.Logger
}

func (r *Runner) phase(ref, name string) {
	r.logger().Info("running", "ref", ref, "phase", name)
}

// Install runs requirements, dependency resolution, layout and generate.
// The returned context is ready for Build.
func (r *Runner) Install(ctx context.Context, rec recipe.Recipe, opts Options) (*recipe.Context, error) {
	c, _, err := r.install(ctx, rec, opts)
	return c, err
}

func (r *Runner) install(ctx context.Context, rec recipe.Recipe, opts Options) (*recipe.Context, []recipe.Requirement, error) {
	meta := rec.Metadata()
	ref := meta.Ref()
	if err := opts.Settings.Validate(); err != nil {
		return nil, nil, err
	}
	if opts.SourceDir == "" {
		return nil, nil, errors.New("driver: source folder is not set")
	}
	buildDir := opts.BuildDir
	if buildDir == "" {
		buildDir = opts.SourceDir
	}

	r.phase(ref, "requirements")
	var reqs recipe.Requirements
	rec.Requirements(&reqs)
	list := reqs.List()

	var deps []recipe.Dependency
	if len(list) > 0 {
		if r.Resolver == nil {
			return nil, nil, fmt.Errorf("%s: %d requirements but no resolver", ref, len(list))
		}
		var err error
		deps, err = r.Resolver.Resolve(ctx, list, opts.Settings)
		if err != nil {
			return nil, nil, err
		}
		for _, d := range deps {
			r.logger().Debug("dependency", "ref", d.Ref, "root", d.RootDir, "test", d.Test)
		}
	}

	r.phase(ref, "layout")
	c := &recipe.Context{
		Settings:     opts.Settings,
		Dependencies: deps,
		Stdout:       r.Stdout,
		Stderr:       r.Stderr,
	}
	rec.Layout(c)
	c.Folders = c.Layout.Resolve(opts.SourceDir, buildDir, opts.PackageDir)
	r.logger().Debug("folders", "source", c.Folders.Source, "build", c.Folders.Build,
		"generators", c.Folders.Generators, "package", c.Folders.Package)

	r.phase(ref, "generate")
	if err := rec.Generate(ctx, c); err != nil {
		return nil, nil, err
	}
	return c, list, nil
}

// Build runs Install and then the build hook.
func (r *Runner) Build(ctx context.Context, rec recipe.Recipe, opts Options) (*recipe.Context, error) {
	c, err := r.Install(ctx, rec, opts)
	if err != nil {
		return nil, err
	}
	r.phase(rec.Metadata().Ref(), "build")
	if err := rec.Build(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Create exports the recipe, builds it from the snapshot, packages it,
// computes its package ID and publishes it. The first failing step ends the
// run.
func (r *Runner) Create(ctx context.Context, rec recipe.Recipe, opts CreateOptions) (*Result, error) {
	meta := rec.Metadata()
	ref := meta.Ref()
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	// Settings name the build folder, check them before anything is removed.
	if err := opts.Settings.Validate(); err != nil {
		return nil, err
	}

	r.phase(ref, "export")
	files, err := Export(meta, opts.RecipeDir, opts.ExportDir)
	if err != nil {
		return nil, err
	}
	r.logger().Debug("exported", "ref", ref, "files", len(files))

	sourceDir := filepath.Join(opts.ExportDir, ExportSourceFolder)
	if !meta.NoCopySource {
		copyDir := filepath.Join(opts.BuildDir, "src")
		if err := os.RemoveAll(copyDir); err != nil {
			return nil, err
		}
		if err := fsutil.CopyDir(sourceDir, copyDir); err != nil {
			return nil, err
		}
		sourceDir = copyDir
	}
	packageDir := filepath.Join(opts.BuildDir, "package")
	if err := os.RemoveAll(packageDir); err != nil {
		return nil, err
	}

	c, reqs, err := r.install(ctx, rec, Options{
		Settings:   opts.Settings,
		SourceDir:  sourceDir,
		BuildDir:   opts.BuildDir,
		PackageDir: packageDir,
	})
	if err != nil {
		return nil, err
	}

	r.phase(ref, "build")
	if err := rec.Build(ctx, c); err != nil {
		return nil, err
	}
	r.phase(ref, "package")
	if err := rec.Package(ctx, c); err != nil {
		return nil, err
	}

	r.phase(ref, "package_id")
	info := recipe.NewInfo(opts.Settings, reqs)
	rec.PackageID(info)
	id := info.PackageID()
	r.logger().Info("package id", "ref", ref, "id", id)

	r.phase(ref, "package_info")
	cpp := recipe.NewCppInfo()
	rec.PackageInfo(cpp)

	res := &Result{
		Context:   c,
		PackageID: id,
		CppInfo:   cpp,
		Record: &index.Record{
			Name:        meta.Name,
			Version:     meta.Version,
			URL:         meta.URL,
			Description: meta.Description,
			PackageID:   id,
			Settings:    opts.Settings.Values(),
			Requires:    info.Requires,
			CppInfo:     *cpp,
		},
	}
	if err := index.WriteRecord(packageDir, res.Record); err != nil {
		return nil, err
	}
	if r.Index != nil {
		dst, err := r.Index.Publish(res.Record, packageDir)
		if err != nil {
			return nil, err
		}
		res.Published = dst
		r.logger().Info("published", "ref", ref, "path", dst)
	}
	return res, nil
}
