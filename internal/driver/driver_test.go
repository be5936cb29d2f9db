package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/goplus/hdrpkg/internal/index"
	"github.com/goplus/hdrpkg/pkgs/buildsys"
	"github.com/goplus/hdrpkg/pkgs/buildsys/cmake"
	"github.com/goplus/hdrpkg/recipe"
	"github.com/goplus/hdrpkg/recipe/headeronly"
)

var release = recipe.Settings{OS: "Linux", Compiler: "gcc", BuildType: "Release", Arch: "x86_64"}

// emptyInfoID is the package ID of a cleared Info.
const emptyInfoID = "da39a3ee5e6b4b0d3255bfef95601890afd80709"

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func newRecipeDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	manifest := `{"name": "MyLib", "version": "1.2.0", "homepage": "https://example.com/mylib", "description": "Header-only"}`
	writeFiles(t, dir, map[string]string{
		"package.json":          manifest,
		"CMakeLists.txt":        "cmake_minimum_required(VERSION 3.15)\nproject(MyLib CXX)\n",
		"include/mylib/lib.hpp": "#pragma once\n",
		"test/main.cpp":         "int main() { return 0; }\n",
		"README.md":             "not exported\n",
	})
	return dir
}

func TestCreateOrder(t *testing.T) {
	rec := newFakeRecipe()
	rec.reqs = []string{"gtest/1.14.0"}
	resolver := &fakeResolver{root: t.TempDir()}
	r := &Runner{Resolver: resolver}

	work := t.TempDir()
	res, err := r.Create(context.Background(), rec, CreateOptions{
		Settings:  release,
		RecipeDir: newRecipeDir(t),
		ExportDir: filepath.Join(work, "export"),
		BuildDir:  filepath.Join(work, "build"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := []string{"requirements", "layout", "generate", "build", "package", "package_id", "package_info"}
	if !slices.Equal(rec.calls, want) {
		t.Errorf("hooks = %v, want %v", rec.calls, want)
	}
	if resolver.calls != 1 {
		t.Errorf("resolver called %d times", resolver.calls)
	}
	// Test requirements are not part of the ID; settings are.
	if res.PackageID == emptyInfoID {
		t.Error("uncleared info produced the empty ID")
	}
	if len(res.Record.Requires) != 0 {
		t.Errorf("record requires = %v", res.Record.Requires)
	}
	if res.Published != "" {
		t.Errorf("published without index: %q", res.Published)
	}
	if _, err := index.ReadRecord(res.Context.Folders.Package); err != nil {
		t.Errorf("package record: %v", err)
	}
}

func TestCreateStopsAtFirstFailure(t *testing.T) {
	errBoom := errors.New("boom")
	tests := []struct {
		hook string
		want []string
	}{
		{"generate", []string{"requirements", "layout", "generate"}},
		{"build", []string{"requirements", "layout", "generate", "build"}},
		{"package", []string{"requirements", "layout", "generate", "build", "package"}},
	}
	for _, tt := range tests {
		t.Run(tt.hook, func(t *testing.T) {
			rec := newFakeRecipe()
			rec.fail[tt.hook] = errBoom
			x, err := index.Open(t.TempDir())
			if err != nil {
				t.Fatal(err)
			}
			r := &Runner{Index: x}
			work := t.TempDir()
			_, err = r.Create(context.Background(), rec, CreateOptions{
				Settings:  release,
				RecipeDir: newRecipeDir(t),
				ExportDir: filepath.Join(work, "export"),
				BuildDir:  filepath.Join(work, "build"),
			})
			if !errors.Is(err, errBoom) {
				t.Fatalf("err = %v, want boom", err)
			}
			if !slices.Equal(rec.calls, tt.want) {
				t.Errorf("hooks = %v, want %v", rec.calls, tt.want)
			}
			if recs, _ := x.List(); len(recs) != 0 {
				t.Errorf("failed create published %d packages", len(recs))
			}
		})
	}
}

func TestResolveFailure(t *testing.T) {
	rec := newFakeRecipe()
	rec.reqs = []string{"gtest/1.14.0"}
	errFetch := errors.New("fetch failed")
	r := &Runner{Resolver: &fakeResolver{err: errFetch}}

	_, err := r.Install(context.Background(), rec, Options{Settings: release, SourceDir: t.TempDir()})
	if !errors.Is(err, errFetch) {
		t.Fatalf("err = %v", err)
	}
	if !slices.Equal(rec.calls, []string{"requirements"}) {
		t.Errorf("hooks = %v", rec.calls)
	}
}

func TestInstallValidation(t *testing.T) {
	r := &Runner{}
	rec := newFakeRecipe()
	if _, err := r.Install(context.Background(), rec, Options{SourceDir: t.TempDir()}); err == nil {
		t.Error("missing build_type accepted")
	}
	if _, err := r.Install(context.Background(), rec, Options{Settings: release}); err == nil {
		t.Error("missing source folder accepted")
	}
	rec.reqs = []string{"gtest/1.14.0"}
	if _, err := r.Install(context.Background(), rec, Options{Settings: release, SourceDir: t.TempDir()}); err == nil {
		t.Error("requirements without resolver accepted")
	}
}

func TestBuildLocal(t *testing.T) {
	rec := newFakeRecipe()
	src := t.TempDir()
	r := &Runner{}
	c, err := r.Build(context.Background(), rec, Options{Settings: release, SourceDir: src})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(rec.calls, []string{"requirements", "layout", "generate", "build"}) {
		t.Errorf("hooks = %v", rec.calls)
	}
	if c.Folders.Build != filepath.Join(src, "build") {
		t.Errorf("build folder = %q", c.Folders.Build)
	}
}

func TestPhaseLogging(t *testing.T) {
	var buf bytes.Buffer
	r := &Runner{Logger: log.New(&buf)}
	if _, err := r.Install(context.Background(), newFakeRecipe(), Options{Settings: release, SourceDir: t.TempDir()}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, phase := range []string{"phase=requirements", "phase=layout", "phase=generate"} {
		if !strings.Contains(out, phase) {
			t.Errorf("log missing %s:\n%s", phase, out)
		}
	}
}

func TestRunnerSharedWithoutLogger(t *testing.T) {
	r := &Runner{}
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		src := t.TempDir()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = r.Install(context.Background(), newFakeRecipe(), Options{Settings: release, SourceDir: src})
		}()
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Errorf("install %d: %v", i, err)
		}
	}
	if r.Logger != nil {
		t.Error("Runner.Logger was set by a run")
	}
}

func TestExport(t *testing.T) {
	src := newRecipeDir(t)
	dst := filepath.Join(t.TempDir(), "snap")
	meta := recipe.Metadata{
		Name:           "mylib",
		Version:        "1.2.0",
		Exports:        []string{"package.json"},
		ExportsSources: []string{"package.json", "CMakeLists.txt", "include/*", "test/*", "missing/*"},
	}
	files, err := Export(meta, src, dst)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	want := []string{
		filepath.Join("export", "package.json"),
		filepath.Join("export_source", "CMakeLists.txt"),
		filepath.Join("export_source", "include", "mylib"),
		filepath.Join("export_source", "package.json"),
		filepath.Join("export_source", "test", "main.cpp"),
	}
	if !slices.Equal(files, want) {
		t.Errorf("Export = %v, want %v", files, want)
	}
	if _, err := os.Stat(filepath.Join(dst, "export_source", "include", "mylib", "lib.hpp")); err != nil {
		t.Errorf("include tree not copied: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "export_source", "README.md")); !os.IsNotExist(err) {
		t.Errorf("README.md exported: %v", err)
	}

	// A second export replaces the snapshot.
	if err := os.Remove(filepath.Join(src, "test", "main.cpp")); err != nil {
		t.Fatal(err)
	}
	if _, err := Export(meta, src, dst); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dst, "export_source", "test", "main.cpp")); !os.IsNotExist(err) {
		t.Errorf("stale file survived re-export: %v", err)
	}
}

func TestExportRejectsPathName(t *testing.T) {
	src := newRecipeDir(t)
	root := t.TempDir()
	victim := filepath.Join(root, "victim")
	writeFiles(t, victim, map[string]string{"keep.txt": "keep\n"})

	// dst as a caller would build it from the name.
	meta := recipe.Metadata{Name: "../victim", Version: "1.2.0", Exports: []string{"package.json"}}
	dst := filepath.Join(root, "export", meta.Name)
	if _, err := Export(meta, src, dst); err == nil {
		t.Fatal("Export with a path name succeeded")
	}
	if _, err := os.Stat(filepath.Join(victim, "keep.txt")); err != nil {
		t.Errorf("folder outside the export root was touched: %v", err)
	}
}

func TestCreateRejectsBadSettings(t *testing.T) {
	rec := newFakeRecipe()
	r := &Runner{Resolver: &fakeResolver{root: t.TempDir()}}
	root := t.TempDir()
	writeFiles(t, filepath.Join(root, "victim"), map[string]string{"keep.txt": "keep\n"})

	s := release
	s.BuildType = "../../victim"
	_, err := r.Create(context.Background(), rec, CreateOptions{
		Settings:  s,
		RecipeDir: newRecipeDir(t),
		ExportDir: filepath.Join(root, "export"),
		BuildDir:  filepath.Join(root, "build", "x", s.BuildType),
	})
	if err == nil {
		t.Fatal("Create with a path setting succeeded")
	}
	if _, err := os.Stat(filepath.Join(root, "export")); !os.IsNotExist(err) {
		t.Errorf("export ran before settings were checked: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "victim", "keep.txt")); err != nil {
		t.Errorf("victim removed: %v", err)
	}
}

func TestExportGlobIsOneLevel(t *testing.T) {
	src := newRecipeDir(t)
	writeFiles(t, src, map[string]string{"include/mylib/detail/impl.hpp": "#pragma once\n"})
	dst := filepath.Join(t.TempDir(), "snap")
	meta := recipe.Metadata{
		Name:           "mylib",
		Version:        "1.2.0",
		ExportsSources: []string{"include/*.hpp", "include/mylib/*.hpp"},
	}
	files, err := Export(meta, src, dst)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join("export_source", "include", "mylib", "lib.hpp")}
	if !slices.Equal(files, want) {
		t.Errorf("Export = %v, want %v", files, want)
	}
	if _, err := os.Stat(filepath.Join(dst, "export_source", "include", "mylib", "detail")); !os.IsNotExist(err) {
		t.Errorf("nested folder exported: %v", err)
	}
}

func TestCreateHeaderOnly(t *testing.T) {
	recipeDir := newRecipeDir(t)
	bs := &stepBuildSystem{}
	rec, err := headeronly.New(recipeDir, headeronly.WithBuildSystem(func(*recipe.Context) buildsys.BuildSystem { return bs }))
	if err != nil {
		t.Fatal(err)
	}
	x, err := index.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := &Runner{Resolver: &fakeResolver{root: t.TempDir()}, Index: x}

	work := t.TempDir()
	var ids []string
	for _, bt := range []string{"Release", "Debug"} {
		s := release
		s.BuildType = bt
		res, err := r.Create(context.Background(), rec, CreateOptions{
			Settings:  s,
			RecipeDir: recipeDir,
			ExportDir: filepath.Join(work, "export"),
			BuildDir:  filepath.Join(work, "build", bt),
		})
		if err != nil {
			t.Fatalf("Create(%s): %v", bt, err)
		}
		ids = append(ids, res.PackageID)

		src := filepath.Join(work, "export", ExportSourceFolder)
		if res.Context.Folders.Source != src {
			t.Errorf("source folder = %q, want the snapshot %q", res.Context.Folders.Source, src)
		}
		if _, err := os.Stat(filepath.Join(src, cmake.UserPresetsFile)); err != nil {
			t.Errorf("user presets not written to the snapshot: %v", err)
		}
		if _, err := os.Stat(filepath.Join(res.Context.Folders.Generators, "GTestConfig.cmake")); err != nil {
			t.Errorf("dependency lookup file missing: %v", err)
		}
		if len(res.CppInfo.LibDirs) != 0 || len(res.CppInfo.BinDirs) != 0 {
			t.Errorf("cpp info = %+v", res.CppInfo)
		}
		if res.Record.Name != "mylib" || res.Record.URL != "https://example.com/mylib" {
			t.Errorf("record = %+v", res.Record)
		}
	}
	for _, id := range ids {
		if id != emptyInfoID {
			t.Errorf("package id = %s, want %s", id, emptyInfoID)
		}
	}
	want := []string{"configure", "build", "test", "install", "configure", "build", "test", "install"}
	if !slices.Equal(bs.steps, want) {
		t.Errorf("steps = %v, want %v", bs.steps, want)
	}
	recs, err := x.Lookup("mylib", "1.2.0")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].PackageID != emptyInfoID {
		t.Errorf("index holds %+v", recs)
	}
}

func TestCreateHeaderOnlyTestFailure(t *testing.T) {
	recipeDir := newRecipeDir(t)
	bs := &stepBuildSystem{fail: map[string]error{"test": errToolFailed}}
	rec, err := headeronly.New(recipeDir, headeronly.WithBuildSystem(func(*recipe.Context) buildsys.BuildSystem { return bs }))
	if err != nil {
		t.Fatal(err)
	}
	x, err := index.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := &Runner{Resolver: &fakeResolver{root: t.TempDir()}, Index: x}
	work := t.TempDir()
	_, err = r.Create(context.Background(), rec, CreateOptions{
		Settings:  release,
		RecipeDir: recipeDir,
		ExportDir: filepath.Join(work, "export"),
		BuildDir:  filepath.Join(work, "build"),
	})
	if !errors.Is(err, recipe.ErrTest) {
		t.Fatalf("err = %v, want ErrTest", err)
	}
	if !errors.Is(err, errToolFailed) {
		t.Errorf("tool error not reachable: %v", err)
	}
	if slices.Contains(bs.steps, "install") {
		t.Errorf("install ran after a test failure: %v", bs.steps)
	}
	if recs, _ := x.List(); len(recs) != 0 {
		t.Errorf("failed create published %d packages", len(recs))
	}
}
