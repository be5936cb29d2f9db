package driver

import (
	"context"
	"errors"

	"github.com/goplus/hdrpkg/recipe"
)

// fakeRecipe records the hooks it runs and fails the ones listed.
type fakeRecipe struct {
	meta  recipe.Metadata
	reqs  []string
	calls []string
	fail  map[string]error
}

func newFakeRecipe() *fakeRecipe {
	return &fakeRecipe{
		meta: recipe.Metadata{
			Name:           "fake",
			Version:        "0.1.0",
			Exports:        []string{"package.json"},
			ExportsSources: []string{"package.json", "include/*"},
			NoCopySource:   true,
		},
		fail: map[string]error{},
	}
}

func (f *fakeRecipe) hook(name string) error {
	f.calls = append(f.calls, name)
	return f.fail[name]
}

func (f *fakeRecipe) Metadata() recipe.Metadata { return f.meta }

func (f *fakeRecipe) Requirements(reqs *recipe.Requirements) {
	f.calls = append(f.calls, "requirements")
	for _, r := range f.reqs {
		reqs.TestRequires(r)
	}
}

func (f *fakeRecipe) Layout(c *recipe.Context) {
	f.calls = append(f.calls, "layout")
	c.Layout = recipe.Layout{Source: ".", Build: "build", Generators: "build/generators"}
}

func (f *fakeRecipe) Generate(ctx context.Context, c *recipe.Context) error {
	return f.hook("generate")
}

func (f *fakeRecipe) Build(ctx context.Context, c *recipe.Context) error {
	return f.hook("build")
}

func (f *fakeRecipe) Package(ctx context.Context, c *recipe.Context) error {
	return f.hook("package")
}

func (f *fakeRecipe) PackageID(info *recipe.Info) {
	f.calls = append(f.calls, "package_id")
}

func (f *fakeRecipe) PackageInfo(cpp *recipe.CppInfo) {
	f.calls = append(f.calls, "package_info")
}

// fakeResolver returns a dependency per requirement rooted at root.
type fakeResolver struct {
	root  string
	calls int
	err   error
}

func (r *fakeResolver) Resolve(ctx context.Context, reqs []recipe.Requirement, s recipe.Settings) ([]recipe.Dependency, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	var deps []recipe.Dependency
	for _, req := range reqs {
		dep := recipe.Dependency{
			Ref:           req.Ref,
			Name:          "gtest",
			Version:       "1.14.0",
			RootDir:       r.root,
			Test:          req.Test,
			CMakeFileName: "GTest",
			CppInfo:       *recipe.NewCppInfo(),
			Components: []recipe.Component{
				{Name: "gtest", Libs: []string{"gtest"}},
				{Name: "gtest_main", Libs: []string{"gtest_main"}, Requires: []string{"gtest"}},
			},
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// stepBuildSystem records build steps and fails the ones listed.
type stepBuildSystem struct {
	steps []string
	fail  map[string]error
}

var errToolFailed = errors.New("exit status 8")

func (m *stepBuildSystem) step(name string) error {
	m.steps = append(m.steps, name)
	return m.fail[name]
}

func (m *stepBuildSystem) Source(dir string)     {}
func (m *stepBuildSystem) InstallDir(dir string) {}
func (m *stepBuildSystem) Env(key, val string)   {}
func (m *stepBuildSystem) OutputDir() string     { return "" }

func (m *stepBuildSystem) Configure(ctx context.Context, args ...string) error {
	return m.step("configure")
}

func (m *stepBuildSystem) Build(ctx context.Context, args ...string) error {
	return m.step("build")
}

func (m *stepBuildSystem) Test(ctx context.Context, args ...string) error {
	return m.step("test")
}

func (m *stepBuildSystem) Install(ctx context.Context, args ...string) error {
	return m.step("install")
}
