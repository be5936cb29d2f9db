package headeronly

import (
	"context"

	"github.com/goplus/hdrpkg/pkgs/buildsys"
	"github.com/goplus/hdrpkg/recipe"
)

// mockBuildSystem records the steps it runs and fails the ones listed.
type mockBuildSystem struct {
	steps []string
	fail  map[string]error
}

func (m *mockBuildSystem) step(name string) error {
	m.steps = append(m.steps, name)
	return m.fail[name]
}

func (m *mockBuildSystem) Source(dir string)     {}
func (m *mockBuildSystem) InstallDir(dir string) {}
func (m *mockBuildSystem) Env(key, val string)   {}
func (m *mockBuildSystem) OutputDir() string     { return "" }

func (m *mockBuildSystem) Configure(ctx context.Context, args ...string) error {
	return m.step("configure")
}

func (m *mockBuildSystem) Build(ctx context.Context, args ...string) error {
	return m.step("build")
}

func (m *mockBuildSystem) Test(ctx context.Context, args ...string) error {
	return m.step("test")
}

func (m *mockBuildSystem) Install(ctx context.Context, args ...string) error {
	return m.step("install")
}

func withMock(m *mockBuildSystem) Option {
	return WithBuildSystem(func(c *recipe.Context) buildsys.BuildSystem { return m })
}
