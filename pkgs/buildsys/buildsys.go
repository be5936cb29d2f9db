// Package buildsys defines what the recipes expect from a build orchestrator.
package buildsys

import "context"

// BuildSystem captures the lifecycle of a native build orchestrator (CMake
// and the like). Each step blocks until the tool exits and returns the
// tool's own error on failure.
type BuildSystem interface {
	// Basic paths.
	Source(dir string)
	InstallDir(dir string)

	// Environment helper.
	Env(key, val string)

	// Lifecycle.
	Configure(ctx context.Context, args ...string) error
	Build(ctx context.Context, args ...string) error
	Test(ctx context.Context, args ...string) error
	Install(ctx context.Context, args ...string) error

	// Where artifacts land.
	OutputDir() string
}
