package deps

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

// mockVCS implements vcs.VCS for unit testing.
type mockVCS struct {
	mu       sync.Mutex
	syncs    []string
	syncFunc func(ctx context.Context, remote, ref, dir string) error
	tagsFunc func(ctx context.Context, remote string) ([]string, error)
}

func (m *mockVCS) Sync(ctx context.Context, remote, ref, dir string) error {
	m.mu.Lock()
	m.syncs = append(m.syncs, ref)
	m.mu.Unlock()
	if m.syncFunc != nil {
		return m.syncFunc(ctx, remote, ref, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "CMakeLists.txt"), []byte("project(fake)\n"), 0o644)
}

func (m *mockVCS) Tags(ctx context.Context, remote string) ([]string, error) {
	if m.tagsFunc != nil {
		return m.tagsFunc(ctx, remote)
	}
	return nil, nil
}

// fakeBuilder installs a header into the install dir and counts its calls.
type fakeBuilder struct {
	mu    sync.Mutex
	calls []BuildRequest
	err   error
}

func (b *fakeBuilder) build(ctx context.Context, req BuildRequest) error {
	b.mu.Lock()
	b.calls = append(b.calls, req)
	b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	inc := filepath.Join(req.InstallDir, "include")
	if err := os.MkdirAll(inc, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(inc, "fake.h"), nil, 0o644)
}
