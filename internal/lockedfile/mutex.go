// Package lockedfile provides inter-process mutual exclusion backed by
// advisory locks on files.
package lockedfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// A Mutex provides mutual exclusion within and across processes by locking
// a well-known file. The zero Mutex is not valid.
type Mutex struct {
	Path string
}

// MutexAt returns a new Mutex with Path set to path.
func MutexAt(path string) *Mutex {
	if path == "" {
		panic("lockedfile.MutexAt: path must be non-empty")
	}
	return &Mutex{Path: path}
}

// Lock blocks until the lock file is held, creating it if needed. The
// returned unlock function releases it.
func (mu *Mutex) Lock() (func(), error) {
	if mu.Path == "" {
		panic("lockedfile.Mutex: missing Path")
	}
	if err := os.MkdirAll(filepath.Dir(mu.Path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(mu.Path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, err
	}
	if err := lock(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("lock %s: %w", mu.Path, err)
	}
	return func() {
		unlock(f)
		f.Close()
	}, nil
}
