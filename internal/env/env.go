// Package env locates the working directories of hdrpkg.
package env

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides the work dir when set.
const HomeEnv = "HDRPKG_HOME"

// WorkDir returns the hdrpkg home: $HDRPKG_HOME, or ".hdrpkg" under the
// user cache dir.
func WorkDir() (string, error) {
	if home := os.Getenv(HomeEnv); home != "" {
		return filepath.Abs(home)
	}
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, ".hdrpkg"), nil
}

// ConfigDir returns the directory searched for hdrpkg.toml.
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "hdrpkg"), nil
}

// Dirs are the folders below a work dir.
//
//	<home>/
//	  store/    built dependencies, see package deps
//	  export/   recipe and source snapshots
//	  build/    build folders of created packages
//	  index/    published packages
type Dirs struct {
	Home string
}

func (d Dirs) Store() string  { return filepath.Join(d.Home, "store") }
func (d Dirs) Export() string { return filepath.Join(d.Home, "export") }
func (d Dirs) Build() string  { return filepath.Join(d.Home, "build") }
func (d Dirs) Index() string  { return filepath.Join(d.Home, "index") }

// Ensure creates every folder with 0700 permissions.
func (d Dirs) Ensure() error {
	for _, dir := range []string{d.Store(), d.Export(), d.Build(), d.Index()} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return nil
}
