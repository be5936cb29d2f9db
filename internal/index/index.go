// Package index is the local store of published packages.
//
// Layout:
//
//	<root>/
//	  .lock
//	  <name>/<version>/<package_id>/
//	    pkginfo.toml
//	    include/ ...
package index

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/goplus/hdrpkg/internal/fsutil"
	"github.com/goplus/hdrpkg/internal/lockedfile"
	"github.com/goplus/hdrpkg/recipe"
)

// ErrNotFound is returned by Lookup when nothing is published.
var ErrNotFound = errors.New("package not found")

// Index is a package index rooted at a directory.
type Index struct {
	root string
}

// Open returns the index at root, creating root when missing.
func Open(root string) (*Index, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Index{root: root}, nil
}

// Root returns the index directory.
func (x *Index) Root() string {
	return x.root
}

// Path returns the folder of a package.
func (x *Index) Path(name, version, id string) string {
	return filepath.Join(x.root, name, version, id)
}

func (x *Index) lock() (func(), error) {
	return lockedfile.MutexAt(filepath.Join(x.root, ".lock")).Lock()
}

// Publish copies pkgDir into the index and writes rec next to it. A package
// with the same id is replaced. It returns the published folder.
func (x *Index) Publish(rec *Record, pkgDir string) (string, error) {
	for _, seg := range []string{rec.Name, rec.Version, rec.PackageID} {
		if err := recipe.ValidSegment(seg); err != nil {
			return "", fmt.Errorf("publish: %w", err)
		}
	}
	unlock, err := x.lock()
	if err != nil {
		return "", err
	}
	defer unlock()

	dst := x.Path(rec.Name, rec.Version, rec.PackageID)
	parent := filepath.Dir(dst)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.MkdirTemp(parent, ".publish-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmp)

	if err := fsutil.CopyDir(pkgDir, tmp); err != nil {
		return "", fmt.Errorf("publish %s: %w", rec.Ref(), err)
	}
	if err := WriteRecord(tmp, rec); err != nil {
		return "", err
	}
	if err := os.RemoveAll(dst); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// Lookup returns the packages published for name/version, ordered by id.
func (x *Index) Lookup(name, version string) ([]*Record, error) {
	for _, seg := range []string{name, version} {
		if err := recipe.ValidSegment(seg); err != nil {
			return nil, fmt.Errorf("lookup: %w", err)
		}
	}
	dir := filepath.Join(x.root, name, version)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", name, version, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var recs []*Record
	for _, e := range entries {
		if !e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		rec, err := ReadRecord(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%s/%s: %w", name, version, ErrNotFound)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].PackageID < recs[j].PackageID })
	return recs, nil
}

// List returns every published package ordered by name, semantic version
// and id.
func (x *Index) List() ([]*Record, error) {
	matches, err := filepath.Glob(filepath.Join(x.root, "*", "*", "*", RecordFile))
	if err != nil {
		return nil, err
	}
	recs := make([]*Record, 0, len(matches))
	for _, m := range matches {
		if filepath.Base(filepath.Dir(m))[0] == '.' {
			continue
		}
		rec, err := ReadRecord(filepath.Dir(m))
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if c := compareVersions(a.Version, b.Version); c != 0 {
			return c < 0
		}
		return a.PackageID < b.PackageID
	})
	return recs, nil
}

// compareVersions orders semantic versions by precedence and anything else
// after them, as text.
func compareVersions(a, b string) int {
	va, vb := canonical(a), canonical(b)
	switch {
	case va != "" && vb != "":
		if c := semver.Compare(va, vb); c != 0 {
			return c
		}
	case va != "":
		return -1
	case vb != "":
		return 1
	}
	return strings.Compare(a, b)
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}
