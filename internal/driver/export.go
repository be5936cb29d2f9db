package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goplus/hdrpkg/internal/fsutil"
	"github.com/goplus/hdrpkg/recipe"
)

// Folders of an export snapshot.
const (
	ExportFolder       = "export"
	ExportSourceFolder = "export_source"
)

// Export snapshots the recipe in recipeDir into dst: meta.Exports go to
// dst/export and meta.ExportsSources to dst/export_source. Patterns are
// filepath.Glob patterns relative to recipeDir, matched against the entries
// of a single folder level; a matched directory is copied whole, so
// "include/*" copies the include tree while "include/*.hpp" only picks the
// headers directly under include. Patterns matching nothing are skipped. A
// previous snapshot in dst is replaced. Export returns the copied paths,
// relative to dst.
func Export(meta recipe.Metadata, recipeDir, dst string) ([]string, error) {
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if err := os.RemoveAll(dst); err != nil {
		return nil, err
	}
	var copied []string
	for _, set := range []struct {
		folder   string
		patterns []string
	}{
		{ExportFolder, meta.Exports},
		{ExportSourceFolder, meta.ExportsSources},
	} {
		dir := filepath.Join(dst, set.folder)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		files, err := copyPatterns(recipeDir, dir, set.patterns)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", meta.Ref(), err)
		}
		for _, f := range files {
			copied = append(copied, filepath.Join(set.folder, f))
		}
	}
	sort.Strings(copied)
	return copied, nil
}

func copyPatterns(src, dst string, patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var copied []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(src, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			rel, err := filepath.Rel(src, m)
			if err != nil {
				return nil, err
			}
			if seen[rel] {
				continue
			}
			seen[rel] = true

			info, err := os.Stat(m)
			if err != nil {
				return nil, err
			}
			target := filepath.Join(dst, rel)
			if info.IsDir() {
				err = fsutil.CopyDir(m, target)
			} else {
				err = fsutil.CopyFile(m, target)
			}
			if err != nil {
				return nil, err
			}
			copied = append(copied, rel)
		}
	}
	return copied, nil
}
