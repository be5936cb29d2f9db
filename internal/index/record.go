package index

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/goplus/hdrpkg/recipe"
)

// RecordFile is the name of the package info record in a package folder.
const RecordFile = "pkginfo.toml"

// Record describes a built package.
type Record struct {
	Name        string            `toml:"name"`
	Version     string            `toml:"version"`
	URL         string            `toml:"url"`
	Description string            `toml:"description"`
	PackageID   string            `toml:"package_id"`
	Settings    map[string]string `toml:"settings"`
	Requires    []string          `toml:"requires,omitempty"`
	CppInfo     recipe.CppInfo    `toml:"cpp_info"`
}

// Ref returns "name/version".
func (r *Record) Ref() string {
	return r.Name + "/" + r.Version
}

// WriteRecord writes rec to dir/pkginfo.toml.
func WriteRecord(dir string, rec *Record) error {
	data, err := toml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", RecordFile, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, RecordFile), data, 0o644)
}

// ReadRecord reads dir/pkginfo.toml.
func ReadRecord(dir string) (*Record, error) {
	path := filepath.Join(dir, RecordFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := toml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &rec, nil
}
