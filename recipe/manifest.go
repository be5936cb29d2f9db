package recipe

import (
	_ "embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"golang.org/x/mod/semver"
)

// ManifestFile is the name of the manifest that sits next to a recipe.
const ManifestFile = "package.json"

//go:embed manifest_schema.cue
var manifestSchema string

// Manifest is the package metadata a recipe is built from. It is read once
// and never modified.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Homepage    string `json:"homepage"`
	Description string `json:"description"`
}

// ReadManifest reads and validates the manifest at path.
func ReadManifest(path string) (*Manifest, error) {
	return LoadManifest(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// LoadManifest reads and validates the manifest called name in fsys.
// All failures are reported as ErrManifestRead.
func LoadManifest(fsys fs.FS, name string) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, Wrap(ErrManifestRead, name, err)
	}
	m, err := parseManifest(data, name)
	if err != nil {
		return nil, Wrap(ErrManifestRead, name, err)
	}
	return m, nil
}

func parseManifest(data []byte, filename string) (*Manifest, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(manifestSchema)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}
	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Manifest")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var m Manifest
	if err := unified.Decode(&m); err != nil {
		return nil, formatCUEError(err)
	}
	if !semver.IsValid(canonicalVersion(m.Version)) {
		return nil, fmt.Errorf("version: %q is not a semantic version", m.Version)
	}
	return &m, nil
}

// canonicalVersion prefixes v so versions can be checked with x/mod/semver.
func canonicalVersion(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := e.Error()
		if path := strings.Join(cueerrors.Path(e), "."); path != "" && !strings.HasPrefix(msg, path) {
			msg = path + ": " + msg
		}
		lines = append(lines, msg)
	}
	return fmt.Errorf("%s", strings.Join(lines, "; "))
}
