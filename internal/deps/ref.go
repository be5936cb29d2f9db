package deps

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/goplus/hdrpkg/recipe"
)

// Ref names a package at an exact version, written "name/version".
type Ref struct {
	Name    string
	Version string
}

// ParseRef parses "name/version". The version must be a semantic version,
// with or without a leading "v".
func ParseRef(s string) (Ref, error) {
	name, version, ok := strings.Cut(s, "/")
	if !ok || name == "" || version == "" {
		return Ref{}, fmt.Errorf("invalid reference %q: expected name/version", s)
	}
	if err := recipe.ValidSegment(name); err != nil {
		return Ref{}, fmt.Errorf("invalid reference %q: %w", s, err)
	}
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return Ref{}, fmt.Errorf("invalid reference %q: %q is not a semantic version", s, version)
	}
	return Ref{Name: name, Version: version}, nil
}

func (r Ref) String() string {
	return r.Name + "/" + r.Version
}
