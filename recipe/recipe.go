// Package recipe defines the lifecycle a package recipe implements and the
// types passed between a recipe, the dependency manager and the build
// orchestrator.
package recipe

import (
	"context"
	"fmt"
	"strings"
)

// Metadata is the static part of a recipe. It is available before any
// lifecycle hook runs.
type Metadata struct {
	Name        string // canonical package name, lower case
	ProjectName string // name as written in the manifest
	Version     string
	URL         string
	Description string

	Settings       []string // axes the build is keyed by
	Exports        []string // copied with the recipe
	ExportsSources []string // copied into the source snapshot
	NoCopySource   bool     // build straight from the source snapshot
}

// MetadataFrom derives recipe metadata from a manifest.
func MetadataFrom(m *Manifest) Metadata {
	return Metadata{
		Name:        strings.ToLower(m.Name),
		ProjectName: m.Name,
		Version:     m.Version,
		URL:         m.Homepage,
		Description: m.Description,
	}
}

// Validate checks that the name and version are safe folder names.
func (m Metadata) Validate() error {
	if err := ValidSegment(m.Name); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	if err := ValidSegment(m.Version); err != nil {
		return fmt.Errorf("version: %w", err)
	}
	return nil
}

// Ref returns "name/version".
func (m Metadata) Ref() string {
	return m.Name + "/" + m.Version
}

// Recipe is implemented by package recipes. The driver calls the hooks in
// declaration order; a hook returning an error ends the invocation.
type Recipe interface {
	Metadata() Metadata

	Requirements(reqs *Requirements)
	Layout(c *Context)
	Generate(ctx context.Context, c *Context) error
	Build(ctx context.Context, c *Context) error
	Package(ctx context.Context, c *Context) error
	PackageID(info *Info)
	PackageInfo(cpp *CppInfo)
}
