package recipe

import (
	"crypto/sha1"
	"encoding/hex"
	"maps"
	"slices"
	"strings"
)

// Info is the binary compatibility record of a package. Two builds whose
// Info serializes to the same text share a package ID.
type Info struct {
	Settings map[string]string
	Requires []string
}

// NewInfo returns the info of a build with settings s and requirements reqs.
// Test requirements never affect the package ID.
func NewInfo(s Settings, reqs []Requirement) *Info {
	info := &Info{Settings: s.Values()}
	for _, r := range reqs {
		if !r.Test {
			info.Requires = append(info.Requires, r.Ref)
		}
	}
	return info
}

// Clear drops everything, so the package has a single ID whatever it was
// built with.
func (i *Info) Clear() {
	i.Settings = nil
	i.Requires = nil
}

// Serialize renders i in its canonical text form.
func (i *Info) Serialize() string {
	var b strings.Builder
	if len(i.Settings) > 0 {
		b.WriteString("[settings]\n")
		for _, k := range slices.Sorted(maps.Keys(i.Settings)) {
			b.WriteString(k + "=" + i.Settings[k] + "\n")
		}
	}
	if len(i.Requires) > 0 {
		b.WriteString("[requires]\n")
		reqs := slices.Clone(i.Requires)
		slices.Sort(reqs)
		for _, r := range reqs {
			b.WriteString(r + "\n")
		}
	}
	return b.String()
}

// PackageID returns the SHA-1 of the serialized info.
func (i *Info) PackageID() string {
	sum := sha1.Sum([]byte(i.Serialize()))
	return hex.EncodeToString(sum[:])
}
