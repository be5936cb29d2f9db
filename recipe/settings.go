package recipe

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Setting axes a recipe may declare.
const (
	AxisOS        = "os"
	AxisCompiler  = "compiler"
	AxisBuildType = "build_type"
	AxisArch      = "arch"
)

// DefaultAxes are the axes the packaging runtime keys build variants by.
var DefaultAxes = []string{AxisOS, AxisCompiler, AxisBuildType, AxisArch}

// Settings is one build variant.
type Settings struct {
	OS        string
	Compiler  string
	BuildType string
	Arch      string
}

// Get returns the value of the named axis.
func (s Settings) Get(axis string) string {
	switch axis {
	case AxisOS:
		return s.OS
	case AxisCompiler:
		return s.Compiler
	case AxisBuildType:
		return s.BuildType
	case AxisArch:
		return s.Arch
	}
	return ""
}

// Set assigns the named axis. It reports false for unknown axes.
func (s *Settings) Set(axis, value string) bool {
	switch axis {
	case AxisOS:
		s.OS = value
	case AxisCompiler:
		s.Compiler = value
	case AxisBuildType:
		s.BuildType = value
	case AxisArch:
		s.Arch = value
	default:
		return false
	}
	return true
}

// Values returns the non-empty axes as a map.
func (s Settings) Values() map[string]string {
	vals := make(map[string]string, len(DefaultAxes))
	for _, axis := range DefaultAxes {
		if v := s.Get(axis); v != "" {
			vals[axis] = v
		}
	}
	return vals
}

// String returns the variant key: values ordered by axis name and joined
// with "-".
func (s Settings) String() string {
	vals := s.Values()
	axes := make([]string, 0, len(vals))
	for axis := range vals {
		axes = append(axes, axis)
	}
	sort.Strings(axes)

	parts := make([]string, 0, len(axes))
	for _, axis := range axes {
		parts = append(parts, strings.ToLower(vals[axis]))
	}
	return strings.Join(parts, "-")
}

// Validate checks the settings needed by every build. Values end up in
// folder names, so each must be a valid segment.
func (s Settings) Validate() error {
	if s.BuildType == "" {
		return errors.New("settings: build_type is not set")
	}
	return s.CheckValues()
}

// CheckValues checks that every non-empty value is a valid segment.
func (s Settings) CheckValues() error {
	for _, axis := range DefaultAxes {
		if v := s.Get(axis); v != "" {
			if err := ValidSegment(v); err != nil {
				return fmt.Errorf("settings: %s: %w", axis, err)
			}
		}
	}
	return nil
}
