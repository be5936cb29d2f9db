package cmake

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File names of the CMake presets files.
const (
	PresetsFile     = "CMakePresets.json"
	UserPresetsFile = "CMakeUserPresets.json"
)

// Presets is the subset of the CMake presets schema written and read by
// this package.
type Presets struct {
	Version              int                 `json:"version"`
	Vendor               map[string]struct{} `json:"vendor,omitempty"`
	CMakeMinimumRequired *CMakeVersion       `json:"cmakeMinimumRequired,omitempty"`
	Include              []string            `json:"include,omitempty"`
	ConfigurePresets     []ConfigurePreset   `json:"configurePresets,omitempty"`
	BuildPresets         []BuildPreset       `json:"buildPresets,omitempty"`
	TestPresets          []TestPreset        `json:"testPresets,omitempty"`
}

type CMakeVersion struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

type ConfigurePreset struct {
	Name           string         `json:"name"`
	DisplayName    string         `json:"displayName,omitempty"`
	Description    string         `json:"description,omitempty"`
	Generator      string         `json:"generator,omitempty"`
	CacheVariables CacheVariables `json:"cacheVariables,omitempty"`
	ToolchainFile  string         `json:"toolchainFile,omitempty"`
	BinaryDir      string         `json:"binaryDir,omitempty"`
}

type BuildPreset struct {
	Name            string `json:"name"`
	ConfigurePreset string `json:"configurePreset"`
	Configuration   string `json:"configuration,omitempty"`
}

type TestPreset struct {
	Name            string `json:"name"`
	ConfigurePreset string `json:"configurePreset"`
	Configuration   string `json:"configuration,omitempty"`
}

// CacheVariables maps cache variable names to values. On read it accepts
// the string, boolean and {"type", "value"} forms of the schema.
type CacheVariables map[string]string

func (cv *CacheVariables) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(CacheVariables, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			out[k] = strings.ToUpper(fmt.Sprint(b))
			continue
		}
		var typed struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(v, &typed); err != nil {
			return fmt.Errorf("cache variable %s: %w", k, err)
		}
		out[k] = typed.Value
	}
	*cv = out
	return nil
}

// LoadPresets reads the presets file at path.
func LoadPresets(path string) (*Presets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Presets
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &p, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
