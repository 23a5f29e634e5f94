package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/JamesPrial/scene-namer/pkg/logging"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	StorageType string         `yaml:"storageType"`
	StoragePath string         `yaml:"storagePath"`
	ScenePath   string         `yaml:"scenePath"`
	WriteBack   bool           `yaml:"writeBack"`
	Sqlite      SqliteSettings `yaml:"sqlite"`
	Logging     logging.Config `yaml:"logging"`
	Rename      RenameSettings `yaml:"rename"`
}

type SqliteSettings struct {
	WALMode bool `yaml:"walMode"`
}

// RenameSettings configures how working sets are built and how duplicates are suffixed
type RenameSettings struct {
	// Suffix is either a preset name (see SuffixPresets) or a template such as " {n:03d}"
	Suffix             string         `yaml:"suffix"`
	MaxSuffix          int            `yaml:"maxSuffix"`
	// Keep is "first" (the first member of a duplicate group keeps its name) or "none"
	Keep               string         `yaml:"keep"`
	UnnamedBase        string         `yaml:"unnamedBase"`
	SelectedOnly       bool           `yaml:"selectedOnly"`
	IncludeDescription bool           `yaml:"includeDescription"`
	Filters            FilterSettings `yaml:"filters"`
}

type FilterSettings struct {
	IncludeHidden  bool `yaml:"includeHidden"`
	IncludeLocked  bool `yaml:"includeLocked"`
	IncludeLights  bool `yaml:"includeLights"`
	IncludeGrips   bool `yaml:"includeGrips"`
	IncludeUnnamed bool `yaml:"includeUnnamed"`
}

// SuffixPresets are the named suffix templates accepted in rename.suffix
var SuffixPresets = map[string]string{
	"space":      " {n:03d}",
	"dash":       "-{n:03d}",
	"dot":        ".{n}",
	"underscore": "_{n:03d}",
}

// DefaultMaxSuffix bounds the per-entity suffix search
const DefaultMaxSuffix = 100000

// Default returns the settings used when no configuration file is present
func Default() *Settings {
	return &Settings{
		StorageType: "memory",
		Logging:     *logging.DefaultConfig(),
		Rename: RenameSettings{
			Suffix:             SuffixPresets["space"],
			MaxSuffix:          DefaultMaxSuffix,
			Keep:               "first",
			UnnamedBase:        "Object",
			IncludeDescription: true,
			Filters: FilterSettings{
				IncludeHidden: true,
				IncludeLocked: true,
			},
		},
	}
}

// SuffixTemplate resolves Suffix through the presets
func (r RenameSettings) SuffixTemplate() string {
	if tmpl, ok := SuffixPresets[strings.ToLower(r.Suffix)]; ok {
		return tmpl
	}
	return r.Suffix
}

// Validate validates the configuration settings
func (s *Settings) Validate() error {
	// Validate StorageType - must be one of [memory, sqlite] (case-insensitive)
	validStorageTypes := map[string]bool{
		"memory": true,
		"sqlite": true,
		"":       true, // Empty defaults to memory
	}
	normalizedStorageType := strings.ToLower(s.StorageType)
	if !validStorageTypes[normalizedStorageType] {
		return fmt.Errorf("storageType must be one of [memory, sqlite], got '%s'", s.StorageType)
	}
	if normalizedStorageType == "" {
		normalizedStorageType = "memory"
	}
	s.StorageType = normalizedStorageType

	if normalizedStorageType == "sqlite" && strings.TrimSpace(s.StoragePath) == "" {
		return fmt.Errorf("storagePath cannot be empty when storageType is sqlite")
	}

	if s.WriteBack && strings.TrimSpace(s.ScenePath) == "" {
		return fmt.Errorf("writeBack requires scenePath")
	}

	s.Logging.Normalize()
	if err := s.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	return s.Rename.Validate()
}

// Validate checks the rename settings
func (r *RenameSettings) Validate() error {
	if r.Suffix == "" {
		return fmt.Errorf("rename.suffix cannot be empty")
	}
	tmpl := r.SuffixTemplate()
	if !strings.Contains(tmpl, "{n") {
		return fmt.Errorf("rename.suffix must be one of [space, dash, dot, underscore] or contain a {n} placeholder, got '%s'", r.Suffix)
	}
	if r.MaxSuffix <= 0 {
		return fmt.Errorf("rename.maxSuffix must be positive, got %d", r.MaxSuffix)
	}
	if strings.TrimSpace(r.UnnamedBase) == "" {
		return fmt.Errorf("rename.unnamedBase cannot be empty")
	}
	switch strings.ToLower(r.Keep) {
	case "", "first":
		r.Keep = "first"
	case "none":
		r.Keep = "none"
	default:
		return fmt.Errorf("rename.keep must be one of [first, none], got '%s'", r.Keep)
	}
	return nil
}

// Load reads path over the defaults and validates the result
func Load(path string) (*Settings, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	settings := Default()
	err = yaml.Unmarshal(bytes, settings)
	if err != nil {
		return nil, err
	}

	// Validate the configuration after unmarshaling
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// LoadOrDefault behaves like Load but returns validated defaults when path does not exist
func LoadOrDefault(path string) (*Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		settings := Default()
		return settings, settings.Validate()
	}
	return Load(path)
}
