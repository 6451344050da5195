// Package config loads stoppclock settings from a global YAML file and an
// optional per-directory override.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DYAI2025/stoppclock/internal/engine"
	"github.com/DYAI2025/stoppclock/internal/registry"
	"github.com/DYAI2025/stoppclock/internal/storage"
	"github.com/DYAI2025/stoppclock/internal/tools"
)

// ProjectFile is the per-directory override file name.
const ProjectFile = ".stoppclock.yaml"

// Config holds all configurable settings. Zero values mean "not set" so that
// files can be layered with Merge.
type Config struct {
	TickIntervalMs    int          `yaml:"tick_interval_ms,omitempty"`
	PersistIntervalMs int          `yaml:"persist_interval_ms,omitempty"`
	Storage           string       `yaml:"storage,omitempty"`        // "file" | "sqlite"
	DataDir           string       `yaml:"data_dir,omitempty"`       // empty: XDG data dir
	DefaultFormat     string       `yaml:"default_format,omitempty"` // "text" | "markdown" | "json"
	BarLimit          int          `yaml:"bar_limit,omitempty"`      // negative: show every timer
	HomeZone          string       `yaml:"home_zone,omitempty"`
	WorldZones        []tools.Zone `yaml:"world_zones,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		TickIntervalMs:    int(engine.DefaultPeriod / time.Millisecond),
		PersistIntervalMs: int(registry.DefaultPersistInterval / time.Millisecond),
		Storage:           storage.KindFile,
		DefaultFormat:     "text",
		BarLimit:          3,
		HomeZone:          "Local",
		WorldZones:        append([]tools.Zone(nil), tools.PresetZones...),
	}
}

// TickInterval is the engine period, clamped to 1..50 ms.
func (c Config) TickInterval() time.Duration {
	ms := min(max(c.TickIntervalMs, 1), int(engine.MaxPeriod/time.Millisecond))
	return time.Duration(ms) * time.Millisecond
}

// PersistInterval is the minimum spacing of snapshot writes.
func (c Config) PersistInterval() time.Duration {
	return time.Duration(max(c.PersistIntervalMs, 0)) * time.Millisecond
}

// ResolveDataDir returns DataDir, or the XDG data directory when unset.
func (c Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	return storage.DataDir()
}

// GlobalPath returns $XDG_CONFIG_HOME/stoppclock/config.yaml, falling back
// to ~/.config/stoppclock/config.yaml.
func GlobalPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "stoppclock", "config.yaml"), nil
}

// GlobalExists reports whether the global config file is present.
func GlobalExists() bool {
	p, err := GlobalPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// LoadGlobal reads the global config file.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads .stoppclock.yaml in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(ProjectFile, false)
}

// loadFile reads and parses a YAML config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Save writes cfg to path as YAML, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	overlay(&result, global)
	overlay(&result, project)
	return result
}

func overlay(dst, src *Config) {
	if src == nil {
		return
	}
	if src.TickIntervalMs != 0 {
		dst.TickIntervalMs = src.TickIntervalMs
	}
	if src.PersistIntervalMs != 0 {
		dst.PersistIntervalMs = src.PersistIntervalMs
	}
	if src.Storage != "" {
		dst.Storage = src.Storage
	}
	if src.DataDir != "" {
		dst.DataDir = src.DataDir
	}
	if src.DefaultFormat != "" {
		dst.DefaultFormat = src.DefaultFormat
	}
	if src.BarLimit != 0 {
		dst.BarLimit = src.BarLimit
	}
	if src.HomeZone != "" {
		dst.HomeZone = src.HomeZone
	}
	if len(src.WorldZones) > 0 {
		dst.WorldZones = src.WorldZones
	}
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
