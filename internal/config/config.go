package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxConfigFileBytes is the maximum accepted size for a config file.
// Anything larger is almost certainly not a hand-written settings file.
const MaxConfigFileBytes = 1 << 20

// Sensitivity bounds shared by file validation and the settings form.
// Values outside this range produce degenerate or NaN-prone deltas in the
// downstream quaternion math, so they are clamped, not rejected.
const (
	MinSensitivity = 0.00001
	MaxSensitivity = 0.1
)

// DeviceConfig describes how to reach the SpaceController driver.
type DeviceConfig struct {
	AppName     string `yaml:"app_name"`     // ASCII identity passed to scConnect2
	LibraryPath string `yaml:"library_path"` // vendor library override; "" = default install path
	Mock        bool   `yaml:"mock"`         // use the mock driver (dev/test, no hardware)
}

// MotionConfig holds the navigation tuning. It is the record the scheduler
// hands to the view transform together with every sample.
type MotionConfig struct {
	MoveSensitivity   float64 `yaml:"move_sensitivity" json:"move_sensitivity"`     // scale for tx/ty/tz
	RotateSensitivity float64 `yaml:"rotate_sensitivity" json:"rotate_sensitivity"` // scale for rx/ry/rz (radians per raw unit)
	InvertX           bool    `yaml:"invert_x" json:"invert_x"`
	InvertY           bool    `yaml:"invert_y" json:"invert_y"`
	InvertZ           bool    `yaml:"invert_z" json:"invert_z"`
	EnableRotation    bool    `yaml:"enable_rotation" json:"enable_rotation"`
}

// PollConfig controls the repeating-callback intervals.
type PollConfig struct {
	FastIntervalMs  int `yaml:"fast_interval_ms"`  // between ticks while polling (~100 Hz)
	IdleIntervalMs  int `yaml:"idle_interval_ms"`  // while disabled or no viewport visible
	FirstIntervalMs int `yaml:"first_interval_ms"` // grace before the very first tick
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
}

// Config aggregates all application configuration.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Motion   MotionConfig   `yaml:"motion"`
	Poll     PollConfig     `yaml:"poll"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// Default returns the built-in configuration. Load unmarshals the file on
// top of it, so absent keys keep these values (notably enable_rotation,
// which defaults to true and could not otherwise survive YAML's zero bool).
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			AppName: "scnav",
		},
		Motion: MotionConfig{
			MoveSensitivity:   0.001,
			RotateSensitivity: 0.0005,
			EnableRotation:    true,
		},
		Poll: PollConfig{
			FastIntervalMs:  10,
			IdleIntervalMs:  500,
			FirstIntervalMs: 1000,
		},
		Defaults: DefaultsConfig{
			DebugLevel: 1,
		},
	}
}

// ValidateConfigPath checks that path points at a plausible config file:
// a .yaml file inside a configs/ directory, with no traversal tricks.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("config path %q must not contain '..'", path)
	}
	if filepath.Ext(path) != ".yaml" {
		return fmt.Errorf("config path %q must have .yaml extension", path)
	}
	clean := filepath.Clean(path)
	if filepath.Base(filepath.Dir(clean)) != "configs" {
		return fmt.Errorf("config path %q must live in a configs/ directory", path)
	}
	return nil
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > MaxConfigFileBytes {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), MaxConfigFileBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	// Basic validation
	if cfg.Device.AppName == "" {
		cfg.Device.AppName = "scnav"
	}
	if cfg.Defaults.DebugLevel < 0 || cfg.Defaults.DebugLevel > 4 {
		return nil, fmt.Errorf("debug_level must be between 0 and 4, got %d", cfg.Defaults.DebugLevel)
	}
	if cfg.Poll.FastIntervalMs <= 0 {
		cfg.Poll.FastIntervalMs = 10
	}
	if cfg.Poll.IdleIntervalMs <= 0 {
		cfg.Poll.IdleIntervalMs = 500
	}
	if cfg.Poll.FirstIntervalMs < 0 {
		cfg.Poll.FirstIntervalMs = 1000
	}
	if cfg.Poll.FastIntervalMs > cfg.Poll.IdleIntervalMs {
		return nil, fmt.Errorf("fast_interval_ms (%d) must not exceed idle_interval_ms (%d)",
			cfg.Poll.FastIntervalMs, cfg.Poll.IdleIntervalMs)
	}

	cfg.Motion = cfg.Motion.Clamped()

	return cfg, nil
}

// Clamped returns a copy with both sensitivities forced into
// [MinSensitivity, MaxSensitivity]. Zero or negative values fall back to
// the defaults rather than the minimum.
func (m MotionConfig) Clamped() MotionConfig {
	def := Default().Motion
	if m.MoveSensitivity <= 0 {
		m.MoveSensitivity = def.MoveSensitivity
	}
	if m.RotateSensitivity <= 0 {
		m.RotateSensitivity = def.RotateSensitivity
	}
	if m.MoveSensitivity < MinSensitivity {
		m.MoveSensitivity = MinSensitivity
	}
	if m.MoveSensitivity > MaxSensitivity {
		m.MoveSensitivity = MaxSensitivity
	}
	if m.RotateSensitivity < MinSensitivity {
		m.RotateSensitivity = MinSensitivity
	}
	if m.RotateSensitivity > MaxSensitivity {
		m.RotateSensitivity = MaxSensitivity
	}
	return m
}

// FastInterval returns the delay between two polling ticks.
func (c *Config) FastInterval() time.Duration {
	return time.Duration(c.Poll.FastIntervalMs) * time.Millisecond
}

// IdleInterval returns the delay used while nothing can be polled.
func (c *Config) IdleInterval() time.Duration {
	return time.Duration(c.Poll.IdleIntervalMs) * time.Millisecond
}

// FirstInterval returns the grace delay before the first tick.
func (c *Config) FirstInterval() time.Duration {
	return time.Duration(c.Poll.FirstIntervalMs) * time.Millisecond
}

// Store holds the live motion settings. The host owns the values; the
// scheduler reads the current snapshot each tick, so edits coming from the
// settings form or a config reload apply on the next cycle without restart.
type Store struct {
	mu     sync.RWMutex
	motion MotionConfig
}

// NewStore creates a store seeded with the given settings.
func NewStore(m MotionConfig) *Store {
	return &Store{motion: m.Clamped()}
}

// Motion returns the current settings snapshot.
func (s *Store) Motion() MotionConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.motion
}

// SetMotion replaces the settings. Sensitivities are re-clamped so callers
// cannot push values out of bounds.
func (s *Store) SetMotion(m MotionConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.motion = m.Clamped()
}
