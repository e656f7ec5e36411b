package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical simulation defaults file.
const DefaultConfigPath = "config/simulation.defaults.json"

// Noise count policies accepted by noise_count_policy.
const (
	PolicyTruncate = "truncate"
	PolicyRound    = "round"
)

// SimConfig holds every scalar parameter of a simulation run and of the
// reconstruction pass. Fields are pointers so partial files keep the defaults
// returned by the Get* accessors.
type SimConfig struct {
	// Simulation
	TargetCount      *int     `json:"target_count,omitempty" yaml:"target_count,omitempty"`
	NoiseBudget      *int     `json:"noise_budget,omitempty" yaml:"noise_budget,omitempty"`
	NoiseSigma       *float64 `json:"noise_sigma,omitempty" yaml:"noise_sigma,omitempty"`
	NoiseCountPolicy *string  `json:"noise_count_policy,omitempty" yaml:"noise_count_policy,omitempty"`
	ClutterCount     *int     `json:"clutter_count,omitempty" yaml:"clutter_count,omitempty"`
	RangeMax         *float64 `json:"range_max,omitempty" yaml:"range_max,omitempty"`
	MaxSpeed         *float64 `json:"max_speed,omitempty" yaml:"max_speed,omitempty"`
	Ticks            *int     `json:"ticks,omitempty" yaml:"ticks,omitempty"`
	TickInterval     *string  `json:"tick_interval,omitempty" yaml:"tick_interval,omitempty"` // duration string like "50ms"
	Seed             *uint64  `json:"seed,omitempty" yaml:"seed,omitempty"`                   // 0 seeds from the wall clock
	LogPath          *string  `json:"log_path,omitempty" yaml:"log_path,omitempty"`

	// Static clustering
	Eps         *float64 `json:"eps,omitempty" yaml:"eps,omitempty"`
	MinSamples  *int     `json:"min_samples,omitempty" yaml:"min_samples,omitempty"`
	Standardize *bool    `json:"standardize,omitempty" yaml:"standardize,omitempty"`

	// Windowed clustering animation
	WindowStep        *int     `json:"window_step,omitempty" yaml:"window_step,omitempty"`
	WindowEps         *float64 `json:"window_eps,omitempty" yaml:"window_eps,omitempty"`
	WindowMinSamples  *int     `json:"window_min_samples,omitempty" yaml:"window_min_samples,omitempty"`
	WindowStandardize *bool    `json:"window_standardize,omitempty" yaml:"window_standardize,omitempty"`
	WindowPause       *string  `json:"window_pause,omitempty" yaml:"window_pause,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrUint64(v uint64) *uint64    { return &v }

// EmptySimConfig returns a SimConfig with all fields set to nil.
func EmptySimConfig() *SimConfig {
	return &SimConfig{}
}

// DefaultSimConfig returns a SimConfig with every field populated from the
// built-in defaults.
func DefaultSimConfig() *SimConfig {
	return &SimConfig{
		TargetCount:       ptrInt(10),
		NoiseBudget:       ptrInt(500),
		NoiseSigma:        ptrFloat64(5),
		NoiseCountPolicy:  ptrString(PolicyTruncate),
		ClutterCount:      ptrInt(100),
		RangeMax:          ptrFloat64(100),
		MaxSpeed:          ptrFloat64(5),
		Ticks:             ptrInt(200),
		TickInterval:      ptrString("50ms"),
		Seed:              ptrUint64(0),
		LogPath:           ptrString("all_points_data.txt"),
		Eps:               ptrFloat64(0.5),
		MinSamples:        ptrInt(5),
		Standardize:       ptrBool(false),
		WindowStep:        ptrInt(10),
		WindowEps:         ptrFloat64(0.3),
		WindowMinSamples:  ptrInt(2),
		WindowStandardize: ptrBool(true),
		WindowPause:       ptrString("500ms"),
	}
}

// LoadSimConfig loads a SimConfig from a .json, .yaml or .yml file.
// The file must be under 1MB. Fields omitted from the file fall back to the
// defaults through the Get* accessors, so partial configs are safe.
func LoadSimConfig(path string) (*SimConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySimConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *SimConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadSimConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *SimConfig) Validate() error {
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"noise_sigma", c.NoiseSigma},
		{"range_max", c.RangeMax},
		{"max_speed", c.MaxSpeed},
		{"eps", c.Eps},
		{"window_eps", c.WindowEps},
	} {
		if f.v != nil && (math.IsNaN(*f.v) || math.IsInf(*f.v, 0)) {
			return fmt.Errorf("%s must be finite, got %v", f.name, *f.v)
		}
	}
	if c.TargetCount != nil && *c.TargetCount < 0 {
		return fmt.Errorf("target_count must be non-negative, got %d", *c.TargetCount)
	}
	if c.NoiseBudget != nil && *c.NoiseBudget < 0 {
		return fmt.Errorf("noise_budget must be non-negative, got %d", *c.NoiseBudget)
	}
	if c.NoiseSigma != nil && *c.NoiseSigma < 0 {
		return fmt.Errorf("noise_sigma must be non-negative, got %f", *c.NoiseSigma)
	}
	if c.NoiseCountPolicy != nil {
		switch *c.NoiseCountPolicy {
		case PolicyTruncate, PolicyRound:
		default:
			return fmt.Errorf("noise_count_policy must be %q or %q, got %q", PolicyTruncate, PolicyRound, *c.NoiseCountPolicy)
		}
	}
	if c.ClutterCount != nil && *c.ClutterCount < 0 {
		return fmt.Errorf("clutter_count must be non-negative, got %d", *c.ClutterCount)
	}
	if c.RangeMax != nil && *c.RangeMax <= 0 {
		return fmt.Errorf("range_max must be positive, got %f", *c.RangeMax)
	}
	if c.MaxSpeed != nil && *c.MaxSpeed < 0 {
		return fmt.Errorf("max_speed must be non-negative, got %f", *c.MaxSpeed)
	}
	if c.Ticks != nil && *c.Ticks < 0 {
		return fmt.Errorf("ticks must be non-negative, got %d", *c.Ticks)
	}
	if c.TickInterval != nil && *c.TickInterval != "" {
		if _, err := time.ParseDuration(*c.TickInterval); err != nil {
			return fmt.Errorf("invalid tick_interval '%s': %w", *c.TickInterval, err)
		}
	}
	if c.Eps != nil && *c.Eps <= 0 {
		return fmt.Errorf("eps must be positive, got %f", *c.Eps)
	}
	if c.MinSamples != nil && *c.MinSamples < 1 {
		return fmt.Errorf("min_samples must be at least 1, got %d", *c.MinSamples)
	}
	if c.WindowStep != nil && *c.WindowStep < 1 {
		return fmt.Errorf("window_step must be at least 1, got %d", *c.WindowStep)
	}
	if c.WindowEps != nil && *c.WindowEps <= 0 {
		return fmt.Errorf("window_eps must be positive, got %f", *c.WindowEps)
	}
	if c.WindowMinSamples != nil && *c.WindowMinSamples < 1 {
		return fmt.Errorf("window_min_samples must be at least 1, got %d", *c.WindowMinSamples)
	}
	if c.WindowPause != nil && *c.WindowPause != "" {
		if _, err := time.ParseDuration(*c.WindowPause); err != nil {
			return fmt.Errorf("invalid window_pause '%s': %w", *c.WindowPause, err)
		}
	}
	return nil
}

// GetTargetCount returns the target_count value or the default.
func (c *SimConfig) GetTargetCount() int {
	if c.TargetCount == nil {
		return 10
	}
	return *c.TargetCount
}

// GetNoiseBudget returns the noise_budget value or the default.
func (c *SimConfig) GetNoiseBudget() int {
	if c.NoiseBudget == nil {
		return 500
	}
	return *c.NoiseBudget
}

// GetNoiseSigma returns the noise_sigma value or the default.
func (c *SimConfig) GetNoiseSigma() float64 {
	if c.NoiseSigma == nil {
		return 5
	}
	return *c.NoiseSigma
}

// GetNoiseCountPolicy returns the noise_count_policy value or the default.
func (c *SimConfig) GetNoiseCountPolicy() string {
	if c.NoiseCountPolicy == nil || *c.NoiseCountPolicy == "" {
		return PolicyTruncate
	}
	return *c.NoiseCountPolicy
}

// GetClutterCount returns the clutter_count value or the default.
func (c *SimConfig) GetClutterCount() int {
	if c.ClutterCount == nil {
		return 100
	}
	return *c.ClutterCount
}

// GetRangeMax returns the range_max value or the default.
func (c *SimConfig) GetRangeMax() float64 {
	if c.RangeMax == nil {
		return 100
	}
	return *c.RangeMax
}

// GetMaxSpeed returns the max_speed value or the default.
func (c *SimConfig) GetMaxSpeed() float64 {
	if c.MaxSpeed == nil {
		return 5
	}
	return *c.MaxSpeed
}

// GetTicks returns the ticks value or the default.
func (c *SimConfig) GetTicks() int {
	if c.Ticks == nil {
		return 200
	}
	return *c.Ticks
}

// GetTickInterval parses and returns the TickInterval as a time.Duration.
func (c *SimConfig) GetTickInterval() time.Duration {
	return parseDurationOr(c.TickInterval, 50*time.Millisecond)
}

// GetSeed returns the seed value or the default (0, seed from the clock).
func (c *SimConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return 0
	}
	return *c.Seed
}

// GetLogPath returns the log_path value or the default.
func (c *SimConfig) GetLogPath() string {
	if c.LogPath == nil || *c.LogPath == "" {
		return "all_points_data.txt"
	}
	return *c.LogPath
}

// GetEps returns the eps value or the default.
func (c *SimConfig) GetEps() float64 {
	if c.Eps == nil {
		return 0.5
	}
	return *c.Eps
}

// GetMinSamples returns the min_samples value or the default.
func (c *SimConfig) GetMinSamples() int {
	if c.MinSamples == nil {
		return 5
	}
	return *c.MinSamples
}

// GetStandardize returns the standardize value or the default.
func (c *SimConfig) GetStandardize() bool {
	if c.Standardize == nil {
		return false
	}
	return *c.Standardize
}

// GetWindowStep returns the window_step value or the default.
func (c *SimConfig) GetWindowStep() int {
	if c.WindowStep == nil {
		return 10
	}
	return *c.WindowStep
}

// GetWindowEps returns the window_eps value or the default.
func (c *SimConfig) GetWindowEps() float64 {
	if c.WindowEps == nil {
		return 0.3
	}
	return *c.WindowEps
}

// GetWindowMinSamples returns the window_min_samples value or the default.
func (c *SimConfig) GetWindowMinSamples() int {
	if c.WindowMinSamples == nil {
		return 2
	}
	return *c.WindowMinSamples
}

// GetWindowStandardize returns the window_standardize value or the default.
func (c *SimConfig) GetWindowStandardize() bool {
	if c.WindowStandardize == nil {
		return true
	}
	return *c.WindowStandardize
}

// GetWindowPause parses and returns the WindowPause as a time.Duration.
func (c *SimConfig) GetWindowPause() time.Duration {
	return parseDurationOr(c.WindowPause, 500*time.Millisecond)
}

func parseDurationOr(s *string, def time.Duration) time.Duration {
	if s == nil || *s == "" {
		return def
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return def
	}
	return d
}
