package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/gesture.vault/internal/gesture"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig holds the thresholds and timings of the gesture pipeline.
// Every field is optional; the Get* accessors supply the defaults for
// anything the JSON leaves out, so partial configs are safe.
type TuningConfig struct {
	// Signature reduction
	MagnitudeCutoff *float64 `json:"magnitude_cutoff,omitempty"` // rad/s
	MinRunLength    *int     `json:"min_run_length,omitempty"`   // samples
	GapThreshold    *int     `json:"gap_threshold,omitempty"`    // samples
	BufferCapacity  *int     `json:"buffer_capacity,omitempty"`  // samples per recording
	CanonicalOrder  *string  `json:"canonical_order,omitempty"`  // "axis" or "lexicographic"

	// Sampling
	SamplePeriod       *string  `json:"sample_period,omitempty"`     // duration string like "10ms"
	SampleTimeout      *string  `json:"sample_timeout,omitempty"`    // duration string like "50ms"
	DebounceInterval   *string  `json:"debounce_interval,omitempty"` // duration string like "200ms"
	FilterCoefficient  *float64 `json:"filter_coefficient,omitempty"`
	CalibrationSamples *int     `json:"calibration_samples,omitempty"`

	// Vault policy
	RejectEmptyKey *bool `json:"reject_empty_key,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a config with every field populated with the
// reference device values.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		MagnitudeCutoff:    ptrFloat64(0.2),
		MinRunLength:       ptrInt(50),
		GapThreshold:       ptrInt(40),
		BufferCapacity:     ptrInt(1000),
		CanonicalOrder:     ptrString("axis"),
		SamplePeriod:       ptrString("10ms"),
		SampleTimeout:      ptrString("50ms"),
		DebounceInterval:   ptrString("200ms"),
		FilterCoefficient:  ptrFloat64(0.5),
		CalibrationSamples: ptrInt(100),
		RejectEmptyKey:     ptrBool(false),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
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

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching upwards from the
// working directory. Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.MagnitudeCutoff != nil && *c.MagnitudeCutoff < 0 {
		return fmt.Errorf("magnitude_cutoff must be non-negative, got %f", *c.MagnitudeCutoff)
	}
	if c.MinRunLength != nil && *c.MinRunLength < 1 {
		return fmt.Errorf("min_run_length must be at least 1, got %d", *c.MinRunLength)
	}
	if c.GapThreshold != nil && *c.GapThreshold < 0 {
		return fmt.Errorf("gap_threshold must be non-negative, got %d", *c.GapThreshold)
	}
	if c.BufferCapacity != nil && *c.BufferCapacity < 1 {
		return fmt.Errorf("buffer_capacity must be positive, got %d", *c.BufferCapacity)
	}
	if c.CanonicalOrder != nil {
		if _, err := gesture.ParseOrdering(*c.CanonicalOrder); err != nil {
			return err
		}
	}
	if c.FilterCoefficient != nil {
		if *c.FilterCoefficient <= 0 || *c.FilterCoefficient > 1 {
			return fmt.Errorf("filter_coefficient must be in (0, 1], got %f", *c.FilterCoefficient)
		}
	}
	if c.CalibrationSamples != nil && *c.CalibrationSamples < 0 {
		return fmt.Errorf("calibration_samples must be non-negative, got %d", *c.CalibrationSamples)
	}

	for name, v := range map[string]*string{
		"sample_period":     c.SamplePeriod,
		"sample_timeout":    c.SampleTimeout,
		"debounce_interval": c.DebounceInterval,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", name, *v)
		}
	}

	return nil
}

func parseDurationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def
	}
	return d
}

// GetMagnitudeCutoff returns the magnitude_cutoff value or the default.
func (c *TuningConfig) GetMagnitudeCutoff() float64 {
	if c.MagnitudeCutoff == nil {
		return 0.2
	}
	return *c.MagnitudeCutoff
}

// GetMinRunLength returns the min_run_length value or the default.
func (c *TuningConfig) GetMinRunLength() int {
	if c.MinRunLength == nil {
		return 50
	}
	return *c.MinRunLength
}

// GetGapThreshold returns the gap_threshold value or the default.
func (c *TuningConfig) GetGapThreshold() int {
	if c.GapThreshold == nil {
		return 40
	}
	return *c.GapThreshold
}

// GetBufferCapacity returns the buffer_capacity value or the default.
func (c *TuningConfig) GetBufferCapacity() int {
	if c.BufferCapacity == nil {
		return gesture.DefaultCapacity
	}
	return *c.BufferCapacity
}

// GetCanonicalOrder returns the configured ordering, falling back to axis
// priority when unset or unparseable.
func (c *TuningConfig) GetCanonicalOrder() gesture.Ordering {
	if c.CanonicalOrder == nil {
		return gesture.OrderAxisPriority
	}
	o, err := gesture.ParseOrdering(*c.CanonicalOrder)
	if err != nil {
		return gesture.OrderAxisPriority
	}
	return o
}

// GetSamplePeriod parses and returns the SamplePeriod as a time.Duration.
func (c *TuningConfig) GetSamplePeriod() time.Duration {
	return parseDurationOr(c.SamplePeriod, 10*time.Millisecond)
}

// GetSampleTimeout parses and returns the SampleTimeout as a time.Duration.
func (c *TuningConfig) GetSampleTimeout() time.Duration {
	return parseDurationOr(c.SampleTimeout, 50*time.Millisecond)
}

// GetDebounceInterval parses and returns the DebounceInterval as a time.Duration.
func (c *TuningConfig) GetDebounceInterval() time.Duration {
	return parseDurationOr(c.DebounceInterval, 200*time.Millisecond)
}

// GetFilterCoefficient returns the filter_coefficient value or the default.
func (c *TuningConfig) GetFilterCoefficient() float64 {
	if c.FilterCoefficient == nil {
		return 0.5
	}
	return *c.FilterCoefficient
}

// GetCalibrationSamples returns the calibration_samples value or the default.
func (c *TuningConfig) GetCalibrationSamples() int {
	if c.CalibrationSamples == nil {
		return 100
	}
	return *c.CalibrationSamples
}

// GetRejectEmptyKey returns the reject_empty_key value or the default.
func (c *TuningConfig) GetRejectEmptyKey() bool {
	if c.RejectEmptyKey == nil {
		return false
	}
	return *c.RejectEmptyKey
}

// Params converts the reduction thresholds into gesture.Params.
func (c *TuningConfig) Params() gesture.Params {
	return gesture.Params{
		MagnitudeCutoff: c.GetMagnitudeCutoff(),
		MinRunLength:    c.GetMinRunLength(),
		GapThreshold:    c.GetGapThreshold(),
		Ordering:        c.GetCanonicalOrder(),
	}
}
