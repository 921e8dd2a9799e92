package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/gesture.vault/internal/gesture"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if got, want := cfg.Params(), gesture.DefaultParams(); got != want {
		t.Errorf("Params() = %+v, want %+v", got, want)
	}
	if cfg.GetBufferCapacity() != 1000 {
		t.Errorf("GetBufferCapacity() = %d, want 1000", cfg.GetBufferCapacity())
	}
}

func TestEmptyConfigFallsBackToDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()
	def := DefaultTuningConfig()

	if cfg.Params() != def.Params() {
		t.Errorf("Params() = %+v, want %+v", cfg.Params(), def.Params())
	}
	if cfg.GetSamplePeriod() != 10*time.Millisecond {
		t.Errorf("GetSamplePeriod() = %v", cfg.GetSamplePeriod())
	}
	if cfg.GetSampleTimeout() != 50*time.Millisecond {
		t.Errorf("GetSampleTimeout() = %v", cfg.GetSampleTimeout())
	}
	if cfg.GetDebounceInterval() != 200*time.Millisecond {
		t.Errorf("GetDebounceInterval() = %v", cfg.GetDebounceInterval())
	}
	if cfg.GetFilterCoefficient() != 0.5 {
		t.Errorf("GetFilterCoefficient() = %v", cfg.GetFilterCoefficient())
	}
	if cfg.GetCalibrationSamples() != 100 {
		t.Errorf("GetCalibrationSamples() = %v", cfg.GetCalibrationSamples())
	}
	if cfg.GetRejectEmptyKey() {
		t.Error("GetRejectEmptyKey() should default to false")
	}
}

func TestLoadTuningConfig(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "tuning.json", `{
  "magnitude_cutoff": 0.15,
  "min_run_length": 40,
  "canonical_order": "lexicographic",
  "sample_timeout": "80ms",
  "reject_empty_key": true
}`)

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	want := gesture.Params{
		MagnitudeCutoff: 0.15,
		MinRunLength:    40,
		GapThreshold:    40, // omitted, default
		Ordering:        gesture.OrderLexicographic,
	}
	if got := cfg.Params(); got != want {
		t.Errorf("Params() = %+v, want %+v", got, want)
	}
	if cfg.GetSampleTimeout() != 80*time.Millisecond {
		t.Errorf("GetSampleTimeout() = %v, want 80ms", cfg.GetSampleTimeout())
	}
	if !cfg.GetRejectEmptyKey() {
		t.Error("GetRejectEmptyKey() = false, want true")
	}
}

func TestLoadTuningConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{"wrong extension", writeConfig(t, dir, "tuning.yaml", `{}`)},
		{"missing file", filepath.Join(dir, "absent.json")},
		{"bad json", writeConfig(t, dir, "bad.json", `{"min_run_length": `)},
		{"negative cutoff", writeConfig(t, dir, "cutoff.json", `{"magnitude_cutoff": -1}`)},
		{"zero min run", writeConfig(t, dir, "run.json", `{"min_run_length": 0}`)},
		{"unknown ordering", writeConfig(t, dir, "order.json", `{"canonical_order": "random"}`)},
		{"bad duration", writeConfig(t, dir, "dur.json", `{"sample_period": "fast"}`)},
		{"filter out of range", writeConfig(t, dir, "filter.json", `{"filter_coefficient": 1.5}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadTuningConfig(tt.path); err == nil {
				t.Errorf("LoadTuningConfig(%s) succeeded, want error", tt.path)
			}
		})
	}
}

func TestLoadTuningConfig_TooLarge(t *testing.T) {
	big := make([]byte, 1024*1024+1)
	for i := range big {
		big[i] = ' '
	}
	path := writeConfig(t, t.TempDir(), "big.json", string(big))
	if _, err := LoadTuningConfig(path); err == nil {
		t.Error("expected size error")
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if cfg.Params() != DefaultTuningConfig().Params() {
		t.Errorf("defaults file disagrees with DefaultTuningConfig: %+v", cfg.Params())
	}
	if cfg.GetSamplePeriod() != 10*time.Millisecond {
		t.Errorf("GetSamplePeriod() = %v", cfg.GetSamplePeriod())
	}
}

func TestGetCanonicalOrder_Unparseable(t *testing.T) {
	cfg := &TuningConfig{CanonicalOrder: ptrString("sideways")}
	if cfg.GetCanonicalOrder() != gesture.OrderAxisPriority {
		t.Error("unparseable ordering should fall back to axis priority")
	}
}
