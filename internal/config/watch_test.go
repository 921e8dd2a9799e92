package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/gesture.vault/internal/monitoring"
)

func TestWatch_ReloadsValidChanges(t *testing.T) {
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })

	dir := t.TempDir()
	path := writeConfig(t, dir, "tuning.json", `{"gap_threshold": 40}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *TuningConfig, 4)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, func(c *TuningConfig) { got <- c }) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"gap_threshold": -3}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"gap_threshold": 25}`), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-got:
			if cfg.GetGapThreshold() == 25 {
				cancel()
				if err := <-done; err != nil {
					t.Errorf("Watch returned %v", err)
				}
				return
			}
			if cfg.GetGapThreshold() < 0 {
				t.Fatalf("invalid config was applied: %d", cfg.GetGapThreshold())
			}
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "tuning.json"), func(*TuningConfig) {})
	if err == nil {
		t.Error("expected error watching a missing directory")
	}
}
