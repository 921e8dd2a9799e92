package db

import (
	"os"
	"testing"

	"github.com/banshee-data/gesture.vault/internal/monitoring"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(func(string, ...interface{}) {})
	os.Exit(m.Run())
}
