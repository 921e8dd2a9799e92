package serialmux

import (
	"fmt"

	"go.bug.st/serial"

	"github.com/banshee-data/gesture.vault/internal/monitoring"
)

// NewRealSerialMux opens the gyro bridge at path and wraps it in a
// SerialMux.
func NewRealSerialMux(path string, opts PortOptions) (*SerialMux[serial.Port], error) {
	normalized, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	mode, err := normalized.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	monitoring.Logf("serialmux: opened %s at %s", path, normalized)

	return NewSerialMux[serial.Port](port), nil
}

// ListPorts returns the serial ports visible to the host, for the -list-ports
// flag.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
