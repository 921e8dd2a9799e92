package serialmux

import "io"

// SerialPorter is the part of a serial port the mux needs. go.bug.st/serial
// ports satisfy it, as do the in-memory ports in mock.go.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// DefaultBaudRate is the bridge firmware's UART speed. At 100 Hz a
// g,<x>,<y>,<z> line is well under 1 kB/s.
const DefaultBaudRate = 115200
