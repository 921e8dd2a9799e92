package serialmux

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"
)

// ScriptedPort replays a fixed set of lines, one per interval, and records
// every command written to it. It backs the -port=mock dev mode and tests.
type ScriptedPort struct {
	r *io.PipeReader
	w *io.PipeWriter

	mu      sync.Mutex
	written bytes.Buffer
	closed  bool
}

// NewScriptedPort starts replaying lines. When loop is true the script
// restarts after the last line; otherwise the port reports EOF.
func NewScriptedPort(lines []string, interval time.Duration, loop bool) *ScriptedPort {
	r, w := io.Pipe()
	p := &ScriptedPort{r: r, w: w}
	go func() {
		defer w.Close()
		for {
			for _, line := range lines {
				if interval > 0 {
					time.Sleep(interval)
				}
				if _, err := io.WriteString(w, line+"\n"); err != nil {
					return
				}
			}
			if !loop || len(lines) == 0 {
				return
			}
		}
	}()
	return p
}

func (p *ScriptedPort) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *ScriptedPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, errors.New("serial port closed")
	}
	return p.written.Write(b)
}

// Close stops the replay.
func (p *ScriptedPort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.r.Close()
	return nil
}

// Written returns everything written to the port so far.
func (p *ScriptedPort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

// NewMockSerialMux creates a SerialMux backed by a looping ScriptedPort.
func NewMockSerialMux(lines []string, interval time.Duration) *SerialMux[*ScriptedPort] {
	return NewSerialMux(NewScriptedPort(lines, interval, true))
}

// TestableSerialPort implements SerialPorter with configurable behaviour for testing.
// Reads block until data is added or the port is closed.
type TestableSerialPort struct {
	mu sync.Mutex

	readBuffer  bytes.Buffer
	writeBuffer bytes.Buffer

	// WriteError is returned by the next Write call if set
	WriteError error
	// ShortWrite makes Write report one byte fewer than it was given
	ShortWrite bool

	closed   bool
	readCond *sync.Cond
}

// NewTestableSerialPort creates a new TestableSerialPort for testing.
func NewTestableSerialPort() *TestableSerialPort {
	tsp := &TestableSerialPort{}
	tsp.readCond = sync.NewCond(&tsp.mu)
	return tsp
}

// Read blocks until data is available or the port is closed.
func (t *TestableSerialPort) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for !t.closed && t.readBuffer.Len() == 0 {
		t.readCond.Wait()
	}
	if t.closed && t.readBuffer.Len() == 0 {
		return 0, io.EOF
	}
	return t.readBuffer.Read(p)
}

// Write captures p, optionally simulating a failure.
func (t *TestableSerialPort) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, errors.New("serial port closed")
	}
	if t.WriteError != nil {
		err := t.WriteError
		t.WriteError = nil
		return 0, err
	}
	n, err := t.writeBuffer.Write(p)
	if t.ShortWrite && n > 0 {
		n--
	}
	return n, err
}

// Close marks the port as closed and wakes blocked readers.
func (t *TestableSerialPort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.readCond.Broadcast()
	return nil
}

// AddLines queues newline-terminated lines for subsequent reads.
func (t *TestableSerialPort) AddLines(lines ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, l := range lines {
		t.readBuffer.WriteString(l + "\n")
	}
	t.readCond.Broadcast()
}

// Written returns all data written to the port.
func (t *TestableSerialPort) Written() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writeBuffer.String()
}
