package gesture

import "fmt"

// DefaultCapacity is the number of samples held by a recording window
// (10 seconds at 100 Hz).
const DefaultCapacity = 1000

// Buffer holds the three parallel per-axis sample sequences of a single
// recording. It has a fixed capacity and is reset at the start of every
// session, so no samples survive from one recording to the next.
type Buffer struct {
	capacity int
	axes     [3][]float64
}

// NewBuffer allocates a buffer that can hold capacity samples per axis.
// A non-positive capacity selects DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	b := &Buffer{capacity: capacity}
	for i := range b.axes {
		b.axes[i] = make([]float64, 0, capacity)
	}
	return b
}

// BufferFrom builds a buffer from already recorded per-axis samples. The
// three slices must have equal length; they are copied.
func BufferFrom(x, y, z []float64) (*Buffer, error) {
	if len(x) != len(y) || len(x) != len(z) {
		return nil, fmt.Errorf("axis length mismatch: x=%d y=%d z=%d", len(x), len(y), len(z))
	}
	b := NewBuffer(len(x))
	for i := range x {
		b.Append(x[i], y[i], z[i])
	}
	return b, nil
}

// Reset discards all samples while keeping the allocated storage.
func (b *Buffer) Reset() {
	for i := range b.axes {
		clear(b.axes[i][:cap(b.axes[i])])
		b.axes[i] = b.axes[i][:0]
	}
}

// Append stores one sample for each axis at the next index. It reports false
// without storing anything once the buffer is full.
func (b *Buffer) Append(x, y, z float64) bool {
	if b.Full() {
		return false
	}
	b.axes[AxisX] = append(b.axes[AxisX], x)
	b.axes[AxisY] = append(b.axes[AxisY], y)
	b.axes[AxisZ] = append(b.axes[AxisZ], z)
	return true
}

// Len returns the number of samples recorded so far.
func (b *Buffer) Len() int { return len(b.axes[AxisX]) }

// Cap returns the fixed capacity of the buffer.
func (b *Buffer) Cap() int { return b.capacity }

// Full reports whether the buffer has reached capacity.
func (b *Buffer) Full() bool { return b.Len() >= b.capacity }

// Axis returns the samples recorded for one axis. The slice aliases the
// buffer's storage and must not be modified.
func (b *Buffer) Axis(a Axis) []float64 {
	if int(a) >= len(b.axes) {
		return nil
	}
	return b.axes[a]
}
