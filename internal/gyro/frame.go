package gyro

import (
	"encoding/binary"
	"fmt"
	"math"
)

// FrameSize is the length of an OUT_X_L..OUT_Z_H burst read.
const FrameSize = 6

// SensitivityDPS is the 2000 dps full-scale sensitivity in degrees per
// second per LSB.
const SensitivityDPS = 17.5e-3

// scale converts one count to rad/s.
const scale = SensitivityDPS * math.Pi / 180

// DecodeFrame converts a six byte little-endian X, Y, Z register frame into
// a Reading. Counts are signed 16-bit two's complement.
func DecodeFrame(b []byte) (Reading, error) {
	if len(b) != FrameSize {
		return Reading{}, fmt.Errorf("gyro frame must be %d bytes, got %d", FrameSize, len(b))
	}
	count := func(i int) float64 {
		return float64(int16(binary.LittleEndian.Uint16(b[i:]))) * scale
	}
	return Reading{X: count(0), Y: count(2), Z: count(4)}, nil
}
