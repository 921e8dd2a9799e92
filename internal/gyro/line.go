package gyro

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseLine decodes one sample line from the bridge. Accepted forms:
//
//	g,<x>,<y>,<z>          scaled rad/s
//	r,<12 hex digits>      raw OUT_X_L..OUT_Z_H frame
//	{"gx":..,"gy":..,"gz":..}
//	gx=<x>, gy=<y>, gz=<z>  firmware debug print
//	<x>,<y>,<z>            bare CSV
func ParseLine(line string) (Reading, error) {
	s := strings.TrimSpace(line)
	switch {
	case s == "":
		return Reading{}, fmt.Errorf("empty sample line")
	case strings.HasPrefix(s, "g,"):
		return parseTriple(strings.Split(s[2:], ","), line)
	case strings.HasPrefix(s, "r,"):
		raw, err := hex.DecodeString(strings.TrimSpace(s[2:]))
		if err != nil {
			return Reading{}, fmt.Errorf("bad raw frame %q: %w", line, err)
		}
		return DecodeFrame(raw)
	case strings.HasPrefix(s, "{"):
		var v struct {
			GX *float64 `json:"gx"`
			GY *float64 `json:"gy"`
			GZ *float64 `json:"gz"`
		}
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return Reading{}, fmt.Errorf("bad JSON sample %q: %w", line, err)
		}
		if v.GX == nil || v.GY == nil || v.GZ == nil {
			return Reading{}, fmt.Errorf("JSON sample %q is missing an axis", line)
		}
		return Reading{X: *v.GX, Y: *v.GY, Z: *v.GZ}, nil
	case strings.Contains(s, "="):
		parts := strings.Split(s, ",")
		for i, p := range parts {
			_, val, ok := strings.Cut(p, "=")
			if !ok {
				return Reading{}, fmt.Errorf("bad sample field %q in %q", p, line)
			}
			parts[i] = val
		}
		return parseTriple(parts, line)
	default:
		return parseTriple(strings.Split(s, ","), line)
	}
}

func parseTriple(fields []string, line string) (Reading, error) {
	if len(fields) != 3 {
		return Reading{}, fmt.Errorf("sample %q has %d fields, want 3", line, len(fields))
	}
	var v [3]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Reading{}, fmt.Errorf("bad sample value in %q: %w", line, err)
		}
		v[i] = x
	}
	return Reading{X: v[0], Y: v[1], Z: v[2]}, nil
}
