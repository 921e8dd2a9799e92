package traceplot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gesture.vault/internal/gesture"
)

func gestureBuffer(t *testing.T) *gesture.Buffer {
	t.Helper()
	b := gesture.NewBuffer(400)
	for i := 0; i < 400; i++ {
		x := 0.0
		if i < 80 {
			x = 0.6
		}
		z := 0.0
		if i >= 200 && i < 280 {
			z = -0.6
		}
		b.Append(x, 0.05, z)
	}
	return b
}

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestSave(t *testing.T) {
	b := gestureBuffer(t)
	p := gesture.DefaultParams()
	r := gesture.Process(b, p)
	require.Equal(t, "X+,Z-", r.Signature.String())

	path := filepath.Join(t.TempDir(), "trace.png")
	require.NoError(t, Save(path, b, r, p, "test"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}

func TestWrite_SVG(t *testing.T) {
	b := gestureBuffer(t)
	p := gesture.DefaultParams()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "svg", b, gesture.Process(b, p), p, "svg"))
	assert.Contains(t, buf.String(), "<svg")
}

func TestNew_EmptyBuffer(t *testing.T) {
	b := gesture.NewBuffer(10)
	p := gesture.DefaultParams()

	pl, err := New(b, gesture.Process(b, p), p, "empty")
	require.NoError(t, err)
	assert.Equal(t, "empty", pl.Title.Text)
}

func TestWrite_UnknownFormat(t *testing.T) {
	b := gestureBuffer(t)
	p := gesture.DefaultParams()
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, "bmp", b, gesture.Process(b, p), p, "x"))
}
