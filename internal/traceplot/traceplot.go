// Package traceplot renders a recorded gyro trace with the segment ends the
// extractor found, for checking thresholds against real gestures.
package traceplot

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/gesture.vault/internal/gesture"
)

const (
	width  = 14 * vg.Inch
	height = 6 * vg.Inch
)

var axisColors = [3]color.Color{
	color.RGBA{R: 0xE5, G: 0x39, B: 0x35, A: 0xFF},
	color.RGBA{R: 0x43, G: 0xA0, B: 0x47, A: 0xFF},
	color.RGBA{R: 0x1E, G: 0x88, B: 0xE5, A: 0xFF},
}

// New builds a plot of the three axes of b. Segment ends from r are drawn
// as markers and the magnitude cutoff as dashed lines.
func New(b *gesture.Buffer, r gesture.Result, p gesture.Params, title string) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = title
	if r.Signature.String() != "" {
		pl.Title.Text = fmt.Sprintf("%s  [%s]", title, r.Signature)
	}
	pl.X.Label.Text = "Sample"
	pl.Y.Label.Text = "Angular rate (rad/s)"

	for _, a := range gesture.Axes {
		v := b.Axis(a)
		if len(v) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(v))
		for i, y := range v {
			pts[i] = plotter.XY{X: float64(i), Y: y}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = axisColors[a]
		line.Width = vg.Points(1)
		pl.Add(line)
		pl.Legend.Add(a.String(), line)

		ends := r.Pattern(a).EndIndices
		if len(ends) == 0 {
			continue
		}
		marks := make(plotter.XYs, 0, len(ends))
		for _, e := range ends {
			if e < len(v) {
				marks = append(marks, plotter.XY{X: float64(e), Y: v[e]})
			}
		}
		sc, err := plotter.NewScatter(marks)
		if err != nil {
			return nil, err
		}
		sc.Color = axisColors[a]
		sc.Shape = draw.CircleGlyph{}
		sc.Radius = vg.Points(4)
		pl.Add(sc)
	}

	if p.MagnitudeCutoff > 0 && b.Len() > 0 {
		for _, c := range []float64{p.MagnitudeCutoff, -p.MagnitudeCutoff} {
			cut := plotter.NewFunction(func(float64) float64 { return c })
			cut.Color = color.Gray{Y: 0x99}
			cut.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
			pl.Add(cut)
		}
		pl.X.Min, pl.X.Max = 0, float64(b.Len()-1)
	}

	pl.Legend.Top = true
	pl.Legend.Left = false
	pl.Legend.XOffs = -10
	pl.Legend.YOffs = -10
	return pl, nil
}

// Save renders the trace to path; the format follows the extension
// (png, svg, pdf).
func Save(path string, b *gesture.Buffer, r gesture.Result, p gesture.Params, title string) error {
	pl, err := New(b, r, p, title)
	if err != nil {
		return err
	}
	if err := pl.Save(width, height, path); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Write renders the trace in format ("png", "svg") to w.
func Write(w io.Writer, format string, b *gesture.Buffer, r gesture.Result, p gesture.Params, title string) error {
	pl, err := New(b, r, p, title)
	if err != nil {
		return err
	}
	wt, err := pl.WriterTo(width, height, strings.ToLower(format))
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
