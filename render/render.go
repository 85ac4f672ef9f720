// Package render draws sampled motion profiles, either as a PNG image with
// one panel per curve or as unicode sparklines for terminals.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/npillmayer/scurve/profile"
)

// Curve names a single curve of a sampled profile.
type Curve struct {
	Name   string
	Unit   string
	Values []float64
}

// Curves returns the four curves of a series, in the order jerk,
// acceleration, velocity, position.
func Curves(s profile.Series) []Curve {
	return []Curve{
		{"jerk", "units/s³", s.Jerk},
		{"acceleration", "units/s²", s.Accel},
		{"velocity", "units/s", s.Vel},
		{"position", "units", s.Pos},
	}
}

// Options control the size of a rendered image.
type Options struct {
	Width  vg.Length // total width
	Height vg.Length // total height, shared by all panels
	DPI    int
}

// DefaultOptions is a portrait page of four panels.
var DefaultOptions = Options{Width: 8 * vg.Inch, Height: 10 * vg.Inch, DPI: 150}

func newPanel(title string, xs []float64, c Curve) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = fmt.Sprintf("%s (%s)", c.Name, c.Unit)
	p.Add(plotter.NewGrid())
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = c.Values[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(2)
	p.Add(line)
	return p, nil
}

// WritePNG renders the four curves of s as stacked panels sharing the time
// axis and writes the PNG encoding to w.
func WritePNG(w io.Writer, s profile.Series, title string, opt Options) error {
	if s.Len() == 0 {
		return fmt.Errorf("render: empty series")
	}
	curves := Curves(s)
	plots := make([][]*plot.Plot, len(curves))
	for i, c := range curves {
		if len(c.Values) != s.Len() {
			return fmt.Errorf("render: %s has %d samples, time axis %d", c.Name, len(c.Values), s.Len())
		}
		t := ""
		if i == 0 {
			t = title
		}
		p, err := newPanel(t, s.Time, c)
		if err != nil {
			return fmt.Errorf("render: %s panel: %w", c.Name, err)
		}
		plots[i] = []*plot.Plot{p}
	}
	if opt.DPI <= 0 {
		opt = DefaultOptions
	}
	img := vgimg.NewWith(vgimg.UseWH(opt.Width, opt.Height), vgimg.UseDPI(opt.DPI))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter * 3,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("render: cannot write png: %w", err)
	}
	return nil
}

// === Sparklines ============================================================

var ticks = []rune("▁▂▃▄▅▆▇█")

// Sparkline condenses values into a line of width block characters. Values
// are resampled by nearest neighbour and scaled between their minimum and
// maximum; a constant curve is drawn at mid height.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	var b strings.Builder
	for i := 0; i < width; i++ {
		k := 0
		if width > 1 {
			k = int(math.Round(float64(i) * float64(len(values)-1) / float64(width-1)))
		}
		v := values[k]
		switch {
		case math.IsNaN(v):
			b.WriteRune(' ')
		case hi-lo <= 1e-12*math.Max(math.Abs(hi), math.Abs(lo)) || math.IsInf(lo, 0):
			b.WriteRune(ticks[len(ticks)/2])
		default:
			level := int(math.Round((v - lo) / (hi - lo) * float64(len(ticks)-1)))
			b.WriteRune(ticks[level])
		}
	}
	return b.String()
}
