package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/user/clfd_go/internal/masking"
	"github.com/user/clfd_go/internal/narray"
)

// Plot is a rendered PNG image with the caption used in the PDF report.
type Plot struct {
	Name    string
	Caption string
	PNG     []byte
}

const (
	plotWidth  = vg.Length(800)
	plotHeight = vg.Length(400)
)

// denseGrid adapts a 2D array to the plotter.GridXYZ interface. Rows map
// to the Y axis, columns to the X axis.
type denseGrid struct {
	rows, cols int
	at         func(row, col int) float64
}

func (g denseGrid) Dims() (int, int)   { return g.cols, g.rows }
func (g denseGrid) Z(c, r int) float64 { return g.at(r, c) }
func (g denseGrid) X(c int) float64    { return float64(c) }
func (g denseGrid) Y(r int) float64    { return float64(r) }

// maskPalette renders false cells near-white and true cells dark red.
type maskPalette struct{}

func (maskPalette) Colors() []color.Color {
	return []color.Color{
		color.RGBA{R: 0xf5, G: 0xf5, B: 0xf5, A: 0xff},
		color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	}
}

// MaskPlot renders a boolean mask as a two-color heatmap.
func MaskPlot(mask *narray.Bool, title, xLabel, yLabel string) ([]byte, error) {
	rows, cols := mask.Shape[0], mask.Shape[1]
	grid := denseGrid{
		rows: rows,
		cols: cols,
		at: func(r, c int) float64 {
			if mask.At(r, c) {
				return 1
			}
			return 0
		},
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	hm := plotter.NewHeatMap(grid, maskPalette{})
	hm.Min = 0
	hm.Max = 1
	p.Add(hm)

	return renderPNG(p)
}

// FeatureHeatmap renders a (subint, channel) feature value array.
// Non-finite values are clamped to the finite data range so degenerate
// features (e.g. kurtosis of a flat profile) cannot blank the whole plot.
func FeatureHeatmap(values *narray.Float, title string) ([]byte, error) {
	lo, hi := finiteRange(values.Data)
	rows, cols := values.Shape[0], values.Shape[1]
	grid := denseGrid{
		rows: rows,
		cols: cols,
		at: func(r, c int) float64 {
			return clamp(values.At(r, c), lo, hi)
		},
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Channel index"
	p.Y.Label.Text = "Subint index"

	hm := plotter.NewHeatMap(grid, palette.Heat(16, 1))
	hm.Min = lo
	hm.Max = hi
	p.Add(hm)

	return renderPNG(p)
}

// FeatureChannelPlot draws the per-channel mean of a feature together with
// the dashed inlier bounds derived from its stats and the Tukey multiplier.
func FeatureChannelPlot(
	values *narray.Float,
	stats masking.Stats,
	q float64,
	title string,
) ([]byte, error) {
	nsub, nchan := values.Shape[0], values.Shape[1]

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Channel index"
	p.Y.Label.Text = "Mean feature value"
	p.X.Min = 0
	p.X.Max = float64(nchan - 1)
	p.Add(plotter.NewGrid())

	points := make(plotter.XYs, nchan)
	for j := 0; j < nchan; j++ {
		sum := 0.0
		for i := 0; i < nsub; i++ {
			sum += values.At(i, j)
		}
		points[j].X = float64(j)
		points[j].Y = sum / float64(nsub)
	}
	line, err := plotter.NewLine(points)
	if err != nil {
		return nil, fmt.Errorf("building feature line: %w", err)
	}
	line.Color = color.RGBA{B: 0xb4, A: 0xff}
	p.Add(line)
	p.Legend.Add("channel mean", line)

	for _, bound := range []struct {
		label string
		y     float64
	}{
		{"vmin", stats.VMin(q)},
		{"vmax", stats.VMax(q)},
	} {
		if math.IsInf(bound.y, 0) || math.IsNaN(bound.y) {
			continue
		}
		boundLine, err := plotter.NewLine(plotter.XYs{
			{X: 0, Y: bound.y},
			{X: float64(nchan - 1), Y: bound.y},
		})
		if err != nil {
			return nil, fmt.Errorf("building bound line: %w", err)
		}
		boundLine.Color = color.RGBA{R: 0xff, A: 0xff}
		boundLine.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
		p.Add(boundLine)
		p.Legend.Add(bound.label, boundLine)
	}

	return renderPNG(p)
}

// RenderPlots produces the full plot set for a report: for every feature a
// heatmap and a per-channel line plot, plus the profile mask and, when
// present, the time-phase mask.
func RenderPlots(r *Report) ([]Plot, error) {
	var plots []Plot

	pm := r.ProfileMasking
	for _, name := range sortedFeatureNames(pm) {
		long := DisplayName(name)

		img, err := FeatureHeatmap(pm.FeatureValues[name], long)
		if err != nil {
			return nil, fmt.Errorf("rendering %s heatmap: %w", name, err)
		}
		plots = append(plots, Plot{
			Name:    "feature_heatmap_" + name,
			Caption: long + " per profile",
			PNG:     img,
		})

		img, err = FeatureChannelPlot(
			pm.FeatureValues[name], pm.FeatureStats[name], pm.Q, long)
		if err != nil {
			return nil, fmt.Errorf("rendering %s channel plot: %w", name, err)
		}
		plots = append(plots, Plot{
			Name:    "feature_channels_" + name,
			Caption: long + " per channel, with inlier bounds",
			PNG:     img,
		})
	}

	img, err := MaskPlot(pm.Mask, "Profile mask", "Channel index", "Subint index")
	if err != nil {
		return nil, fmt.Errorf("rendering profile mask: %w", err)
	}
	plots = append(plots, Plot{
		Name:    "profile_mask",
		Caption: "Rejected profiles (dark cells)",
		PNG:     img,
	})

	if r.SpikeFinding != nil {
		img, err := MaskPlot(
			r.SpikeFinding.Mask, "Time-phase mask",
			"Phase bin index", "Subint index")
		if err != nil {
			return nil, fmt.Errorf("rendering time-phase mask: %w", err)
		}
		plots = append(plots, Plot{
			Name:    "time_phase_mask",
			Caption: "Bad time-phase bins (dark cells)",
			PNG:     img,
		})
	}
	return plots, nil
}

func sortedFeatureNames(pm *masking.ProfileMaskingResult) []string {
	names := make([]string, 0, len(pm.FeatureValues))
	for name := range pm.FeatureValues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func renderPNG(p *plot.Plot) ([]byte, error) {
	writer, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return nil, fmt.Errorf("creating plot writer: %w", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("rendering plot: %w", err)
	}
	return buf.Bytes(), nil
}

// finiteRange returns the min and max finite values, falling back to
// (0, 1) when none exist or the range collapses.
func finiteRange(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo > hi {
		return 0, 1
	}
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
