package artifacts

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"sentica-backend/internal/models"
)

var (
	bgColor        = color.RGBA{R: 0x1a, G: 0x1f, B: 0x3a, A: 0xff}
	fgColor        = color.RGBA{R: 0xe8, G: 0xea, B: 0xf6, A: 0xff}
	gridColor      = color.RGBA{R: 0x33, G: 0x3a, B: 0x63, A: 0xff}
	accentColor    = color.RGBA{R: 0x6c, G: 0x5c, B: 0xe7, A: 0xff}
	secondaryColor = color.RGBA{R: 0x00, G: 0xce, B: 0xc9, A: 0xff}
	highlightColor = color.RGBA{R: 0xfd, G: 0xcb, B: 0x6e, A: 0xff}
	alertColor     = color.RGBA{R: 0xff, G: 0x76, B: 0x75, A: 0xff}

	sentimentColors = map[models.Sentiment]color.Color{
		models.SentimentPositive: color.RGBA{R: 0x2e, G: 0xcc, B: 0x71, A: 0xff},
		models.SentimentNegative: color.RGBA{R: 0xe7, G: 0x4c, B: 0x3c, A: 0xff},
		models.SentimentNeutral:  color.RGBA{R: 0x95, G: 0xa5, B: 0xa6, A: 0xff},
	}

	cloudPalette = []color.Color{
		color.RGBA{R: 0xa2, G: 0x9b, B: 0xfe, A: 0xff},
		color.RGBA{R: 0x74, G: 0xb9, B: 0xff, A: 0xff},
		color.RGBA{R: 0x55, G: 0xef, B: 0xc4, A: 0xff},
		color.RGBA{R: 0xff, G: 0xea, B: 0xa7, A: 0xff},
		color.RGBA{R: 0xfa, G: 0xb1, B: 0xa0, A: 0xff},
		color.RGBA{R: 0xfd, G: 0x79, B: 0xa8, A: 0xff},
	}
)

const (
	chartWidth  = 10 * vg.Inch
	chartHeight = 6 * vg.Inch
)

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.BackgroundColor = bgColor
	p.Title.Text = title
	p.Title.TextStyle.Color = fgColor
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Legend.TextStyle.Color = fgColor
	p.Legend.Top = true
	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.LineStyle.Color = fgColor
		ax.Label.TextStyle.Color = fgColor
		ax.Tick.Label.Color = fgColor
		ax.Tick.LineStyle.Color = fgColor
	}

	grid := plotter.NewGrid()
	grid.Vertical.Color = gridColor
	grid.Horizontal.Color = gridColor
	p.Add(grid)
	return p
}

func savePlot(p *plot.Plot, sink *Sink, name string) (string, error) {
	return savePlotSize(p, sink, name, chartWidth, chartHeight)
}

func savePlotSize(p *plot.Plot, sink *Sink, name string, w, h vg.Length) (string, error) {
	path, err := sink.Reserve(name)
	if err != nil {
		return "", err
	}
	if err := p.Save(w, h, path); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return name, nil
}

func labelStyle(size vg.Length, clr color.Color) text.Style {
	return text.Style{
		Color:   clr,
		Font:    font.From(plot.DefaultFont, size),
		Handler: plot.DefaultTextHandler,
		XAlign:  text.XCenter,
		YAlign:  text.YCenter,
	}
}

// addBars adds one bar per value, each with its own colour, at x = 0..n-1.
func addBars(p *plot.Plot, values []float64, colors []color.Color, horizontal bool) error {
	for i, v := range values {
		bc, err := plotter.NewBarChart(plotter.Values{v}, vg.Points(28))
		if err != nil {
			return fmt.Errorf("bar chart: %w", err)
		}
		bc.XMin = float64(i)
		bc.Horizontal = horizontal
		bc.Color = colors[i%len(colors)]
		bc.LineStyle.Color = bgColor
		p.Add(bc)
	}
	return nil
}

// barChart renders a labelled category chart.
func barChart(sink *Sink, name, title, xLabel, yLabel string, labels []string, values []float64, colors []color.Color, horizontal bool) (string, error) {
	p := newPlot(title, xLabel, yLabel)
	if err := addBars(p, values, colors, horizontal); err != nil {
		return "", err
	}
	if horizontal {
		p.NominalY(labels...)
		p.X.Min = 0
	} else {
		p.NominalX(labels...)
		p.Y.Min = 0
	}
	return savePlot(p, sink, name)
}

// binValues buckets xs into n equal-width bins over [min, max].
func binValues(xs []float64, n int) ([]plotter.HistogramBin, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		lo = min(lo, x)
		hi = max(hi, x)
	}
	if hi == lo {
		lo -= 0.5
		hi += 0.5
	}
	width := (hi - lo) / float64(n)
	bins := make([]plotter.HistogramBin, n)
	for i := range bins {
		bins[i].Min = lo + float64(i)*width
		bins[i].Max = lo + float64(i+1)*width
	}
	for _, x := range xs {
		i := int((x - lo) / width)
		if i >= n {
			i = n - 1
		}
		bins[i].Weight++
	}
	return bins, width
}

type refLine struct {
	label string
	x     float64
	color color.Color
}

// histogram renders xs with n bins and a dashed vertical line per marker.
func histogram(sink *Sink, name, title, xLabel string, xs []float64, n int, fill color.Color, markers ...refLine) (string, error) {
	if len(xs) == 0 {
		return "", nil
	}
	p := newPlot(title, xLabel, "Frequency")
	bins, width := binValues(xs, n)
	h := &plotter.Histogram{
		Bins:      bins,
		Width:     width,
		FillColor: fill,
		LineStyle: draw.LineStyle{Color: bgColor, Width: vg.Points(0.5)},
	}
	p.Add(h)

	peak := 0.0
	for _, b := range bins {
		peak = max(peak, b.Weight)
	}
	for _, m := range markers {
		line, err := plotter.NewLine(plotter.XYs{{X: m.x, Y: 0}, {X: m.x, Y: peak * 1.05}})
		if err != nil {
			return "", err
		}
		line.LineStyle = draw.LineStyle{
			Color:  m.color,
			Width:  vg.Points(2),
			Dashes: []vg.Length{vg.Points(6), vg.Points(4)},
		}
		p.Add(line)
		p.Legend.Add(m.label, line)
	}
	p.Y.Min = 0
	return savePlot(p, sink, name)
}

// boxBySentiment draws one box per label that has values, in SentimentOrder.
func boxBySentiment(sink *Sink, name, title, yLabel string, groups map[models.Sentiment][]float64) (string, error) {
	p := newPlot(title, "Sentiment", yLabel)
	labels := make([]string, len(models.SentimentOrder))
	drawn := 0
	for i, s := range models.SentimentOrder {
		labels[i] = string(s)
		vals := groups[s]
		if len(vals) == 0 {
			continue
		}
		b, err := plotter.NewBoxPlot(vg.Points(60), float64(i), plotter.Values(vals))
		if err != nil {
			return "", fmt.Errorf("box plot %s: %w", s, err)
		}
		b.FillColor = sentimentColors[s]
		b.BoxStyle.Color = fgColor
		b.WhiskerStyle.Color = fgColor
		b.MedianStyle.Color = bgColor
		b.GlyphStyle.Color = fgColor
		p.Add(b)
		drawn++
	}
	if drawn == 0 {
		return "", nil
	}
	p.NominalX(labels...)
	return savePlot(p, sink, name)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func repeatColor(c color.Color) []color.Color { return []color.Color{c} }
