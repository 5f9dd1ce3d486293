package artifacts

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// pieChart is a plot.Plotter drawing wedges around the canvas centre.
// gonum has no pie plotter of its own.
type pieChart struct {
	values []float64
	labels []string
	colors []color.Color
}

func (pc *pieChart) Plot(c draw.Canvas, _ *plot.Plot) {
	total := 0.0
	for _, v := range pc.values {
		total += v
	}
	if total <= 0 {
		return
	}

	cx := (c.Min.X + c.Max.X) / 2
	cy := (c.Min.Y + c.Max.Y) / 2
	r := min(c.Max.X-c.Min.X, c.Max.Y-c.Min.Y) / 2 * 0.85
	sty := labelStyle(vg.Points(12), bgColor)

	angle := math.Pi / 2
	for i, v := range pc.values {
		if v <= 0 {
			continue
		}
		sweep := v / total * 2 * math.Pi
		steps := max(2, int(sweep/(math.Pi/90)))

		pts := make([]vg.Point, 0, steps+2)
		pts = append(pts, vg.Point{X: cx, Y: cy})
		for k := 0; k <= steps; k++ {
			a := angle - sweep*float64(k)/float64(steps)
			pts = append(pts, vg.Point{
				X: cx + r*vg.Length(math.Cos(a)),
				Y: cy + r*vg.Length(math.Sin(a)),
			})
		}
		c.FillPolygon(pc.colors[i%len(pc.colors)], pts)

		mid := angle - sweep/2
		at := vg.Point{
			X: cx + r*0.62*vg.Length(math.Cos(mid)),
			Y: cy + r*0.62*vg.Length(math.Sin(mid)),
		}
		c.FillText(sty, at, fmt.Sprintf("%s\n%.1f%%", pc.labels[i], v/total*100))

		angle -= sweep
	}
}

func pieChartPlot(title string, labels []string, values []float64, colors []color.Color) *plot.Plot {
	p := plot.New()
	p.BackgroundColor = bgColor
	p.Title.Text = title
	p.Title.TextStyle.Color = fgColor
	p.HideAxes()
	p.Add(&pieChart{values: values, labels: labels, colors: colors})
	return p
}
