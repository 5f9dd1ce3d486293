package artifacts

import (
	"context"
	"fmt"
	"image/color"
	"slices"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"sentica-backend/internal/models"
	"sentica-backend/internal/table"
)

// TimelineAnalysis plots activity over calendar time. Records whose
// timestamp does not parse are left out of these charts only.
type TimelineAnalysis struct{}

func (g *TimelineAnalysis) Name() string { return "timeline" }

type dailyActivity struct {
	day      time.Time
	comments float64
	likes    float64
}

func (g *TimelineAnalysis) Generate(_ context.Context, t *table.Table, sink *Sink) ([]string, error) {
	var stamps []time.Time
	byDay := make(map[time.Time]*dailyActivity)
	for _, r := range t.All() {
		ts, ok := models.ParseTimestamp(r.PublishedAt)
		if !ok {
			continue
		}
		stamps = append(stamps, ts)
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		a, ok := byDay[day]
		if !ok {
			a = &dailyActivity{day: day}
			byDay[day] = a
		}
		a.comments++
		a.likes += float64(r.Likes)
	}
	if len(stamps) == 0 {
		return nil, nil
	}

	var c collector
	if err := c.add(cumulativeTimeline(sink, stamps)); err != nil {
		return c.names, err
	}

	days := make([]*dailyActivity, 0, len(byDay))
	for _, a := range byDay {
		days = append(days, a)
	}
	slices.SortFunc(days, func(a, b *dailyActivity) int { return a.day.Compare(b.day) })
	if err := c.add(engagementTimeline(sink, days)); err != nil {
		return c.names, err
	}
	return c.names, nil
}

func cumulativeTimeline(sink *Sink, stamps []time.Time) (string, error) {
	slices.SortFunc(stamps, func(a, b time.Time) int { return a.Compare(b) })
	xys := make(plotter.XYs, len(stamps))
	for i, ts := range stamps {
		xys[i] = plotter.XY{X: float64(ts.Unix()), Y: float64(i + 1)}
	}

	p := newPlot("Cumulative Comments Over Time", "Date", "Total Comments")
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	if err := addLine(p, xys, accentColor, ""); err != nil {
		return "", err
	}
	p.Y.Min = 0
	return savePlot(p, sink, "comment_timeline.png")
}

// engagementTimeline stacks daily likes above daily comment counts. The two
// panels share the x range so days line up vertically.
func engagementTimeline(sink *Sink, days []*dailyActivity) (string, error) {
	likes := make(plotter.XYs, len(days))
	comments := make(plotter.XYs, len(days))
	for i, d := range days {
		x := float64(d.day.Unix())
		likes[i] = plotter.XY{X: x, Y: d.likes}
		comments[i] = plotter.XY{X: x, Y: d.comments}
	}
	xMin, xMax := likes[0].X, likes[len(likes)-1].X
	if xMin == xMax {
		xMin -= 12 * 3600
		xMax += 12 * 3600
	}

	top := newPlot("Daily Engagement", "", "Likes")
	if err := addLine(top, likes, highlightColor, "Likes"); err != nil {
		return "", err
	}
	bottom := newPlot("", "Date", "Comments")
	if err := addLine(bottom, comments, secondaryColor, "Comments"); err != nil {
		return "", err
	}
	for _, p := range []*plot.Plot{top, bottom} {
		p.X.Min, p.X.Max = xMin, xMax
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
		p.Y.Min = 0
	}

	img := vgimg.New(chartWidth, chartHeight)
	dc := draw.New(img)
	dc.SetColor(bgColor)
	dc.Fill(dc.Rectangle.Path())

	plots := [][]*plot.Plot{{top}, {bottom}}
	tiles := draw.Tiles{
		Rows: 2, Cols: 1,
		PadX: vg.Millimeter, PadY: 2 * vg.Millimeter,
		PadTop: vg.Millimeter, PadBottom: vg.Millimeter,
		PadLeft: vg.Millimeter, PadRight: vg.Millimeter,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	f, err := sink.Create("engagement_timeline.png")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		return "", fmt.Errorf("save engagement_timeline.png: %w", err)
	}
	return "engagement_timeline.png", f.Close()
}

func addLine(p *plot.Plot, xys plotter.XYs, clr color.Color, legend string) error {
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return fmt.Errorf("line: %w", err)
	}
	line.LineStyle = draw.LineStyle{Color: clr, Width: vg.Points(2)}
	points.GlyphStyle = draw.GlyphStyle{Color: clr, Radius: vg.Points(2), Shape: draw.CircleGlyph{}}
	p.Add(line, points)
	if legend != "" {
		p.Legend.Add(legend, line)
	}
	return nil
}
