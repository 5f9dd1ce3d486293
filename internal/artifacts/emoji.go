package artifacts

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"slices"
	"strconv"

	"github.com/forPelevin/gomoji"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"sentica-backend/internal/logging"
	"sentica-backend/internal/table"
)

const minDistinctEmojiForChart = 10

// EmojiAnalysis ranks emoji usage. Chart labels use the emoji's slug since
// the bundled fonts have no emoji glyphs.
type EmojiAnalysis struct {
	Logger *slog.Logger
	// Cloud renders the emoji cloud; nil uses the wordclouds renderer.
	Cloud func([]table.Count) (image.Image, error)
}

func (g *EmojiAnalysis) Name() string { return "emoji" }

func (g *EmojiAnalysis) Generate(_ context.Context, t *table.Table, sink *Sink) ([]string, error) {
	logger := logging.OrDiscard(g.Logger)
	emojis := func(yield func(string) bool) {
		for _, r := range t.All() {
			for _, e := range r.Emojis {
				if !yield(e) {
					return
				}
			}
		}
	}
	ranked := table.Rank(emojis, 0)
	if len(ranked) == 0 {
		return nil, nil
	}

	var c collector
	rows := make([][]string, 0, 50)
	for _, e := range ranked[:min(50, len(ranked))] {
		rows = append(rows, []string{e.Key, strconv.Itoa(e.Count)})
	}
	if err := c.add("emoji_frequency.csv", writeCSV(sink, "emoji_frequency.csv", []string{"emoji", "frequency"}, rows)); err != nil {
		return c.names, err
	}

	if len(ranked) >= minDistinctEmojiForChart {
		top := slices.Clone(ranked[:min(20, len(ranked))])
		slices.Reverse(top)
		labels := make([]string, len(top))
		values := make([]float64, len(top))
		for i, e := range top {
			labels[i] = emojiLabel(e.Key)
			values[i] = float64(e.Count)
		}
		if err := c.add(barChart(sink, "emoji_frequency.png", "Top 20 Emojis", "Frequency", "",
			labels, values, repeatColor(highlightColor), true)); err != nil {
			return c.names, err
		}
	}

	labelled := make([]table.Count, len(ranked))
	for i, e := range ranked {
		labelled[i] = table.Count{Key: emojiLabel(e.Key), Count: e.Count}
	}
	render := g.Cloud
	if render == nil {
		render = renderCloud
	}
	img, err := render(labelled)
	if err == nil {
		if err := c.add(savePlot(cloudPlot("Emoji Cloud", img), sink, "emoji_wordcloud.png")); err != nil {
			return c.names, err
		}
		return c.names, nil
	}

	logger.Warn("emoji cloud failed, falling back to bubble chart",
		slog.Int("distinct_emojis", len(ranked)), slog.String("error", err.Error()))
	if err := c.add(emojiBubbles(sink, labelled[:min(15, len(labelled))])); err != nil {
		return c.names, err
	}
	return c.names, nil
}

// emojiLabel returns the gomoji slug for e, or e itself when unknown.
func emojiLabel(e string) string {
	info, err := gomoji.GetInfo(e)
	if err != nil || info.Slug == "" {
		return e
	}
	return info.Slug
}

func emojiBubbles(sink *Sink, counts []table.Count) (string, error) {
	p := newPlot("Emoji Usage", "", "Frequency")
	xys := make(plotter.XYs, len(counts))
	labels := make([]string, len(counts))
	peak := 1.0
	for i, e := range counts {
		xys[i] = plotter.XY{X: float64(i), Y: float64(e.Count)}
		labels[i] = e.Key
		peak = max(peak, float64(e.Count))
	}

	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return "", fmt.Errorf("bubble chart: %w", err)
	}
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  cloudPalette[i%len(cloudPalette)],
			Radius: vg.Points(6 + 24*math.Sqrt(xys[i].Y/peak)),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(sc)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.Y.Min = 0
	p.Y.Max = peak * 1.2
	return savePlot(p, sink, "emoji_wordcloud.png")
}
