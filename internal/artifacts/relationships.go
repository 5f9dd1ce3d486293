package artifacts

import (
	"context"
	"fmt"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"sentica-backend/internal/models"
	"sentica-backend/internal/table"
)

// RelationshipCharts plots how likes and comment length vary with sentiment.
type RelationshipCharts struct{}

func (g *RelationshipCharts) Name() string { return "relationships" }

func (g *RelationshipCharts) Generate(_ context.Context, t *table.Table, sink *Sink) ([]string, error) {
	if t.Empty() {
		return nil, nil
	}

	likes := make(map[models.Sentiment][]float64)
	lengths := make(map[models.Sentiment][]float64)
	points := make(map[models.Sentiment]plotter.XYs)
	for _, r := range t.All() {
		likes[r.Sentiment] = append(likes[r.Sentiment], float64(r.Likes))
		lengths[r.Sentiment] = append(lengths[r.Sentiment], float64(r.Length))
		points[r.Sentiment] = append(points[r.Sentiment], plotter.XY{X: r.Polarity, Y: float64(r.Likes)})
	}

	var c collector
	if err := c.add(boxBySentiment(sink, "likes_vs_sentiment.png", "Likes by Sentiment", "Likes", likes)); err != nil {
		return c.names, err
	}
	if err := c.add(polarityScatter(sink, points)); err != nil {
		return c.names, err
	}
	if err := c.add(boxBySentiment(sink, "sentiment_vs_comment_length.png", "Comment Length by Sentiment", "Length (characters)", lengths)); err != nil {
		return c.names, err
	}

	all := t.Column(table.Length)
	mean, median := table.Mean(all), table.Median(all)
	if err := c.add(histogram(sink, "comment_length_distribution.png", "Comment Length Distribution", "Length (characters)", all, 50, accentColor,
		refLine{label: fmt.Sprintf("Mean: %.1f", mean), x: mean, color: highlightColor},
		refLine{label: fmt.Sprintf("Median: %.1f", median), x: median, color: alertColor},
	)); err != nil {
		return c.names, err
	}
	return c.names, nil
}

func polarityScatter(sink *Sink, points map[models.Sentiment]plotter.XYs) (string, error) {
	p := newPlot("Polarity vs Likes", "Polarity", "Likes")
	for _, s := range models.SentimentOrder {
		xys := points[s]
		if len(xys) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return "", fmt.Errorf("scatter %s: %w", s, err)
		}
		sc.GlyphStyle = draw.GlyphStyle{
			Color:  sentimentColors[s],
			Radius: vg.Points(3),
			Shape:  draw.CircleGlyph{},
		}
		p.Add(sc)
		p.Legend.Add(string(s), sc)
	}
	p.X.Min, p.X.Max = -1.05, 1.05
	p.Y.Min = 0
	return savePlot(p, sink, "polarity_vs_likes.png")
}
