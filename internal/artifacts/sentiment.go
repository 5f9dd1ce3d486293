package artifacts

import (
	"context"
	"fmt"
	"image/color"

	"gonum.org/v1/plot/vg"

	"sentica-backend/internal/models"
	"sentica-backend/internal/table"
)

// SentimentCharts renders the label distribution and the score histograms.
type SentimentCharts struct{}

func (g *SentimentCharts) Name() string { return "sentiment" }

func (g *SentimentCharts) Generate(_ context.Context, t *table.Table, sink *Sink) ([]string, error) {
	if t.Empty() {
		return nil, nil
	}

	counts := t.SentimentCounts()
	labels := make([]string, 0, 3)
	values := make([]float64, 0, 3)
	colors := make([]color.Color, 0, 3)
	for _, s := range models.SentimentOrder {
		labels = append(labels, string(s))
		values = append(values, float64(counts.Get(s)))
		colors = append(colors, sentimentColors[s])
	}

	var c collector
	if err := c.add(barChart(sink, "sentiment_bar.png", "Sentiment Distribution", "Sentiment", "Number of Comments",
		labels, values, colors, false)); err != nil {
		return c.names, err
	}

	pie := pieChartPlot("Sentiment Share", labels, values, colors)
	if err := c.add(savePlotSize(pie, sink, "sentiment_pie.png", 7*vg.Inch, 7*vg.Inch)); err != nil {
		return c.names, err
	}

	ratio := [][]string{{
		fmt.Sprintf("%.2f", counts.Percent(models.SentimentPositive)),
		fmt.Sprintf("%.2f", counts.Percent(models.SentimentNegative)),
		fmt.Sprintf("%.2f", counts.Percent(models.SentimentNeutral)),
	}}
	if err := c.add("sentiment_ratio.csv", writeCSV(sink, "sentiment_ratio.csv",
		[]string{"positive_percentage", "negative_percentage", "neutral_percentage"}, ratio)); err != nil {
		return c.names, err
	}

	polarity := t.Column(table.Polarity)
	if err := c.add(histogram(sink, "avg_polarity_hist.png", "Polarity Distribution", "Polarity", polarity, 30, accentColor,
		refLine{label: fmt.Sprintf("Mean: %.3f", table.Mean(polarity)), x: table.Mean(polarity), color: highlightColor})); err != nil {
		return c.names, err
	}

	subjectivity := t.Column(table.Subjectivity)
	if err := c.add(histogram(sink, "avg_subjectivity_hist.png", "Subjectivity Distribution", "Subjectivity", subjectivity, 30, secondaryColor,
		refLine{label: fmt.Sprintf("Mean: %.3f", table.Mean(subjectivity)), x: table.Mean(subjectivity), color: highlightColor})); err != nil {
		return c.names, err
	}
	return c.names, nil
}
