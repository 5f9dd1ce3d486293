package artifacts

import (
	"context"
	"errors"
	"iter"
	"strings"

	"sentica-backend/internal/models"
	"sentica-backend/internal/table"
)

// WordClouds renders a cloud over the whole corpus and one per label.
type WordClouds struct{}

func (g *WordClouds) Name() string { return "wordcloud" }

func (g *WordClouds) Generate(_ context.Context, t *table.Table, sink *Sink) ([]string, error) {
	var c collector

	if err := c.add(wordCloudFile(sink, "wordcloud.png", "Word Cloud", cloudWords(t, ""))); err != nil {
		return c.names, err
	}
	for _, s := range []models.Sentiment{models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral} {
		name := strings.ToLower(string(s)) + "_wordcloud.png"
		if err := c.add(wordCloudFile(sink, name, string(s)+" Comments", cloudWords(t, s))); err != nil {
			return c.names, err
		}
	}
	return c.names, nil
}

// cloudWords yields the lowercased non-stopword tokens of every record with
// label s, or of every record when s is empty.
func cloudWords(t *table.Table, s models.Sentiment) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, r := range t.All() {
			if s != "" && r.Sentiment != s {
				continue
			}
			for _, w := range strings.Fields(strings.ToLower(r.CleanedText)) {
				if len(w) <= 1 || isStopword(w) {
					continue
				}
				if !yield(w) {
					return
				}
			}
		}
	}
}

func wordCloudFile(sink *Sink, name, title string, words iter.Seq[string]) (string, error) {
	counts := table.Rank(words, cloudMaxWords)
	if len(counts) == 0 {
		return "", nil
	}
	img, err := renderCloud(counts)
	if errors.Is(err, errCloudEmpty) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return savePlot(cloudPlot(title, img), sink, name)
}
