package artifacts

import (
	"context"
	"fmt"
	"image/color"
	"slices"
	"strconv"
	"strings"

	"sentica-backend/internal/table"
)

// LinguisticAnalysis reports comment length and word and bigram frequencies.
// Tokens keep their case.
type LinguisticAnalysis struct{}

func (g *LinguisticAnalysis) Name() string { return "linguistic" }

func (g *LinguisticAnalysis) Generate(_ context.Context, t *table.Table, sink *Sink) ([]string, error) {
	if t.Empty() {
		return nil, nil
	}
	var c collector

	lengths := t.Column(table.Length)
	mean := table.Mean(lengths)
	if err := c.add(histogram(sink, "comment_length_hist.png", "Comment Length Distribution", "Characters", lengths, 30, secondaryColor,
		refLine{label: fmt.Sprintf("Mean: %.1f", mean), x: mean, color: alertColor})); err != nil {
		return c.names, err
	}

	cleaned := make([]string, 0, t.Len())
	for _, r := range t.All() {
		cleaned = append(cleaned, r.CleanedText)
	}
	words := strings.Fields(strings.Join(cleaned, " "))
	if len(words) == 0 {
		return c.names, nil
	}

	wordFreq := table.Rank(slices.Values(words), 50)
	if err := frequencyOutputs(&c, sink, "word_frequency", "word", "Top 20 Most Frequent Words",
		wordFreq, 20, accentColor); err != nil {
		return c.names, err
	}

	if len(words) < 2 {
		return c.names, nil
	}
	bigrams := func(yield func(string) bool) {
		for i := 0; i+1 < len(words); i++ {
			if !yield(words[i] + " " + words[i+1]) {
				return
			}
		}
	}
	bigramFreq := table.Rank(bigrams, 30)
	if err := frequencyOutputs(&c, sink, "bigram_frequency", "bigram", "Top 15 Most Frequent Bigrams",
		bigramFreq, 15, alertColor); err != nil {
		return c.names, err
	}
	return c.names, nil
}

// frequencyOutputs writes <base>.csv and, when there are at least top
// entries, a horizontal bar chart <base>.png of the first top entries.
func frequencyOutputs(c *collector, sink *Sink, base, column, title string, freq []table.Count, top int, clr color.Color) error {
	rows := make([][]string, len(freq))
	for i, f := range freq {
		rows[i] = []string{f.Key, strconv.Itoa(f.Count)}
	}
	if err := c.add(base+".csv", writeCSV(sink, base+".csv", []string{column, "frequency"}, rows)); err != nil {
		return err
	}
	if len(freq) < top {
		return nil
	}

	shown := slices.Clone(freq[:top])
	slices.Reverse(shown)
	labels, values := make([]string, top), make([]float64, top)
	for i, f := range shown {
		labels[i] = truncate(f.Key, 30)
		values[i] = float64(f.Count)
	}
	return c.add(barChart(sink, base+".png", title, "Frequency", "", labels, values, repeatColor(clr), true))
}
