package artifacts

import (
	"context"
	"fmt"
	"image/color"
	"slices"
	"strconv"

	"sentica-backend/internal/models"
	"sentica-backend/internal/table"
)

// AuthorAnalysis ranks commenters and the most liked comments.
type AuthorAnalysis struct{}

func (g *AuthorAnalysis) Name() string { return "authors" }

func (g *AuthorAnalysis) Generate(_ context.Context, t *table.Table, sink *Sink) ([]string, error) {
	if t.Empty() {
		return nil, nil
	}
	var c collector

	authors := table.Rank(func(yield func(string) bool) {
		for _, r := range t.All() {
			if !yield(r.Author) {
				return
			}
		}
	}, 20)
	rows := make([][]string, len(authors))
	for i, a := range authors {
		rows[i] = []string{a.Key, strconv.Itoa(a.Count)}
	}
	if err := c.add("top_authors.csv", writeCSV(sink, "top_authors.csv", []string{"author", "comment_count"}, rows)); err != nil {
		return c.names, err
	}

	top := slices.Clone(authors[:min(10, len(authors))])
	slices.Reverse(top)
	labels, values := make([]string, len(top)), make([]float64, len(top))
	for i, a := range top {
		labels[i] = truncate(a.Key, 20)
		values[i] = float64(a.Count)
	}
	if err := c.add(barChart(sink, "top_authors.png", "Top 10 Most Active Authors", "Number of Comments", "",
		labels, values, repeatColor(accentColor), true)); err != nil {
		return c.names, err
	}

	liked := TopLiked(t.Records(), 20)
	rows = make([][]string, len(liked))
	for i, r := range liked {
		rows[i] = []string{r.Author, r.Text, strconv.Itoa(r.Likes), string(r.Sentiment)}
	}
	if err := c.add("top_liked_comments.csv", writeCSV(sink, "top_liked_comments.csv",
		[]string{"author", "text", "likes", "sentiment"}, rows)); err != nil {
		return c.names, err
	}

	labels, values, colors := topLikedBars(liked)
	if err := c.add(barChart(sink, "top_liked_comments.png", "Top 10 Most Liked Comments", "Likes", "",
		labels, values, colors, true)); err != nil {
		return c.names, err
	}

	e := t.Engagement()
	stats := [][]string{{
		strconv.Itoa(e.TotalLikes),
		fmt.Sprintf("%.2f", e.AvgLikesPerComment),
		fmt.Sprintf("%.2f", e.MedianLikes),
		strconv.Itoa(e.MaxLikes),
		strconv.Itoa(e.CommentsWithLikes),
		fmt.Sprintf("%.4f", e.EngagementRate),
	}}
	if err := c.add("engagement_stats.csv", writeCSV(sink, "engagement_stats.csv",
		[]string{"total_likes", "avg_likes_per_comment", "median_likes", "max_likes", "comments_with_likes", "engagement_rate"},
		stats)); err != nil {
		return c.names, err
	}
	return c.names, nil
}

// topLikedBars returns the horizontal bars for the ten most liked comments,
// least liked first, labelled by author names cut to 15 characters.
func topLikedBars(liked []models.EnrichedRecord) ([]string, []float64, []color.Color) {
	best := slices.Clone(liked[:min(10, len(liked))])
	slices.Reverse(best)
	labels, values := make([]string, len(best)), make([]float64, len(best))
	colors := make([]color.Color, len(best))
	for i, r := range best {
		labels[i] = truncate(r.Author, 15)
		values[i] = float64(r.Likes)
		colors[i] = sentimentColors[r.Sentiment]
	}
	return labels, values, colors
}

// TopLiked returns up to n records ordered by descending likes. Records with
// equal likes keep their table order.
func TopLiked(records []models.EnrichedRecord, n int) []models.EnrichedRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b models.EnrichedRecord) int { return b.Likes - a.Likes })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
