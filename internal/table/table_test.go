package table

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"sentica-backend/internal/models"
)

func rec(author string, likes int, polarity float64) models.EnrichedRecord {
	return models.EnrichedRecord{
		CommentRecord: models.CommentRecord{Author: author, Likes: likes},
		Polarity:      polarity,
		Sentiment:     models.LabelFor(polarity),
	}
}

func TestNewIsolatedFromCaller(t *testing.T) {
	records := []models.EnrichedRecord{rec("a", 1, 0.5)}
	records[0].Emojis = []string{"🔥"}
	tbl := New(models.VideoMetadata{}, records)

	records[0].Author = "changed"
	records[0].Emojis[0] = "x"
	assert.Equal(t, "a", tbl.At(0).Author)
	assert.Equal(t, []string{"🔥"}, tbl.At(0).Emojis)

	got := tbl.At(0)
	got.Emojis[0] = "y"
	assert.Equal(t, []string{"🔥"}, tbl.At(0).Emojis)
}

func TestEngagement(t *testing.T) {
	empty := New(models.VideoMetadata{}, nil).Engagement()
	assert.Equal(t, Engagement{}, empty)

	all := New(models.VideoMetadata{}, []models.EnrichedRecord{rec("a", 1, 0), rec("b", 4, 0)}).Engagement()
	assert.Equal(t, 1.0, all.EngagementRate)
	assert.Equal(t, 5, all.TotalLikes)
	assert.Equal(t, 2.5, all.MedianLikes)
	assert.Equal(t, 4, all.MaxLikes)

	scenario := New(models.VideoMetadata{}, []models.EnrichedRecord{rec("a", 5, 0.8), rec("b", 0, -0.9), rec("c", 2, 0)}).Engagement()
	assert.Equal(t, 7, scenario.TotalLikes)
	assert.InDelta(t, 2.0/3.0, scenario.EngagementRate, 1e-12)
}

func TestSummary(t *testing.T) {
	tbl := New(models.VideoMetadata{VideoID: "abc", Title: "T", Channel: "C"},
		[]models.EnrichedRecord{rec("a", 5, 0.8), rec("b", 0, -0.9), rec("c", 2, 0)})
	s := tbl.Summary()

	assert.Equal(t, 3, s.TotalComments)
	assert.Equal(t, 1, s.Positive)
	assert.Equal(t, 1, s.Negative)
	assert.Equal(t, 1, s.Neutral)
	assert.Equal(t, 7, s.TotalLikes)
	assert.InDelta(t, -0.1/3, s.AvgPolarity, 1e-12)
}

func TestSentimentCountsPercent(t *testing.T) {
	var zero SentimentCounts
	assert.Equal(t, 0.0, zero.Percent(models.SentimentPositive))

	c := SentimentCounts{Positive: 1, Negative: 1, Neutral: 2}
	assert.Equal(t, 25.0, c.Percent(models.SentimentPositive))
	assert.Equal(t, 50.0, c.Percent(models.SentimentNeutral))
}

func TestStats(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
	assert.Equal(t, 7.0, Median([]float64{7}))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
	assert.Equal(t, 0.0, SampleStdDev([]float64{4}))
	assert.InDelta(t, 1.0, SampleStdDev([]float64{1, 2, 3}), 1e-12)
}

func TestRankKeepsFirstSeenOrderForTies(t *testing.T) {
	got := Rank(slices.Values([]string{"b", "a", "c", "a", "b", "d"}), 3)
	assert.Equal(t, []Count{{"b", 2}, {"a", 2}, {"c", 1}}, got)
	assert.Len(t, Rank(slices.Values([]string{"x", "y"}), 0), 2)
}
