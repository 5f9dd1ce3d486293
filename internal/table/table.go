// Package table holds the immutable per-run collection of enriched comments
// and the aggregate statistics every artifact generator reads from it.
package table

import (
	"iter"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"

	"sentica-backend/internal/models"
)

// Table is the read-only input shared by every generator in a run.
type Table struct {
	meta    models.VideoMetadata
	records []models.EnrichedRecord
}

// New copies records so later changes to the caller's slice are not observed.
func New(meta models.VideoMetadata, records []models.EnrichedRecord) *Table {
	cp := make([]models.EnrichedRecord, len(records))
	for i, r := range records {
		r.Emojis = slices.Clone(r.Emojis)
		cp[i] = r
	}
	return &Table{meta: meta, records: cp}
}

func (t *Table) Meta() models.VideoMetadata { return t.meta }

func (t *Table) Len() int { return len(t.records) }

func (t *Table) Empty() bool { return len(t.records) == 0 }

// At returns a copy of the i-th record.
func (t *Table) At(i int) models.EnrichedRecord {
	r := t.records[i]
	r.Emojis = slices.Clone(r.Emojis)
	return r
}

// All iterates over copies of the records in fetch order.
func (t *Table) All() iter.Seq2[int, models.EnrichedRecord] {
	return func(yield func(int, models.EnrichedRecord) bool) {
		for i := range t.records {
			if !yield(i, t.At(i)) {
				return
			}
		}
	}
}

// Records returns a copy of every record.
func (t *Table) Records() []models.EnrichedRecord {
	out := make([]models.EnrichedRecord, 0, len(t.records))
	for _, r := range t.All() {
		out = append(out, r)
	}
	return out
}

// Column extracts one float column.
func (t *Table) Column(f func(models.EnrichedRecord) float64) []float64 {
	out := make([]float64, len(t.records))
	for i, r := range t.records {
		out[i] = f(r)
	}
	return out
}

func Polarity(r models.EnrichedRecord) float64     { return r.Polarity }
func Subjectivity(r models.EnrichedRecord) float64 { return r.Subjectivity }
func Likes(r models.EnrichedRecord) float64        { return float64(r.Likes) }
func Length(r models.EnrichedRecord) float64       { return float64(r.Length) }

// SentimentCounts is the number of records per label.
type SentimentCounts struct {
	Positive int `json:"Positive"`
	Negative int `json:"Negative"`
	Neutral  int `json:"Neutral"`
}

func (c SentimentCounts) Total() int { return c.Positive + c.Negative + c.Neutral }

func (c SentimentCounts) Get(s models.Sentiment) int {
	switch s {
	case models.SentimentPositive:
		return c.Positive
	case models.SentimentNegative:
		return c.Negative
	default:
		return c.Neutral
	}
}

// Percent returns the share of label s in [0,100], or 0 for an empty table.
func (c SentimentCounts) Percent(s models.Sentiment) float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.Get(s)) / float64(total) * 100
}

func (t *Table) SentimentCounts() SentimentCounts {
	var c SentimentCounts
	for _, r := range t.records {
		switch r.Sentiment {
		case models.SentimentPositive:
			c.Positive++
		case models.SentimentNegative:
			c.Negative++
		default:
			c.Neutral++
		}
	}
	return c
}

func (t *Table) TotalLikes() int {
	total := 0
	for _, r := range t.records {
		total += r.Likes
	}
	return total
}

// Summary computes the headline numbers returned by the API.
func (t *Table) Summary() models.RunSummary {
	c := t.SentimentCounts()
	return models.RunSummary{
		VideoID:          t.meta.VideoID,
		Title:            t.meta.Title,
		Channel:          t.meta.Channel,
		TotalComments:    t.Len(),
		Positive:         c.Positive,
		Negative:         c.Negative,
		Neutral:          c.Neutral,
		AvgPolarity:      Mean(t.Column(Polarity)),
		AvgSubjectivity:  Mean(t.Column(Subjectivity)),
		AvgCommentLength: Mean(t.Column(Length)),
		TotalLikes:       t.TotalLikes(),
	}
}

// Engagement is the aggregate like statistics.
type Engagement struct {
	TotalLikes         int     `json:"total_likes"`
	AvgLikesPerComment float64 `json:"avg_likes_per_comment"`
	MedianLikes        float64 `json:"median_likes"`
	MaxLikes           int     `json:"max_likes"`
	CommentsWithLikes  int     `json:"comments_with_likes"`
	EngagementRate     float64 `json:"engagement_rate"`
}

func (t *Table) Engagement() Engagement {
	likes := t.Column(Likes)
	e := Engagement{
		TotalLikes:         t.TotalLikes(),
		AvgLikesPerComment: Mean(likes),
		MedianLikes:        Median(likes),
	}
	for _, r := range t.records {
		e.MaxLikes = max(e.MaxLikes, r.Likes)
		if r.Likes > 0 {
			e.CommentsWithLikes++
		}
	}
	if n := t.Len(); n > 0 {
		e.EngagementRate = float64(e.CommentsWithLikes) / float64(n)
	}
	return e
}

// Mean is 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// Median is 0 for an empty slice. An even count averages the two middle
// values.
func Median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	s := slices.Clone(xs)
	slices.Sort(s)
	lo := stat.Quantile(0.5, stat.Empirical, s, nil)
	if n%2 == 1 {
		return lo
	}
	hi := stat.Quantile((float64(n)/2+0.5)/float64(n), stat.Empirical, s, nil)
	return (lo + hi) / 2
}

// SampleStdDev uses n-1 in the denominator and is 0 when n < 2.
func SampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

// Count is one entry of a frequency ranking.
type Count struct {
	Key   string
	Count int
}

// Rank counts keys and orders them by descending count. Ties keep the order
// in which keys were first seen. n <= 0 returns every key.
func Rank(keys iter.Seq[string], n int) []Count {
	index := make(map[string]int)
	var counts []Count
	for k := range keys {
		if i, ok := index[k]; ok {
			counts[i].Count++
			continue
		}
		index[k] = len(counts)
		counts = append(counts, Count{Key: k, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
