package report

import (
	"time"

	"sentica-backend/internal/models"
	"sentica-backend/internal/table"
)

// view is the flattened data every document renders from.
type view struct {
	Meta      models.VideoMetadata
	Summary   models.RunSummary
	Generated time.Time
	Produced  []string

	PositivePct float64
	NegativePct float64
	NeutralPct  float64
}

func newView(t *table.Table, produced []string, now time.Time) view {
	counts := t.SentimentCounts()
	return view{
		Meta:        t.Meta(),
		Summary:     t.Summary(),
		Generated:   now,
		Produced:    produced,
		PositivePct: counts.Percent(models.SentimentPositive),
		NegativePct: counts.Percent(models.SentimentNegative),
		NeutralPct:  counts.Percent(models.SentimentNeutral),
	}
}

// share is the fraction of comments with a label, over at least one comment.
func (v view) share(n int) float64 {
	return float64(n) / float64(max(1, v.Summary.TotalComments))
}
