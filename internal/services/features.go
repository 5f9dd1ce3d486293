package services

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/forPelevin/gomoji"
	"golang.org/x/sync/errgroup"

	"sentica-backend/internal/logging"
	"sentica-backend/internal/models"
)

var (
	urlPattern     = regexp.MustCompile(`http\S+`)
	mentionPattern = regexp.MustCompile(`[@#]\S+`)
	nonWordPattern = regexp.MustCompile(`[^A-Za-z0-9\s]`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// CleanText strips URLs, @/# tokens and anything outside ASCII letters,
// digits and whitespace, then collapses whitespace.
func CleanText(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = mentionPattern.ReplaceAllString(text, "")
	text = nonWordPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}

// ExtractEmojis returns every emoji in text, in order and with repeats.
// Grapheme clusters stay whole, so skin tones and flags are one emoji.
func ExtractEmojis(text string) []string {
	found := gomoji.CollectAll(text)
	if len(found) == 0 {
		return nil
	}
	out := make([]string, len(found))
	for i, e := range found {
		out[i] = e.Character
	}
	return out
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	models.TimestampLayout,
	"2006-01-02",
}

// NormalizeTimestamp converts an API timestamp to TimestampLayout in UTC.
// Unparsable input yields "".
func NormalizeTimestamp(raw string) string {
	t, ok := parseTimestamp(raw)
	if !ok {
		return ""
	}
	return t.Format(models.TimestampLayout)
}

func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseNormalized parses a value produced by NormalizeTimestamp.
func ParseNormalized(ts string) (time.Time, bool) {
	return models.ParseTimestamp(ts)
}

// FeatureDeriver maps fetched comments onto enriched records.
type FeatureDeriver struct {
	scorer  Scorer
	workers int
	logger  *slog.Logger
}

func NewFeatureDeriver(scorer Scorer, workers int, logger *slog.Logger) *FeatureDeriver {
	if workers < 1 {
		workers = 1
	}
	return &FeatureDeriver{scorer: scorer, workers: workers, logger: logging.OrDiscard(logger)}
}

// Derive never fails; every problem is replaced by a documented default.
func (d *FeatureDeriver) Derive(ctx context.Context, rec models.CommentRecord) models.EnrichedRecord {
	out := models.EnrichedRecord{
		CommentRecord: rec,
		CleanedText:   CleanText(rec.Text),
		Length:        len([]rune(rec.Text)),
		Emojis:        ExtractEmojis(rec.Text),
		Sentiment:     models.SentimentNeutral,
		Month:         1,
	}
	if out.Likes < 0 {
		out.Likes = 0
	}

	score := d.score(ctx, out.CleanedText)
	out.Polarity = score.Polarity
	out.Subjectivity = score.Subjectivity
	out.Sentiment = models.LabelFor(score.Polarity)

	if t, ok := ParseNormalized(rec.PublishedAt); ok {
		out.Hour = t.Hour()
		out.DayOfWeek = (int(t.Weekday()) + 6) % 7
		out.Month = int(t.Month())
	}
	return out
}

func (d *FeatureDeriver) score(ctx context.Context, cleaned string) Score {
	if strings.TrimSpace(cleaned) == "" {
		return Score{}
	}
	s, err := d.scorer.Score(ctx, cleaned)
	if err != nil {
		d.logger.Debug("sentiment scoring failed, using neutral", slog.String("error", err.Error()))
		return Score{}
	}
	return s.clamped()
}

// ScoreText applies the per-record cleaning and scoring rules to a single
// free-standing text.
func (d *FeatureDeriver) ScoreText(ctx context.Context, text string) models.SentimentResponse {
	s := d.score(ctx, CleanText(text))
	return models.SentimentResponse{
		Polarity:     s.Polarity,
		Subjectivity: s.Subjectivity,
		Sentiment:    models.LabelFor(s.Polarity),
	}
}

// DeriveAll derives every record, preserving input order.
func (d *FeatureDeriver) DeriveAll(ctx context.Context, recs []models.CommentRecord) []models.EnrichedRecord {
	out := make([]models.EnrichedRecord, len(recs))
	if d.workers == 1 {
		for i, r := range recs {
			out[i] = d.Derive(ctx, r)
		}
		return out
	}

	var g errgroup.Group
	g.SetLimit(d.workers)
	for i, r := range recs {
		g.Go(func() error {
			out[i] = d.Derive(ctx, r)
			return nil
		})
	}
	g.Wait()
	return out
}
