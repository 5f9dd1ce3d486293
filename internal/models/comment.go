package models

import (
	"strconv"
	"strings"
	"time"
)

// Sentiment is the coarse label derived from polarity.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// SentimentOrder is the fixed label order used by tables and matrices.
var SentimentOrder = []Sentiment{SentimentNegative, SentimentNeutral, SentimentPositive}

// Polarity thresholds for the sentiment label.
const (
	PositiveThreshold = 0.1
	NegativeThreshold = -0.1
)

// LabelFor maps a polarity score onto its sentiment label.
func LabelFor(polarity float64) Sentiment {
	switch {
	case polarity > PositiveThreshold:
		return SentimentPositive
	case polarity < NegativeThreshold:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// TimestampLayout is the normalized, zone-less form stored on records.
const TimestampLayout = "2006-01-02 15:04:05"

// ParseTimestamp parses a TimestampLayout value. "" and malformed input
// report false.
func ParseTimestamp(ts string) (time.Time, bool) {
	if ts == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(TimestampLayout, ts)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type VideoMetadata struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	Channel      string `json:"channel"`
	PublishedAt  string `json:"published_at"`
	ViewCount    int64  `json:"view_count"`
	LikeCount    int64  `json:"like_count"`
	CommentCount int64  `json:"comment_count"`
}

// DefaultVideoMetadata is what callers see when metadata cannot be fetched.
func DefaultVideoMetadata(videoID string) VideoMetadata {
	return VideoMetadata{
		VideoID: videoID,
		Title:   "Unknown Title",
		Channel: "Unknown Channel",
	}
}

// CommentRecord is a single top-level comment as fetched.
type CommentRecord struct {
	Author      string `json:"author"`
	Text        string `json:"text"`
	Likes       int    `json:"likes"`
	PublishedAt string `json:"published_at"` // TimestampLayout, or "" when unparsable
}

// CommentPage is one page of the comment-thread listing.
type CommentPage struct {
	Records       []CommentRecord
	NextPageToken string
}

// EnrichedRecord is a CommentRecord plus everything derived from it.
type EnrichedRecord struct {
	CommentRecord
	CleanedText  string    `json:"cleaned_text"`
	Length       int       `json:"length"`
	Emojis       []string  `json:"emojis"`
	Polarity     float64   `json:"polarity"`
	Subjectivity float64   `json:"subjectivity"`
	Sentiment    Sentiment `json:"sentiment"`
	Hour         int       `json:"hour"`
	DayOfWeek    int       `json:"day_of_week"` // Monday = 0
	Month        int       `json:"month"`
}

// EnrichedCSVHeader is the column order of the tabular export.
func EnrichedCSVHeader() []string {
	return []string{
		"author",
		"text",
		"likes",
		"published_at",
		"cleaned_text",
		"length",
		"emojis",
		"polarity",
		"subjectivity",
		"sentiment",
		"hour",
		"day_of_week",
		"month",
	}
}

// ToCSV renders the record in EnrichedCSVHeader order.
func (r EnrichedRecord) ToCSV() []string {
	return []string{
		r.Author,
		r.Text,
		strconv.Itoa(r.Likes),
		r.PublishedAt,
		r.CleanedText,
		strconv.Itoa(r.Length),
		strings.Join(r.Emojis, " "),
		strconv.FormatFloat(r.Polarity, 'f', -1, 64),
		strconv.FormatFloat(r.Subjectivity, 'f', -1, 64),
		string(r.Sentiment),
		strconv.Itoa(r.Hour),
		strconv.Itoa(r.DayOfWeek),
		strconv.Itoa(r.Month),
	}
}
