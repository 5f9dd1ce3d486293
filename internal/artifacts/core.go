package artifacts

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"sentica-backend/internal/models"
	"sentica-backend/internal/table"
	"sentica-backend/internal/textfmt"
)

const (
	AnalysisJSON = "analysis.json"
	AnalysisCSV  = "analysis.csv"
	AnalysisXLSX = "analysis.xlsx"
	AnalysisTXT  = "analysis.txt"
	MetadataJSON = "metadata.json"

	// XLSXSheet is the worksheet holding the exported comments.
	XLSXSheet = "comments"
)

// CoreArtifacts are always written, even for an empty table.
var CoreArtifacts = []string{AnalysisJSON, AnalysisCSV, AnalysisXLSX, AnalysisTXT, MetadataJSON}

// RunMetadata is the content of metadata.json.
type RunMetadata struct {
	VideoInfo             models.VideoMetadata  `json:"video_info"`
	AnalysisDate          string                `json:"analysis_date"`
	TotalComments         int                   `json:"total_comments"`
	SentimentDistribution table.SentimentCounts `json:"sentiment_distribution"`
}

// CoreExport writes the full table in several interchangeable formats.
type CoreExport struct {
	Now func() time.Time
}

func (g *CoreExport) Name() string { return "core_export" }

func (g *CoreExport) Generate(_ context.Context, t *table.Table, sink *Sink) ([]string, error) {
	records := t.Records()
	var c collector

	if err := c.add(AnalysisJSON, writeJSON(sink, AnalysisJSON, jsonRecords(records))); err != nil {
		return c.names, err
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.ToCSV())
	}
	if err := c.add(AnalysisCSV, writeCSV(sink, AnalysisCSV, models.EnrichedCSVHeader(), rows)); err != nil {
		return c.names, err
	}
	if err := c.add(AnalysisXLSX, writeXLSX(sink, AnalysisXLSX, records)); err != nil {
		return c.names, err
	}
	if err := c.add(AnalysisTXT, sink.WriteFile(AnalysisTXT, []byte(renderTextDump(t, records)))); err != nil {
		return c.names, err
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	meta := RunMetadata{
		VideoInfo:             t.Meta(),
		AnalysisDate:          now().Format(time.RFC3339),
		TotalComments:         t.Len(),
		SentimentDistribution: t.SentimentCounts(),
	}
	if err := c.add(MetadataJSON, writeJSON(sink, MetadataJSON, meta)); err != nil {
		return c.names, err
	}
	return c.names, nil
}

// jsonRecords swaps nil emoji slices for empty ones so every record has the
// same shape.
func jsonRecords(records []models.EnrichedRecord) []models.EnrichedRecord {
	for i := range records {
		if records[i].Emojis == nil {
			records[i].Emojis = []string{}
		}
	}
	return records
}

func writeJSON(sink *Sink, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return sink.WriteFile(name, data)
}

func writeCSV(sink *Sink, name string, header []string, rows [][]string) error {
	f, err := sink.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return f.Close()
}

func writeXLSX(sink *Sink, name string, records []models.EnrichedRecord) error {
	path, err := sink.Reserve(name)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", XLSXSheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	header := models.EnrichedCSVHeader()
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(XLSXSheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.Author, r.Text, r.Likes, r.PublishedAt, r.CleanedText, r.Length,
			strings.Join(r.Emojis, " "), r.Polarity, r.Subjectivity, string(r.Sentiment),
			r.Hour, r.DayOfWeek, r.Month,
		}
		if err := f.SetSheetRow(XLSXSheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

func renderTextDump(t *table.Table, records []models.EnrichedRecord) string {
	meta := t.Meta()
	counts := t.SentimentCounts()

	var b strings.Builder
	b.WriteString("YouTube Comments Analysis\n\n")
	b.WriteString(textfmt.KeyValues([][2]string{
		{"Video ID", meta.VideoID},
		{"Title", meta.Title},
		{"Channel", meta.Channel},
		{"Total comments", strconv.Itoa(t.Len())},
		{"Positive", strconv.Itoa(counts.Positive)},
		{"Negative", strconv.Itoa(counts.Negative)},
		{"Neutral", strconv.Itoa(counts.Neutral)},
	}))
	b.WriteString("\n\n")

	separator := strings.Repeat("-", 50)
	for _, r := range records {
		fmt.Fprintf(&b, "Author: %s\n", r.Author)
		fmt.Fprintf(&b, "Comment: %s\n", r.Text)
		fmt.Fprintf(&b, "Sentiment: %s (Polarity: %.2f)\n", r.Sentiment, r.Polarity)
		fmt.Fprintf(&b, "Likes: %d\n", r.Likes)
		fmt.Fprintf(&b, "Published: %s\n", r.PublishedAt)
		b.WriteString(separator)
		b.WriteString("\n")
	}
	return b.String()
}
