package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/dustin/go-humanize"

	"sentica-backend/internal/artifacts"
	"sentica-backend/internal/textfmt"
)

// OverallTrend buckets the average polarity for summary.txt.
func OverallTrend(avgPolarity float64) string {
	switch {
	case avgPolarity > 0.1:
		return "Positive"
	case avgPolarity < -0.1:
		return "Negative"
	default:
		return "Neutral"
	}
}

func writeSummary(v view, sink *artifacts.Sink) error {
	s := v.Summary
	var b strings.Builder

	b.WriteString("SENTICA - YOUTUBE SENTIMENT ANALYSIS SUMMARY\n\n")
	b.WriteString(textfmt.KeyValues([][2]string{
		{"Title", v.Meta.Title},
		{"Channel", v.Meta.Channel},
		{"Video ID", v.Meta.VideoID},
		{"View Count", humanize.Comma(v.Meta.ViewCount)},
		{"Likes", humanize.Comma(v.Meta.LikeCount)},
		{"Analysis Date", v.Generated.Format("2006-01-02 15:04:05")},
		{"Total Comments Analyzed", humanize.Comma(int64(s.TotalComments))},
	}))
	b.WriteString("\n\nSENTIMENT DISTRIBUTION\n")
	b.WriteString(textfmt.RenderTable(
		[]string{"Sentiment", "Comments", "Share"},
		[][]string{
			{"Positive", humanize.Comma(int64(s.Positive)), fmt.Sprintf("%.1f%%", v.PositivePct)},
			{"Negative", humanize.Comma(int64(s.Negative)), fmt.Sprintf("%.1f%%", v.NegativePct)},
			{"Neutral", humanize.Comma(int64(s.Neutral)), fmt.Sprintf("%.1f%%", v.NeutralPct)},
		},
		[]textfmt.Alignment{textfmt.AlignLeft, textfmt.AlignRight, textfmt.AlignRight},
	))

	b.WriteString("\n\nPOLARITY ANALYSIS\n")
	fmt.Fprintf(&b, "Average Polarity Score: %.3f\n", s.AvgPolarity)
	b.WriteString("(Scale: -1.0 = Very Negative, 0.0 = Neutral, +1.0 = Very Positive)\n")
	fmt.Fprintf(&b, "Average Subjectivity: %.3f\n", s.AvgSubjectivity)
	fmt.Fprintf(&b, "Average Comment Length: %.1f characters\n", s.AvgCommentLength)
	fmt.Fprintf(&b, "Total Likes: %s\n", humanize.Comma(int64(s.TotalLikes)))

	b.WriteString("\nKEY INSIGHTS\n")
	fmt.Fprintf(&b, "- Overall sentiment trend: %s\n", OverallTrend(s.AvgPolarity))
	fmt.Fprintf(&b, "- Engagement Level: %s comment volume\n", volumeLevel(s.TotalComments))
	fmt.Fprintf(&b, "- Community Response: %s\n", communityResponse(v))
	b.WriteString("\nGenerated by SENTICA - Advanced YouTube Sentiment Analysis Tool\n")

	return sink.WriteFile(SummaryTXT, []byte(b.String()))
}

func volumeLevel(comments int) string {
	switch {
	case comments > 1000:
		return "High"
	case comments > 100:
		return "Medium"
	default:
		return "Low"
	}
}

func communityResponse(v view) string {
	switch {
	case v.share(v.Summary.Positive) > 0.5:
		return "Predominantly positive"
	case v.share(v.Summary.Negative) > 0.3:
		return "Mixed reactions"
	default:
		return "Largely neutral"
	}
}

//go:embed templates/dashboard.html
var dashboardHTML string

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"pct":  func(f float64) string { return fmt.Sprintf("%.1f%%", f) },
	"pol":  func(f float64) string { return fmt.Sprintf("%.3f", f) },
	"num":  humanize.Comma,
	"date": func(v view) string { return v.Generated.Format("2006-01-02 15:04:05") },
}).Parse(dashboardHTML))

func writeDashboard(v view, sink *artifacts.Sink) error {
	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, v); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return sink.WriteFile(DashboardHTML, buf.Bytes())
}
