package report

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"sentica-backend/internal/artifacts"
)

// DataQuality rates how much data backs the analysis.
func DataQuality(comments int) string {
	switch {
	case comments > 500:
		return "Excellent"
	case comments > 100:
		return "Good"
	default:
		return "Limited"
	}
}

// PolarityBand interprets an average polarity. The strong bands are checked
// first so both tails are reachable.
func PolarityBand(avg float64) string {
	switch {
	case avg > 0.3:
		return "Strongly Positive"
	case avg > 0.1:
		return "Positive"
	case avg < -0.3:
		return "Strongly Negative"
	case avg < -0.1:
		return "Negative"
	default:
		return "Neutral"
	}
}

// EngagementLevel rates comment volume.
func EngagementLevel(comments int) string {
	switch {
	case comments > 1000:
		return "Very High"
	case comments > 500:
		return "High"
	case comments > 100:
		return "Medium"
	default:
		return "Low"
	}
}

// Insights returns the overall sentiment, audience engagement and content
// reception statements.
func Insights(total, pos, neg int) []string {
	posShare := float64(pos) / float64(max(1, total))
	negShare := float64(neg) / float64(max(1, total))

	var overall string
	switch {
	case posShare > 0.6:
		overall = "predominantly positive"
	case posShare > 0.5:
		overall = "mostly positive"
	case negShare < 0.4:
		overall = "mixed"
	default:
		overall = "negative"
	}

	var engagement string
	switch {
	case total > 500:
		engagement = "Strong community interaction"
	case total > 100:
		engagement = "Moderate engagement"
	default:
		engagement = "Limited engagement"
	}

	var reception string
	switch {
	case posShare > 0.7:
		reception = "High approval"
	case posShare > 0.5:
		reception = "Generally well-received"
	case negShare > 0.3:
		reception = "Polarizing content"
	default:
		reception = "Neutral reception"
	}

	return []string{
		fmt.Sprintf("Overall Sentiment: The video received %s feedback", overall),
		fmt.Sprintf("Audience Engagement: %s with %s total comments", engagement, humanize.Comma(int64(total))),
		fmt.Sprintf("Content Reception: %s based on sentiment distribution", reception),
	}
}

// Recommendations returns one share-driven recommendation followed by the
// standing ones.
func Recommendations(total, pos, neg int) []string {
	posShare := float64(pos) / float64(max(1, total))
	negShare := float64(neg) / float64(max(1, total))

	var first string
	switch {
	case posShare > 0.7:
		first = "Continue this content strategy - audience response is very positive"
	case negShare > 0.4:
		first = "Address negative feedback - consider community concerns"
	default:
		first = "Audience is engaged - consider increasing content frequency"
	}
	return []string{
		first,
		"Monitor temporal patterns to optimize posting schedule",
		"Engage with top commenters to build community loyalty",
	}
}

func writeExecutive(v view, sink *artifacts.Sink) error {
	s := v.Summary
	d := newDocxBuilder()

	d.heading("Executive Summary", 1)
	d.para("YouTube Sentiment Analysis Report")

	d.heading("Video Information", 2)
	d.field("Title", v.Meta.Title)
	d.field("Channel", v.Meta.Channel)
	d.field("Video ID", v.Meta.VideoID)
	d.field("Views", humanize.Comma(v.Meta.ViewCount))
	d.field("Likes", humanize.Comma(v.Meta.LikeCount))
	d.field("Published", orNA(v.Meta.PublishedAt))

	d.heading("Analysis Overview", 2)
	d.field("Analysis Date", v.Generated.Format("January 02, 2006 at 15:04:05"))
	d.field("Total Comments", humanize.Comma(int64(s.TotalComments)))
	d.field("Data Quality", DataQuality(s.TotalComments))

	d.heading("Sentiment Distribution", 2)
	d.field("Positive", fmt.Sprintf("%s comments (%.1f%%)", humanize.Comma(int64(s.Positive)), v.PositivePct))
	d.field("Negative", fmt.Sprintf("%s comments (%.1f%%)", humanize.Comma(int64(s.Negative)), v.NegativePct))
	d.field("Neutral", fmt.Sprintf("%s comments (%.1f%%)", humanize.Comma(int64(s.Neutral)), v.NeutralPct))

	d.heading("Sentiment Metrics", 2)
	d.field("Average Polarity", fmt.Sprintf("%.3f", s.AvgPolarity))
	d.field("Polarity Interpretation", PolarityBand(s.AvgPolarity))
	d.field("Average Subjectivity", fmt.Sprintf("%.3f", s.AvgSubjectivity))
	d.field("Average Comment Length", fmt.Sprintf("%.1f characters", s.AvgCommentLength))

	d.heading("Engagement Analysis", 2)
	d.field("Total Likes", humanize.Comma(int64(s.TotalLikes)))
	d.field("Avg Likes/Comment", fmt.Sprintf("%.2f", float64(s.TotalLikes)/float64(max(1, s.TotalComments))))
	d.field("Engagement Level", EngagementLevel(s.TotalComments))

	d.heading("Key Insights", 2)
	for _, line := range Insights(s.TotalComments, s.Positive, s.Negative) {
		d.bullet(line)
	}
	d.heading("Recommendations", 2)
	for _, line := range Recommendations(s.TotalComments, s.Positive, s.Negative) {
		d.bullet(line)
	}

	d.para("Generated by SENTICA - Advanced YouTube Sentiment Analysis")
	d.para("Report Date: " + v.Generated.Format("2006-01-02 15:04:05"))

	f, err := sink.Create(ExecutiveSummary)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := d.writeTo(f); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return f.Close()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
