package artifacts

import (
	"context"
	"strconv"
	"time"

	"sentica-backend/internal/models"
	"sentica-backend/internal/table"
)

// TemporalAnalysis counts comments by hour, weekday and month.
type TemporalAnalysis struct{}

func (g *TemporalAnalysis) Name() string { return "temporal" }

func (g *TemporalAnalysis) Generate(_ context.Context, t *table.Table, sink *Sink) ([]string, error) {
	var hours [24]float64
	var days [7]float64
	var months [12]float64
	parsed := 0
	for _, r := range t.All() {
		if _, ok := models.ParseTimestamp(r.PublishedAt); !ok {
			continue
		}
		parsed++
		hours[r.Hour]++
		days[r.DayOfWeek]++
		months[r.Month-1]++
	}
	if parsed == 0 {
		return nil, nil
	}

	var c collector
	hourLabels := make([]string, 24)
	for h := range hourLabels {
		hourLabels[h] = strconv.Itoa(h)
	}
	if err := c.add(barChart(sink, "hourly_distribution.png", "Comments by Hour of Day", "Hour (UTC)", "Number of Comments",
		hourLabels, hours[:], repeatColor(accentColor), false)); err != nil {
		return c.names, err
	}

	dayLabels := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	if err := c.add(barChart(sink, "daily_distribution.png", "Comments by Day of Week", "Day", "Number of Comments",
		dayLabels, days[:], repeatColor(secondaryColor), false)); err != nil {
		return c.names, err
	}

	var monthLabels []string
	var monthValues []float64
	for i, n := range months {
		if n == 0 {
			continue
		}
		monthLabels = append(monthLabels, time.Month(i+1).String()[:3])
		monthValues = append(monthValues, n)
	}
	if err := c.add(barChart(sink, "monthly_distribution.png", "Comments by Month", "Month", "Number of Comments",
		monthLabels, monthValues, repeatColor(highlightColor), false)); err != nil {
		return c.names, err
	}
	return c.names, nil
}
