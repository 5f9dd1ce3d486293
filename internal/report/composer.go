// Package report builds the human-facing documents of a run from its table
// and the artifacts the generators produced.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sentica-backend/internal/artifacts"
	"sentica-backend/internal/logging"
	"sentica-backend/internal/table"
)

const (
	ReportPDF        = "report.pdf"
	SummaryTXT       = "summary.txt"
	DashboardHTML    = "dashboard.html"
	ExecutiveSummary = "executive_summary.docx"
)

// Composer writes the four report documents. Each is independent: one
// failing does not stop the others.
type Composer struct {
	Logger *slog.Logger
	Now    func() time.Time
}

func NewComposer(logger *slog.Logger) *Composer {
	return &Composer{Logger: logging.OrDiscard(logger), Now: time.Now}
}

type document struct {
	name  string
	write func(v view, sink *artifacts.Sink) error
}

// Compose writes every document it can and returns their names in a fixed
// order. The returned error joins the failures, if any.
func (c *Composer) Compose(ctx context.Context, t *table.Table, sink *artifacts.Sink, produced []string) ([]string, error) {
	logger := logging.OrDiscard(c.Logger)
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	v := newView(t, produced, now())

	docs := []document{
		{ReportPDF, func(v view, sink *artifacts.Sink) error { return writePDF(v, sink, logger) }},
		{SummaryTXT, writeSummary},
		{DashboardHTML, writeDashboard},
		{ExecutiveSummary, writeExecutive},
	}

	var names []string
	var errs []error
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := d.write(v, sink); err != nil {
			logger.Error("report document failed",
				slog.String("document", d.name),
				slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", d.name, err))
			continue
		}
		names = append(names, d.name)
	}
	return names, errors.Join(errs...)
}
