package report

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sentica-backend/internal/artifacts"
)

const (
	pageMargin = 12.0
	titleSpace = 18.0
)

// PageTitle turns an artifact filename into a page heading:
// "sentiment_bar.png" becomes "Sentiment Bar".
func PageTitle(name string) string {
	base := strings.TrimSuffix(name, ".png")
	return cases.Title(language.English).String(strings.ReplaceAll(base, "_", " "))
}

func writePDF(v view, sink *artifacts.Sink, logger *slog.Logger) error {
	path, err := sink.Reserve(ReportPDF)
	if err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("SENTICA Comprehensive YouTube Analysis Report", true)
	pdf.SetAutoPageBreak(false, pageMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	darkPage(pdf)
	writeCover(pdf, tr, v)

	pageW, pageH := pdf.GetPageSize()
	maxW := pageW - 2*pageMargin
	maxH := pageH - 2*pageMargin - titleSpace
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}

	for _, name := range v.Produced {
		if !strings.HasSuffix(strings.ToLower(name), ".png") {
			continue
		}
		if !sink.Exists(name) {
			logger.Warn("chart missing from disk, skipping page", slog.String("artifact", name))
			continue
		}
		img := sink.Path(name)
		info := pdf.RegisterImageOptions(img, opts)
		if !pdf.Ok() {
			return fmt.Errorf("register %s: %w", name, pdf.Error())
		}

		w, h := info.Width(), info.Height()
		scale := min(maxW/w, maxH/h)
		w, h = w*scale, h*scale

		darkPage(pdf)
		pdf.SetFont("Helvetica", "B", 16)
		pdf.SetTextColor(232, 234, 246)
		pdf.SetXY(pageMargin, pageMargin)
		pdf.CellFormat(maxW, 10, tr(PageTitle(name)), "", 1, "C", false, 0, "")
		pdf.ImageOptions(img, (pageW-w)/2, pageMargin+titleSpace, w, h, false, opts, 0, "")
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func darkPage(pdf *fpdf.Fpdf) {
	pdf.AddPage()
	w, h := pdf.GetPageSize()
	pdf.SetFillColor(0x1a, 0x1f, 0x3a)
	pdf.Rect(0, 0, w, h, "F")
}

func writeCover(pdf *fpdf.Fpdf, tr func(string) string, v view) {
	s := v.Summary
	pdf.SetTextColor(232, 234, 246)
	pdf.SetXY(pageMargin, 30)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.MultiCell(0, 10, tr("SENTICA - Comprehensive YouTube Analysis Report"), "", "C", false)
	pdf.Ln(8)

	section := func(title string, lines ...string) {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.SetTextColor(0x6c, 0x5c, 0xe7)
		pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(232, 234, 246)
		for _, l := range lines {
			pdf.MultiCell(0, 6, tr(l), "", "L", false)
		}
		pdf.Ln(5)
	}

	section("Video Information",
		"Title: "+v.Meta.Title,
		"Channel: "+v.Meta.Channel,
		"Video ID: "+v.Meta.VideoID,
		fmt.Sprintf("View Count: %d", v.Meta.ViewCount),
	)
	section("Analysis Summary",
		"Analysis Date: "+v.Generated.Format("2006-01-02 15:04:05"),
		fmt.Sprintf("Total Comments Analyzed: %d", s.TotalComments),
	)
	section("Sentiment Breakdown",
		fmt.Sprintf("Positive: %d (%.1f%%)", s.Positive, v.PositivePct),
		fmt.Sprintf("Negative: %d (%.1f%%)", s.Negative, v.NegativePct),
		fmt.Sprintf("Neutral: %d (%.1f%%)", s.Neutral, v.NeutralPct),
		fmt.Sprintf("Average Polarity: %.3f", s.AvgPolarity),
		fmt.Sprintf("Generated Files: %d total outputs", len(v.Produced)),
	)
}
