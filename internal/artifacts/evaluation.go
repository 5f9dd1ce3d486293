package artifacts

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"sentica-backend/internal/logging"
	"sentica-backend/internal/models"
	"sentica-backend/internal/table"
)

// EvaluationKind marks the metrics as a check of stored labels against the
// polarity thresholds that produced them. There is no independent ground
// truth.
const EvaluationKind = "label_consistency"

const minRecordsForCurves = 10

// ClassificationMetrics is the content of classification_metrics.json.
type ClassificationMetrics struct {
	EvaluationKind     string  `json:"evaluation_kind"`
	TotalSamples       int     `json:"total_samples"`
	PositiveCount      int     `json:"positive_count"`
	NegativeCount      int     `json:"negative_count"`
	NeutralCount       int     `json:"neutral_count"`
	PositivePercentage float64 `json:"positive_percentage"`
	NegativePercentage float64 `json:"negative_percentage"`
	NeutralPercentage  float64 `json:"neutral_percentage"`
	AveragePolarity    float64 `json:"average_polarity"`
	PolarityStd        float64 `json:"polarity_std"`
}

func (m ClassificationMetrics) csvRow() (header, row []string) {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	header = []string{
		"evaluation_kind", "total_samples",
		"positive_count", "negative_count", "neutral_count",
		"positive_percentage", "negative_percentage", "neutral_percentage",
		"average_polarity", "polarity_std",
	}
	row = []string{
		m.EvaluationKind, strconv.Itoa(m.TotalSamples),
		strconv.Itoa(m.PositiveCount), strconv.Itoa(m.NegativeCount), strconv.Itoa(m.NeutralCount),
		f(m.PositivePercentage), f(m.NegativePercentage), f(m.NeutralPercentage),
		f(m.AveragePolarity), f(m.PolarityStd),
	}
	return header, row
}

// Metrics summarizes the label distribution of t.
func Metrics(t *table.Table) ClassificationMetrics {
	counts := t.SentimentCounts()
	polarity := t.Column(table.Polarity)
	return ClassificationMetrics{
		EvaluationKind:     EvaluationKind,
		TotalSamples:       t.Len(),
		PositiveCount:      counts.Positive,
		NegativeCount:      counts.Negative,
		NeutralCount:       counts.Neutral,
		PositivePercentage: counts.Percent(models.SentimentPositive),
		NegativePercentage: counts.Percent(models.SentimentNegative),
		NeutralPercentage:  counts.Percent(models.SentimentNeutral),
		AveragePolarity:    table.Mean(polarity),
		PolarityStd:        table.SampleStdDev(polarity),
	}
}

// Matrix is indexed [threshold label][stored label] in SentimentOrder.
type Matrix [3][3]float64

func sentimentIndex(s models.Sentiment) int {
	for i, o := range models.SentimentOrder {
		if o == s {
			return i
		}
	}
	return 1
}

// ConsistencyMatrix compares each record's stored label with the label its
// polarity maps to.
func ConsistencyMatrix(records []models.EnrichedRecord) Matrix {
	var m Matrix
	for _, r := range records {
		m[sentimentIndex(models.LabelFor(r.Polarity))][sentimentIndex(r.Sentiment)]++
	}
	return m
}

func (m Matrix) sum() float64 {
	total := 0.0
	for _, row := range m {
		for _, v := range row {
			total += v
		}
	}
	return total
}

// NormalizeRows divides each row by its sum. An all-zero row stays zero.
func (m Matrix) NormalizeRows() Matrix {
	var out Matrix
	for i, row := range m {
		s := row[0] + row[1] + row[2]
		if s == 0 {
			continue
		}
		for j, v := range row {
			out[i][j] = v / s
		}
	}
	return out
}

// NormalizeCols divides each column by its sum. An all-zero column stays zero.
func (m Matrix) NormalizeCols() Matrix {
	var out Matrix
	for j := range 3 {
		s := m[0][j] + m[1][j] + m[2][j]
		if s == 0 {
			continue
		}
		for i := range 3 {
			out[i][j] = m[i][j] / s
		}
	}
	return out
}

// ModelEvaluation writes the label consistency metrics, matrices and curves.
type ModelEvaluation struct {
	Logger *slog.Logger
}

func (g *ModelEvaluation) Name() string { return "evaluation" }

func (g *ModelEvaluation) Generate(_ context.Context, t *table.Table, sink *Sink) ([]string, error) {
	if t.Empty() {
		return nil, nil
	}
	logger := logging.OrDiscard(g.Logger)
	var c collector

	metrics := Metrics(t)
	if err := c.add("classification_metrics.json", writeJSON(sink, "classification_metrics.json", metrics)); err != nil {
		return c.names, err
	}
	header, row := metrics.csvRow()
	if err := c.add("classification_metrics.csv", writeCSV(sink, "classification_metrics.csv", header, [][]string{row})); err != nil {
		return c.names, err
	}

	records := t.Records()
	m := ConsistencyMatrix(records)
	if m.sum() > 0 {
		matrices := []struct {
			name, title string
			m           Matrix
			format      func(float64) string
		}{
			{"confusion_matrix.png", "Label Consistency Check: Counts", m, func(v float64) string { return strconv.Itoa(int(v)) }},
			{"confusion_matrix_normalized.png", "Label Consistency Check: Normalized by Row", m.NormalizeRows(), percentLabel},
			{"confusion_matrix_precision.png", "Label Consistency Check: Normalized by Column", m.NormalizeCols(), percentLabel},
		}
		for _, mx := range matrices {
			if err := c.add(matrixChart(sink, mx.name, mx.title, mx.m, mx.format)); err != nil {
				return c.names, err
			}
		}
	}

	if len(records) < minRecordsForCurves {
		return c.names, nil
	}
	curves := classCurves(records)
	if len(curves) == 0 {
		logger.Debug("every class is degenerate, skipping ROC and PR curves")
		return c.names, nil
	}
	if err := c.add(rocChart(sink, curves)); err != nil {
		return c.names, err
	}
	if err := c.add(prChart(sink, curves)); err != nil {
		return c.names, err
	}
	return c.names, nil
}

func percentLabel(v float64) string { return fmt.Sprintf("%.2f%%", v*100) }

// matrixGrid adapts a Matrix to plotter.GridXYZ with the first label on top.
type matrixGrid Matrix

func (g matrixGrid) Dims() (c, r int)   { return 3, 3 }
func (g matrixGrid) Z(c, r int) float64 { return g[2-r][c] }
func (g matrixGrid) X(c int) float64    { return float64(c) }
func (g matrixGrid) Y(r int) float64    { return float64(r) }

func matrixChart(sink *Sink, name, title string, m Matrix, format func(float64) string) (string, error) {
	p := newPlot(title, "Stored Label", "Threshold Label")

	hm := plotter.NewHeatMap(matrixGrid(m), palette.Heat(12, 1))
	if hm.Min == hm.Max {
		hm.Max = hm.Min + 1
	}
	p.Add(hm)

	var xys plotter.XYs
	var labels []string
	for r := range 3 {
		for c := range 3 {
			xys = append(xys, plotter.XY{X: float64(c), Y: float64(r)})
			labels = append(labels, format(m[2-r][c]))
		}
	}
	ann, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return "", fmt.Errorf("matrix labels: %w", err)
	}
	for i := range ann.TextStyle {
		ann.TextStyle[i] = labelStyle(vg.Points(14), bgColor)
	}
	p.Add(ann)

	names := make([]string, 3)
	reversed := make([]string, 3)
	for i, s := range models.SentimentOrder {
		names[i] = string(s)
		reversed[2-i] = string(s)
	}
	p.NominalX(names...)
	p.NominalY(reversed...)
	return savePlotSize(p, sink, name, 10*vg.Inch, 8*vg.Inch)
}

type classCurve struct {
	label     models.Sentiment
	roc       plotter.XYs
	pr        plotter.XYs
	auc       float64
	lineColor color.Color
}

var curveColors = []color.Color{alertColor, accentColor, secondaryColor}

// classCurves builds one-vs-rest curves per label. The score for label i is
// the binary decision polarity > (i-1)*0.6. Labels with no positive or no
// negative examples are omitted.
func classCurves(records []models.EnrichedRecord) []classCurve {
	var out []classCurve
	for i, s := range models.SentimentOrder {
		threshold := float64(i-1) * 0.6
		var tp, fp, pos, neg float64
		for _, r := range records {
			actual := r.Sentiment == s
			predicted := r.Polarity > threshold
			switch {
			case actual && predicted:
				tp++
			case !actual && predicted:
				fp++
			}
			if actual {
				pos++
			} else {
				neg++
			}
		}
		if pos == 0 || neg == 0 {
			continue
		}

		roc := plotter.XYs{{X: 0, Y: 0}, {X: fp / neg, Y: tp / pos}, {X: 1, Y: 1}}
		pr := plotter.XYs{{X: 1, Y: pos / (pos + neg)}}
		if tp+fp > 0 {
			pr = append(pr, plotter.XY{X: tp / pos, Y: tp / (tp + fp)})
		}
		pr = append(pr, plotter.XY{X: 0, Y: 1})

		out = append(out, classCurve{
			label:     s,
			roc:       roc,
			pr:        pr,
			auc:       TrapezoidAUC(roc),
			lineColor: curveColors[i],
		})
	}
	return out
}

// TrapezoidAUC integrates y over x with the trapezoidal rule. Points must be
// ordered by x.
func TrapezoidAUC(xys plotter.XYs) float64 {
	area := 0.0
	for i := 1; i < len(xys); i++ {
		area += (xys[i].X - xys[i-1].X) * (xys[i].Y + xys[i-1].Y) / 2
	}
	return area
}

func rocChart(sink *Sink, curves []classCurve) (string, error) {
	p := newPlot("ROC Curve: Label Consistency Check", "False Positive Rate", "True Positive Rate")
	diag, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return "", err
	}
	diag.LineStyle = draw.LineStyle{Color: gridColor, Width: vg.Points(1), Dashes: []vg.Length{vg.Points(4), vg.Points(4)}}
	p.Add(diag)

	for _, cv := range curves {
		line, err := plotter.NewLine(cv.roc)
		if err != nil {
			return "", err
		}
		line.LineStyle = draw.LineStyle{Color: cv.lineColor, Width: vg.Points(2)}
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%s (AUC = %.2f)", cv.label, cv.auc), line)
	}
	setUnitAxes(p)
	p.Legend.Top = false
	return savePlotSize(p, sink, "roc_curve.png", 10*vg.Inch, 8*vg.Inch)
}

func prChart(sink *Sink, curves []classCurve) (string, error) {
	p := newPlot("Precision-Recall Curve: Label Consistency Check", "Recall", "Precision")
	for _, cv := range curves {
		line, err := plotter.NewLine(cv.pr)
		if err != nil {
			return "", err
		}
		line.LineStyle = draw.LineStyle{Color: cv.lineColor, Width: vg.Points(2)}
		p.Add(line)
		p.Legend.Add(string(cv.label), line)
	}
	setUnitAxes(p)
	return savePlotSize(p, sink, "pr_curve.png", 10*vg.Inch, 8*vg.Inch)
}

func setUnitAxes(p *plot.Plot) {
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1.05
}
