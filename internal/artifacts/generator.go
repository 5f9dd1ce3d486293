// Package artifacts turns a run's record table into named output files.
//
// Each generator is independent: the orchestrator calls them one after
// another, and a failure in one is recorded without stopping the rest.
package artifacts

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"sentica-backend/internal/logging"
	"sentica-backend/internal/models"
	"sentica-backend/internal/table"
)

// Generator writes zero or more artifacts derived from t into sink.
// An empty table is valid input.
type Generator interface {
	Name() string
	Generate(ctx context.Context, t *table.Table, sink *Sink) ([]string, error)
}

// GeneratorError is a failure contained to one generator.
type GeneratorError struct {
	Generator string
	Err       error
}

func (e *GeneratorError) Error() string {
	return fmt.Sprintf("generator %s: %v", e.Generator, e.Err)
}

func (e *GeneratorError) Unwrap() error { return e.Err }

// Result is the outcome of one generator. Artifacts is empty when Err is set.
type Result struct {
	Generator string
	Artifacts []string
	Err       *GeneratorError
	Duration  time.Duration
}

// Run invokes g inside a failure boundary. Errors and panics become a
// GeneratorError; the partial artifact list of a failed generator is dropped.
func Run(ctx context.Context, g Generator, t *table.Table, sink *Sink, logger *slog.Logger) (res Result) {
	logger = logging.OrDiscard(logger)
	name := g.Name()
	start := time.Now()
	res.Generator = name

	defer func() {
		res.Duration = time.Since(start)
		if r := recover(); r != nil {
			res.Artifacts = nil
			res.Err = &GeneratorError{Generator: name, Err: fmt.Errorf("panic: %v", r)}
			logger.Error("generator panicked",
				slog.String("generator", name),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	names, err := g.Generate(ctx, t, sink)
	if err != nil {
		res.Err = &GeneratorError{Generator: name, Err: err}
		logger.Error("generator failed",
			slog.String("generator", name),
			slog.String("error", err.Error()),
			slog.Int("partial_artifacts", len(names)))
		return res
	}

	res.Artifacts = names
	logger.Info("generator finished",
		slog.String("generator", name),
		slog.Int("artifacts", len(names)),
		slog.Duration("elapsed", time.Since(start)))
	return res
}

// RunAll runs every generator in order. onDone, if set, sees each result as
// it completes.
func RunAll(ctx context.Context, gens []Generator, t *table.Table, sink *Sink, logger *slog.Logger, onDone func(i int, r Result)) []Result {
	results := make([]Result, 0, len(gens))
	for i, g := range gens {
		r := Run(ctx, g, t, sink, logger)
		results = append(results, r)
		if onDone != nil {
			onDone(i, r)
		}
	}
	return results
}

// BuildManifest collects the artifacts of successful generators.
func BuildManifest(results []Result) *models.Manifest {
	m := &models.Manifest{}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		m.Add(r.Generator, r.Artifacts...)
	}
	return m
}

// Failed lists the names of generators that did not succeed.
func Failed(results []Result) []string {
	var out []string
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r.Generator)
		}
	}
	return out
}

// Options tunes the default generator set.
type Options struct {
	Logger *slog.Logger
	// Now stamps metadata.json; defaults to time.Now.
	Now func() time.Time
}

// Default returns the standard generators in their canonical order.
func Default(opts Options) []Generator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := logging.OrDiscard(opts.Logger)
	return []Generator{
		&CoreExport{Now: opts.Now},
		&SentimentCharts{},
		&RelationshipCharts{},
		&WordClouds{},
		&EmojiAnalysis{Logger: logger},
		&AuthorAnalysis{},
		&TemporalAnalysis{},
		&TimelineAnalysis{},
		&LinguisticAnalysis{},
		&ModelEvaluation{Logger: logger},
	}
}

// collector accumulates artifact names inside a generator.
type collector struct {
	names []string
}

func (c *collector) add(name string, err error) error {
	if err != nil {
		return err
	}
	if name != "" {
		c.names = append(c.names, name)
	}
	return nil
}
