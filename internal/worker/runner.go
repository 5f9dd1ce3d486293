// Package worker runs one analysis end to end: fetch, derive, generate,
// report and package.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"sentica-backend/internal/artifacts"
	"sentica-backend/internal/logging"
	"sentica-backend/internal/models"
	"sentica-backend/internal/packaging"
	"sentica-backend/internal/report"
	"sentica-backend/internal/services"
	"sentica-backend/internal/table"
)

const (
	MessageCompleted  = "Analysis completed successfully."
	MessageNoComments = "No comments found."
)

const (
	stateRunning   = "running"
	stateCompleted = "completed"
	stateFailed    = "failed"
)

// Publisher receives progress events. Implementations must not block.
type Publisher interface {
	Publish(ctx context.Context, msg models.WSMessage)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, models.WSMessage) {}

type Options struct {
	Comments   services.CommentSource
	Metadata   services.MetadataSource
	Deriver    *services.FeatureDeriver
	Generators []artifacts.Generator
	Composer   *report.Composer
	OutputDir  string
	// LockPath guards OutputDir across processes. Defaults to OutputDir + ".lock".
	LockPath  string
	Publisher Publisher
	Logger    *slog.Logger
}

// Runner executes analyses one at a time against a single output directory.
type Runner struct {
	comments   services.CommentSource
	metadata   services.MetadataSource
	deriver    *services.FeatureDeriver
	generators []artifacts.Generator
	composer   *report.Composer
	sink       *artifacts.Sink
	lock       *flock.Flock
	lockPath   string
	publisher  Publisher
	logger     *slog.Logger

	// mu is held exclusively by a run and shared by output readers.
	mu sync.RWMutex

	statusMu sync.RWMutex
	status   *models.RunStatus
}

func NewRunner(opts Options) (*Runner, error) {
	if opts.Comments == nil || opts.Metadata == nil || opts.Deriver == nil {
		return nil, services.Wrap(services.ErrConfiguration, "runner", "new", "comment source, metadata source and deriver are required", nil)
	}
	sink, err := artifacts.NewSink(opts.OutputDir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "runner", "new", "", err)
	}
	lockPath := opts.LockPath
	if lockPath == "" {
		lockPath = filepath.Clean(opts.OutputDir) + ".lock"
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "runner", "new", "lock dir", err)
	}

	logger := logging.OrDiscard(opts.Logger)
	gens := opts.Generators
	if gens == nil {
		gens = artifacts.Default(artifacts.Options{Logger: logger})
	}
	composer := opts.Composer
	if composer == nil {
		composer = report.NewComposer(logger)
	}
	var pub Publisher = nopPublisher{}
	if opts.Publisher != nil {
		pub = opts.Publisher
	}

	return &Runner{
		comments:   opts.Comments,
		metadata:   opts.Metadata,
		deriver:    opts.Deriver,
		generators: gens,
		composer:   composer,
		sink:       sink,
		lock:       flock.New(lockPath),
		lockPath:   lockPath,
		publisher:  pub,
		logger:     logger,
	}, nil
}

// OutputDir is where the most recent run wrote its artifacts.
func (r *Runner) OutputDir() string { return r.sink.Dir() }

// Status returns a copy of the most recent run's status, or nil before the
// first run.
func (r *Runner) Status() *models.RunStatus {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()
	if r.status == nil {
		return nil
	}
	s := *r.status
	return &s
}

func (r *Runner) setStatus(update func(s *models.RunStatus)) {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	update(r.status)
}

// Run analyses the video behind videoURL. An unparsable URL fails before the
// output directory is touched; a run already in progress yields ErrBusy.
func (r *Runner) Run(ctx context.Context, videoURL string) (*models.AnalyzeVideoResponse, error) {
	videoID, err := services.ParseVideoID(videoURL)
	if err != nil {
		return nil, err
	}

	release, err := r.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	runID := uuid.New()
	logger := r.logger.With(slog.String("run_id", runID.String()), slog.String("video_id", videoID))
	r.statusMu.Lock()
	r.status = &models.RunStatus{RunID: runID, VideoID: videoID, State: stateRunning, StartedAt: time.Now()}
	r.statusMu.Unlock()

	resp, err := r.run(ctx, runID, videoID, logger)
	if err != nil {
		r.handleFailure(ctx, runID, logger, err)
		return nil, err
	}
	r.handleSuccess(ctx, runID, videoID, logger, resp)
	return resp, nil
}

func (r *Runner) acquire() (func(), error) {
	if !r.mu.TryLock() {
		return nil, services.Wrap(services.ErrBusy, "runner", "lock", "another analysis is in progress", nil)
	}
	ok, err := r.lock.TryLock()
	if err != nil {
		r.mu.Unlock()
		return nil, services.Wrap(services.ErrTransient, "runner", "lock", "acquire output lock", err)
	}
	if !ok {
		r.mu.Unlock()
		return nil, services.Wrap(services.ErrBusy, "runner", "lock", "output directory is in use by another process", nil)
	}
	return func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("failed to release output lock", slog.String("error", err.Error()))
		}
		r.mu.Unlock()
	}, nil
}

// ReadOutputs runs fn while no run, in this process or another, can clear or
// write the output directory. It fails with ErrBusy instead of waiting.
func (r *Runner) ReadOutputs(fn func() error) error {
	if !r.mu.TryRLock() {
		return services.Wrap(services.ErrBusy, "runner", "read outputs", "an analysis is in progress", nil)
	}
	defer r.mu.RUnlock()

	shared := flock.New(r.lockPath)
	ok, err := shared.TryRLock()
	if err != nil {
		return services.Wrap(services.ErrTransient, "runner", "read outputs", "acquire output lock", err)
	}
	if !ok {
		return services.Wrap(services.ErrBusy, "runner", "read outputs", "output directory is in use by another process", nil)
	}
	defer shared.Close()
	return fn()
}

func (r *Runner) run(ctx context.Context, runID uuid.UUID, videoID string, logger *slog.Logger) (*models.AnalyzeVideoResponse, error) {
	// A misconfigured source fails before any request and before the
	// previous outputs are cleared.
	if err := r.comments.Ready(); err != nil {
		return nil, err
	}
	if err := r.sink.Clear(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "runner", "clear", "", err)
	}

	r.progress(ctx, runID, 1, "Fetching video information", "")
	meta := r.metadata.FetchMetadata(ctx, videoID)

	r.progress(ctx, runID, 2, "Fetching comments", "")
	comments, err := services.FetchAll(ctx, r.comments, videoID, func(page, total int) {
		r.progress(ctx, runID, 2, "Fetching comments", fmt.Sprintf("page %d, %d comments", page, total))
	})
	if err != nil {
		return nil, err
	}
	logger.Info("comments fetched", slog.Int("comments", len(comments)))

	r.progress(ctx, runID, 3, "Analyzing sentiment", fmt.Sprintf("%d comments", len(comments)))
	t := table.New(meta, r.deriver.DeriveAll(ctx, comments))

	r.progress(ctx, runID, 4, "Generating outputs", "")
	results := artifacts.RunAll(ctx, r.generators, t, r.sink, logger, func(i int, res artifacts.Result) {
		detail := fmt.Sprintf("%s (%d/%d)", res.Generator, i+1, len(r.generators))
		r.progress(ctx, runID, 4, "Generating outputs", detail)
	})
	manifest := artifacts.BuildManifest(results)
	failed := artifacts.Failed(results)

	r.progress(ctx, runID, 5, "Composing reports", "")
	docs, err := r.composer.Compose(ctx, t, r.sink, manifest.Names())
	if err != nil {
		logger.Error("report composition incomplete", slog.String("error", err.Error()))
	}
	manifest.Add("report", docs...)

	r.progress(ctx, runID, 6, "Packaging outputs", "")
	if _, err := packaging.BuildZip(r.sink.Dir()); err != nil {
		logger.Error("packaging failed", slog.String("error", err.Error()))
	} else {
		manifest.Add("packaging", packaging.ArchiveName)
	}

	r.setStatus(func(s *models.RunStatus) {
		s.Artifacts = len(manifest.Artifacts)
		s.Failed = failed
	})

	msg := MessageCompleted
	if t.Empty() {
		msg = MessageNoComments
	}
	return &models.AnalyzeVideoResponse{
		Message: msg,
		Outputs: manifest.Names(),
		Summary: t.Summary(),
	}, nil
}

func (r *Runner) progress(ctx context.Context, runID uuid.UUID, step int, name, detail string) {
	r.publisher.Publish(ctx, models.WSMessage{
		Type: models.EventStatusUpdate,
		Payload: models.StatusUpdate{
			RunID:    runID,
			Step:     step,
			StepName: name,
			Detail:   detail,
		},
	})
}

func (r *Runner) handleSuccess(ctx context.Context, runID uuid.UUID, videoID string, logger *slog.Logger, resp *models.AnalyzeVideoResponse) {
	now := time.Now()
	r.setStatus(func(s *models.RunStatus) {
		s.State = stateCompleted
		s.CompletedAt = &now
	})

	r.publisher.Publish(ctx, models.WSMessage{
		Type: models.EventCompleted,
		Payload: models.CompletedEvent{
			RunID:     runID,
			VideoID:   videoID,
			Artifacts: len(resp.Outputs),
		},
	})

	logger.Info("analysis completed",
		slog.Int("comments", resp.Summary.TotalComments),
		slog.Int("artifacts", len(resp.Outputs)))
}

func (r *Runner) handleFailure(ctx context.Context, runID uuid.UUID, logger *slog.Logger, err error) {
	now := time.Now()
	r.setStatus(func(s *models.RunStatus) {
		s.State = stateFailed
		s.Error = err.Error()
		s.CompletedAt = &now
	})

	r.publisher.Publish(ctx, models.WSMessage{
		Type: models.EventError,
		Payload: models.ErrorEvent{
			RunID:        runID,
			ErrorCode:    services.ErrorCode(err),
			ErrorMessage: err.Error(),
		},
	})

	logger.Error("analysis failed", slog.String("error", err.Error()))
}
