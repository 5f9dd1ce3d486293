// Package app wires configuration into the services shared by the HTTP
// server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"sentica-backend/internal/config"
	"sentica-backend/internal/services"
	"sentica-backend/internal/worker"
)

// Components are the long-lived pieces built from a Config.
type Components struct {
	Deriver *services.FeatureDeriver
	Runner  *worker.Runner
	closers []func()
}

// Close releases clients opened by New.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// NewScorer builds the sentiment backend named by cfg.SentimentBackend. The
// returned func releases it.
func NewScorer(ctx context.Context, cfg *config.Config) (services.Scorer, func(), error) {
	switch cfg.SentimentBackend {
	case config.BackendGemini:
		g, err := services.NewGeminiScorer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiConcurrentReqs)
		if err != nil {
			return nil, nil, services.Wrap(services.ErrConfiguration, "sentiment", "gemini", "", err)
		}
		return g, g.Close, nil
	default:
		l, err := services.NewLexiconScorer()
		if err != nil {
			return nil, nil, fmt.Errorf("load lexicon: %w", err)
		}
		return l, func() {}, nil
	}
}

// New builds the scorer, the YouTube client and the runner. pub may be nil.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, pub worker.Publisher) (*Components, error) {
	c := &Components{}

	scorer, closeScorer, err := NewScorer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, closeScorer)
	c.Deriver = services.NewFeatureDeriver(scorer, cfg.DeriveWorkers, logger)

	yt, err := services.NewYouTubeService(ctx, services.YouTubeOptions{
		APIKey:            cfg.YouTubeAPIKey,
		BaseURL:           cfg.YouTubeAPIBase,
		Timeout:           cfg.FetchTimeout,
		MetadataTimeout:   cfg.MetadataTimeout,
		MaxRetries:        cfg.FetchMaxRetries,
		PagesPerSecond:    cfg.FetchPagesPerSecond,
		WatchPageFallback: true,
		Logger:            logger,
	})
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Runner, err = worker.NewRunner(worker.Options{
		Comments:  yt,
		Metadata:  yt,
		Deriver:   c.Deriver,
		OutputDir: cfg.OutputDir,
		LockPath:  cfg.LockPath(),
		Publisher: pub,
		Logger:    logger,
	})
	if err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}
