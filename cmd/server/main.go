package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"sentica-backend/internal/app"
	"sentica-backend/internal/config"
	"sentica-backend/internal/database"
	"sentica-backend/internal/handlers"
	"sentica-backend/internal/logging"
	"sentica-backend/internal/middleware"
	"sentica-backend/internal/router"
	"sentica-backend/internal/websocket"
)

func main() {
	// ──── Step 1: Load Configuration ────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("✗ Configuration invalid: %v", err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("✗ Logger setup failed: %v", err)
	}
	// Routes the standard logger, and the banner lines below, through slog.
	slog.SetDefault(logger)

	log.Println("🚀 Starting SENTICA Backend...")
	log.Println("✓ Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 2: Connect Redis (optional) ────
	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Println("✓ Redis connected")
	} else {
		log.Println("✓ Redis not configured, progress events stay in-process")
	}

	// ──── Step 3: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClient, logger)
	go wsHub.Run(ctx)
	log.Println("✓ WebSocket hub started")

	// ──── Step 4: Initialize Services ────
	components, err := app.New(ctx, cfg, logger, wsHub)
	if err != nil {
		log.Fatalf("✗ Service initialization failed: %v", err)
	}
	defer components.Close()
	if cfg.YouTubeAPIKey == "" {
		logger.Warn("YOUTUBE_API_KEY is not set; /analyze_video will fail until it is")
	}
	log.Printf("✓ Sentiment backend: %s", cfg.SentimentBackend)
	log.Printf("✓ Output directory: %s", components.Runner.OutputDir())

	// ──── Step 5: Initialize Handlers ────
	analysisHandler := handlers.NewAnalysisHandler(components.Runner)
	outputsHandler := handlers.NewOutputsHandler(components.Runner.OutputDir(), components.Runner)
	sentimentHandler := handlers.NewSentimentHandler(components.Deriver)

	analyzeLimiter := middleware.NewRateLimiter(cfg.AnalyzeRateLimit, time.Minute)
	defer analyzeLimiter.Stop()

	// ──── Step 6: Start HTTP Server ────
	r := router.New(router.Options{
		Analysis:    analysisHandler,
		Outputs:     outputsHandler,
		Sentiment:   sentimentHandler,
		Hub:         wsHub,
		Limiter:     analyzeLimiter,
		FrontendURL: cfg.FrontendURL,
		Logger:      logger,
	})

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// /analyze_video answers only when the whole run is done.
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("✓ SENTICA Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/analyze_video", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
