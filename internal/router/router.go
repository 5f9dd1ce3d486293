package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"sentica-backend/internal/handlers"
	"sentica-backend/internal/middleware"
	"sentica-backend/internal/websocket"
)

type Options struct {
	Analysis  *handlers.AnalysisHandler
	Outputs   *handlers.OutputsHandler
	Sentiment *handlers.SentimentHandler
	Hub       *websocket.Hub
	// Limiter guards /analyze_video; nil disables it.
	Limiter     *middleware.RateLimiter
	FrontendURL string
	// Logger receives the request log; nil keeps chi's stdout logger.
	Logger *slog.Logger
}

func New(opts Options) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	if opts.Logger != nil {
		r.Use(chimiddleware.RequestLogger(&chimiddleware.DefaultLogFormatter{
			Logger:  slog.NewLogLogger(opts.Logger.Handler(), slog.LevelInfo),
			NoColor: true,
		}))
	} else {
		r.Use(chimiddleware.Logger)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(opts.FrontendURL))

	r.Get("/", opts.Analysis.Root)
	r.Get("/health", opts.Analysis.Health)

	// ──── Analysis Routes ────
	r.Group(func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(opts.Limiter.Middleware)
		}
		r.Post("/analyze_video", opts.Analysis.AnalyzeVideo)
	})

	r.With(chimiddleware.Timeout(10*time.Second)).Post("/sentiment", opts.Sentiment.Score)

	// ──── Output Routes ────
	r.Route("/outputs", func(r chi.Router) {
		r.Get("/list", opts.Outputs.List)
		r.Get("/file/{name}", opts.Outputs.File)
		r.Get("/zip", opts.Outputs.Zip)
		r.Get("/report", opts.Outputs.Report)
	})

	// ──── WebSocket ────
	if opts.Hub != nil {
		r.Get("/ws", opts.Hub.HandleWebSocket)
	}

	return r
}
