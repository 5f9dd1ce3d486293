package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	// Server
	Port string `toml:"port"`
	Env  string `toml:"env"`

	// YouTube Data API
	YouTubeAPIKey       string        `toml:"youtube_api_key"`
	YouTubeAPIBase      string        `toml:"youtube_api_base"`
	FetchTimeout        time.Duration `toml:"-"`
	MetadataTimeout     time.Duration `toml:"-"`
	FetchMaxRetries     int           `toml:"fetch_max_retries"`
	FetchPagesPerSecond float64       `toml:"fetch_pages_per_second"`

	// Sentiment scoring
	SentimentBackend     string `toml:"sentiment_backend"`
	GeminiAPIKey         string `toml:"gemini_api_key"`
	GeminiModel          string `toml:"gemini_model"`
	GeminiConcurrentReqs int    `toml:"gemini_concurrent_requests"`
	DeriveWorkers        int    `toml:"derive_workers"`

	// Storage
	OutputDir string `toml:"output_dir"`

	// Redis (optional, progress pub/sub)
	RedisURL string `toml:"redis_url"`

	// HTTP
	FrontendURL      string `toml:"frontend_url"`
	AnalyzeRateLimit int    `toml:"analyze_rate_limit"`

	// Logging
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

const (
	BackendLexicon = "lexicon"
	BackendGemini  = "gemini"
)

func defaults() *Config {
	return &Config{
		Port:                 "5000",
		Env:                  "development",
		FetchTimeout:         30 * time.Second,
		MetadataTimeout:      20 * time.Second,
		FetchMaxRetries:      3,
		SentimentBackend:     BackendLexicon,
		GeminiModel:          "gemini-2.0-flash",
		GeminiConcurrentReqs: 5,
		DeriveWorkers:        1,
		OutputDir:            "./outputs",
		FrontendURL:          "*",
		AnalyzeRateLimit:     10,
		LogLevel:             "info",
	}
}

// Load reads .env, an optional TOML file named by CONFIG_FILE, then the
// process environment. Later sources win.
func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	cfg := defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.YouTubeAPIKey = getEnvOrDefault("YOUTUBE_API_KEY", cfg.YouTubeAPIKey)
	cfg.YouTubeAPIBase = getEnvOrDefault("YOUTUBE_API_BASE", cfg.YouTubeAPIBase)
	cfg.FetchTimeout = getEnvAsDurationOrDefault("FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.MetadataTimeout = getEnvAsDurationOrDefault("METADATA_TIMEOUT", cfg.MetadataTimeout)
	cfg.FetchMaxRetries = getEnvAsIntOrDefault("FETCH_MAX_RETRIES", cfg.FetchMaxRetries)
	cfg.FetchPagesPerSecond = getEnvAsFloatOrDefault("FETCH_PAGES_PER_SECOND", cfg.FetchPagesPerSecond)
	cfg.SentimentBackend = strings.ToLower(getEnvOrDefault("SENTIMENT_BACKEND", cfg.SentimentBackend))
	cfg.GeminiAPIKey = getEnvOrDefault("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = getEnvOrDefault("GEMINI_MODEL", cfg.GeminiModel)
	cfg.GeminiConcurrentReqs = getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", cfg.GeminiConcurrentReqs)
	cfg.DeriveWorkers = getEnvAsIntOrDefault("DERIVE_WORKERS", cfg.DeriveWorkers)
	cfg.OutputDir = getEnvOrDefault("OUTPUT_DIR", cfg.OutputDir)
	cfg.RedisURL = getEnvOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.FrontendURL = getEnvOrDefault("FRONTEND_URL", cfg.FrontendURL)
	cfg.AnalyzeRateLimit = getEnvAsIntOrDefault("ANALYZE_RATE_LIMIT", cfg.AnalyzeRateLimit)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	// Durations are written as strings ("45s") in the file.
	var file struct {
		Config
		FetchTimeout    string `toml:"fetch_timeout"`
		MetadataTimeout string `toml:"metadata_timeout"`
	}
	file.Config = *cfg
	if err := toml.NewDecoder(f).Decode(&file); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	*cfg = file.Config
	for _, d := range []struct {
		raw string
		dst *time.Duration
	}{
		{file.FetchTimeout, &cfg.FetchTimeout},
		{file.MetadataTimeout, &cfg.MetadataTimeout},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
		*d.dst = parsed
	}
	return nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir must not be empty"))
	}
	switch c.SentimentBackend {
	case BackendLexicon:
	case BackendGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("gemini_api_key is required when sentiment_backend is gemini"))
		}
	default:
		errs = append(errs, fmt.Errorf("sentiment_backend: unsupported value %q", c.SentimentBackend))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, errors.New("fetch_timeout must be positive"))
	}
	if c.FetchMaxRetries < 1 {
		errs = append(errs, errors.New("fetch_max_retries must be at least 1"))
	}
	if c.FetchPagesPerSecond < 0 {
		errs = append(errs, errors.New("fetch_pages_per_second must not be negative"))
	}
	if c.DeriveWorkers < 1 {
		errs = append(errs, errors.New("derive_workers must be at least 1"))
	}
	if c.GeminiConcurrentReqs < 1 {
		errs = append(errs, errors.New("gemini_concurrent_requests must be at least 1"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// LockPath is the advisory lock file guarding the output directory.
func (c *Config) LockPath() string {
	return strings.TrimRight(c.OutputDir, `/\`) + ".lock"
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
