package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				t.Setenv(tc.key, tc.envValue)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				t.Setenv(tc.key, tc.envValue)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsDurationOrDefault(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected time.Duration
	}{
		{"parses duration", "45s", 45 * time.Second},
		{"uses default for garbage", "soon", 30 * time.Second},
		{"uses default for empty", "", 30 * time.Second},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tc.envValue)

			result := getEnvAsDurationOrDefault("TEST_DURATION", 30*time.Second)
			if result != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, result)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("OUTPUT_DIR", "")
	t.Setenv("SENTIMENT_BACKEND", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != "./outputs" {
		t.Errorf("Expected ./outputs, got %q", cfg.OutputDir)
	}
	if cfg.SentimentBackend != BackendLexicon {
		t.Errorf("Expected lexicon backend, got %q", cfg.SentimentBackend)
	}
	if cfg.LockPath() != "./outputs.lock" {
		t.Errorf("Expected ./outputs.lock, got %q", cfg.LockPath())
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentica.toml")
	content := "output_dir = \"/tmp/from-file\"\nfetch_timeout = \"45s\"\nderive_workers = 4\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("OUTPUT_DIR", "/tmp/from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != "/tmp/from-env" {
		t.Errorf("env should win over file, got %q", cfg.OutputDir)
	}
	if cfg.FetchTimeout != 45*time.Second {
		t.Errorf("Expected 45s from file, got %s", cfg.FetchTimeout)
	}
	if cfg.DeriveWorkers != 4 {
		t.Errorf("Expected 4 workers from file, got %d", cfg.DeriveWorkers)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"unknown backend", func(c *Config) { c.SentimentBackend = "vader" }, true},
		{"gemini without key", func(c *Config) { c.SentimentBackend = BackendGemini }, true},
		{"gemini with key", func(c *Config) { c.SentimentBackend = BackendGemini; c.GeminiAPIKey = "k" }, false},
		{"zero retries", func(c *Config) { c.FetchMaxRetries = 0 }, true},
		{"negative pacing", func(c *Config) { c.FetchPagesPerSecond = -1 }, true},
		{"empty output dir", func(c *Config) { c.OutputDir = "" }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaults()
			tc.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
