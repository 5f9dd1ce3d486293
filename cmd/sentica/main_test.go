package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"sentica-backend/internal/models"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SENTIMENT_BACKEND", "lexicon")
	t.Setenv("CONFIG_FILE", "")
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	out, err := runCLI(t, "score", "what", "a", "great", "video")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !strings.HasPrefix(out, "Positive") {
		t.Errorf("unexpected output %q", out)
	}

	out, err = runCLI(t, "--json", "score", "   ")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	var res models.SentimentResponse
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.Sentiment != models.SentimentNeutral || res.Polarity != 0 {
		t.Errorf("blank text: %+v", res)
	}
}

func TestAnalyzeRejectsBadURLBeforeFetching(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, "analyze", "--out", dir, "not a url")
	if err == nil || !strings.Contains(err.Error(), "Invalid YouTube URL") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRenderSummary(t *testing.T) {
	got := renderSummary(models.RunSummary{VideoID: "dQw4w9WgXcQ", TotalComments: 2000, Positive: 1500, TotalLikes: 12345})
	for _, want := range []string{"2,000", "1,500 (75.0%)", "12,345", "dQw4w9WgXcQ"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}
