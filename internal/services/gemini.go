package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiScorer asks a Gemini model for polarity and subjectivity.
type GeminiScorer struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	rateChan chan struct{} // Token bucket
}

func NewGeminiScorer(ctx context.Context, apiKey, modelName string, concurrentReqs int) (*GeminiScorer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"

	if concurrentReqs < 1 {
		concurrentReqs = 1
	}
	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiScorer{
		client:   client,
		model:    model,
		rateChan: rateChan,
	}, nil
}

func (s *GeminiScorer) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiScorer) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(2 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiScorer) releaseRate() {
	s.rateChan <- struct{}{}
}

func (s *GeminiScorer) Score(ctx context.Context, text string) (Score, error) {
	if err := s.acquireRate(ctx); err != nil {
		return Score{}, err
	}
	defer s.releaseRate()

	resp, err := s.model.GenerateContent(ctx, genai.Text(buildScorePrompt(text)))
	if err != nil {
		return Score{}, fmt.Errorf("Gemini API error: %w", err)
	}
	return parseScoreJSON(extractText(resp))
}

func buildScorePrompt(text string) string {
	return `Rate the sentiment of the YouTube comment below.
Return ONLY a JSON object: {"polarity": <number from -1 (very negative) to 1 (very positive)>, "subjectivity": <number from 0 (factual) to 1 (opinion)>}

Comment:
` + text
}

func parseScoreJSON(raw string) (Score, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var out struct {
		Polarity     *float64 `json:"polarity"`
		Subjectivity *float64 `json:"subjectivity"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Score{}, fmt.Errorf("parse Gemini score: %w", err)
	}
	if out.Polarity == nil {
		return Score{}, fmt.Errorf("parse Gemini score: polarity missing")
	}
	score := Score{Polarity: *out.Polarity}
	if out.Subjectivity != nil {
		score.Subjectivity = *out.Subjectivity
	}
	return score.clamped(), nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
