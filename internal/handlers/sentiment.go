package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"sentica-backend/internal/models"
)

// TextScorer scores a single free-standing text.
type TextScorer interface {
	ScoreText(ctx context.Context, text string) models.SentimentResponse
}

type SentimentHandler struct {
	scorer TextScorer
}

func NewSentimentHandler(scorer TextScorer) *SentimentHandler {
	return &SentimentHandler{scorer: scorer}
}

func (h *SentimentHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text *string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No text provided", r))
		return
	}

	writeJSON(w, http.StatusOK, h.scorer.ScoreText(r.Context(), *req.Text))
}
