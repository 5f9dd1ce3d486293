package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"sentica-backend/internal/models"
)

// Analyzer runs one analysis and reports on the most recent one.
type Analyzer interface {
	Run(ctx context.Context, videoURL string) (*models.AnalyzeVideoResponse, error)
	Status() *models.RunStatus
}

type AnalysisHandler struct {
	analyzer Analyzer
}

func NewAnalysisHandler(analyzer Analyzer) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer}
}

// AnalyzeVideo runs a full analysis synchronously and replies with the
// produced artifact names and the headline summary.
func (h *AnalysisHandler) AnalyzeVideo(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeVideoRequest
	// A missing or malformed body is treated as a missing URL.
	_ = json.NewDecoder(r.Body).Decode(&req)

	url := strings.TrimSpace(req.VideoURL)
	if url == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Missing video_url", r))
		return
	}

	resp, err := h.analyzer.Run(r.Context(), url)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AnalysisHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":  "ok",
		"message": "SENTICA Backend is running",
	}
	if st := h.analyzer.Status(); st != nil {
		body["last_run"] = st
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *AnalysisHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "SENTICA Backend Running"})
}
