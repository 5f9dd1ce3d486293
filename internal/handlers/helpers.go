package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"sentica-backend/internal/middleware"
	"sentica-backend/internal/models"
	"sentica-backend/internal/services"
)

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: r.Header.Get(middleware.RequestIDHeader),
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := services.ErrorCode(err)
	switch {
	case errors.Is(err, services.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResp(code, detail(err, services.ErrValidation), r))
	case errors.Is(err, services.ErrBusy):
		writeJSON(w, http.StatusConflict, errorResp(code, "An analysis is already running. Try again when it finishes.", r))
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResp(code, "File not found", r))
	case errors.Is(err, services.ErrRemoteStatus), errors.Is(err, services.ErrConfiguration):
		slog.Error("request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorResp(code, err.Error(), r))
	default:
		slog.Error("request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorResp(code, "An unexpected error occurred", r))
	}
}

// detail strips the sentinel prefix so clients see only the message.
func detail(err, marker error) string {
	return strings.TrimPrefix(err.Error(), marker.Error()+": ")
}
