package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"sentica-backend/internal/models"
	"sentica-backend/internal/packaging"
	"sentica-backend/internal/report"
)

// OutputGuard holds the output directory against a concurrent run while fn
// reads it, failing with ErrBusy when a run is writing.
type OutputGuard interface {
	ReadOutputs(fn func() error) error
}

// OutputsHandler serves the artifacts of the most recent run.
type OutputsHandler struct {
	dir   string
	guard OutputGuard
}

// NewOutputsHandler serves dir. guard may be nil when nothing else writes it.
func NewOutputsHandler(dir string, guard OutputGuard) *OutputsHandler {
	return &OutputsHandler{dir: dir, guard: guard}
}

func (h *OutputsHandler) read(fn func() error) error {
	if h.guard == nil {
		return fn()
	}
	return h.guard.ReadOutputs(fn)
}

func (h *OutputsHandler) List(w http.ResponseWriter, r *http.Request) {
	var files []string
	err := h.read(func() (err error) {
		files, err = packaging.List(h.dir)
		return err
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.OutputListResponse{Files: files})
}

func (h *OutputsHandler) File(w http.ResponseWriter, r *http.Request) {
	path, err := packaging.Open(h.dir, chi.URLParam(r, "name"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	serveFile(w, r, path, false)
}

// Zip rebuilds outputs.zip and sends it as an attachment.
func (h *OutputsHandler) Zip(w http.ResponseWriter, r *http.Request) {
	err := h.read(func() error {
		path, err := packaging.BuildZip(h.dir)
		if err != nil {
			return err
		}
		serveFile(w, r, path, true)
		return nil
	})
	if err != nil {
		handleServiceError(w, r, err)
	}
}

func (h *OutputsHandler) Report(w http.ResponseWriter, r *http.Request) {
	path, err := packaging.Open(h.dir, report.ReportPDF)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Report not found", r))
		return
	}
	serveFile(w, r, path, true)
}

func serveFile(w http.ResponseWriter, r *http.Request, path string, attachment bool) {
	f, err := os.Open(path)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "File not found", r))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if attachment {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
