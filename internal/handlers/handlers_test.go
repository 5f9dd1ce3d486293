package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/flock"

	"sentica-backend/internal/artifacts"
	"sentica-backend/internal/models"
	"sentica-backend/internal/report"
	"sentica-backend/internal/services"
	"sentica-backend/internal/table"
	"sentica-backend/internal/worker"
)

// ─── Stubs ───

type stubComments struct {
	records []models.CommentRecord
}

func (stubComments) Ready() error { return nil }

func (s stubComments) Pages(context.Context, string) iter.Seq2[models.CommentPage, error] {
	return func(yield func(models.CommentPage, error) bool) {
		yield(models.CommentPage{Records: s.records}, nil)
	}
}

type stubMetadata struct{}

func (stubMetadata) FetchMetadata(_ context.Context, videoID string) models.VideoMetadata {
	return models.DefaultVideoMetadata(videoID)
}

type panickingGenerator struct{}

func (panickingGenerator) Name() string { return "panicking" }

func (panickingGenerator) Generate(context.Context, *table.Table, *artifacts.Sink) ([]string, error) {
	panic("chart backend exploded")
}

type stubAnalyzer struct {
	err    error
	status *models.RunStatus
}

func (s stubAnalyzer) Run(context.Context, string) (*models.AnalyzeVideoResponse, error) {
	return nil, s.err
}

func (s stubAnalyzer) Status() *models.RunStatus { return s.status }

func newRunner(t *testing.T, dir string, records []models.CommentRecord, gens ...artifacts.Generator) *worker.Runner {
	t.Helper()
	scorer, err := services.NewLexiconScorer()
	if err != nil {
		t.Fatalf("lexicon: %v", err)
	}
	gens = append([]artifacts.Generator{&artifacts.CoreExport{Now: time.Now}}, gens...)
	r, err := worker.NewRunner(worker.Options{
		Comments:   stubComments{records: records},
		Metadata:   stubMetadata{},
		Deriver:    services.NewFeatureDeriver(scorer, 1, nil),
		Generators: gens,
		Composer:   report.NewComposer(nil),
		OutputDir:  dir,
	})
	if err != nil {
		t.Fatalf("runner: %v", err)
	}
	return r
}

func postAnalyze(h *AnalysisHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/analyze_video", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.AnalyzeVideo(rr, req)
	return rr
}

// ─── Analysis Handler Tests ───

func TestAnalyzeVideo_InvalidURLKeepsOutputs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outputs")
	h := NewAnalysisHandler(newRunner(t, dir, nil))
	sentinel := filepath.Join(dir, "previous_run.csv")
	if err := os.WriteFile(sentinel, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	rr := postAnalyze(h, `{"video_url":"not a url"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
	var body models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "Invalid YouTube URL" || body.Code != "VALIDATION_ERROR" {
		t.Errorf("unexpected error body %+v", body)
	}
	if _, err := os.Stat(sentinel); err != nil {
		t.Errorf("sentinel file removed: %v", err)
	}
}

func TestAnalyzeVideo_MissingURL(t *testing.T) {
	h := NewAnalysisHandler(stubAnalyzer{})
	for _, body := range []string{`{}`, `{"video_url":"   "}`, `garbage`, ``} {
		rr := postAnalyze(h, body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "Missing video_url") {
			t.Errorf("body %q: unexpected response %s", body, rr.Body.String())
		}
	}
}

func TestAnalyzeVideo_ZeroComments(t *testing.T) {
	h := NewAnalysisHandler(newRunner(t, filepath.Join(t.TempDir(), "outputs"), nil))

	rr := postAnalyze(h, `{"video_url":"https://youtu.be/dQw4w9WgXcQ"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp models.AnalyzeVideoResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "No comments found." {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.Summary.TotalComments != 0 {
		t.Errorf("total_comments = %d", resp.Summary.TotalComments)
	}
	for _, name := range artifacts.CoreArtifacts {
		if !slices.Contains(resp.Outputs, name) {
			t.Errorf("outputs missing %s: %v", name, resp.Outputs)
		}
	}
}

func TestAnalyzeVideo_GeneratorPanicStill200(t *testing.T) {
	records := []models.CommentRecord{
		{Author: "a", Text: "great video", Likes: 3},
		{Author: "b", Text: "awful", Likes: 4},
	}
	h := NewAnalysisHandler(newRunner(t, filepath.Join(t.TempDir(), "outputs"), records, panickingGenerator{}))

	rr := postAnalyze(h, `{"video_url":"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp models.AnalyzeVideoResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Outputs) == 0 {
		t.Fatal("expected outputs despite the failing generator")
	}
	if resp.Summary.TotalComments != 2 || resp.Summary.TotalLikes != 7 {
		t.Errorf("unexpected summary %+v", resp.Summary)
	}
}

func TestAnalyzeVideo_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"busy", services.Wrap(services.ErrBusy, "runner", "lock", "", nil), http.StatusConflict, "BUSY"},
		{"remote", services.Wrap(services.ErrRemoteStatus, "youtube", "list", "status 403", nil), http.StatusInternalServerError, "REMOTE_API_ERROR"},
		{"config", services.Wrap(services.ErrConfiguration, "youtube", "", "missing key", nil), http.StatusInternalServerError, "CONFIGURATION_ERROR"},
		{"other", context.DeadlineExceeded, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAnalysisHandler(stubAnalyzer{err: tc.err})
			rr := postAnalyze(h, `{"video_url":"https://youtu.be/dQw4w9WgXcQ"}`)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			var body models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tc.code || body.Error == "" {
				t.Errorf("unexpected body %+v", body)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	h := NewAnalysisHandler(stubAnalyzer{status: &models.RunStatus{VideoID: "dQw4w9WgXcQ", State: "completed"}})
	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body struct {
		Status  string            `json:"status"`
		LastRun *models.RunStatus `json:"last_run"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.LastRun == nil || body.LastRun.State != "completed" {
		t.Errorf("unexpected health body %+v", body)
	}
}

// ─── Outputs Handler Tests ───

func outputsRouter(dir string) http.Handler {
	h := NewOutputsHandler(dir, nil)
	r := chi.NewRouter()
	r.Get("/outputs/list", h.List)
	r.Get("/outputs/file/{name}", h.File)
	r.Get("/outputs/zip", h.Zip)
	r.Get("/outputs/report", h.Report)
	return r
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestOutputs_ListAndFile(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "b.csv"), []byte("b"), 0o644)
	os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{"a":1}`), 0o644)
	h := outputsRouter(dir)

	rr := get(h, "/outputs/list")
	var list models.OutputListResponse
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Join(list.Files, ",") != "a.json,b.csv" {
		t.Errorf("files = %v", list.Files)
	}

	rr = get(h, "/outputs/file/a.json")
	if rr.Code != http.StatusOK || rr.Body.String() != `{"a":1}` {
		t.Errorf("file: %d %q", rr.Code, rr.Body.String())
	}

	for _, path := range []string{"/outputs/file/missing.png", "/outputs/file/..%2Fetc%2Fpasswd"} {
		rr = get(h, path)
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rr.Code)
		}
	}
}

func TestOutputs_FileUsesRouteParam(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "summary.txt"), []byte("hello"), 0o644)
	h := NewOutputsHandler(dir, nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("name", "summary.txt")
	req := httptest.NewRequest(http.MethodGet, "/outputs/file/summary.txt", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	h.File(rr, req)
	if rr.Code != http.StatusOK || rr.Body.String() != "hello" {
		t.Errorf("got %d %q", rr.Code, rr.Body.String())
	}
}

func TestOutputs_BusyWhileRunHoldsOutputs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outputs")
	runner := newRunner(t, dir, nil)
	os.WriteFile(filepath.Join(dir, "analysis.csv"), []byte("x"), 0o644)

	h := NewOutputsHandler(dir, runner)
	r := chi.NewRouter()
	r.Get("/outputs/list", h.List)
	r.Get("/outputs/zip", h.Zip)

	// Another process mid-run holds the lock exclusively.
	other := flock.New(dir + ".lock")
	ok, err := other.TryLock()
	if err != nil || !ok {
		t.Fatalf("lock: %v %v", ok, err)
	}
	for _, path := range []string{"/outputs/list", "/outputs/zip"} {
		if rr := get(r, path); rr.Code != http.StatusConflict {
			t.Errorf("%s during a run: expected 409, got %d", path, rr.Code)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "outputs.zip")); !os.IsNotExist(err) {
		t.Error("zip was built while a run held the outputs")
	}
	other.Unlock()

	for _, path := range []string{"/outputs/list", "/outputs/zip"} {
		if rr := get(r, path); rr.Code != http.StatusOK {
			t.Errorf("%s after the run: expected 200, got %d", path, rr.Code)
		}
	}
}

func TestOutputs_ZipAndReport(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "analysis.csv"), []byte("x"), 0o644)
	h := outputsRouter(dir)

	rr := get(h, "/outputs/zip")
	if rr.Code != http.StatusOK {
		t.Fatalf("zip: %d %s", rr.Code, rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "outputs.zip") {
		t.Errorf("content-disposition = %q", cd)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")) {
		t.Error("zip body is not a zip archive")
	}

	rr = get(h, "/outputs/report")
	if rr.Code != http.StatusNotFound {
		t.Errorf("report before a run: expected 404, got %d", rr.Code)
	}
}

// ─── Sentiment Handler Tests ───

func TestSentimentScore(t *testing.T) {
	scorer, err := services.NewLexiconScorer()
	if err != nil {
		t.Fatal(err)
	}
	h := NewSentimentHandler(services.NewFeatureDeriver(scorer, 1, nil))

	req := httptest.NewRequest(http.MethodPost, "/sentiment", strings.NewReader(`{"text":"This is a great video"}`))
	rr := httptest.NewRecorder()
	h.Score(rr, req)
	var resp models.SentimentResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rr.Code != http.StatusOK || resp.Sentiment != models.SentimentPositive {
		t.Errorf("got %d %+v", rr.Code, resp)
	}

	req = httptest.NewRequest(http.MethodPost, "/sentiment", strings.NewReader(`{}`))
	rr = httptest.NewRecorder()
	h.Score(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing text: expected 400, got %d", rr.Code)
	}
}
