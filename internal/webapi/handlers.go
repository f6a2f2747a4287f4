package webapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/vedanthq/SLMGen/internal/analyzer"
	"github.com/vedanthq/SLMGen/internal/cache"
	"github.com/vedanthq/SLMGen/internal/catalog"
	"github.com/vedanthq/SLMGen/internal/dataset"
	"github.com/vedanthq/SLMGen/internal/insights"
	"github.com/vedanthq/SLMGen/internal/models"
	"github.com/vedanthq/SLMGen/internal/publish"
	"github.com/vedanthq/SLMGen/internal/quality"
	"github.com/vedanthq/SLMGen/internal/recommend"
	"github.com/vedanthq/SLMGen/internal/session"
)

// Version is set at build time or defaults to dev.
var Version = "0.1.0-dev"

// DefaultMaxUploadBytes bounds an upload when Options.MaxUploadBytes is unset.
const DefaultMaxUploadBytes = 50 << 20

const msgSessionNotFound = "Session not found or expired. Please upload again."

// Options wires the handlers to their collaborators. Only Sessions and
// UploadDir matter for most deployments; the rest default sensibly.
type Options struct {
	Sessions *session.Store
	// Jobs is optional; job endpoints return 503 without it.
	Jobs    JobStore
	Engine  *recommend.Engine
	Catalog *catalog.Catalog
	// Publisher is optional; it fills NotebookResponse.ColabURL.
	Publisher publish.Publisher
	// Cache is optional.
	Cache          *cache.Cache
	UploadDir      string
	MaxUploadBytes int64
}

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	opts Options
}

// NewHandlers creates Handlers, filling in defaults for unset options.
func NewHandlers(opts Options) *Handlers {
	if opts.Sessions == nil {
		opts.Sessions = session.NewStore(session.Config{})
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Engine == nil {
		opts.Engine = recommend.NewEngineWith(opts.Catalog, recommend.DefaultConfig())
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.UploadDir == "" {
		opts.UploadDir = filepath.Join(os.TempDir(), "slmgen-uploads")
	}
	return &Handlers{opts: opts}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  Version,
		Sessions: h.opts.Sessions.Len(),
	})
}

// HandleCatalog lists every model the engine can recommend.
func (h *Handlers) HandleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.opts.Catalog.All())
}

// HandleUpload accepts a multipart JSONL dataset, validates it and opens a session.
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File too large. Maximum size is %d bytes.", h.opts.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	res, err := dataset.IngestReader(bytes.NewReader(data), header.Filename)
	if err != nil {
		if errors.Is(err, dataset.ErrBadExtension) {
			writeError(w, http.StatusBadRequest, "Please upload a .jsonl file")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	score, issues := quality.Validate(res.Records)
	res.Stats.ApplyQuality(score, issues)

	sess := h.opts.Sessions.Create(UserFrom(r.Context()))
	path := filepath.Join(h.opts.UploadDir, sess.ID+".jsonl")
	if err := writeFile(path, res.Raw); err != nil {
		h.opts.Sessions.Delete(sess.ID)
		slog.Error("Failed to save upload", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save file")
		return
	}

	sess, err = h.opts.Sessions.Modify(sess.ID, func(cur *session.Session) {
		cur.FilePath = path
		cur.OriginalFilename = filepath.Base(header.Filename)
		cur.Records = res.Records
		cur.Raw = res.Raw
		cur.Stats = res.Stats
	})
	if err != nil {
		writeError(w, http.StatusNotFound, msgSessionNotFound)
		return
	}

	slog.Info("Upload complete", "session_id", sess.ID, "examples", res.Stats.TotalExamples)
	writeJSON(w, http.StatusOK, UploadResponse{
		SessionID: sess.ID,
		Stats:     res.Stats,
		Skipped:   len(res.Errors),
		Message:   fmt.Sprintf("Dataset uploaded! Found %d examples.", res.Stats.TotalExamples),
	})
}

// HandleAnalyze returns the session's stats and dataset characteristics.
func (h *Handlers) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, ok := h.session(w, r, req.SessionID)
	if !ok {
		return
	}
	chars, err := h.characteristics(&sess)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if _, err := h.opts.Sessions.Modify(sess.ID, keepCharacteristics(chars)); err != nil {
		writeError(w, http.StatusNotFound, msgSessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, AnalyzeResponse{
		SessionID:       sess.ID,
		Stats:           sess.Stats,
		Characteristics: chars,
	})
}

// HandleRecommend ranks catalog models for the session's dataset.
func (h *Handlers) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	task, err := models.ParseTaskType(req.Task)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	deploy, err := models.ParseDeploymentTarget(req.Deployment)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess, ok := h.session(w, r, req.SessionID)
	if !ok {
		return
	}
	chars, err := h.characteristics(&sess)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	recommendFn := h.opts.Engine.Recommend
	if req.Explain {
		recommendFn = h.opts.Engine.Explain
	}
	resp, err := recommendFn(task, deploy, *sess.Stats, *chars)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	keep := keepCharacteristics(chars)
	_, err = h.opts.Sessions.Modify(sess.ID, func(cur *session.Session) {
		keep(cur)
		cur.Task = task
		cur.Deployment = deploy
		cur.SelectedModelID = resp.Primary.ModelID
	})
	if err != nil {
		writeError(w, http.StatusNotFound, msgSessionNotFound)
		return
	}
	slog.Info("Recommended model", "session_id", sess.ID, "model", resp.Primary.ModelName)
	writeJSON(w, http.StatusOK, resp)
}

// HandlePreview returns the insight report for the session's dataset.
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, ok := h.session(w, r, req.SessionID)
	if !ok {
		return
	}
	records, err := h.records(sess)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	key := cache.Key(cache.KindInsights, sess.Raw)
	var report models.InsightsReport
	if h.opts.Cache != nil && len(sess.Raw) > 0 && h.opts.Cache.Get(key, &report) {
		writeJSON(w, http.StatusOK, report)
		return
	}
	built, err := insights.Build(r.Context(), records)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if h.opts.Cache != nil && len(sess.Raw) > 0 {
		if err := h.opts.Cache.Put(key, built); err != nil {
			slog.Warn("Failed to cache insights", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, built)
}

// RegisterRoutes registers all web API routes on the given mux. Session
// routes accept anonymous callers; job routes require a user.
func RegisterRoutes(mux *http.ServeMux, h *Handlers, auth *Authenticator, general, upload *RateLimiter) {
	open := func(fn http.HandlerFunc) http.Handler {
		return general.Middleware(auth.Optional(fn))
	}
	private := func(fn http.HandlerFunc) http.Handler {
		return general.Middleware(auth.Require(fn))
	}

	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.Handle("GET /api/catalog", open(h.HandleCatalog))
	mux.Handle("POST /api/upload", upload.Middleware(open(h.HandleUpload)))
	mux.Handle("POST /api/analyze", open(h.HandleAnalyze))
	mux.Handle("POST /api/recommend", open(h.HandleRecommend))
	mux.Handle("POST /api/preview", open(h.HandlePreview))
	mux.Handle("POST /api/generate", open(h.HandleGenerate))
	mux.Handle("GET /api/download/{session_id}", open(h.HandleDownload))
	mux.Handle("GET /api/model-card/{session_id}", open(h.HandleModelCard))

	mux.Handle("GET /api/jobs", private(h.HandleListJobs))
	mux.Handle("POST /api/jobs", private(h.HandleCreateJob))
	mux.Handle("GET /api/jobs/{id}", private(h.HandleGetJob))
	mux.Handle("PATCH /api/jobs/{id}", private(h.HandleUpdateJob))
	mux.Handle("DELETE /api/jobs/{id}", private(h.HandleDeleteJob))
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RemoveSessionFiles deletes a departed session's upload and notebook. It is
// meant for session.Config.OnEvict.
func RemoveSessionFiles(sess session.Session, reason session.Reason) {
	for _, p := range []string{sess.FilePath, sess.NotebookPath} {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Failed to remove session file", "path", p, "error", err)
			continue
		}
		slog.Debug("Removed session file", "path", p, "reason", reason)
	}
}

// errNoData is returned when a session has neither records nor a file to reload.
var errNoData = errors.New("no data available for analysis")

// errNotProcessed is returned for sessions whose upload never completed.
var errNotProcessed = errors.New("dataset not processed yet")

// session loads the caller's session, writing a 404 when it is not visible.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request, id string) (session.Session, bool) {
	if id == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return session.Session{}, false
	}
	sess, err := h.opts.Sessions.GetOwned(id, UserFrom(r.Context()))
	if err != nil {
		writeError(w, http.StatusNotFound, msgSessionNotFound)
		return session.Session{}, false
	}
	return sess, true
}

// records returns the session's records, reloading the upload if they were dropped.
func (h *Handlers) records(sess session.Session) ([]models.Conversation, error) {
	if sess.Stats == nil {
		return nil, errNotProcessed
	}
	if len(sess.Records) > 0 {
		return sess.Records, nil
	}
	if sess.FilePath == "" {
		return nil, errNoData
	}
	res, err := dataset.Ingest(sess.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to reload data: %w", err)
	}
	return res.Records, nil
}

// characteristics returns the session's characteristics, computing and
// storing them on sess when missing.
func (h *Handlers) characteristics(sess *session.Session) (*models.DatasetCharacteristics, error) {
	if sess.Stats == nil {
		return nil, errNotProcessed
	}
	if sess.Characteristics != nil {
		return sess.Characteristics, nil
	}
	records, err := h.records(*sess)
	if err != nil {
		return nil, err
	}

	var chars models.DatasetCharacteristics
	key := cache.Key(cache.KindAnalysis, sess.Raw)
	if h.opts.Cache == nil || len(sess.Raw) == 0 || !h.opts.Cache.Get(key, &chars) {
		chars = analyzer.Analyze(records)
		if h.opts.Cache != nil && len(sess.Raw) > 0 {
			if err := h.opts.Cache.Put(key, chars); err != nil {
				slog.Warn("Failed to cache analysis", "error", err)
			}
		}
	}
	sess.Characteristics = &chars
	slog.Info("Analyzed session", "session_id", sess.ID)
	return sess.Characteristics, nil
}

// keepCharacteristics stores chars unless another request already did.
func keepCharacteristics(chars *models.DatasetCharacteristics) func(*session.Session) {
	return func(cur *session.Session) {
		if cur.Characteristics == nil {
			cur.Characteristics = chars
		}
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errNotProcessed), errors.Is(err, errNoData),
		errors.Is(err, recommend.ErrInvalidTask), errors.Is(err, recommend.ErrInvalidDeployment):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
