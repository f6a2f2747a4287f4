package webapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/vedanthq/SLMGen/internal/catalog"
	"github.com/vedanthq/SLMGen/internal/insights"
	"github.com/vedanthq/SLMGen/internal/jobs"
	"github.com/vedanthq/SLMGen/internal/modelcard"
	"github.com/vedanthq/SLMGen/internal/notebook"
	"github.com/vedanthq/SLMGen/internal/session"
)

// HandleGenerate renders the fine-tuning notebook for a session.
func (h *Handlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, ok := h.session(w, r, req.SessionID)
	if !ok {
		return
	}
	if sess.Stats == nil {
		writeError(w, http.StatusBadRequest, errNotProcessed.Error())
		return
	}
	spec, ok := h.model(w, req.ModelID, sess)
	if !ok {
		return
	}

	data := sess.Raw
	if len(data) == 0 && sess.FilePath != "" {
		var err error
		data, err = os.ReadFile(sess.FilePath)
		if err != nil {
			slog.Error("Failed to read dataset", "session_id", sess.ID, "path", sess.FilePath, "error", err)
			if errors.Is(err, os.ErrNotExist) {
				writeError(w, http.StatusBadRequest, "Dataset file not found.")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to read dataset file")
			return
		}
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "Dataset file not found.")
		return
	}

	nb, err := notebook.Generate(notebook.Options{
		Model:    spec,
		Task:     sess.Task,
		Examples: sess.Stats.TotalExamples,
		Dataset:  data,
	})
	if err != nil {
		slog.Error("Failed to generate notebook", "session_id", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate notebook: %v", err))
		return
	}

	filename := notebook.Filename(spec.Name, sess.ID)
	path := filepath.Join(h.opts.UploadDir, filename)
	if err := writeFile(path, nb); err != nil {
		slog.Error("Failed to save notebook", "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save notebook")
		return
	}
	sess, err = h.opts.Sessions.Modify(sess.ID, func(cur *session.Session) {
		cur.NotebookPath = path
		cur.SelectedModelID = spec.ModelID
	})
	if err != nil {
		writeError(w, http.StatusNotFound, msgSessionNotFound)
		return
	}
	token, err := h.opts.Sessions.IssueDownloadToken(sess.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue download token")
		return
	}
	h.opts.Sessions.Record(session.EventNotebook, sess.ID, session.NotebookData(spec.ModelID, filename, sess.Stats.TotalExamples))
	slog.Info("Generated notebook", "session_id", sess.ID, "file", filename)

	resp := NotebookResponse{
		SessionID:        sess.ID,
		NotebookFilename: filename,
		DownloadURL:      fmt.Sprintf("/api/download/%s?token=%s", sess.ID, token),
		Message:          fmt.Sprintf("Notebook generated for %s!", spec.Name),
	}
	if h.opts.Publisher != nil {
		u, err := h.opts.Publisher.Publish(r.Context(), filename, nb, notebook.MediaType)
		if err != nil {
			slog.Warn("Failed to publish notebook", "error", err)
		} else {
			resp.ColabURL = u
		}
	}
	resp.JobID = h.recordJob(r.Context(), sess, spec, filename, resp.ColabURL)

	writeJSON(w, http.StatusOK, resp)
}

// recordJob stores the generation in the job history for signed-in users.
// Failures are logged and do not fail the request.
func (h *Handlers) recordJob(ctx context.Context, sess session.Session, spec catalog.ModelSpec, filename, colabURL string) string {
	user := UserFrom(ctx)
	if h.opts.Jobs == nil || user == "" {
		return ""
	}
	task := string(sess.Task)
	if task == "" {
		task = "general"
	}
	j, err := h.opts.Jobs.Create(ctx, jobs.Job{
		UserID:           user,
		SessionID:        sess.ID,
		DatasetFilename:  sess.OriginalFilename,
		TotalExamples:    sess.Stats.TotalExamples,
		TotalTokens:      sess.Stats.TotalTokens,
		QualityScore:     sess.Stats.QualityScore,
		Task:             task,
		Deployment:       string(sess.Deployment),
		ModelID:          spec.ModelID,
		ModelName:        spec.Name,
		ModelScore:       h.modelScore(sess, spec.ModelID),
		NotebookFilename: filename,
		ColabURL:         colabURL,
		Status:           jobs.StatusNotebookReady,
	})
	if err != nil {
		slog.Warn("Failed to record job", "session_id", sess.ID, "error", err)
		return ""
	}
	return j.ID
}

// modelScore re-runs the ranking to find modelID's score, or 0 when the
// session has no selections.
func (h *Handlers) modelScore(sess session.Session, modelID string) int {
	if !sess.Task.Valid() || !sess.Deployment.Valid() || sess.Characteristics == nil {
		return 0
	}
	score, _, err := h.opts.Engine.Score(sess.Task, sess.Deployment, *sess.Stats, *sess.Characteristics, modelID)
	if err != nil {
		return 0
	}
	return score
}

// model resolves the requested or previously selected model.
func (h *Handlers) model(w http.ResponseWriter, requested string, sess session.Session) (catalog.ModelSpec, bool) {
	id := requested
	if id == "" {
		id = sess.SelectedModelID
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, "No model selected. Please get a recommendation first.")
		return catalog.ModelSpec{}, false
	}
	spec, ok := h.opts.Catalog.ByModelID(id)
	if !ok {
		valid := make([]string, 0, h.opts.Catalog.Len())
		for _, m := range h.opts.Catalog.All() {
			valid = append(valid, m.ModelID)
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid model_id. Valid options: %v", valid))
		return catalog.ModelSpec{}, false
	}
	return spec, true
}

// HandleDownload serves a generated notebook to holders of its download token.
func (h *Handlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session_id")
	token := r.URL.Query().Get("token")
	if err := h.opts.Sessions.ValidateDownloadToken(id, token); err != nil {
		h.opts.Sessions.Record(session.EventTokenFail, id, nil)
		writeError(w, http.StatusForbidden, "Invalid or expired download token. Please regenerate the notebook.")
		return
	}
	sess, err := h.opts.Sessions.GetOwned(id, UserFrom(r.Context()))
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found, expired, or access denied.")
		return
	}
	if sess.NotebookPath == "" {
		writeError(w, http.StatusNotFound, "Notebook not generated yet.")
		return
	}
	f, err := os.Open(sess.NotebookPath)
	if err != nil {
		writeError(w, http.StatusNotFound, "Notebook not generated yet.")
		return
	}
	defer f.Close() //nolint:errcheck
	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	name := filepath.Base(sess.NotebookPath)
	w.Header().Set("Content-Type", notebook.MediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	h.opts.Sessions.Record(session.EventDownload, id, map[string]any{"filename": name})
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// HandleModelCard renders a README for the model the session will produce.
// format is md (default), html or json.
func (h *Handlers) HandleModelCard(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r, r.PathValue("session_id"))
	if !ok {
		return
	}
	records, err := h.records(sess)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	spec, ok := h.model(w, r.URL.Query().Get("model_id"), sess)
	if !ok {
		return
	}

	card, err := modelcard.Generate(modelcard.Input{
		Model:        spec,
		Task:         sess.Task,
		Examples:     sess.Stats.TotalExamples,
		QualityScore: sess.Stats.QualityScore,
		Personality:  insights.Personality(records).Summary,
		RiskLevel:    insights.Risk(records).Level,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(card.Markdown))
	case "html":
		html, err := modelcard.RenderHTML(card.Markdown)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(html)
	case "json":
		writeJSON(w, http.StatusOK, card)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q: must be md, html or json", format))
	}
}

var errJobsDisabled = errors.New("job history is not configured")
