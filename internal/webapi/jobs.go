package webapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/vedanthq/SLMGen/internal/jobs"
)

// HandleListJobs returns the caller's jobs, newest first. Accepts limit and
// offset query parameters.
func (h *Handlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	if h.opts.Jobs == nil {
		writeError(w, http.StatusServiceUnavailable, errJobsDisabled.Error())
		return
	}
	limit, err := intParam(r, "limit", jobs.DefaultListLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.opts.Jobs.List(r.Context(), UserFrom(r.Context()), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleCreateJob records a job supplied by the client.
func (h *Handlers) HandleCreateJob(w http.ResponseWriter, r *http.Request) {
	if h.opts.Jobs == nil {
		writeError(w, http.StatusServiceUnavailable, errJobsDisabled.Error())
		return
	}
	var j jobs.Job
	if !decodeJSON(w, r, &j) {
		return
	}
	if j.SessionID == "" || j.ModelID == "" {
		writeError(w, http.StatusBadRequest, "session_id and selected_model_id are required")
		return
	}
	j.UserID = UserFrom(r.Context())
	j.Status = jobs.StatusCreated

	created, err := h.opts.Jobs.Create(r.Context(), j)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleGetJob returns one of the caller's jobs.
func (h *Handlers) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	if h.opts.Jobs == nil {
		writeError(w, http.StatusServiceUnavailable, errJobsDisabled.Error())
		return
	}
	j, err := h.opts.Jobs.Get(r.Context(), UserFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeJobError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// HandleUpdateJob applies a partial update to one of the caller's jobs.
func (h *Handlers) HandleUpdateJob(w http.ResponseWriter, r *http.Request) {
	if h.opts.Jobs == nil {
		writeError(w, http.StatusServiceUnavailable, errJobsDisabled.Error())
		return
	}
	var u jobs.Update
	if !decodeJSON(w, r, &u) {
		return
	}
	j, err := h.opts.Jobs.Update(r.Context(), UserFrom(r.Context()), r.PathValue("id"), u)
	if err != nil {
		writeJobError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// HandleDeleteJob removes one of the caller's jobs.
func (h *Handlers) HandleDeleteJob(w http.ResponseWriter, r *http.Request) {
	if h.opts.Jobs == nil {
		writeError(w, http.StatusServiceUnavailable, errJobsDisabled.Error())
		return
	}
	if err := h.opts.Jobs.Delete(r.Context(), UserFrom(r.Context()), r.PathValue("id")); err != nil {
		writeJobError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJobError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, jobs.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "Job not found")
	case errors.Is(err, jobs.ErrNoUpdates):
		writeError(w, http.StatusBadRequest, "No update fields provided")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return n, nil
}
