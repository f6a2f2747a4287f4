package webapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedanthq/SLMGen/internal/jobs"
	"go.uber.org/mock/gomock"
)

func sampleJob(id string) jobs.Job {
	ts := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return jobs.Job{
		ID:              id,
		UserID:          LocalDevUser,
		SessionID:       "sess-1",
		DatasetFilename: "support.jsonl",
		TotalExamples:   120,
		Task:            "qa",
		Deployment:      "cloud",
		ModelID:         "microsoft/Phi-4-mini-instruct",
		ModelName:       "Phi-4 Mini",
		ModelScore:      92,
		Status:          jobs.StatusNotebookReady,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
}

func newJobsAPI(t *testing.T) (*testAPI, *MockJobStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := NewMockJobStore(ctrl)
	return newTestAPI(t, Options{Jobs: store}, nil), store
}

func TestHandleListJobs(t *testing.T) {
	api, store := newJobsAPI(t)
	store.EXPECT().
		List(gomock.Any(), LocalDevUser, 10, 20).
		Return([]jobs.Job{sampleJob("j2"), sampleJob("j1")}, nil)

	rec := api.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs?limit=10&offset=20", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []jobs.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "j2", got[0].ID)
}

func TestHandleListJobs_Defaults(t *testing.T) {
	api, store := newJobsAPI(t)
	store.EXPECT().List(gomock.Any(), LocalDevUser, jobs.DefaultListLimit, 0).Return([]jobs.Job{}, nil)

	rec := api.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHandleListJobs_BadParams(t *testing.T) {
	api, _ := newJobsAPI(t)

	for _, q := range []string{"limit=abc", "offset=-1"} {
		rec := api.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestHandleListJobs_StoreError(t *testing.T) {
	api, store := newJobsAPI(t)
	store.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("disk full"))

	rec := api.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "disk full")
}

func TestHandleGetJob(t *testing.T) {
	api, store := newJobsAPI(t)
	store.EXPECT().Get(gomock.Any(), LocalDevUser, "j1").Return(sampleJob("j1"), nil)
	store.EXPECT().Get(gomock.Any(), LocalDevUser, "missing").Return(jobs.Job{}, jobs.ErrJobNotFound)

	rec := api.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs/j1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got jobs.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, sampleJob("j1"), got)

	rec = api.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Job not found", decodeError(t, rec).Error)
}

func TestHandleCreateJob(t *testing.T) {
	api, store := newJobsAPI(t)
	store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ any, j jobs.Job) (jobs.Job, error) {
		assert.Equal(t, LocalDevUser, j.UserID)
		assert.Equal(t, jobs.StatusCreated, j.Status)
		j.ID = "new"
		return j, nil
	})

	body, _ := json.Marshal(map[string]any{"session_id": "sess-1", "selected_model_id": "microsoft/Phi-4-mini-instruct", "user_id": "spoofed"})
	rec := api.do(t, httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewReader([]byte(`{}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleUpdateJob(t *testing.T) {
	api, store := newJobsAPI(t)
	url := "https://acct.blob.core.windows.net/nb/x.ipynb"
	updated := sampleJob("j1")
	updated.ColabURL = url
	store.EXPECT().Update(gomock.Any(), LocalDevUser, "j1", jobs.Update{ColabURL: &url}).Return(updated, nil)
	store.EXPECT().Update(gomock.Any(), LocalDevUser, "j1", jobs.Update{}).Return(jobs.Job{}, jobs.ErrNoUpdates)

	body, _ := json.Marshal(map[string]string{"colab_url": url})
	rec := api.do(t, httptest.NewRequest(http.MethodPatch, "/api/jobs/j1", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, httptest.NewRequest(http.MethodPatch, "/api/jobs/j1", bytes.NewReader([]byte(`{}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDeleteJob(t *testing.T) {
	api, store := newJobsAPI(t)
	gomock.InOrder(
		store.EXPECT().Delete(gomock.Any(), LocalDevUser, "j1").Return(nil),
		store.EXPECT().Delete(gomock.Any(), LocalDevUser, "j1").Return(jobs.ErrJobNotFound),
	)

	rec := api.do(t, httptest.NewRequest(http.MethodDelete, "/api/jobs/j1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, httptest.NewRequest(http.MethodDelete, "/api/jobs/j1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobsRequireAuth(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockJobStore(ctrl)
	store.EXPECT().List(gomock.Any(), "alice", gomock.Any(), gomock.Any()).Return([]jobs.Job{}, nil)
	api := newTestAPI(t, Options{Jobs: store}, NewAuthenticator(testSecret, "slmgen", false))

	rec := api.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "alice", "slmgen"))
	rec = api.do(t, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJobsNotConfigured(t *testing.T) {
	api := newTestAPI(t, Options{}, nil)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/jobs", nil),
		httptest.NewRequest(http.MethodGet, "/api/jobs/j1", nil),
		httptest.NewRequest(http.MethodDelete, "/api/jobs/j1", nil),
	} {
		rec := api.do(t, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	}
}
