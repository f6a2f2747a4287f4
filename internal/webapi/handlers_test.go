package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedanthq/SLMGen/internal/cache"
	"github.com/vedanthq/SLMGen/internal/catalog"
	"github.com/vedanthq/SLMGen/internal/jobs"
	"github.com/vedanthq/SLMGen/internal/models"
	"github.com/vedanthq/SLMGen/internal/session"
	"go.uber.org/mock/gomock"
)

func sampleJSONL(n int) []byte {
	var b bytes.Buffer
	for i := range n {
		fmt.Fprintf(&b, `{"messages":[{"role":"user","content":"How do I reset password number %d?"},{"role":"assistant","content":"Open settings, choose account %d, then select reset password and follow the emailed link."}]}`+"\n", i, i)
	}
	return b.Bytes()
}

type testAPI struct {
	h   *Handlers
	mux *http.ServeMux
}

func newTestAPI(t *testing.T, opts Options, auth *Authenticator) *testAPI {
	t.Helper()
	if opts.UploadDir == "" {
		opts.UploadDir = t.TempDir()
	}
	h := NewHandlers(opts)
	mux := http.NewServeMux()
	RegisterRoutes(mux, h, auth, nil, nil)
	return &testAPI{h: h, mux: mux}
}

func (a *testAPI) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return a.do(t, req)
}

func uploadRequest(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (a *testAPI) upload(t *testing.T) UploadResponse {
	t.Helper()
	rec := a.do(t, uploadRequest(t, "support.jsonl", sampleJSONL(60)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t, Options{}, nil)

	rec := api.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Version)
	assert.Equal(t, 0, resp.Sessions)
}

func TestHandleCatalog(t *testing.T) {
	api := newTestAPI(t, Options{}, nil)

	rec := api.do(t, httptest.NewRequest(http.MethodGet, "/api/catalog", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var specs []catalog.ModelSpec
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &specs))
	assert.Len(t, specs, catalog.Default().Len())
}

func TestHandleUpload(t *testing.T) {
	dir := t.TempDir()
	api := newTestAPI(t, Options{UploadDir: dir}, nil)

	resp := api.upload(t)
	assert.NotEmpty(t, resp.SessionID)
	require.NotNil(t, resp.Stats)
	assert.Equal(t, 60, resp.Stats.TotalExamples)
	assert.Equal(t, 0, resp.Skipped)
	assert.Equal(t, "Dataset uploaded! Found 60 examples.", resp.Message)
	assert.Greater(t, resp.Stats.QualityScore, 0.0)

	_, err := os.Stat(filepath.Join(dir, resp.SessionID+".jsonl"))
	assert.NoError(t, err)
	assert.Equal(t, 1, api.h.opts.Sessions.Len())
}

func TestHandleUpload_SkipsMalformedLines(t *testing.T) {
	api := newTestAPI(t, Options{}, nil)
	data := append(sampleJSONL(55), []byte("{not json}\n{\"messages\":[]}\n")...)

	rec := api.do(t, uploadRequest(t, "mixed.jsonl", data))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 55, resp.Stats.TotalExamples)
	assert.Equal(t, 2, resp.Skipped)
}

func TestHandleUpload_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		req      func(t *testing.T) *http.Request
		contains string
	}{
		{
			name:     "bad extension",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "data.csv", sampleJSONL(60)) },
			contains: "Please upload a .jsonl file",
		},
		{
			name:     "too few examples",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "small.jsonl", sampleJSONL(10)) },
			contains: "Need at least 50 examples",
		},
		{
			name: "missing file field",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("x"))
				req.Header.Set("Content-Type", "text/plain")
				return req
			},
			contains: "file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, Options{}, nil)
			rec := api.do(t, tt.req(t))
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeError(t, rec).Error, tt.contains)
			assert.Equal(t, 0, api.h.opts.Sessions.Len())
		})
	}
}

func TestHandleAnalyze(t *testing.T) {
	api := newTestAPI(t, Options{Cache: cache.New(t.TempDir())}, nil)
	up := api.upload(t)

	rec := api.postJSON(t, "/api/analyze", SessionRequest{SessionID: up.SessionID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, up.SessionID, resp.SessionID)
	require.NotNil(t, resp.Characteristics)
	assert.False(t, resp.Characteristics.IsMultilingual)
	assert.False(t, resp.Characteristics.LooksLikeJSON)

	sess, err := api.h.opts.Sessions.Get(up.SessionID)
	require.NoError(t, err)
	assert.NotNil(t, sess.Characteristics)
}

func TestHandleAnalyze_Errors(t *testing.T) {
	api := newTestAPI(t, Options{}, nil)

	rec := api.postJSON(t, "/api/analyze", SessionRequest{SessionID: "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgSessionNotFound, decodeError(t, rec).Error)

	rec = api.postJSON(t, "/api/analyze", SessionRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("{"))
	rec = api.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A session whose upload never finished.
	sess := api.h.opts.Sessions.Create("")
	rec = api.postJSON(t, "/api/analyze", SessionRequest{SessionID: sess.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRecommend(t *testing.T) {
	api := newTestAPI(t, Options{}, nil)
	up := api.upload(t)

	rec := api.postJSON(t, "/api/recommend", RecommendRequest{SessionID: up.SessionID, Task: "qa", Deployment: "cloud"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.RecommendationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Primary.ModelID)
	assert.Len(t, resp.Alternatives, 3)
	assert.Empty(t, resp.Breakdown)

	sess, err := api.h.opts.Sessions.Get(up.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskQA, sess.Task)
	assert.Equal(t, models.DeployCloud, sess.Deployment)
	assert.Equal(t, resp.Primary.ModelID, sess.SelectedModelID)
}

func TestHandleRecommend_Explain(t *testing.T) {
	api := newTestAPI(t, Options{}, nil)
	up := api.upload(t)

	rec := api.postJSON(t, "/api/recommend", RecommendRequest{SessionID: up.SessionID, Task: "qa", Deployment: "edge", Explain: true})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.RecommendationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Breakdown)
}

func TestHandleRecommend_InvalidEnums(t *testing.T) {
	api := newTestAPI(t, Options{}, nil)
	up := api.upload(t)

	rec := api.postJSON(t, "/api/recommend", RecommendRequest{SessionID: up.SessionID, Task: "summarize", Deployment: "cloud"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "invalid task")

	rec = api.postJSON(t, "/api/recommend", RecommendRequest{SessionID: up.SessionID, Task: "qa", Deployment: "mainframe"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "invalid deployment")
}

func TestHandlePreview(t *testing.T) {
	api := newTestAPI(t, Options{Cache: cache.New(t.TempDir())}, nil)
	up := api.upload(t)

	for range 2 {
		rec := api.postJSON(t, "/api/preview", SessionRequest{SessionID: up.SessionID})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var report models.InsightsReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.NotEmpty(t, report.Confidence.Level)
		assert.NotEmpty(t, report.Risk.Level)
		assert.NotEmpty(t, report.Languages)
	}
}

type fakePublisher struct {
	name string
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, name string, _ []byte, _ string) (string, error) {
	f.name = name
	if f.err != nil {
		return "", f.err
	}
	return "https://acct.blob.core.windows.net/nb/" + name, nil
}

func TestGenerateAndDownload(t *testing.T) {
	dir := t.TempDir()
	pub := &fakePublisher{}
	api := newTestAPI(t, Options{UploadDir: dir, Publisher: pub}, nil)
	up := api.upload(t)

	rec := api.postJSON(t, "/api/recommend", RecommendRequest{SessionID: up.SessionID, Task: "qa", Deployment: "cloud"})
	require.Equal(t, http.StatusOK, rec.Code)
	var rr models.RecommendationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rr))

	rec = api.postJSON(t, "/api/generate", GenerateRequest{SessionID: up.SessionID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var nb NotebookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nb))
	assert.True(t, strings.HasPrefix(nb.NotebookFilename, "finetune_"))
	assert.True(t, strings.HasSuffix(nb.NotebookFilename, "_"+up.SessionID[:8]+".ipynb"))
	assert.True(t, strings.HasPrefix(nb.DownloadURL, "/api/download/"+up.SessionID+"?token="))
	assert.Equal(t, "https://acct.blob.core.windows.net/nb/"+nb.NotebookFilename, nb.ColabURL)
	assert.Equal(t, nb.NotebookFilename, pub.name)
	assert.Empty(t, nb.JobID)
	assert.Contains(t, nb.Message, rr.Primary.ModelName)

	rec = api.do(t, httptest.NewRequest(http.MethodGet, nb.DownloadURL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ipynb+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), nb.NotebookFilename)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Contains(t, doc, "cells")
	assert.EqualValues(t, 4, doc["nbformat"])
}

func TestGenerate_PublishFailureIsNotFatal(t *testing.T) {
	api := newTestAPI(t, Options{Publisher: &fakePublisher{err: fmt.Errorf("boom")}}, nil)
	up := api.upload(t)
	spec := catalog.Default().All()[0]

	rec := api.postJSON(t, "/api/generate", GenerateRequest{SessionID: up.SessionID, ModelID: spec.ModelID})
	require.Equal(t, http.StatusOK, rec.Code)

	var nb NotebookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nb))
	assert.Empty(t, nb.ColabURL)
}

func TestGenerate_Errors(t *testing.T) {
	api := newTestAPI(t, Options{}, nil)
	up := api.upload(t)

	rec := api.postJSON(t, "/api/generate", GenerateRequest{SessionID: up.SessionID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "No model selected")

	rec = api.postJSON(t, "/api/generate", GenerateRequest{SessionID: up.SessionID, ModelID: "acme/unknown"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "Invalid model_id")

	rec = api.postJSON(t, "/api/generate", GenerateRequest{SessionID: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownload_Rejections(t *testing.T) {
	api := newTestAPI(t, Options{}, nil)
	up := api.upload(t)

	rec := api.do(t, httptest.NewRequest(http.MethodGet, "/api/download/"+up.SessionID+"?token=forged", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, httptest.NewRequest(http.MethodGet, "/api/download/"+up.SessionID, nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// A valid token without a notebook on disk.
	token, err := api.h.opts.Sessions.IssueDownloadToken(up.SessionID)
	require.NoError(t, err)
	rec = api.do(t, httptest.NewRequest(http.MethodGet, "/api/download/"+up.SessionID+"?token="+token, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Notebook not generated yet.", decodeError(t, rec).Error)
}

func TestHandleModelCard(t *testing.T) {
	api := newTestAPI(t, Options{}, nil)
	up := api.upload(t)
	rec := api.postJSON(t, "/api/recommend", RecommendRequest{SessionID: up.SessionID, Task: "qa", Deployment: "cloud"})
	require.Equal(t, http.StatusOK, rec.Code)

	base := "/api/model-card/" + up.SessionID

	rec = api.do(t, httptest.NewRequest(http.MethodGet, base, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "---\n"))
	assert.Contains(t, rec.Body.String(), "base_model:")

	rec = api.do(t, httptest.NewRequest(http.MethodGet, base+"?format=html", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<h1")

	rec = api.do(t, httptest.NewRequest(http.MethodGet, base+"?format=json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var card struct {
		Title    string `json:"title"`
		Markdown string `json:"markdown"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.NotEmpty(t, card.Title)

	rec = api.do(t, httptest.NewRequest(http.MethodGet, base+"?format=pdf", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerate_RecordsJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockJobStore(ctrl)
	api := newTestAPI(t, Options{Jobs: store}, nil)
	up := api.upload(t)

	rec := api.postJSON(t, "/api/recommend", RecommendRequest{SessionID: up.SessionID, Task: "qa", Deployment: "cloud"})
	require.Equal(t, http.StatusOK, rec.Code)
	var rr models.RecommendationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rr))

	var captured jobs.Job
	store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, j jobs.Job) (jobs.Job, error) {
		captured = j
		j.ID = "job-1"
		return j, nil
	})

	rec = api.postJSON(t, "/api/generate", GenerateRequest{SessionID: up.SessionID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var nb NotebookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nb))
	assert.Equal(t, "job-1", nb.JobID)

	assert.Equal(t, LocalDevUser, captured.UserID)
	assert.Equal(t, up.SessionID, captured.SessionID)
	assert.Equal(t, "support.jsonl", captured.DatasetFilename)
	assert.Equal(t, 60, captured.TotalExamples)
	assert.Equal(t, "qa", captured.Task)
	assert.Equal(t, "cloud", captured.Deployment)
	assert.Equal(t, rr.Primary.ModelID, captured.ModelID)
	assert.Equal(t, int(rr.Primary.Score), captured.ModelScore)
	assert.Equal(t, jobs.StatusNotebookReady, captured.Status)
	assert.Equal(t, nb.NotebookFilename, captured.NotebookFilename)
}

func TestGenerate_RecordsScoreForLowRankedModel(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockJobStore(ctrl)
	api := newTestAPI(t, Options{Jobs: store}, nil)
	up := api.upload(t)

	rec := api.postJSON(t, "/api/recommend", RecommendRequest{SessionID: up.SessionID, Task: "qa", Deployment: "cloud", Explain: true})
	require.Equal(t, http.StatusOK, rec.Code)
	var rr models.RecommendationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rr))
	last := rr.Breakdown[len(rr.Breakdown)-1]
	require.Greater(t, last.Rank, 1+len(rr.Alternatives))
	require.Positive(t, last.Total)

	var captured jobs.Job
	store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, j jobs.Job) (jobs.Job, error) {
		captured = j
		j.ID = "job-2"
		return j, nil
	})

	rec = api.postJSON(t, "/api/generate", GenerateRequest{SessionID: up.SessionID, ModelID: last.ModelID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, last.ModelID, captured.ModelID)
	assert.Equal(t, last.Total, captured.ModelScore)
}

func TestGenerate_DatasetFileErrors(t *testing.T) {
	api := newTestAPI(t, Options{}, nil)
	spec := catalog.Default().All()[0]

	tests := []struct {
		name string
		path func(t *testing.T) string
		code int
		msg  string
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "gone.jsonl") }, http.StatusBadRequest, "Dataset file not found."},
		{"unreadable", func(t *testing.T) string { return t.TempDir() }, http.StatusInternalServerError, "Failed to read dataset file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := api.upload(t)
			path := tt.path(t)
			_, err := api.h.opts.Sessions.Modify(up.SessionID, func(cur *session.Session) {
				cur.Raw = nil
				cur.FilePath = path
			})
			require.NoError(t, err)

			rec := api.postJSON(t, "/api/generate", GenerateRequest{SessionID: up.SessionID, ModelID: spec.ModelID})
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.msg, decodeError(t, rec).Error)
		})
	}
}

func TestRecommendAfterAnalyzeKeepsBoth(t *testing.T) {
	api := newTestAPI(t, Options{}, nil)
	up := api.upload(t)

	rec := api.postJSON(t, "/api/recommend", RecommendRequest{SessionID: up.SessionID, Task: "qa", Deployment: "cloud"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.postJSON(t, "/api/analyze", SessionRequest{SessionID: up.SessionID})
	require.Equal(t, http.StatusOK, rec.Code)

	sess, err := api.h.opts.Sessions.Get(up.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskQA, sess.Task)
	assert.NotEmpty(t, sess.SelectedModelID)
	assert.NotNil(t, sess.Characteristics)
}

func TestSessionOwnership(t *testing.T) {
	auth := NewAuthenticator(testSecret, "slmgen", false)
	api := newTestAPI(t, Options{}, auth)

	req := uploadRequest(t, "owned.jsonl", sampleJSONL(60))
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "alice", "slmgen"))
	rec := api.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var up UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))

	analyze := func(token string) int {
		data, _ := json.Marshal(SessionRequest{SessionID: up.SessionID})
		req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(data))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return api.do(t, req).Code
	}

	assert.Equal(t, http.StatusOK, analyze(signToken(t, testSecret, "alice", "slmgen")))
	assert.Equal(t, http.StatusNotFound, analyze(signToken(t, testSecret, "mallory", "slmgen")))
	assert.Equal(t, http.StatusNotFound, analyze(""))
}

func TestCORSMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := CORSMiddleware(inner, "http://localhost:3000")

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("disallowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/upload", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestRemoveSessionFiles(t *testing.T) {
	dir := t.TempDir()
	upload := filepath.Join(dir, "a.jsonl")
	nb := filepath.Join(dir, "a.ipynb")
	require.NoError(t, os.WriteFile(upload, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(nb, []byte("x"), 0o644))

	RemoveSessionFiles(session.Session{FilePath: upload, NotebookPath: nb}, session.ReasonExpired)

	_, err := os.Stat(upload)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(nb)
	assert.True(t, os.IsNotExist(err))

	// Already gone is fine.
	RemoveSessionFiles(session.Session{FilePath: upload}, session.ReasonDeleted)
}

func TestEvictionRemovesUpload(t *testing.T) {
	dir := t.TempDir()
	store := session.NewStore(session.Config{MaxSessions: 1, OnEvict: RemoveSessionFiles})
	api := newTestAPI(t, Options{UploadDir: dir, Sessions: store}, nil)

	first := api.upload(t)
	second := api.upload(t)

	_, err := os.Stat(filepath.Join(dir, first.SessionID+".jsonl"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, second.SessionID+".jsonl"))
	assert.NoError(t, err)
}
