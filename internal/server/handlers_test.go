package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medintake/form-extractor/constants"
	"github.com/medintake/form-extractor/internal/acquire"
	"github.com/medintake/form-extractor/internal/async"
	"github.com/medintake/form-extractor/internal/common"
	"github.com/medintake/form-extractor/internal/pipeline"
	"github.com/medintake/form-extractor/internal/schema"
)

type stubSubmitter struct {
	out  pipeline.Outcome
	err  error
	docs []acquire.Document
}

func (s *stubSubmitter) Submit(_ context.Context, doc acquire.Document) (pipeline.Outcome, error) {
	s.docs = append(s.docs, doc)
	return s.out, s.err
}

type stubRenderer struct {
	path string
	err  error
}

func (s *stubRenderer) Render(context.Context, schema.SanitizedRecord, string) (string, error) {
	return s.path, s.err
}

func testServer(t *testing.T, queue Submitter, renderer *stubRenderer) *Server {
	t.Helper()
	cfg := &common.Config{
		Server: common.ServerConfig{Addr: ":0", MaxUploadMB: 5},
		Paths: common.PathsConfig{
			UploadDir:     t.TempDir(),
			ScreenshotDir: t.TempDir(),
		},
	}
	if renderer == nil {
		return New(cfg, queue, nil, nil, nil, nil)
	}
	return New(cfg, queue, renderer, nil, nil, nil)
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/extract", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHandleExtractSuccess(t *testing.T) {
	queue := &stubSubmitter{out: pipeline.Outcome{
		RunID:  "run-1",
		OK:     true,
		Record: schema.SanitizedRecord{"patient_name": "John Doe"},
		Method: "pdf-text",
		Pages:  1,
	}}
	renderer := &stubRenderer{path: "/artifacts/abc_screenshot.png"}
	s := testServer(t, queue, renderer)

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, uploadRequest(t, "intake.pdf", []byte("%PDF-1.4 fake")))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp extractResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, "John Doe", resp.Data["patient_name"])
	assert.Equal(t, "/screenshots/abc_screenshot.png", resp.ScreenshotURL)

	require.Len(t, queue.docs, 1)
	assert.Equal(t, constants.PDF, queue.docs[0].Media)
	assert.Equal(t, "intake.pdf", queue.docs[0].Name)

	// the raw upload is kept on disk under a generated name
	entries, err := os.ReadDir(s.cfg.Paths.UploadDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), ".pdf")
}

func TestHandleExtractPipelineFailure(t *testing.T) {
	queue := &stubSubmitter{out: pipeline.Outcome{
		RunID:  "run-2",
		Stage:  constants.StageValidation,
		Reason: "validation: patient_name: required field is missing",
		Violations: []common.Violation{
			{Field: "patient_name", Message: "required field is missing"},
		},
	}}
	s := testServer(t, queue, nil)

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, uploadRequest(t, "scan.png", []byte("fake png")))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var resp extractResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, constants.StageValidation, resp.Stage)
	require.Len(t, resp.Violations, 1)
	assert.Equal(t, "patient_name", resp.Violations[0].Field)
	assert.Empty(t, resp.ScreenshotURL)
}

func TestHandleExtractRenderFailureIsNotFatal(t *testing.T) {
	queue := &stubSubmitter{out: pipeline.Outcome{
		RunID:  "run-3",
		OK:     true,
		Record: schema.SanitizedRecord{"patient_name": "John Doe"},
	}}
	renderer := &stubRenderer{err: assert.AnError}
	s := testServer(t, queue, renderer)

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, uploadRequest(t, "intake.pdf", []byte("x")))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp extractResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.ScreenshotURL)
}

func TestHandleExtractUnsupportedType(t *testing.T) {
	queue := &stubSubmitter{}
	s := testServer(t, queue, nil)

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, uploadRequest(t, "notes.docx", []byte("x")))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, queue.docs)
}

func TestHandleExtractMissingFile(t *testing.T) {
	s := testServer(t, &stubSubmitter{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/extract", nil)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xxx")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleExtractQueueClosed(t *testing.T) {
	s := testServer(t, &stubSubmitter{err: async.ErrQueueClosed}, nil)

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, uploadRequest(t, "intake.pdf", []byte("x")))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestHistoryEndpointsDisabledWithoutStore(t *testing.T) {
	s := testServer(t, &stubSubmitter{}, nil)

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/extractions", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/extractions/export", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHealthAndRoot(t *testing.T) {
	s := testServer(t, &stubSubmitter{}, nil)

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Healthcare Form Data Extraction API")
}
