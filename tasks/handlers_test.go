package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() (http.Handler, *fakeTaskRepo, *fakeBlobStore) {
	repo := newFakeTaskRepo()
	blobs := &fakeBlobStore{}
	handler := NewTaskHandler(NewTaskService(repo, blobs))

	r := chi.NewRouter()
	r.Route("/tasks", handler.RegisterRoutes)
	return r, repo, blobs
}

type filePart struct {
	field    string
	filename string
	content  string
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...filePart) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, mw.WriteField(name, value))
	}
	for _, fp := range files {
		part, err := mw.CreateFormFile(fp.field, fp.filename)
		require.NoError(t, err)
		_, err = io.WriteString(part, fp.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeTask(t *testing.T, rec *httptest.ResponseRecorder) Task {
	t.Helper()
	var task Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	return task
}

func TestCreateTaskMultipart(t *testing.T) {
	router, _, blobs := newTestRouter()

	req := multipartRequest(t, http.MethodPost, "/tasks",
		map[string]string{"title": "Upload things", "status": "completed"},
		filePart{field: "file", filename: "report.pdf", content: "%PDF-1.4"},
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	task := decodeTask(t, rec)
	assert.NotZero(t, task.ID)
	assert.Equal(t, "Upload things", task.Title)
	assert.Equal(t, "completed", task.Status)
	require.NotNil(t, task.FilePath)
	assert.True(t, strings.HasPrefix(*task.FilePath, "files/"))
	assert.Nil(t, task.ImagePath)

	require.Len(t, blobs.puts, 1)
	assert.Equal(t, "%PDF-1.4", blobs.puts[0].content)
}

func TestCreateTaskURLEncodedForm(t *testing.T) {
	router, _, _ := newTestRouter()

	form := url.Values{"title": {"Plain form"}}
	req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	task := decodeTask(t, rec)
	assert.Equal(t, "Plain form", task.Title)
	assert.Equal(t, "pending", task.Status)
}

func TestCreateTaskValidationResponse(t *testing.T) {
	router, repo, blobs := newTestRouter()

	req := multipartRequest(t, http.MethodPost, "/tasks",
		map[string]string{},
		filePart{field: "file", filename: "malware.exe", content: "MZ"},
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Errors, "title")
	assert.Contains(t, body.Errors, "file")

	assert.Empty(t, repo.tasks)
	assert.Empty(t, blobs.puts)
}

func TestShowTask(t *testing.T) {
	router, repo, _ := newTestRouter()
	seeded := &Task{Title: "Seeded"}
	require.NoError(t, repo.Create(context.Background(), seeded, false))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/tasks/%d", seeded.ID), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	task := decodeTask(t, rec)
	assert.Equal(t, seeded.ID, task.ID)
	assert.Equal(t, "Seeded", task.Title)
}

func TestShowUnknownTask(t *testing.T) {
	router, _, _ := newTestRouter()

	for _, target := range []string{"/tasks/999", "/tasks/not-a-number"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

		require.Equal(t, http.StatusNotFound, rec.Code, target)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Task Not found", body["message"])
	}
}

func TestUpdateTaskViaPut(t *testing.T) {
	router, repo, _ := newTestRouter()
	seeded := &Task{Title: "Before"}
	require.NoError(t, repo.Create(context.Background(), seeded, false))

	form := url.Values{"title": {"After"}, "status": {"completed"}}
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/tasks/%d", seeded.ID), strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	task := decodeTask(t, rec)
	assert.Equal(t, "After", task.Title)
	assert.Equal(t, "completed", task.Status)
}

func TestUpdateTaskViaPatchKeepsAttachment(t *testing.T) {
	router, repo, _ := newTestRouter()
	path := "files/existing.pdf"
	seeded := &Task{Title: "Before", FilePath: &path}
	require.NoError(t, repo.Create(context.Background(), seeded, false))

	req := multipartRequest(t, http.MethodPatch, fmt.Sprintf("/tasks/%d", seeded.ID),
		map[string]string{"title": "Before", "description": "just words"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	task := decodeTask(t, rec)
	require.NotNil(t, task.FilePath)
	assert.Equal(t, path, *task.FilePath)
}

func TestDeleteTask(t *testing.T) {
	router, repo, _ := newTestRouter()
	seeded := &Task{Title: "Doomed"}
	require.NoError(t, repo.Create(context.Background(), seeded, false))
	target := fmt.Sprintf("/tasks/%d", seeded.ID)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, target, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Task Deleted", body["message"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, target, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "repeated delete stays a 404")
}

func TestListTasksAlwaysReturnsArray(t *testing.T) {
	router, repo, _ := newTestRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()), "empty list serializes as an empty array")

	require.NoError(t, repo.Create(context.Background(), &Task{Title: "one"}, false))
	require.NoError(t, repo.Create(context.Background(), &Task{Title: "two"}, false))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var all []Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 2)
}
