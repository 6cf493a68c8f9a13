package tasks

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/user/taskman-go/apperror"
	"github.com/user/taskman-go/auth"
)

// maxUploadMemory caps how much of a multipart body is held in memory while
// parsing; larger parts spill to temp files.
const maxUploadMemory = 10 << 20

// TaskHandler handles HTTP requests for tasks.
type TaskHandler struct {
	service *TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service *TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// RegisterRoutes registers the task API routes with a chi.Router. The group is
// mounted under /tasks in main.
func (h *TaskHandler) RegisterRoutes(router chi.Router) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Get("/{id}", h.show)
	router.Put("/{id}", h.update)
	router.Patch("/{id}", h.update)
	router.Delete("/{id}", h.destroy)
}

// list godoc
// @Summary List tasks
// @Description Returns every task; no filtering or pagination.
// @Tags Tasks
// @Produce json
// @Success 200 {array} tasks.Task
// @Router /tasks [get]
func (h *TaskHandler) list(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context())
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// create godoc
// @Summary Create a task
// @Description Creates a task from a multipart form. Optional file (pdf/doc/docx) and image (jpg/jpeg/png/gif) attachments, 2048 KB each.
// @Tags Tasks
// @Accept mpfd
// @Produce json
// @Param title formData string true "Task title"
// @Param description formData string false "Task description"
// @Param status formData string false "Task status"
// @Param file formData file false "File attachment"
// @Param image formData file false "Image attachment"
// @Success 201 {object} tasks.Task
// @Failure 422 {object} apperror.ErrorResponse "Validation failed"
// @Router /tasks [post]
func (h *TaskHandler) create(w http.ResponseWriter, r *http.Request) {
	in, cleanup, err := taskInputFromRequest(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	defer cleanup()

	task, err := h.service.Create(r.Context(), in)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// show godoc
// @Summary Get a task
// @Tags Tasks
// @Produce json
// @Param id path int true "Task id"
// @Success 200 {object} tasks.Task
// @Failure 404 {object} apperror.ErrorResponse "Task Not found"
// @Router /tasks/{id} [get]
func (h *TaskHandler) show(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}

	task, err := h.service.Get(r.Context(), id)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// update godoc
// @Summary Update a task
// @Description Partial update: only supplied fields change, title stays required. A new upload overwrites the stored path; omitting an upload leaves it untouched.
// @Tags Tasks
// @Accept mpfd
// @Produce json
// @Param id path int true "Task id"
// @Param title formData string true "Task title"
// @Param description formData string false "Task description"
// @Param status formData string false "Task status (pending or completed)"
// @Param file formData file false "File attachment"
// @Param image formData file false "Image attachment"
// @Success 200 {object} tasks.Task
// @Failure 404 {object} apperror.ErrorResponse "Task Not found"
// @Failure 422 {object} apperror.ErrorResponse "Validation failed"
// @Router /tasks/{id} [put]
func (h *TaskHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}

	in, cleanup, err := taskInputFromRequest(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	defer cleanup()

	task, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// destroy godoc
// @Summary Delete a task
// @Tags Tasks
// @Produce json
// @Param id path int true "Task id"
// @Success 200 {object} tasks.MessageResponse "Task Deleted"
// @Failure 404 {object} apperror.ErrorResponse "Task Not found"
// @Router /tasks/{id} [delete]
func (h *TaskHandler) destroy(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Task Deleted"})
}

// taskID parses the id route parameter. A non-numeric id can never match a
// task, so it reports NotFound rather than a malformed request.
func taskID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, apperror.NewNotFoundError(taskNotFoundMessage, nil)
	}
	return id, nil
}

// taskInputFromRequest builds a TaskInput from a multipart or urlencoded form.
// The returned cleanup closes any opened attachment streams and must be called
// after the service is done with the input.
func taskInputFromRequest(r *http.Request) (TaskInput, func(), error) {
	cleanup := func() {}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return TaskInput{}, cleanup, apperror.NewBadRequestError("invalid form data: "+err.Error(), nil)
		}
		if err := r.ParseForm(); err != nil {
			return TaskInput{}, cleanup, apperror.NewBadRequestError("invalid form data: "+err.Error(), nil)
		}
	}

	var in TaskInput
	in.Title = formValue(r, "title")
	in.Description = formValue(r, "description")
	in.Status = formValue(r, "status")

	if r.MultipartForm == nil {
		return in, cleanup, nil
	}

	var closers []interface{ Close() error }
	cleanup = func() {
		for _, c := range closers {
			c.Close()
		}
	}

	for _, field := range []struct {
		name   string
		target **Upload
	}{
		{"file", &in.File},
		{"image", &in.Image},
	} {
		headers := r.MultipartForm.File[field.name]
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return TaskInput{}, func() {}, apperror.NewBadRequestError("failed to read uploaded "+field.name, err)
		}
		closers = append(closers, f)
		*field.target = &Upload{Filename: fh.Filename, Size: fh.Size, Content: f}
	}

	return in, cleanup, nil
}

// formValue returns a pointer to the first value of a form field, or nil when
// the field was not supplied at all.
func formValue(r *http.Request, name string) *string {
	values, ok := r.Form[name]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// writeJSON serializes data to JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, `{"message":"failed to encode response"}`, http.StatusInternalServerError)
		}
	}
}
