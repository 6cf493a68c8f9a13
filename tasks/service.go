package tasks

import (
	"context"

	"github.com/user/taskman-go/storage"
)

// Blob store prefixes for the two attachment kinds.
const (
	filePrefix  = "files"
	imagePrefix = "images"
)

// TaskService orchestrates task CRUD over the repository and the blob store.
// Blob writes happen before the row write and are not rolled back if the row
// write fails; the two stores are not kept transactionally consistent.
type TaskService struct {
	repo  TaskRepository
	blobs storage.Store
}

// NewTaskService creates a new TaskService.
func NewTaskService(repo TaskRepository, blobs storage.Store) *TaskService {
	return &TaskService{repo: repo, blobs: blobs}
}

// List returns every task, unfiltered and unpaginated.
func (s *TaskService) List(ctx context.Context) ([]Task, error) {
	return s.repo.List(ctx)
}

// Create validates the input, stores any attachments and persists the task.
// Validation failures happen before any blob is written, so a rejected request
// leaves both stores untouched. Status is not constrained here; an absent
// status lets persistence assign its default.
func (s *TaskService) Create(ctx context.Context, in TaskInput) (*Task, error) {
	if err := validateInput(in, false); err != nil {
		return nil, err
	}

	task := &Task{
		Title:       *in.Title,
		Description: in.Description,
	}
	if in.Status != nil {
		task.Status = *in.Status
	}

	if err := s.storeUploads(ctx, in, task); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, task, in.Status != nil); err != nil {
		return nil, err
	}
	return task, nil
}

// Get returns a single task by id.
func (s *TaskService) Get(ctx context.Context, id int64) (*Task, error) {
	return s.repo.Find(ctx, id)
}

// Update applies a partial update: only supplied text fields change, title is
// re-required on every update, and a new upload overwrites the matching path
// while an omitted upload leaves the existing path untouched. There is no way
// to clear an attachment.
func (s *TaskService) Update(ctx context.Context, id int64, in TaskInput) (*Task, error) {
	task, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := validateInput(in, true); err != nil {
		return nil, err
	}

	task.Title = *in.Title
	if in.Description != nil {
		task.Description = in.Description
	}
	if in.Status != nil {
		task.Status = *in.Status
	}

	if err := s.storeUploads(ctx, in, task); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task permanently. Attached blobs are left behind in the
// store; only the path references go away with the row.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// storeUploads writes any supplied attachments to the blob store and records
// the returned paths on the task.
func (s *TaskService) storeUploads(ctx context.Context, in TaskInput, task *Task) error {
	if in.File != nil {
		path, err := s.blobs.Put(ctx, filePrefix, in.File.Filename, in.File.Content)
		if err != nil {
			return err
		}
		task.FilePath = &path
	}
	if in.Image != nil {
		path, err := s.blobs.Put(ctx, imagePrefix, in.Image.Filename, in.Image.Content)
		if err != nil {
			return err
		}
		task.ImagePath = &path
	}
	return nil
}
