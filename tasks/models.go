// Package tasks implements CRUD management of task records and their optional
// file and image attachments.
package tasks

import (
	"io"
	"time"
)

// Task represents a task record. Description and the attachment paths are
// nullable; Status always has a value because persistence assigns a default.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      string    `json:"status"`
	FilePath    *string   `json:"file_path"`
	ImagePath   *string   `json:"image_path"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Upload is an attachment received with a create or update request. Content is
// only read after the upload has passed validation.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// TaskInput carries the fields supplied with a create or update request.
// A nil pointer means the field was absent, which matters for partial updates.
type TaskInput struct {
	Title       *string
	Description *string
	Status      *string
	File        *Upload
	Image       *Upload
}

// MessageResponse is a plain acknowledgement body.
type MessageResponse struct {
	Message string `json:"message" example:"Task Deleted"`
}
