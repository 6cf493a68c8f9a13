package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/taskman-go/apperror"
)

// taskNotFoundMessage is the message returned for every unknown task id.
const taskNotFoundMessage = "Task Not found"

// TaskRepository persists task records.
type TaskRepository interface {
	List(ctx context.Context) ([]Task, error)
	// Create inserts the task. When setStatus is false the status column is
	// omitted so persistence assigns its default.
	Create(ctx context.Context, t *Task, setStatus bool) error
	Find(ctx context.Context, id int64) (*Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id int64) error
}

// PGTaskRepository is the pgx-backed TaskRepository.
type PGTaskRepository struct {
	db *pgxpool.Pool
}

// NewPGTaskRepository creates a PGTaskRepository.
func NewPGTaskRepository(db *pgxpool.Pool) *PGTaskRepository {
	return &PGTaskRepository{db: db}
}

// List returns every task in persistence order.
func (r *PGTaskRepository) List(ctx context.Context) ([]Task, error) {
	query := `SELECT id, title, description, status, file_path, image_path, created_at, updated_at FROM tasks`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list tasks", err)
	}
	defer rows.Close()

	result := []Task{}
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.FilePath, &t.ImagePath, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan task", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to read tasks", err)
	}
	return result, nil
}

// Create inserts a new task. The column list is built dynamically so an absent
// status falls back to the schema default instead of overwriting it.
func (r *PGTaskRepository) Create(ctx context.Context, t *Task, setStatus bool) error {
	cols := []string{"title", "description", "file_path", "image_path"}
	args := []interface{}{t.Title, t.Description, t.FilePath, t.ImagePath}
	if setStatus {
		cols = append(cols, "status")
		args = append(args, t.Status)
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(
		`INSERT INTO tasks (%s) VALUES (%s) RETURNING id, status, created_at, updated_at`,
		strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	)
	err := r.db.QueryRow(ctx, query, args...).Scan(&t.ID, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return apperror.NewDatabaseError("failed to create task", err)
	}
	return nil
}

// Find returns the task with the given id.
func (r *PGTaskRepository) Find(ctx context.Context, id int64) (*Task, error) {
	query := `SELECT id, title, description, status, file_path, image_path, created_at, updated_at FROM tasks WHERE id = $1`
	var t Task
	err := r.db.QueryRow(ctx, query, id).
		Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.FilePath, &t.ImagePath, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(taskNotFoundMessage, nil)
		}
		return nil, apperror.NewDatabaseError("failed to get task", err)
	}
	return &t, nil
}

// Update writes the task's mutable columns and refreshes updated_at.
func (r *PGTaskRepository) Update(ctx context.Context, t *Task) error {
	query := `UPDATE tasks
	          SET title = $1, description = $2, status = $3, file_path = $4, image_path = $5, updated_at = now()
	          WHERE id = $6
	          RETURNING updated_at`
	err := r.db.QueryRow(ctx, query, t.Title, t.Description, t.Status, t.FilePath, t.ImagePath, t.ID).
		Scan(&t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NewNotFoundError(taskNotFoundMessage, nil)
		}
		return apperror.NewDatabaseError("failed to update task", err)
	}
	return nil
}

// Delete removes the task permanently. Deleting an unknown id reports
// NotFound, which keeps repeated deletes idempotent at the API level.
func (r *PGTaskRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return apperror.NewDatabaseError("failed to delete task", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFoundError(taskNotFoundMessage, nil)
	}
	return nil
}
