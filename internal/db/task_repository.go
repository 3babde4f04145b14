package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chepyr/project-tracker/internal/models"
	"github.com/google/uuid"
)

// defines methods for task db operations
type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `INSERT INTO tasks (id, project_id, name, description, status, completed_by, created_at, updated_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(
		ctx, query, task.ID, task.ProjectID, task.Name, task.Description,
		string(task.Status), nullableID(task.CompletedBy), task.CreatedAt, task.UpdatedAt)
	return err
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := `SELECT id, project_id, name, description, status, completed_by, created_at, updated_at
	 FROM tasks WHERE id = $1`
	return scanTask(r.db.QueryRowContext(ctx, query, id))
}

// ListByProjectID returns the project's tasks in creation order.
func (r *TaskRepository) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]*models.Task, error) {
	query := `SELECT id, project_id, name, description, status, completed_by, created_at, updated_at
	 FROM tasks WHERE project_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{}
		var completedBy uuid.NullUUID
		if err := rows.Scan(
			&task.ID, &task.ProjectID, &task.Name, &task.Description,
			&task.Status, &completedBy, &task.CreatedAt, &task.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if completedBy.Valid {
			id := completedBy.UUID
			task.CompletedBy = &id
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `UPDATE tasks SET name = $1, description = $2, status = $3, completed_by = $4, updated_at = $5
	 WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx, query, task.Name, task.Description, string(task.Status),
		nullableID(task.CompletedBy), task.UpdatedAt, task.ID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the task together with its notes in one transaction.
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE task_id = $1`, id); err != nil {
		return fmt.Errorf("deleting notes of task %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return tx.Commit()
}

func scanTask(row *sql.Row) (*models.Task, error) {
	task := &models.Task{}
	var completedBy uuid.NullUUID
	err := row.Scan(
		&task.ID, &task.ProjectID, &task.Name, &task.Description,
		&task.Status, &completedBy, &task.CreatedAt, &task.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if completedBy.Valid {
		id := completedBy.UUID
		task.CompletedBy = &id
	}
	return task, nil
}

func nullableID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
