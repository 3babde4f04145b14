package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/chepyr/project-tracker/internal/models"
	"github.com/google/uuid"
)

// defines methods for note db operations
type NoteRepositoryInterface interface {
	Create(ctx context.Context, note *models.Note) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Note, error)
	ListByTaskID(ctx context.Context, taskID uuid.UUID) ([]*models.Note, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	query := `INSERT INTO notes (id, task_id, content, created_by, created_at)
	 VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(
		ctx, query, note.ID, note.TaskID, note.Content, note.CreatedBy, note.CreatedAt)
	return err
}

func (r *NoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	query := `SELECT id, task_id, content, created_by, created_at FROM notes WHERE id = $1`
	note := &models.Note{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&note.ID, &note.TaskID, &note.Content, &note.CreatedBy, &note.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return note, nil
}

// ListByTaskID returns the task's notes in creation order.
func (r *NoteRepository) ListByTaskID(ctx context.Context, taskID uuid.UUID) ([]*models.Note, error) {
	query := `SELECT id, task_id, content, created_by, created_at
	 FROM notes WHERE task_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*models.Note
	for rows.Next() {
		note := &models.Note{}
		if err := rows.Scan(
			&note.ID, &note.TaskID, &note.Content, &note.CreatedBy, &note.CreatedAt,
		); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func (r *NoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
