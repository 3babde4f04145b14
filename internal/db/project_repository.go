package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chepyr/project-tracker/internal/models"
	"github.com/google/uuid"
)

// defines methods for project db operations
type ProjectRepositoryInterface interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddMember(ctx context.Context, projectID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error
	ListTeam(ctx context.Context, projectID uuid.UUID) ([]models.Profile, error)
}

type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := `INSERT INTO projects (id, project_name, client_name, description, manager_id, created_at, updated_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(
		ctx, query, project.ID, project.ProjectName, project.ClientName,
		project.Description, project.ManagerID, project.CreatedAt, project.UpdatedAt)
	return err
}

// GetByID loads the project row together with its team member set.
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	query := `SELECT id, project_name, client_name, description, manager_id, created_at, updated_at
	 FROM projects WHERE id = $1`
	project := &models.Project{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&project.ID, &project.ProjectName, &project.ClientName,
		&project.Description, &project.ManagerID, &project.CreatedAt, &project.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	team, err := r.teamIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	project.Team = team
	return project, nil
}

func (r *ProjectRepository) teamIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM project_members WHERE project_id = $1 ORDER BY added_at`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var team []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		team = append(team, id)
	}
	return team, rows.Err()
}

// ListForUser returns the projects where userID is manager or team member,
// newest first.
func (r *ProjectRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	query := `SELECT p.id, p.project_name, p.client_name, p.description, p.manager_id, p.created_at, p.updated_at
	 FROM projects p
	 WHERE p.manager_id = $1
	    OR EXISTS (SELECT 1 FROM project_members m WHERE m.project_id = p.id AND m.user_id = $1)
	 ORDER BY p.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project := &models.Project{}
		if err := rows.Scan(
			&project.ID, &project.ProjectName, &project.ClientName,
			&project.Description, &project.ManagerID, &project.CreatedAt, &project.UpdatedAt,
		); err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	query := `UPDATE projects SET project_name = $1, client_name = $2, description = $3, updated_at = $4
	 WHERE id = $5`
	result, err := r.db.ExecContext(
		ctx, query, project.ProjectName, project.ClientName,
		project.Description, project.UpdatedAt, project.ID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the project with its tasks, their notes, and the team
// membership rows in one transaction.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM notes WHERE task_id IN (SELECT id FROM tasks WHERE project_id = $1)`,
		`DELETE FROM tasks WHERE project_id = $1`,
		`DELETE FROM project_members WHERE project_id = $1`,
		`DELETE FROM projects WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("deleting project %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (r *ProjectRepository) AddMember(ctx context.Context, projectID, userID uuid.UUID) error {
	query := `INSERT INTO project_members (project_id, user_id, added_at)
	 VALUES ($1, $2, CURRENT_TIMESTAMP)`
	_, err := r.db.ExecContext(ctx, query, projectID, userID)
	return err
}

func (r *ProjectRepository) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	query := `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, projectID, userID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) ListTeam(ctx context.Context, projectID uuid.UUID) ([]models.Profile, error) {
	query := `SELECT u.id, u.name, u.email
	 FROM project_members m JOIN users u ON u.id = m.user_id
	 WHERE m.project_id = $1 ORDER BY m.added_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	team := []models.Profile{}
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Email); err != nil {
			return nil, err
		}
		team = append(team, p)
	}
	return team, rows.Err()
}
