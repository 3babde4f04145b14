package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/chepyr/project-tracker/internal/models"
	"github.com/google/uuid"
)

// defines methods for one-time token db operations
type TokenRepositoryInterface interface {
	Create(ctx context.Context, token *models.Token) error
	GetByToken(ctx context.Context, token string, purpose models.TokenPurpose) (*models.Token, error)
	// Consume atomically deletes the matching row and returns it, so two
	// concurrent redemptions of the same code cannot both succeed.
	Consume(ctx context.Context, token string, purpose models.TokenPurpose) (*models.Token, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteForUser(ctx context.Context, userID uuid.UUID, purpose models.TokenPurpose) error
}

type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, token *models.Token) error {
	query := `INSERT INTO tokens (id, token, user_id, purpose, created_at)
	 VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(
		ctx, query, token.ID, token.Token, token.UserID, token.Purpose, token.CreatedAt)
	return err
}

func (r *TokenRepository) GetByToken(
	ctx context.Context, token string, purpose models.TokenPurpose,
) (*models.Token, error) {
	query := `SELECT id, token, user_id, purpose, created_at
	 FROM tokens WHERE token = $1 AND purpose = $2`
	return scanToken(r.db.QueryRowContext(ctx, query, token, string(purpose)))
}

func (r *TokenRepository) Consume(
	ctx context.Context, token string, purpose models.TokenPurpose,
) (*models.Token, error) {
	// DELETE ... RETURNING makes redemption at-most-once: the loser of a
	// concurrent race sees no row.
	query := `DELETE FROM tokens WHERE token = $1 AND purpose = $2
	 RETURNING id, token, user_id, purpose, created_at`
	return scanToken(r.db.QueryRowContext(ctx, query, token, string(purpose)))
}

func (r *TokenRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE id = $1`, id)
	return err
}

func (r *TokenRepository) DeleteForUser(
	ctx context.Context, userID uuid.UUID, purpose models.TokenPurpose,
) error {
	_, err := r.db.ExecContext(
		ctx, `DELETE FROM tokens WHERE user_id = $1 AND purpose = $2`,
		userID, string(purpose))
	return err
}

func scanToken(row *sql.Row) (*models.Token, error) {
	token := &models.Token{}
	err := row.Scan(&token.ID, &token.Token, &token.UserID, &token.Purpose, &token.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return token, nil
}
