package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chepyr/project-tracker/internal/config"
	"github.com/chepyr/project-tracker/internal/db"
	"github.com/chepyr/project-tracker/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrTokenNotFound is returned when no active token matches, including
	// tokens already redeemed by an earlier (or concurrent) request.
	ErrTokenNotFound = errors.New("token not found")
	// ErrTokenExpired is returned for a matching token past its TTL; the
	// row is removed as a side effect.
	ErrTokenExpired = errors.New("token expired")
)

// TokenService governs the lifecycle of one-time emailed codes: issue,
// non-destructive validation, and at-most-once redemption.
type TokenService struct {
	repo       db.TokenRepositoryInterface
	policy     config.TokenPolicy
	confirmTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

func NewTokenService(
	repo db.TokenRepositoryInterface,
	policy config.TokenPolicy,
	confirmTTL, resetTTL time.Duration,
) *TokenService {
	return &TokenService{
		repo:       repo,
		policy:     policy,
		confirmTTL: confirmTTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// Issue mints a fresh code bound to userID and purpose. Under the
// single-active policy, prior codes of the same purpose are removed first;
// otherwise they stay redeemable until their own expiry.
func (s *TokenService) Issue(
	ctx context.Context, userID uuid.UUID, purpose models.TokenPurpose,
) (*models.Token, error) {
	if s.policy == config.TokenPolicySingleActive {
		if err := s.repo.DeleteForUser(ctx, userID, purpose); err != nil {
			return nil, fmt.Errorf("invalidating prior tokens: %w", err)
		}
	}

	code, err := GenerateOpaqueToken()
	if err != nil {
		return nil, err
	}
	token := &models.Token{
		ID:        uuid.New(),
		Token:     code,
		UserID:    userID,
		Purpose:   purpose,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("saving token: %w", err)
	}
	return token, nil
}

// Validate checks that code exists for purpose and is inside its TTL
// without consuming it. Used by the password-reset flow so the client can
// verify a code before submitting the new password.
func (s *TokenService) Validate(
	ctx context.Context, code string, purpose models.TokenPurpose,
) error {
	token, err := s.repo.GetByToken(ctx, code, purpose)
	if errors.Is(err, db.ErrNotFound) {
		return ErrTokenNotFound
	}
	if err != nil {
		return err
	}
	if s.expired(token) {
		if err := s.repo.DeleteByID(ctx, token.ID); err != nil {
			return err
		}
		return ErrTokenExpired
	}
	return nil
}

// Redeem consumes code and returns the bound account. Consumption is
// at-most-once: under two concurrent redemptions of the same code, exactly
// one caller gets the account and the other gets ErrTokenNotFound.
func (s *TokenService) Redeem(
	ctx context.Context, code string, purpose models.TokenPurpose,
) (uuid.UUID, error) {
	token, err := s.repo.Consume(ctx, code, purpose)
	if errors.Is(err, db.ErrNotFound) {
		return uuid.Nil, ErrTokenNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	if s.expired(token) {
		// already deleted by Consume
		return uuid.Nil, ErrTokenExpired
	}
	return token.UserID, nil
}

func (s *TokenService) expired(token *models.Token) bool {
	ttl := s.confirmTTL
	if token.Purpose == models.TokenPurposePasswordReset {
		ttl = s.resetTTL
	}
	return s.now().After(token.CreatedAt.Add(ttl))
}
