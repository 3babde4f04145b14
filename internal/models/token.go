package models

import (
	"time"

	"github.com/google/uuid"
)

type TokenPurpose string

const (
	TokenPurposeConfirmation  TokenPurpose = "confirmation"
	TokenPurposePasswordReset TokenPurpose = "password_reset"
)

// Token is a single-use emailed code bound to one account and one purpose.
// A confirmation token cannot be redeemed as a password-reset token or
// vice versa.
type Token struct {
	ID        uuid.UUID
	Token     string
	UserID    uuid.UUID
	Purpose   TokenPurpose
	CreatedAt time.Time
}
