package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/chepyr/project-tracker/internal/auth"
	"github.com/chepyr/project-tracker/internal/db"
	"github.com/chepyr/project-tracker/internal/mail"
	"github.com/chepyr/project-tracker/internal/models"
	"github.com/google/uuid"
)

type credentialsInput struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// CreateAccount registers a new unconfirmed account and mails a
// confirmation code. POST /api/auth/create-account
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	if h.throttled(w, r) {
		return
	}

	var input credentialsInput
	if !decodeBody(w, r, &input) {
		return
	}
	var violations []string
	if input.Name == "" {
		violations = append(violations, "name is required")
	}
	if !isValidEmail(input.Email) {
		violations = append(violations, "email is not valid")
	}
	violations = append(violations, validatePassword(input.Password, input.PasswordConfirmation)...)
	if len(violations) > 0 {
		sendFieldErrors(w, violations)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	// prevent duplicated email
	if _, err := h.UserRepo.GetByEmail(ctx, input.Email); err == nil {
		sendError(w, "Email is already registered", http.StatusConflict)
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		log.Printf("Error checking email %s: %v", input.Email, err)
		sendError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		sendError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Confirmed:    false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.UserRepo.Create(ctx, user); err != nil {
		log.Printf("Error saving account: %v", err)
		sendError(w, "Cannot save account", http.StatusInternalServerError)
		return
	}

	if err := h.sendCode(ctx, user, models.TokenPurposeConfirmation); err != nil {
		log.Printf("Error issuing confirmation token for %s: %v", user.Email, err)
		sendError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	log.Printf("Account registered: %s", user.Email)
	sendJSON(w, http.StatusCreated, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	})
}

// ConfirmAccount redeems a confirmation code and marks the account
// confirmed. POST /api/auth/confirm-account
func (h *Handler) ConfirmAccount(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token string `json:"token"`
	}
	if !decodeBody(w, r, &input) {
		return
	}
	if input.Token == "" {
		sendFieldErrors(w, []string{"token is required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, err := h.Tokens.Redeem(ctx, input.Token, models.TokenPurposeConfirmation)
	if err != nil {
		h.sendTokenError(w, err)
		return
	}

	user, err := h.UserRepo.GetByID(ctx, userID)
	if err != nil {
		log.Printf("Error loading account %s for confirmation: %v", userID, err)
		sendError(w, "Internal error", http.StatusInternalServerError)
		return
	}
	user.Confirmed = true
	user.UpdatedAt = time.Now().UTC()
	if err := h.UserRepo.Update(ctx, user); err != nil {
		log.Printf("Error confirming account %s: %v", userID, err)
		sendError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	log.Printf("Account confirmed: %s", user.Email)
	sendJSON(w, http.StatusOK, map[string]string{"message": "Account confirmed"})
}

// Login verifies credentials and returns a signed session token.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.throttled(w, r) {
		return
	}

	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &input) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := h.UserRepo.GetByEmail(ctx, input.Email)
	if errors.Is(err, db.ErrNotFound) {
		sendError(w, "Account not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error retrieving account by email %s: %v", input.Email, err)
		sendError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	if !user.Confirmed {
		// resend a fresh confirmation code before rejecting
		if err := h.sendCode(ctx, user, models.TokenPurposeConfirmation); err != nil {
			log.Printf("Error reissuing confirmation token for %s: %v", user.Email, err)
		}
		sendError(w, "Account not confirmed, a new confirmation code has been emailed",
			http.StatusUnauthorized)
		return
	}

	if !auth.CheckPassword(input.Password, user.PasswordHash) {
		log.Printf("Invalid password for email: %s", input.Email)
		sendError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	token, err := h.Sessions.Issue(user.ID)
	if err != nil {
		log.Printf("Error generating session token: %v", err)
		sendError(w, "Cannot create token", http.StatusInternalServerError)
		return
	}

	log.Printf("User logged in: %s", input.Email)
	sendJSON(w, http.StatusOK, map[string]any{
		"user_id": user.ID,
		"token":   token,
	})
}

// RequestCode re-sends a confirmation code to an unconfirmed account.
// POST /api/auth/request-code
func (h *Handler) RequestCode(w http.ResponseWriter, r *http.Request) {
	if h.throttled(w, r) {
		return
	}

	var input struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &input) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := h.UserRepo.GetByEmail(ctx, input.Email)
	if errors.Is(err, db.ErrNotFound) {
		sendError(w, "Account not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error retrieving account by email %s: %v", input.Email, err)
		sendError(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if user.Confirmed {
		sendError(w, "Account is already confirmed", http.StatusForbidden)
		return
	}

	if err := h.sendCode(ctx, user, models.TokenPurposeConfirmation); err != nil {
		log.Printf("Error issuing confirmation token for %s: %v", user.Email, err)
		sendError(w, "Internal error", http.StatusInternalServerError)
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{"message": "A new code has been emailed"})
}

// ForgotPassword issues a password-reset code.
// POST /api/auth/forgot-password
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if h.throttled(w, r) {
		return
	}

	var input struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &input) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := h.UserRepo.GetByEmail(ctx, input.Email)
	if errors.Is(err, db.ErrNotFound) {
		sendError(w, "Account not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error retrieving account by email %s: %v", input.Email, err)
		sendError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	if err := h.sendCode(ctx, user, models.TokenPurposePasswordReset); err != nil {
		log.Printf("Error issuing reset token for %s: %v", user.Email, err)
		sendError(w, "Internal error", http.StatusInternalServerError)
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{
		"message": "Password reset instructions have been emailed",
	})
}

// ValidateToken checks a reset code without consuming it, so the client
// can verify it before asking for the new password.
// POST /api/auth/validate-token
func (h *Handler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token string `json:"token"`
	}
	if !decodeBody(w, r, &input) {
		return
	}
	if input.Token == "" {
		sendFieldErrors(w, []string{"token is required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.Tokens.Validate(ctx, input.Token, models.TokenPurposePasswordReset); err != nil {
		h.sendTokenError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{"message": "Valid code, set your new password"})
}

// UpdatePassword consumes a reset code and stores the new password.
// POST /api/auth/update-password/{token}
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("token")

	var input struct {
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
	}
	if !decodeBody(w, r, &input) {
		return
	}
	if violations := validatePassword(input.Password, input.PasswordConfirmation); len(violations) > 0 {
		sendFieldErrors(w, violations)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, err := h.Tokens.Redeem(ctx, code, models.TokenPurposePasswordReset)
	if err != nil {
		h.sendTokenError(w, err)
		return
	}

	user, err := h.UserRepo.GetByID(ctx, userID)
	if err != nil {
		log.Printf("Error loading account %s for password reset: %v", userID, err)
		sendError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		sendError(w, "Internal error", http.StatusInternalServerError)
		return
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()
	if err := h.UserRepo.Update(ctx, user); err != nil {
		log.Printf("Error updating password for %s: %v", userID, err)
		sendError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	log.Printf("Password reset for account: %s", user.Email)
	sendJSON(w, http.StatusOK, map[string]string{"message": "Password has been reset"})
}

// GetUser returns the authenticated account.
// GET /api/auth/user
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	sendJSON(w, http.StatusOK, actor.Profile())
}

// sendCode issues a one-time code and mails it. Mail delivery is
// fire-and-forget; only the token write can fail here.
func (h *Handler) sendCode(ctx context.Context, user *models.User, purpose models.TokenPurpose) error {
	token, err := h.Tokens.Issue(ctx, user.ID, purpose)
	if err != nil {
		return err
	}
	kind := mail.KindConfirmation
	if purpose == models.TokenPurposePasswordReset {
		kind = mail.KindPasswordReset
	}
	h.Mailer.Send(kind, user.Email, user.Name, token.Token)
	return nil
}

func (h *Handler) sendTokenError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrTokenNotFound):
		sendError(w, "Invalid code", http.StatusNotFound)
	case errors.Is(err, auth.ErrTokenExpired):
		sendError(w, "Code has expired, request a new one", http.StatusNotFound)
	default:
		log.Printf("Token error: %v", err)
		sendError(w, "Internal error", http.StatusInternalServerError)
	}
}

func validatePassword(password, confirmation string) []string {
	var violations []string
	if len(password) < 8 {
		violations = append(violations, "password must be at least 8 characters long")
	}
	if confirmation != password {
		violations = append(violations, "passwords do not match")
	}
	return violations
}

const emailRegex = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`

var emailPattern = regexp.MustCompile(emailRegex)

func isValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
