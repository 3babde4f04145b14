package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/chepyr/project-tracker/internal/db"
	"github.com/chepyr/project-tracker/internal/models"
)

type contextKey int

const actorKey contextKey = iota

// AuthMiddleware verifies the bearer session token, loads the account it
// belongs to, and threads it through the request context. Handlers read
// it back with actorFrom.
func (h *Handler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			sendError(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		userID, err := h.Sessions.Verify(tokenString)
		if err != nil {
			sendError(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		user, err := h.UserRepo.GetByID(ctx, userID)
		if errors.Is(err, db.ErrNotFound) {
			sendError(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		if err != nil {
			log.Printf("Error loading account %s: %v", userID, err)
			sendError(w, "Internal error", http.StatusInternalServerError)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), actorKey, user)))
	}
}

// actorFrom returns the authenticated account resolved by AuthMiddleware.
func actorFrom(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(actorKey).(*models.User)
	return user, ok
}
