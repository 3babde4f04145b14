package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chepyr/project-tracker/internal/auth"
	"github.com/chepyr/project-tracker/internal/db"
	"github.com/chepyr/project-tracker/internal/mail"
)

const (
	requestTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20 // 1MB
)

type Handler struct {
	UserRepo    db.UserRepositoryInterface
	ProjectRepo db.ProjectRepositoryInterface
	TaskRepo    db.TaskRepositoryInterface
	NoteRepo    db.NoteRepositoryInterface

	Sessions *auth.SessionManager
	Tokens   *auth.TokenService
	Mailer   mail.Mailer

	RateLimiter *RateLimiter
	Hub         *Hub

	// MaskForbidden reports project/task authorization denials as 404 so
	// callers cannot probe which entities exist.
	MaskForbidden bool
}

type errorResponse struct {
	Error string `json:"error"`
}

func sendError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message})
}

// sendFieldErrors reports every violated input field in one response.
func sendFieldErrors(w http.ResponseWriter, violations []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]any{"errors": violations})
}

func sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// forbiddenStatus is the status used when the actor is authenticated but
// not allowed to touch the entity.
func (h *Handler) forbiddenStatus() int {
	if h.MaskForbidden {
		return http.StatusNotFound
	}
	return http.StatusForbidden
}

func isJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct == "" || strings.HasPrefix(ct, "application/json")
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !isJSONContentType(r) {
		sendError(w, "Content-Type must be application/json", http.StatusBadRequest)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

type RateLimiter struct {
	attempts map[string]int
	limit    int
	mutex    sync.Mutex
	window   time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		attempts: make(map[string]int),
		limit:    limit,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	count, exists := rl.attempts[ip]
	if !exists {
		rl.attempts[ip] = 1
		return true
	}
	if count >= rl.limit {
		return false
	}
	rl.attempts[ip]++
	return true
}

// reset the attempts map every window duration
func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(rl.window)
		rl.mutex.Lock()
		rl.attempts = make(map[string]int)
		rl.mutex.Unlock()
	}
}

// throttled applies the rate limiter to an auth endpoint.
func (h *Handler) throttled(w http.ResponseWriter, r *http.Request) bool {
	if h.RateLimiter != nil && !h.RateLimiter.Allow(r.RemoteAddr) {
		sendError(w, "Too many attempts. Please try again later.", http.StatusTooManyRequests)
		return true
	}
	return false
}
