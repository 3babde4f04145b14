package handlers

import "net/http"

// Routes wires every endpoint onto a ServeMux. The auth middleware wraps
// everything except account creation, confirmation, login, and the
// password flows.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// account flows (unauthenticated)
	mux.HandleFunc("POST /api/auth/create-account", h.CreateAccount)
	mux.HandleFunc("POST /api/auth/confirm-account", h.ConfirmAccount)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/request-code", h.RequestCode)
	mux.HandleFunc("POST /api/auth/forgot-password", h.ForgotPassword)
	mux.HandleFunc("POST /api/auth/validate-token", h.ValidateToken)
	mux.HandleFunc("POST /api/auth/update-password/{token}", h.UpdatePassword)

	mux.HandleFunc("GET /api/auth/user", h.AuthMiddleware(h.GetUser))

	// projects
	mux.HandleFunc("POST /api/projects", h.AuthMiddleware(h.CreateProject))
	mux.HandleFunc("GET /api/projects", h.AuthMiddleware(h.ListProjects))
	mux.HandleFunc("GET /api/projects/{projectID}", h.AuthMiddleware(h.GetProject))
	mux.HandleFunc("PUT /api/projects/{projectID}", h.AuthMiddleware(h.UpdateProject))
	mux.HandleFunc("DELETE /api/projects/{projectID}", h.AuthMiddleware(h.DeleteProject))

	// tasks
	mux.HandleFunc("POST /api/projects/{projectID}/tasks", h.AuthMiddleware(h.CreateTask))
	mux.HandleFunc("GET /api/projects/{projectID}/tasks", h.AuthMiddleware(h.ListTasks))
	mux.HandleFunc("GET /api/projects/{projectID}/tasks/{taskID}", h.AuthMiddleware(h.GetTask))
	mux.HandleFunc("PUT /api/projects/{projectID}/tasks/{taskID}", h.AuthMiddleware(h.UpdateTask))
	mux.HandleFunc("DELETE /api/projects/{projectID}/tasks/{taskID}", h.AuthMiddleware(h.DeleteTask))
	mux.HandleFunc("POST /api/projects/{projectID}/tasks/{taskID}/status", h.AuthMiddleware(h.UpdateTaskStatus))

	// team
	mux.HandleFunc("GET /api/projects/{projectID}/team", h.AuthMiddleware(h.ListTeam))
	mux.HandleFunc("POST /api/projects/{projectID}/team/find", h.AuthMiddleware(h.FindMember))
	mux.HandleFunc("POST /api/projects/{projectID}/team", h.AuthMiddleware(h.AddMember))
	mux.HandleFunc("DELETE /api/projects/{projectID}/team/{userID}", h.AuthMiddleware(h.RemoveMember))

	// notes
	mux.HandleFunc("POST /api/projects/{projectID}/tasks/{taskID}/notes", h.AuthMiddleware(h.CreateNote))
	mux.HandleFunc("GET /api/projects/{projectID}/tasks/{taskID}/notes", h.AuthMiddleware(h.ListNotes))
	mux.HandleFunc("DELETE /api/projects/{projectID}/tasks/{taskID}/notes/{noteID}", h.AuthMiddleware(h.DeleteNote))

	// live task events
	mux.HandleFunc("GET /api/projects/{projectID}/events", h.AuthMiddleware(h.ProjectEvents))

	return mux
}
