package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/chepyr/project-tracker/internal/authz"
	"github.com/chepyr/project-tracker/internal/db"
	"github.com/google/uuid"
)

// ListTeam returns the project's team accounts. Members only.
// GET /api/projects/{projectID}/team
func (h *Handler) ListTeam(w http.ResponseWriter, r *http.Request) {
	actor, project, ok := h.resolveProject(w, r)
	if !ok {
		return
	}
	if !authz.IsProjectMember(actor, project) {
		sendError(w, "Project not found", h.forbiddenStatus())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	team, err := h.ProjectRepo.ListTeam(ctx, project.ID)
	if err != nil {
		log.Printf("Error listing team of project %s: %v", project.ID, err)
		sendError(w, "Failed to list team", http.StatusInternalServerError)
		return
	}
	sendJSON(w, http.StatusOK, team)
}

// FindMember looks up an account by email for the add-member flow.
// POST /api/projects/{projectID}/team/find
func (h *Handler) FindMember(w http.ResponseWriter, r *http.Request) {
	actor, project, ok := h.resolveProject(w, r)
	if !ok {
		return
	}
	if !authz.IsProjectMember(actor, project) {
		sendError(w, "Project not found", h.forbiddenStatus())
		return
	}

	var input struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &input) {
		return
	}
	if !isValidEmail(input.Email) {
		sendFieldErrors(w, []string{"email is not valid"})
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
		log.Printf("Error finding account by email: %v", err)
		sendError(w, "Internal error", http.StatusInternalServerError)
		return
	}
	sendJSON(w, http.StatusOK, user.Profile())
}

// AddMember adds an account to the team by id. Manager only.
// POST /api/projects/{projectID}/team
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	actor, project, ok := h.resolveProject(w, r)
	if !ok {
		return
	}
	if !authz.CanModifyProject(actor, project) {
		sendError(w, "Project not found", h.forbiddenStatus())
		return
	}

	var input struct {
		ID string `json:"id"`
	}
	if !decodeBody(w, r, &input) {
		return
	}
	userID, err := uuid.Parse(input.ID)
	if err != nil {
		sendFieldErrors(w, []string{"id must be a valid uuid"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	user, err := h.UserRepo.GetByID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		sendError(w, "Account not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error loading account %s: %v", userID, err)
		sendError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	// the manager is a member by definition
	if user.ID == project.ManagerID || project.HasTeamMember(user.ID) {
		sendError(w, "Account is already a member of this project", http.StatusConflict)
		return
	}

	if err := h.ProjectRepo.AddMember(ctx, project.ID, user.ID); err != nil {
		log.Printf("Error adding member %s to project %s: %v", user.ID, project.ID, err)
		sendError(w, "Failed to add member", http.StatusInternalServerError)
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{"message": "Member added to the project"})
}

// RemoveMember removes an account from the team. Manager only.
// DELETE /api/projects/{projectID}/team/{userID}
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, project, ok := h.resolveProject(w, r)
	if !ok {
		return
	}
	if !authz.CanModifyProject(actor, project) {
		sendError(w, "Project not found", h.forbiddenStatus())
		return
	}

	userID, err := uuid.Parse(r.PathValue("userID"))
	if err != nil {
		sendError(w, "userID must be a valid uuid", http.StatusBadRequest)
		return
	}
	if !project.HasTeamMember(userID) {
		sendError(w, "Account is not a member of this project", http.StatusConflict)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.ProjectRepo.RemoveMember(ctx, project.ID, userID); err != nil {
		log.Printf("Error removing member %s from project %s: %v", userID, project.ID, err)
		sendError(w, "Failed to remove member", http.StatusInternalServerError)
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{"message": "Member removed from the project"})
}
