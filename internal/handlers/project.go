package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/chepyr/project-tracker/internal/authz"
	"github.com/chepyr/project-tracker/internal/db"
	"github.com/chepyr/project-tracker/internal/models"
	"github.com/google/uuid"
)

type projectInput struct {
	ProjectName string `json:"projectName"`
	ClientName  string `json:"clientName"`
	Description string `json:"description"`
}

func (in *projectInput) violations() []string {
	var violations []string
	if in.ProjectName == "" {
		violations = append(violations, "projectName is required")
	}
	if in.ClientName == "" {
		violations = append(violations, "clientName is required")
	}
	if in.Description == "" {
		violations = append(violations, "description is required")
	}
	return violations
}

// CreateProject creates a project owned by the caller.
// POST /api/projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input projectInput
	if !decodeBody(w, r, &input) {
		return
	}
	if violations := input.violations(); len(violations) > 0 {
		sendFieldErrors(w, violations)
		return
	}

	now := time.Now().UTC()
	project := &models.Project{
		ID:          uuid.New(),
		ProjectName: input.ProjectName,
		ClientName:  input.ClientName,
		Description: input.Description,
		ManagerID:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.ProjectRepo.Create(ctx, project); err != nil {
		log.Printf("Error creating project: %v", err)
		sendError(w, "Cannot save project", http.StatusInternalServerError)
		return
	}

	sendJSON(w, http.StatusCreated, project)
}

// ListProjects returns every project the caller manages or belongs to.
// GET /api/projects
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	projects, err := h.ProjectRepo.ListForUser(ctx, actor.ID)
	if err != nil {
		log.Printf("Error listing projects for %s: %v", actor.ID, err)
		sendError(w, "Failed to list projects", http.StatusInternalServerError)
		return
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	sendJSON(w, http.StatusOK, projects)
}

// GetProject returns one project with its task list. Members only.
// GET /api/projects/{projectID}
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
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
	tasks, err := h.TaskRepo.ListByProjectID(ctx, project.ID)
	if err != nil {
		log.Printf("Error listing tasks of project %s: %v", project.ID, err)
		sendError(w, "Internal error", http.StatusInternalServerError)
		return
	}
	project.Tasks = tasks
	sendJSON(w, http.StatusOK, project)
}

// UpdateProject replaces the project fields. Manager only.
// PUT /api/projects/{projectID}
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	actor, project, ok := h.resolveProject(w, r)
	if !ok {
		return
	}
	if !authz.CanModifyProject(actor, project) {
		sendError(w, "Project not found", h.forbiddenStatus())
		return
	}

	var input projectInput
	if !decodeBody(w, r, &input) {
		return
	}
	if violations := input.violations(); len(violations) > 0 {
		sendFieldErrors(w, violations)
		return
	}

	project.ProjectName = input.ProjectName
	project.ClientName = input.ClientName
	project.Description = input.Description
	project.UpdatedAt = time.Now().UTC()

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.ProjectRepo.Update(ctx, project); err != nil {
		log.Printf("Error updating project %s: %v", project.ID, err)
		sendError(w, "Failed to update project", http.StatusInternalServerError)
		return
	}
	sendJSON(w, http.StatusOK, project)
}

// DeleteProject removes the project and everything under it. Manager only.
// DELETE /api/projects/{projectID}
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	actor, project, ok := h.resolveProject(w, r)
	if !ok {
		return
	}
	if !authz.CanModifyProject(actor, project) {
		sendError(w, "Project not found", h.forbiddenStatus())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.ProjectRepo.Delete(ctx, project.ID); err != nil {
		log.Printf("Error deleting project %s: %v", project.ID, err)
		sendError(w, "Failed to delete project", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resolveProject loads the actor and the project named in the path.
// On failure the response has already been written.
func (h *Handler) resolveProject(w http.ResponseWriter, r *http.Request) (*models.User, *models.Project, bool) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return nil, nil, false
	}

	projectID, err := uuid.Parse(r.PathValue("projectID"))
	if err != nil {
		sendError(w, "projectID must be a valid uuid", http.StatusBadRequest)
		return nil, nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	project, err := h.ProjectRepo.GetByID(ctx, projectID)
	if errors.Is(err, db.ErrNotFound) {
		sendError(w, "Project not found", http.StatusNotFound)
		return nil, nil, false
	}
	if err != nil {
		log.Printf("Error loading project %s: %v", projectID, err)
		sendError(w, "Internal error", http.StatusInternalServerError)
		return nil, nil, false
	}
	return actor, project, true
}
