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

type taskInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (in *taskInput) violations() []string {
	var violations []string
	if in.Name == "" {
		violations = append(violations, "name is required")
	}
	if in.Description == "" {
		violations = append(violations, "description is required")
	}
	return violations
}

// CreateTask adds a task to the project. Manager only.
// POST /api/projects/{projectID}/tasks
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, project, ok := h.resolveProject(w, r)
	if !ok {
		return
	}
	if !authz.CanModifyTask(actor, project) {
		sendError(w, "Project not found", h.forbiddenStatus())
		return
	}

	var input taskInput
	if !decodeBody(w, r, &input) {
		return
	}
	if violations := input.violations(); len(violations) > 0 {
		sendFieldErrors(w, violations)
		return
	}

	now := time.Now().UTC()
	task := &models.Task{
		ID:          uuid.New(),
		ProjectID:   project.ID,
		Name:        input.Name,
		Description: input.Description,
		Status:      models.TaskStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.TaskRepo.Create(ctx, task); err != nil {
		log.Printf("Error creating task in project %s: %v", project.ID, err)
		sendError(w, "Cannot save task", http.StatusInternalServerError)
		return
	}

	h.Hub.Broadcast(project.ID, eventTaskCreated, task)
	sendJSON(w, http.StatusCreated, task)
}

// ListTasks returns the project's tasks. Members only.
// GET /api/projects/{projectID}/tasks
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
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
		sendError(w, "Failed to list tasks", http.StatusInternalServerError)
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	sendJSON(w, http.StatusOK, tasks)
}

// GetTask returns one task. Members only.
// GET /api/projects/{projectID}/tasks/{taskID}
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	actor, project, task, ok := h.resolveTask(w, r)
	if !ok {
		return
	}
	if !authz.IsProjectMember(actor, project) {
		sendError(w, "Task not found", h.forbiddenStatus())
		return
	}
	sendJSON(w, http.StatusOK, task)
}

// UpdateTask replaces name and description. Manager only.
// PUT /api/projects/{projectID}/tasks/{taskID}
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, project, task, ok := h.resolveTask(w, r)
	if !ok {
		return
	}
	if !authz.CanModifyTask(actor, project) {
		sendError(w, "Task not found", h.forbiddenStatus())
		return
	}

	var input taskInput
	if !decodeBody(w, r, &input) {
		return
	}
	if violations := input.violations(); len(violations) > 0 {
		sendFieldErrors(w, violations)
		return
	}

	task.Name = input.Name
	task.Description = input.Description
	task.UpdatedAt = time.Now().UTC()

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.TaskRepo.Update(ctx, task); err != nil {
		log.Printf("Error updating task %s: %v", task.ID, err)
		sendError(w, "Failed to update task", http.StatusInternalServerError)
		return
	}

	h.Hub.Broadcast(project.ID, eventTaskUpdated, task)
	sendJSON(w, http.StatusOK, task)
}

// DeleteTask removes the task and its notes. Manager only.
// DELETE /api/projects/{projectID}/tasks/{taskID}
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, project, task, ok := h.resolveTask(w, r)
	if !ok {
		return
	}
	if !authz.CanModifyTask(actor, project) {
		sendError(w, "Task not found", h.forbiddenStatus())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.TaskRepo.Delete(ctx, task.ID); err != nil {
		log.Printf("Error deleting task %s: %v", task.ID, err)
		sendError(w, "Failed to delete task", http.StatusInternalServerError)
		return
	}

	h.Hub.Broadcast(project.ID, eventTaskDeleted, task)
	w.WriteHeader(http.StatusNoContent)
}

// UpdateTaskStatus moves the task between states. Any project member may
// do this; completedBy records who moved it out of pending and is cleared
// when the task goes back to pending.
// POST /api/projects/{projectID}/tasks/{taskID}/status
func (h *Handler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	actor, project, task, ok := h.resolveTask(w, r)
	if !ok {
		return
	}
	if !authz.IsProjectMember(actor, project) {
		sendError(w, "Task not found", h.forbiddenStatus())
		return
	}

	var input struct {
		Status models.TaskStatus `json:"status"`
	}
	if !decodeBody(w, r, &input) {
		return
	}
	if !models.ValidTaskStatus(input.Status) {
		sendFieldErrors(w, []string{"status must be one of pending, onHold, inProgress, underReview, completed"})
		return
	}

	task.Status = input.Status
	if input.Status == models.TaskStatusPending {
		task.CompletedBy = nil
	} else {
		id := actor.ID
		task.CompletedBy = &id
	}
	task.UpdatedAt = time.Now().UTC()

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.TaskRepo.Update(ctx, task); err != nil {
		log.Printf("Error updating status of task %s: %v", task.ID, err)
		sendError(w, "Failed to update task status", http.StatusInternalServerError)
		return
	}

	h.Hub.Broadcast(project.ID, eventTaskStatusChanged, task)
	sendJSON(w, http.StatusOK, task)
}

// resolveTask loads the actor, project, and task from the path and checks
// that the task belongs to the addressed project. Cross-project task
// access is a consistency failure, not a not-found.
func (h *Handler) resolveTask(w http.ResponseWriter, r *http.Request) (*models.User, *models.Project, *models.Task, bool) {
	actor, project, ok := h.resolveProject(w, r)
	if !ok {
		return nil, nil, nil, false
	}

	taskID, err := uuid.Parse(r.PathValue("taskID"))
	if err != nil {
		sendError(w, "taskID must be a valid uuid", http.StatusBadRequest)
		return nil, nil, nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	task, err := h.TaskRepo.GetByID(ctx, taskID)
	if errors.Is(err, db.ErrNotFound) {
		sendError(w, "Task not found", http.StatusNotFound)
		return nil, nil, nil, false
	}
	if err != nil {
		log.Printf("Error loading task %s: %v", taskID, err)
		sendError(w, "Internal error", http.StatusInternalServerError)
		return nil, nil, nil, false
	}
	if task.ProjectID != project.ID {
		sendError(w, "Task does not belong to this project", http.StatusBadRequest)
		return nil, nil, nil, false
	}
	return actor, project, task, true
}
