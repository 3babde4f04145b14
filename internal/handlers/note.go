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

// CreateNote attaches a note to a task. Members only.
// POST /api/projects/{projectID}/tasks/{taskID}/notes
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	actor, project, task, ok := h.resolveTask(w, r)
	if !ok {
		return
	}
	if !authz.IsProjectMember(actor, project) {
		sendError(w, "Task not found", h.forbiddenStatus())
		return
	}

	var input struct {
		Content string `json:"content"`
	}
	if !decodeBody(w, r, &input) {
		return
	}
	if input.Content == "" {
		sendFieldErrors(w, []string{"content is required"})
		return
	}

	note := &models.Note{
		ID:        uuid.New(),
		TaskID:    task.ID,
		Content:   input.Content,
		CreatedBy: actor.ID,
		CreatedAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.NoteRepo.Create(ctx, note); err != nil {
		log.Printf("Error creating note on task %s: %v", task.ID, err)
		sendError(w, "Cannot save note", http.StatusInternalServerError)
		return
	}
	sendJSON(w, http.StatusCreated, note)
}

// ListNotes returns the task's notes. Members only.
// GET /api/projects/{projectID}/tasks/{taskID}/notes
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	actor, project, task, ok := h.resolveTask(w, r)
	if !ok {
		return
	}
	if !authz.IsProjectMember(actor, project) {
		sendError(w, "Task not found", h.forbiddenStatus())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	notes, err := h.NoteRepo.ListByTaskID(ctx, task.ID)
	if err != nil {
		log.Printf("Error listing notes of task %s: %v", task.ID, err)
		sendError(w, "Failed to list notes", http.StatusInternalServerError)
		return
	}
	if notes == nil {
		notes = []*models.Note{}
	}
	sendJSON(w, http.StatusOK, notes)
}

// DeleteNote removes a note. Only its author may do this, project manager
// included in the denial.
// DELETE /api/projects/{projectID}/tasks/{taskID}/notes/{noteID}
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	actor, project, task, ok := h.resolveTask(w, r)
	if !ok {
		return
	}
	if !authz.IsProjectMember(actor, project) {
		sendError(w, "Task not found", h.forbiddenStatus())
		return
	}

	noteID, err := uuid.Parse(r.PathValue("noteID"))
	if err != nil {
		sendError(w, "noteID must be a valid uuid", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	note, err := h.NoteRepo.GetByID(ctx, noteID)
	if errors.Is(err, db.ErrNotFound) {
		sendError(w, "Note not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error loading note %s: %v", noteID, err)
		sendError(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if note.TaskID != task.ID {
		sendError(w, "Note does not belong to this task", http.StatusBadRequest)
		return
	}
	if !authz.IsNoteAuthor(actor, note) {
		sendError(w, "Only the author can delete this note", http.StatusUnauthorized)
		return
	}

	if err := h.NoteRepo.Delete(ctx, note.ID); err != nil {
		log.Printf("Error deleting note %s: %v", note.ID, err)
		sendError(w, "Failed to delete note", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
