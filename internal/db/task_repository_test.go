package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chepyr/project-tracker/internal/models"
	"github.com/google/uuid"
)

func testTask(projectID uuid.UUID, createdAt time.Time) *models.Task {
	return &models.Task{
		ID:          uuid.New(),
		ProjectID:   projectID,
		Name:        "Draft homepage",
		Description: "First pass at the hero section",
		Status:      models.TaskStatusPending,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func TestTaskRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	projectID := uuid.New()
	task := testTask(projectID, time.Now().UTC().Truncate(time.Second))
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	fetched, err := repo.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.ProjectID != projectID {
		t.Errorf("Expected project %v, got %v", projectID, fetched.ProjectID)
	}
	if fetched.Status != models.TaskStatusPending {
		t.Errorf("Expected status pending, got %v", fetched.Status)
	}
	if fetched.CompletedBy != nil {
		t.Errorf("Expected nil completedBy, got %v", fetched.CompletedBy)
	}
}

func TestTaskRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)

	if _, err := repo.GetByID(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTaskRepository_ListByProjectID_Order(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	projectID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)
	second := testTask(projectID, base)
	first := testTask(projectID, base.Add(-time.Hour))
	other := testTask(uuid.New(), base)
	for _, task := range []*models.Task{second, first, other} {
		if err := repo.Create(ctx, task); err != nil {
			t.Fatalf("Failed to create task: %v", err)
		}
	}

	tasks, err := repo.ListByProjectID(ctx, projectID)
	if err != nil {
		t.Fatalf("ListByProjectID failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}
	// creation order, oldest first
	if tasks[0].ID != first.ID || tasks[1].ID != second.ID {
		t.Errorf("Expected [%v %v], got [%v %v]",
			first.ID, second.ID, tasks[0].ID, tasks[1].ID)
	}
}

func TestTaskRepository_Update_CompletedBy(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := testTask(uuid.New(), time.Now().UTC().Truncate(time.Second))
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	actor := uuid.New()
	task.Status = models.TaskStatusInProgress
	task.CompletedBy = &actor
	if err := repo.Update(ctx, task); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := repo.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != models.TaskStatusInProgress {
		t.Errorf("Expected status inProgress, got %v", fetched.Status)
	}
	if fetched.CompletedBy == nil || *fetched.CompletedBy != actor {
		t.Errorf("Expected completedBy %v, got %v", actor, fetched.CompletedBy)
	}

	// back to pending clears the marker
	task.Status = models.TaskStatusPending
	task.CompletedBy = nil
	if err := repo.Update(ctx, task); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	fetched, err = repo.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.CompletedBy != nil {
		t.Errorf("Expected nil completedBy after reset, got %v", fetched.CompletedBy)
	}
}

func TestTaskRepository_Update_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)

	task := testTask(uuid.New(), time.Now().UTC().Truncate(time.Second))
	if err := repo.Update(context.Background(), task); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing row, got %v", err)
	}
}

func TestTaskRepository_Delete_RemovesNotes(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	noteRepo := NewNoteRepository(db)
	ctx := context.Background()

	task := testTask(uuid.New(), time.Now().UTC().Truncate(time.Second))
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	note := &models.Note{
		ID:        uuid.New(),
		TaskID:    task.ID,
		Content:   "Blocked on assets",
		CreatedBy: uuid.New(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := noteRepo.Create(ctx, note); err != nil {
		t.Fatalf("Failed to create note: %v", err)
	}

	if err := repo.Delete(ctx, task.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Task should be gone, got %v", err)
	}
	if _, err := noteRepo.GetByID(ctx, note.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Note should be gone, got %v", err)
	}
}
