package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/chepyr/project-tracker/internal/models"
	"github.com/google/uuid"
)

func testProject(managerID uuid.UUID, createdAt time.Time) *models.Project {
	return &models.Project{
		ID:          uuid.New(),
		ProjectName: "Website redesign",
		ClientName:  "ACME",
		Description: "Full overhaul of the marketing site",
		ManagerID:   managerID,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func TestProjectRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	managerID := uuid.New()
	project := testProject(managerID, time.Now().UTC().Truncate(time.Second))
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}

	fetched, err := repo.GetByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.ProjectName != project.ProjectName {
		t.Errorf("Expected name %q, got %q", project.ProjectName, fetched.ProjectName)
	}
	if fetched.ManagerID != managerID {
		t.Errorf("Expected manager %v, got %v", managerID, fetched.ManagerID)
	}
	if len(fetched.Team) != 0 {
		t.Errorf("New project should have an empty team, got %d members", len(fetched.Team))
	}
}

func TestProjectRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)

	if _, err := repo.GetByID(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestProjectRepository_TeamMembership(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	project := testProject(uuid.New(), time.Now().UTC().Truncate(time.Second))
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}

	member := testUser("member@example.com")
	if err := NewUserRepository(db).Create(ctx, member); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if err := repo.AddMember(ctx, project.ID, member.ID); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	fetched, err := repo.GetByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !fetched.HasTeamMember(member.ID) {
		t.Error("Added member missing from loaded team")
	}

	team, err := repo.ListTeam(ctx, project.ID)
	if err != nil {
		t.Fatalf("ListTeam failed: %v", err)
	}
	if len(team) != 1 || team[0].Email != member.Email {
		t.Errorf("Expected team of [%s], got %v", member.Email, team)
	}

	if err := repo.RemoveMember(ctx, project.ID, member.ID); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if err := repo.RemoveMember(ctx, project.ID, member.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound removing twice, got %v", err)
	}
}

func TestProjectRepository_AddMember_Duplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	project := testProject(uuid.New(), time.Now().UTC().Truncate(time.Second))
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	memberID := uuid.New()
	if err := repo.AddMember(ctx, project.ID, memberID); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := repo.AddMember(ctx, project.ID, memberID); err == nil {
		t.Error("Expected primary key violation on duplicate membership, got none")
	}
}

func TestProjectRepository_ListForUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	managed := testProject(alice, base.Add(-2*time.Hour))
	joined := testProject(bob, base.Add(-1*time.Hour))
	unrelated := testProject(bob, base)
	for _, p := range []*models.Project{managed, joined, unrelated} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Failed to create project: %v", err)
		}
	}
	if err := repo.AddMember(ctx, joined.ID, alice); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	projects, err := repo.ListForUser(ctx, alice)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("Expected 2 projects for alice, got %d", len(projects))
	}
	// newest first
	if projects[0].ID != joined.ID || projects[1].ID != managed.ID {
		t.Errorf("Expected [%v %v], got [%v %v]",
			joined.ID, managed.ID, projects[0].ID, projects[1].ID)
	}
}

func TestProjectRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	project := testProject(uuid.New(), time.Now().UTC().Truncate(time.Second))
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}

	project.ProjectName = "Website relaunch"
	project.ClientName = "ACME Corp"
	if err := repo.Update(ctx, project); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := repo.GetByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.ProjectName != "Website relaunch" || fetched.ClientName != "ACME Corp" {
		t.Errorf("Update not persisted: %+v", fetched)
	}
}

func TestProjectRepository_Delete_Cascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)
	taskRepo := NewTaskRepository(db)
	noteRepo := NewNoteRepository(db)
	ctx := context.Background()

	project := testProject(uuid.New(), time.Now().UTC().Truncate(time.Second))
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	memberID := uuid.New()
	if err := repo.AddMember(ctx, project.ID, memberID); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	task := testTask(project.ID, time.Now().UTC().Truncate(time.Second))
	if err := taskRepo.Create(ctx, task); err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	note := &models.Note{
		ID:        uuid.New(),
		TaskID:    task.ID,
		Content:   "Check the footer links",
		CreatedBy: memberID,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := noteRepo.Create(ctx, note); err != nil {
		t.Fatalf("Failed to create note: %v", err)
	}

	if err := repo.Delete(ctx, project.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := repo.GetByID(ctx, project.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Project should be gone, got %v", err)
	}
	if _, err := taskRepo.GetByID(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Task should be gone, got %v", err)
	}
	if _, err := noteRepo.GetByID(ctx, note.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Note should be gone, got %v", err)
	}
	var memberships int
	if err := db.QueryRow(
		`SELECT COUNT(*) FROM project_members WHERE project_id = $1`, project.ID,
	).Scan(&memberships); err != nil && !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("Counting memberships: %v", err)
	}
	if memberships != 0 {
		t.Errorf("Expected 0 membership rows, got %d", memberships)
	}
}
