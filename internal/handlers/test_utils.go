package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chepyr/project-tracker/internal/auth"
	"github.com/chepyr/project-tracker/internal/config"
	"github.com/chepyr/project-tracker/internal/db"
	"github.com/chepyr/project-tracker/internal/mail"
	"github.com/chepyr/project-tracker/internal/models"
	"github.com/google/uuid"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

type MockUserRepository struct {
	users     map[uuid.UUID]*models.User
	createErr error
	mutex     sync.Mutex
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[uuid.UUID]*models.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	user, exists := m.users[id]
	if !exists {
		return nil, db.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.users[user.ID]; !exists {
		return db.ErrNotFound
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

type MockTokenRepository struct {
	tokens map[string]*models.Token
	mutex  sync.Mutex
}

func NewMockTokenRepository() *MockTokenRepository {
	return &MockTokenRepository{tokens: make(map[string]*models.Token)}
}

func (m *MockTokenRepository) Create(ctx context.Context, token *models.Token) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.tokens[token.Token] = token
	return nil
}

func (m *MockTokenRepository) GetByToken(
	ctx context.Context, code string, purpose models.TokenPurpose,
) (*models.Token, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	token, exists := m.tokens[code]
	if !exists || token.Purpose != purpose {
		return nil, db.ErrNotFound
	}
	return token, nil
}

func (m *MockTokenRepository) Consume(
	ctx context.Context, code string, purpose models.TokenPurpose,
) (*models.Token, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	token, exists := m.tokens[code]
	if !exists || token.Purpose != purpose {
		return nil, db.ErrNotFound
	}
	delete(m.tokens, code)
	return token, nil
}

func (m *MockTokenRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for code, token := range m.tokens {
		if token.ID == id {
			delete(m.tokens, code)
		}
	}
	return nil
}

func (m *MockTokenRepository) DeleteForUser(
	ctx context.Context, userID uuid.UUID, purpose models.TokenPurpose,
) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for code, token := range m.tokens {
		if token.UserID == userID && token.Purpose == purpose {
			delete(m.tokens, code)
		}
	}
	return nil
}

type MockProjectRepository struct {
	projects  map[uuid.UUID]*models.Project
	createErr error
	mutex     sync.Mutex
}

func NewMockProjectRepository() *MockProjectRepository {
	return &MockProjectRepository{projects: make(map[uuid.UUID]*models.Project)}
}

func (m *MockProjectRepository) Create(ctx context.Context, project *models.Project) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	copied := *project
	m.projects[project.ID] = &copied
	return nil
}

func (m *MockProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	project, exists := m.projects[id]
	if !exists {
		return nil, db.ErrNotFound
	}
	copied := *project
	copied.Team = append([]uuid.UUID(nil), project.Team...)
	return &copied, nil
}

func (m *MockProjectRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var projects []*models.Project
	for _, project := range m.projects {
		if project.ManagerID == userID || project.HasTeamMember(userID) {
			copied := *project
			projects = append(projects, &copied)
		}
	}
	return projects, nil
}

func (m *MockProjectRepository) Update(ctx context.Context, project *models.Project) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.projects[project.ID]; !exists {
		return db.ErrNotFound
	}
	copied := *project
	m.projects[project.ID] = &copied
	return nil
}

func (m *MockProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.projects[id]; !exists {
		return db.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *MockProjectRepository) AddMember(ctx context.Context, projectID, userID uuid.UUID) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	project, exists := m.projects[projectID]
	if !exists {
		return db.ErrNotFound
	}
	project.Team = append(project.Team, userID)
	return nil
}

func (m *MockProjectRepository) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	project, exists := m.projects[projectID]
	if !exists {
		return db.ErrNotFound
	}
	team := project.Team[:0]
	for _, member := range project.Team {
		if member != userID {
			team = append(team, member)
		}
	}
	project.Team = team
	return nil
}

func (m *MockProjectRepository) ListTeam(ctx context.Context, projectID uuid.UUID) ([]models.Profile, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	project, exists := m.projects[projectID]
	if !exists {
		return nil, db.ErrNotFound
	}
	team := []models.Profile{}
	for _, member := range project.Team {
		team = append(team, models.Profile{ID: member})
	}
	return team, nil
}

type MockTaskRepository struct {
	tasks map[uuid.UUID]*models.Task
	mutex sync.Mutex
}

func NewMockTaskRepository() *MockTaskRepository {
	return &MockTaskRepository{tasks: make(map[uuid.UUID]*models.Task)}
}

func (m *MockTaskRepository) Create(ctx context.Context, task *models.Task) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	copied := *task
	m.tasks[task.ID] = &copied
	return nil
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task, exists := m.tasks[id]
	if !exists {
		return nil, db.ErrNotFound
	}
	copied := *task
	return &copied, nil
}

func (m *MockTaskRepository) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]*models.Task, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var tasks []*models.Task
	for _, task := range m.tasks {
		if task.ProjectID == projectID {
			copied := *task
			tasks = append(tasks, &copied)
		}
	}
	return tasks, nil
}

func (m *MockTaskRepository) Update(ctx context.Context, task *models.Task) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.tasks[task.ID]; !exists {
		return db.ErrNotFound
	}
	copied := *task
	m.tasks[task.ID] = &copied
	return nil
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.tasks[id]; !exists {
		return db.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

type MockNoteRepository struct {
	notes map[uuid.UUID]*models.Note
	mutex sync.Mutex
}

func NewMockNoteRepository() *MockNoteRepository {
	return &MockNoteRepository{notes: make(map[uuid.UUID]*models.Note)}
}

func (m *MockNoteRepository) Create(ctx context.Context, note *models.Note) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	copied := *note
	m.notes[note.ID] = &copied
	return nil
}

func (m *MockNoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	note, exists := m.notes[id]
	if !exists {
		return nil, db.ErrNotFound
	}
	copied := *note
	return &copied, nil
}

func (m *MockNoteRepository) ListByTaskID(ctx context.Context, taskID uuid.UUID) ([]*models.Note, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var notes []*models.Note
	for _, note := range m.notes {
		if note.TaskID == taskID {
			copied := *note
			notes = append(notes, &copied)
		}
	}
	return notes, nil
}

func (m *MockNoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.notes[id]; !exists {
		return db.ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

// MockMailer records outgoing mail instead of sending it.
type MockMailer struct {
	sent  []sentMail
	mutex sync.Mutex
}

type sentMail struct {
	kind    mail.Kind
	address string
	token   string
}

func (m *MockMailer) Send(kind mail.Kind, address, name, token string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sent = append(m.sent, sentMail{kind: kind, address: address, token: token})
}

func (m *MockMailer) last() (sentMail, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// newTestHandler builds a fully wired Handler over in-memory mocks.
func newTestHandler() (*Handler, *MockMailer) {
	mailer := &MockMailer{}
	h := &Handler{
		UserRepo:    NewMockUserRepository(),
		ProjectRepo: NewMockProjectRepository(),
		TaskRepo:    NewMockTaskRepository(),
		NoteRepo:    NewMockNoteRepository(),
		Sessions:    auth.NewSessionManager(testJWTSecret, time.Hour),
		Tokens: auth.NewTokenService(
			NewMockTokenRepository(), config.TokenPolicyAllowMany,
			7*24*time.Hour, 15*time.Minute),
		Mailer:        mailer,
		Hub:           NewHub(),
		MaskForbidden: true,
	}
	return h, mailer
}

// seedUser stores a confirmed account and returns it.
func seedUser(h *Handler, name, email, password string) *models.User {
	hash, _ := auth.HashPassword(password)
	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Confirmed:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.UserRepo.Create(context.Background(), user); err != nil {
		panic(errors.New("seeding user: " + err.Error()))
	}
	return user
}

// seedProject stores a project owned by manager with the given team.
func seedProject(h *Handler, manager *models.User, team ...uuid.UUID) *models.Project {
	now := time.Now().UTC()
	project := &models.Project{
		ID:          uuid.New(),
		ProjectName: "Website redesign",
		ClientName:  "ACME",
		Description: "Full redesign of the marketing site",
		ManagerID:   manager.ID,
		Team:        team,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.ProjectRepo.Create(context.Background(), project); err != nil {
		panic(errors.New("seeding project: " + err.Error()))
	}
	return project
}

// seedTask stores a pending task in the project.
func seedTask(h *Handler, project *models.Project) *models.Task {
	now := time.Now().UTC()
	task := &models.Task{
		ID:          uuid.New(),
		ProjectID:   project.ID,
		Name:        "Draft homepage",
		Description: "First draft of the new homepage",
		Status:      models.TaskStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.TaskRepo.Create(context.Background(), task); err != nil {
		panic(errors.New("seeding task: " + err.Error()))
	}
	return task
}
