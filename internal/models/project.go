package models

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID          uuid.UUID   `json:"id"`
	ProjectName string      `json:"projectName"`
	ClientName  string      `json:"clientName"`
	Description string      `json:"description"`
	ManagerID   uuid.UUID   `json:"manager"`
	Team        []uuid.UUID `json:"team"`
	Tasks       []*Task     `json:"tasks,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// HasTeamMember reports whether id is in the team set. The manager is
// never stored in Team.
func (p *Project) HasTeamMember(id uuid.UUID) bool {
	for _, member := range p.Team {
		if member == id {
			return true
		}
	}
	return false
}
