// Package authz holds the rules deciding whether an authenticated account
// may act on a project, task, or note. Every function is pure: it takes
// already-loaded records and returns allow/deny with no side effects.
package authz

import (
	"github.com/chepyr/project-tracker/internal/models"
)

// IsProjectManager reports whether actor owns the project.
func IsProjectManager(actor *models.User, project *models.Project) bool {
	return actor.ID == project.ManagerID
}

// IsProjectMember reports whether actor may read the project: the manager
// or anyone in the team set.
func IsProjectMember(actor *models.User, project *models.Project) bool {
	return IsProjectManager(actor, project) || project.HasTeamMember(actor.ID)
}

// CanModifyProject gates project update and delete. Manager only; team
// membership grants no mutation rights.
func CanModifyProject(actor *models.User, project *models.Project) bool {
	return IsProjectManager(actor, project)
}

// CanModifyTask gates task create, update, and delete within a project.
// Manager only, regardless of team membership.
func CanModifyTask(actor *models.User, project *models.Project) bool {
	return IsProjectManager(actor, project)
}

// IsNoteAuthor reports whether actor created the note. Deletion requires
// an exact match; even the project manager may not remove someone else's
// note.
func IsNoteAuthor(actor *models.User, note *models.Note) bool {
	return actor.ID == note.CreatedBy
}
