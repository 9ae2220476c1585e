// Package lifecycle validates status transitions and applies their timestamp
// side effects for projects, tasks and steps. Everything here is pure; the
// services persist the results.
package lifecycle

import (
	"time"

	"github.com/mohammedsw45/blue-basks/apperrors"
	"github.com/mohammedsw45/blue-basks/models"
)

// ValidateProjectTransition rejects every move the project state machine
// forbids: To Do -> In Progress -> {Done, Cancelled}, forward only.
func ValidateProjectTransition(current, next models.ProjectStatus) error {
	if !models.ValidProjectStatus(next) {
		return apperrors.Newf(apperrors.ValidationFailed, "invalid project status: %s", next)
	}

	switch current {
	case models.ProjectStatusToDo:
		if next == models.ProjectStatusDone {
			return apperrors.New(apperrors.ValidationFailed, "You should start this project before marking it as Done")
		}
	case models.ProjectStatusInProgress:
		if next == models.ProjectStatusToDo {
			return apperrors.New(apperrors.ValidationFailed, "You cannot revert to To Do from In Progress")
		}
	case models.ProjectStatusDone:
		if next != models.ProjectStatusDone {
			return apperrors.New(apperrors.ValidationFailed, "This Project is Done")
		}
	case models.ProjectStatusCancelled:
		return apperrors.New(apperrors.ValidationFailed, "This Project is Cancelled")
	}
	return nil
}

// ApplyProjectStatus moves the project to next and stamps begin/end times.
// Both are set exactly once: begin on first entry to In Progress, end on
// first entry to Done or Cancelled.
func ApplyProjectStatus(p *models.Project, next models.ProjectStatus, now time.Time) {
	p.Status = next
	if next == models.ProjectStatusInProgress && p.BeginTime == nil {
		p.BeginTime = &now
	}
	if (next == models.ProjectStatusDone || next == models.ProjectStatusCancelled) && p.EndTime == nil {
		p.EndTime = &now
	}
	p.UpdatedAt = now
}
