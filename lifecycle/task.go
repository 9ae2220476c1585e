package lifecycle

import (
	"time"

	"github.com/mohammedsw45/blue-basks/apperrors"
	"github.com/mohammedsw45/blue-basks/models"
)

// ValidateTaskTransition enforces To Do -> In Progress -> {Done, Cancelled}
// with Archived reachable only from Done. Submitting the current status
// again is a conflict, not a no-op.
func ValidateTaskTransition(current, next models.TaskStatus) error {
	if !models.ValidTaskStatus(next) {
		return apperrors.Newf(apperrors.ValidationFailed, "invalid task status: %s", next)
	}
	if current == next {
		return apperrors.New(apperrors.Conflict, "status not changed")
	}

	switch current {
	case models.TaskStatusToDo:
		if next == models.TaskStatusDone {
			return apperrors.New(apperrors.ValidationFailed, "You should start this Task before marking it as Done")
		}
		if next == models.TaskStatusArchived {
			return apperrors.New(apperrors.ValidationFailed, "This Task must be Done before it can be Archived")
		}
	case models.TaskStatusInProgress:
		if next == models.TaskStatusToDo {
			return apperrors.New(apperrors.ValidationFailed, "You cannot revert to To Do from In Progress")
		}
		if next == models.TaskStatusArchived {
			return apperrors.New(apperrors.ValidationFailed, "You should finish this Task before archiving it")
		}
	case models.TaskStatusDone:
		if next != models.TaskStatusArchived {
			return apperrors.New(apperrors.ValidationFailed, "This Task is Done")
		}
	case models.TaskStatusCancelled:
		return apperrors.New(apperrors.ValidationFailed, "This Task is Cancelled")
	case models.TaskStatusArchived:
		return apperrors.New(apperrors.ValidationFailed, "This Task is Archived")
	}
	return nil
}

// ApplyTaskStatus moves the task to next and stamps begin/end times with the
// same set-once rule as projects. Archiving leaves both untouched.
func ApplyTaskStatus(t *models.Task, next models.TaskStatus, now time.Time) {
	t.Status = next
	if next == models.TaskStatusInProgress && t.BeginTime == nil {
		t.BeginTime = &now
	}
	if (next == models.TaskStatusDone || next == models.TaskStatusCancelled) && t.EndTime == nil {
		t.EndTime = &now
	}
	t.UpdatedAt = now
}
