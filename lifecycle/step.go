package lifecycle

import (
	"time"

	"github.com/mohammedsw45/blue-basks/apperrors"
	"github.com/mohammedsw45/blue-basks/models"
)

// ValidateStepStatus only checks the value: steps move freely between
// To Do, Started and Finished. Cancelled is rejected here because it is
// reserved for the task cancellation cascade.
func ValidateStepStatus(next models.StepStatus) error {
	if !models.ValidStepStatus(next) {
		return apperrors.Newf(apperrors.ValidationFailed, "invalid step status: %s", next)
	}
	return nil
}

// ApplyStepStatus moves the step to next with its timestamp rules: To Do
// clears both times, Started stamps start_time once, Finished stamps
// end_time once and only when the step was ever started. A step finished
// without starting keeps a nil end_time; that mirrors the source system and
// is deliberately not "fixed" here.
func ApplyStepStatus(s *models.Step, next models.StepStatus, now time.Time) {
	s.Status = next
	switch next {
	case models.StepStatusToDo:
		s.StartTime = nil
		s.EndTime = nil
	case models.StepStatusStarted:
		if s.StartTime == nil {
			s.StartTime = &now
		}
	case models.StepStatusFinished:
		if s.StartTime != nil && s.EndTime == nil {
			s.EndTime = &now
		}
	}
}
