package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammedsw45/blue-basks/apperrors"
	"github.com/mohammedsw45/blue-basks/models"
)

func TestValidateProjectTransition(t *testing.T) {
	cases := []struct {
		name    string
		current models.ProjectStatus
		next    models.ProjectStatus
		wantErr bool
	}{
		{"todo to in progress", models.ProjectStatusToDo, models.ProjectStatusInProgress, false},
		{"todo to cancelled", models.ProjectStatusToDo, models.ProjectStatusCancelled, false},
		{"todo to done rejected", models.ProjectStatusToDo, models.ProjectStatusDone, true},
		{"in progress to done", models.ProjectStatusInProgress, models.ProjectStatusDone, false},
		{"in progress to cancelled", models.ProjectStatusInProgress, models.ProjectStatusCancelled, false},
		{"in progress back to todo rejected", models.ProjectStatusInProgress, models.ProjectStatusToDo, true},
		{"done to todo rejected", models.ProjectStatusDone, models.ProjectStatusToDo, true},
		{"done to in progress rejected", models.ProjectStatusDone, models.ProjectStatusInProgress, true},
		{"done to cancelled rejected", models.ProjectStatusDone, models.ProjectStatusCancelled, true},
		{"done stays done", models.ProjectStatusDone, models.ProjectStatusDone, false},
		{"cancelled to todo rejected", models.ProjectStatusCancelled, models.ProjectStatusToDo, true},
		{"cancelled to done rejected", models.ProjectStatusCancelled, models.ProjectStatusDone, true},
		{"cancelled to cancelled rejected", models.ProjectStatusCancelled, models.ProjectStatusCancelled, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateProjectTransition(tc.current, tc.next)
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.ValidationFailed, apperrors.KindOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateProjectTransitionRejectsUnknownStatus(t *testing.T) {
	err := ValidateProjectTransition(models.ProjectStatusToDo, models.ProjectStatus("On Hold"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ValidationFailed, apperrors.KindOf(err))
}

func TestApplyProjectStatusSetsBeginTimeOnce(t *testing.T) {
	project := &models.Project{Status: models.ProjectStatusToDo}
	first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	ApplyProjectStatus(project, models.ProjectStatusInProgress, first)
	require.NotNil(t, project.BeginTime)
	assert.Equal(t, first, *project.BeginTime)
	assert.Nil(t, project.EndTime)

	later := first.Add(time.Hour)
	ApplyProjectStatus(project, models.ProjectStatusInProgress, later)
	assert.Equal(t, first, *project.BeginTime, "begin time must be set exactly once")
}

func TestApplyProjectStatusSetsEndTimeOnce(t *testing.T) {
	begin := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	end := begin.Add(48 * time.Hour)

	project := &models.Project{Status: models.ProjectStatusInProgress, BeginTime: &begin}
	ApplyProjectStatus(project, models.ProjectStatusDone, end)

	require.NotNil(t, project.EndTime)
	assert.Equal(t, end, *project.EndTime)
	assert.Equal(t, begin, *project.BeginTime)
}

func TestValidateTaskTransition(t *testing.T) {
	cases := []struct {
		name     string
		current  models.TaskStatus
		next     models.TaskStatus
		wantKind apperrors.Kind
		wantErr  bool
	}{
		{"todo to in progress", models.TaskStatusToDo, models.TaskStatusInProgress, 0, false},
		{"todo to cancelled", models.TaskStatusToDo, models.TaskStatusCancelled, 0, false},
		{"todo to done rejected", models.TaskStatusToDo, models.TaskStatusDone, apperrors.ValidationFailed, true},
		{"todo to archived rejected", models.TaskStatusToDo, models.TaskStatusArchived, apperrors.ValidationFailed, true},
		{"in progress to done", models.TaskStatusInProgress, models.TaskStatusDone, 0, false},
		{"in progress to cancelled", models.TaskStatusInProgress, models.TaskStatusCancelled, 0, false},
		{"in progress back to todo rejected", models.TaskStatusInProgress, models.TaskStatusToDo, apperrors.ValidationFailed, true},
		{"in progress to archived rejected", models.TaskStatusInProgress, models.TaskStatusArchived, apperrors.ValidationFailed, true},
		{"done to archived", models.TaskStatusDone, models.TaskStatusArchived, 0, false},
		{"done to todo rejected", models.TaskStatusDone, models.TaskStatusToDo, apperrors.ValidationFailed, true},
		{"done to in progress rejected", models.TaskStatusDone, models.TaskStatusInProgress, apperrors.ValidationFailed, true},
		{"done to cancelled rejected", models.TaskStatusDone, models.TaskStatusCancelled, apperrors.ValidationFailed, true},
		{"cancelled to in progress rejected", models.TaskStatusCancelled, models.TaskStatusInProgress, apperrors.ValidationFailed, true},
		{"archived to done rejected", models.TaskStatusArchived, models.TaskStatusDone, apperrors.ValidationFailed, true},
		{"identical status is a conflict", models.TaskStatusInProgress, models.TaskStatusInProgress, apperrors.Conflict, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTaskTransition(tc.current, tc.next)
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, tc.wantKind, apperrors.KindOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIdenticalTaskStatusMessage(t *testing.T) {
	err := ValidateTaskTransition(models.TaskStatusDone, models.TaskStatusDone)
	require.Error(t, err)
	assert.Equal(t, "status not changed", apperrors.MessageOf(err))
}

func TestApplyTaskStatusTimes(t *testing.T) {
	begin := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	end := begin.Add(3 * time.Hour)

	task := &models.Task{Status: models.TaskStatusToDo}
	ApplyTaskStatus(task, models.TaskStatusInProgress, begin)
	require.NotNil(t, task.BeginTime)
	assert.Equal(t, begin, *task.BeginTime)
	assert.Nil(t, task.EndTime)

	ApplyTaskStatus(task, models.TaskStatusDone, end)
	require.NotNil(t, task.EndTime)
	assert.Equal(t, end, *task.EndTime)
	assert.Equal(t, begin, *task.BeginTime)
}

func TestApplyTaskStatusArchivedLeavesTimesAlone(t *testing.T) {
	begin := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	end := begin.Add(time.Hour)
	task := &models.Task{Status: models.TaskStatusDone, BeginTime: &begin, EndTime: &end}

	ApplyTaskStatus(task, models.TaskStatusArchived, end.Add(time.Hour))
	assert.Equal(t, begin, *task.BeginTime)
	assert.Equal(t, end, *task.EndTime)
}

func TestApplyStepStatus(t *testing.T) {
	now := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

	t.Run("started sets start time once", func(t *testing.T) {
		step := &models.Step{Status: models.StepStatusToDo}
		ApplyStepStatus(step, models.StepStatusStarted, now)
		require.NotNil(t, step.StartTime)
		assert.Equal(t, now, *step.StartTime)

		ApplyStepStatus(step, models.StepStatusStarted, now.Add(time.Hour))
		assert.Equal(t, now, *step.StartTime)
	})

	t.Run("finished sets end time once after start", func(t *testing.T) {
		step := &models.Step{Status: models.StepStatusToDo}
		ApplyStepStatus(step, models.StepStatusStarted, now)
		ApplyStepStatus(step, models.StepStatusFinished, now.Add(time.Hour))

		require.NotNil(t, step.EndTime)
		assert.Equal(t, now.Add(time.Hour), *step.EndTime)
	})

	t.Run("finished without start keeps end time unset", func(t *testing.T) {
		step := &models.Step{Status: models.StepStatusToDo}
		ApplyStepStatus(step, models.StepStatusFinished, now)

		assert.Equal(t, models.StepStatusFinished, step.Status)
		assert.Nil(t, step.StartTime)
		assert.Nil(t, step.EndTime)
	})

	t.Run("back to todo clears both timestamps", func(t *testing.T) {
		step := &models.Step{Status: models.StepStatusToDo}
		ApplyStepStatus(step, models.StepStatusStarted, now)
		ApplyStepStatus(step, models.StepStatusFinished, now.Add(time.Hour))
		ApplyStepStatus(step, models.StepStatusToDo, now.Add(2*time.Hour))

		assert.Nil(t, step.StartTime)
		assert.Nil(t, step.EndTime)
	})
}

func TestValidateStepStatusRejectsCancelled(t *testing.T) {
	err := ValidateStepStatus(models.StepStatusCancelled)
	require.Error(t, err)
	assert.Equal(t, apperrors.ValidationFailed, apperrors.KindOf(err))
}
