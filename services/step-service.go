package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mohammedsw45/blue-basks/apperrors"
	"github.com/mohammedsw45/blue-basks/auth"
	"github.com/mohammedsw45/blue-basks/lifecycle"
	"github.com/mohammedsw45/blue-basks/logging"
	"github.com/mohammedsw45/blue-basks/models"
)

type StepService struct {
	Client             *mongo.Client
	StepsCollection    *mongo.Collection
	TasksCollection    *mongo.Collection
	TeamsCollection    *mongo.Collection
	ProjectsCollection *mongo.Collection
	Auth               *AuthService
}

func NewStepService(client *mongo.Client, steps, tasks, teams, projects *mongo.Collection, authService *AuthService) *StepService {
	return &StepService{
		Client:             client,
		StepsCollection:    steps,
		TasksCollection:    tasks,
		TeamsCollection:    teams,
		ProjectsCollection: projects,
		Auth:               authService,
	}
}

func (s *StepService) loadTask(ctx context.Context, taskID primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := s.TasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.New(apperrors.NotFound, "task not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch task: %v", err)
	}
	return &task, nil
}

func (s *StepService) loadStep(ctx context.Context, stepID primitive.ObjectID) (*models.Step, error) {
	var step models.Step
	err := s.StepsCollection.FindOne(ctx, bson.M{"_id": stepID}).Decode(&step)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.New(apperrors.NotFound, "step not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch step: %v", err)
	}
	return &step, nil
}

type CreateStepInput struct {
	TaskID      primitive.ObjectID `json:"taskId"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Status      models.StepStatus  `json:"status,omitempty"`
}

// CreateStep adds a step under a task that is still open. A step created
// directly as Started gets its start time and may promote the project.
func (s *StepService) CreateStep(ctx context.Context, actor auth.Actor, input CreateStepInput) (*models.Step, error) {
	task, err := s.loadTask(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}
	if err := s.Auth.RequireStepAccess(ctx, actor, task); err != nil {
		return nil, err
	}
	if task.Status.IsTerminal() {
		return nil, apperrors.Newf(apperrors.ValidationFailed, "Cannot add steps to a task that is %s", task.Status)
	}
	if input.Title == "" {
		return nil, apperrors.New(apperrors.ValidationFailed, "step title is required")
	}

	status := input.Status
	if status == "" {
		status = models.StepStatusToDo
	}
	if err := lifecycle.ValidateStepStatus(status); err != nil {
		return nil, err
	}

	now := time.Now()
	step := models.Step{
		ID:          primitive.NewObjectID(),
		TaskID:      task.ID,
		Title:       input.Title,
		Description: input.Description,
	}
	lifecycle.ApplyStepStatus(&step, status, now)

	session, err := s.Client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %v", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := s.StepsCollection.InsertOne(sessCtx, step); err != nil {
			return nil, fmt.Errorf("failed to create step: %v", err)
		}
		if step.Status == models.StepStatusStarted {
			if err := s.promoteProjectIfToDo(sessCtx, task.TeamID, now); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: STEP_CREATED, Description: Created step %s under task %s", step.ID.Hex(), task.ID.Hex())
	return &step, nil
}

func (s *StepService) promoteProjectIfToDo(sessCtx mongo.SessionContext, teamID primitive.ObjectID, now time.Time) error {
	var team models.Team
	if err := s.TeamsCollection.FindOne(sessCtx, bson.M{"_id": teamID}).Decode(&team); err != nil {
		return fmt.Errorf("failed to fetch team: %v", err)
	}

	_, err := s.ProjectsCollection.UpdateOne(sessCtx,
		bson.M{"_id": team.ProjectID, "status": models.ProjectStatusToDo},
		bson.M{"$set": bson.M{"status": models.ProjectStatusInProgress, "begin_time": now, "updated_at": now}},
	)
	if err != nil {
		return fmt.Errorf("failed to promote project: %v", err)
	}
	return nil
}

func (s *StepService) GetStep(ctx context.Context, actor auth.Actor, stepID primitive.ObjectID) (*models.Step, error) {
	step, err := s.loadStep(ctx, stepID)
	if err != nil {
		return nil, err
	}
	task, err := s.loadTask(ctx, step.TaskID)
	if err != nil {
		return nil, err
	}
	if err := s.Auth.RequireStepAccess(ctx, actor, task); err != nil {
		return nil, err
	}
	return step, nil
}

func (s *StepService) GetStepsByTask(ctx context.Context, actor auth.Actor, taskID primitive.ObjectID) ([]models.Step, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.Auth.RequireStepAccess(ctx, actor, task); err != nil {
		return nil, err
	}

	cursor, err := s.StepsCollection.Find(ctx, bson.M{"task_id": taskID})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve steps: %v", err)
	}
	defer cursor.Close(ctx)

	var steps []models.Step
	if err := cursor.All(ctx, &steps); err != nil {
		return nil, fmt.Errorf("failed to decode steps: %v", err)
	}
	return steps, nil
}

type UpdateStepInput struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Status      *models.StepStatus `json:"status,omitempty"`
}

// UpdateStep applies field changes and the step timestamp rules. A step
// moving to Started while the project is still To Do promotes the project,
// in the same transaction.
func (s *StepService) UpdateStep(ctx context.Context, actor auth.Actor, stepID primitive.ObjectID, input UpdateStepInput) (*models.Step, error) {
	step, err := s.loadStep(ctx, stepID)
	if err != nil {
		return nil, err
	}
	task, err := s.loadTask(ctx, step.TaskID)
	if err != nil {
		return nil, err
	}
	if err := s.Auth.RequireStepAccess(ctx, actor, task); err != nil {
		return nil, err
	}

	now := time.Now()
	priorStatus := step.Status
	startedNow := false
	if input.Status != nil {
		if err := lifecycle.ValidateStepStatus(*input.Status); err != nil {
			return nil, err
		}
		startedNow = *input.Status == models.StepStatusStarted && step.Status != models.StepStatusStarted
		lifecycle.ApplyStepStatus(step, *input.Status, now)
	}
	if input.Title != nil {
		step.Title = *input.Title
	}
	if input.Description != nil {
		step.Description = *input.Description
	}

	session, err := s.Client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %v", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		res, err := s.StepsCollection.ReplaceOne(sessCtx, bson.M{"_id": step.ID, "status": priorStatus}, step)
		if err != nil {
			return nil, fmt.Errorf("failed to update step: %v", err)
		}
		if err := requireMatched(res, "step"); err != nil {
			return nil, err
		}
		if startedNow {
			if err := s.promoteProjectIfToDo(sessCtx, task.TeamID, now); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	return step, nil
}

func (s *StepService) DeleteStep(ctx context.Context, actor auth.Actor, stepID primitive.ObjectID) error {
	step, err := s.loadStep(ctx, stepID)
	if err != nil {
		return err
	}
	task, err := s.loadTask(ctx, step.TaskID)
	if err != nil {
		return err
	}
	if err := s.Auth.RequireStepAccess(ctx, actor, task); err != nil {
		return err
	}

	if _, err := s.StepsCollection.DeleteOne(ctx, bson.M{"_id": step.ID}); err != nil {
		return fmt.Errorf("failed to delete step: %v", err)
	}

	logging.Logger.Infof("Event ID: STEP_DELETED, Description: Deleted step %s", step.ID.Hex())
	return nil
}
