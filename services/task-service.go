package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mohammedsw45/blue-basks/apperrors"
	"github.com/mohammedsw45/blue-basks/auth"
	"github.com/mohammedsw45/blue-basks/clients"
	"github.com/mohammedsw45/blue-basks/lifecycle"
	"github.com/mohammedsw45/blue-basks/logging"
	"github.com/mohammedsw45/blue-basks/models"
)

type TaskService struct {
	Client             *mongo.Client
	TasksCollection    *mongo.Collection
	StepsCollection    *mongo.Collection
	TeamsCollection    *mongo.Collection
	MembersCollection  *mongo.Collection
	ProjectsCollection *mongo.Collection
	Auth               *AuthService
	Notifications      *clients.NotificationClient
}

func NewTaskService(client *mongo.Client, tasks, steps, teams, members, projects *mongo.Collection, authService *AuthService, notifications *clients.NotificationClient) *TaskService {
	return &TaskService{
		Client:             client,
		TasksCollection:    tasks,
		StepsCollection:    steps,
		TeamsCollection:    teams,
		MembersCollection:  members,
		ProjectsCollection: projects,
		Auth:               authService,
		Notifications:      notifications,
	}
}

// missingViewerIDs returns the viewer ids that do not belong to the set of
// team member ids, preserving input order.
func missingViewerIDs(viewerIDs, teamMemberIDs []primitive.ObjectID) []primitive.ObjectID {
	allowed := make(map[primitive.ObjectID]bool, len(teamMemberIDs))
	for _, id := range teamMemberIDs {
		allowed[id] = true
	}

	var missing []primitive.ObjectID
	for _, id := range viewerIDs {
		if !allowed[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

// validateViewers enforces the referential invariant: every viewer id must
// be a member of the task's team. Violations name the offending ids.
func (s *TaskService) validateViewers(ctx context.Context, teamID primitive.ObjectID, viewerIDs []primitive.ObjectID) error {
	if len(viewerIDs) == 0 {
		return nil
	}

	cursor, err := s.MembersCollection.Find(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return fmt.Errorf("failed to load team members: %v", err)
	}
	defer cursor.Close(ctx)

	var memberIDs []primitive.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return fmt.Errorf("failed to decode member id: %v", err)
		}
		memberIDs = append(memberIDs, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("cursor error: %v", err)
	}

	if missing := missingViewerIDs(viewerIDs, memberIDs); len(missing) > 0 {
		hexes := make([]string, len(missing))
		for i, id := range missing {
			hexes[i] = id.Hex()
		}
		return apperrors.Newf(apperrors.ValidationFailed, "viewers must be members of the task's team, offending ids: %s", strings.Join(hexes, ", "))
	}
	return nil
}

type CreateTaskInput struct {
	TeamID                      primitive.ObjectID   `json:"teamId"`
	Title                       string               `json:"title"`
	Description                 string               `json:"description"`
	ImplementationDurationHours float64              `json:"implementationDurationHours"`
	ViewerIDs                   []primitive.ObjectID `json:"viewerIds"`
}

func (s *TaskService) CreateTask(ctx context.Context, actor auth.Actor, input CreateTaskInput) (*models.Task, error) {
	var team models.Team
	err := s.TeamsCollection.FindOne(ctx, bson.M{"_id": input.TeamID}).Decode(&team)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.New(apperrors.NotFound, "team not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch team: %v", err)
	}

	if err := s.Auth.RequireTaskCreate(ctx, actor, input.TeamID); err != nil {
		return nil, err
	}
	if input.Title == "" {
		return nil, apperrors.New(apperrors.ValidationFailed, "task title is required")
	}
	if err := s.validateViewers(ctx, input.TeamID, input.ViewerIDs); err != nil {
		return nil, err
	}
	if input.ImplementationDurationHours <= 0 {
		input.ImplementationDurationHours = 1.0
	}

	now := time.Now()
	viewerIDs := input.ViewerIDs
	if viewerIDs == nil {
		viewerIDs = []primitive.ObjectID{}
	}
	task := models.Task{
		ID:                          primitive.NewObjectID(),
		TeamID:                      input.TeamID,
		Title:                       input.Title,
		Description:                 input.Description,
		ImplementationDurationHours: input.ImplementationDurationHours,
		Status:                      models.TaskStatusToDo,
		ViewerIDs:                   viewerIDs,
		CreatedAt:                   now,
		UpdatedAt:                   now,
	}

	if _, err := s.TasksCollection.InsertOne(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %v", err)
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Created task %s in team %s", task.ID.Hex(), team.ID.Hex())
	return &task, nil
}

func (s *TaskService) loadTask(ctx context.Context, taskID primitive.ObjectID) (*models.Task, error) {
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

// GetTask returns the task with its steps and viewer member rows. Admins,
// the team leader and the task's viewers may read it.
func (s *TaskService) GetTask(ctx context.Context, actor auth.Actor, taskID primitive.ObjectID) (*models.TaskDetail, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.Auth.RequireTaskRead(ctx, actor, task); err != nil {
		return nil, err
	}

	cursor, err := s.StepsCollection.Find(ctx, bson.M{"task_id": task.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve steps: %v", err)
	}
	var steps []models.Step
	if err := cursor.All(ctx, &steps); err != nil {
		return nil, fmt.Errorf("failed to decode steps: %v", err)
	}

	viewers, err := s.Auth.ViewersOf(ctx, task)
	if err != nil {
		return nil, err
	}

	return &models.TaskDetail{Task: *task, Steps: steps, Viewers: viewers}, nil
}

// GetAllTasks lists every task, optionally filtered by status. Admin only.
func (s *TaskService) GetAllTasks(ctx context.Context, actor auth.Actor, status models.TaskStatus) ([]models.Task, error) {
	if err := s.Auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	filter := bson.M{}
	if status != "" {
		if !models.ValidTaskStatus(status) {
			return nil, apperrors.Newf(apperrors.ValidationFailed, "invalid task status: %s", status)
		}
		filter["status"] = status
	}

	cursor, err := s.TasksCollection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}
	return tasks, nil
}

// GetTasksByTeam lists a team's tasks for admins and the team's leader.
func (s *TaskService) GetTasksByTeam(ctx context.Context, actor auth.Actor, teamID primitive.ObjectID) ([]models.Task, error) {
	if !auth.IsAdmin(actor) {
		membership, err := s.Auth.MembershipFor(ctx, actor, teamID)
		if err != nil {
			return nil, err
		}
		if !auth.IsActiveLeader(membership) {
			return nil, apperrors.New(apperrors.Forbidden, "only an admin or the team leader can list this team's tasks")
		}
	}

	cursor, err := s.TasksCollection.Find(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}
	return tasks, nil
}

type UpdateTaskInput struct {
	Title                       *string               `json:"title,omitempty"`
	Description                 *string               `json:"description,omitempty"`
	ImplementationDurationHours *float64              `json:"implementationDurationHours,omitempty"`
	Status                      *models.TaskStatus    `json:"status,omitempty"`
	ViewerIDs                   *[]primitive.ObjectID `json:"viewerIds,omitempty"`
}

// UpdateTask mutates a task for admins and the team leader. A status change
// runs through the task state machine and its side effects commit in one
// transaction: starting a task promotes a To Do project to In Progress,
// finishing it forces remaining steps to Finished, cancelling it forces
// them to Cancelled.
func (s *TaskService) UpdateTask(ctx context.Context, actor auth.Actor, taskID primitive.ObjectID, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.Auth.RequireTaskWrite(ctx, actor, task); err != nil {
		return nil, err
	}

	if input.ViewerIDs != nil {
		if err := s.validateViewers(ctx, task.TeamID, *input.ViewerIDs); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	priorStatus := task.Status
	var nextStatus *models.TaskStatus
	if input.Status != nil {
		if err := lifecycle.ValidateTaskTransition(task.Status, *input.Status); err != nil {
			return nil, err
		}
		nextStatus = input.Status
	}

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.ImplementationDurationHours != nil {
		task.ImplementationDurationHours = *input.ImplementationDurationHours
	}
	if input.ViewerIDs != nil {
		task.ViewerIDs = *input.ViewerIDs
	}
	if nextStatus != nil {
		lifecycle.ApplyTaskStatus(task, *nextStatus, now)
	}
	task.UpdatedAt = now

	session, err := s.Client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %v", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		// Pin the status the transition was validated against so a concurrent
		// transition cannot be overwritten with a stale document.
		res, err := s.TasksCollection.ReplaceOne(sessCtx, bson.M{"_id": task.ID, "status": priorStatus}, task)
		if err != nil {
			return nil, fmt.Errorf("failed to update task: %v", err)
		}
		if err := requireMatched(res, "task"); err != nil {
			return nil, err
		}
		if nextStatus == nil {
			return nil, nil
		}

		switch *nextStatus {
		case models.TaskStatusInProgress:
			if err := s.promoteProjectIfToDo(sessCtx, task.TeamID, now); err != nil {
				return nil, err
			}
		case models.TaskStatusDone:
			if _, err := s.StepsCollection.UpdateMany(sessCtx,
				bson.M{"task_id": task.ID, "status": bson.M{"$ne": models.StepStatusFinished}},
				bson.M{"$set": bson.M{"status": models.StepStatusFinished}},
			); err != nil {
				return nil, fmt.Errorf("failed to finish steps: %v", err)
			}
		case models.TaskStatusCancelled:
			if _, err := s.StepsCollection.UpdateMany(sessCtx,
				bson.M{"task_id": task.ID, "status": bson.M{"$ne": models.StepStatusFinished}},
				bson.M{"$set": bson.M{"status": models.StepStatusCancelled}},
			); err != nil {
				return nil, fmt.Errorf("failed to cancel steps: %v", err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	if nextStatus != nil && nextStatus.IsTerminal() {
		logging.Logger.Infof("Event ID: TASK_CLOSED, Description: Task %s entered %s", task.ID.Hex(), task.Status)
		s.Notifications.Send(ctx, clients.NotificationEvent{
			EventType: "task_closed",
			EntityID:  task.ID.Hex(),
			Message:   fmt.Sprintf("Task %s is %s", task.Title, task.Status),
		})
	}
	return task, nil
}

// promoteProjectIfToDo propagates work starting upward: when the team's
// project is still To Do it moves to In Progress with its begin time set.
// The filter keys on the current status so concurrent promotions collapse
// into one.
func (s *TaskService) promoteProjectIfToDo(sessCtx mongo.SessionContext, teamID primitive.ObjectID, now time.Time) error {
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

// DeleteTask removes the task and its steps in one transaction.
func (s *TaskService) DeleteTask(ctx context.Context, actor auth.Actor, taskID primitive.ObjectID) error {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.Auth.RequireTaskWrite(ctx, actor, task); err != nil {
		return err
	}

	session, err := s.Client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %v", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := s.StepsCollection.DeleteMany(sessCtx, bson.M{"task_id": task.ID}); err != nil {
			return nil, fmt.Errorf("failed to delete steps: %v", err)
		}
		if _, err := s.TasksCollection.DeleteOne(sessCtx, bson.M{"_id": task.ID}); err != nil {
			return nil, fmt.Errorf("failed to delete task: %v", err)
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Deleted task %s with its steps", task.ID.Hex())
	return nil
}
