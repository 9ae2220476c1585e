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
	"github.com/mohammedsw45/blue-basks/clients"
	"github.com/mohammedsw45/blue-basks/lifecycle"
	"github.com/mohammedsw45/blue-basks/logging"
	"github.com/mohammedsw45/blue-basks/models"
)

type ProjectService struct {
	Client             *mongo.Client
	ProjectsCollection *mongo.Collection
	TeamsCollection    *mongo.Collection
	MembersCollection  *mongo.Collection
	TasksCollection    *mongo.Collection
	StepsCollection    *mongo.Collection
	Auth               *AuthService
	Notifications      *clients.NotificationClient
}

func NewProjectService(client *mongo.Client, projects, teams, members, tasks, steps *mongo.Collection, authService *AuthService, notifications *clients.NotificationClient) *ProjectService {
	return &ProjectService{
		Client:             client,
		ProjectsCollection: projects,
		TeamsCollection:    teams,
		MembersCollection:  members,
		TasksCollection:    tasks,
		StepsCollection:    steps,
		Auth:               authService,
		Notifications:      notifications,
	}
}

type CreateProjectInput struct {
	Name                       string  `json:"name"`
	Color                      string  `json:"color"`
	ImplementationDurationDays float64 `json:"implementationDurationDays"`
}

func (s *ProjectService) CreateProject(ctx context.Context, actor auth.Actor, input CreateProjectInput) (*models.Project, error) {
	if err := s.Auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, apperrors.New(apperrors.ValidationFailed, "project name is required")
	}
	if input.ImplementationDurationDays <= 0 {
		input.ImplementationDurationDays = 1.0
	}

	now := time.Now()
	project := models.Project{
		ID:                         primitive.NewObjectID(),
		Name:                       input.Name,
		Color:                      input.Color,
		ImplementationDurationDays: input.ImplementationDurationDays,
		Status:                     models.ProjectStatusToDo,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}

	if _, err := s.ProjectsCollection.InsertOne(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %v", err)
	}

	logging.Logger.Infof("Event ID: PROJECT_CREATED, Description: Created project %s", project.ID.Hex())
	return &project, nil
}

func (s *ProjectService) GetProjectByID(ctx context.Context, actor auth.Actor, projectID primitive.ObjectID) (*models.Project, error) {
	if err := s.Auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.loadProject(ctx, projectID)
}

func (s *ProjectService) loadProject(ctx context.Context, projectID primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	err := s.ProjectsCollection.FindOne(ctx, bson.M{"_id": projectID}).Decode(&project)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.New(apperrors.NotFound, "project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project: %v", err)
	}
	return &project, nil
}

func (s *ProjectService) GetAllProjects(ctx context.Context, actor auth.Actor) ([]models.Project, error) {
	if err := s.Auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	cursor, err := s.ProjectsCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve projects: %v", err)
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %v", err)
	}
	return projects, nil
}

type UpdateProjectInput struct {
	Name                       *string               `json:"name,omitempty"`
	Color                      *string               `json:"color,omitempty"`
	ImplementationDurationDays *float64              `json:"implementationDurationDays,omitempty"`
	Status                     *models.ProjectStatus `json:"status,omitempty"`
}

// UpdateProject applies field changes and, when a status is supplied, runs
// it through the project state machine. Entering Done or Cancelled triggers
// the downward cascade; the whole update commits or rolls back as one
// transaction.
func (s *ProjectService) UpdateProject(ctx context.Context, actor auth.Actor, projectID primitive.ObjectID, input UpdateProjectInput) (*models.Project, error) {
	if err := s.Auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	priorStatus := project.Status
	enteringTerminal := false
	now := time.Now()
	if input.Status != nil {
		if err := lifecycle.ValidateProjectTransition(project.Status, *input.Status); err != nil {
			return nil, err
		}
		enteringTerminal = input.Status.IsTerminal() && !project.Status.IsTerminal()
		lifecycle.ApplyProjectStatus(project, *input.Status, now)
	}
	if input.Name != nil {
		project.Name = *input.Name
	}
	if input.Color != nil {
		project.Color = *input.Color
	}
	if input.ImplementationDurationDays != nil {
		project.ImplementationDurationDays = *input.ImplementationDurationDays
	}
	project.UpdatedAt = now

	session, err := s.Client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %v", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		// The filter pins the status the transition was validated against, so
		// a concurrent transition makes this a no-op instead of a stale overwrite.
		res, err := s.ProjectsCollection.ReplaceOne(sessCtx, bson.M{"_id": project.ID, "status": priorStatus}, project)
		if err != nil {
			return nil, fmt.Errorf("failed to update project: %v", err)
		}
		if err := requireMatched(res, "project"); err != nil {
			return nil, err
		}
		if enteringTerminal {
			if err := s.cascadeProjectClosed(sessCtx, project.ID, now); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	if enteringTerminal {
		logging.Logger.Infof("Event ID: PROJECT_CLOSED, Description: Project %s entered %s, dependents deactivated", project.ID.Hex(), project.Status)
		s.Notifications.Send(ctx, clients.NotificationEvent{
			EventType: "project_closed",
			EntityID:  project.ID.Hex(),
			Message:   fmt.Sprintf("Project %s is %s", project.Name, project.Status),
		})
	}
	return project, nil
}

// cascadeProjectClosed deactivates every team and member under the project,
// cancels its non-terminal tasks and finishes their steps. All updates are
// bulk operations keyed by parent ids so the transaction either applies the
// whole cascade or none of it.
func (s *ProjectService) cascadeProjectClosed(sessCtx mongo.SessionContext, projectID primitive.ObjectID, now time.Time) error {
	teamIDs, err := s.collectIDs(sessCtx, s.TeamsCollection, bson.M{"project_id": projectID})
	if err != nil {
		return fmt.Errorf("failed to collect team ids: %v", err)
	}
	if len(teamIDs) == 0 {
		return nil
	}

	if _, err := s.TeamsCollection.UpdateMany(sessCtx,
		bson.M{"project_id": projectID},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": now}},
	); err != nil {
		return fmt.Errorf("failed to deactivate teams: %v", err)
	}

	if _, err := s.MembersCollection.UpdateMany(sessCtx,
		bson.M{"team_id": bson.M{"$in": teamIDs}},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": now}},
	); err != nil {
		return fmt.Errorf("failed to deactivate members: %v", err)
	}

	taskIDs, err := s.collectIDs(sessCtx, s.TasksCollection, bson.M{
		"team_id": bson.M{"$in": teamIDs},
		"status":  bson.M{"$nin": bson.A{models.TaskStatusDone, models.TaskStatusArchived}},
	})
	if err != nil {
		return fmt.Errorf("failed to collect task ids: %v", err)
	}
	if len(taskIDs) == 0 {
		return nil
	}

	if _, err := s.TasksCollection.UpdateMany(sessCtx,
		bson.M{"_id": bson.M{"$in": taskIDs}},
		bson.M{"$set": bson.M{"status": models.TaskStatusCancelled, "updated_at": now}},
	); err != nil {
		return fmt.Errorf("failed to cancel tasks: %v", err)
	}
	// end_time is set once: only tasks that never reached a terminal status
	// before get stamped now.
	if _, err := s.TasksCollection.UpdateMany(sessCtx,
		bson.M{"_id": bson.M{"$in": taskIDs}, "end_time": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"end_time": now}},
	); err != nil {
		return fmt.Errorf("failed to stamp task end times: %v", err)
	}

	if _, err := s.StepsCollection.UpdateMany(sessCtx,
		bson.M{"task_id": bson.M{"$in": taskIDs}, "status": bson.M{"$ne": models.StepStatusFinished}},
		bson.M{"$set": bson.M{"status": models.StepStatusFinished}},
	); err != nil {
		return fmt.Errorf("failed to finish steps: %v", err)
	}
	return nil
}

func (s *ProjectService) collectIDs(ctx context.Context, coll *mongo.Collection, filter bson.M) ([]primitive.ObjectID, error) {
	cursor, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}

// DeleteProject removes the project and everything it owns: teams, their
// members, their tasks and those tasks' steps, in one transaction.
func (s *ProjectService) DeleteProject(ctx context.Context, actor auth.Actor, projectID primitive.ObjectID) error {
	if err := s.Auth.RequireAdmin(actor); err != nil {
		return err
	}

	if _, err := s.loadProject(ctx, projectID); err != nil {
		return err
	}

	session, err := s.Client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %v", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		teamIDs, err := s.collectIDs(sessCtx, s.TeamsCollection, bson.M{"project_id": projectID})
		if err != nil {
			return nil, fmt.Errorf("failed to collect team ids: %v", err)
		}
		if len(teamIDs) > 0 {
			taskIDs, err := s.collectIDs(sessCtx, s.TasksCollection, bson.M{"team_id": bson.M{"$in": teamIDs}})
			if err != nil {
				return nil, fmt.Errorf("failed to collect task ids: %v", err)
			}
			if len(taskIDs) > 0 {
				if _, err := s.StepsCollection.DeleteMany(sessCtx, bson.M{"task_id": bson.M{"$in": taskIDs}}); err != nil {
					return nil, fmt.Errorf("failed to delete steps: %v", err)
				}
			}
			if _, err := s.TasksCollection.DeleteMany(sessCtx, bson.M{"team_id": bson.M{"$in": teamIDs}}); err != nil {
				return nil, fmt.Errorf("failed to delete tasks: %v", err)
			}
			if _, err := s.MembersCollection.DeleteMany(sessCtx, bson.M{"team_id": bson.M{"$in": teamIDs}}); err != nil {
				return nil, fmt.Errorf("failed to delete members: %v", err)
			}
			if _, err := s.TeamsCollection.DeleteMany(sessCtx, bson.M{"project_id": projectID}); err != nil {
				return nil, fmt.Errorf("failed to delete teams: %v", err)
			}
		}
		if _, err := s.ProjectsCollection.DeleteOne(sessCtx, bson.M{"_id": projectID}); err != nil {
			return nil, fmt.Errorf("failed to delete project: %v", err)
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	logging.Logger.Infof("Event ID: PROJECT_DELETED, Description: Deleted project %s with all teams, tasks and steps", projectID.Hex())
	return nil
}
