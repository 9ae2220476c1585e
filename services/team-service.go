package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mohammedsw45/blue-basks/apperrors"
	"github.com/mohammedsw45/blue-basks/auth"
	"github.com/mohammedsw45/blue-basks/logging"
	"github.com/mohammedsw45/blue-basks/models"
)

type TeamService struct {
	Client             *mongo.Client
	TeamsCollection    *mongo.Collection
	GroupsCollection   *mongo.Collection
	ProjectsCollection *mongo.Collection
	MembersCollection  *mongo.Collection
	TasksCollection    *mongo.Collection
	StepsCollection    *mongo.Collection
	Members            *MemberService
	Auth               *AuthService
}

func NewTeamService(client *mongo.Client, teams, groups, projects, members, tasks, steps *mongo.Collection, memberService *MemberService, authService *AuthService) *TeamService {
	return &TeamService{
		Client:             client,
		TeamsCollection:    teams,
		GroupsCollection:   groups,
		ProjectsCollection: projects,
		MembersCollection:  members,
		TasksCollection:    tasks,
		StepsCollection:    steps,
		Members:            memberService,
		Auth:               authService,
	}
}

type TeamMemberInput struct {
	UserID       primitive.ObjectID `json:"userId"`
	IsTeamLeader bool               `json:"isTeamLeader"`
}

type CreateTeamInput struct {
	ProjectID primitive.ObjectID `json:"projectId"`
	Name      string             `json:"name"`
	Members   []TeamMemberInput  `json:"members,omitempty"`
}

// CreateTeam creates an active team under a project that is still open,
// attaches it to the team_<name> group (created on first use, reused after)
// and registers the initial members through the member validation path.
func (s *TeamService) CreateTeam(ctx context.Context, actor auth.Actor, input CreateTeamInput) (*models.Team, error) {
	if err := s.Auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, apperrors.New(apperrors.ValidationFailed, "team name is required")
	}

	var project models.Project
	err := s.ProjectsCollection.FindOne(ctx, bson.M{"_id": input.ProjectID}).Decode(&project)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.New(apperrors.NotFound, "project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project: %v", err)
	}
	if project.Status.IsTerminal() {
		return nil, apperrors.Newf(apperrors.ValidationFailed, "Cannot add teams to a project that is %s", project.Status)
	}

	now := time.Now()
	team := models.Team{
		ID:        primitive.NewObjectID(),
		ProjectID: input.ProjectID,
		Name:      input.Name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	session, err := s.Client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %v", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		groupID, err := s.ensureGroup(sessCtx, team.Name)
		if err != nil {
			return nil, err
		}
		team.GroupID = groupID

		if _, err := s.TeamsCollection.InsertOne(sessCtx, team); err != nil {
			return nil, fmt.Errorf("failed to create team: %v", err)
		}

		for _, m := range input.Members {
			if err := s.Members.validateNewMember(sessCtx, &team, m.UserID, m.IsTeamLeader, nil); err != nil {
				return nil, err
			}
			member := models.Member{
				ID:           primitive.NewObjectID(),
				UserID:       m.UserID,
				TeamID:       team.ID,
				IsTeamLeader: m.IsTeamLeader,
				IsActive:     true,
				AddedAt:      now,
				UpdatedAt:    now,
			}
			if _, err := s.MembersCollection.InsertOne(sessCtx, member); err != nil {
				return nil, fmt.Errorf("failed to create member: %v", err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: TEAM_CREATED, Description: Created team %s under project %s", team.ID.Hex(), project.ID.Hex())
	return &team, nil
}

// ensureGroup creates or reuses the named group resource for a team.
func (s *TeamService) ensureGroup(ctx context.Context, teamName string) (primitive.ObjectID, error) {
	groupName := fmt.Sprintf("team_%s", teamName)

	var group models.Group
	err := s.GroupsCollection.FindOneAndUpdate(ctx,
		bson.M{"name": groupName},
		bson.M{"$setOnInsert": bson.M{"name": groupName}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&group)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to ensure group %s: %v", groupName, err)
	}
	return group.ID, nil
}

type UpdateTeamInput struct {
	Name    *string            `json:"name,omitempty"`
	Members *[]TeamMemberInput `json:"members,omitempty"`
}

// UpdateTeam renames the team and synchronizes its member list: members no
// longer listed are removed, new ones created, existing ones get their
// leader flag updated. An inactive team cannot be edited at all.
func (s *TeamService) UpdateTeam(ctx context.Context, actor auth.Actor, teamID primitive.ObjectID, input UpdateTeamInput) (*models.Team, error) {
	if err := s.Auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	team, err := s.loadTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !team.IsActive {
		return nil, apperrors.New(apperrors.ValidationFailed, "Cannot Edit this team")
	}

	now := time.Now()

	session, err := s.Client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %v", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if input.Name != nil && *input.Name != team.Name {
			team.Name = *input.Name
			groupID, err := s.ensureGroup(sessCtx, team.Name)
			if err != nil {
				return nil, err
			}
			team.GroupID = groupID
		}
		team.UpdatedAt = now
		if _, err := s.TeamsCollection.ReplaceOne(sessCtx, bson.M{"_id": team.ID}, team); err != nil {
			return nil, fmt.Errorf("failed to update team: %v", err)
		}

		if input.Members != nil {
			if err := s.syncMembers(sessCtx, team, *input.Members, now); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	return team, nil
}

func (s *TeamService) syncMembers(sessCtx mongo.SessionContext, team *models.Team, wanted []TeamMemberInput, now time.Time) error {
	cursor, err := s.MembersCollection.Find(sessCtx, bson.M{"team_id": team.ID})
	if err != nil {
		return fmt.Errorf("failed to load current members: %v", err)
	}
	var current []models.Member
	if err := cursor.All(sessCtx, &current); err != nil {
		return fmt.Errorf("failed to decode current members: %v", err)
	}

	currentByUser := make(map[primitive.ObjectID]models.Member, len(current))
	for _, m := range current {
		currentByUser[m.UserID] = m
	}
	wantedUsers := make(map[primitive.ObjectID]bool, len(wanted))
	for _, m := range wanted {
		wantedUsers[m.UserID] = true
	}

	var removedUserIDs []primitive.ObjectID
	for userID := range currentByUser {
		if !wantedUsers[userID] {
			removedUserIDs = append(removedUserIDs, userID)
		}
	}
	if len(removedUserIDs) > 0 {
		if _, err := s.MembersCollection.DeleteMany(sessCtx, bson.M{"team_id": team.ID, "user_id": bson.M{"$in": removedUserIDs}}); err != nil {
			return fmt.Errorf("failed to remove members: %v", err)
		}
	}

	for _, m := range wanted {
		existing, ok := currentByUser[m.UserID]
		if !ok {
			if err := s.Members.validateNewMember(sessCtx, team, m.UserID, m.IsTeamLeader, nil); err != nil {
				return err
			}
			member := models.Member{
				ID:           primitive.NewObjectID(),
				UserID:       m.UserID,
				TeamID:       team.ID,
				IsTeamLeader: m.IsTeamLeader,
				IsActive:     true,
				AddedAt:      now,
				UpdatedAt:    now,
			}
			if _, err := s.MembersCollection.InsertOne(sessCtx, member); err != nil {
				return fmt.Errorf("failed to create member: %v", err)
			}
			continue
		}

		if existing.IsTeamLeader == m.IsTeamLeader {
			continue
		}
		if m.IsTeamLeader {
			if err := s.Members.checkNoOtherLeader(sessCtx, team.ID, &existing.ID); err != nil {
				return err
			}
		}
		if _, err := s.MembersCollection.UpdateOne(sessCtx,
			bson.M{"_id": existing.ID},
			bson.M{"$set": bson.M{"is_team_leader": m.IsTeamLeader, "updated_at": now}},
		); err != nil {
			return fmt.Errorf("failed to update member: %v", err)
		}
	}
	return nil
}

func (s *TeamService) loadTeam(ctx context.Context, teamID primitive.ObjectID) (*models.Team, error) {
	var team models.Team
	err := s.TeamsCollection.FindOne(ctx, bson.M{"_id": teamID}).Decode(&team)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.New(apperrors.NotFound, "team not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch team: %v", err)
	}
	return &team, nil
}

func (s *TeamService) GetTeamByID(ctx context.Context, actor auth.Actor, teamID primitive.ObjectID) (*models.Team, error) {
	if err := s.Auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.loadTeam(ctx, teamID)
}

func (s *TeamService) GetAllTeams(ctx context.Context, actor auth.Actor) ([]models.Team, error) {
	if err := s.Auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	cursor, err := s.TeamsCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve teams: %v", err)
	}
	defer cursor.Close(ctx)

	var teams []models.Team
	if err := cursor.All(ctx, &teams); err != nil {
		return nil, fmt.Errorf("failed to decode teams: %v", err)
	}
	return teams, nil
}

// GetTeamsForUser lists the teams the actor belongs to. Any authenticated
// user may call it for themselves.
func (s *TeamService) GetTeamsForUser(ctx context.Context, actor auth.Actor) ([]models.Team, error) {
	cursor, err := s.MembersCollection.Find(ctx, bson.M{"user_id": actor.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve memberships: %v", err)
	}
	var memberships []models.Member
	if err := cursor.All(ctx, &memberships); err != nil {
		return nil, fmt.Errorf("failed to decode memberships: %v", err)
	}
	if len(memberships) == 0 {
		return nil, nil
	}

	teamIDs := make([]primitive.ObjectID, 0, len(memberships))
	for _, m := range memberships {
		teamIDs = append(teamIDs, m.TeamID)
	}

	teamsCursor, err := s.TeamsCollection.Find(ctx, bson.M{"_id": bson.M{"$in": teamIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve teams: %v", err)
	}
	defer teamsCursor.Close(ctx)

	var teams []models.Team
	if err := teamsCursor.All(ctx, &teams); err != nil {
		return nil, fmt.Errorf("failed to decode teams: %v", err)
	}
	return teams, nil
}

// DeleteTeam removes the team and everything it owns in one transaction.
func (s *TeamService) DeleteTeam(ctx context.Context, actor auth.Actor, teamID primitive.ObjectID) error {
	if err := s.Auth.RequireAdmin(actor); err != nil {
		return err
	}

	if _, err := s.loadTeam(ctx, teamID); err != nil {
		return err
	}

	session, err := s.Client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %v", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		cursor, err := s.TasksCollection.Find(sessCtx, bson.M{"team_id": teamID})
		if err != nil {
			return nil, fmt.Errorf("failed to collect tasks: %v", err)
		}
		var taskIDs []primitive.ObjectID
		for cursor.Next(sessCtx) {
			var doc struct {
				ID primitive.ObjectID `bson:"_id"`
			}
			if err := cursor.Decode(&doc); err != nil {
				cursor.Close(sessCtx)
				return nil, fmt.Errorf("failed to decode task id: %v", err)
			}
			taskIDs = append(taskIDs, doc.ID)
		}
		cursor.Close(sessCtx)

		if len(taskIDs) > 0 {
			if _, err := s.StepsCollection.DeleteMany(sessCtx, bson.M{"task_id": bson.M{"$in": taskIDs}}); err != nil {
				return nil, fmt.Errorf("failed to delete steps: %v", err)
			}
		}
		if _, err := s.TasksCollection.DeleteMany(sessCtx, bson.M{"team_id": teamID}); err != nil {
			return nil, fmt.Errorf("failed to delete tasks: %v", err)
		}
		if _, err := s.MembersCollection.DeleteMany(sessCtx, bson.M{"team_id": teamID}); err != nil {
			return nil, fmt.Errorf("failed to delete members: %v", err)
		}
		if _, err := s.TeamsCollection.DeleteOne(sessCtx, bson.M{"_id": teamID}); err != nil {
			return nil, fmt.Errorf("failed to delete team: %v", err)
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	logging.Logger.Infof("Event ID: TEAM_DELETED, Description: Deleted team %s with all members, tasks and steps", teamID.Hex())
	return nil
}
