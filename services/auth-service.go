package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mohammedsw45/blue-basks/apperrors"
	"github.com/mohammedsw45/blue-basks/auth"
	"github.com/mohammedsw45/blue-basks/models"
)

// AuthService resolves the rows the pure capability predicates need and
// composes them into the per-operation checks. Every check assumes the actor
// is already authenticated; a missing identity never reaches this layer.
type AuthService struct {
	MembersCollection *mongo.Collection
}

func NewAuthService(membersCollection *mongo.Collection) *AuthService {
	return &AuthService{MembersCollection: membersCollection}
}

// RequireAdmin is the capability for project, team and member management and
// for list-all reads.
func (s *AuthService) RequireAdmin(actor auth.Actor) error {
	if !auth.IsAdmin(actor) {
		return apperrors.New(apperrors.Forbidden, "admin access required")
	}
	return nil
}

// MembershipFor returns the actor's member row in the given team, nil when
// the actor does not belong to it.
func (s *AuthService) MembershipFor(ctx context.Context, actor auth.Actor, teamID primitive.ObjectID) (*models.Member, error) {
	var member models.Member
	err := s.MembersCollection.FindOne(ctx, bson.M{"user_id": actor.ID, "team_id": teamID}).Decode(&member)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up membership: %v", err)
	}
	return &member, nil
}

// ViewersOf loads the member rows behind the task's viewer ids.
func (s *AuthService) ViewersOf(ctx context.Context, task *models.Task) ([]models.Member, error) {
	if len(task.ViewerIDs) == 0 {
		return nil, nil
	}

	cursor, err := s.MembersCollection.Find(ctx, bson.M{"_id": bson.M{"$in": task.ViewerIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to load task viewers: %v", err)
	}
	defer cursor.Close(ctx)

	var viewers []models.Member
	if err := cursor.All(ctx, &viewers); err != nil {
		return nil, fmt.Errorf("failed to decode task viewers: %v", err)
	}
	return viewers, nil
}

// RequireTaskCreate admits admins and active leaders of the requested team.
func (s *AuthService) RequireTaskCreate(ctx context.Context, actor auth.Actor, teamID primitive.ObjectID) error {
	if auth.IsAdmin(actor) {
		return nil
	}
	membership, err := s.MembershipFor(ctx, actor, teamID)
	if err != nil {
		return err
	}
	if !auth.IsActiveLeader(membership) {
		return apperrors.New(apperrors.Forbidden, "only an admin or the team leader can create tasks for this team")
	}
	return nil
}

// RequireTaskRead admits admins, the team's active leader and the task's
// viewers.
func (s *AuthService) RequireTaskRead(ctx context.Context, actor auth.Actor, task *models.Task) error {
	if auth.IsAdmin(actor) {
		return nil
	}
	membership, err := s.MembershipFor(ctx, actor, task.TeamID)
	if err != nil {
		return err
	}
	viewers, err := s.ViewersOf(ctx, task)
	if err != nil {
		return err
	}
	if !auth.CanViewTask(actor, membership, viewers) {
		return apperrors.New(apperrors.Forbidden, "you do not have access to this task")
	}
	return nil
}

// RequireTaskWrite narrows task mutation to admins and the team's active
// leader. Viewers may read, never mutate.
func (s *AuthService) RequireTaskWrite(ctx context.Context, actor auth.Actor, task *models.Task) error {
	if auth.IsAdmin(actor) {
		return nil
	}
	membership, err := s.MembershipFor(ctx, actor, task.TeamID)
	if err != nil {
		return err
	}
	if !auth.CanManageTeamScope(actor, membership) {
		return apperrors.New(apperrors.Forbidden, "only an admin or the team leader can modify this task")
	}
	return nil
}

// RequireStepAccess governs every step operation: admins, the team's active
// leader and the task's viewers.
func (s *AuthService) RequireStepAccess(ctx context.Context, actor auth.Actor, task *models.Task) error {
	if auth.IsAdmin(actor) {
		return nil
	}
	membership, err := s.MembershipFor(ctx, actor, task.TeamID)
	if err != nil {
		return err
	}
	viewers, err := s.ViewersOf(ctx, task)
	if err != nil {
		return err
	}
	if !auth.CanTouchStep(actor, membership, viewers) {
		return apperrors.New(apperrors.Forbidden, "you do not have access to this task's steps")
	}
	return nil
}
