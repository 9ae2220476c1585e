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
	"github.com/mohammedsw45/blue-basks/logging"
	"github.com/mohammedsw45/blue-basks/models"
)

type MemberService struct {
	MembersCollection *mongo.Collection
	TeamsCollection   *mongo.Collection
	UsersCollection   *mongo.Collection
	Auth              *AuthService
	Notifications     *clients.NotificationClient
}

func NewMemberService(membersCollection, teamsCollection, usersCollection *mongo.Collection, authService *AuthService, notifications *clients.NotificationClient) *MemberService {
	return &MemberService{
		MembersCollection: membersCollection,
		TeamsCollection:   teamsCollection,
		UsersCollection:   usersCollection,
		Auth:              authService,
		Notifications:     notifications,
	}
}

type AddMemberInput struct {
	UserID       primitive.ObjectID `json:"userId"`
	TeamID       primitive.ObjectID `json:"teamId"`
	IsTeamLeader bool               `json:"isTeamLeader"`
}

// validateNewMember enforces the membership invariants: active team, user
// exists, (user, team) unique, at most one active leader per team. Team
// creation and update run members through the same path. excludeID skips a
// member row in the leader check, for updates of that row itself.
func (s *MemberService) validateNewMember(ctx context.Context, team *models.Team, userID primitive.ObjectID, isTeamLeader bool, excludeID *primitive.ObjectID) error {
	if !team.IsActive {
		return apperrors.New(apperrors.ValidationFailed, "The team is not active")
	}

	userCount, err := s.UsersCollection.CountDocuments(ctx, bson.M{"_id": userID})
	if err != nil {
		return fmt.Errorf("failed to check user: %v", err)
	}
	if userCount == 0 {
		return apperrors.New(apperrors.NotFound, "user not found")
	}

	memberFilter := bson.M{"user_id": userID, "team_id": team.ID}
	if excludeID != nil {
		memberFilter["_id"] = bson.M{"$ne": *excludeID}
	}
	existing, err := s.MembersCollection.CountDocuments(ctx, memberFilter)
	if err != nil {
		return fmt.Errorf("failed to check existing membership: %v", err)
	}
	if existing > 0 {
		return apperrors.New(apperrors.ValidationFailed, "This user is already a member of this team.")
	}

	if isTeamLeader {
		if err := s.checkNoOtherLeader(ctx, team.ID, excludeID); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemberService) checkNoOtherLeader(ctx context.Context, teamID primitive.ObjectID, excludeID *primitive.ObjectID) error {
	leaderFilter := bson.M{"team_id": teamID, "is_team_leader": true, "is_active": true}
	if excludeID != nil {
		leaderFilter["_id"] = bson.M{"$ne": *excludeID}
	}
	leaders, err := s.MembersCollection.CountDocuments(ctx, leaderFilter)
	if err != nil {
		return fmt.Errorf("failed to check team leader: %v", err)
	}
	if leaders > 0 {
		return apperrors.New(apperrors.ValidationFailed, "This team already has a team leader.")
	}
	return nil
}

func (s *MemberService) AddMember(ctx context.Context, actor auth.Actor, input AddMemberInput) (*models.Member, error) {
	if err := s.Auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	var team models.Team
	err := s.TeamsCollection.FindOne(ctx, bson.M{"_id": input.TeamID}).Decode(&team)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.New(apperrors.NotFound, "team not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch team: %v", err)
	}

	if err := s.validateNewMember(ctx, &team, input.UserID, input.IsTeamLeader, nil); err != nil {
		return nil, err
	}

	now := time.Now()
	member := models.Member{
		ID:           primitive.NewObjectID(),
		UserID:       input.UserID,
		TeamID:       input.TeamID,
		IsTeamLeader: input.IsTeamLeader,
		IsActive:     true,
		AddedAt:      now,
		UpdatedAt:    now,
	}

	if _, err := s.MembersCollection.InsertOne(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to create member: %v", err)
	}

	logging.Logger.Infof("Event ID: MEMBER_ADDED, Description: Added member %s to team %s", member.ID.Hex(), team.ID.Hex())
	s.Notifications.Send(ctx, clients.NotificationEvent{
		EventType: "member_added",
		EntityID:  member.ID.Hex(),
		Message:   fmt.Sprintf("You were added to team %s", team.Name),
	})
	return &member, nil
}

type UpdateMemberInput struct {
	IsTeamLeader *bool `json:"isTeamLeader,omitempty"`
	IsActive     *bool `json:"isActive,omitempty"`
}

// leaderAfterUpdate reports whether the member ends up as an active team
// leader once the input is applied. Leader uniqueness has to be re-verified
// in that case, including when a deactivated leader is reactivated without
// the leader flag appearing in the input.
func leaderAfterUpdate(member *models.Member, input UpdateMemberInput) bool {
	leader := member.IsTeamLeader
	if input.IsTeamLeader != nil {
		leader = *input.IsTeamLeader
	}
	active := member.IsActive
	if input.IsActive != nil {
		active = *input.IsActive
	}
	return leader && active
}

func (s *MemberService) UpdateMember(ctx context.Context, actor auth.Actor, memberID primitive.ObjectID, input UpdateMemberInput) (*models.Member, error) {
	if err := s.Auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	var member models.Member
	err := s.MembersCollection.FindOne(ctx, bson.M{"_id": memberID}).Decode(&member)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.New(apperrors.NotFound, "member not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member: %v", err)
	}

	if leaderAfterUpdate(&member, input) {
		if err := s.checkNoOtherLeader(ctx, member.TeamID, &member.ID); err != nil {
			return nil, err
		}
	}

	set := bson.M{"updated_at": time.Now()}
	if input.IsTeamLeader != nil {
		set["is_team_leader"] = *input.IsTeamLeader
	}
	if input.IsActive != nil {
		set["is_active"] = *input.IsActive
	}

	if _, err := s.MembersCollection.UpdateOne(ctx, bson.M{"_id": memberID}, bson.M{"$set": set}); err != nil {
		return nil, fmt.Errorf("failed to update member: %v", err)
	}

	if err := s.MembersCollection.FindOne(ctx, bson.M{"_id": memberID}).Decode(&member); err != nil {
		return nil, fmt.Errorf("failed to retrieve updated member: %v", err)
	}
	return &member, nil
}

func (s *MemberService) RemoveMember(ctx context.Context, actor auth.Actor, memberID primitive.ObjectID) error {
	if err := s.Auth.RequireAdmin(actor); err != nil {
		return err
	}

	result, err := s.MembersCollection.DeleteOne(ctx, bson.M{"_id": memberID})
	if err != nil {
		return fmt.Errorf("failed to remove member: %v", err)
	}
	if result.DeletedCount == 0 {
		return apperrors.New(apperrors.NotFound, "member not found")
	}

	logging.Logger.Infof("Event ID: MEMBER_REMOVED, Description: Removed member %s", memberID.Hex())
	return nil
}

func (s *MemberService) GetMemberByID(ctx context.Context, actor auth.Actor, memberID primitive.ObjectID) (*models.Member, error) {
	if err := s.Auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	var member models.Member
	err := s.MembersCollection.FindOne(ctx, bson.M{"_id": memberID}).Decode(&member)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.New(apperrors.NotFound, "member not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member: %v", err)
	}
	return &member, nil
}

func (s *MemberService) GetAllMembers(ctx context.Context, actor auth.Actor) ([]models.Member, error) {
	if err := s.Auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	cursor, err := s.MembersCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve members: %v", err)
	}
	defer cursor.Close(ctx)

	var members []models.Member
	if err := cursor.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("failed to decode members: %v", err)
	}
	return members, nil
}
