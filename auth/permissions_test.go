package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mohammedsw45/blue-basks/models"
)

func TestIsAdmin(t *testing.T) {
	assert.True(t, IsAdmin(Actor{IsSuperuser: true}))
	assert.False(t, IsAdmin(Actor{IsStaff: true}), "staff flag alone does not grant admin capability")
	assert.False(t, IsAdmin(Actor{}))
}

func TestIsActiveLeader(t *testing.T) {
	assert.False(t, IsActiveLeader(nil))
	assert.False(t, IsActiveLeader(&models.Member{IsTeamLeader: true, IsActive: false}))
	assert.False(t, IsActiveLeader(&models.Member{IsTeamLeader: false, IsActive: true}))
	assert.True(t, IsActiveLeader(&models.Member{IsTeamLeader: true, IsActive: true}))
}

func TestIsViewer(t *testing.T) {
	userID := primitive.NewObjectID()
	actor := Actor{ID: userID}

	viewers := []models.Member{
		{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID()},
		{ID: primitive.NewObjectID(), UserID: userID},
	}
	assert.True(t, IsViewer(actor, viewers))
	assert.False(t, IsViewer(Actor{ID: primitive.NewObjectID()}, viewers))
	assert.False(t, IsViewer(actor, nil))
}

func TestCanViewTask(t *testing.T) {
	userID := primitive.NewObjectID()
	actor := Actor{ID: userID}
	leader := &models.Member{UserID: userID, IsTeamLeader: true, IsActive: true}
	viewerRows := []models.Member{{UserID: userID}}

	assert.True(t, CanViewTask(Actor{IsSuperuser: true}, nil, nil), "admin reads any task")
	assert.True(t, CanViewTask(actor, leader, nil), "leader reads team tasks")
	assert.True(t, CanViewTask(actor, nil, viewerRows), "viewer reads the task")
	assert.False(t, CanViewTask(actor, nil, nil))
}

func TestViewerCannotManageTeamScope(t *testing.T) {
	userID := primitive.NewObjectID()
	actor := Actor{ID: userID}
	plainMembership := &models.Member{UserID: userID, IsActive: true}

	assert.False(t, CanManageTeamScope(actor, plainMembership), "plain members and viewers may not mutate tasks")
	assert.True(t, CanManageTeamScope(actor, &models.Member{UserID: userID, IsTeamLeader: true, IsActive: true}))
}

func TestCanTouchStepAdmitsViewers(t *testing.T) {
	userID := primitive.NewObjectID()
	actor := Actor{ID: userID}
	viewerRows := []models.Member{{UserID: userID}}

	assert.True(t, CanTouchStep(actor, nil, viewerRows))
	assert.False(t, CanTouchStep(actor, nil, nil))
}

func TestActorContextRoundTrip(t *testing.T) {
	actor := Actor{ID: primitive.NewObjectID(), Email: "a@b.c", IsSuperuser: true}
	ctx := WithActor(context.Background(), actor)

	got, ok := ActorFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, actor, got)

	_, ok = ActorFrom(context.Background())
	assert.False(t, ok)
}
