package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member links a user to a team. A (user, team) pair is unique and a team
// holds at most one active member with IsTeamLeader set.
type Member struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"user_id" json:"userId"`
	TeamID       primitive.ObjectID `bson:"team_id" json:"teamId"`
	IsTeamLeader bool               `bson:"is_team_leader" json:"isTeamLeader"`
	IsActive     bool               `bson:"is_active" json:"isActive"`
	AddedAt      time.Time          `bson:"added_at" json:"addedAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}
