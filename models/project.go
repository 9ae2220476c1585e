package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectStatus string

const (
	ProjectStatusToDo       ProjectStatus = "To Do"
	ProjectStatusInProgress ProjectStatus = "In Progress"
	ProjectStatusDone       ProjectStatus = "Done"
	ProjectStatusCancelled  ProjectStatus = "Cancelled"
)

// IsTerminal reports whether no further transitions are permitted.
func (s ProjectStatus) IsTerminal() bool {
	return s == ProjectStatusDone || s == ProjectStatusCancelled
}

func ValidProjectStatus(s ProjectStatus) bool {
	switch s {
	case ProjectStatusToDo, ProjectStatusInProgress, ProjectStatusDone, ProjectStatusCancelled:
		return true
	}
	return false
}

type Project struct {
	ID                         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                       string             `bson:"name" json:"name"`
	Color                      string             `bson:"color" json:"color"`
	ImplementationDurationDays float64            `bson:"implementation_duration_days" json:"implementationDurationDays"`
	Status                     ProjectStatus      `bson:"status" json:"status"`
	BeginTime                  *time.Time         `bson:"begin_time,omitempty" json:"beginTime,omitempty"`
	EndTime                    *time.Time         `bson:"end_time,omitempty" json:"endTime,omitempty"`
	CreatedAt                  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt                  time.Time          `bson:"updated_at" json:"updatedAt"`
}
