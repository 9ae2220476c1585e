package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	TaskStatusToDo       TaskStatus = "To Do"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusDone       TaskStatus = "Done"
	TaskStatusCancelled  TaskStatus = "Cancelled"
	TaskStatusArchived   TaskStatus = "Archived"
)

// IsTerminal reports whether no further transitions are permitted.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusDone || s == TaskStatusCancelled || s == TaskStatusArchived
}

func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusToDo, TaskStatusInProgress, TaskStatusDone, TaskStatusCancelled, TaskStatusArchived:
		return true
	}
	return false
}

type Task struct {
	ID                          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	TeamID                      primitive.ObjectID   `bson:"team_id" json:"teamId"`
	Title                       string               `bson:"title" json:"title"`
	Description                 string               `bson:"description" json:"description"`
	ImplementationDurationHours float64              `bson:"implementation_duration_hours" json:"implementationDurationHours"`
	Status                      TaskStatus           `bson:"status" json:"status"`
	BeginTime                   *time.Time           `bson:"begin_time,omitempty" json:"beginTime,omitempty"`
	EndTime                     *time.Time           `bson:"end_time,omitempty" json:"endTime,omitempty"`
	ViewerIDs                   []primitive.ObjectID `bson:"viewer_ids" json:"viewerIds"`
	CreatedAt                   time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt                   time.Time            `bson:"updated_at" json:"updatedAt"`
}

// TaskDetail is the read shape for a single task: its steps and the member
// records behind its viewer ids.
type TaskDetail struct {
	Task    Task     `json:"task"`
	Steps   []Step   `json:"steps"`
	Viewers []Member `json:"viewers"`
}
