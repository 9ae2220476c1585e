package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StepStatus string

const (
	StepStatusToDo     StepStatus = "To Do"
	StepStatusStarted  StepStatus = "Started"
	StepStatusFinished StepStatus = "Finished"

	// StepStatusCancelled is never reachable through a normal step update.
	// It is written only by the bulk update that runs when the owning task
	// is cancelled.
	StepStatusCancelled StepStatus = "Cancelled"
)

// ValidStepStatus reports whether s is accepted on a step create or update.
// Cancelled is excluded: it belongs to the task cancellation cascade.
func ValidStepStatus(s StepStatus) bool {
	switch s {
	case StepStatusToDo, StepStatusStarted, StepStatusFinished:
		return true
	}
	return false
}

type Step struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TaskID      primitive.ObjectID `bson:"task_id" json:"taskId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Status      StepStatus         `bson:"status" json:"status"`
	StartTime   *time.Time         `bson:"start_time,omitempty" json:"startTime,omitempty"`
	EndTime     *time.Time         `bson:"end_time,omitempty" json:"endTime,omitempty"`
}
