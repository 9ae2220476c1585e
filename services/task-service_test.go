package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMissingViewerIDs(t *testing.T) {
	m1 := primitive.NewObjectID()
	m2 := primitive.NewObjectID()
	outsider1 := primitive.NewObjectID()
	outsider2 := primitive.NewObjectID()
	teamMembers := []primitive.ObjectID{m1, m2}

	t.Run("all viewers in team", func(t *testing.T) {
		assert.Empty(t, missingViewerIDs([]primitive.ObjectID{m1, m2}, teamMembers))
	})

	t.Run("no viewers", func(t *testing.T) {
		assert.Empty(t, missingViewerIDs(nil, teamMembers))
	})

	t.Run("outsiders reported in order", func(t *testing.T) {
		missing := missingViewerIDs([]primitive.ObjectID{outsider1, m1, outsider2}, teamMembers)
		assert.Equal(t, []primitive.ObjectID{outsider1, outsider2}, missing)
	})

	t.Run("empty team rejects every viewer", func(t *testing.T) {
		missing := missingViewerIDs([]primitive.ObjectID{m1}, nil)
		assert.Equal(t, []primitive.ObjectID{m1}, missing)
	})
}
