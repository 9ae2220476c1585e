package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mohammedsw45/blue-basks/apperrors"
)

func TestRequireMatched(t *testing.T) {
	t.Run("matched replace passes", func(t *testing.T) {
		assert.NoError(t, requireMatched(&mongo.UpdateResult{MatchedCount: 1}, "project"))
	})

	t.Run("status moved under us is a conflict", func(t *testing.T) {
		err := requireMatched(&mongo.UpdateResult{MatchedCount: 0}, "project")
		require.Error(t, err)
		assert.Equal(t, apperrors.Conflict, apperrors.KindOf(err))
		assert.Equal(t, "project status changed, please retry", apperrors.MessageOf(err))
	})
}
