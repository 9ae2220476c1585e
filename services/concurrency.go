package services

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mohammedsw45/blue-basks/apperrors"
)

// requireMatched guards status-pinned replaces. The replace filter carries the
// status the transition was validated against; matching nothing means another
// request moved the document in between, so the stale write must not stand.
func requireMatched(res *mongo.UpdateResult, entity string) error {
	if res.MatchedCount == 0 {
		return apperrors.Newf(apperrors.Conflict, "%s status changed, please retry", entity)
	}
	return nil
}
