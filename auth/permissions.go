// Package auth holds the capability predicates. They are pure: every
// predicate is evaluated over rows the caller has already fetched, so the
// rules compose with plain boolean logic and test without a database.
package auth

import "github.com/mohammedsw45/blue-basks/models"

func IsAdmin(actor Actor) bool {
	return actor.IsSuperuser
}

// IsActiveLeader reports whether m is an active team leader row. m may be
// nil when the actor has no membership in the team at hand.
func IsActiveLeader(m *models.Member) bool {
	return m != nil && m.IsActive && m.IsTeamLeader
}

// IsViewer reports whether the actor's user backs one of the given viewer
// member rows.
func IsViewer(actor Actor, viewers []models.Member) bool {
	for _, v := range viewers {
		if v.UserID == actor.ID {
			return true
		}
	}
	return false
}

// CanManageTeamScope is the leader-or-admin capability for mutating work
// inside a team.
func CanManageTeamScope(actor Actor, membership *models.Member) bool {
	return IsAdmin(actor) || IsActiveLeader(membership)
}

// CanViewTask additionally admits task viewers. Viewers may read a task but
// not mutate it.
func CanViewTask(actor Actor, membership *models.Member, viewers []models.Member) bool {
	return CanManageTeamScope(actor, membership) || IsViewer(actor, viewers)
}

// CanTouchStep governs step create, read, update and delete. Task viewers
// are admitted here on purpose: of the two policies the source history
// shows, the broader one is canonical.
func CanTouchStep(actor Actor, membership *models.Member, viewers []models.Member) bool {
	return CanViewTask(actor, membership, viewers)
}
