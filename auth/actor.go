package auth

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the authenticated identity an operation runs as, extracted from
// the JWT by the auth middleware.
type Actor struct {
	ID          primitive.ObjectID
	Email       string
	IsSuperuser bool
	IsStaff     bool
}

type contextKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// ActorFrom returns the actor attached to ctx. ok is false when the request
// carried no authenticated identity.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(contextKey{}).(Actor)
	return actor, ok
}
