package shared

import "context"

// Actor identifies the authenticated user attached to a request.
type Actor struct {
	UserID    int64
	Email     string
	FirstName string
	Role      string
	SessionID string
}

type contextKey string

const actorKey contextKey = "vetstock.actor"

// ContextWithActor attaches the actor to the context.
func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext retrieves the actor, or nil when unauthenticated.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorKey).(*Actor)
	return actor
}

// ActorID returns the current user id, or zero when unauthenticated.
func ActorID(ctx context.Context) int64 {
	if actor := ActorFromContext(ctx); actor != nil {
		return actor.UserID
	}
	return 0
}
