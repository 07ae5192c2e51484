package common

import (
	"context"
	"slices"
)

type ctxKey string

const actorKey ctxKey = "auth/actor"

// Actor identifies the authenticated caller of a request.
type Actor struct {
	ID    string
	Roles []string
}

// HasAnyRole reports whether the actor carries at least one of roles.
func (a Actor) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if slices.Contains(a.Roles, role) {
			return true
		}
	}
	return false
}

// WithActor stores the authenticated actor on the provided context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFrom extracts the authenticated actor from the context if present.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	if !ok || actor.ID == "" {
		return Actor{}, false
	}
	return actor, true
}

// UserID returns the identifier of the authenticated actor.
func UserID(ctx context.Context) (string, bool) {
	actor, ok := ActorFrom(ctx)
	return actor.ID, ok
}
