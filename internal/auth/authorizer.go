package auth

import (
	"context"
	"fmt"
)

// Actor is the authenticated principal attached to a request context by the
// auth middleware.
type Actor struct {
	ID          string
	Permissions []string
}

// actorKey is the context key for the request actor.
type actorKey struct{}

// WithActor attaches an actor to the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext retrieves the request actor, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

// HasPermission reports whether the actor carries the given tag. The
// wildcard tag "exports:*" grants every export permission.
func (a Actor) HasPermission(tag string) bool {
	for _, p := range a.Permissions {
		if p == tag || p == "exports:*" {
			return true
		}
	}
	return false
}

// PermissionAuthorizer implements the export engine's authorization hook
// against the actor stored in the request context. An actor needs at least
// one of the entity's permission tags.
type PermissionAuthorizer struct{}

// Authorize implements export.Authorizer.
func (PermissionAuthorizer) Authorize(ctx context.Context, entity string, required []string, actorID string) error {
	if len(required) == 0 {
		return nil
	}
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return fmt.Errorf("no authenticated actor for entity %q", entity)
	}
	for _, tag := range required {
		if actor.HasPermission(tag) {
			return nil
		}
	}
	return fmt.Errorf("actor %q lacks permission for entity %q", actorID, entity)
}
