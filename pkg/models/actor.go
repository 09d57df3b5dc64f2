// Package models contains domain types for register-engine.
package models

import (
	"context"

	"github.com/google/uuid"
)

// actorKey is the context key for storing the acting user.
type actorKey struct{}

// WithActor returns a new context carrying the id of the user performing the
// current operation. Handlers set this after authenticating the request.
func WithActor(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom retrieves the acting user's id from the context. The second return
// is false for system-initiated operations (schedulers, data builds), which run
// without an actor.
func ActorFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(actorKey{}).(uuid.UUID)
	return id, ok
}

// ActorID returns the acting user's id as a nullable pointer, nil when the
// operation is system-initiated.
func ActorID(ctx context.Context) *uuid.UUID {
	if id, ok := ActorFrom(ctx); ok {
		return &id
	}
	return nil
}
