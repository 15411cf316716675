// Package auth carries the authenticated caller's identity on the request
// context. The middleware in internal/api resolves credentials to a user ID
// before any handler runs; handlers and the storage layer only ever match
// ownership against this ID, never re-validate identity.
package auth

import (
	"context"

	"github.com/google/uuid"
)

type contextKey int

const userIDKey contextKey = iota

// WithUserID returns a context carrying the authenticated user's ID.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID returns the authenticated user's ID from the context, or uuid.Nil
// when the request was not authenticated.
func UserID(ctx context.Context) uuid.UUID {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}
