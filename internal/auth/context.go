package auth

import (
	"context"

	"commerce-graph/internal/apperr"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Caller is the authenticated user behind a request
type Caller struct {
	ID primitive.ObjectID
}

type callerKey struct{}

// WithCaller stores the caller on the context
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the caller stored on the context
func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(Caller)
	if !ok || caller.ID.IsZero() {
		return Caller{}, false
	}
	return caller, true
}

// RequireCaller fails with Unauthenticated when the context has no caller
func RequireCaller(ctx context.Context) (Caller, error) {
	caller, ok := CallerFromContext(ctx)
	if !ok {
		return Caller{}, apperr.Unauthenticated("User not authenticated")
	}
	return caller, nil
}
