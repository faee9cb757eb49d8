// Package appctx carries request-scoped values (acting user, request trace)
// through context.Context.
package appctx

import (
	"context"
)

// Actor identifies the authenticated user performing an operation.
// Every stock mutation records the actor as created_by/updated_by.
type Actor struct {
	UserID string
	Email  string
}

type actorKey struct{}

// WithActor stores the actor in context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor returns the actor from context, or nil if unauthenticated.
func GetActor(ctx context.Context) *Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return &a
	}
	return nil
}

// ActorID returns the acting user id, or "system" for background operations.
func ActorID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil && a.UserID != "" {
		return a.UserID
	}
	return "system"
}

// Trace carries request correlation identifiers.
type Trace struct {
	TraceID   string
	RequestID string
}

type traceKey struct{}

// WithTrace stores trace info in context.
func WithTrace(ctx context.Context, trace Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, trace)
}

// GetTrace returns trace info from context, or nil.
func GetTrace(ctx context.Context) *Trace {
	if t, ok := ctx.Value(traceKey{}).(Trace); ok {
		return &t
	}
	return nil
}
