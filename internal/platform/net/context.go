// Package net carries per request identity between middleware and handlers
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey struct{}

// Caller is who a bearer token resolved to
type Caller struct {
	Subject string
	Scope   string
}

// WithCaller stores c on ctx, an empty subject leaves ctx untouched
func WithCaller(ctx context.Context, c Caller) context.Context {
	if c.Subject == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, c)
}

// CallerOf returns the caller set by the auth middleware
func CallerOf(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(Caller)
	return c, ok
}

// RequestID returns the id assigned by the request id middleware, empty when absent
func RequestID(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// WithRequestID seeds ctx with id the way the request id middleware does
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, id)
}
