// Package trace carries the per-request correlation id through contexts.
package trace

import (
	"context"

	"github.com/google/uuid"
)

// Header is the inbound/outbound header holding the trace id
const Header = "X-Trace-Id"

// LocalsKey is the fiber locals key the trace middleware writes to
const LocalsKey = "trace_id"

type ctxKey struct{}

// NewID generates a fresh trace id
func NewID() string {
	return uuid.NewString()
}

// WithID returns a copy of ctx carrying id
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the trace id stored in ctx, or ""
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
