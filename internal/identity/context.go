// Package identity resolves who is calling and what they may do. It is the
// only place requests acquire an identity and the only place role policy is
// enforced; handlers never re-implement either.
package identity

import (
	"context"

	"schoolhub/internal/users"
)

// Context is the resolved identity attached to one in-flight request. A
// successfully resolved Context always has a non-empty UserID and Role;
// resolution fails atomically rather than producing a partial identity.
type Context struct {
	UserID string
	Role   string
	Name   string
	// User is the persisted record behind UserID, nil when no record
	// exists. Absence is tolerated: internal callers may present ids the
	// user table has never seen.
	User *users.User
	// TokenProvided is true when the identity came from a bearer token,
	// false when it came from trusted proxy headers.
	TokenProvided bool
}

type contextKeyIdentity struct{}

// ContextKeyIdentity is exported for tests that build request contexts
// without running the middleware chain.
var ContextKeyIdentity = contextKeyIdentity{}

// FromContext retrieves the resolved identity. ok is false when the request
// did not pass through the gate.
func FromContext(ctx context.Context) (*Context, bool) {
	ic, ok := ctx.Value(ContextKeyIdentity).(*Context)
	return ic, ok
}

// WithContext injects a resolved identity; used by the gate middleware and
// by handler tests.
func WithContext(ctx context.Context, ic *Context) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, ic)
}
