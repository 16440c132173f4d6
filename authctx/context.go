// Package authctx carries the authenticated session through the request
// context. The auth guard stores it after verifying a token; handlers read
// it back without reaching into headers or cookies again.
package authctx

import (
	"context"
	"errors"
)

// Session is what the guard resolved from a verified access token.
type Session struct {
	// SubjectID is the account identifier embedded in the token.
	SubjectID string

	// Token is the raw access token string. Logout needs it to revoke the
	// exact credential that authenticated the request.
	Token string
}

// contextKey is an unexported type to prevent collisions with other packages.
type contextKey struct{}

var sessionKey = contextKey{}

// ErrNoSession is returned when no session is present in the context.
var ErrNoSession = errors.New("authctx: no session in context")

// Set stores the session in the context.
func Set(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// Get retrieves the session from the context.
func Get(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}

// GetOrError retrieves the session or returns ErrNoSession.
func GetOrError(ctx context.Context) (Session, error) {
	s, ok := Get(ctx)
	if !ok {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// MustGet retrieves the session and panics if it is missing. Use only in
// handlers that the auth guard is guaranteed to run before.
func MustGet(ctx context.Context) Session {
	s, ok := Get(ctx)
	if !ok {
		panic("authctx: session not found in context")
	}
	return s
}
