// Package session carries the per-request authentication state. A session is
// created by the auth middleware for each request and ends with it; there is
// no process-wide current user.
package session

import (
	"context"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
)

// State is the authentication state of a request.
type State int

const (
	Unauthenticated State = iota
	SignedIn
)

func (s State) String() string {
	if s == SignedIn {
		return "signed_in"
	}
	return "unauthenticated"
}

// Session is the authentication context of one request.
type Session struct {
	State    State
	Identity domain.Identity
}

// New returns a signed-in session for id.
func New(id domain.Identity) *Session {
	return &Session{State: SignedIn, Identity: id}
}

// UserID returns the signed-in user's id, or "" when unauthenticated.
func (s *Session) UserID() string {
	if s == nil || s.State != SignedIn {
		return ""
	}
	return s.Identity.UserID
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx. Requests that passed no
// auth middleware get an unauthenticated session.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(ctxKey{}).(*Session); ok && s != nil {
		return s
	}
	return &Session{State: Unauthenticated}
}
