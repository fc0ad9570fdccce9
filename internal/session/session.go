package session

import (
	"context"
	"errors"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Identity is the identity provider: it knows the current user, if any
type Identity interface {
	CurrentUserID() (string, bool)
}

// Session carries the caller's identity into every cart, wishlist, order and
// chat operation.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

// Anonymous is a session without a user
var Anonymous = Session{}

func New(userID, email, role string) Session {
	return Session{UserID: userID, Email: email, Role: role}
}

// FromIdentity builds a session from an identity provider
func FromIdentity(id Identity) Session {
	if id == nil {
		return Anonymous
	}
	userID, ok := id.CurrentUserID()
	if !ok {
		return Anonymous
	}
	return Session{UserID: userID}
}

// CurrentUserID implements Identity
func (s Session) CurrentUserID() (string, bool) {
	return s.UserID, s.UserID != ""
}

// Authenticated reports whether the session has a user
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

// Require returns the user id or ErrNotAuthenticated
func (s Session) Require() (string, error) {
	if s.UserID == "" {
		return "", ErrNotAuthenticated
	}
	return s.UserID, nil
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying the session
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx, or Anonymous
func FromContext(ctx context.Context) Session {
	s, ok := ctx.Value(contextKey{}).(Session)
	if !ok {
		return Anonymous
	}
	return s
}
