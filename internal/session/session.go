// Package session carries the authenticated caller through a request.
package session

import (
	"context"
	"time"
)

// Session is the identity established by the auth middleware.
type Session struct {
	UserID    uint
	Username  string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

type contextKey struct{}

// NewContext returns a copy of ctx that carries s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by NewContext, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}
