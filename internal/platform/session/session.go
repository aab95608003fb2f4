// Package session resolves the signed-in user for a request and guards
// protected routes. Tokens are issued by the external identity provider; this
// package only verifies them and keeps them in a cookie-backed session.
package session

import (
	"context"
	"net/http"
	"time"
)

// User is the acting user resolved from a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Session is a verified sign-in.
type Session struct {
	User        *User     `json:"user"`
	ExpiresAt   time.Time `json:"expires_at"`
	AccessToken string    `json:"-"`
}

// Resolver resolves the session carried by a request. A request without a
// usable session yields (nil, nil, nil); an error means resolution itself failed.
type Resolver interface {
	SafeGetSession(r *http.Request) (*Session, *User, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(r *http.Request) (*Session, *User, error)

func (f ResolverFunc) SafeGetSession(r *http.Request) (*Session, *User, error) {
	return f(r)
}

type contextKey string

const (
	sessionKey contextKey = "session"
	userKey    contextKey = "user"
)

// WithSession returns a copy of ctx carrying the resolved session and user.
func WithSession(ctx context.Context, s *Session, u *User) context.Context {
	ctx = context.WithValue(ctx, sessionKey, s)
	return context.WithValue(ctx, userKey, u)
}

func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}

func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userKey).(*User)
	return u
}

// UserIDFromContext returns the acting user's id, or "" when nobody is signed in.
func UserIDFromContext(ctx context.Context) string {
	if u := UserFromContext(ctx); u != nil {
		return u.ID
	}
	return ""
}
