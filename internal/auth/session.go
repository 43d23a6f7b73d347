// Package auth implements the email one-time-passcode login against the
// hosted backend's auth service, and the session value the data layer
// reads from context. There is no process-global session holder: a
// Session is issued at login, travels explicitly in the request context,
// and disappears at logout or expiry.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is an authenticated user session. The access token authorizes
// data-layer requests; the email identifies the user for the admin check.
type Session struct {
	AccessToken  string
	RefreshToken string
	Email        string
	ExpiresAt    time.Time
}

// Valid reports whether the session can still authorize requests.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != "" && time.Now().Before(s.ExpiresAt)
}

type ctxKey struct{}

// WithSession attaches a session to the context for downstream storage
// calls.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session attached to the context, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// sessionFromToken fills email and expiry from the access token's claims.
// The token is parsed unverified: the backend holds the signing secret and
// rejects forgeries; locally we only need the claims for display and
// expiry checks.
func sessionFromToken(accessToken, refreshToken string) (*Session, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	s := &Session{AccessToken: accessToken, RefreshToken: refreshToken}
	if email, ok := claims["email"].(string); ok {
		s.Email = email
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	} else {
		// Tokens without an exp claim get a short conservative lifetime.
		s.ExpiresAt = time.Now().Add(time.Hour)
	}
	return s, nil
}
