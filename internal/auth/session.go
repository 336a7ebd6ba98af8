package auth

import (
	"context"
	"time"

	"github.com/aethra/misight/internal/models"
	"github.com/google/uuid"
)

// Session is the signed-in user as seen by route guards and section controllers.
// It is created at login, attached to each request, and revoked at logout.
type Session struct {
	UserID    uuid.UUID
	Username  string
	Role      models.Role
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored in ctx, if any
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

func sessionFromClaims(token string, c *Claims) *Session {
	s := &Session{
		UserID:   c.UserID,
		Username: c.Username,
		Role:     c.Role,
		Token:    token,
		TokenID:  c.ID,
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}
