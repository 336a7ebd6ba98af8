package auth

import (
	"context"
	"fmt"
	"math"

	apperrors "github.com/aethra/misight/internal/errors"
	"github.com/aethra/misight/internal/logger"
)

// Service ties the account store, token issuing and login throttling together
type Service struct {
	store   *Store
	jwt     *JWTService
	limiter *LoginRateLimiter
	log     logger.Logger
}

// NewService creates the auth service
func NewService(store *Store, jwt *JWTService, limiter *LoginRateLimiter, log logger.Logger) *Service {
	return &Service{store: store, jwt: jwt, limiter: limiter, log: log}
}

// Login authenticates the credentials and opens a session. clientKey identifies the
// caller for throttling (typically the client IP).
func (s *Service) Login(ctx context.Context, username, password, clientKey string) (*Session, error) {
	rateLimitKey := clientKey + ":" + username
	allowed, remaining, retryAfter := s.limiter.Allow(rateLimitKey)
	if !allowed {
		s.log.Warnw("login throttled", "username", username, "client", clientKey)
		return nil, apperrors.NewTooManyRequestsError(math.Ceil(retryAfter.Seconds()))
	}

	user, err := s.store.Authenticate(ctx, username, password)
	if err != nil {
		s.log.Infow("login failed", "username", username, "client", clientKey, "remaining", remaining)
		return nil, err
	}
	s.limiter.Reset(rateLimitKey)

	token, err := s.jwt.IssueToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.log.Infow("login succeeded", "username", user.Username, "role", user.Role)
	return &Session{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		Token:     token.Value,
		TokenID:   token.ID,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// Resolve turns a token into a session, rejecting expired and revoked tokens
func (s *Service) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, apperrors.NewUnauthorizedError("")
	}
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("session expired, please sign in again")
	}
	revoked, err := s.store.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperrors.NewUnauthorizedError("session ended, please sign in again")
	}
	user, err := s.store.FindByID(ctx, claims.UserID)
	if apperrors.IsNotFound(err) || (err == nil && !user.IsActive) {
		return nil, apperrors.NewUnauthorizedError("account disabled, please contact an administrator")
	}
	if err != nil {
		return nil, err
	}
	return sessionFromClaims(token, claims), nil
}

// Logout revokes the session's token
func (s *Service) Logout(ctx context.Context, session *Session) error {
	if session == nil {
		return nil
	}
	if err := s.store.Revoke(ctx, session.TokenID, session.UserID, session.ExpiresAt); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.log.Infow("logout", "username", session.Username)
	return nil
}
