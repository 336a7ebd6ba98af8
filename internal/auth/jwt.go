// Package auth issues and checks portal sessions
package auth

import (
	"fmt"
	"time"

	"github.com/aethra/misight/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents JWT claims for a portal session
type Claims struct {
	UserID   uuid.UUID   `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Token is a signed access token and its identity
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// JWTService handles JWT operations
type JWTService struct {
	secretKey         []byte
	accessTokenExpiry time.Duration
	issuer            string
	now               func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(secret string, accessExpiry time.Duration) *JWTService {
	if accessExpiry <= 0 {
		accessExpiry = 24 * time.Hour
	}
	return &JWTService{
		secretKey:         []byte(secret),
		accessTokenExpiry: accessExpiry,
		issuer:            "misight",
		now:               time.Now,
	}
}

// IssueToken signs an access token for the user
func (s *JWTService) IssueToken(user *models.User) (*Token, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTokenExpiry)
	tokenID := uuid.New().String()

	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   user.ID.String(),
			ID:        tokenID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &Token{Value: signed, ID: tokenID, ExpiresAt: expiresAt}, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("invalid token role %q", claims.Role)
	}

	return claims, nil
}
