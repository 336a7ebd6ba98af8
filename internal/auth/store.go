package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/aethra/misight/internal/database"
	apperrors "github.com/aethra/misight/internal/errors"
	"github.com/aethra/misight/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the gorm-backed account and revocation store
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore creates a store over db
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// NewUser is the input of CreateUser
type NewUser struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	Role        models.Role
}

// CreateUser hashes the password and inserts the account
func (s *Store) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	var fieldErrs []apperrors.FieldError
	if username == "" {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "username", Message: "Username is required"})
	}
	if len(in.Password) < 8 {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "password", Message: "Password must be at least 8 characters"})
	}
	if !in.Role.Valid() {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "role", Message: fmt.Sprintf("Unknown role %q", in.Role)})
	}
	if len(fieldErrs) > 0 {
		return nil, apperrors.NewValidationError(fieldErrs...)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &models.User{
		Username:     username,
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		DisplayName:  in.DisplayName,
		Role:         in.Role,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, database.Translate(err, "user "+username)
	}
	return user, nil
}

// ListUsers returns every account ordered by username
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, database.Translate(err, "users")
	}
	return users, nil
}

// FindByID loads one account
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, database.Translate(err, "user")
	}
	return &user, nil
}

// Authenticate checks the credentials and stamps the last login time
func (s *Store) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ?", strings.TrimSpace(username)).
		First(&user).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewUnauthorizedError("invalid username or password")
		}
		return nil, database.Translate(err, "user")
	}

	if !user.IsActive || !CheckPassword(password, user.PasswordHash) {
		return nil, apperrors.NewUnauthorizedError("invalid username or password")
	}

	now := s.now()
	user.LastLoginAt = &now
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, database.Translate(err, "user")
	}
	return &user, nil
}

// Revoke records a token id as logged out
func (s *Store) Revoke(ctx context.Context, tokenID string, userID uuid.UUID, expiresAt time.Time) error {
	rec := &models.RevokedToken{TokenID: tokenID, UserID: userID, ExpiresAt: expiresAt}
	err := s.db.WithContext(ctx).Create(rec).Error
	if database.IsDuplicate(err) {
		return nil
	}
	if err != nil {
		return database.Translate(err, "revoked token")
	}
	return nil
}

// IsRevoked reports whether tokenID was logged out
func (s *Store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.RevokedToken{}).
		Where("token_id = ?", tokenID).
		Count(&count).Error
	if err != nil {
		return false, database.Translate(err, "revoked token")
	}
	return count > 0, nil
}

// PruneRevoked deletes revocations whose tokens have expired anyway
func (s *Store) PruneRevoked(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at < ?", s.now()).
		Delete(&models.RevokedToken{})
	if res.Error != nil {
		return 0, database.Translate(res.Error, "revoked token")
	}
	return res.RowsAffected, nil
}

// demoAccounts are the three fixture logins, one per role
var demoAccounts = []NewUser{
	{Username: "admin", Email: "admin@misight.local", DisplayName: "Demo Administrator", Role: models.RoleAdmin},
	{Username: "mineadmin", Email: "mineadmin@misight.local", DisplayName: "Demo Mine Administrator", Role: models.RoleMineAdmin},
	{Username: "user", Email: "user@misight.local", DisplayName: "Demo User", Role: models.RoleUser},
}

// SeedDemoAccounts creates the demo logins that do not exist yet and returns the usernames created
func (s *Store) SeedDemoAccounts(ctx context.Context, password string) ([]string, error) {
	var created []string
	for _, acc := range demoAccounts {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("username = ?", acc.Username).
			Count(&count).Error; err != nil {
			return created, database.Translate(err, "user")
		}
		if count > 0 {
			continue
		}
		acc.Password = password
		if _, err := s.CreateUser(ctx, acc); err != nil {
			return created, err
		}
		created = append(created, acc.Username)
	}
	return created, nil
}
