// Package models contains the persistent structures of the portal account store.
// Domain records (mines, minerals, ...) live in the external backend and are not modelled here.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the portal role carried by a session
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleMineAdmin Role = "MINE_ADMIN"
	RoleUser      Role = "USER"
)

// Roles lists every role in display order
var Roles = []Role{RoleAdmin, RoleMineAdmin, RoleUser}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMineAdmin, RoleUser:
		return true
	}
	return false
}

// Label is the human readable name of the role
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleMineAdmin:
		return "Mine administrator"
	case RoleUser:
		return "User"
	}
	return string(r)
}

// ParseRole accepts the role code in any case
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// User is a portal login account
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Username     string     `json:"username" gorm:"uniqueIndex;not null;size:100"`
	Email        string     `json:"email" gorm:"size:255"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	DisplayName  string     `json:"display_name" gorm:"size:200"`
	Role         Role       `json:"role" gorm:"size:20;not null"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "portal_users"
}

// BeforeCreate assigns an id when the caller did not
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// RevokedToken records a logged-out access token until it would have expired anyway
type RevokedToken struct {
	TokenID   string    `gorm:"primaryKey;size:64"`
	UserID    uuid.UUID `gorm:"type:char(36);index"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

// TableName returns the table name for RevokedToken
func (RevokedToken) TableName() string {
	return "revoked_tokens"
}
