package database

import (
	"fmt"
	"time"

	"github.com/aethra/misight/internal/logger"
	"github.com/aethra/misight/internal/models"
	"gorm.io/gorm"
)

// MigrationRecord tracks which migrations have been applied
type MigrationRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;size:255"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for migrations
func (MigrationRecord) TableName() string {
	return "_misight_migrations"
}

type migration struct {
	name string
	up   func(tx *gorm.DB) error
}

// migrations run in slice order; names must never be reused
var migrations = []migration{
	{name: "001_portal_users", up: func(tx *gorm.DB) error {
		return tx.AutoMigrate(&models.User{})
	}},
	{name: "002_revoked_tokens", up: func(tx *gorm.DB) error {
		return tx.AutoMigrate(&models.RevokedToken{})
	}},
}

// RunMigrations applies every pending migration
func RunMigrations(db *gorm.DB, log logger.Logger) error {
	// Ensure migrations table exists
	if err := db.AutoMigrate(&MigrationRecord{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		var count int64
		if err := db.Model(&MigrationRecord{}).Where("name = ?", m.name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration %s: %w", m.name, err)
		}
		if count > 0 {
			log.Debugw("migration already applied", "name", m.name)
			continue
		}

		log.Infow("applying migration", "name", m.name)
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.up(tx); err != nil {
				return err
			}
			return tx.Create(&MigrationRecord{Name: m.name}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.name, err)
		}
	}

	return nil
}
