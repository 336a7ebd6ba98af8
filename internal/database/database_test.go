package database

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/aethra/misight/internal/config"
	apperrors "github.com/aethra/misight/internal/errors"
	"github.com/aethra/misight/internal/logger"
	"github.com/aethra/misight/internal/models"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPostgresDSN(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: "5433", User: "misight", Password: "secret", Name: "portal", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=misight password=secret dbname=portal sslmode=require", postgresDSN(cfg))

	cfg.DSN = "postgres://explicit"
	assert.Equal(t, "postgres://explicit", postgresDSN(cfg))
}

func TestMySQLDSN(t *testing.T) {
	dsn := mysqlDSN(config.DatabaseConfig{Host: "db", Port: "3306", User: "misight", Password: "secret", Name: "portal"})
	parsed, err := gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db:3306", parsed.Addr)
	assert.Equal(t, "portal", parsed.DBName)
	assert.True(t, parsed.ParseTime)
}

func TestDialector_UnknownDriver(t *testing.T) {
	_, err := Dialector(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: "file:" + uuid.NewString() + "?mode=memory&cache=shared"})
	require.NoError(t, err)

	require.NoError(t, RunMigrations(db, logger.Nop()))
	require.NoError(t, RunMigrations(db, logger.Nop()))

	var applied int64
	require.NoError(t, db.Model(&MigrationRecord{}).Count(&applied).Error)
	assert.Equal(t, int64(len(migrations)), applied)
	assert.True(t, db.Migrator().HasTable(&models.User{}))
	assert.True(t, db.Migrator().HasTable(&models.RevokedToken{}))

	require.NoError(t, Ping(context.Background(), db))
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want any
	}{
		{"record not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), &apperrors.NotFoundError{}},
		{"gorm duplicate", gorm.ErrDuplicatedKey, &apperrors.ConflictError{}},
		{"postgres unique", &pq.Error{Code: "23505"}, &apperrors.ConflictError{}},
		{"mysql duplicate", &gomysql.MySQLError{Number: 1062}, &apperrors.ConflictError{}},
		{"anything else", stderrors.New("disk on fire"), &apperrors.InternalError{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Translate(tt.err, "user")
			assert.IsType(t, tt.want, got)
		})
	}
	assert.NoError(t, Translate(nil, "user"))
	assert.False(t, IsDuplicate(&pq.Error{Code: "23503"}))
}
