package database

import (
	stderrors "errors"

	apperrors "github.com/aethra/misight/internal/errors"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	pqUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
)

// IsDuplicate reports whether err is a unique-constraint violation from any supported driver
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	var myErr *gomysql.MySQLError
	if stderrors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	return false
}

// Translate maps driver errors onto the shared error types
func Translate(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NewNotFoundError(resource)
	case IsDuplicate(err):
		return apperrors.NewConflictError(resource)
	default:
		return apperrors.NewInternalError(err)
	}
}
