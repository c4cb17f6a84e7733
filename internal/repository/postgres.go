package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqUniqueViolation      = "23505"
	pqCheckViolation       = "23514"
	pqInsufficientPriv     = "42501"
	pqDataExceptionClass   = "22"
)

type PostgresRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPostgresRepository(db *sql.DB, logger zerolog.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PostgresRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsPermissionDenied сообщает, что БД отказала в доступе.
func IsPermissionDenied(err error) bool {
	return pqCode(err) == pqInsufficientPriv
}

// IsInvalidData сообщает, что БД отклонила значения (CHECK или data exception).
func IsInvalidData(err error) bool {
	code := pqCode(err)
	return code == pqCheckViolation || strings.HasPrefix(code, pqDataExceptionClass)
}

func isRetryableTxError(err error) bool {
	switch pqCode(err) {
	case pqSerializationFailure, pqDeadlockDetected, pqUniqueViolation:
		return true
	}
	return false
}
