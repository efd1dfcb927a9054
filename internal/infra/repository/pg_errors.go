package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation   = "23505"
	pgLockNotAvailable  = "55P03"
	pgQueryCanceled     = "57014"
	pgSerialization     = "40001"
	pgDeadlockDetected  = "40P01"
	pgCheckViolation    = "23514"
	pgConnectionFailure = "08006"
)

// ログ用の分類。呼び出し側へはどれもPersistenceErrorとして返る
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "deadline_exceeded"
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "unknown"
	}
	switch pgErr.Code {
	case pgLockNotAvailable:
		return "lock_timeout"
	case pgQueryCanceled:
		return "statement_timeout"
	case pgSerialization, pgDeadlockDetected:
		return "conflict"
	case pgUniqueViolation, pgCheckViolation:
		return "constraint_violation"
	case pgConnectionFailure:
		return "connection"
	}
	return "sqlstate_" + pgErr.Code
}
