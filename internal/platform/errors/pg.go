package errors

import (
	"context"
	stderrs "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

type sqlState struct {
	code  ErrorCode
	retry bool
}

// sqlStates covers what the audit tables can raise, anything else is ErrorCodeDB
var sqlStates = map[string]sqlState{
	"23505": {code: ErrorCodeDuplicateKey},
	"23503": {code: ErrorCodeInvalidParameter},
	"23502": {code: ErrorCodeValidation},
	"23514": {code: ErrorCodeValidation},
	"22001": {code: ErrorCodeInvalidParameter},
	"22P02": {code: ErrorCodeInvalidParameter},
	"40001": {code: ErrorCodeDB, retry: true},
	"40P01": {code: ErrorCodeDB, retry: true},
	"55P03": {code: ErrorCodeDB, retry: true},
	// statement_timeout set by the audit begin hook
	"57014": {code: ErrorCodeTimeout, retry: true},
	"57P03": {code: ErrorCodeUnavailable, retry: true},
	"25006": {code: ErrorCodeUnavailable},
}

// pgx reports some aborted commits only as text
var retryText = []string{
	"commit unexpectedly resulted in rollback",
	"deadlock detected",
	"could not serialize access",
	"terminating connection due to administrator command",
}

func pgError(err error) (*pgconn.PgError, bool) {
	var pe *pgconn.PgError
	ok := stderrs.As(err, &pe)
	return pe, ok
}

func classify(pe *pgconn.PgError) sqlState {
	if s, ok := sqlStates[pe.Code]; ok {
		return s
	}
	// class 08 is connection exceptions
	if strings.HasPrefix(pe.Code, "08") {
		return sqlState{code: ErrorCodeUnavailable, retry: true}
	}
	return sqlState{code: ErrorCodeDB}
}

// FromPostgres classifies a driver error by its sqlstate and wraps it with msg
// context errors become timeouts, nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	if stderrs.Is(err, context.DeadlineExceeded) || stderrs.Is(err, context.Canceled) {
		return Wrap(err, ErrorCodeTimeout, msg)
	}
	code := ErrorCodeDB
	if pe, ok := pgError(err); ok {
		code = classify(pe).code
		if pe.ColumnName != "" {
			return WithField(Wrap(err, code, msg), pe.ColumnName)
		}
	}
	return Wrap(err, code, msg)
}

// pgRetryable reports contention and connection loss, local cancellation never retries
func pgRetryable(err error) bool {
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pe, ok := pgError(err); ok {
		return classify(pe).retry
	}
	s := strings.ToLower(err.Error())
	for _, t := range retryText {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
