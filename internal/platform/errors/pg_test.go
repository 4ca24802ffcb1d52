package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestFromPostgres(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		code  ErrorCode
		field string
		retry bool
	}{
		{"duplicate", &pgconn.PgError{Code: "23505"}, ErrorCodeDuplicateKey, "", false},
		{"not null names the column", &pgconn.PgError{Code: "23502", ColumnName: "request_id"}, ErrorCodeValidation, "request_id", false},
		{"bad text", &pgconn.PgError{Code: "22P02"}, ErrorCodeInvalidParameter, "", false},
		{"serialization", &pgconn.PgError{Code: "40001"}, ErrorCodeDB, "", true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, ErrorCodeDB, "", true},
		{"statement timeout", &pgconn.PgError{Code: "57014"}, ErrorCodeTimeout, "", true},
		{"starting up", &pgconn.PgError{Code: "57P03"}, ErrorCodeUnavailable, "", true},
		{"connection class", &pgconn.PgError{Code: "08006"}, ErrorCodeUnavailable, "", true},
		{"read only", &pgconn.PgError{Code: "25006"}, ErrorCodeUnavailable, "", true},
		{"other sqlstate", &pgconn.PgError{Code: "42P01"}, ErrorCodeDB, "", false},
		{"wrapped pg error", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), ErrorCodeDuplicateKey, "", false},
		{"deadline", context.DeadlineExceeded, ErrorCodeTimeout, "", true},
		{"driver text", stderrs.New("commit unexpectedly resulted in rollback"), ErrorCodeDB, "", true},
		{"plain", stderrs.New("conn reset"), ErrorCodeDB, "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := FromPostgres(c.err, "audit insert")
			if !IsCode(err, c.code) {
				t.Fatalf("code = %v, want %v", CodeOf(err), c.code)
			}
			if e, _ := As(err); e.Field() != c.field {
				t.Fatalf("field = %q", e.Field())
			}
			if Retryable(err) != c.retry {
				t.Fatalf("retryable = %v", Retryable(err))
			}
			if !stderrs.Is(err, c.err) {
				t.Fatal("cause lost")
			}
		})
	}
	if FromPostgres(nil, "x") != nil {
		t.Fatal("nil stays nil")
	}
}

func TestPgRetryable_LocalCancel(t *testing.T) {
	if pgRetryable(context.Canceled) || pgRetryable(fmt.Errorf("tx: %w", context.DeadlineExceeded)) {
		t.Fatal("local cancellation never retries")
	}
}
