package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func pgErr(code, col, constraint string) error {
	return fmt.Errorf("exec: %w", &pgconn.PgError{Code: code, ColumnName: col, ConstraintName: constraint})
}

func TestDBErrorCode(t *testing.T) {
	cases := []struct {
		code string
		want ErrorCode
	}{
		{"23505", ErrorCodeDuplicateKey},
		{"23503", ErrorCodeInvalidArgument},
		{"23514", ErrorCodeValidation},
		{"22P02", ErrorCodeInvalidArgument},
		{"57014", ErrorCodeTimeout},
		{"57P03", ErrorCodeUnavailable},
		{"40001", ErrorCodeDB},
		{"XX000", ErrorCodeDB},
	}
	for _, c := range cases {
		got, ok := DBErrorCode(pgErr(c.code, "", ""))
		if !ok || got != c.want {
			t.Fatalf("DBErrorCode(%s) = %s %v, want %s", c.code, got, ok, c.want)
		}
	}
	if got, ok := DBErrorCode(pgx.ErrNoRows); !ok || got != ErrorCodeNotFound {
		t.Fatalf("ErrNoRows = %s %v", got, ok)
	}
	if _, ok := DBErrorCode(stderrs.New("nope")); ok {
		t.Fatalf("plain error mapped")
	}
}

func TestFromPostgresWithField(t *testing.T) {
	err := FromPostgresWithField(pgErr("23505", "", "contacts_tenant_phone_key"), "upsert contact")
	if !IsCode(err, ErrorCodeDuplicateKey) || WireFrom(err).Field != "phone" {
		t.Fatalf("err = %v wire = %+v", err, WireFrom(err))
	}

	err = FromPostgresWithField(pgErr("23502", "name", "whatever"), "insert")
	if WireFrom(err).Field != "name" {
		t.Fatalf("column not preferred: %+v", WireFrom(err))
	}

	err = FromPostgresWithField(pgErr("23505", "", "pkey"), "insert")
	if WireFrom(err).Field != "" {
		t.Fatalf("unexpected field: %+v", WireFrom(err))
	}

	if FromPostgres(nil, "x") != nil {
		t.Fatalf("FromPostgres(nil) != nil")
	}
	if !IsCode(FromPostgres(stderrs.New("io"), "x"), ErrorCodeDB) {
		t.Fatalf("foreign error not mapped to db")
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{pgErr("40001", "", ""), true},
		{pgErr("40P01", "", ""), true},
		{pgErr("23505", "", ""), false},
		{stderrs.New("commit unexpectedly resulted in rollback"), true},
		{context.Canceled, false},
		{nil, false},
	}
	for i, c := range cases {
		if got := IsRetryable(c.err); got != c.want {
			t.Fatalf("case %d: IsRetryable(%v) = %v", i, c.err, got)
		}
	}
	if !Retryable(New(ErrorCodeTooManyRequests, "slow down")) {
		t.Fatalf("too many requests should be retryable")
	}
}
