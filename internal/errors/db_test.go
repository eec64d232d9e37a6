package errors

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_Codes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: context.Canceled, wantCode: ErrCodeCanceled},
		{name: "no rows", err: pgx.ErrNoRows, wantCode: ErrCodeNotFound},
		{
			name:     "unique violation",
			err:      &pgconn.PgError{Code: pgerrcode.UniqueViolation, TableName: "admin_audit_events", ConstraintName: "admin_audit_events_pkey"},
			wantCode: ErrCodeConflict,
		},
		{name: "check violation", err: &pgconn.PgError{Code: pgerrcode.CheckViolation, ColumnName: "action"}, wantCode: ErrCodeValidation},
		{name: "not null violation", err: &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "actor_uid"}, wantCode: ErrCodeValidation},
		{name: "too many connections", err: &pgconn.PgError{Code: pgerrcode.TooManyConnections}, wantCode: ErrCodeUnavailable},
		{name: "unknown pg error", err: &pgconn.PgError{Code: pgerrcode.DivisionByZero}, wantCode: ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if GetCode(err) != tt.wantCode {
				t.Errorf("MapDBError() code = %v, want %v", GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestMapDBError_UniqueViolationField(t *testing.T) {
	tests := []struct {
		name  string
		pgErr *pgconn.PgError
		want  string
	}{
		{name: "column metadata", pgErr: &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "id"}, want: "id"},
		{
			name:  "detail parsing",
			pgErr: &pgconn.PgError{Code: pgerrcode.UniqueViolation, Detail: "Key (id)=(abc) already exists."},
			want:  "id",
		},
		{name: "constraint inference", pgErr: &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "events_id_key"}, want: "id"},
		{
			name:  "ambiguous constraint",
			pgErr: &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "admin_audit_events_pkey"},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if got := GetField(err); got != tt.want {
				t.Errorf("GetField() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMapDBError_UniqueViolationMessage(t *testing.T) {
	err := MapDBError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, TableName: "admin_audit_events"})
	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Message != "This audit event already exists." {
		t.Errorf("Message = %q", appErr.Message)
	}
}

func TestMapDBError_StandardError(t *testing.T) {
	stdErr := errors.New("standard error")
	if err := MapDBError(stdErr); !errors.Is(err, stdErr) {
		t.Errorf("MapDBError() should return original error for non-db errors, got %v", err)
	}
}
