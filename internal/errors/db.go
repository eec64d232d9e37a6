package errors

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reKeyField extracts the column from "Key (field)=(value) already exists.".
var reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)

// MapDBError maps database errors to AppError instances:
// - context deadline/cancel → Timeout/Canceled
// - pgx.ErrNoRows → NotFound
// - unique violation → Conflict
// - check and NOT NULL violations → Validation
// - connection failures → Unavailable
//
// Unrecognised errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Code: ErrCodeTimeout, Message: "Request timed out. Please try again.", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Code: ErrCodeCanceled, Message: "Request was canceled.", Cause: err}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &AppError{Code: ErrCodeNotFound, Message: "Resource not found", Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return &AppError{Code: ErrCodeUnavailable, Message: "The audit database is unavailable.", Cause: err}
	}

	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		field := pgErr.ColumnName
		if field == "" && pgErr.Detail != "" {
			if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
				field = m[1]
			}
		}
		if field == "" {
			field = inferFieldFromConstraint(pgErr.ConstraintName)
		}
		return &AppError{
			Code:    ErrCodeConflict,
			Message: "This " + tableLabel(pgErr.TableName) + " already exists.",
			Field:   field,
			Cause:   pgErr,
		}
	case pgerrcode.CheckViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "Invalid data. Please check your input.",
			Field:   pgErr.ColumnName,
			Cause:   pgErr,
		}
	case pgerrcode.NotNullViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "Required field is missing.",
			Field:   pgErr.ColumnName,
			Cause:   pgErr,
		}
	case pgerrcode.AdminShutdown, pgerrcode.CannotConnectNow, pgerrcode.TooManyConnections:
		return &AppError{Code: ErrCodeUnavailable, Message: "The audit database is unavailable.", Cause: pgErr}
	default:
		return &AppError{Code: ErrCodeInternal, Message: "A database error occurred. Please try again.", Cause: pgErr}
	}
}

// inferFieldFromConstraint returns the middle segment of a "table_field_key" constraint name.
// Longer names are ambiguous (multi-column) and yield "".
func inferFieldFromConstraint(constraintName string) string {
	parts := strings.Split(constraintName, "_")
	if len(parts) != 3 {
		return ""
	}
	return parts[1]
}

func tableLabel(table string) string {
	switch strings.ToLower(strings.TrimSpace(table)) {
	case "admin_audit_events":
		return "audit event"
	case "schema_migrations":
		return "migration"
	case "":
		return "record"
	default:
		return strings.ReplaceAll(strings.ToLower(table), "_", " ")
	}
}
