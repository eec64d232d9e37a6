package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ternsecure/tern-admin/internal/data/pgxutil"
	"github.com/ternsecure/tern-admin/internal/domain/audit"
	apperrors "github.com/ternsecure/tern-admin/internal/errors"
	"github.com/ternsecure/tern-admin/internal/ports"
)

const (
	defaultAuditListLimit = 50
	maxAuditListLimit     = 500
)

var _ ports.AuditLog = (*AuditRepo)(nil)

// AuditRepo persists admin actions to Postgres.
type AuditRepo struct {
	DB    *sql.DB
	Clock TimeProvider
}

// NewAuditRepo creates a new AuditRepo. A nil clock uses the system clock.
func NewAuditRepo(db *sql.DB, clock TimeProvider) *AuditRepo {
	if clock == nil {
		clock = RealTimeProvider{}
	}
	return &AuditRepo{DB: db, Clock: clock}
}

// Record inserts ev, assigning an ID and timestamp when absent.
func (r *AuditRepo) Record(ctx context.Context, ev audit.Event) error {
	if ev.TargetUID == "" {
		return apperrors.ValidationField("target_uid", "target uid is required")
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = r.Clock.Now()
	}
	detail := ev.Detail
	if detail == nil {
		detail = map[string]any{}
	}
	raw, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshal audit detail: %w", err)
	}

	const q = `INSERT INTO admin_audit_events
		(id, actor_uid, action, target_uid, detail, succeeded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.DB.ExecContext(ctx, q,
		ev.ID, ev.ActorUID, string(ev.Action), ev.TargetUID, raw, ev.Succeeded, ev.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert audit event: %w", apperrors.MapDBError(err))
	}
	return nil
}

type auditRow struct {
	ID        string    `db:"id"`
	ActorUID  string    `db:"actor_uid"`
	Action    string    `db:"action"`
	TargetUID string    `db:"target_uid"`
	Detail    []byte    `db:"detail"`
	Succeeded bool      `db:"succeeded"`
	CreatedAt time.Time `db:"created_at"`
}

// List returns the newest events first, optionally for one target uid.
func (r *AuditRepo) List(ctx context.Context, f audit.ListFilter) ([]audit.Event, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultAuditListLimit
	}
	if limit > maxAuditListLimit {
		limit = maxAuditListLimit
	}

	q := `SELECT id::text AS id, actor_uid, action, target_uid, detail, succeeded, created_at
		FROM admin_audit_events`
	args := []any{}
	if f.TargetUID != "" {
		q += ` WHERE target_uid = $1`
		args = append(args, f.TargetUID)
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	var rows []auditRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		res, qerr := conn.Query(ctx, q, args...)
		if qerr != nil {
			return qerr
		}
		var cerr error
		rows, cerr = pgx.CollectRows(res, pgx.RowToStructByName[auditRow])
		return cerr
	})
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", apperrors.MapDBError(err))
	}

	out := make([]audit.Event, 0, len(rows))
	for _, row := range rows {
		ev := audit.Event{
			ID:        row.ID,
			ActorUID:  row.ActorUID,
			Action:    audit.Action(row.Action),
			TargetUID: row.TargetUID,
			Succeeded: row.Succeeded,
			CreatedAt: row.CreatedAt.UTC(),
		}
		if len(row.Detail) > 0 {
			if uerr := json.Unmarshal(row.Detail, &ev.Detail); uerr != nil {
				return nil, fmt.Errorf("decode audit detail %s: %w", ev.ID, uerr)
			}
		}
		out = append(out, ev)
	}
	return out, nil
}
