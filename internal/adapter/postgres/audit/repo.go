// Package audit implements the audit log repository using PostgreSQL.
// The log is append-only by contract: this package exposes no update or
// delete operation, and none may ever be added.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/applytrack/applytrack-backend/internal/adapter/postgres"
	"github.com/applytrack/applytrack-backend/internal/domain"
)

const table = "audit_log"

var columns = []string{"id", "actor_id", "entity_type", "entity_id", "action", "before_data", "after_data", "created_at"}

// Repo provides audit log persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new audit repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create validates and inserts a new audit entry, returning the persisted
// domain.AuditEntry. Callers must invoke it inside the same transaction as
// the mutation it documents so that a rolled-back mutation leaves no entry.
func (r *Repo) Create(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error) {
	if err := entry.Validate(); err != nil {
		return domain.AuditEntry{}, fmt.Errorf("audit entry: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	beforeJSON, err := marshalSnapshot(entry.Before)
	if err != nil {
		return domain.AuditEntry{}, fmt.Errorf("audit entry marshal before: %w", err)
	}
	afterJSON, err := marshalSnapshot(entry.After)
	if err != nil {
		return domain.AuditEntry{}, fmt.Errorf("audit entry marshal after: %w", err)
	}

	sql, args, err := postgres.Builder().
		Insert(table).
		Columns("actor_id", "entity_type", "entity_id", "action", "before_data", "after_data").
		Values(entry.ActorID, entry.EntityType, entry.EntityID, entry.Action, beforeJSON, afterJSON).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return domain.AuditEntry{}, fmt.Errorf("build insert audit entry: %w", err)
	}

	created, err := scanEntry(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return domain.AuditEntry{}, postgres.MapError(err, "audit entry for entity", entry.EntityID)
	}
	return created, nil
}

// Record creates an audit entry without returning it.
// Satisfies the auditRecorder interface of the coordinator services.
func (r *Repo) Record(ctx context.Context, entry domain.AuditEntry) error {
	_, err := r.Create(ctx, entry)
	return err
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// Query returns audit entries matching the filter, newest first, plus the
// total match count for pagination. page is 1-based.
func (r *Repo) Query(ctx context.Context, filter domain.AuditFilter, page, pageSize int) ([]domain.AuditEntry, int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	where := filterConditions(filter)

	countSQL, countArgs, err := postgres.Builder().
		Select("count(*)").
		From(table).
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count audit entries: %w", err)
	}

	var total int
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query audit entries: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, total, rows.Err()
}

// ResponseLatency computes the average time between an application's CREATE
// entry and its first status-changing UPDATE entry, across the actor's
// applications that have both. It is recomputed from the log on every call —
// never cached — so it cannot drift from the entries it is derived from.
// The returned count is the number of applications in the average;
// a zero count means no application has had a status change yet.
func (r *Repo) ResponseLatency(ctx context.Context, actorID uuid.UUID) (time.Duration, int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	const sql = `
		SELECT COALESCE(EXTRACT(EPOCH FROM avg(fc.first_change - cr.created_at)), 0),
		       count(*)
		FROM (
			SELECT entity_id, min(created_at) AS created_at
			FROM audit_log
			WHERE actor_id = $1 AND entity_type = $2 AND action = $3
			GROUP BY entity_id
		) cr
		JOIN (
			SELECT entity_id, min(created_at) AS first_change
			FROM audit_log
			WHERE actor_id = $1 AND entity_type = $2 AND action = $4
			  AND before_data -> 'application' ->> 'status'
			      IS DISTINCT FROM after_data -> 'application' ->> 'status'
			GROUP BY entity_id
		) fc USING (entity_id)`

	var (
		seconds float64
		count   int
	)
	err := q.QueryRow(ctx, sql,
		actorID, domain.EntityTypeApplication, domain.AuditActionCreate, domain.AuditActionUpdate,
	).Scan(&seconds, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("response latency: %w", err)
	}

	return time.Duration(seconds * float64(time.Second)), count, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func filterConditions(f domain.AuditFilter) squirrel.And {
	var cond squirrel.And
	if f.ActorID != uuid.Nil {
		cond = append(cond, squirrel.Eq{"actor_id": f.ActorID})
	}
	if f.EntityType != "" {
		cond = append(cond, squirrel.Eq{"entity_type": f.EntityType})
	}
	if f.EntityID != uuid.Nil {
		cond = append(cond, squirrel.Eq{"entity_id": f.EntityID})
	}
	if f.Action != "" {
		cond = append(cond, squirrel.Eq{"action": f.Action})
	}
	if !f.From.IsZero() {
		cond = append(cond, squirrel.GtOrEq{"created_at": f.From})
	}
	if !f.To.IsZero() {
		cond = append(cond, squirrel.LtOrEq{"created_at": f.To})
	}
	return cond
}

func marshalSnapshot(s *domain.Snapshot) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func scanEntry(row pgx.Row) (domain.AuditEntry, error) {
	var (
		entry      domain.AuditEntry
		beforeJSON []byte
		afterJSON  []byte
	)
	err := row.Scan(
		&entry.ID,
		&entry.ActorID,
		&entry.EntityType,
		&entry.EntityID,
		&entry.Action,
		&beforeJSON,
		&afterJSON,
		&entry.CreatedAt,
	)
	if err != nil {
		return domain.AuditEntry{}, err
	}

	if len(beforeJSON) > 0 {
		entry.Before = &domain.Snapshot{}
		if err := json.Unmarshal(beforeJSON, entry.Before); err != nil {
			return domain.AuditEntry{}, fmt.Errorf("audit entry %s unmarshal before: %w", entry.ID, err)
		}
	}
	if len(afterJSON) > 0 {
		entry.After = &domain.Snapshot{}
		if err := json.Unmarshal(afterJSON, entry.After); err != nil {
			return domain.AuditEntry{}, fmt.Errorf("audit entry %s unmarshal after: %w", entry.ID, err)
		}
	}

	return entry, nil
}
