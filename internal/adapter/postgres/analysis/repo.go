// Package analysis implements the analysis cache repository using PostgreSQL.
// The unique key (subject_id, input_fingerprint) plus upsert semantics
// guarantee at most one stored result per fingerprint without a prior
// existence check, avoiding the check-then-act race under concurrent misses.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/applytrack/applytrack-backend/internal/adapter/postgres"
	"github.com/applytrack/applytrack-backend/internal/domain"
)

const table = "analyses"

var columns = []string{"id", "subject_id", "input_fingerprint", "result", "raw_response", "created_at", "updated_at"}

// Repo provides analysis persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new analysis repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// GetBySubjectFingerprint returns the cached analysis for the key, or
// domain.ErrNotFound on a cache miss.
func (r *Repo) GetBySubjectFingerprint(ctx context.Context, subjectID uuid.UUID, fingerprint string) (*domain.Analysis, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"subject_id": subjectID, "input_fingerprint": fingerprint}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select analysis: %w", err)
	}

	a, err := scanAnalysis(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "analysis for subject", subjectID)
	}
	return a, nil
}

// Upsert inserts the analysis or, when a row with the same
// (subject_id, input_fingerprint) already exists, overwrites its result in
// place (last write wins). The stored row's id and created_at survive the
// conflict, so re-submissions observe a stable analysis identity.
func (r *Repo) Upsert(ctx context.Context, a *domain.Analysis) (*domain.Analysis, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	resultJSON, err := json.Marshal(a.Result)
	if err != nil {
		return nil, fmt.Errorf("analysis marshal result: %w", err)
	}

	sql, args, err := postgres.Builder().
		Insert(table).
		Columns("subject_id", "input_fingerprint", "result", "raw_response").
		Values(a.SubjectID, a.InputFingerprint, resultJSON, a.RawResponse).
		Suffix(`ON CONFLICT (subject_id, input_fingerprint) DO UPDATE
			SET result = EXCLUDED.result,
			    raw_response = EXCLUDED.raw_response,
			    updated_at = now()
			RETURNING ` + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert analysis: %w", err)
	}

	stored, err := scanAnalysis(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "analysis for subject", a.SubjectID)
	}
	return stored, nil
}

// DeleteBySubject removes every analysis of a subject and returns the count.
// Called by the deletion coordinator; the FK cascade is only the safety net.
func (r *Repo) DeleteBySubject(ctx context.Context, subjectID uuid.UUID) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"subject_id": subjectID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete analyses: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(err, "analyses of subject", subjectID)
	}
	return tag.RowsAffected(), nil
}

func scanAnalysis(row pgx.Row) (*domain.Analysis, error) {
	var (
		a          domain.Analysis
		resultJSON []byte
	)
	err := row.Scan(
		&a.ID,
		&a.SubjectID,
		&a.InputFingerprint,
		&resultJSON,
		&a.RawResponse,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resultJSON, &a.Result); err != nil {
		return nil, fmt.Errorf("analysis %s unmarshal result: %w", a.ID, err)
	}
	return &a, nil
}
