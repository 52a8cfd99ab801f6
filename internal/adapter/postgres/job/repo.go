// Package job implements the durable analysis job queue using PostgreSQL.
// Claiming uses FOR UPDATE SKIP LOCKED so concurrent workers never process
// the same job twice.
package job

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

const table = "analysis_jobs"

var columns = []string{"id", "payload", "state", "progress", "attempts", "run_at", "result", "failure_reason", "created_at", "updated_at"}

// Repo provides analysis job persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new job repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Enqueue inserts a new queued job for the payload and returns it.
func (r *Repo) Enqueue(ctx context.Context, payload domain.AnalysisPayload) (*domain.AnalysisJob, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("job marshal payload: %w", err)
	}

	sql, args, err := postgres.Builder().
		Insert(table).
		Columns("payload", "state").
		Values(payloadJSON, domain.JobStateQueued).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build enqueue job: %w", err)
	}

	job, err := scanJob(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "job for subject", payload.SubjectID)
	}
	return job, nil
}

// GetByID returns the job, or domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisJob, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select job: %w", err)
	}

	job, err := scanJob(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "job", id)
	}
	return job, nil
}

// Claim atomically moves the oldest due queued job to active, bumps its
// attempt counter, and returns it. domain.ErrNotFound means the queue is
// idle. A single UPDATE with a SKIP LOCKED subselect keeps concurrent
// workers from claiming the same row.
func (r *Repo) Claim(ctx context.Context) (*domain.AnalysisJob, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql := `
		UPDATE analysis_jobs
		SET state = $1, attempts = attempts + 1, updated_at = now()
		WHERE id = (
			SELECT id FROM analysis_jobs
			WHERE state = $2 AND run_at <= now()
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + strings.Join(columns, ", ")

	job, err := scanJob(q.QueryRow(ctx, sql, domain.JobStateActive, domain.JobStateQueued))
	if err != nil {
		return nil, postgres.MapError(err, "job claim", uuid.Nil)
	}
	return job, nil
}

// SetProgress updates the progress percentage of an active job.
func (r *Repo) SetProgress(ctx context.Context, id uuid.UUID, progress int) error {
	return r.exec(ctx, id, postgres.Builder().
		Update(table).
		Set("progress", progress).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "state": domain.JobStateActive}))
}

// MarkCompleted stores the validated result and moves the job to its
// completed terminal state.
func (r *Repo) MarkCompleted(ctx context.Context, id uuid.UUID, result domain.AnalysisResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("job marshal result: %w", err)
	}

	return r.exec(ctx, id, postgres.Builder().
		Update(table).
		Set("state", domain.JobStateCompleted).
		Set("progress", 100).
		Set("result", resultJSON).
		Set("failure_reason", nil).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "state": domain.JobStateActive}))
}

// MarkFailed moves the job to its failed terminal state with a reason.
// The dispatcher never resubmits a failed job; the caller must.
func (r *Repo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.exec(ctx, id, postgres.Builder().
		Update(table).
		Set("state", domain.JobStateFailed).
		Set("failure_reason", reason).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "state": domain.JobStateActive}))
}

// Retry requeues an active job for another attempt at runAt, recording the
// transient failure that caused the retry.
func (r *Repo) Retry(ctx context.Context, id uuid.UUID, runAt time.Time, reason string) error {
	return r.exec(ctx, id, postgres.Builder().
		Update(table).
		Set("state", domain.JobStateQueued).
		Set("run_at", runAt).
		Set("failure_reason", reason).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "state": domain.JobStateActive}))
}

// ResetStuck requeues jobs left active by a crashed worker. Called once at
// worker startup.
func (r *Repo) ResetStuck(ctx context.Context) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Update(table).
		Set("state", domain.JobStateQueued).
		Set("run_at", squirrel.Expr("now()")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"state": domain.JobStateActive}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build reset stuck jobs: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PruneTerminal deletes completed and failed jobs last touched before the
// cutoff, returning the number pruned.
func (r *Repo) PruneTerminal(ctx context.Context, cutoff time.Time) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"state": []domain.JobState{domain.JobStateCompleted, domain.JobStateFailed}}).
		Where(squirrel.Lt{"updated_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build prune jobs: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Stats returns aggregate job counts by state.
func (r *Repo) Stats(ctx context.Context) (domain.JobStats, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	const sql = `
		SELECT
			count(*) FILTER (WHERE state = 'queued'),
			count(*) FILTER (WHERE state = 'active'),
			count(*) FILTER (WHERE state = 'completed'),
			count(*) FILTER (WHERE state = 'failed'),
			count(*)
		FROM analysis_jobs`

	var stats domain.JobStats
	err := q.QueryRow(ctx, sql).Scan(
		&stats.Queued, &stats.Active, &stats.Completed, &stats.Failed, &stats.Total,
	)
	if err != nil {
		return domain.JobStats{}, fmt.Errorf("job stats: %w", err)
	}
	return stats, nil
}

func (r *Repo) exec(ctx context.Context, id uuid.UUID, builder squirrel.UpdateBuilder) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build update job: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "job", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanJob(row pgx.Row) (*domain.AnalysisJob, error) {
	var (
		j           domain.AnalysisJob
		payloadJSON []byte
		resultJSON  []byte
	)
	err := row.Scan(
		&j.ID,
		&payloadJSON,
		&j.State,
		&j.Progress,
		&j.Attempts,
		&j.RunAt,
		&resultJSON,
		&j.FailureReason,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(payloadJSON, &j.Payload); err != nil {
		return nil, fmt.Errorf("job %s unmarshal payload: %w", j.ID, err)
	}
	if len(resultJSON) > 0 {
		j.Result = &domain.AnalysisResult{}
		if err := json.Unmarshal(resultJSON, j.Result); err != nil {
			return nil, fmt.Errorf("job %s unmarshal result: %w", j.ID, err)
		}
	}

	return &j, nil
}
