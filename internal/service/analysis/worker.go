package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/applytrack/applytrack-backend/internal/config"
	"github.com/applytrack/applytrack-backend/internal/domain"
)

type workerJobRepo interface {
	Claim(ctx context.Context) (*domain.AnalysisJob, error)
	SetProgress(ctx context.Context, id uuid.UUID, progress int) error
	MarkCompleted(ctx context.Context, id uuid.UUID, result domain.AnalysisResult) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	Retry(ctx context.Context, id uuid.UUID, runAt time.Time, reason string) error
	ResetStuck(ctx context.Context) (int64, error)
	PruneTerminal(ctx context.Context, cutoff time.Time) (int64, error)
	Stats(ctx context.Context) (domain.JobStats, error)
}

// Worker drains the durable queue: claim, execute, finish or retry. Safe to
// run in multiple instances; SKIP LOCKED claiming keeps them from colliding.
type Worker struct {
	jobs     workerJobRepo
	executor *Executor
	cfg      config.JobsConfig
	log      *slog.Logger
}

// NewWorker creates a queue worker.
func NewWorker(log *slog.Logger, jobs workerJobRepo, executor *Executor, cfg config.JobsConfig) *Worker {
	return &Worker{
		jobs:     jobs,
		executor: executor,
		cfg:      cfg,
		log:      log.With("service", "worker"),
	}
}

// Run polls the queue until ctx is canceled. Jobs left active by a previous
// crash are requeued once at startup.
func (w *Worker) Run(ctx context.Context) error {
	reset, err := w.jobs.ResetStuck(ctx)
	if err != nil {
		return fmt.Errorf("reset stuck jobs: %w", err)
	}
	if reset > 0 {
		w.log.WarnContext(ctx, "requeued stuck jobs", "count", reset)
	}

	poll := time.NewTicker(w.cfg.PollInterval)
	defer poll.Stop()
	prune := time.NewTicker(w.cfg.PruneInterval)
	defer prune.Stop()

	w.log.InfoContext(ctx, "worker started",
		"poll_interval", w.cfg.PollInterval,
		"max_attempts", w.cfg.MaxAttempts,
	)

	for {
		select {
		case <-ctx.Done():
			w.log.InfoContext(ctx, "worker stopping")
			return nil
		case <-poll.C:
			w.drain(ctx)
		case <-prune.C:
			w.prune(ctx)
		}
	}
}

// drain claims and processes jobs until the queue reports idle.
func (w *Worker) drain(ctx context.Context) {
	for {
		job, err := w.jobs.Claim(ctx)
		if errors.Is(err, domain.ErrNotFound) {
			return
		}
		if err != nil {
			w.log.ErrorContext(ctx, "claim job", "error", err)
			return
		}
		w.process(ctx, job)

		if ctx.Err() != nil {
			return
		}
	}
}

func (w *Worker) process(ctx context.Context, job *domain.AnalysisJob) {
	log := w.log.With("job_id", job.ID, "subject_id", job.Payload.SubjectID, "attempt", job.Attempts)

	if err := w.jobs.SetProgress(ctx, job.ID, 50); err != nil {
		log.ErrorContext(ctx, "set progress", "error", err)
	}

	analysis, err := w.executor.Execute(ctx, job.Payload)
	if err == nil {
		if err := w.jobs.MarkCompleted(ctx, job.ID, analysis.Result); err != nil {
			log.ErrorContext(ctx, "mark completed", "error", err)
			return
		}
		log.InfoContext(ctx, "job completed", "score", analysis.Result.Score)
		return
	}

	if !w.retryable(err) || job.Attempts >= w.cfg.MaxAttempts {
		if markErr := w.jobs.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			log.ErrorContext(ctx, "mark failed", "error", markErr)
			return
		}
		log.ErrorContext(ctx, "job failed", "error", err)
		return
	}

	runAt := time.Now().Add(w.backoff(job.Attempts))
	if retryErr := w.jobs.Retry(ctx, job.ID, runAt, err.Error()); retryErr != nil {
		log.ErrorContext(ctx, "requeue job", "error", retryErr)
		return
	}
	log.WarnContext(ctx, "job requeued", "run_at", runAt, "error", err)
}

// retryable reports whether another attempt could succeed. Schema-invalid
// responses and bad input fail the same way every time; only transient
// provider and infrastructure failures earn a retry.
func (w *Worker) retryable(err error) bool {
	return !errors.Is(err, domain.ErrInvalidProviderResponse) &&
		!errors.Is(err, domain.ErrValidation) &&
		!errors.Is(err, domain.ErrNotFound)
}

// backoff returns the delay before the next attempt: base doubled per prior
// attempt, capped at the configured maximum.
func (w *Worker) backoff(attempts int) time.Duration {
	d := w.cfg.BackoffBase
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= w.cfg.BackoffMax {
			return w.cfg.BackoffMax
		}
	}
	if d > w.cfg.BackoffMax {
		return w.cfg.BackoffMax
	}
	return d
}

func (w *Worker) prune(ctx context.Context) {
	cutoff := time.Now().Add(-w.cfg.PruneRetention)
	pruned, err := w.jobs.PruneTerminal(ctx, cutoff)
	if err != nil {
		w.log.ErrorContext(ctx, "prune jobs", "error", err)
		return
	}

	stats, err := w.jobs.Stats(ctx)
	if err != nil {
		w.log.ErrorContext(ctx, "job stats", "error", err)
		return
	}
	w.log.InfoContext(ctx, "queue pruned",
		"pruned", pruned,
		"queued", stats.Queued,
		"active", stats.Active,
		"completed", stats.Completed,
		"failed", stats.Failed,
	)
}
