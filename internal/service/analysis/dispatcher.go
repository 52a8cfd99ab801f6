package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/applytrack/applytrack-backend/internal/domain"
	"github.com/applytrack/applytrack-backend/pkg/ctxutil"
)

// Execution modes reported in SubmitResult.
const (
	ModeSync   = "sync"
	ModeQueued = "queued"
)

type jobRepo interface {
	Enqueue(ctx context.Context, payload domain.AnalysisPayload) (*domain.AnalysisJob, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisJob, error)
}

type applicationRepo interface {
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Application, error)
}

// SubmitResult is the outcome of a submission. In sync mode Analysis is set
// and JobID is nil; in queued mode the reverse.
type SubmitResult struct {
	Mode     string
	JobID    *uuid.UUID
	Analysis *domain.Analysis
}

// ExecutionStrategy decides how submitted work runs. The strategy is fixed
// at construction; callers observe the difference only through SubmitResult.
type ExecutionStrategy interface {
	Submit(ctx context.Context, payload domain.AnalysisPayload) (*SubmitResult, error)
	Status(ctx context.Context, jobID uuid.UUID) (*domain.AnalysisJob, error)
}

// SyncStrategy executes submissions inline on the caller's goroutine.
type SyncStrategy struct {
	executor *Executor
}

// NewSyncStrategy creates the inline execution strategy.
func NewSyncStrategy(executor *Executor) *SyncStrategy {
	return &SyncStrategy{executor: executor}
}

func (s *SyncStrategy) Submit(ctx context.Context, payload domain.AnalysisPayload) (*SubmitResult, error) {
	analysis, err := s.executor.Execute(ctx, payload)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Mode: ModeSync, Analysis: analysis}, nil
}

// Status always reports not found: inline execution leaves no job behind.
func (s *SyncStrategy) Status(context.Context, uuid.UUID) (*domain.AnalysisJob, error) {
	return nil, fmt.Errorf("no jobs in sync mode: %w", domain.ErrNotFound)
}

// QueuedStrategy defers submissions to the durable queue; a worker picks
// them up.
type QueuedStrategy struct {
	jobs jobRepo
}

// NewQueuedStrategy creates the queue-backed execution strategy.
func NewQueuedStrategy(jobs jobRepo) *QueuedStrategy {
	return &QueuedStrategy{jobs: jobs}
}

func (s *QueuedStrategy) Submit(ctx context.Context, payload domain.AnalysisPayload) (*SubmitResult, error) {
	job, err := s.jobs.Enqueue(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("enqueue analysis job: %w", err)
	}
	return &SubmitResult{Mode: ModeQueued, JobID: &job.ID}, nil
}

func (s *QueuedStrategy) Status(ctx context.Context, jobID uuid.UUID) (*domain.AnalysisJob, error) {
	return s.jobs.GetByID(ctx, jobID)
}

// Dispatcher is the entry point for analysis submissions. It authorizes the
// caller against the subject application, then hands the payload to the
// configured strategy.
type Dispatcher struct {
	apps     applicationRepo
	strategy ExecutionStrategy
	log      *slog.Logger
}

// NewDispatcher creates a dispatcher bound to one execution strategy.
func NewDispatcher(log *slog.Logger, apps applicationRepo, strategy ExecutionStrategy) *Dispatcher {
	return &Dispatcher{
		apps:     apps,
		strategy: strategy,
		log:      log.With("service", "dispatcher"),
	}
}

// Submit runs or enqueues a fit analysis for one of the caller's
// applications.
func (d *Dispatcher) Submit(ctx context.Context, subjectID uuid.UUID, input string) (*SubmitResult, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if subjectID == uuid.Nil {
		return nil, domain.NewValidationError("subject_id", "is required")
	}
	if domain.NormalizeInput(input) == "" {
		return nil, domain.NewValidationError("input", "is required")
	}

	// Ownership check: the subject must be the caller's application.
	if _, err := d.apps.GetByID(ctx, userID, subjectID); err != nil {
		return nil, fmt.Errorf("load application: %w", err)
	}

	res, err := d.strategy.Submit(ctx, domain.AnalysisPayload{
		ActorID:   userID,
		SubjectID: subjectID,
		Input:     input,
	})
	if err != nil {
		return nil, err
	}

	d.log.InfoContext(ctx, "analysis submitted",
		"subject_id", subjectID,
		"mode", res.Mode,
	)
	return res, nil
}

// GetStatus returns the job for polling. Jobs are only visible to the actor
// that submitted them; anyone else sees not found.
func (d *Dispatcher) GetStatus(ctx context.Context, jobID uuid.UUID) (*domain.AnalysisJob, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	job, err := d.strategy.Status(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Payload.ActorID != userID && !ctxutil.IsAdminCtx(ctx) {
		return nil, fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
	}
	return job, nil
}
