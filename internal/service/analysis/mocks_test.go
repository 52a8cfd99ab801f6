package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/applytrack/applytrack-backend/internal/domain"
)

type completerMock struct {
	CompleteFunc func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (m *completerMock) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.CompleteFunc(ctx, prompt)
}

func (m *completerMock) CompleteCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

type analysisRepoMock struct {
	GetBySubjectFingerprintFunc func(ctx context.Context, subjectID uuid.UUID, fingerprint string) (*domain.Analysis, error)
	UpsertFunc                  func(ctx context.Context, a *domain.Analysis) (*domain.Analysis, error)

	mu      sync.Mutex
	upserts []*domain.Analysis
}

func (m *analysisRepoMock) GetBySubjectFingerprint(ctx context.Context, subjectID uuid.UUID, fingerprint string) (*domain.Analysis, error) {
	return m.GetBySubjectFingerprintFunc(ctx, subjectID, fingerprint)
}

func (m *analysisRepoMock) Upsert(ctx context.Context, a *domain.Analysis) (*domain.Analysis, error) {
	m.mu.Lock()
	m.upserts = append(m.upserts, a)
	m.mu.Unlock()
	return m.UpsertFunc(ctx, a)
}

func (m *analysisRepoMock) UpsertCalls() []*domain.Analysis {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Analysis(nil), m.upserts...)
}

type auditRecorderMock struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (m *auditRecorderMock) Record(_ context.Context, entry domain.AuditEntry) error {
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	m.mu.Unlock()
	return nil
}

func (m *auditRecorderMock) RecordCalls() []domain.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AuditEntry(nil), m.entries...)
}

type txManagerMock struct{}

func (txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type appRepoMock struct {
	GetByIDFunc func(ctx context.Context, userID, id uuid.UUID) (*domain.Application, error)
}

func (m *appRepoMock) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Application, error) {
	return m.GetByIDFunc(ctx, userID, id)
}

// jobRepoMock backs both the queued strategy and the worker with an
// in-memory job table.
type jobRepoMock struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*domain.AnalysisJob
}

func newJobRepoMock() *jobRepoMock {
	return &jobRepoMock{jobs: make(map[uuid.UUID]*domain.AnalysisJob)}
}

func (m *jobRepoMock) Enqueue(_ context.Context, payload domain.AnalysisPayload) (*domain.AnalysisJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := &domain.AnalysisJob{
		ID:        uuid.New(),
		Payload:   payload,
		State:     domain.JobStateQueued,
		RunAt:     time.Now(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.jobs[job.ID] = job
	cp := *job
	return &cp, nil
}

func (m *jobRepoMock) GetByID(_ context.Context, id uuid.UUID) (*domain.AnalysisJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *jobRepoMock) Claim(_ context.Context) (*domain.AnalysisJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var oldest *domain.AnalysisJob
	for _, job := range m.jobs {
		if job.State != domain.JobStateQueued || job.RunAt.After(time.Now()) {
			continue
		}
		if oldest == nil || job.CreatedAt.Before(oldest.CreatedAt) {
			oldest = job
		}
	}
	if oldest == nil {
		return nil, domain.ErrNotFound
	}
	oldest.State = domain.JobStateActive
	oldest.Attempts++
	cp := *oldest
	return &cp, nil
}

func (m *jobRepoMock) SetProgress(_ context.Context, id uuid.UUID, progress int) error {
	return m.update(id, domain.JobStateActive, func(job *domain.AnalysisJob) {
		job.Progress = progress
	})
}

func (m *jobRepoMock) MarkCompleted(_ context.Context, id uuid.UUID, result domain.AnalysisResult) error {
	return m.update(id, domain.JobStateActive, func(job *domain.AnalysisJob) {
		job.State = domain.JobStateCompleted
		job.Progress = 100
		job.Result = &result
		job.FailureReason = nil
	})
}

func (m *jobRepoMock) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	return m.update(id, domain.JobStateActive, func(job *domain.AnalysisJob) {
		job.State = domain.JobStateFailed
		job.FailureReason = &reason
	})
}

func (m *jobRepoMock) Retry(_ context.Context, id uuid.UUID, runAt time.Time, reason string) error {
	return m.update(id, domain.JobStateActive, func(job *domain.AnalysisJob) {
		job.State = domain.JobStateQueued
		job.RunAt = runAt
		job.FailureReason = &reason
	})
}

func (m *jobRepoMock) ResetStuck(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, job := range m.jobs {
		if job.State == domain.JobStateActive {
			job.State = domain.JobStateQueued
			job.RunAt = time.Now()
			n++
		}
	}
	return n, nil
}

func (m *jobRepoMock) PruneTerminal(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, job := range m.jobs {
		if job.State.IsTerminal() && job.UpdatedAt.Before(cutoff) {
			delete(m.jobs, id)
			n++
		}
	}
	return n, nil
}

func (m *jobRepoMock) Stats(context.Context) (domain.JobStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stats domain.JobStats
	for _, job := range m.jobs {
		switch job.State {
		case domain.JobStateQueued:
			stats.Queued++
		case domain.JobStateActive:
			stats.Active++
		case domain.JobStateCompleted:
			stats.Completed++
		case domain.JobStateFailed:
			stats.Failed++
		}
		stats.Total++
	}
	return stats, nil
}

func (m *jobRepoMock) update(id uuid.UUID, want domain.JobState, apply func(*domain.AnalysisJob)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.State != want {
		return domain.ErrNotFound
	}
	apply(job)
	job.UpdatedAt = time.Now()
	return nil
}
