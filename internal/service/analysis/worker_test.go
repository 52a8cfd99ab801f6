package analysis

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/applytrack/applytrack-backend/internal/config"
	"github.com/applytrack/applytrack-backend/internal/domain"
)

func testJobsConfig() config.JobsConfig {
	return config.JobsConfig{
		Mode:           config.JobsModeQueued,
		PollInterval:   10 * time.Millisecond,
		MaxAttempts:    2,
		BackoffBase:    time.Second,
		BackoffMax:     8 * time.Second,
		PruneInterval:  time.Hour,
		PruneRetention: time.Hour,
	}
}

func newWorker(jobs *jobRepoMock, provider *completerMock) *Worker {
	exec := newExecutor(missRepo(), provider, &auditRecorderMock{})
	return NewWorker(slog.New(slog.DiscardHandler), jobs, exec, testJobsConfig())
}

func enqueue(t *testing.T, jobs *jobRepoMock) *domain.AnalysisJob {
	t.Helper()
	job, err := jobs.Enqueue(context.Background(), domain.AnalysisPayload{
		ActorID:   uuid.New(),
		SubjectID: uuid.New(),
		Input:     "posting and candidate",
	})
	require.NoError(t, err)
	return job
}

func TestWorkerProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("successful job completes with result", func(t *testing.T) {
		jobs := newJobRepoMock()
		provider := &completerMock{
			CompleteFunc: func(context.Context, string) (string, error) { return validResponse, nil },
		}
		w := newWorker(jobs, provider)
		enqueue(t, jobs)

		w.drain(ctx)

		_, err := jobs.Claim(ctx)
		assert.ErrorIs(t, err, domain.ErrNotFound, "queue should be drained")

		stats, _ := jobs.Stats(ctx)
		assert.Equal(t, 1, stats.Completed)
	})

	t.Run("completed job carries progress and result", func(t *testing.T) {
		jobs := newJobRepoMock()
		provider := &completerMock{
			CompleteFunc: func(context.Context, string) (string, error) { return validResponse, nil },
		}
		w := newWorker(jobs, provider)
		job := enqueue(t, jobs)

		w.drain(ctx)

		done, err := jobs.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStateCompleted, done.State)
		assert.Equal(t, 100, done.Progress)
		require.NotNil(t, done.Result)
		assert.Equal(t, 72, done.Result.Score)
		assert.Nil(t, done.FailureReason)
	})

	t.Run("invalid response fails immediately, no retry", func(t *testing.T) {
		jobs := newJobRepoMock()
		provider := &completerMock{
			CompleteFunc: func(context.Context, string) (string, error) { return "not json", nil },
		}
		w := newWorker(jobs, provider)
		job := enqueue(t, jobs)

		w.drain(ctx)

		failed, err := jobs.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStateFailed, failed.State)
		assert.Equal(t, 1, failed.Attempts)
		require.NotNil(t, failed.FailureReason)
		assert.Len(t, provider.CompleteCalls(), 1)
	})

	t.Run("transient failure retries with backoff then fails", func(t *testing.T) {
		jobs := newJobRepoMock()
		provider := &completerMock{
			CompleteFunc: func(context.Context, string) (string, error) {
				return "", domain.ErrProviderUnavailable
			},
		}
		w := newWorker(jobs, provider)
		job := enqueue(t, jobs)

		w.drain(ctx)

		requeued, err := jobs.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStateQueued, requeued.State)
		assert.Equal(t, 1, requeued.Attempts)
		assert.True(t, requeued.RunAt.After(time.Now()), "run_at must be pushed into the future")

		// Force the job due and let the second (final) attempt run.
		require.NoError(t, jobs.update(job.ID, domain.JobStateQueued, func(j *domain.AnalysisJob) {
			j.RunAt = time.Now().Add(-time.Second)
		}))
		w.drain(ctx)

		failed, err := jobs.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStateFailed, failed.State)
		assert.Equal(t, 2, failed.Attempts)
		assert.Len(t, provider.CompleteCalls(), 2)
	})
}

func TestWorkerBackoff(t *testing.T) {
	w := newWorker(newJobRepoMock(), &completerMock{})

	assert.Equal(t, time.Second, w.backoff(1))
	assert.Equal(t, 2*time.Second, w.backoff(2))
	assert.Equal(t, 4*time.Second, w.backoff(3))
	assert.Equal(t, 8*time.Second, w.backoff(4))
	assert.Equal(t, 8*time.Second, w.backoff(10), "capped at backoff_max")
}

func TestWorkerRun(t *testing.T) {
	t.Run("requeues stuck jobs at startup and stops on cancel", func(t *testing.T) {
		jobs := newJobRepoMock()
		job := enqueue(t, jobs)
		_, err := jobs.Claim(context.Background())
		require.NoError(t, err)

		provider := &completerMock{
			CompleteFunc: func(context.Context, string) (string, error) { return validResponse, nil },
		}
		w := newWorker(jobs, provider)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- w.Run(ctx) }()

		require.Eventually(t, func() bool {
			got, err := jobs.GetByID(context.Background(), job.ID)
			return err == nil && got.State == domain.JobStateCompleted
		}, 2*time.Second, 10*time.Millisecond)

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("worker did not stop after cancel")
		}
	})
}
