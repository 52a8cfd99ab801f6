// Package app wires configuration, adapters, services and transport into
// runnable processes: the API server and the queue worker.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/applytrack/applytrack-backend/internal/adapter/postgres"
	analysisrepo "github.com/applytrack/applytrack-backend/internal/adapter/postgres/analysis"
	applicationrepo "github.com/applytrack/applytrack-backend/internal/adapter/postgres/application"
	attachmentrepo "github.com/applytrack/applytrack-backend/internal/adapter/postgres/attachment"
	auditrepo "github.com/applytrack/applytrack-backend/internal/adapter/postgres/audit"
	jobrepo "github.com/applytrack/applytrack-backend/internal/adapter/postgres/job"
	"github.com/applytrack/applytrack-backend/internal/adapter/provider/claude"
	"github.com/applytrack/applytrack-backend/internal/adapter/s3"
	"github.com/applytrack/applytrack-backend/internal/auth"
	"github.com/applytrack/applytrack-backend/internal/config"
	"github.com/applytrack/applytrack-backend/internal/service/analysis"
	"github.com/applytrack/applytrack-backend/internal/service/application"
	"github.com/applytrack/applytrack-backend/internal/service/attachment"
	auditservice "github.com/applytrack/applytrack-backend/internal/service/audit"
	"github.com/applytrack/applytrack-backend/internal/transport/middleware"
	"github.com/applytrack/applytrack-backend/internal/transport/rest"
)

// App is the API server process.
type App struct {
	cfg    *config.Config
	log    *slog.Logger
	pool   *pgxpool.Pool
	server *http.Server
}

// New builds the API server with all dependencies wired.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := NewLogger(cfg.Log)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	tx := postgres.NewTxManager(pool)
	apps := applicationrepo.New(pool)
	attachments := attachmentrepo.New(pool)
	analyses := analysisrepo.New(pool)
	auditLog := auditrepo.New(pool)
	jobs := jobrepo.New(pool)

	blobs := s3.New(cfg.Storage)
	provider := claude.New(cfg.Provider)

	appService := application.NewService(log, apps, attachments, analyses, auditLog, tx, blobs)
	attachmentService := attachment.NewService(log, apps, attachments, auditLog, tx, blobs)
	auditService := auditservice.NewService(log, auditLog)

	executor := analysis.NewExecutor(log, analyses, provider, auditLog, tx)

	var strategy analysis.ExecutionStrategy
	switch cfg.Jobs.Mode {
	case config.JobsModeQueued:
		strategy = analysis.NewQueuedStrategy(jobs)
	default:
		strategy = analysis.NewSyncStrategy(executor)
	}
	dispatcher := analysis.NewDispatcher(log, apps, strategy)

	handler := rest.NewHandler(log, appService, attachmentService, dispatcher, auditService, pool)
	authMW := middleware.Auth(auth.NewValidator(cfg.Auth))

	root := middleware.Chain(handler.Routes(authMW),
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:    cfg,
		log:    log,
		pool:   pool,
		server: server,
	}, nil
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server listening",
			"addr", a.server.Addr,
			"jobs_mode", a.cfg.Jobs.Mode,
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.pool.Close()
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.pool.Close()
		return fmt.Errorf("shutdown: %w", err)
	}
	a.pool.Close()

	a.log.Info("server stopped")
	return nil
}

// WorkerApp is the queue worker process.
type WorkerApp struct {
	log    *slog.Logger
	pool   *pgxpool.Pool
	worker *analysis.Worker
}

// NewWorkerApp builds the queue worker with all dependencies wired.
func NewWorkerApp(ctx context.Context, cfg *config.Config) (*WorkerApp, error) {
	log := NewLogger(cfg.Log)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	tx := postgres.NewTxManager(pool)
	analyses := analysisrepo.New(pool)
	auditLog := auditrepo.New(pool)
	jobs := jobrepo.New(pool)
	provider := claude.New(cfg.Provider)

	executor := analysis.NewExecutor(log, analyses, provider, auditLog, tx)
	worker := analysis.NewWorker(log, jobs, executor, cfg.Jobs)

	return &WorkerApp{
		log:    log,
		pool:   pool,
		worker: worker,
	}, nil
}

// Run processes the queue until ctx is canceled.
func (w *WorkerApp) Run(ctx context.Context) error {
	defer w.pool.Close()
	return w.worker.Run(ctx)
}
