// Package analysis implements fit analysis: a fingerprint-keyed result cache
// in front of the AI provider, and a dispatcher that runs the work either
// inline or through the durable job queue.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/applytrack/applytrack-backend/internal/domain"
)

type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type analysisRepo interface {
	GetBySubjectFingerprint(ctx context.Context, subjectID uuid.UUID, fingerprint string) (*domain.Analysis, error)
	Upsert(ctx context.Context, a *domain.Analysis) (*domain.Analysis, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Executor computes fit analyses through the cache: identical input (after
// normalization) never reaches the provider twice.
type Executor struct {
	analyses analysisRepo
	provider completer
	audit    auditRecorder
	tx       txManager
	log      *slog.Logger
}

// NewExecutor creates a new analysis executor.
func NewExecutor(
	log *slog.Logger,
	analyses analysisRepo,
	provider completer,
	audit auditRecorder,
	tx txManager,
) *Executor {
	return &Executor{
		analyses: analyses,
		provider: provider,
		audit:    audit,
		tx:       tx,
		log:      log.With("service", "analysis"),
	}
}

// Execute returns the analysis for the payload, from cache when possible.
// On a miss it calls the provider, validates the response against the strict
// result schema, and upserts the row keyed by (subject, fingerprint). Only a
// cache miss (domain.ErrNotFound) proceeds to the provider; any other lookup
// failure is returned as is.
func (e *Executor) Execute(ctx context.Context, payload domain.AnalysisPayload) (*domain.Analysis, error) {
	input := strings.TrimSpace(payload.Input)
	if input == "" {
		return nil, domain.NewValidationError("input", "is required")
	}
	if payload.SubjectID == uuid.Nil {
		return nil, domain.NewValidationError("subject_id", "is required")
	}

	fingerprint := domain.Fingerprint(payload.Input)

	cached, err := e.analyses.GetBySubjectFingerprint(ctx, payload.SubjectID, fingerprint)
	if err == nil {
		e.log.InfoContext(ctx, "analysis cache hit",
			"subject_id", payload.SubjectID,
			"fingerprint", fingerprint,
		)
		return cached, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup analysis: %w", err)
	}

	raw, err := e.provider.Complete(ctx, buildPrompt(input))
	if err != nil {
		return nil, err
	}

	result, err := parseResult(raw)
	if err != nil {
		return nil, err
	}

	var stored *domain.Analysis
	err = e.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		stored, err = e.analyses.Upsert(ctx, &domain.Analysis{
			SubjectID:        payload.SubjectID,
			InputFingerprint: fingerprint,
			Result:           result,
			RawResponse:      &raw,
		})
		if err != nil {
			return fmt.Errorf("store analysis: %w", err)
		}

		return e.audit.Record(ctx, domain.AuditEntry{
			ActorID:    payload.ActorID,
			Action:     domain.AuditActionCreate,
			EntityType: domain.EntityTypeAnalysis,
			EntityID:   stored.ID,
			After:      stored.Snapshot(),
		})
	})
	if err != nil {
		return nil, err
	}

	e.log.InfoContext(ctx, "analysis computed",
		"subject_id", payload.SubjectID,
		"fingerprint", fingerprint,
		"score", stored.Result.Score,
	)
	return stored, nil
}
