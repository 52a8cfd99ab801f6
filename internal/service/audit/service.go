// Package audit implements the audit trail read side: filtered, paginated
// queries over the append-only log and metrics derived from it.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/applytrack/applytrack-backend/internal/domain"
	"github.com/applytrack/applytrack-backend/pkg/ctxutil"
)

// Pagination bounds for Query.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

type auditRepo interface {
	Query(ctx context.Context, filter domain.AuditFilter, page, pageSize int) ([]domain.AuditEntry, int, error)
	ResponseLatency(ctx context.Context, actorID uuid.UUID) (time.Duration, int, error)
}

// Service provides read access to the audit trail.
type Service struct {
	audit auditRepo
	log   *slog.Logger
}

// NewService creates a new audit service.
func NewService(log *slog.Logger, audit auditRepo) *Service {
	return &Service{
		audit: audit,
		log:   log.With("service", "audit"),
	}
}

// QueryResult is one page of audit entries plus the total match count.
type QueryResult struct {
	Entries  []domain.AuditEntry
	Total    int
	Page     int
	PageSize int
}

// Query returns audit entries matching the filter, newest first. Non-admin
// callers only see their own entries: the filter's ActorID is forced to the
// authenticated user.
func (s *Service) Query(ctx context.Context, filter domain.AuditFilter, page, pageSize int) (*QueryResult, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if !ctxutil.IsAdminCtx(ctx) {
		filter.ActorID = userID
	}

	if filter.EntityType != "" && !filter.EntityType.IsValid() {
		return nil, domain.NewValidationError("entity_type", "unknown type")
	}
	if filter.Action != "" && !filter.Action.IsValid() {
		return nil, domain.NewValidationError("action", "unknown action")
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, domain.NewValidationError("to", "must not precede from")
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	entries, total, err := s.audit.Query(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &QueryResult{
		Entries:  entries,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// LatencyReport is the derived response-latency metric.
type LatencyReport struct {
	Average time.Duration
	Count   int
}

// ResponseLatency reports the caller's average time from creating an
// application to its first status change, recomputed from the log on every
// call.
func (s *Service) ResponseLatency(ctx context.Context) (*LatencyReport, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	avg, count, err := s.audit.ResponseLatency(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &LatencyReport{Average: avg, Count: count}, nil
}
