// Package application implements the application write path: every
// create/update runs in one transaction with its audit entry, and deletion
// coordinates the relational store and the blob store.
package application

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/applytrack/applytrack-backend/internal/domain"
	"github.com/applytrack/applytrack-backend/pkg/ctxutil"
)

type applicationRepo interface {
	Create(ctx context.Context, app *domain.Application) (*domain.Application, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Application, error)
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Application, error)
	Update(ctx context.Context, userID, id uuid.UUID, params domain.ApplicationUpdateParams) (*domain.Application, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type attachmentRepo interface {
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*domain.Attachment, error)
	DeleteByApplication(ctx context.Context, applicationID uuid.UUID) (int64, error)
}

type analysisRepo interface {
	DeleteBySubject(ctx context.Context, subjectID uuid.UUID) (int64, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type blobStore interface {
	Delete(ctx context.Context, key string) error
}

// Service provides application management operations.
type Service struct {
	apps        applicationRepo
	attachments attachmentRepo
	analyses    analysisRepo
	audit       auditRecorder
	tx          txManager
	blobs       blobStore
	log         *slog.Logger
}

// NewService creates a new application service.
func NewService(
	log *slog.Logger,
	apps applicationRepo,
	attachments attachmentRepo,
	analyses analysisRepo,
	audit auditRecorder,
	tx txManager,
	blobs blobStore,
) *Service {
	return &Service{
		apps:        apps,
		attachments: attachments,
		analyses:    analyses,
		audit:       audit,
		tx:          tx,
		blobs:       blobs,
		log:         log.With("service", "application"),
	}
}

// Get returns one application owned by the authenticated user.
func (s *Service) Get(ctx context.Context, applicationID uuid.UUID) (*domain.Application, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return s.apps.GetByID(ctx, userID, applicationID)
}

// List returns the authenticated user's applications, newest first.
func (s *Service) List(ctx context.Context) ([]*domain.Application, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return s.apps.List(ctx, userID)
}
