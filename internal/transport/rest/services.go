package rest

import (
	"context"

	"github.com/google/uuid"

	"github.com/applytrack/applytrack-backend/internal/domain"
	"github.com/applytrack/applytrack-backend/internal/service/analysis"
	"github.com/applytrack/applytrack-backend/internal/service/application"
	"github.com/applytrack/applytrack-backend/internal/service/attachment"
	"github.com/applytrack/applytrack-backend/internal/service/audit"
)

// Service contracts consumed by the handlers.

type ApplicationService interface {
	Create(ctx context.Context, in application.CreateInput) (*domain.Application, error)
	Get(ctx context.Context, applicationID uuid.UUID) (*domain.Application, error)
	List(ctx context.Context) ([]*domain.Application, error)
	Update(ctx context.Context, in application.UpdateInput) (*domain.Application, error)
	Delete(ctx context.Context, applicationID uuid.UUID) error
}

type AttachmentService interface {
	Upload(ctx context.Context, in attachment.UploadInput) (*domain.Attachment, error)
	List(ctx context.Context, applicationID uuid.UUID) ([]*domain.Attachment, error)
	Download(ctx context.Context, applicationID, attachmentID uuid.UUID) (*domain.Attachment, []byte, error)
	Delete(ctx context.Context, applicationID, attachmentID uuid.UUID) error
}

type DispatcherService interface {
	Submit(ctx context.Context, subjectID uuid.UUID, input string) (*analysis.SubmitResult, error)
	GetStatus(ctx context.Context, jobID uuid.UUID) (*domain.AnalysisJob, error)
}

type AuditService interface {
	Query(ctx context.Context, filter domain.AuditFilter, page, pageSize int) (*audit.QueryResult, error)
	ResponseLatency(ctx context.Context) (*audit.LatencyReport, error)
}
