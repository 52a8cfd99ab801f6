// Package attachment implements attachment uploads and deletion across the
// relational store and the blob store. There is no cross-store transaction;
// the write order is chosen so a crash leaves an orphaned blob at worst,
// never a row pointing at missing bytes.
package attachment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/applytrack/applytrack-backend/internal/domain"
	"github.com/applytrack/applytrack-backend/pkg/ctxutil"
)

// MaxUploadBytes caps a single attachment upload.
const MaxUploadBytes = 20 << 20

type applicationRepo interface {
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Application, error)
}

type attachmentRepo interface {
	Create(ctx context.Context, att *domain.Attachment) (*domain.Attachment, error)
	GetByID(ctx context.Context, applicationID, id uuid.UUID) (*domain.Attachment, error)
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*domain.Attachment, error)
	Delete(ctx context.Context, applicationID, id uuid.UUID) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type blobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Service provides attachment operations.
type Service struct {
	apps        applicationRepo
	attachments attachmentRepo
	audit       auditRecorder
	tx          txManager
	blobs       blobStore
	log         *slog.Logger
}

// NewService creates a new attachment service.
func NewService(
	log *slog.Logger,
	apps applicationRepo,
	attachments attachmentRepo,
	audit auditRecorder,
	tx txManager,
	blobs blobStore,
) *Service {
	return &Service{
		apps:        apps,
		attachments: attachments,
		audit:       audit,
		tx:          tx,
		blobs:       blobs,
		log:         log.With("service", "attachment"),
	}
}

// UploadInput holds the fields for uploading an attachment.
type UploadInput struct {
	ApplicationID uuid.UUID
	FileName      string
	ContentType   string
	Data          []byte
}

// Validate checks required fields and normalizes the content type.
func (in *UploadInput) Validate() error {
	var fieldErrors []domain.FieldError

	if in.ApplicationID == uuid.Nil {
		fieldErrors = append(fieldErrors, domain.FieldError{Field: "application_id", Message: "is required"})
	}
	in.FileName = strings.TrimSpace(in.FileName)
	if in.FileName == "" {
		fieldErrors = append(fieldErrors, domain.FieldError{Field: "file_name", Message: "is required"})
	}
	if len(in.Data) == 0 {
		fieldErrors = append(fieldErrors, domain.FieldError{Field: "data", Message: "is empty"})
	}
	if len(in.Data) > MaxUploadBytes {
		fieldErrors = append(fieldErrors, domain.FieldError{Field: "data", Message: fmt.Sprintf("exceeds %d bytes", MaxUploadBytes)})
	}
	if in.ContentType == "" {
		in.ContentType = "application/octet-stream"
	}

	if len(fieldErrors) > 0 {
		return domain.NewValidationErrors(fieldErrors)
	}
	return nil
}

// Upload stores the blob, then inserts the metadata row and its CREATE audit
// entry in one transaction. The blob goes first: if the transaction fails the
// blob is removed again (best effort), so the database never references bytes
// that were not written.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*domain.Attachment, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	// Ownership check before touching storage.
	if _, err := s.apps.GetByID(ctx, userID, in.ApplicationID); err != nil {
		return nil, fmt.Errorf("load application: %w", err)
	}

	storageKey := fmt.Sprintf("applications/%s/attachments/%s", in.ApplicationID, uuid.New())
	if err := s.blobs.Put(ctx, storageKey, in.Data, in.ContentType); err != nil {
		return nil, fmt.Errorf("upload blob: %w", err)
	}

	var created *domain.Attachment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.attachments.Create(ctx, &domain.Attachment{
			ApplicationID: in.ApplicationID,
			FileName:      in.FileName,
			ByteSize:      int64(len(in.Data)),
			ContentType:   in.ContentType,
			StorageKey:    storageKey,
		})
		if err != nil {
			return fmt.Errorf("create attachment: %w", err)
		}

		return s.audit.Record(ctx, domain.AuditEntry{
			ActorID:    userID,
			Action:     domain.AuditActionCreate,
			EntityType: domain.EntityTypeAttachment,
			EntityID:   created.ID,
			After:      created.Snapshot(),
		})
	})
	if err != nil {
		if cleanupErr := s.blobs.Delete(ctx, storageKey); cleanupErr != nil {
			s.log.ErrorContext(ctx, "orphaned blob after failed upload",
				"storage_key", storageKey,
				"error", cleanupErr,
			)
		}
		return nil, err
	}

	s.log.InfoContext(ctx, "attachment uploaded",
		"attachment_id", created.ID,
		"application_id", in.ApplicationID,
		"byte_size", created.ByteSize,
	)
	return created, nil
}

// List returns the attachment metadata of one application owned by the
// authenticated user.
func (s *Service) List(ctx context.Context, applicationID uuid.UUID) ([]*domain.Attachment, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if _, err := s.apps.GetByID(ctx, userID, applicationID); err != nil {
		return nil, fmt.Errorf("load application: %w", err)
	}
	return s.attachments.ListByApplication(ctx, applicationID)
}

// Download returns the attachment metadata and its blob content.
func (s *Service) Download(ctx context.Context, applicationID, attachmentID uuid.UUID) (*domain.Attachment, []byte, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, nil, domain.ErrUnauthorized
	}
	if _, err := s.apps.GetByID(ctx, userID, applicationID); err != nil {
		return nil, nil, fmt.Errorf("load application: %w", err)
	}

	att, err := s.attachments.GetByID(ctx, applicationID, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.blobs.Get(ctx, att.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return att, data, nil
}

// Delete removes the metadata row and its DELETE audit entry in one
// transaction, then removes the blob best effort.
func (s *Service) Delete(ctx context.Context, applicationID, attachmentID uuid.UUID) error {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}
	if _, err := s.apps.GetByID(ctx, userID, applicationID); err != nil {
		return fmt.Errorf("load application: %w", err)
	}

	var storageKey string
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		att, err := s.attachments.GetByID(ctx, applicationID, attachmentID)
		if err != nil {
			return fmt.Errorf("load attachment: %w", err)
		}
		storageKey = att.StorageKey

		if err := s.attachments.Delete(ctx, applicationID, attachmentID); err != nil {
			return fmt.Errorf("delete attachment: %w", err)
		}

		return s.audit.Record(ctx, domain.AuditEntry{
			ActorID:    userID,
			Action:     domain.AuditActionDelete,
			EntityType: domain.EntityTypeAttachment,
			EntityID:   attachmentID,
			Before:     att.Snapshot(),
		})
	})
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, storageKey); err != nil {
		s.log.ErrorContext(ctx, "orphaned blob after delete",
			"attachment_id", attachmentID,
			"storage_key", storageKey,
			"error", err,
		)
	}

	s.log.InfoContext(ctx, "attachment deleted",
		"attachment_id", attachmentID,
		"application_id", applicationID,
	)
	return nil
}
