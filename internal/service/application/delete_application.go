package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/applytrack/applytrack-backend/internal/domain"
	"github.com/applytrack/applytrack-backend/pkg/ctxutil"
)

// Delete removes an application together with its attachments, analyses and
// a DELETE audit entry, all in one transaction. The attachment storage keys
// are collected inside the transaction, before the rows disappear; the blobs
// themselves are removed only after commit. Blob cleanup is best effort: a
// storage failure leaves an orphaned blob, never a half-deleted database.
func (s *Service) Delete(ctx context.Context, applicationID uuid.UUID) error {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}
	if applicationID == uuid.Nil {
		return domain.NewValidationError("application_id", "is required")
	}

	var storageKeys []string
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		app, err := s.apps.GetByID(ctx, userID, applicationID)
		if err != nil {
			return fmt.Errorf("load application: %w", err)
		}

		attachments, err := s.attachments.ListByApplication(ctx, applicationID)
		if err != nil {
			return fmt.Errorf("list attachments: %w", err)
		}
		for _, att := range attachments {
			storageKeys = append(storageKeys, att.StorageKey)
		}

		if _, err := s.analyses.DeleteBySubject(ctx, applicationID); err != nil {
			return fmt.Errorf("delete analyses: %w", err)
		}
		if _, err := s.attachments.DeleteByApplication(ctx, applicationID); err != nil {
			return fmt.Errorf("delete attachments: %w", err)
		}
		if err := s.apps.Delete(ctx, userID, applicationID); err != nil {
			return fmt.Errorf("delete application: %w", err)
		}

		return s.audit.Record(ctx, domain.AuditEntry{
			ActorID:    userID,
			Action:     domain.AuditActionDelete,
			EntityType: domain.EntityTypeApplication,
			EntityID:   applicationID,
			Before:     app.Snapshot(),
		})
	})
	if err != nil {
		return err
	}

	for _, key := range storageKeys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.log.ErrorContext(ctx, "orphaned blob after delete",
				"application_id", applicationID,
				"storage_key", key,
				"error", err,
			)
		}
	}

	s.log.InfoContext(ctx, "application deleted",
		"application_id", applicationID,
		"user_id", userID,
		"attachments", len(storageKeys),
	)
	return nil
}
