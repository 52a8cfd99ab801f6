package application

import (
	"context"
	"fmt"

	"github.com/applytrack/applytrack-backend/internal/domain"
	"github.com/applytrack/applytrack-backend/pkg/ctxutil"
)

// Update applies a partial update and records the UPDATE audit entry with
// before and after snapshots, all in one transaction. The before snapshot is
// read inside the transaction so it cannot race a concurrent writer.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*domain.Application, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Application
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		before, err := s.apps.GetByID(ctx, userID, in.ApplicationID)
		if err != nil {
			return fmt.Errorf("load application: %w", err)
		}

		updated, err = s.apps.Update(ctx, userID, in.ApplicationID, in.Params)
		if err != nil {
			return fmt.Errorf("update application: %w", err)
		}

		return s.audit.Record(ctx, domain.AuditEntry{
			ActorID:    userID,
			Action:     domain.AuditActionUpdate,
			EntityType: domain.EntityTypeApplication,
			EntityID:   updated.ID,
			Before:     before.Snapshot(),
			After:      updated.Snapshot(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "application updated",
		"application_id", updated.ID,
		"user_id", userID,
		"status", updated.Status,
	)
	return updated, nil
}
