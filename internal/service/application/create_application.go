package application

import (
	"context"
	"fmt"

	"github.com/applytrack/applytrack-backend/internal/domain"
	"github.com/applytrack/applytrack-backend/pkg/ctxutil"
)

// Create inserts a new application and its CREATE audit entry in one
// transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Application, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Application
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.apps.Create(ctx, &domain.Application{
			UserID:   userID,
			Company:  in.Company,
			Position: in.Position,
			Status:   in.Status,
			URL:      in.URL,
			Notes:    in.Notes,
		})
		if err != nil {
			return fmt.Errorf("create application: %w", err)
		}

		return s.audit.Record(ctx, domain.AuditEntry{
			ActorID:    userID,
			Action:     domain.AuditActionCreate,
			EntityType: domain.EntityTypeApplication,
			EntityID:   created.ID,
			After:      created.Snapshot(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "application created",
		"application_id", created.ID,
		"user_id", userID,
		"company", created.Company,
	)
	return created, nil
}
