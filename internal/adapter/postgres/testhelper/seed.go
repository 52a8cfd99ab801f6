package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/applytrack/applytrack-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedApplication inserts an application for userID and returns the stored row.
func SeedApplication(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) domain.Application {
	t.Helper()
	ctx := context.Background()

	app := domain.Application{
		UserID:   userID,
		Company:  "Acme " + uniqueSuffix(),
		Position: "Backend Engineer",
		Status:   domain.ApplicationStatusApplied,
	}

	err := pool.QueryRow(ctx,
		`INSERT INTO applications (user_id, company, position, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		app.UserID, app.Company, app.Position, app.Status,
	).Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		t.Fatalf("testhelper: SeedApplication: %v", err)
	}

	return app
}

// SeedAttachment inserts attachment metadata for an application.
func SeedAttachment(t *testing.T, pool *pgxpool.Pool, applicationID uuid.UUID) domain.Attachment {
	t.Helper()
	ctx := context.Background()

	att := domain.Attachment{
		ApplicationID: applicationID,
		FileName:      "resume-" + uniqueSuffix() + ".pdf",
		ByteSize:      2048,
		ContentType:   "application/pdf",
		StorageKey:    "attachments/" + applicationID.String() + "/" + uuid.New().String(),
	}

	err := pool.QueryRow(ctx,
		`INSERT INTO attachments (application_id, file_name, byte_size, content_type, storage_key)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, uploaded_at`,
		att.ApplicationID, att.FileName, att.ByteSize, att.ContentType, att.StorageKey,
	).Scan(&att.ID, &att.UploadedAt)
	if err != nil {
		t.Fatalf("testhelper: SeedAttachment: %v", err)
	}

	return att
}
