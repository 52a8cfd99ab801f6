// Package attachment implements the attachment metadata repository using
// PostgreSQL. Blob bytes live in the object store; rows here only reference
// them by storage key.
package attachment

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/applytrack/applytrack-backend/internal/adapter/postgres"
	"github.com/applytrack/applytrack-backend/internal/domain"
)

const table = "attachments"

var columns = []string{"id", "application_id", "file_name", "byte_size", "content_type", "storage_key", "uploaded_at"}

// Repo provides attachment persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new attachment repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts attachment metadata and returns the persisted row.
func (r *Repo) Create(ctx context.Context, att *domain.Attachment) (*domain.Attachment, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Insert(table).
		Columns("application_id", "file_name", "byte_size", "content_type", "storage_key").
		Values(att.ApplicationID, att.FileName, att.ByteSize, att.ContentType, att.StorageKey).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert attachment: %w", err)
	}

	created, err := scanAttachment(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "attachment", att.ID)
	}
	return created, nil
}

// GetByID returns one attachment of the given application.
func (r *Repo) GetByID(ctx context.Context, applicationID, id uuid.UUID) (*domain.Attachment, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id, "application_id": applicationID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select attachment: %w", err)
	}

	att, err := scanAttachment(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "attachment", id)
	}
	return att, nil
}

// ListByApplication returns all attachments of an application. The deletion
// coordinator uses this inside its transaction to collect storage keys
// before the rows are gone.
func (r *Repo) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*domain.Attachment, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"application_id": applicationID}).
		OrderBy("uploaded_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list attachments: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	var atts []*domain.Attachment
	for rows.Next() {
		att, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		atts = append(atts, att)
	}
	return atts, rows.Err()
}

// Delete removes a single attachment row.
func (r *Repo) Delete(ctx context.Context, applicationID, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"id": id, "application_id": applicationID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete attachment: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "attachment", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("attachment %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeleteByApplication removes every attachment row of an application and
// returns the number of rows deleted.
func (r *Repo) DeleteByApplication(ctx context.Context, applicationID uuid.UUID) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"application_id": applicationID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete attachments: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(err, "attachments of application", applicationID)
	}
	return tag.RowsAffected(), nil
}

func scanAttachment(row pgx.Row) (*domain.Attachment, error) {
	var att domain.Attachment
	err := row.Scan(
		&att.ID,
		&att.ApplicationID,
		&att.FileName,
		&att.ByteSize,
		&att.ContentType,
		&att.StorageKey,
		&att.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	return &att, nil
}
