// Package application implements the application repository using PostgreSQL.
package application

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/applytrack/applytrack-backend/internal/adapter/postgres"
	"github.com/applytrack/applytrack-backend/internal/domain"
)

const table = "applications"

var columns = []string{"id", "user_id", "company", "position", "status", "url", "notes", "created_at", "updated_at"}

// Repo provides application persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new application repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a new application and returns the persisted row.
// ID and timestamps come from the database.
func (r *Repo) Create(ctx context.Context, app *domain.Application) (*domain.Application, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Insert(table).
		Columns("user_id", "company", "position", "status", "url", "notes").
		Values(app.UserID, app.Company, app.Position, app.Status, app.URL, app.Notes).
		Suffix("RETURNING " + columnList()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert application: %w", err)
	}

	created, err := scanApplication(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "application", app.ID)
	}
	return created, nil
}

// GetByID returns the application owned by userID, or domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Application, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select application: %w", err)
	}

	app, err := scanApplication(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "application", id)
	}
	return app, nil
}

// List returns all applications owned by userID, newest first.
func (r *Repo) List(ctx context.Context, userID uuid.UUID) ([]*domain.Application, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list applications: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []*domain.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// Update applies the non-nil fields of params, bumps updated_at, and returns
// the updated row. domain.ErrNotFound when the row is absent or owned by
// someone else.
func (r *Repo) Update(ctx context.Context, userID, id uuid.UUID, params domain.ApplicationUpdateParams) (*domain.Application, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	update := postgres.Builder().
		Update(table).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "user_id": userID})

	if params.Company != nil {
		update = update.Set("company", *params.Company)
	}
	if params.Position != nil {
		update = update.Set("position", *params.Position)
	}
	if params.Status != nil {
		update = update.Set("status", *params.Status)
	}
	if params.URL != nil {
		update = update.Set("url", *params.URL)
	}
	if params.Notes != nil {
		update = update.Set("notes", *params.Notes)
	}

	sql, args, err := update.Suffix("RETURNING " + columnList()).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update application: %w", err)
	}

	app, err := scanApplication(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "application", id)
	}
	return app, nil
}

// Delete removes the application row. domain.ErrNotFound when nothing was
// deleted, which also resolves concurrent double deletes: the relational
// store serializes the writers and the loser sees zero rows.
func (r *Repo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete application: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "application", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("application %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func columnList() string {
	list := columns[0]
	for _, c := range columns[1:] {
		list += ", " + c
	}
	return list
}

func scanApplication(row pgx.Row) (*domain.Application, error) {
	var app domain.Application
	err := row.Scan(
		&app.ID,
		&app.UserID,
		&app.Company,
		&app.Position,
		&app.Status,
		&app.URL,
		&app.Notes,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &app, nil
}
