package exports

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventscan/backend/internal/models"
)

const exportColumns = `id, event_gid, status, s3_key, row_count, error, requested_by, created_at, completed_at`

// Repository handles export rows.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an exports repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending export.
func (r *Repository) Create(ctx context.Context, eventGID string, requestedBy *uuid.UUID) (*models.Export, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO exports (event_gid, requested_by) VALUES ($1, $2) RETURNING `+exportColumns,
		eventGID, requestedBy)
	return scanExport(row)
}

// GetByID returns an export by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Export, error) {
	return scanExport(r.pool.QueryRow(ctx, `SELECT `+exportColumns+` FROM exports WHERE id = $1`, id))
}

// MarkCompleted records the uploaded object.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, s3Key string, rows int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exports SET status = $2, s3_key = $3, row_count = $4, error = '', completed_at = NOW() WHERE id = $1`,
		id, models.ExportCompleted, s3Key, rows)
	return err
}

// MarkFailed records why the export could not be produced.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exports SET status = $2, error = $3, completed_at = NOW() WHERE id = $1`,
		id, models.ExportFailed, reason)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExport(row rowScanner) (*models.Export, error) {
	var e models.Export
	if err := row.Scan(&e.ID, &e.EventGID, &e.Status, &e.S3Key, &e.RowCount, &e.Error, &e.RequestedBy, &e.CreatedAt, &e.CompletedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
