package scans

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventscan/backend/internal/models"
)

// Repository handles the scan log.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a scans repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a scan and fills its ID and ScannedAt.
func (r *Repository) Create(ctx context.Context, s *models.Scan) error {
	const q = `INSERT INTO scans (event_gid, contact_id, outcome, operator_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, scanned_at`
	return r.pool.QueryRow(ctx, q, s.EventGID, s.ContactID, s.Outcome, s.OperatorID).Scan(&s.ID, &s.ScannedAt)
}

// ListByEvent returns an event's scans, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventGID string) ([]models.Scan, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, event_gid, contact_id, outcome, operator_id, scanned_at
		 FROM scans WHERE event_gid = $1 ORDER BY scanned_at DESC`,
		eventGID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Scan
	for rows.Next() {
		var s models.Scan
		if err := rows.Scan(&s.ID, &s.EventGID, &s.ContactID, &s.Outcome, &s.OperatorID, &s.ScannedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// CountByEvent returns totals by outcome for an event.
func (r *Repository) CountByEvent(ctx context.Context, eventGID string) (models.ScanCounts, error) {
	const q = `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE outcome = 'attended'),
		COUNT(*) FILTER (WHERE outcome = 'rejected')
		FROM scans WHERE event_gid = $1`
	var c models.ScanCounts
	err := r.pool.QueryRow(ctx, q, eventGID).Scan(&c.Total, &c.Attended, &c.Rejected)
	return c, err
}
