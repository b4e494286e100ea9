package preferences

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists boolean preferences.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a preferences repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetBool returns the stored value for key, or fallback when unset.
func (r *Repository) GetBool(ctx context.Context, key string, fallback bool) (bool, error) {
	var v bool
	err := r.pool.QueryRow(ctx, `SELECT value FROM preferences WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	return v, nil
}

// SetBool upserts key.
func (r *Repository) SetBool(ctx context.Context, key string, value bool) error {
	const q = `INSERT INTO preferences (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	_, err := r.pool.Exec(ctx, q, key, value)
	return err
}
