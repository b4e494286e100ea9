package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventscan/backend/internal/models"
)

const operatorColumns = `id, email, password_hash, full_name, role, created_at, updated_at`

// Repository handles operator persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns an operator by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	return r.scanOne(ctx, `SELECT `+operatorColumns+` FROM operators WHERE id = $1`, id)
}

// GetByEmail returns an operator by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Operator, error) {
	return r.scanOne(ctx, `SELECT `+operatorColumns+` FROM operators WHERE email = $1`, email)
}

// Count returns the number of operators.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM operators`).Scan(&n)
	return n, err
}

// List returns all operators ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.OperatorPublic, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, email, full_name, role, created_at FROM operators ORDER BY full_name, email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.OperatorPublic
	for rows.Next() {
		var o models.OperatorPublic
		var role string
		if err := rows.Scan(&o.ID, &o.Email, &o.FullName, &role, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Role = models.Role(role)
		list = append(list, o)
	}
	return list, rows.Err()
}

// Create inserts a new operator.
func (r *Repository) Create(ctx context.Context, email, passwordHash, fullName string, role models.Role) (*models.Operator, error) {
	return r.scanOne(ctx,
		`INSERT INTO operators (email, password_hash, full_name, role) VALUES ($1, $2, $3, $4) RETURNING `+operatorColumns,
		email, passwordHash, fullName, string(role))
}

func (r *Repository) scanOne(ctx context.Context, q string, args ...interface{}) (*models.Operator, error) {
	var o models.Operator
	var role string
	err := r.pool.QueryRow(ctx, q, args...).Scan(&o.ID, &o.Email, &o.Password, &o.FullName, &role, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Role = models.Role(role)
	return &o, nil
}
