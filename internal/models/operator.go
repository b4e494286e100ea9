package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents an operator's role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleScanner Role = "scanner"
)

// Operator is a staff member who runs the scanner at events.
type Operator struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OperatorPublic is Operator without sensitive fields for API responses.
type OperatorPublic struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic converts Operator to OperatorPublic.
func (o *Operator) ToPublic() OperatorPublic {
	return OperatorPublic{
		ID:        o.ID,
		Email:     o.Email,
		FullName:  o.FullName,
		Role:      o.Role,
		CreatedAt: o.CreatedAt,
	}
}
