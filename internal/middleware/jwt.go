package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventscan/backend/internal/auth"
	"github.com/eventscan/backend/pkg/response"
)

const (
	// ContextOperatorID is the key for the operator ID in gin context.
	ContextOperatorID = "operator_id"
	// ContextOperatorRole is the key for the operator role in gin context.
	ContextOperatorRole = "operator_role"
	// ContextOperatorEmail is the key for the operator email in gin context.
	ContextOperatorEmail = "operator_email"
)

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// JWT returns a middleware that validates the bearer token and sets operator claims in context.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := validator.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextOperatorID, claims.OperatorID)
		c.Set(ContextOperatorRole, claims.Role)
		c.Set(ContextOperatorEmail, claims.Email)
		c.Next()
	}
}

// OperatorID returns the authenticated operator's ID, or nil outside the JWT middleware.
func OperatorID(c *gin.Context) *uuid.UUID {
	v, ok := c.Get(ContextOperatorID)
	if !ok {
		return nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}
