package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/eventscan/backend/internal/models"
	"github.com/eventscan/backend/pkg/response"
)

// Operators is the persistence the auth handler needs.
type Operators interface {
	GetByEmail(ctx context.Context, email string) (*models.Operator, error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context) ([]models.OperatorPublic, error)
	Create(ctx context.Context, email, passwordHash, fullName string, role models.Role) (*models.Operator, error)
}

// Tokens issues operator tokens.
type Tokens interface {
	Generate(operatorID uuid.UUID, email, role string) (string, error)
}

// RegisterRequest is the body for POST /auth/register and POST /operators.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role"` // optional, defaults to scanner
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token    string                `json:"token"`
	Operator models.OperatorPublic `json:"operator"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo   Operators
	jwt    Tokens
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo Operators, jwt Tokens, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

// Register handles POST /auth/register. Only the first operator may register
// this way and always becomes admin; later operators are created by an admin.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	n, err := h.repo.Count(c.Request.Context())
	if err != nil {
		h.logger.Error("count operators failed", zap.Error(err))
		response.Internal(c, "failed to register")
		return
	}
	if n > 0 {
		response.Forbidden(c, "registration closed, ask an admin for an account")
		return
	}
	op, ok := h.create(c, req, models.RoleAdmin)
	if !ok {
		return
	}
	token, err := h.jwt.Generate(op.ID, op.Email, string(op.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.Created(c, TokenResponse{Token: token, Operator: op.ToPublic()})
}

// Create handles POST /operators (admin only).
func (h *Handler) Create(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	role := models.RoleScanner
	switch req.Role {
	case "", string(models.RoleScanner):
	case string(models.RoleAdmin):
		role = models.RoleAdmin
	default:
		response.BadRequest(c, "invalid role")
		return
	}
	op, ok := h.create(c, req, role)
	if !ok {
		return
	}
	response.Created(c, op.ToPublic())
}

func (h *Handler) create(c *gin.Context, req RegisterRequest, role models.Role) (*models.Operator, bool) {
	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if len(req.Password) < MinPasswordLength {
		response.BadRequest(c, "password too short")
		return nil, false
	}
	_, err := h.repo.GetByEmail(ctx, email)
	if err == nil {
		response.Conflict(c, "email already registered")
		return nil, false
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		h.logger.Error("lookup operator failed", zap.Error(err))
		response.Internal(c, "failed to create operator")
		return nil, false
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return nil, false
	}
	op, err := h.repo.Create(ctx, email, hash, strings.TrimSpace(req.FullName), role)
	if err != nil {
		h.logger.Error("create operator failed", zap.Error(err))
		response.Internal(c, "failed to create operator")
		return nil, false
	}
	h.logger.Info("operator created", zap.String("operator_id", op.ID.String()), zap.String("role", string(role)))
	return op, true
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	op, err := h.repo.GetByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	if !CheckPassword(req.Password, op.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(op.ID, op.Email, string(op.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, Operator: op.ToPublic()})
}

// List handles GET /operators (admin only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list operators")
		return
	}
	if list == nil {
		list = []models.OperatorPublic{}
	}
	response.OK(c, list)
}
