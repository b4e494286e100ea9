package credentials

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventscan/backend/pkg/response"
)

// SetPasskeyRequest is the body for PUT /settings/passkey.
type SetPasskeyRequest struct {
	Passkey string `json:"passkey" binding:"required"`
}

// Handler handles the passkey settings endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates a passkey settings handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// Status handles GET /settings/passkey. The passkey itself is never returned.
func (h *Handler) Status(c *gin.Context) {
	_, ok, err := h.store.Get(c.Request.Context(), PasskeyKey)
	if err != nil {
		h.logger.Error("read passkey failed", zap.Error(err))
		response.Internal(c, "failed to read passkey")
		return
	}
	response.OK(c, gin.H{"configured": ok})
}

// Set handles PUT /settings/passkey.
func (h *Handler) Set(c *gin.Context) {
	var req SetPasskeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	passkey := strings.TrimSpace(req.Passkey)
	if passkey == "" {
		response.BadRequest(c, "passkey required")
		return
	}
	if err := h.store.Set(c.Request.Context(), PasskeyKey, passkey); err != nil {
		h.logger.Error("store passkey failed", zap.Error(err))
		response.Internal(c, "failed to store passkey")
		return
	}
	response.OK(c, gin.H{"configured": true})
}

// Delete handles DELETE /settings/passkey. Responds 404 when no passkey was stored.
func (h *Handler) Delete(c *gin.Context) {
	existed, err := h.store.Delete(c.Request.Context(), PasskeyKey)
	if err != nil {
		h.logger.Error("delete passkey failed", zap.Error(err))
		response.Internal(c, "failed to delete passkey")
		return
	}
	if !existed {
		response.NotFound(c, "passkey does not exist")
		return
	}
	response.NoContent(c)
}
