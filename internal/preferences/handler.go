package preferences

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventscan/backend/pkg/response"
)

// UpdateRequest is the body for PUT /settings/preferences.
type UpdateRequest struct {
	AlternateAudio *bool `json:"alternate_audio" binding:"required"`
}

// Handler handles the preferences endpoints.
type Handler struct {
	src    Source
	logger *zap.Logger
}

// NewHandler creates a preferences handler.
func NewHandler(src Source, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{src: src, logger: logger}
}

// Get handles GET /settings/preferences.
func (h *Handler) Get(c *gin.Context) {
	alt, err := h.src.GetBool(c.Request.Context(), KeyAlternateAudio, false)
	if err != nil {
		h.logger.Error("read preferences failed", zap.Error(err))
		response.Internal(c, "failed to read preferences")
		return
	}
	response.OK(c, gin.H{"alternate_audio": alt, "tones": Tones(alt)})
}

// Update handles PUT /settings/preferences.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.src.SetBool(c.Request.Context(), KeyAlternateAudio, *req.AlternateAudio); err != nil {
		h.logger.Error("update preferences failed", zap.Error(err))
		response.Internal(c, "failed to update preferences")
		return
	}
	response.OK(c, gin.H{"alternate_audio": *req.AlternateAudio, "tones": Tones(*req.AlternateAudio)})
}
