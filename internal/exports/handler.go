// Package exports turns an event's scan log into a downloadable CSV report.
package exports

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/eventscan/backend/internal/middleware"
	"github.com/eventscan/backend/internal/models"
	"github.com/eventscan/backend/pkg/queue"
	"github.com/eventscan/backend/pkg/response"
)

// Store persists export rows.
type Store interface {
	Create(ctx context.Context, eventGID string, requestedBy *uuid.UUID) (*models.Export, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Export, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, s3Key string, rows int) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// Enqueuer hands export jobs to the worker.
type Enqueuer interface {
	EnqueueExport(ctx context.Context, payload queue.ExportPayload) (string, error)
}

// Presigner issues download URLs for export objects.
type Presigner interface {
	ExportDownloadURL(ctx context.Context, key string) (string, error)
}

// Handler handles export endpoints.
type Handler struct {
	store     Store
	queue     Enqueuer
	presigner Presigner
	logger    *zap.Logger
}

// NewHandler creates an exports handler. presigner may be nil when S3 is not configured.
func NewHandler(store Store, q Enqueuer, presigner Presigner, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, queue: q, presigner: presigner, logger: logger}
}

// Create handles POST /events/:gid/exports.
func (h *Handler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	eventGID := strings.TrimSpace(c.Param("gid"))
	if eventGID == "" {
		response.BadRequest(c, "no event selected")
		return
	}
	if h.presigner == nil {
		response.ServiceUnavailable(c, "exports are not configured")
		return
	}
	exp, err := h.store.Create(ctx, eventGID, middleware.OperatorID(c))
	if err != nil {
		h.logger.Error("create export failed", zap.Error(err), zap.String("event_gid", eventGID))
		response.Internal(c, "failed to create export")
		return
	}
	if _, err := h.queue.EnqueueExport(ctx, queue.ExportPayload{ExportID: exp.ID, EventGID: eventGID}); err != nil {
		h.logger.Error("enqueue export failed", zap.Error(err), zap.String("export_id", exp.ID.String()))
		if mErr := h.store.MarkFailed(ctx, exp.ID, "could not enqueue"); mErr != nil {
			h.logger.Error("mark export failed", zap.Error(mErr))
		}
		response.ServiceUnavailable(c, "export queue unavailable")
		return
	}
	response.Accepted(c, exp)
}

// Get handles GET /exports/:id.
func (h *Handler) Get(c *gin.Context) {
	exp, ok := h.load(c)
	if !ok {
		return
	}
	response.OK(c, exp)
}

// DownloadURL handles GET /exports/:id/download-url.
func (h *Handler) DownloadURL(c *gin.Context) {
	exp, ok := h.load(c)
	if !ok {
		return
	}
	switch {
	case exp.Status == models.ExportFailed:
		response.Conflict(c, "export failed: "+exp.Error)
		return
	case exp.Status != models.ExportCompleted:
		response.Conflict(c, "export not ready")
		return
	case h.presigner == nil:
		response.ServiceUnavailable(c, "exports are not configured")
		return
	}
	url, err := h.presigner.ExportDownloadURL(c.Request.Context(), exp.S3Key)
	if err != nil {
		h.logger.Error("presign export failed", zap.Error(err), zap.String("export_id", exp.ID.String()))
		response.Internal(c, "failed to sign download url")
		return
	}
	response.OK(c, gin.H{"url": url, "row_count": exp.RowCount})
}

func (h *Handler) load(c *gin.Context) (*models.Export, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid export id")
		return nil, false
	}
	exp, err := h.store.GetByID(c.Request.Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		response.NotFound(c, "export not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("get export failed", zap.Error(err))
		response.Internal(c, "failed to load export")
		return nil, false
	}
	return exp, true
}
