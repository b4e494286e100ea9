package scans

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventscan/backend/internal/connect"
	"github.com/eventscan/backend/internal/credentials"
	"github.com/eventscan/backend/internal/middleware"
	"github.com/eventscan/backend/internal/models"
	"github.com/eventscan/backend/internal/preferences"
	"github.com/eventscan/backend/pkg/response"
)

// MissingContactID is sent when a QR code decodes to an empty string.
const MissingContactID = "error"

// Attender marks a contact as attended at an event.
type Attender interface {
	MarkAttended(ctx context.Context, req connect.AttendanceRequest) (connect.Outcome, error)
}

// Log stores scan attempts.
type Log interface {
	Create(ctx context.Context, s *models.Scan) error
	ListByEvent(ctx context.Context, eventGID string) ([]models.Scan, error)
	CountByEvent(ctx context.Context, eventGID string) (models.ScanCounts, error)
}

// Gate decides whether a scan is a duplicate still inside the pause window.
type Gate interface {
	Acquire(ctx context.Context, eventGID, contactID string) (bool, error)
}

// Publisher pushes scan results to live viewers of an event.
type Publisher interface {
	PublishScan(eventGID string, scan models.Scan)
}

// ScanRequest is the body for POST /events/:gid/scans.
type ScanRequest struct {
	ContactID string `json:"contact_id"`
}

// ScanResult is returned for every scan that reached the bridge service.
type ScanResult struct {
	Outcome connect.Outcome `json:"outcome"`
	Tone    string          `json:"tone"`
	Scan    models.Scan     `json:"scan"`
}

// Handler handles scan endpoints.
type Handler struct {
	attender Attender
	store    credentials.Store
	log      Log
	gate     Gate
	prefs    preferences.Source
	pub      Publisher
	logger   *zap.Logger
}

// NewHandler creates a scans handler. pub may be nil.
func NewHandler(attender Attender, store credentials.Store, log Log, gate Gate, prefs preferences.Source, pub Publisher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{attender: attender, store: store, log: log, gate: gate, prefs: prefs, pub: pub, logger: logger}
}

// Scan handles POST /events/:gid/scans. Marks the scanned contact attended and
// records the attempt. 200 attended, 422 rejected, 502 bridge unreachable,
// 409 duplicate within the pause window.
func (h *Handler) Scan(c *gin.Context) {
	ctx := c.Request.Context()
	eventGID := strings.TrimSpace(c.Param("gid"))
	if eventGID == "" {
		response.BadRequest(c, "no event selected")
		return
	}
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	contactID := req.ContactID
	if contactID == "" {
		contactID = MissingContactID
	}

	ok, err := h.gate.Acquire(ctx, eventGID, contactID)
	if err != nil {
		h.logger.Warn("pause gate unavailable, scanning anyway", zap.Error(err))
	} else if !ok {
		response.Conflict(c, "duplicate scan")
		return
	}

	passkey, err := credentials.Passkey(ctx, h.store)
	if err != nil {
		h.logger.Error("read passkey failed", zap.Error(err))
		response.Internal(c, "failed to read passkey")
		return
	}

	outcome, err := h.attender.MarkAttended(ctx, connect.AttendanceRequest{
		Credential: passkey,
		EventID:    eventGID,
		ContactID:  contactID,
	})
	if err != nil {
		h.logger.Warn("mark attended failed", zap.Error(err), zap.String("event_gid", eventGID))
	}

	scan := models.Scan{
		EventGID:   eventGID,
		ContactID:  contactID,
		Outcome:    outcome.String(),
		OperatorID: middleware.OperatorID(c),
	}
	if err := h.log.Create(ctx, &scan); err != nil {
		h.logger.Error("record scan failed", zap.Error(err), zap.String("event_gid", eventGID))
	}
	if h.pub != nil {
		h.pub.PublishScan(eventGID, scan)
	}

	tones, err := preferences.CurrentTones(ctx, h.prefs)
	if err != nil {
		h.logger.Warn("read preferences failed", zap.Error(err))
	}
	result := ScanResult{Outcome: outcome, Tone: tones.Failure, Scan: scan}

	switch outcome {
	case connect.OutcomeAttended:
		result.Tone = tones.Success
		c.JSON(http.StatusOK, response.Body{Success: true, Data: result})
	case connect.OutcomeRejected:
		c.JSON(http.StatusUnprocessableEntity, response.Body{Success: false, Data: result, Error: "contact could not be marked attended"})
	default:
		c.JSON(http.StatusBadGateway, response.Body{Success: false, Data: result, Error: "attendance service unreachable"})
	}
}

// List handles GET /events/:gid/scans.
func (h *Handler) List(c *gin.Context) {
	eventGID := c.Param("gid")
	list, err := h.log.ListByEvent(c.Request.Context(), eventGID)
	if err != nil {
		h.logger.Error("list scans failed", zap.Error(err), zap.String("event_gid", eventGID))
		response.Internal(c, "failed to list scans")
		return
	}
	counts, err := h.log.CountByEvent(c.Request.Context(), eventGID)
	if err != nil {
		h.logger.Error("count scans failed", zap.Error(err), zap.String("event_gid", eventGID))
		response.Internal(c, "failed to count scans")
		return
	}
	if list == nil {
		list = []models.Scan{}
	}
	response.OK(c, gin.H{"scans": list, "counts": counts})
}
