// Package events serves the day's event list from the bridge service.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventscan/backend/internal/connect"
	"github.com/eventscan/backend/internal/credentials"
	"github.com/eventscan/backend/pkg/response"
)

// DateParam is the layout of the ?date= query parameter.
const DateParam = "2006-01-02"

// Lister fetches events from the bridge service.
type Lister interface {
	ListEvents(ctx context.Context, credential, start, end string) ([]connect.EventListing, error)
}

// Handler handles GET /events.
type Handler struct {
	lister Lister
	store  credentials.Store
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewHandler creates an events handler. Dates are interpreted in loc.
func NewHandler(lister Lister, store credentials.Store, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{lister: lister, store: store, loc: loc, now: time.Now, logger: logger}
}

// List handles GET /events?date=YYYY-MM-DD. Without a date, today's events are listed.
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()
	day := h.now().In(h.loc)
	if raw := c.Query("date"); raw != "" {
		d, err := time.ParseInLocation(DateParam, raw, h.loc)
		if err != nil {
			response.BadRequest(c, "date must be YYYY-MM-DD")
			return
		}
		day = d
	}

	passkey, err := credentials.Passkey(ctx, h.store)
	if err != nil {
		h.logger.Error("read passkey failed", zap.Error(err))
		response.Internal(c, "failed to read passkey")
		return
	}

	start, end := connect.DayRange(day)
	list, err := h.lister.ListEvents(ctx, passkey, start, end)
	switch {
	case err == nil:
	case errors.Is(err, connect.ErrInvalidCredential):
		response.Unauthorized(c, "invalid passkey")
		return
	case errors.Is(err, connect.ErrTransport):
		h.logger.Warn("bridge unreachable", zap.Error(err))
		response.BadGateway(c, "attendance service unreachable")
		return
	default:
		h.logger.Warn("unexpected bridge response", zap.Error(err))
		response.BadGateway(c, "unexpected response")
		return
	}

	if list == nil {
		list = []connect.EventListing{}
	}
	response.OK(c, gin.H{"date": day.Format(DateParam), "events": list})
}
