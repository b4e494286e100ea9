// Package connect talks to the admissions CRM "bridge" SOAP service that lists
// recruiting events and records attendee attendance.
//
// The service's responses are not parsed as XML. They are classified by the
// presence of known marker strings and event records are scraped from the
// HTML-escaped fragments they embed.
package connect

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultURL is the bridge service endpoint.
	DefaultURL = "https://services01.askadmissions.net/ws/bridge.asmx?wsdl"
	// DefaultClientName is the institution code sent with every request.
	DefaultClientName = "boisestate"
	// DefaultTimeout bounds a call whose context carries no deadline.
	DefaultTimeout = 30 * time.Second

	contentType = "text/xml; charset=utf-8"
)

// EventListing is one scheduled event returned by ListEvents.
type EventListing struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// AttendanceRequest identifies the attendee to mark as attended.
type AttendanceRequest struct {
	Credential string
	EventID    string
	ContactID  string
}

// Outcome is the result of a MarkAttended call.
type Outcome int

const (
	OutcomeTransportError Outcome = iota
	OutcomeAttended
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAttended:
		return "attended"
	case OutcomeRejected:
		return "rejected"
	default:
		return "transport_error"
	}
}

// MarshalText encodes the outcome by name in JSON responses.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "attended":
		*o = OutcomeAttended
	case "rejected":
		*o = OutcomeRejected
	case "transport_error":
		*o = OutcomeTransportError
	default:
		return fmt.Errorf("unknown outcome %q", b)
	}
	return nil
}

// Config configures a Client. Zero values fall back to the package defaults.
type Config struct {
	URL        string
	ClientName string
	Timeout    time.Duration
}

// Client issues requests to the bridge service. It holds no per-call state
// and is safe for concurrent use.
type Client struct {
	url        string
	clientName string
	timeout    time.Duration
	http       *http.Client
	logger     *zap.Logger
}

// NewClient creates a Client. httpClient may be nil to use http.DefaultClient.
func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.ClientName == "" {
		cfg.ClientName = DefaultClientName
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url:        cfg.URL,
		clientName: cfg.ClientName,
		timeout:    cfg.Timeout,
		http:       httpClient,
		logger:     logger,
	}
}

// ListEvents returns the scheduled events between start and end, both
// formatted as "02 Jan 2006 03:04 PM" (see DayRange).
//
// Errors wrap ErrTransport, ErrInvalidCredential or ErrUnknown. When the service
// reports that nothing is scheduled the result is an empty slice and a nil error.
func (c *Client) ListEvents(ctx context.Context, credential, start, end string) ([]EventListing, error) {
	body, err := c.post(ctx, ListEventsEnvelope(c.clientName, credential, start, end))
	if err != nil {
		c.logger.Warn("list events transport failure", zap.Error(err))
		return nil, err
	}
	events, err := ClassifyEvents(body)
	if err != nil {
		c.logger.Info("list events classified as failure", zap.Error(err), zap.Int("body_bytes", len(body)))
		return nil, err
	}
	c.logger.Debug("list events", zap.Int("count", len(events)), zap.String("from", start), zap.String("to", end))
	return events, nil
}

// MarkAttended records req.ContactID as attended at req.EventID. The returned
// error is non-nil only together with OutcomeTransportError. Nothing is retried:
// if the context is cancelled after the request was sent the service may
// still have applied it.
func (c *Client) MarkAttended(ctx context.Context, req AttendanceRequest) (Outcome, error) {
	body, err := c.post(ctx, MarkAttendedEnvelope(c.clientName, req))
	if err != nil {
		c.logger.Warn("mark attended transport failure", zap.Error(err), zap.String("event_id", req.EventID))
		return OutcomeTransportError, err
	}
	outcome := ClassifyAttendance(body)
	c.logger.Debug("mark attended",
		zap.String("event_id", req.EventID),
		zap.String("contact_id", req.ContactID),
		zap.Stringer("outcome", outcome),
	)
	return outcome, nil
}

// post sends one envelope and returns the whole response body. Any HTTP status
// counts as a response; only failures to send or read are transport errors.
func (c *Client) post(ctx context.Context, envelope string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(envelope))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	return string(raw), nil
}
