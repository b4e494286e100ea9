package models

import (
	"time"

	"github.com/google/uuid"
)

// Scan is one attempt to mark a scanned contact as attended.
type Scan struct {
	ID         uuid.UUID  `json:"id"`
	EventGID   string     `json:"event_gid"`
	ContactID  string     `json:"contact_id"`
	Outcome    string     `json:"outcome"` // attended, rejected, transport_error
	OperatorID *uuid.UUID `json:"operator_id,omitempty"`
	ScannedAt  time.Time  `json:"scanned_at"`
}

// ScanCounts summarises an event's scan log.
type ScanCounts struct {
	Total    int `json:"total"`
	Attended int `json:"attended"`
	Rejected int `json:"rejected"`
}
