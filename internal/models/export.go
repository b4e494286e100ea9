package models

import (
	"time"

	"github.com/google/uuid"
)

// Export status values.
const (
	ExportPending   = "pending"
	ExportCompleted = "completed"
	ExportFailed    = "failed"
)

// Export is a CSV attendance report for one event, written to S3 by the worker.
type Export struct {
	ID          uuid.UUID  `json:"id"`
	EventGID    string     `json:"event_gid"`
	Status      string     `json:"status"`
	S3Key       string     `json:"s3_key,omitempty"`
	RowCount    int        `json:"row_count"`
	Error       string     `json:"error,omitempty"`
	RequestedBy *uuid.UUID `json:"requested_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
