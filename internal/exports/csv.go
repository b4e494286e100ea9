package exports

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/eventscan/backend/internal/models"
)

// Header is the first row of every export.
var Header = []string{"scanned_at", "event_gid", "contact_id", "outcome", "operator_id"}

// WriteCSV writes scans as CSV with times in loc and returns the number of data rows.
func WriteCSV(w io.Writer, scans []models.Scan, loc *time.Location) (int, error) {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, err
	}
	for _, s := range scans {
		operator := ""
		if s.OperatorID != nil {
			operator = s.OperatorID.String()
		}
		rec := []string{s.ScannedAt.In(loc).Format(time.RFC3339), s.EventGID, s.ContactID, s.Outcome, operator}
		if err := cw.Write(rec); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(scans), cw.Error()
}
