package exports

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventscan/backend/internal/models"
)

func TestWriteCSV(t *testing.T) {
	op := uuid.MustParse("11111111-2222-4333-8444-555555555555")
	at := time.Date(2024, 3, 5, 16, 30, 0, 0, time.UTC)
	scans := []models.Scan{
		{EventGID: "GID-1", ContactID: "C-1", Outcome: "attended", OperatorID: &op, ScannedAt: at},
		{EventGID: "GID-1", ContactID: `has,"comma"`, Outcome: "rejected", ScannedAt: at},
	}
	var buf bytes.Buffer
	n, err := WriteCSV(&buf, scans, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t,
		"scanned_at,event_gid,contact_id,outcome,operator_id\n"+
			"2024-03-05T16:30:00Z,GID-1,C-1,attended,11111111-2222-4333-8444-555555555555\n"+
			"2024-03-05T16:30:00Z,GID-1,\"has,\"\"comma\"\"\",rejected,\n",
		buf.String())
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteCSV(&buf, nil, time.UTC)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "scanned_at,event_gid,contact_id,outcome,operator_id\n", buf.String())
}
