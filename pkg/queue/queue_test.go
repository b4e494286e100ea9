package queue

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob(t *testing.T) {
	id := uuid.New()
	job, err := NewJob(JobTypeExport, ExportPayload{ExportID: id, EventGID: "GID-7"})
	require.NoError(t, err)
	assert.Equal(t, JobTypeExport, job.Type)
	assert.Zero(t, job.Attempt)
	assert.NotEmpty(t, job.ID)

	var p ExportPayload
	require.NoError(t, json.Unmarshal(job.Payload, &p))
	assert.Equal(t, id, p.ExportID)
	assert.Equal(t, "GID-7", p.EventGID)
}
