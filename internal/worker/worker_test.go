package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventscan/backend/internal/exports"
	"github.com/eventscan/backend/internal/models"
	"github.com/eventscan/backend/pkg/queue"
)

type scanList []models.Scan

func (s scanList) ListByEvent(_ context.Context, gid string) ([]models.Scan, error) {
	var out []models.Scan
	for _, sc := range s {
		if sc.EventGID == gid {
			out = append(out, sc)
		}
	}
	return out, nil
}

type exportRows struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.Export
}

func (e *exportRows) GetByID(_ context.Context, id uuid.UUID) (*models.Export, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (e *exportRows) MarkCompleted(_ context.Context, id uuid.UUID, key string, n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.rows[id]
	r.Status, r.S3Key, r.RowCount = models.ExportCompleted, key, n
	return nil
}

func (e *exportRows) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.rows[id]
	r.Status, r.Error = models.ExportFailed, reason
	return nil
}

func (e *exportRows) get(id uuid.UUID) models.Export {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.rows[id]
}

type bucket struct {
	mu      sync.Mutex
	objects map[string]string
	err     error
}

func (b *bucket) PutExport(_ context.Context, key string, body io.Reader) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if b.objects == nil {
		b.objects = make(map[string]string)
	}
	b.objects[key] = string(data)
	return nil
}

// scriptedQueue hands out its jobs once, then blocks until the context ends.
type scriptedQueue struct {
	mu      sync.Mutex
	jobs    []*queue.Job
	retries int
	dead    bool
}

func (q *scriptedQueue) Dequeue(ctx context.Context, _ time.Duration) (*queue.Job, error) {
	q.mu.Lock()
	if len(q.jobs) > 0 {
		j := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()
		return j, nil
	}
	q.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (q *scriptedQueue) Retry(_ context.Context, job *queue.Job) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.retries++
	job.Attempt++
	if job.Attempt >= queue.MaxRetries {
		q.dead = true
		return true, nil
	}
	q.jobs = append(q.jobs, job)
	return false, nil
}

func fixture(t *testing.T) (*exportRows, *bucket, uuid.UUID, *queue.Job) {
	t.Helper()
	id := uuid.New()
	rows := &exportRows{rows: map[uuid.UUID]*models.Export{id: {ID: id, EventGID: "GID-1", Status: models.ExportPending}}}
	job, err := queue.NewJob(queue.JobTypeExport, queue.ExportPayload{ExportID: id, EventGID: "GID-1"})
	require.NoError(t, err)
	return rows, &bucket{}, id, job
}

var testScans = scanList{
	{EventGID: "GID-1", ContactID: "C-1", Outcome: "attended", ScannedAt: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)},
	{EventGID: "GID-1", ContactID: "C-2", Outcome: "rejected", ScannedAt: time.Date(2024, 3, 5, 9, 1, 0, 0, time.UTC)},
	{EventGID: "GID-2", ContactID: "C-3", Outcome: "attended"},
}

func TestProcess_UploadsCSV(t *testing.T) {
	rows, b, id, job := fixture(t)
	p := NewExportProcessor(testScans, rows, b, exports.WriteCSV, &scriptedQueue{}, time.UTC, nil)

	require.NoError(t, p.Process(context.Background(), job))

	got := rows.get(id)
	assert.Equal(t, models.ExportCompleted, got.Status)
	assert.Equal(t, 2, got.RowCount)
	assert.Equal(t, "exports/GID-1/"+job.ID+".csv", got.S3Key)
	body := b.objects[got.S3Key]
	assert.True(t, strings.HasPrefix(body, "scanned_at,"))
	assert.Contains(t, body, "C-2")
	assert.NotContains(t, body, "C-3")
}

func TestProcess_SkipsCompletedAndMissing(t *testing.T) {
	rows, b, id, job := fixture(t)
	rows.rows[id].Status = models.ExportCompleted
	p := NewExportProcessor(testScans, rows, b, exports.WriteCSV, &scriptedQueue{}, time.UTC, nil)
	require.NoError(t, p.Process(context.Background(), job))
	assert.Empty(t, b.objects)

	other, err := queue.NewJob(queue.JobTypeExport, queue.ExportPayload{ExportID: uuid.New(), EventGID: "GID-1"})
	require.NoError(t, err)
	assert.NoError(t, p.Process(context.Background(), other))
}

func TestProcess_RejectsUnknownType(t *testing.T) {
	rows, b, _, job := fixture(t)
	job.Type = "something_else"
	p := NewExportProcessor(testScans, rows, b, exports.WriteCSV, &scriptedQueue{}, time.UTC, nil)
	assert.Error(t, p.Process(context.Background(), job))
}

func TestRun_DeadLetterMarksFailed(t *testing.T) {
	rows, b, id, job := fixture(t)
	b.err = errors.New("access denied")
	q := &scriptedQueue{jobs: []*queue.Job{job}}
	p := NewExportProcessor(testScans, rows, b, exports.WriteCSV, q, time.UTC, nil)
	p.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return rows.get(id).Status == models.ExportFailed
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	q.mu.Lock()
	defer q.mu.Unlock()
	assert.Equal(t, queue.MaxRetries, q.retries)
	assert.True(t, q.dead)
	assert.Contains(t, rows.get(id).Error, "access denied")
}

func TestRender_UsesLocation(t *testing.T) {
	var buf bytes.Buffer
	loc := time.FixedZone("MST", -7*60*60)
	_, err := exports.WriteCSV(&buf, testScans[:1], loc)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "2024-03-05T02:00:00-07:00")
}
