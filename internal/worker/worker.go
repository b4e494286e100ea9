// Package worker runs background jobs pulled from the Redis queue.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/eventscan/backend/internal/models"
	"github.com/eventscan/backend/pkg/queue"
	"github.com/eventscan/backend/pkg/storage"
)

// dequeueWait bounds each blocking pop so Run notices cancellation.
const dequeueWait = 5 * time.Second

// JobSource is the queue the processor consumes.
type JobSource interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) (deadLettered bool, err error)
}

// ScanSource reads an event's scan log.
type ScanSource interface {
	ListByEvent(ctx context.Context, eventGID string) ([]models.Scan, error)
}

// ExportStore updates export rows.
type ExportStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Export, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, s3Key string, rows int) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// Uploader writes export objects.
type Uploader interface {
	PutExport(ctx context.Context, key string, body io.Reader) error
}

// Renderer writes scans in the export format.
type Renderer func(w io.Writer, scans []models.Scan, loc *time.Location) (int, error)

// ExportProcessor processes export jobs: read the scan log, render CSV, upload to S3, update DB.
type ExportProcessor struct {
	scans    ScanSource
	exports  ExportStore
	uploader Uploader
	render   Renderer
	queue    JobSource
	loc      *time.Location
	backoff  time.Duration
	logger   *zap.Logger
}

// NewExportProcessor creates an export processor. Times in reports are shown in loc.
func NewExportProcessor(scans ScanSource, exports ExportStore, uploader Uploader, render Renderer, q JobSource, loc *time.Location, logger *zap.Logger) *ExportProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportProcessor{
		scans:    scans,
		exports:  exports,
		uploader: uploader,
		render:   render,
		queue:    q,
		loc:      loc,
		backoff:  queue.RetryBackoff,
		logger:   logger,
	}
}

// Process executes one export job.
func (p *ExportProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeExport {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ExportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	exp, err := p.exports.GetByID(ctx, payload.ExportID)
	if errors.Is(err, pgx.ErrNoRows) {
		p.logger.Warn("export row missing, dropping job", zap.String("export_id", payload.ExportID.String()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load export: %w", err)
	}
	if exp.Status == models.ExportCompleted {
		p.logger.Info("export already completed", zap.String("export_id", exp.ID.String()))
		return nil
	}

	list, err := p.scans.ListByEvent(ctx, payload.EventGID)
	if err != nil {
		return fmt.Errorf("list scans: %w", err)
	}
	var buf bytes.Buffer
	rows, err := p.render(&buf, list, p.loc)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	key := storage.ExportKey(payload.EventGID, job.ID)
	if err := p.uploader.PutExport(ctx, key, &buf); err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}
	if err := p.exports.MarkCompleted(ctx, exp.ID, key, rows); err != nil {
		p.logger.Error("update export result failed", zap.Error(err), zap.String("export_id", exp.ID.String()))
		return fmt.Errorf("update db: %w", err)
	}

	p.logger.Info("export completed", zap.String("export_id", exp.ID.String()), zap.String("s3_key", key), zap.Int("rows", rows))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ExportProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("export worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, dequeueWait)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			p.retry(ctx, job, err)
			p.sleep(ctx)
		}
	}
}

func (p *ExportProcessor) retry(ctx context.Context, job *queue.Job, cause error) {
	dead, err := p.queue.Retry(ctx, job)
	if err != nil {
		p.logger.Error("retry enqueue failed", zap.Error(err))
		return
	}
	if !dead {
		return
	}
	var payload queue.ExportPayload
	if json.Unmarshal(job.Payload, &payload) != nil {
		return
	}
	if err := p.exports.MarkFailed(ctx, payload.ExportID, cause.Error()); err != nil {
		p.logger.Error("mark export failed", zap.Error(err), zap.String("export_id", payload.ExportID.String()))
	}
}

func (p *ExportProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
