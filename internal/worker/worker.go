package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/metrics"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/internal/notify"
	"github.com/agrimech/portal/pkg/queue"
)

const dequeueTimeout = 5 * time.Second

// JobQueue is the subset of the Redis queue the worker consumes.
type JobQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) (bool, error)
}

// LogStore records each delivery in email_logs.
type LogStore interface {
	Begin(ctx context.Context, id uuid.UUID, p queue.EmailPayload) error
	MarkSent(ctx context.Context, id uuid.UUID, attempts int) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, errMsg string) error
}

// EmailProcessor delivers queued emails through the configured sender.
type EmailProcessor struct {
	logs    LogStore
	sender  notify.Sender
	queue   JobQueue
	backoff time.Duration
	logger  *zap.Logger
}

// NewEmailProcessor creates an email processor.
func NewEmailProcessor(logs LogStore, sender notify.Sender, q JobQueue, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{logs: logs, sender: sender, queue: q, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one email job. Log bookkeeping failures are logged and do not fail the job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	logID, err := uuid.Parse(job.ID)
	if err != nil {
		logID = uuid.New()
	}
	if err := p.logs.Begin(ctx, logID, payload); err != nil {
		p.logger.Warn("email log insert failed", zap.Error(err), zap.String("job_id", job.ID))
	}

	attempts := job.Attempt + 1
	sendErr := p.sender.Send(ctx, notify.Message{
		To:      payload.RecipientEmail,
		ToName:  payload.RecipientName,
		Subject: payload.Subject,
		HTML:    payload.BodyHTML,
		Text:    payload.BodyText,
	})
	if sendErr != nil {
		metrics.EmailsTotal.WithLabelValues(payload.EmailType, models.EmailLogStatusFailed).Inc()
		if err := p.logs.MarkFailed(ctx, logID, attempts, sendErr.Error()); err != nil {
			p.logger.Warn("email log update failed", zap.Error(err), zap.String("job_id", job.ID))
		}
		return fmt.Errorf("send via %s: %w", p.sender.Name(), sendErr)
	}

	metrics.EmailsTotal.WithLabelValues(payload.EmailType, models.EmailLogStatusSent).Inc()
	if err := p.logs.MarkSent(ctx, logID, attempts); err != nil {
		p.logger.Warn("email log update failed", zap.Error(err), zap.String("job_id", job.ID))
	}
	p.logger.Info("email sent", zap.String("job_id", job.ID), zap.String("email_type", payload.EmailType))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. It returns when ctx is cancelled.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, dequeueTimeout)
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
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if _, reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *EmailProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
