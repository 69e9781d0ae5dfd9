// Package worker runs background jobs: notification delivery from the Redis
// queue and the daily vehicle sticker expiry sweep.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/villagio/backend/internal/models"
	"github.com/villagio/backend/pkg/queue"
)

// NotificationStore is what the processor needs from notification
// persistence. Implemented by notifications.Repository.
type NotificationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

// UserStore resolves notification recipients. Implemented by auth.Repository.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// NotificationProcessor processes notification delivery jobs: load the row,
// send via the configured sender, mark the outcome.
type NotificationProcessor struct {
	notifRepo NotificationStore
	users     UserStore
	sender    Sender
	queue     *queue.Queue
	logger    *zap.Logger
}

// NewNotificationProcessor creates a notification delivery processor.
func NewNotificationProcessor(notifRepo NotificationStore, users UserStore, sender Sender, q *queue.Queue, logger *zap.Logger) *NotificationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationProcessor{notifRepo: notifRepo, users: users, sender: sender, queue: q, logger: logger}
}

// Process executes one notification delivery job.
func (p *NotificationProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeNotification {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.NotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	n, err := p.notifRepo.GetByID(ctx, payload.NotificationID)
	if err != nil {
		return fmt.Errorf("load notification: %w", err)
	}
	if n == nil {
		p.logger.Warn("notification gone, dropping job", zap.String("notification_id", payload.NotificationID.String()))
		return nil
	}
	if n.Status == models.NotificationSent {
		p.logger.Info("notification already sent", zap.String("notification_id", n.ID.String()))
		return nil
	}

	recipient, err := p.users.GetByID(ctx, n.RecipientID)
	if err != nil {
		return fmt.Errorf("load recipient: %w", err)
	}
	if recipient == nil {
		p.logger.Warn("recipient gone, dropping job", zap.String("recipient_id", n.RecipientID.String()))
		return nil
	}

	if err := p.sender.Send(ctx, recipient.Email, n.Subject, n.Body); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	if err := p.notifRepo.MarkSent(ctx, n.ID); err != nil {
		p.logger.Error("mark sent failed", zap.Error(err), zap.String("notification_id", n.ID.String()))
		return fmt.Errorf("mark sent: %w", err)
	}

	p.logger.Info("notification delivered",
		zap.String("notification_id", n.ID.String()),
		zap.String("kind", string(n.Kind)),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. Jobs that
// exhaust their retries are marked failed and land in the DLQ.
func (p *NotificationProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if job.Attempt+1 >= queue.MaxRetries {
				p.markFailed(ctx, job)
			}
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}

func (p *NotificationProcessor) markFailed(ctx context.Context, job *queue.Job) {
	var payload queue.NotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return
	}
	if err := p.notifRepo.MarkFailed(ctx, payload.NotificationID); err != nil {
		p.logger.Error("mark failed", zap.Error(err), zap.String("notification_id", payload.NotificationID.String()))
	}
}
