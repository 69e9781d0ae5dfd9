package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/villagio/backend/internal/models"
	"github.com/villagio/backend/internal/notifications"
	"github.com/villagio/backend/internal/stickers"
	"github.com/villagio/backend/pkg/queue"
)

const (
	// ExpiryWarningWindow is how far ahead of expiry household heads are warned.
	ExpiryWarningWindow = 30 * 24 * time.Hour
	// sweepDedupTTL keeps a Redis marker so one sticker warns once per week,
	// not once per sweep.
	sweepDedupTTL    = 7 * 24 * time.Hour
	sweepDedupPrefix = "sweep:sticker-expiring:"
)

// Sweeper runs the periodic sticker expiry pass: expire overdue stickers and
// queue expiry warnings for household heads.
type Sweeper struct {
	stickerRepo *stickers.Repository
	notifRepo   *notifications.Repository
	jobs        *queue.Queue
	redis       *redis.Client
	interval    time.Duration
	logger      *zap.Logger
}

// NewSweeper creates a sticker expiry sweeper.
func NewSweeper(stickerRepo *stickers.Repository, notifRepo *notifications.Repository, jobs *queue.Queue, rdb *redis.Client, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Sweeper{stickerRepo: stickerRepo, notifRepo: notifRepo, jobs: jobs, redis: rdb, interval: interval, logger: logger}
}

// Run sweeps immediately, then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sticker sweeper stopping")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now()

	expired, err := s.stickerRepo.MarkExpired(ctx, now)
	if err != nil {
		s.logger.Error("mark expired stickers", zap.Error(err))
	} else if expired > 0 {
		s.logger.Info("stickers expired", zap.Int64("count", expired))
	}

	expiring, err := s.stickerRepo.ListExpiringWithin(ctx, now.Add(ExpiryWarningWindow))
	if err != nil {
		s.logger.Error("list expiring stickers", zap.Error(err))
		return
	}
	for _, e := range expiring {
		if err := s.warn(ctx, e); err != nil {
			s.logger.Warn("queue expiry warning",
				zap.Error(err),
				zap.String("sticker_id", e.Sticker.ID.String()),
			)
		}
	}
}

// warn queues one expiry notification per recipient, deduplicated in Redis
// so repeated sweeps stay quiet.
func (s *Sweeper) warn(ctx context.Context, e stickers.ExpiringSticker) error {
	dedupKey := sweepDedupPrefix + e.Sticker.ID.String()
	fresh, err := s.redis.SetNX(ctx, dedupKey, time.Now().Unix(), sweepDedupTTL).Result()
	if err != nil {
		return fmt.Errorf("dedup check: %w", err)
	}
	if !fresh {
		return nil
	}

	subject := fmt.Sprintf("Vehicle sticker %s expires soon", e.Sticker.PlateNumber)
	body := fmt.Sprintf("The gate sticker for plate %s expires on %s. Renew it to keep gate access.",
		e.Sticker.PlateNumber, e.Sticker.ValidUntil.Format("2006-01-02"))

	for _, recipient := range e.Recipients {
		n := &models.Notification{
			TenantID:    e.Sticker.TenantID,
			RecipientID: recipient,
			Kind:        models.NotifyStickerExpiring,
			Subject:     subject,
			Body:        body,
			Status:      models.NotificationQueued,
		}
		if err := s.notifRepo.Create(ctx, n); err != nil {
			return fmt.Errorf("create notification: %w", err)
		}
		if err := s.jobs.EnqueueNotification(ctx, queue.NotificationPayload{
			NotificationID: n.ID,
			TenantID:       n.TenantID,
		}); err != nil {
			return fmt.Errorf("enqueue: %w", err)
		}
	}
	return nil
}
