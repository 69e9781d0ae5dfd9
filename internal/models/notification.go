package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind identifies what triggered a notification.
type NotificationKind string

const (
	NotifyMembershipAssigned NotificationKind = "membership_assigned"
	NotifyStickerExpiring    NotificationKind = "sticker_expiring"
)

// NotificationStatus tracks delivery progress.
type NotificationStatus string

const (
	NotificationQueued NotificationStatus = "queued"
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

// Notification is a queued message to a user, delivered by the worker.
type Notification struct {
	ID          uuid.UUID          `json:"id"`
	TenantID    uuid.UUID          `json:"tenant_id"`
	RecipientID uuid.UUID          `json:"recipient_id"`
	Kind        NotificationKind   `json:"kind"`
	Subject     string             `json:"subject"`
	Body        string             `json:"body"`
	Status      NotificationStatus `json:"status"`
	SentAt      *time.Time         `json:"sent_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}
