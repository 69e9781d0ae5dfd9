// Package notifications persists queued user notifications delivered by the
// background worker.
package notifications

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/villagio/backend/internal/models"
)

// Repository handles notification persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a notifications repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a queued notification.
func (r *Repository) Create(ctx context.Context, n *models.Notification) error {
	const q = `INSERT INTO notifications (tenant_id, recipient_id, kind, subject, body, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, n.TenantID, n.RecipientID, n.Kind, n.Subject, n.Body, n.Status).
		Scan(&n.ID, &n.CreatedAt)
}

// GetByID returns a notification by id, or nil when not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	const q = `SELECT id, tenant_id, recipient_id, kind, subject, body, status, sent_at, created_at
		FROM notifications WHERE id = $1`
	var n models.Notification
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&n.ID, &n.TenantID, &n.RecipientID, &n.Kind, &n.Subject, &n.Body, &n.Status, &n.SentAt, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkSent records a successful delivery.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE notifications SET status = 'sent', sent_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// MarkFailed records a delivery failure after retries are exhausted.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE notifications SET status = 'failed' WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// ListForRecipient returns a user's notifications in the active tenant,
// newest first.
func (r *Repository) ListForRecipient(ctx context.Context, tenantID, recipientID uuid.UUID) ([]*models.Notification, error) {
	const q = `SELECT id, tenant_id, recipient_id, kind, subject, body, status, sent_at, created_at
		FROM notifications
		WHERE tenant_id = $1 AND recipient_id = $2
		ORDER BY created_at DESC
		LIMIT 100`
	rows, err := r.pool.Query(ctx, q, tenantID, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.TenantID, &n.RecipientID, &n.Kind, &n.Subject, &n.Body,
			&n.Status, &n.SentAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &n)
	}
	return list, rows.Err()
}
