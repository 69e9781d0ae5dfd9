package stickers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/villagio/backend/internal/models"
)

// Repository handles vehicle sticker persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a stickers repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const stickerColumns = `id, tenant_id, household_id, plate_number, status, COALESCE(photo_key, ''), valid_until, created_at, updated_at`

func scanSticker(row pgx.Row) (*models.VehicleSticker, error) {
	var s models.VehicleSticker
	err := row.Scan(&s.ID, &s.TenantID, &s.HouseholdID, &s.PlateNumber, &s.Status,
		&s.PhotoKey, &s.ValidUntil, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a sticker.
func (r *Repository) Create(ctx context.Context, s *models.VehicleSticker) error {
	const q = `INSERT INTO vehicle_stickers (tenant_id, household_id, plate_number, status, valid_until)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, s.TenantID, s.HouseholdID, s.PlateNumber, s.Status, s.ValidUntil).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID returns a sticker by id within a tenant, or nil.
func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.VehicleSticker, error) {
	const q = `SELECT ` + stickerColumns + ` FROM vehicle_stickers WHERE id = $1 AND tenant_id = $2`
	s, err := scanSticker(r.pool.QueryRow(ctx, q, id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// List returns a tenant's stickers, newest first.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID) ([]*models.VehicleSticker, error) {
	const q = `SELECT ` + stickerColumns + ` FROM vehicle_stickers
		WHERE tenant_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.VehicleSticker
	for rows.Next() {
		s, err := scanSticker(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// UpdateStatus sets a sticker's status within a tenant. Returns nil when no
// row matched.
func (r *Repository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status models.StickerStatus) (*models.VehicleSticker, error) {
	const q = `UPDATE vehicle_stickers SET status = $3, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2
		RETURNING ` + stickerColumns
	s, err := scanSticker(r.pool.QueryRow(ctx, q, id, tenantID, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Renew extends a sticker's validity and reactivates it.
func (r *Repository) Renew(ctx context.Context, tenantID, id uuid.UUID, validUntil time.Time) (*models.VehicleSticker, error) {
	const q = `UPDATE vehicle_stickers SET status = 'active', valid_until = $3, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2
		RETURNING ` + stickerColumns
	s, err := scanSticker(r.pool.QueryRow(ctx, q, id, tenantID, validUntil))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// SetPhotoKey records the documents-bucket object key for a sticker photo.
func (r *Repository) SetPhotoKey(ctx context.Context, tenantID, id uuid.UUID, key string) error {
	const q = `UPDATE vehicle_stickers SET photo_key = $3, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2`
	_, err := r.pool.Exec(ctx, q, id, tenantID, key)
	return err
}

// ExpiringSticker pairs a sticker with the household-head users to notify.
type ExpiringSticker struct {
	Sticker    models.VehicleSticker
	Recipients []uuid.UUID
}

// MarkExpired flips active stickers whose validity has passed to expired,
// across all tenants. Returns the number of rows updated. Worker-only: this
// is the one query in the repository that is not tenant-scoped.
func (r *Repository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `UPDATE vehicle_stickers SET status = 'expired', updated_at = NOW()
		WHERE status = 'active' AND valid_until < $1`
	tag, err := r.pool.Exec(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListExpiringWithin returns active stickers expiring before the deadline,
// with the user ids of active household-scoped members in the tenant to
// notify. Worker-only.
func (r *Repository) ListExpiringWithin(ctx context.Context, deadline time.Time) ([]ExpiringSticker, error) {
	const q = `SELECT ` + stickerColumns + ` FROM vehicle_stickers
		WHERE status = 'active' AND valid_until < $1
		ORDER BY valid_until ASC`
	rows, err := r.pool.Query(ctx, q, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stickers []*models.VehicleSticker
	for rows.Next() {
		s, err := scanSticker(rows)
		if err != nil {
			return nil, err
		}
		stickers = append(stickers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]ExpiringSticker, 0, len(stickers))
	for _, s := range stickers {
		recipients, err := r.householdHeads(ctx, s.TenantID)
		if err != nil {
			return nil, err
		}
		out = append(out, ExpiringSticker{Sticker: *s, Recipients: recipients})
	}
	return out, nil
}

func (r *Repository) householdHeads(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	const q = `SELECT m.user_id FROM memberships m
		INNER JOIN roles r ON r.id = m.role_id
		WHERE m.tenant_id = $1 AND m.is_active AND r.code = $2`
	rows, err := r.pool.Query(ctx, q, tenantID, models.RoleHouseholdHead)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
