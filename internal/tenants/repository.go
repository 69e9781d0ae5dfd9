package tenants

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/villagio/backend/internal/models"
)

// Repository handles tenant persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a tenants repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a tenant.
func (r *Repository) Create(ctx context.Context, t *models.Tenant) error {
	const q = `INSERT INTO tenants (name, slug, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, t.Name, t.Slug, t.Status).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID returns a tenant by id, or nil when not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	const q = `SELECT id, name, slug, status, created_at, updated_at FROM tenants WHERE id = $1`
	var t models.Tenant
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&t.ID, &t.Name, &t.Slug, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetBySlug returns a tenant by slug, or nil when not found.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	const q = `SELECT id, name, slug, status, created_at, updated_at FROM tenants WHERE slug = $1`
	var t models.Tenant
	err := r.pool.QueryRow(ctx, q, slug).
		Scan(&t.ID, &t.Name, &t.Slug, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateStatus sets a tenant's lifecycle status. Returns the updated tenant,
// or nil when the tenant does not exist.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.TenantStatus) (*models.Tenant, error) {
	const q = `UPDATE tenants SET status = $2, updated_at = NOW() WHERE id = $1
		RETURNING id, name, slug, status, created_at, updated_at`
	var t models.Tenant
	err := r.pool.QueryRow(ctx, q, id, status).
		Scan(&t.ID, &t.Name, &t.Slug, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UserIsPlatformAdmin reports whether the user holds an active membership
// with a platform-scoped role anywhere. Platform-level mutations (tenant
// lifecycle) are gated on this.
func (r *Repository) UserIsPlatformAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (
		SELECT 1 FROM memberships m
		INNER JOIN roles r ON r.id = m.role_id
		WHERE m.user_id = $1 AND m.is_active AND r.scope = 'platform')`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
