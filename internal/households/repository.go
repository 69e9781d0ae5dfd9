package households

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/villagio/backend/internal/models"
)

// Repository handles household and resident persistence. Every query filters
// by tenant id: rows from another community are unreachable by construction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a households repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a household in a tenant.
func (r *Repository) Create(ctx context.Context, h *models.Household) error {
	const q = `INSERT INTO households (tenant_id, name, block, lot, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, h.TenantID, h.Name, h.Block, h.Lot, h.Status).
		Scan(&h.ID, &h.CreatedAt, &h.UpdatedAt)
}

// GetByID returns a household by id within a tenant, or nil.
func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Household, error) {
	const q = `SELECT id, tenant_id, name, block, lot, status, created_at, updated_at
		FROM households WHERE id = $1 AND tenant_id = $2`
	var h models.Household
	err := r.pool.QueryRow(ctx, q, id, tenantID).
		Scan(&h.ID, &h.TenantID, &h.Name, &h.Block, &h.Lot, &h.Status, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// List returns households of a tenant ordered by block and lot.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID) ([]*models.Household, error) {
	const q = `SELECT id, tenant_id, name, block, lot, status, created_at, updated_at
		FROM households WHERE tenant_id = $1 ORDER BY block, lot, name`
	rows, err := r.pool.Query(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Household
	for rows.Next() {
		var h models.Household
		if err := rows.Scan(&h.ID, &h.TenantID, &h.Name, &h.Block, &h.Lot, &h.Status,
			&h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &h)
	}
	return list, rows.Err()
}

// Update applies name/address/status changes. Returns nil when the household
// does not belong to the tenant.
func (r *Repository) Update(ctx context.Context, h *models.Household) (*models.Household, error) {
	const q = `UPDATE households SET name = $3, block = $4, lot = $5, status = $6, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2
		RETURNING id, tenant_id, name, block, lot, status, created_at, updated_at`
	var out models.Household
	err := r.pool.QueryRow(ctx, q, h.ID, h.TenantID, h.Name, h.Block, h.Lot, h.Status).
		Scan(&out.ID, &out.TenantID, &out.Name, &out.Block, &out.Lot, &out.Status, &out.CreatedAt, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AddResident inserts a resident into a household.
func (r *Repository) AddResident(ctx context.Context, res *models.Resident) error {
	const q = `INSERT INTO residents (tenant_id, household_id, first_name, last_name, is_owner)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, res.TenantID, res.HouseholdID, res.FirstName, res.LastName, res.IsOwner).
		Scan(&res.ID, &res.CreatedAt)
}

// ListResidents returns the residents of a household within a tenant.
func (r *Repository) ListResidents(ctx context.Context, tenantID, householdID uuid.UUID) ([]*models.Resident, error) {
	const q = `SELECT id, tenant_id, household_id, first_name, last_name, is_owner, created_at
		FROM residents WHERE tenant_id = $1 AND household_id = $2
		ORDER BY is_owner DESC, last_name, first_name`
	rows, err := r.pool.Query(ctx, q, tenantID, householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Resident
	for rows.Next() {
		var res models.Resident
		if err := rows.Scan(&res.ID, &res.TenantID, &res.HouseholdID, &res.FirstName,
			&res.LastName, &res.IsOwner, &res.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &res)
	}
	return list, rows.Err()
}

// RemoveResident deletes a resident within a tenant. Returns false when no
// row matched.
func (r *Repository) RemoveResident(ctx context.Context, tenantID, residentID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM residents WHERE id = $1 AND tenant_id = $2`, residentID, tenantID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
