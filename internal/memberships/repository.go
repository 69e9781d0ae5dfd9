// Package memberships persists the user–tenant join entity and implements
// the tenant context engine's store contract.
package memberships

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/villagio/backend/internal/models"
)

// Repository handles membership persistence. It is the live-state store
// behind the tenant context engine: every read goes to the database so that
// concurrent administrative changes are visible immediately.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a memberships repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const membershipJoinedColumns = `
	m.id, m.tenant_id, m.user_id, m.role_id, m.is_active, m.permission_overrides, m.joined_at,
	r.id, r.code, r.name, r.hierarchy_level, r.scope, r.permissions, r.created_at,
	t.id, t.name, t.slug, t.status, t.created_at, t.updated_at`

func scanJoinedMembership(row pgx.Row) (*models.Membership, error) {
	var m models.Membership
	var r models.Role
	var t models.Tenant
	err := row.Scan(
		&m.ID, &m.TenantID, &m.UserID, &m.RoleID, &m.IsActive, &m.PermissionOverrides, &m.JoinedAt,
		&r.ID, &r.Code, &r.Name, &r.HierarchyLevel, &r.Scope, &r.Permissions, &r.CreatedAt,
		&t.ID, &t.Name, &t.Slug, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Role = &r
	m.Tenant = &t
	return &m, nil
}

// GetMembership returns the membership for (userID, tenantID) with role and
// tenant joined in a single lookup, or nil when no row exists.
func (r *Repository) GetMembership(ctx context.Context, userID, tenantID uuid.UUID) (*models.Membership, error) {
	const q = `SELECT ` + membershipJoinedColumns + `
		FROM memberships m
		INNER JOIN roles r ON r.id = m.role_id
		INNER JOIN tenants t ON t.id = m.tenant_id
		WHERE m.user_id = $1 AND m.tenant_id = $2`
	m, err := scanJoinedMembership(r.pool.QueryRow(ctx, q, userID, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListMemberships returns all memberships for a user with role and tenant
// joined, ordered by join time ascending (stable tie-break on id).
func (r *Repository) ListMemberships(ctx context.Context, userID uuid.UUID) ([]*models.Membership, error) {
	const q = `SELECT ` + membershipJoinedColumns + `
		FROM memberships m
		INNER JOIN roles r ON r.id = m.role_id
		INNER JOIN tenants t ON t.id = m.tenant_id
		WHERE m.user_id = $1
		ORDER BY m.joined_at ASC, m.id ASC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Membership
	for rows.Next() {
		m, err := scanJoinedMembership(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// GetRole returns a role by id, or nil when not found.
func (r *Repository) GetRole(ctx context.Context, roleID uuid.UUID) (*models.Role, error) {
	const q = `SELECT id, code, name, hierarchy_level, scope, permissions, created_at
		FROM roles WHERE id = $1`
	var role models.Role
	err := r.pool.QueryRow(ctx, q, roleID).
		Scan(&role.ID, &role.Code, &role.Name, &role.HierarchyLevel, &role.Scope, &role.Permissions, &role.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// GetTenant returns a tenant by id, or nil when not found.
func (r *Repository) GetTenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	const q = `SELECT id, name, slug, status, created_at, updated_at FROM tenants WHERE id = $1`
	var t models.Tenant
	err := r.pool.QueryRow(ctx, q, tenantID).
		Scan(&t.ID, &t.Name, &t.Slug, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID returns a membership by id within a tenant, joined, or nil.
func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Membership, error) {
	const q = `SELECT ` + membershipJoinedColumns + `
		FROM memberships m
		INNER JOIN roles r ON r.id = m.role_id
		INNER JOIN tenants t ON t.id = m.tenant_id
		WHERE m.id = $1 AND m.tenant_id = $2`
	m, err := scanJoinedMembership(r.pool.QueryRow(ctx, q, id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Member is a membership with user details for member listings.
type Member struct {
	ID                  uuid.UUID            `json:"id"`
	UserID              uuid.UUID            `json:"user_id"`
	Email               string               `json:"email"`
	FirstName           string               `json:"first_name"`
	LastName            string               `json:"last_name"`
	RoleID              uuid.UUID            `json:"role_id"`
	RoleCode            string               `json:"role_code"`
	IsActive            bool                 `json:"is_active"`
	PermissionOverrides models.PermissionMap `json:"permission_overrides"`
	JoinedAt            time.Time            `json:"joined_at"`
}

// ListMembers returns the members of a tenant ordered by join time.
func (r *Repository) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]Member, error) {
	const q = `SELECT m.id, m.user_id, u.email, u.first_name, u.last_name,
			m.role_id, r.code, m.is_active, m.permission_overrides, m.joined_at
		FROM memberships m
		INNER JOIN users u ON u.id = m.user_id
		INNER JOIN roles r ON r.id = m.role_id
		WHERE m.tenant_id = $1
		ORDER BY m.joined_at ASC`
	rows, err := r.pool.Query(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.UserID, &m.Email, &m.FirstName, &m.LastName,
			&m.RoleID, &m.RoleCode, &m.IsActive, &m.PermissionOverrides, &m.JoinedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Create inserts a membership. The unique constraint on (tenant_id, user_id)
// is the serialization point for concurrent assignment.
func (r *Repository) Create(ctx context.Context, m *models.Membership) error {
	const q = `INSERT INTO memberships (tenant_id, user_id, role_id, is_active, permission_overrides)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, joined_at`
	overrides := m.PermissionOverrides
	if overrides == nil {
		overrides = models.PermissionMap{}
	}
	return r.pool.QueryRow(ctx, q, m.TenantID, m.UserID, m.RoleID, m.IsActive, overrides).
		Scan(&m.ID, &m.JoinedAt)
}

// UpdateParams are the mutable membership fields. Nil fields are unchanged.
type UpdateParams struct {
	RoleID              *uuid.UUID
	IsActive            *bool
	PermissionOverrides *models.PermissionMap
}

// Update applies role, active-flag, and override changes to a membership
// within a tenant. Returns the updated joined membership, or nil when the
// membership does not belong to the tenant.
func (r *Repository) Update(ctx context.Context, tenantID, id uuid.UUID, params UpdateParams) (*models.Membership, error) {
	const q = `UPDATE memberships SET
			role_id = COALESCE($3, role_id),
			is_active = COALESCE($4, is_active),
			permission_overrides = COALESCE($5, permission_overrides)
		WHERE id = $1 AND tenant_id = $2`
	tag, err := r.pool.Exec(ctx, q, id, tenantID, params.RoleID, params.IsActive, params.PermissionOverrides)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, tenantID, id)
}
