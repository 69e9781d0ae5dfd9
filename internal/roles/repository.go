// Package roles reads the role catalog: codes, hierarchy levels, and default
// permission maps seeded by migration.
package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/villagio/backend/internal/models"
)

// Repository reads the role catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a roles repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all roles ordered by hierarchy level (most privileged first).
func (r *Repository) List(ctx context.Context) ([]*models.Role, error) {
	const q = `SELECT id, code, name, hierarchy_level, scope, permissions, created_at
		FROM roles ORDER BY hierarchy_level ASC, code ASC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Role
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Code, &role.Name, &role.HierarchyLevel,
			&role.Scope, &role.Permissions, &role.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &role)
	}
	return list, rows.Err()
}

// GetByCode returns a role by its unique code, or nil when not found.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.Role, error) {
	const q = `SELECT id, code, name, hierarchy_level, scope, permissions, created_at
		FROM roles WHERE code = $1`
	var role models.Role
	err := r.pool.QueryRow(ctx, q, code).
		Scan(&role.ID, &role.Code, &role.Name, &role.HierarchyLevel, &role.Scope, &role.Permissions, &role.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}
