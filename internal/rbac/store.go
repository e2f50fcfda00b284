package rbac

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store reads capability data from PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// FindRoleCapabilities returns the capabilities granted to a role. An unknown
// role yields an empty set.
func (s *Store) FindRoleCapabilities(ctx context.Context, roleID int64) ([]Capability, error) {
	rows, err := s.pool.Query(ctx, `SELECT p.resource, p.action
FROM role_permissions rp
JOIN permissions p ON p.id = rp.permission_id
WHERE rp.role_id = $1
ORDER BY p.resource, p.action`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var caps []Capability
	for rows.Next() {
		var c Capability
		if err := rows.Scan(&c.Resource, &c.Action); err != nil {
			return nil, err
		}
		caps = append(caps, c)
	}
	return caps, rows.Err()
}

// ListPermissions returns every stored permission.
func (s *Store) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, resource, action, description FROM permissions ORDER BY resource, action`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Permission, error) {
		var p Permission
		err := row.Scan(&p.ID, &p.Resource, &p.Action, &p.Description)
		return p, err
	})
}

// EnsurePermission upserts a permission by its (resource, action) pair.
func (s *Store) EnsurePermission(ctx context.Context, resource, action, description string) (Permission, error) {
	var p Permission
	err := s.pool.QueryRow(ctx, `INSERT INTO permissions (resource, action, description)
VALUES ($1, $2, $3)
ON CONFLICT (resource, action) DO UPDATE SET description = EXCLUDED.description
RETURNING id, resource, action, description`,
		strings.TrimSpace(resource), strings.TrimSpace(action), strings.TrimSpace(description)).
		Scan(&p.ID, &p.Resource, &p.Action, &p.Description)
	return p, err
}
