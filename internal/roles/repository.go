package roles

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sistem-pejabat/pejabat/internal/platform/db"
	"github.com/sistem-pejabat/pejabat/internal/rbac"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, input RoleInput) (Role, error)
	UpdateRole(ctx context.Context, id int64, input RoleInput) (Role, error)
	DeleteRole(ctx context.Context, id int64) error
	RoleCapabilities(ctx context.Context, id int64) ([]rbac.Capability, error)
	ReplacePermissions(ctx context.Context, id int64, caps []rbac.Capability) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool  *pgxpool.Pool
	store *rbac.Store
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, store: rbac.NewStore(pool)}
}

const selectRole = `SELECT r.id, r.name, r.description,
	(SELECT COUNT(*) FROM users u WHERE u.role_id = r.id),
	r.created_at, r.updated_at
FROM roles r`

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.UserCount, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return Role{}, ErrRoleNotFound
		}
		if db.IsUniqueViolation(err) {
			return Role{}, ErrDuplicateRole
		}
		return Role{}, err
	}
	return role, nil
}

// ListRoles returns all roles.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, selectRole+` ORDER BY r.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

// GetRole fetches a single role.
func (r *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	return scanRole(r.pool.QueryRow(ctx, selectRole+` WHERE r.id = $1`, id))
}

// CreateRole inserts a new role.
func (r *Repository) CreateRole(ctx context.Context, input RoleInput) (Role, error) {
	return scanRole(r.pool.QueryRow(ctx, `INSERT INTO roles (name, description) VALUES ($1, $2)
RETURNING id, name, description, 0, created_at, updated_at`, strings.TrimSpace(input.Name), strings.TrimSpace(input.Description)))
}

// UpdateRole renames or redescribes a role.
func (r *Repository) UpdateRole(ctx context.Context, id int64, input RoleInput) (Role, error) {
	return scanRole(r.pool.QueryRow(ctx, `UPDATE roles SET name = $2, description = $3, updated_at = NOW() WHERE id = $1
RETURNING id, name, description, (SELECT COUNT(*) FROM users u WHERE u.role_id = roles.id), created_at, updated_at`,
		id, strings.TrimSpace(input.Name), strings.TrimSpace(input.Description)))
}

// DeleteRole removes a role. Roles still assigned to users cannot be removed.
func (r *Repository) DeleteRole(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrRoleInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}

// RoleCapabilities returns the capabilities granted to a role.
func (r *Repository) RoleCapabilities(ctx context.Context, id int64) ([]rbac.Capability, error) {
	return r.store.FindRoleCapabilities(ctx, id)
}

// ReplacePermissions swaps the capability set of a role atomically.
func (r *Repository) ReplacePermissions(ctx context.Context, id int64, caps []rbac.Capability) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked int64
		if err := tx.QueryRow(ctx, `SELECT id FROM roles WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
			if db.IsNoRows(err) {
				return ErrRoleNotFound
			}
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
			return err
		}
		for _, c := range caps {
			tag, err := tx.Exec(ctx, `INSERT INTO role_permissions (role_id, permission_id)
SELECT $1, p.id FROM permissions p WHERE p.resource = $2 AND p.action = $3
ON CONFLICT DO NOTHING`, id, c.Resource, c.Action)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				var known bool
				if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM permissions WHERE resource = $1 AND action = $2)`,
					c.Resource, c.Action).Scan(&known); err != nil {
					return err
				}
				if !known {
					return ErrUnknownPermission
				}
			}
		}
		_, err := tx.Exec(ctx, `UPDATE roles SET updated_at = NOW() WHERE id = $1`, id)
		return err
	})
}

var _ RepositoryPort = (*Repository)(nil)
