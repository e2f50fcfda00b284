package users

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sistem-pejabat/pejabat/internal/platform/db"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, filters ListFilters) ([]User, int, error)
	GetUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, input CreateUserInput, digest string) (User, error)
	UpdateProfile(ctx context.Context, id int64, input UpdateProfileInput) (User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectUser = `SELECT u.id, u.username, u.name, u.email, u.role_id, COALESCE(r.name, ''), u.is_active,
	u.must_change_password, u.password_migrated, u.last_password_change, u.created_at, u.updated_at
FROM users u
LEFT JOIN roles r ON r.id = u.role_id`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.RoleID, &u.RoleName, &u.IsActive,
		&u.MustChangePassword, &u.PasswordMigrated, &u.LastPasswordChange, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, mapError(err)
	}
	return u, nil
}

func mapError(err error) error {
	switch {
	case db.IsNoRows(err):
		return ErrUserNotFound
	case db.IsUniqueViolation(err):
		if strings.Contains(db.ConstraintName(err), "email") {
			return ErrDuplicateEmail
		}
		return ErrDuplicateUsername
	case db.IsForeignKeyViolation(err):
		return ErrUnknownRole
	default:
		return err
	}
}

// ListUsers returns one page of users matching filters and the total count.
func (r *Repository) ListUsers(ctx context.Context, filters ListFilters) ([]User, int, error) {
	search := strings.TrimSpace(filters.Search)
	where := ` WHERE ($1 = '' OR u.username ILIKE '%' || $1 || '%' OR u.name ILIKE '%' || $1 || '%')`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users u`+where, search).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, selectUser+where+` ORDER BY u.username LIMIT $2 OFFSET $3`,
		search, filters.Page.PerPage, filters.Page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// GetUser fetches a user by id.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE u.id = $1`, id))
}

// CreateUser inserts an account flagged to change its password.
func (r *Repository) CreateUser(ctx context.Context, input CreateUserInput, digest string) (User, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO users (username, password, name, email, role_id, must_change_password, password_migrated)
VALUES ($1, $2, $3, $4, $5, TRUE, FALSE)
RETURNING id`, input.Username, digest, input.Name, input.Email, input.RoleID).Scan(&id)
	if err != nil {
		return User{}, mapError(err)
	}
	return r.GetUser(ctx, id)
}

// UpdateProfile applies the non-nil fields of input.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, input UpdateProfileInput) (User, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET
	name = COALESCE($2, name),
	email = COALESCE($3, email),
	role_id = COALESCE($4, role_id),
	is_active = COALESCE($5, is_active),
	updated_at = NOW()
WHERE id = $1`, id, input.Name, input.Email, input.RoleID, input.IsActive)
	if err != nil {
		return User{}, mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return User{}, ErrUserNotFound
	}
	return r.GetUser(ctx, id)
}

// DeleteUser removes an account.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

var _ RepositoryPort = (*Repository)(nil)
