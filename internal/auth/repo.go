package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sistem-pejabat/pejabat/internal/platform/db"
	"github.com/sistem-pejabat/pejabat/internal/rbac"
	"github.com/sistem-pejabat/pejabat/internal/shared"
)

// Repository defines persistence operations for the auth module. Lookups
// return shared.ErrNotFound for unknown accounts.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdateCredential(ctx context.Context, username, digest string) error
	UpdatePassword(ctx context.Context, username string, change PasswordChange) error
	CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// CapabilityStore resolves the capability set of a role.
type CapabilityStore interface {
	FindRoleCapabilities(ctx context.Context, roleID int64) ([]rbac.Capability, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectUser = `SELECT u.id, u.username, u.password, u.name, u.email, u.role_id, COALESCE(r.name, ''),
	u.password_migrated, u.must_change_password, u.last_password_change, u.is_active, u.created_at, u.updated_at
FROM users u
LEFT JOIN roles r ON r.id = u.role_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u      User
		stored string
	)
	if err := row.Scan(&u.ID, &u.Username, &stored, &u.Name, &u.Email, &u.RoleID, &u.RoleName,
		&u.PasswordMigrated, &u.MustChangePassword, &u.LastPasswordChange, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if db.IsNoRows(err) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	u.Password = ParseCredential(stored)
	return &u, nil
}

// FindByUsername fetches a user by username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE u.username = $1`, username))
}

// FindByEmail fetches a user by e-mail, ignoring case.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE lower(u.email) = lower($1)`, email))
}

// UpdateCredential replaces only the stored credential.
func (r *PGRepository) UpdateCredential(ctx context.Context, username, digest string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password = $2, updated_at = NOW() WHERE username = $1`, username, digest)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdatePassword writes the credential together with the password flags.
func (r *PGRepository) UpdatePassword(ctx context.Context, username string, change PasswordChange) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users
SET password = $2, must_change_password = $3, password_migrated = $4, last_password_change = $5, updated_at = NOW()
WHERE username = $1`, username, change.Digest, change.MustChangePassword, change.PasswordMigrated, change.ChangedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CreateSession persists a new login session in the database for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO sessions (id, user_id, created_at, expires_at, ip, ua) VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))`,
		id, userID, time.Now().UTC(), expiresAt.UTC(), ip, ua)
	return err
}

// DeleteSession removes a session record from the database.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

var _ Repository = (*PGRepository)(nil)
