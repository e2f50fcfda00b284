package sharelink

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sistem-pejabat/pejabat/internal/platform/db"
)

// RepositoryPort defines share link persistence.
type RepositoryPort interface {
	Insert(ctx context.Context, link Link) (Link, error)
	Get(ctx context.Context, token uuid.UUID) (Link, error)
	Revoke(ctx context.Context, token uuid.UUID, at time.Time) error
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const linkColumns = `token, resource, resource_id, expires_at, created_by, revoked_at, created_at`

func scanLink(row pgx.Row) (Link, error) {
	var l Link
	if err := row.Scan(&l.Token, &l.Resource, &l.ResourceID, &l.ExpiresAt, &l.CreatedBy, &l.RevokedAt, &l.CreatedAt); err != nil {
		if db.IsNoRows(err) {
			return Link{}, ErrNotFound
		}
		return Link{}, err
	}
	return l, nil
}

// Insert stores a new link.
func (r *Repository) Insert(ctx context.Context, link Link) (Link, error) {
	return scanLink(r.pool.QueryRow(ctx, `INSERT INTO share_links (token, resource, resource_id, expires_at, created_by)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+linkColumns, link.Token, link.Resource, link.ResourceID, link.ExpiresAt, link.CreatedBy))
}

// Get fetches a link by token.
func (r *Repository) Get(ctx context.Context, token uuid.UUID) (Link, error) {
	return scanLink(r.pool.QueryRow(ctx, `SELECT `+linkColumns+` FROM share_links WHERE token = $1`, token))
}

// Revoke marks a link unusable. Revoking twice keeps the first timestamp.
func (r *Repository) Revoke(ctx context.Context, token uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE share_links SET revoked_at = COALESCE(revoked_at, $2) WHERE token = $1`, token, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeExpired deletes links that expired or were revoked before the cutoff.
func (r *Repository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM share_links WHERE expires_at < $1 OR revoked_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ RepositoryPort = (*Repository)(nil)
