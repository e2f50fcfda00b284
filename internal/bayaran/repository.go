package bayaran

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sistem-pejabat/pejabat/internal/platform/db"
)

// RepositoryPort defines data access for payments.
type RepositoryPort interface {
	List(ctx context.Context, filters ListFilters) ([]Bayaran, int, error)
	Get(ctx context.Context, id int64) (Bayaran, error)
	Create(ctx context.Context, rec Record) (Bayaran, error)
	Update(ctx context.Context, id int64, rec Record) (Bayaran, error)
	// Transition moves a payment to status `to` only when it currently holds
	// one of `from`. It returns ErrInvalidTransition otherwise.
	Transition(ctx context.Context, id int64, from []Status, to Status, paidAt *time.Time, noBaucar string) (Bayaran, error)
	Delete(ctx context.Context, id int64) error
	Summary(ctx context.Context) (Summary, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const bayaranColumns = `id, kontraktor, no_invois, no_baucar, projek, amaun_sen, tarikh_invois, tarikh_bayar,
	status, catatan, created_by, created_at, updated_at`

func scanBayaran(row pgx.Row) (Bayaran, error) {
	var b Bayaran
	err := row.Scan(&b.ID, &b.Kontraktor, &b.NoInvois, &b.NoBaucar, &b.Projek, &b.AmaunSen, &b.TarikhInvois, &b.TarikhBayar,
		&b.Status, &b.Catatan, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return Bayaran{}, mapError(err)
	}
	b.Amaun = FormatRinggit(b.AmaunSen)
	return b, nil
}

func mapError(err error) error {
	switch {
	case db.IsNoRows(err):
		return ErrBayaranNotFound
	case db.IsUniqueViolation(err):
		return ErrDuplicateInvois
	default:
		return err
	}
}

// List returns one page of payments and the total matching count.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Bayaran, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(filters.Status))
		argPos++
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("(kontraktor ILIKE $%[1]d OR no_invois ILIKE $%[1]d OR projek ILIKE $%[1]d)", argPos))
		args = append(args, "%"+search+"%")
		argPos++
	}
	if filters.From != nil {
		conditions = append(conditions, fmt.Sprintf("tarikh_invois >= $%d", argPos))
		args = append(args, *filters.From)
		argPos++
	}
	if filters.To != nil {
		conditions = append(conditions, fmt.Sprintf("tarikh_invois <= $%d", argPos))
		args = append(args, *filters.To)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM bayaran"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM bayaran%s ORDER BY tarikh_invois DESC, id DESC LIMIT $%d OFFSET $%d",
		bayaranColumns, whereClause, argPos, argPos+1)
	args = append(args, filters.Page.PerPage, filters.Page.Offset())
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Bayaran
	for rows.Next() {
		b, err := scanBayaran(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Get fetches a payment by id.
func (r *Repository) Get(ctx context.Context, id int64) (Bayaran, error) {
	return scanBayaran(r.pool.QueryRow(ctx, `SELECT `+bayaranColumns+` FROM bayaran WHERE id = $1`, id))
}

// Create inserts a payment with status TERTUNDA.
func (r *Repository) Create(ctx context.Context, rec Record) (Bayaran, error) {
	return scanBayaran(r.pool.QueryRow(ctx, `INSERT INTO bayaran
	(kontraktor, no_invois, no_baucar, projek, amaun_sen, tarikh_invois, status, catatan, created_by)
VALUES ($1, $2, $3, $4, $5, $6, 'TERTUNDA', $7, $8)
RETURNING `+bayaranColumns,
		rec.Kontraktor, rec.NoInvois, rec.NoBaucar, rec.Projek, rec.AmaunSen, rec.TarikhInvois, rec.Catatan, rec.CreatedBy))
}

// Update replaces the editable fields of a pending payment.
func (r *Repository) Update(ctx context.Context, id int64, rec Record) (Bayaran, error) {
	b, err := scanBayaran(r.pool.QueryRow(ctx, `UPDATE bayaran SET
	kontraktor = $2, no_invois = $3, no_baucar = $4, projek = $5, amaun_sen = $6,
	tarikh_invois = $7, catatan = $8, updated_at = NOW()
WHERE id = $1 AND status = 'TERTUNDA'
RETURNING `+bayaranColumns,
		id, rec.Kontraktor, rec.NoInvois, rec.NoBaucar, rec.Projek, rec.AmaunSen, rec.TarikhInvois, rec.Catatan))
	if errors.Is(err, ErrBayaranNotFound) {
		return Bayaran{}, r.missOrConflict(ctx, id)
	}
	return b, err
}

// Transition implements RepositoryPort.
func (r *Repository) Transition(ctx context.Context, id int64, from []Status, to Status, paidAt *time.Time, noBaucar string) (Bayaran, error) {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}
	b, err := scanBayaran(r.pool.QueryRow(ctx, `UPDATE bayaran SET
	status = $2,
	tarikh_bayar = COALESCE($3, tarikh_bayar),
	no_baucar = CASE WHEN $4 = '' THEN no_baucar ELSE $4 END,
	updated_at = NOW()
WHERE id = $1 AND status = ANY($5)
RETURNING `+bayaranColumns, id, string(to), paidAt, noBaucar, allowed))
	if errors.Is(err, ErrBayaranNotFound) {
		return Bayaran{}, r.missOrConflict(ctx, id)
	}
	return b, err
}

// missOrConflict distinguishes an absent row from one in the wrong status.
func (r *Repository) missOrConflict(ctx context.Context, id int64) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM bayaran WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrBayaranNotFound
	}
	return ErrInvalidTransition
}

// Delete removes a payment that has not been paid.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bayaran WHERE id = $1 AND status <> 'DIBAYAR'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// Summary totals payments per status.
func (r *Repository) Summary(ctx context.Context) (Summary, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*), COALESCE(SUM(amaun_sen), 0)::BIGINT FROM bayaran GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	summary := Summary{}
	for rows.Next() {
		var status Status
		var total Total
		if err := rows.Scan(&status, &total.Count, &total.AmaunSen); err != nil {
			return nil, err
		}
		summary[status] = total
	}
	return summary, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
