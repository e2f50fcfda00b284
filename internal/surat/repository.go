package surat

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

// RepositoryPort defines data access for letters.
type RepositoryPort interface {
	List(ctx context.Context, filters ListFilters) ([]Surat, int, error)
	Get(ctx context.Context, id int64) (Surat, error)
	Create(ctx context.Context, rec Record) (Surat, error)
	Update(ctx context.Context, id int64, rec Record) (Surat, error)
	UpdateStatus(ctx context.Context, id int64, from []Status, to Status) (Surat, error)
	Delete(ctx context.Context, id int64) error
	CountByJenis(ctx context.Context, from, to time.Time) (Counts, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectSurat = `SELECT id, jenis, no_rujukan, tarikh, pihak, perkara, kategori, status,
	lampiran_url, catatan, created_by, created_at, updated_at
FROM surat`

func scanSurat(row pgx.Row) (Surat, error) {
	var s Surat
	err := row.Scan(&s.ID, &s.Jenis, &s.NoRujukan, &s.Tarikh, &s.Pihak, &s.Perkara, &s.Kategori, &s.Status,
		&s.LampiranURL, &s.Catatan, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Surat{}, mapError(err)
	}
	return s, nil
}

func mapError(err error) error {
	switch {
	case db.IsNoRows(err):
		return ErrSuratNotFound
	case db.IsUniqueViolation(err):
		return ErrDuplicateRujukan
	default:
		return err
	}
}

// List returns one page of letters and the total matching count.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Surat, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if filters.Jenis != "" {
		conditions = append(conditions, fmt.Sprintf("jenis = $%d", argPos))
		args = append(args, filters.Jenis)
		argPos++
	}
	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, filters.Status)
		argPos++
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("(no_rujukan ILIKE $%[1]d OR pihak ILIKE $%[1]d OR perkara ILIKE $%[1]d)", argPos))
		args = append(args, "%"+search+"%")
		argPos++
	}
	if filters.From != nil {
		conditions = append(conditions, fmt.Sprintf("tarikh >= $%d", argPos))
		args = append(args, *filters.From)
		argPos++
	}
	if filters.To != nil {
		conditions = append(conditions, fmt.Sprintf("tarikh <= $%d", argPos))
		args = append(args, *filters.To)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM surat"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("%s%s ORDER BY tarikh DESC, id DESC LIMIT $%d OFFSET $%d", selectSurat, whereClause, argPos, argPos+1)
	args = append(args, filters.Page.PerPage, filters.Page.Offset())
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Surat
	for rows.Next() {
		s, err := scanSurat(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Get fetches a letter by id.
func (r *Repository) Get(ctx context.Context, id int64) (Surat, error) {
	return scanSurat(r.pool.QueryRow(ctx, selectSurat+` WHERE id = $1`, id))
}

// Create inserts a letter with status BARU.
func (r *Repository) Create(ctx context.Context, rec Record) (Surat, error) {
	return scanSurat(r.pool.QueryRow(ctx, `INSERT INTO surat
	(jenis, no_rujukan, tarikh, pihak, perkara, kategori, status, lampiran_url, catatan, created_by)
VALUES ($1, $2, $3, $4, $5, $6, 'BARU', $7, $8, $9)
RETURNING id, jenis, no_rujukan, tarikh, pihak, perkara, kategori, status,
	lampiran_url, catatan, created_by, created_at, updated_at`,
		rec.Jenis, rec.NoRujukan, rec.Tarikh, rec.Pihak, rec.Perkara, rec.Kategori, rec.LampiranURL, rec.Catatan, rec.CreatedBy))
}

// Update replaces the editable fields of a letter.
func (r *Repository) Update(ctx context.Context, id int64, rec Record) (Surat, error) {
	return scanSurat(r.pool.QueryRow(ctx, `UPDATE surat SET
	jenis = $2, no_rujukan = $3, tarikh = $4, pihak = $5, perkara = $6,
	kategori = $7, lampiran_url = $8, catatan = $9, updated_at = NOW()
WHERE id = $1
RETURNING id, jenis, no_rujukan, tarikh, pihak, perkara, kategori, status,
	lampiran_url, catatan, created_by, created_at, updated_at`,
		id, rec.Jenis, rec.NoRujukan, rec.Tarikh, rec.Pihak, rec.Perkara, rec.Kategori, rec.LampiranURL, rec.Catatan))
}

// UpdateStatus moves a letter to status to, provided it still holds one of from.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from []Status, to Status) (Surat, error) {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}
	s, err := scanSurat(r.pool.QueryRow(ctx, `UPDATE surat SET status = $2, updated_at = NOW()
WHERE id = $1 AND status = ANY($3)
RETURNING id, jenis, no_rujukan, tarikh, pihak, perkara, kategori, status,
	lampiran_url, catatan, created_by, created_at, updated_at`, id, string(to), allowed))
	if errors.Is(err, ErrSuratNotFound) {
		return Surat{}, r.missOrConflict(ctx, id)
	}
	return s, err
}

// missOrConflict distinguishes an absent letter from one already past the target status.
func (r *Repository) missOrConflict(ctx context.Context, id int64) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM surat WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrSuratNotFound
	}
	return ErrInvalidTransition
}

// Delete removes a letter.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM surat WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSuratNotFound
	}
	return nil
}

// CountByJenis counts letters dated within [from, to).
func (r *Repository) CountByJenis(ctx context.Context, from, to time.Time) (Counts, error) {
	rows, err := r.pool.Query(ctx, `SELECT jenis, COUNT(*) FROM surat
WHERE tarikh >= $1 AND tarikh < $2
GROUP BY jenis`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := Counts{JenisMasuk: 0, JenisKeluar: 0}
	for rows.Next() {
		var jenis Jenis
		var n int
		if err := rows.Scan(&jenis, &n); err != nil {
			return nil, err
		}
		counts[jenis] = n
	}
	return counts, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
