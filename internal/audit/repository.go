package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort reads audit_logs.
type RepositoryPort interface {
	Window(ctx context.Context, filters TimelineFilters, offset, limit int) ([]TimelineRow, error)
	All(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error)
}

// Repository is the PostgreSQL reader.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectTimeline = `SELECT a.occurred_at, a.actor_id, COALESCE(u.username, ''), a.action, a.entity, a.entity_id, a.meta
FROM audit_logs a
LEFT JOIN users u ON u.id = a.actor_id`

func whereTimeline(filters TimelineFilters) (string, []any) {
	var conditions []string
	var args []any
	argPos := 1

	if !filters.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("a.occurred_at >= $%d", argPos))
		args = append(args, filters.From)
		argPos++
	}
	if !filters.To.IsZero() {
		// To is a calendar day; include all of it.
		conditions = append(conditions, fmt.Sprintf("a.occurred_at < $%d::timestamptz + INTERVAL '1 day'", argPos))
		args = append(args, filters.To)
		argPos++
	}
	if actor := strings.TrimSpace(filters.Actor); actor != "" {
		conditions = append(conditions, fmt.Sprintf("u.username ILIKE $%d", argPos))
		args = append(args, actor)
		argPos++
	}
	if entity := strings.TrimSpace(filters.Entity); entity != "" {
		conditions = append(conditions, fmt.Sprintf("a.entity = $%d", argPos))
		args = append(args, entity)
		argPos++
	}
	if action := strings.TrimSpace(filters.Action); action != "" {
		conditions = append(conditions, fmt.Sprintf("a.action = $%d", argPos))
		args = append(args, action)
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// Window returns up to limit rows after offset, newest first.
func (r *Repository) Window(ctx context.Context, filters TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	where, args := whereTimeline(filters)
	query := fmt.Sprintf("%s%s ORDER BY a.occurred_at DESC, a.id DESC LIMIT $%d OFFSET $%d",
		selectTimeline, where, len(args)+1, len(args)+2)
	return r.query(ctx, query, append(args, limit, offset)...)
}

// All returns every matching row, newest first.
func (r *Repository) All(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error) {
	where, args := whereTimeline(filters)
	return r.query(ctx, selectTimeline+where+" ORDER BY a.occurred_at DESC, a.id DESC", args...)
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TimelineRow
	for rows.Next() {
		var row TimelineRow
		var meta []byte
		if err := rows.Scan(&row.At, &row.ActorID, &row.Actor, &row.Action, &row.Entity, &row.EntityID, &meta); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &row.Meta); err != nil {
				return nil, fmt.Errorf("decode audit meta: %w", err)
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
