// Package audit serves the Logs screen: a read-only view over the trail that
// every workflow transition writes through shared.AuditLogger.
package audit

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one row from audit_logs.
type Entry struct {
	ID         int64          `json:"id"`
	ActorID    int64          `json:"actor_id"`
	Action     string         `json:"action"`
	Entity     string         `json:"entity"`
	EntityID   string         `json:"entity_id"`
	Meta       map[string]any `json:"meta,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// ListRequest represents filters for listing audit entries.
type ListRequest struct {
	ActorID  *int64
	Entity   *string
	Action   *string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PerPage  int
}

// Repository reads audit_logs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns entries matching filters plus the total count, newest first.
func (r *Repository) List(ctx context.Context, req ListRequest) ([]Entry, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if req.ActorID != nil {
		args = append(args, *req.ActorID)
		where += ` AND actor_id = $` + strconv.Itoa(len(args))
	}
	if req.Entity != nil {
		args = append(args, *req.Entity)
		where += ` AND entity = $` + strconv.Itoa(len(args))
	}
	if req.Action != nil {
		args = append(args, *req.Action)
		where += ` AND action = $` + strconv.Itoa(len(args))
	}
	if req.DateFrom != nil {
		args = append(args, *req.DateFrom)
		where += ` AND occurred_at >= $` + strconv.Itoa(len(args))
	}
	if req.DateTo != nil {
		args = append(args, *req.DateTo)
		where += ` AND occurred_at <= $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, actor_id, action, entity, entity_id, meta, occurred_at
		FROM audit_logs` + where + ` ORDER BY occurred_at DESC, id DESC`
	if req.PerPage > 0 {
		args = append(args, req.PerPage)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		offset := (req.Page - 1) * req.PerPage
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Entity, &e.EntityID, &e.Meta, &e.OccurredAt); err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}
