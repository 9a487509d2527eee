package inventory

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for lots.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateLots inserts every lot in one transaction.
func (r *Repository) CreateLots(ctx context.Context, input AcceptDeliveryInput) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, lot := range input.Lots {
		_, err := tx.Exec(ctx, `
			INSERT INTO inventory_lots (product_id, delivery_id, batch_code, quantity, unit_cost, expiry_date)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			lot.ProductID, input.DeliveryID, input.BatchCode, lot.Quantity, lot.UnitCost, lot.ExpiryDate)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// List returns lots matching filters plus the total count.
func (r *Repository) List(ctx context.Context, req ListLotsRequest) ([]Lot, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if req.ProductID != nil {
		args = append(args, *req.ProductID)
		where += ` AND product_id = $` + strconv.Itoa(len(args))
	}
	if req.DeliveryID != nil {
		args = append(args, *req.DeliveryID)
		where += ` AND delivery_id = $` + strconv.Itoa(len(args))
	}
	if req.ExpiringBefore != nil {
		args = append(args, *req.ExpiringBefore)
		where += ` AND expiry_date <= $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM inventory_lots`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, product_id, delivery_id, batch_code, quantity, unit_cost, expiry_date, created_at
		FROM inventory_lots` + where + ` ORDER BY expiry_date, id`
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
	var out []Lot
	for rows.Next() {
		var l Lot
		if err := rows.Scan(&l.ID, &l.ProductID, &l.DeliveryID, &l.BatchCode, &l.Quantity, &l.UnitCost, &l.ExpiryDate, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

// ExpiringBefore returns lots whose expiry falls before the cutoff.
func (r *Repository) ExpiringBefore(ctx context.Context, cutoff time.Time) ([]Lot, error) {
	lots, _, err := r.List(ctx, ListLotsRequest{ExpiringBefore: &cutoff})
	return lots, err
}
