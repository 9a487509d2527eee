package delivery

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for deliveries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional delivery operations.
type TxRepository interface {
	UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]any) error
	UpdateLineReview(ctx context.Context, lineID int64, acceptedQty int64, expiry *time.Time) error
	Tx() pgx.Tx
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) Tx() pgx.Tx { return t.tx }

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepo{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const deliveryColumns = `id, number, direction, order_id, counterparty_id, status,
	dispatched_at, delivered_at, inventory_posted_at, notes, created_by, created_at, updated_at`

func scanDelivery(row pgx.Row) (Delivery, error) {
	var d Delivery
	err := row.Scan(
		&d.ID, &d.Number, &d.Direction, &d.OrderID, &d.CounterpartyID, &d.Status,
		&d.DispatchedAt, &d.DeliveredAt, &d.InventoryPostedAt, &d.Notes, &d.CreatedBy,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Delivery{}, httpx.ErrNotFound
		}
		return Delivery{}, err
	}
	return d, nil
}

// Get retrieves a delivery with its lines.
func (r *Repository) Get(ctx context.Context, id int64) (Delivery, error) {
	d, err := scanDelivery(r.pool.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1`, id))
	if err != nil {
		return Delivery{}, err
	}
	lines, err := r.GetLines(ctx, id)
	if err != nil {
		return Delivery{}, err
	}
	d.Lines = lines
	return d, nil
}

// GetLines retrieves the lines of a delivery ordered by id.
func (r *Repository) GetLines(ctx context.Context, deliveryID int64) ([]DeliveryLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, delivery_id, order_line_id, product_id, product_name, unit,
		       quantity, accepted_qty, unit_price, discount_pct, expiry_date, created_at, updated_at
		FROM delivery_lines
		WHERE delivery_id = $1
		ORDER BY id`, deliveryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []DeliveryLine
	for rows.Next() {
		var l DeliveryLine
		if err := rows.Scan(
			&l.ID, &l.DeliveryID, &l.OrderLineID, &l.ProductID, &l.ProductName, &l.Unit,
			&l.Quantity, &l.AcceptedQty, &l.UnitPrice, &l.DiscountPct, &l.ExpiryDate, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// List returns deliveries matching filters plus the total count.
func (r *Repository) List(ctx context.Context, req ListDeliveriesRequest) ([]Delivery, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if req.Direction != nil {
		args = append(args, *req.Direction)
		where += ` AND direction = $` + strconv.Itoa(len(args))
	}
	if req.Status != nil {
		args = append(args, *req.Status)
		where += ` AND status = $` + strconv.Itoa(len(args))
	}
	if req.OrderID != nil {
		args = append(args, *req.OrderID)
		where += ` AND order_id = $` + strconv.Itoa(len(args))
	}
	if req.DateFrom != nil {
		args = append(args, *req.DateFrom)
		where += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if req.DateTo != nil {
		args = append(args, *req.DateTo)
		where += ` AND created_at <= $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM deliveries`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + deliveryColumns + ` FROM deliveries` + where + ` ORDER BY created_at DESC, id DESC`
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
	var out []Delivery
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(
			&d.ID, &d.Number, &d.Direction, &d.OrderID, &d.CounterpartyID, &d.Status,
			&d.DispatchedAt, &d.DeliveredAt, &d.InventoryPostedAt, &d.Notes, &d.CreatedBy,
			&d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// ListPendingInventoryPosts returns inbound terminal deliveries whose lots
// have not been posted yet. The repost job drains this.
func (r *Repository) ListPendingInventoryPosts(ctx context.Context, limit int) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM deliveries
		WHERE direction = $1
		  AND status IN ($2, $3)
		  AND inventory_posted_at IS NULL
		ORDER BY delivered_at
		LIMIT $4`,
		DirectionInbound, StatusDelivered, StatusDeliveredWithIssues, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetInventoryPostedAt stamps a successful lot posting.
func (r *Repository) SetInventoryPostedAt(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE deliveries SET inventory_posted_at = $2, updated_at = NOW() WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// CreateInTx inserts a delivery header and lines inside a caller-owned
// transaction (order acceptance).
func (r *Repository) CreateInTx(ctx context.Context, tx pgx.Tx, d Delivery) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO deliveries (number, direction, order_id, counterparty_id, status, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		d.Number, d.Direction, d.OrderID, d.CounterpartyID, d.Status, d.Notes, d.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	for _, l := range d.Lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO delivery_lines (delivery_id, order_line_id, product_id, product_name, unit, quantity, unit_price, discount_pct)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			id, l.OrderLineID, l.ProductID, l.ProductName, l.Unit, l.Quantity, l.UnitPrice, l.DiscountPct)
		if err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (t *txRepo) UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]any) error {
	query := `UPDATE deliveries SET status = $1, updated_at = NOW()`
	args := []any{status}
	for col, val := range updates {
		args = append(args, val)
		query += `, ` + col + ` = $` + strconv.Itoa(len(args))
	}
	args = append(args, id)
	query += ` WHERE id = $` + strconv.Itoa(len(args))
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (t *txRepo) UpdateLineReview(ctx context.Context, lineID int64, acceptedQty int64, expiry *time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE delivery_lines
		SET accepted_qty = $2, expiry_date = COALESCE($3, expiry_date), updated_at = NOW()
		WHERE id = $1`,
		lineID, acceptedQty, expiry)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
