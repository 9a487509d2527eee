package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional order operations. Tx leaks the raw
// transaction so collaborating services can join it.
type TxRepository interface {
	CreateOrder(ctx context.Context, order Order) (int64, error)
	InsertLine(ctx context.Context, line OrderLine) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status OrderStatus, updates map[string]any) error
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

const orderColumns = `id, number, kind, counterparty_id, status, order_date,
	total_quantity, total_discount, total_value, notes, cancel_reason,
	created_by, accepted_at, completed_at, cancelled_at, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.Number, &o.Kind, &o.CounterpartyID, &o.Status, &o.OrderDate,
		&o.TotalQuantity, &o.TotalDiscount, &o.TotalValue, &o.Notes, &o.CancelReason,
		&o.CreatedBy, &o.AcceptedAt, &o.CompletedAt, &o.CancelledAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, httpx.ErrNotFound
		}
		return Order{}, err
	}
	return o, nil
}

// Get retrieves an order with its lines.
func (r *Repository) Get(ctx context.Context, id int64) (Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return Order{}, err
	}
	lines, err := r.getLines(ctx, id)
	if err != nil {
		return Order{}, err
	}
	order.Lines = lines
	return order, nil
}

func (r *Repository) getLines(ctx context.Context, orderID int64) ([]OrderLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, product_name, unit, quantity, unit_price, discount_pct, line_total
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []OrderLine
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.Unit, &l.Quantity, &l.UnitPrice, &l.DiscountPct, &l.LineTotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// List returns orders matching filters plus the total count.
func (r *Repository) List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if req.Kind != nil {
		args = append(args, *req.Kind)
		where += ` AND kind = $` + strconv.Itoa(len(args))
	}
	if req.Status != nil {
		args = append(args, *req.Status)
		where += ` AND status = $` + strconv.Itoa(len(args))
	}
	if req.CounterpartyID != nil {
		args = append(args, *req.CounterpartyID)
		where += ` AND counterparty_id = $` + strconv.Itoa(len(args))
	}
	if req.DateFrom != nil {
		args = append(args, *req.DateFrom)
		where += ` AND order_date >= $` + strconv.Itoa(len(args))
	}
	if req.DateTo != nil {
		args = append(args, *req.DateTo)
		where += ` AND order_date <= $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where + ` ORDER BY created_at DESC, id DESC`
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
	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.Number, &o.Kind, &o.CounterpartyID, &o.Status, &o.OrderDate,
			&o.TotalQuantity, &o.TotalDiscount, &o.TotalValue, &o.Notes, &o.CancelReason,
			&o.CreatedBy, &o.AcceptedAt, &o.CompletedAt, &o.CancelledAt, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// GenerateNumber produces a unique order document number.
func (r *Repository) GenerateNumber(kind OrderKind) string {
	prefix := "ORD-C"
	if kind == KindSupplier {
		prefix = "ORD-S"
	}
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func (t *txRepo) CreateOrder(ctx context.Context, order Order) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO orders (number, kind, counterparty_id, status, order_date,
			total_quantity, total_discount, total_value, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		order.Number, order.Kind, order.CounterpartyID, order.Status, order.OrderDate,
		order.TotalQuantity, order.TotalDiscount, order.TotalValue, order.Notes, order.CreatedBy,
	).Scan(&id)
	return id, err
}

func (t *txRepo) InsertLine(ctx context.Context, line OrderLine) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO order_lines (order_id, product_id, product_name, unit, quantity, unit_price, discount_pct, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		line.OrderID, line.ProductID, line.ProductName, line.Unit, line.Quantity, line.UnitPrice, line.DiscountPct, line.LineTotal,
	).Scan(&id)
	return id, err
}

func (t *txRepo) UpdateStatus(ctx context.Context, id int64, status OrderStatus, updates map[string]any) error {
	query := `UPDATE orders SET status = $1, updated_at = NOW()`
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
