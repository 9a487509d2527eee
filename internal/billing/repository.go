package billing

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for invoices.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const invoiceColumns = `id, number, delivery_id, order_id, customer_id,
	total_quantity, total_discount, total_value, issued_at, created_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID, &inv.Number, &inv.DeliveryID, &inv.OrderID, &inv.CustomerID,
		&inv.TotalQuantity, &inv.TotalDiscount, &inv.TotalValue, &inv.IssuedAt, &inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, httpx.ErrNotFound
		}
		return Invoice{}, err
	}
	return inv, nil
}

// CreateInTx inserts an invoice inside a caller-owned transaction. A second
// invoice for the same delivery maps to httpx.ErrDuplicate via the unique
// constraint on delivery_id.
func (r *Repository) CreateInTx(ctx context.Context, tx pgx.Tx, inv Invoice) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO invoices (number, delivery_id, order_id, customer_id,
			total_quantity, total_discount, total_value, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		inv.Number, inv.DeliveryID, inv.OrderID, inv.CustomerID,
		inv.TotalQuantity, inv.TotalDiscount, inv.TotalValue, inv.IssuedAt,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, httpx.ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

// Get retrieves one invoice.
func (r *Repository) Get(ctx context.Context, id int64) (Invoice, error) {
	return scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
}

// GetByDelivery retrieves the invoice of a delivery.
func (r *Repository) GetByDelivery(ctx context.Context, deliveryID int64) (Invoice, error) {
	return scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE delivery_id = $1`, deliveryID))
}

// List returns invoices matching filters plus the total count.
func (r *Repository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if req.CustomerID != nil {
		args = append(args, *req.CustomerID)
		where += ` AND customer_id = $` + strconv.Itoa(len(args))
	}
	if req.DateFrom != nil {
		args = append(args, *req.DateFrom)
		where += ` AND issued_at >= $` + strconv.Itoa(len(args))
	}
	if req.DateTo != nil {
		args = append(args, *req.DateTo)
		where += ` AND issued_at <= $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices` + where + ` ORDER BY issued_at DESC, id DESC`
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
	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(
			&inv.ID, &inv.Number, &inv.DeliveryID, &inv.OrderID, &inv.CustomerID,
			&inv.TotalQuantity, &inv.TotalDiscount, &inv.TotalValue, &inv.IssuedAt, &inv.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}
