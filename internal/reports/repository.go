package reports

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs the aggregate queries behind sales reports.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SalesSummary aggregates invoices issued inside [from, to].
func (r *Repository) SalesSummary(ctx context.Context, req SalesRequest) (SalesReport, error) {
	report := SalesReport{From: req.From, To: req.To}

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(total_quantity), 0),
			COALESCE(SUM(total_discount), 0),
			COALESCE(SUM(total_value), 0)
		FROM invoices
		WHERE issued_at >= $1 AND issued_at <= $2`,
		req.From, req.To,
	).Scan(&report.InvoiceCount, &report.TotalQuantity, &report.TotalDiscount, &report.TotalValue)
	if err != nil {
		return SalesReport{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT dl.product_id, dl.product_name,
			SUM(COALESCE(dl.accepted_qty, dl.quantity)),
			SUM(dl.unit_price * COALESCE(dl.accepted_qty, dl.quantity) * (1 - dl.discount_pct / 100))
		FROM invoices i
		JOIN delivery_lines dl ON dl.delivery_id = i.delivery_id
		WHERE i.issued_at >= $1 AND i.issued_at <= $2
		GROUP BY dl.product_id, dl.product_name
		ORDER BY 4 DESC
		LIMIT 10`,
		req.From, req.To)
	if err != nil {
		return SalesReport{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var p ProductSales
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.Quantity, &p.Value); err != nil {
			return SalesReport{}, err
		}
		report.TopProducts = append(report.TopProducts, p)
	}
	if err := rows.Err(); err != nil {
		return SalesReport{}, err
	}

	daily, err := r.pool.Query(ctx, `
		SELECT date_trunc('day', issued_at) AS day, COUNT(*), COALESCE(SUM(total_value), 0)
		FROM invoices
		WHERE issued_at >= $1 AND issued_at <= $2
		GROUP BY day
		ORDER BY day`,
		req.From, req.To)
	if err != nil {
		return SalesReport{}, err
	}
	defer daily.Close()
	for daily.Next() {
		var d DailySales
		if err := daily.Scan(&d.Day, &d.Count, &d.Value); err != nil {
			return SalesReport{}, err
		}
		report.Daily = append(report.Daily, d)
	}
	return report, daily.Err()
}
