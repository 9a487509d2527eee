package issues

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for issues.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const issueColumns = `id, delivery_id, direction, type, resolution, status, remarks,
	created_by, resolved_at, cancelled_at, created_at, updated_at`

func scanIssue(row pgx.Row) (Issue, error) {
	var i Issue
	err := row.Scan(
		&i.ID, &i.DeliveryID, &i.Direction, &i.Type, &i.Resolution, &i.Status, &i.Remarks,
		&i.CreatedBy, &i.ResolvedAt, &i.CancelledAt, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Issue{}, httpx.ErrNotFound
		}
		return Issue{}, err
	}
	return i, nil
}

// Create inserts an issue with its lines in one transaction.
func (r *Repository) Create(ctx context.Context, issue Issue) (int64, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO issues (delivery_id, direction, type, resolution, status, remarks, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		issue.DeliveryID, issue.Direction, issue.Type, issue.Resolution, issue.Status, issue.Remarks, issue.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	for _, l := range issue.Lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO issue_lines (issue_id, delivery_line_id, product_id, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, l.DeliveryLineID, l.ProductID, l.Quantity, l.UnitPrice, l.LineTotal)
		if err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// Get retrieves an issue with its lines.
func (r *Repository) Get(ctx context.Context, id int64) (Issue, error) {
	issue, err := scanIssue(r.pool.QueryRow(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = $1`, id))
	if err != nil {
		return Issue{}, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, issue_id, delivery_line_id, product_id, quantity, unit_price, line_total
		FROM issue_lines WHERE issue_id = $1 ORDER BY id`, id)
	if err != nil {
		return Issue{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l IssueLine
		if err := rows.Scan(&l.ID, &l.IssueID, &l.DeliveryLineID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			return Issue{}, err
		}
		issue.Lines = append(issue.Lines, l)
	}
	return issue, rows.Err()
}

// List returns issues matching filters plus the total count.
func (r *Repository) List(ctx context.Context, req ListIssuesRequest) ([]Issue, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if req.DeliveryID != nil {
		args = append(args, *req.DeliveryID)
		where += ` AND delivery_id = $` + strconv.Itoa(len(args))
	}
	if req.Status != nil {
		args = append(args, *req.Status)
		where += ` AND status = $` + strconv.Itoa(len(args))
	}
	if req.Type != nil {
		args = append(args, *req.Type)
		where += ` AND type = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM issues`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + issueColumns + ` FROM issues` + where + ` ORDER BY created_at DESC, id DESC`
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
	var out []Issue
	for rows.Next() {
		var i Issue
		if err := rows.Scan(
			&i.ID, &i.DeliveryID, &i.Direction, &i.Type, &i.Resolution, &i.Status, &i.Remarks,
			&i.CreatedBy, &i.ResolvedAt, &i.CancelledAt, &i.CreatedAt, &i.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, i)
	}
	return out, total, rows.Err()
}

// CountOpenByDelivery counts PENDING issues referencing a delivery.
func (r *Repository) CountOpenByDelivery(ctx context.Context, deliveryID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM issues WHERE delivery_id = $1 AND status = $2`,
		deliveryID, StatusPending).Scan(&n)
	return n, err
}

// UpdateLine overwrites the settled quantity and line total of one line.
func (r *Repository) UpdateLine(ctx context.Context, lineID int64, quantity int64, lineTotal decimal.Decimal) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE issue_lines SET quantity = $1, line_total = $2 WHERE id = $3`,
		quantity, lineTotal, lineID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// UpdateStatus moves an issue to a new status with optional column updates.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]any) error {
	query := `UPDATE issues SET status = $1, updated_at = NOW()`
	args := []any{status}
	for col, val := range updates {
		args = append(args, val)
		query += `, ` + col + ` = $` + strconv.Itoa(len(args))
	}
	args = append(args, id)
	query += ` WHERE id = $` + strconv.Itoa(len(args))
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
