package products

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetstock-erp/vetstock/internal/masterdata/shared"
	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
)

// Repository defines data access for products.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, form ProductForm) (Product, error)
	Update(ctx context.Context, id int64, form ProductForm) (Product, error)
	SetActive(ctx context.Context, id int64, active bool) (Product, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, sku, name, category_id, unit, price, description, active, created_at, updated_at`

func scan(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.CategoryID, &p.Unit, &p.Price, &p.Description, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, httpx.ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (name ILIKE $` + n + ` OR sku ILIKE $` + n + `)`
	}
	if filters.CategoryID != nil {
		args = append(args, *filters.CategoryID)
		where += ` AND category_id = $` + strconv.Itoa(len(args))
	}
	if filters.Active != nil {
		args = append(args, *filters.Active)
		where += ` AND active = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + columns + ` FROM products` + where + ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir)
	args = append(args, filters.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.CategoryID, &p.Unit, &p.Price, &p.Description, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	return scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM products WHERE id = $1`, id))
}

func (r *repository) Create(ctx context.Context, form ProductForm) (Product, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO products (sku, name, category_id, unit, price, description, active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING `+columns,
		form.SKU, form.Name, form.CategoryID, form.Unit, form.Price, form.Description,
	)
	p, err := scan(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Product{}, httpx.ErrDuplicate
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) Update(ctx context.Context, id int64, form ProductForm) (Product, error) {
	return scan(r.db.QueryRow(ctx, `
		UPDATE products
		SET sku = $2, name = $3, category_id = $4, unit = $5, price = $6, description = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns,
		id, form.SKU, form.Name, form.CategoryID, form.Unit, form.Price, form.Description,
	))
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) (Product, error) {
	return scan(r.db.QueryRow(ctx, `
		UPDATE products
		SET active = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns,
		id, active,
	))
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "sku":
		return "sku " + dir
	case "price":
		return "price " + dir
	case "created_at":
		return "created_at " + dir
	default:
		return "name " + dir
	}
}
