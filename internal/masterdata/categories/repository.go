package categories

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

// Repository defines data access for categories.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Category, int, error)
	Get(ctx context.Context, id int64) (Category, error)
	Create(ctx context.Context, form CategoryForm) (Category, error)
	Update(ctx context.Context, id int64, form CategoryForm) (Category, error)
	SetActive(ctx context.Context, id int64, active bool) (Category, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, name, description, active, created_at, updated_at`

func scan(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, httpx.ErrNotFound
		}
		return Category{}, err
	}
	return c, nil
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Category, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where += ` AND name ILIKE $` + strconv.Itoa(len(args))
	}
	if filters.Active != nil {
		args = append(args, *filters.Active)
		where += ` AND active = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM categories`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + columns + ` FROM categories` + where + ` ORDER BY name`
	args = append(args, filters.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Category, error) {
	return scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM categories WHERE id = $1`, id))
}

func (r *repository) Create(ctx context.Context, form CategoryForm) (Category, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO categories (name, description, active)
		VALUES ($1, $2, TRUE)
		RETURNING `+columns,
		form.Name, form.Description,
	)
	c, err := scan(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Category{}, httpx.ErrDuplicate
		}
		return Category{}, err
	}
	return c, nil
}

func (r *repository) Update(ctx context.Context, id int64, form CategoryForm) (Category, error) {
	return scan(r.db.QueryRow(ctx, `
		UPDATE categories
		SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns,
		id, form.Name, form.Description,
	))
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) (Category, error) {
	return scan(r.db.QueryRow(ctx, `
		UPDATE categories
		SET active = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns,
		id, active,
	))
}
