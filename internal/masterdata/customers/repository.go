package customers

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

// Repository defines data access for customers.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Customer, int, error)
	Get(ctx context.Context, id int64) (Customer, error)
	Create(ctx context.Context, form CustomerForm) (Customer, error)
	Update(ctx context.Context, id int64, form CustomerForm) (Customer, error)
	SetActive(ctx context.Context, id int64, active bool) (Customer, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, name, contact_name, phone, email, address, active, created_at, updated_at`

func scan(row pgx.Row) (Customer, error) {
	var s Customer
	err := row.Scan(&s.ID, &s.Name, &s.ContactName, &s.Phone, &s.Email, &s.Address, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, httpx.ErrNotFound
		}
		return Customer{}, err
	}
	return s, nil
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Customer, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (name ILIKE $` + n + ` OR contact_name ILIKE $` + n + `)`
	}
	if filters.Active != nil {
		args = append(args, *filters.Active)
		where += ` AND active = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + columns + ` FROM customers` + where + ` ORDER BY name`
	args = append(args, filters.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Customer
	for rows.Next() {
		var s Customer
		if err := rows.Scan(&s.ID, &s.Name, &s.ContactName, &s.Phone, &s.Email, &s.Address, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Customer, error) {
	return scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM customers WHERE id = $1`, id))
}

func (r *repository) Create(ctx context.Context, form CustomerForm) (Customer, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO customers (name, contact_name, phone, email, address, active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING `+columns,
		form.Name, form.ContactName, form.Phone, form.Email, form.Address,
	)
	s, err := scan(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Customer{}, httpx.ErrDuplicate
		}
		return Customer{}, err
	}
	return s, nil
}

func (r *repository) Update(ctx context.Context, id int64, form CustomerForm) (Customer, error) {
	return scan(r.db.QueryRow(ctx, `
		UPDATE customers
		SET name = $2, contact_name = $3, phone = $4, email = $5, address = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns,
		id, form.Name, form.ContactName, form.Phone, form.Email, form.Address,
	))
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) (Customer, error) {
	return scan(r.db.QueryRow(ctx, `
		UPDATE customers
		SET active = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns,
		id, active,
	))
}
