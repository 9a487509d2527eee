package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetstock-erp/vetstock/internal/shared"
)

// Repository loads account records for authentication.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByEmail returns the account matching email, active or not.
func (r *Repository) FindByEmail(ctx context.Context, email string) (Account, error) {
	const query = `
		SELECT id, email, first_name, role, password_hash, active
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`
	var acc Account
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&acc.ID, &acc.Email, &acc.FirstName, &acc.Role, &acc.PasswordHash, &acc.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, err
	}
	return acc, nil
}
