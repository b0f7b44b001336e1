package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepository probes the accounts table owned by the external auth
// system. The lifecycle controller only ever needs existence checks.
type AccountRepository interface {
	Exists(ctx context.Context, accountID string) (bool, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository builds repository.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) Exists(ctx context.Context, accountID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE id=$1)`, accountID).Scan(&exists)
	return exists, err
}
