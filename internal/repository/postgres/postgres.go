package postgres

import (
	"context"
	"database/sql"

	"retail-rma-backend/internal/repository"

	_ "github.com/lib/pq"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx, so every
// repository can run either on the pool or inside one transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db    *sql.DB
	repos repository.Repositories
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:    db,
		repos: newRepositories(db),
	}
}

func newRepositories(dbtx DBTX) repository.Repositories {
	return repository.Repositories{
		RMAs:          NewRMARepository(dbtx),
		Activities:    NewActivityLogRepository(dbtx),
		Refunds:       NewRefundRepository(dbtx),
		Sales:         NewSaleRepository(dbtx),
		Products:      NewProductRepository(dbtx),
		Notifications: NewNotificationRepository(dbtx),
		Users:         NewUserRepository(dbtx),
		Metrics:       NewMetricsRepository(dbtx),
	}
}

func (s *Store) Repos() *repository.Repositories { return &s.repos }

// WithTx runs fn against repositories bound to a single transaction. The
// transaction commits only if fn returns nil; any error rolls it back.
func (s *Store) WithTx(ctx context.Context, fn func(*repository.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	repos := newRepositories(tx)
	if err := fn(&repos); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
