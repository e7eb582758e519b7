package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore opens one database/sql transaction per operation and binds
// the repositories to it.
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

func storesFor(q querier) Stores {
	return Stores{
		Customers: &CustomerRepository{DB: q},
		Types:     &CustomerTypeRepository{DB: q},
		Phones:    &PhoneRepository{DB: q},
	}
}

func (s *PostgresStore) run(ctx context.Context, opts *sql.TxOptions, fn func(Stores) error) (err error) {
	tx, err := s.DB.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(storesFor(tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		// deferred unique/fk checks surface here
		return translateWriteErr(err, nil)
	}
	return nil
}

func (s *PostgresStore) RunInTx(ctx context.Context, fn func(Stores) error) error {
	return s.run(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, fn)
}

func (s *PostgresStore) RunReadOnly(ctx context.Context, fn func(Stores) error) error {
	return s.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

var _ TxRunner = (*PostgresStore)(nil)
