package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"opsdesk/internal/domain/repositories"
)

// TableNames holds environment-prefixed table names so dev/test/prod can
// share one database.
type TableNames struct {
	Documents   string
	Items       string
	ItemDetails string
	Remarks     string
	Sequences   string
}

// NewTableNames creates table names with the given prefix.
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Documents:   prefix + "documents",
		Items:       prefix + "items",
		ItemDetails: prefix + "item_details",
		Remarks:     prefix + "remarks",
		Sequences:   prefix + "sequence_counters",
	}
}

// RepositoryConfig is shared by all repository constructors.
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
}

// CreateConnectionPool creates a pgx pool and verifies connectivity.
// Transactions run at the Postgres default Read Committed level; the write
// path additionally row-locks documents with FOR UPDATE before checking the
// optimistic-lock token, which is what the stale-write guarantee rests on.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// getExecutor returns the context's transaction when one is open, otherwise
// the pool. Every repository method goes through this so child-row writes
// automatically join the surrounding reconciliation transaction.
func getExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
