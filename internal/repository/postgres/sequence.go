package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"opsdesk/internal/domain"
	"opsdesk/internal/domain/models"
	"opsdesk/internal/domain/repositories"
)

// SequenceRepository is the pgx implementation of repositories.SequenceRepository.
type SequenceRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewSequenceRepository creates a new sequence counter repository.
func NewSequenceRepository(config *RepositoryConfig) repositories.SequenceRepository {
	return &SequenceRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Next increments the (kind, year) counter and returns the new value in a
// single statement. The row-level lock taken by UPDATE serializes concurrent
// allocations; there is no read-then-write window.
func (r *SequenceRepository) Next(ctx context.Context, kind models.Kind, year int) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET last_value = last_value + 1, updated_at = NOW()
		WHERE kind = $1 AND year = $2
		RETURNING last_value
	`, r.tables.Sequences)

	var value int
	err := getExecutor(ctx, r.pool).QueryRow(ctx, query, kind, year).Scan(&value)
	if err != nil {
		if IsPgNoRowsError(err) {
			return 0, &domain.NotFoundError{Message: fmt.Sprintf("no sequence counter for %s/%d", kind, year)}
		}
		return 0, fmt.Errorf("increment sequence counter: %w", err)
	}

	return value, nil
}

// Create inserts a counter row seeded at lastValue. A concurrent creator
// winning the race is not an error; created reports who won.
func (r *SequenceRepository) Create(ctx context.Context, kind models.Kind, year int, lastValue int) (bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (kind, year, last_value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (kind, year) DO NOTHING
	`, r.tables.Sequences)

	result, err := getExecutor(ctx, r.pool).Exec(ctx, query, kind, year, lastValue)
	if err != nil {
		return false, fmt.Errorf("create sequence counter: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// Get reads a counter row.
func (r *SequenceRepository) Get(ctx context.Context, kind models.Kind, year int) (*models.SequenceCounter, error) {
	query := fmt.Sprintf(`
		SELECT kind, year, last_value, updated_at FROM %s WHERE kind = $1 AND year = $2
	`, r.tables.Sequences)

	var counter models.SequenceCounter
	var updatedAt time.Time
	err := getExecutor(ctx, r.pool).QueryRow(ctx, query, kind, year).Scan(
		&counter.Kind, &counter.Year, &counter.LastValue, &updatedAt)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("no sequence counter for %s/%d", kind, year)}
		}
		return nil, fmt.Errorf("get sequence counter: %w", err)
	}
	counter.UpdatedAt = updatedAt

	return &counter, nil
}
