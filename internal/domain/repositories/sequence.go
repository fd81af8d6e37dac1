package repositories

import (
	"context"

	"opsdesk/internal/domain/models"
)

// SequenceRepository backs display-ID allocation with per-(kind, year)
// counters. Next must be a single atomic storage operation; it is the only
// thing standing between concurrent creates and duplicate display IDs.
type SequenceRepository interface {
	// Next increments the counter and returns the new value. Returns a
	// domain.ErrNotFound-matching error when no counter row exists yet.
	Next(ctx context.Context, kind models.Kind, year int) (int, error)

	// Create inserts a counter row seeded at lastValue, doing nothing if a
	// concurrent caller created it first. Reports whether this call created it.
	Create(ctx context.Context, kind models.Kind, year int, lastValue int) (bool, error)

	// Get reads the counter row, for the admin backfill tooling.
	Get(ctx context.Context, kind models.Kind, year int) (*models.SequenceCounter, error)
}
