package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"opsdesk/internal/config"
	"opsdesk/internal/domain"
	"opsdesk/internal/domain/models"
	"opsdesk/internal/domain/repositories"
)

// maxAllocateRetries bounds how often a create is retried when display-ID
// allocation collides before giving up with SequenceGenerationError.
const maxAllocateRetries = 3

// SequenceIssuer issues unique, monotonically increasing display IDs per
// (kind, year). The counter strategy is race-free: the increment is one
// atomic statement, never read-then-write.
type SequenceIssuer struct {
	sequences repositories.SequenceRepository
	documents repositories.DocumentRepository
	kinds     *config.KindRegistry
	logger    *slog.Logger
}

// NewSequenceIssuer creates a new display-ID issuer.
func NewSequenceIssuer(
	sequences repositories.SequenceRepository,
	documents repositories.DocumentRepository,
	kinds *config.KindRegistry,
	logger *slog.Logger,
) *SequenceIssuer {
	return &SequenceIssuer{
		sequences: sequences,
		documents: documents,
		kinds:     kinds,
		logger:    logger,
	}
}

// Allocate returns the next display ID for (kind, year) via the atomic
// counter. The counter row is created lazily on first use for a new year,
// seeded from the highest display ID already recorded so sequences continue
// past rows that predate the counter table. A fresh year simply starts at
// 0001.
func (s *SequenceIssuer) Allocate(ctx context.Context, kind models.Kind, year int) (string, error) {
	prefix, err := s.kinds.Prefix(kind)
	if err != nil {
		return "", err
	}

	value, err := s.sequences.Next(ctx, kind, year)
	if errors.Is(err, domain.ErrNotFound) {
		seed, seedErr := s.documents.MaxSequence(ctx, kind, year)
		if seedErr != nil {
			return "", fmt.Errorf("seed sequence counter: %w", seedErr)
		}

		created, createErr := s.sequences.Create(ctx, kind, year, seed)
		if createErr != nil {
			return "", createErr
		}
		if created {
			s.logger.Info("sequence counter created", "kind", kind, "year", year, "seed", seed)
		}

		// Whoever lost the creation race still increments the same row.
		value, err = s.sequences.Next(ctx, kind, year)
	}
	if err != nil {
		return "", err
	}

	return models.FormatDisplayID(prefix, year, value), nil
}

// AllocateScan is the fallback strategy when the counter mechanism is
// unavailable: max existing sequence + 1. Not race-free on its own; the
// caller must insert within the same transaction and rely on the display_id
// uniqueness constraint, retrying on conflict up to maxAllocateRetries.
func (s *SequenceIssuer) AllocateScan(ctx context.Context, kind models.Kind, year int) (string, error) {
	prefix, err := s.kinds.Prefix(kind)
	if err != nil {
		return "", err
	}

	max, err := s.documents.MaxSequence(ctx, kind, year)
	if err != nil {
		return "", fmt.Errorf("scan max sequence: %w", err)
	}

	return models.FormatDisplayID(prefix, year, max+1), nil
}
