package cache

import (
	"context"
	"encoding/json"
	"log/slog"

	"opsdesk/internal/domain/models"
	"opsdesk/internal/events"
)

// SubjectInvalidate is the broadcast subject for cache invalidations.
const SubjectInvalidate = "opsdesk.cache.invalidate"

type invalidation struct {
	Kind models.Kind `json:"kind"`
	Year *int        `json:"year,omitempty"`
}

// InvalidationCoordinator drops derived read aggregates after a successful
// write. Called after the transaction commits, never inside it: a failed
// invalidation only degrades freshness, so every error here is logged and
// swallowed.
type InvalidationCoordinator struct {
	local     *AggregateCache
	publisher events.Publisher // nil when running single-instance
	logger    *slog.Logger
}

// NewInvalidationCoordinator creates a coordinator over the local cache.
// publisher may be nil.
func NewInvalidationCoordinator(local *AggregateCache, publisher events.Publisher, logger *slog.Logger) *InvalidationCoordinator {
	return &InvalidationCoordinator{
		local:     local,
		publisher: publisher,
		logger:    logger,
	}
}

// Invalidate drops the kind-wide aggregate and, when year is given, the
// yearly one, then broadcasts the invalidation to peer instances without
// waiting for delivery. Safe to call redundantly.
func (c *InvalidationCoordinator) Invalidate(kind models.Kind, year *int) {
	keys := []string{Key(kind, nil)}
	if year != nil {
		keys = append(keys, Key(kind, year))
	}
	c.local.Delete(keys...)

	if c.publisher == nil {
		return
	}

	payload, err := json.Marshal(invalidation{Kind: kind, Year: year})
	if err != nil {
		c.logger.Warn("encode cache invalidation", "error", err)
		return
	}

	go func() {
		if err := c.publisher.Publish(context.Background(), SubjectInvalidate, payload); err != nil {
			c.logger.Warn("cache invalidation broadcast failed", "kind", kind, "error", err)
		}
	}()
}

// InvalidationHandler applies invalidations broadcast by peer instances to
// the local cache.
func InvalidationHandler(local *AggregateCache, logger *slog.Logger) events.HandlerFunc {
	return func(ctx context.Context, data []byte) error {
		var msg invalidation
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("malformed cache invalidation message", "error", err)
			return err
		}
		keys := []string{Key(msg.Kind, nil)}
		if msg.Year != nil {
			keys = append(keys, Key(msg.Kind, msg.Year))
		}
		local.Delete(keys...)
		return nil
	}
}
