package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"opsdesk/internal/domain/models"
)

// ListOptions controls document listings.
type ListOptions struct {
	Limit          int
	Offset         int
	IncludeDeleted bool
}

// DocumentRepository persists top-level document rows. Child rows (items,
// details, remarks) live behind their own repositories.
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, kind models.Kind, id uuid.UUID) (*models.Document, error)

	// GetForUpdate reads the row with FOR UPDATE. Called inside the write
	// transaction so the optimistic-lock check sees a row-locked modified_at.
	GetForUpdate(ctx context.Context, kind models.Kind, id uuid.UUID) (*models.Document, error)

	Update(ctx context.Context, doc *models.Document) error
	SetLifecycle(ctx context.Context, kind models.Kind, id uuid.UUID, lc models.Lifecycle, modifiedAt time.Time) error

	List(ctx context.Context, kind models.Kind, opts ListOptions) ([]models.Document, error)

	// ActiveNameExists reports whether another active document of the kind
	// already uses the display name. excludeID may be uuid.Nil.
	ActiveNameExists(ctx context.Context, kind models.Kind, name string, excludeID uuid.UUID) (bool, error)

	// MaxSequence returns the highest display-ID sequence number recorded for
	// (kind, year), or 0 when none exist. Used to seed new counters and by
	// the scan-and-increment fallback.
	MaxSequence(ctx context.Context, kind models.Kind, year int) (int, error)

	SummarizeYear(ctx context.Context, kind models.Kind, year int) (*models.YearlySummary, error)
}
