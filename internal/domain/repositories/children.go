package repositories

import (
	"context"

	"github.com/google/uuid"
	"opsdesk/internal/domain/models"
)

// ItemRepository persists line items and their nested detail rows.
// Deleting an item cascades to its details at the storage level.
type ItemRepository interface {
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]models.Item, error)
	Insert(ctx context.Context, item *models.Item) error
	Update(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, ids []uuid.UUID) error

	InsertDetail(ctx context.Context, detail *models.Detail) error
	UpdateDetail(ctx context.Context, detail *models.Detail) error
	DeleteDetails(ctx context.Context, ids []uuid.UUID) error
}

// RemarkRepository persists ordered document remarks.
type RemarkRepository interface {
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]models.Remark, error)
	Insert(ctx context.Context, remark *models.Remark) error
	Update(ctx context.Context, remark *models.Remark) error
	Delete(ctx context.Context, ids []uuid.UUID) error
}
