package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is a top-level business record: quotation, invoice, expense,
// production plan, or one of the two ticket variants.
type Document struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Kind        Kind      `json:"kind" db:"kind"`
	DisplayID   string    `json:"display_id" db:"display_id"`     // immutable after creation
	DisplayName string    `json:"display_name" db:"display_name"` // unique among active documents of the kind
	Status      string    `json:"status" db:"status"`
	Lifecycle   Lifecycle `json:"deleted_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	ModifiedAt  time.Time `json:"modified_at" db:"modified_at"` // optimistic-lock version token
	Items       []Item    `json:"items"`
	Remarks     []Remark  `json:"remarks"`
}

// Item is a line item owned by exactly one document.
type Item struct {
	ID         uuid.UUID `json:"id" db:"id"`
	DocumentID uuid.UUID `json:"document_id" db:"document_id"`
	Name       string    `json:"name" db:"name"`
	OrderIndex int       `json:"order_index" db:"order_index"`
	Total      float64   `json:"total" db:"total"`
	Details    []Detail  `json:"details"`
}

// Detail is a breakdown row under an item.
type Detail struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ItemID      uuid.UUID `json:"item_id" db:"item_id"`
	Description string    `json:"description" db:"description"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
	Quantity    float64   `json:"quantity" db:"quantity"`
	Amount      float64   `json:"amount" db:"amount"`
}

// Remark is an ordered note on a document.
type Remark struct {
	ID         uuid.UUID `json:"id" db:"id"`
	DocumentID uuid.UUID `json:"document_id" db:"document_id"`
	Text       string    `json:"text" db:"text"`
	Completed  bool      `json:"completed" db:"completed"`
	OrderIndex int       `json:"order_index" db:"order_index"`
}

// SequenceCounter is the per-(kind, year) allocation state backing display IDs.
type SequenceCounter struct {
	Kind      Kind      `json:"kind" db:"kind"`
	Year      int       `json:"year" db:"year"`
	LastValue int       `json:"last_value" db:"last_value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// YearlySummary aggregates item totals for one kind and year, keyed by status.
type YearlySummary struct {
	Kind   Kind               `json:"kind"`
	Year   int                `json:"year"`
	Count  int                `json:"count"`
	Totals map[string]float64 `json:"totals"`
}
