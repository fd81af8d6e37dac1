package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"opsdesk/internal/domain"
	"opsdesk/internal/domain/models"
	"opsdesk/internal/domain/repositories"
)

// ItemInput is one incoming line item. An ID matching an existing item under
// the document updates that row in place; a nil or unknown ID creates a new
// row with a fresh server-assigned ID. Client-supplied IDs are never trusted
// as insertion keys, so an ID belonging to another document cannot capture
// that document's row.
type ItemInput struct {
	ID      *uuid.UUID    `json:"id"`
	Name    string        `json:"name"`
	Total   float64       `json:"total"`
	Details []DetailInput `json:"details"`
}

// DetailInput is one incoming breakdown row under an item.
type DetailInput struct {
	ID          *uuid.UUID `json:"id"`
	Description string     `json:"description"`
	UnitPrice   float64    `json:"unit_price"`
	Quantity    float64    `json:"quantity"`
	Amount      float64    `json:"amount"`
}

// RemarkInput is one incoming document remark.
type RemarkInput struct {
	ID        *uuid.UUID `json:"id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
}

// Reconciler applies an incoming ordered child list against the stored rows
// of one parent: updates in place, creates what is new, deletes what the
// incoming list no longer mentions. Creates and updates always run before
// deletes, so an interrupted transaction never leaves a parent transiently
// childless, and unchanged rows are never destroyed and recreated.
//
// Must run inside the same transaction as the parent update; every method
// assumes a transaction is already carried in ctx.
type Reconciler struct {
	items   repositories.ItemRepository
	remarks repositories.RemarkRepository
}

// NewReconciler creates a new nested-collection reconciler.
func NewReconciler(items repositories.ItemRepository, remarks repositories.RemarkRepository) *Reconciler {
	return &Reconciler{items: items, remarks: remarks}
}

// checkDuplicateIDs rejects incoming lists that name the same existing row
// twice. Applying one of the two writes arbitrarily would be silent data
// loss, so the whole request is refused before anything is written.
func checkDuplicateIDs(ids []*uuid.UUID) error {
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if id == nil {
			continue
		}
		if seen[*id] {
			return &domain.ReconciliationIntegrityError{
				Message: fmt.Sprintf("incoming list references id %s more than once", *id),
			}
		}
		seen[*id] = true
	}
	return nil
}

// ReconcileItems reconciles a document's items and, per retained item, its
// nested detail rows. Detail reconciliation happens before the item-level
// delete step: retained items get their detail sets settled independently,
// and items that disappear take their details with them via the storage
// cascade. OrderIndex is normalized to the incoming order, contiguous from 0.
func (r *Reconciler) ReconcileItems(ctx context.Context, documentID uuid.UUID, incoming []ItemInput) ([]models.Item, error) {
	ids := make([]*uuid.UUID, len(incoming))
	for i := range incoming {
		ids[i] = incoming[i].ID
	}
	if err := checkDuplicateIDs(ids); err != nil {
		return nil, err
	}
	for _, in := range incoming {
		detailIDs := make([]*uuid.UUID, len(in.Details))
		for i := range in.Details {
			detailIDs[i] = in.Details[i].ID
		}
		if err := checkDuplicateIDs(detailIDs); err != nil {
			return nil, err
		}
	}

	existing, err := r.items.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	existingByID := make(map[uuid.UUID]models.Item, len(existing))
	for _, item := range existing {
		existingByID[item.ID] = item
	}

	applied := make([]models.Item, 0, len(incoming))
	keep := make(map[uuid.UUID]bool, len(incoming))

	for idx, in := range incoming {
		if in.ID != nil {
			if current, ok := existingByID[*in.ID]; ok {
				item := models.Item{
					ID:         current.ID,
					DocumentID: documentID,
					Name:       in.Name,
					OrderIndex: idx,
					Total:      in.Total,
				}
				if err := r.items.Update(ctx, &item); err != nil {
					return nil, err
				}
				item.Details, err = r.reconcileDetails(ctx, current.ID, current.Details, in.Details)
				if err != nil {
					return nil, err
				}
				keep[item.ID] = true
				applied = append(applied, item)
				continue
			}
		}

		item := models.Item{
			ID:         uuid.New(),
			DocumentID: documentID,
			Name:       in.Name,
			OrderIndex: idx,
			Total:      in.Total,
		}
		if err := r.items.Insert(ctx, &item); err != nil {
			return nil, err
		}
		item.Details, err = r.reconcileDetails(ctx, item.ID, nil, in.Details)
		if err != nil {
			return nil, err
		}
		keep[item.ID] = true
		applied = append(applied, item)
	}

	var remove []uuid.UUID
	for _, item := range existing {
		if !keep[item.ID] {
			remove = append(remove, item.ID)
		}
	}
	if err := r.items.Delete(ctx, remove); err != nil {
		return nil, err
	}

	return applied, nil
}

// reconcileDetails runs the same algorithm one level down, scoped to a
// single item's detail set.
func (r *Reconciler) reconcileDetails(ctx context.Context, itemID uuid.UUID, existing []models.Detail, incoming []DetailInput) ([]models.Detail, error) {
	existingByID := make(map[uuid.UUID]bool, len(existing))
	for _, d := range existing {
		existingByID[d.ID] = true
	}

	applied := make([]models.Detail, 0, len(incoming))
	keep := make(map[uuid.UUID]bool, len(incoming))

	for _, in := range incoming {
		detail := models.Detail{
			ItemID:      itemID,
			Description: in.Description,
			UnitPrice:   in.UnitPrice,
			Quantity:    in.Quantity,
			Amount:      in.Amount,
		}
		if in.ID != nil && existingByID[*in.ID] {
			detail.ID = *in.ID
			if err := r.items.UpdateDetail(ctx, &detail); err != nil {
				return nil, err
			}
		} else {
			detail.ID = uuid.New()
			if err := r.items.InsertDetail(ctx, &detail); err != nil {
				return nil, err
			}
		}
		keep[detail.ID] = true
		applied = append(applied, detail)
	}

	var remove []uuid.UUID
	for _, d := range existing {
		if !keep[d.ID] {
			remove = append(remove, d.ID)
		}
	}
	if err := r.items.DeleteDetails(ctx, remove); err != nil {
		return nil, err
	}

	return applied, nil
}

// ReconcileRemarks reconciles a document's remarks. Same algorithm as items,
// with no further nesting.
func (r *Reconciler) ReconcileRemarks(ctx context.Context, documentID uuid.UUID, incoming []RemarkInput) ([]models.Remark, error) {
	ids := make([]*uuid.UUID, len(incoming))
	for i := range incoming {
		ids[i] = incoming[i].ID
	}
	if err := checkDuplicateIDs(ids); err != nil {
		return nil, err
	}

	existing, err := r.remarks.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	existingByID := make(map[uuid.UUID]bool, len(existing))
	for _, remark := range existing {
		existingByID[remark.ID] = true
	}

	applied := make([]models.Remark, 0, len(incoming))
	keep := make(map[uuid.UUID]bool, len(incoming))

	for idx, in := range incoming {
		remark := models.Remark{
			DocumentID: documentID,
			Text:       in.Text,
			Completed:  in.Completed,
			OrderIndex: idx,
		}
		if in.ID != nil && existingByID[*in.ID] {
			remark.ID = *in.ID
			if err := r.remarks.Update(ctx, &remark); err != nil {
				return nil, err
			}
		} else {
			remark.ID = uuid.New()
			if err := r.remarks.Insert(ctx, &remark); err != nil {
				return nil, err
			}
		}
		keep[remark.ID] = true
		applied = append(applied, remark)
	}

	var remove []uuid.UUID
	for _, remark := range existing {
		if !keep[remark.ID] {
			remove = append(remove, remark.ID)
		}
	}
	if err := r.remarks.Delete(ctx, remove); err != nil {
		return nil, err
	}

	return applied, nil
}
