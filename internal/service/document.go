package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"opsdesk/internal/cache"
	"opsdesk/internal/config"
	"opsdesk/internal/domain"
	"opsdesk/internal/domain/models"
	"opsdesk/internal/domain/repositories"
)

// CreateDocumentRequest creates a document of one kind with fresh children.
type CreateDocumentRequest struct {
	Kind        models.Kind   `json:"-"`
	DisplayName string        `json:"display_name"`
	Status      string        `json:"status"` // empty = kind's initial status
	Items       []ItemInput   `json:"items"`
	Remarks     []RemarkInput `json:"remarks"`
}

// UpdateDocumentRequest updates a document. Nil fields are left untouched;
// a non-nil Items or Remarks list is reconciled against the stored children.
// LastKnownModifiedAt is the optimistic-lock token; nil skips the check.
type UpdateDocumentRequest struct {
	Kind                models.Kind    `json:"-"`
	DisplayName         *string        `json:"display_name"`
	Status              *string        `json:"status"`
	Items               *[]ItemInput   `json:"items"`
	Remarks             *[]RemarkInput `json:"remarks"`
	LastKnownModifiedAt *time.Time     `json:"last_known_modified_at"`
}

// DocumentService orchestrates the write path shared by every document kind:
// ID issuance and name resolution on create, freshness check and nested
// reconciliation on update, post-commit cache invalidation on every write.
type DocumentService struct {
	documents   repositories.DocumentRepository
	items       repositories.ItemRepository
	remarks     repositories.RemarkRepository
	txManager   repositories.TransactionManager
	issuer      *SequenceIssuer
	names       *NameResolver
	reconciler  *Reconciler
	aggregates  *cache.AggregateCache
	invalidator *cache.InvalidationCoordinator
	kinds       *config.KindRegistry
	logger      *slog.Logger
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	documents repositories.DocumentRepository,
	items repositories.ItemRepository,
	remarks repositories.RemarkRepository,
	txManager repositories.TransactionManager,
	issuer *SequenceIssuer,
	names *NameResolver,
	reconciler *Reconciler,
	aggregates *cache.AggregateCache,
	invalidator *cache.InvalidationCoordinator,
	kinds *config.KindRegistry,
	logger *slog.Logger,
) *DocumentService {
	return &DocumentService{
		documents:   documents,
		items:       items,
		remarks:     remarks,
		txManager:   txManager,
		issuer:      issuer,
		names:       names,
		reconciler:  reconciler,
		aggregates:  aggregates,
		invalidator: invalidator,
		kinds:       kinds,
		logger:      logger,
	}
}

// Create creates a document: allocates the next display ID, disambiguates
// the display name, and inserts the children, all in one transaction. A
// display-ID collision aborts the transaction and the whole create is
// retried with a rescanned ID, up to maxAllocateRetries times.
func (s *DocumentService) Create(ctx context.Context, req *CreateDocumentRequest) (*models.Document, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if req.Status == "" {
		req.Status = s.kinds.DefaultStatus(req.Kind)
	}

	year := time.Now().UTC().Year()

	var doc *models.Document
	var err error
	for attempt := 0; attempt <= maxAllocateRetries; attempt++ {
		doc, err = s.tryCreate(ctx, req, year, attempt > 0)
		if err == nil || !errors.Is(err, domain.ErrConflict) {
			break
		}
		s.logger.Warn("display id collision, retrying create",
			"kind", req.Kind, "year", year, "attempt", attempt+1)
	}
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, &domain.SequenceGenerationError{
				Message: fmt.Sprintf("could not allocate a unique display id for %s/%d after %d retries", req.Kind, year, maxAllocateRetries),
			}
		}
		return nil, err
	}

	s.invalidator.Invalidate(req.Kind, &year)
	s.logger.Info("document created",
		"kind", doc.Kind,
		"id", doc.ID,
		"display_id", doc.DisplayID,
		"items", len(doc.Items),
	)

	return doc, nil
}

// tryCreate runs one create attempt in its own transaction. rescan forces
// the scan-and-increment fallback instead of the counter; the fallback is
// also used when the counter mechanism itself fails.
func (s *DocumentService) tryCreate(ctx context.Context, req *CreateDocumentRequest, year int, rescan bool) (*models.Document, error) {
	var doc *models.Document

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var displayID string
		var err error
		if rescan {
			displayID, err = s.issuer.AllocateScan(ctx, req.Kind, year)
		} else {
			displayID, err = s.issuer.Allocate(ctx, req.Kind, year)
			if err != nil {
				s.logger.Warn("sequence counter unavailable, falling back to scan",
					"kind", req.Kind, "year", year, "error", err)
				displayID, err = s.issuer.AllocateScan(ctx, req.Kind, year)
			}
		}
		if err != nil {
			return err
		}

		name, err := s.names.Resolve(ctx, req.Kind, req.DisplayName, uuid.Nil)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		doc = &models.Document{
			ID:          uuid.New(),
			Kind:        req.Kind,
			DisplayID:   displayID,
			DisplayName: name,
			Status:      req.Status,
			Lifecycle:   models.Active(),
			CreatedAt:   now,
			ModifiedAt:  now,
		}
		if err := s.documents.Create(ctx, doc); err != nil {
			return err
		}

		doc.Items, err = s.reconciler.ReconcileItems(ctx, doc.ID, req.Items)
		if err != nil {
			return err
		}
		doc.Remarks, err = s.reconciler.ReconcileRemarks(ctx, doc.ID, req.Remarks)
		return err
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// Get retrieves a document with its children. Soft-deleted documents are
// returned too; only listings hide them.
func (s *DocumentService) Get(ctx context.Context, kind models.Kind, id uuid.UUID) (*models.Document, error) {
	doc, err := s.documents.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	doc.Items, err = s.items.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	doc.Remarks, err = s.remarks.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// List returns document rows without children, active only unless asked.
func (s *DocumentService) List(ctx context.Context, kind models.Kind, opts repositories.ListOptions) ([]models.Document, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown document kind %q", domain.ErrValidation, kind)
	}
	if opts.Limit <= 0 {
		opts.Limit = config.DefaultPageSize
	}
	if opts.Limit > config.MaxPageSize {
		opts.Limit = config.MaxPageSize
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	return s.documents.List(ctx, kind, opts)
}

// Update applies an edit: freshness check against the row-locked current
// state, then field updates and child reconciliation, all in one
// transaction. Any failure rolls the whole edit back.
func (s *DocumentService) Update(ctx context.Context, kind models.Kind, id uuid.UUID, req *UpdateDocumentRequest) (*models.Document, error) {
	if err := s.validateUpdate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var doc *models.Document

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		current, err := s.documents.GetForUpdate(ctx, kind, id)
		if err != nil {
			return err
		}
		if !current.Lifecycle.IsActive() {
			return &domain.NotFoundError{Message: fmt.Sprintf("%s %s is deleted", kind, id)}
		}

		if err := CheckFreshness(req.LastKnownModifiedAt, current.ModifiedAt); err != nil {
			return err
		}

		if req.DisplayName != nil && *req.DisplayName != current.DisplayName {
			name, err := s.names.Resolve(ctx, kind, *req.DisplayName, current.ID)
			if err != nil {
				return err
			}
			current.DisplayName = name
		}
		if req.Status != nil {
			current.Status = *req.Status
		}

		if req.Items != nil {
			current.Items, err = s.reconciler.ReconcileItems(ctx, current.ID, *req.Items)
		} else {
			current.Items, err = s.items.ListByDocument(ctx, current.ID)
		}
		if err != nil {
			return err
		}

		if req.Remarks != nil {
			current.Remarks, err = s.reconciler.ReconcileRemarks(ctx, current.ID, *req.Remarks)
		} else {
			current.Remarks, err = s.remarks.ListByDocument(ctx, current.ID)
		}
		if err != nil {
			return err
		}

		current.ModifiedAt = nextModifiedAt(current.ModifiedAt)
		if err := s.documents.Update(ctx, current); err != nil {
			return err
		}

		doc = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateFor(doc)
	s.logger.Info("document updated",
		"kind", doc.Kind,
		"id", doc.ID,
		"display_id", doc.DisplayID,
	)

	return doc, nil
}

// SoftDelete marks a document deleted. Its display name becomes available to
// new documents of the kind; its display ID stays reserved.
func (s *DocumentService) SoftDelete(ctx context.Context, kind models.Kind, id uuid.UUID) error {
	var doc *models.Document

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		current, err := s.documents.GetForUpdate(ctx, kind, id)
		if err != nil {
			return err
		}
		if !current.Lifecycle.IsActive() {
			// Already deleted; deleting again is a no-op.
			doc = current
			return nil
		}

		now := nextModifiedAt(current.ModifiedAt)
		if err := s.documents.SetLifecycle(ctx, kind, id, models.Deleted(now), now); err != nil {
			return err
		}
		doc = current
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateFor(doc)
	s.logger.Info("document deleted", "kind", kind, "id", id, "display_id", doc.DisplayID)
	return nil
}

// Restore clears a document's soft delete. The restored name may collide
// with a document created in the meantime; names are only best-effort unique.
func (s *DocumentService) Restore(ctx context.Context, kind models.Kind, id uuid.UUID) (*models.Document, error) {
	var doc *models.Document

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		current, err := s.documents.GetForUpdate(ctx, kind, id)
		if err != nil {
			return err
		}
		if current.Lifecycle.IsActive() {
			doc = current
			return nil
		}

		now := nextModifiedAt(current.ModifiedAt)
		if err := s.documents.SetLifecycle(ctx, kind, id, models.Active(), now); err != nil {
			return err
		}
		current.Lifecycle = models.Active()
		current.ModifiedAt = now
		doc = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateFor(doc)
	s.logger.Info("document restored", "kind", kind, "id", id, "display_id", doc.DisplayID)
	return doc, nil
}

// YearlySummary returns the cached dashboard aggregate for (kind, year),
// computing and caching it on miss.
func (s *DocumentService) YearlySummary(ctx context.Context, kind models.Kind, year int) (*models.YearlySummary, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown document kind %q", domain.ErrValidation, kind)
	}

	key := cache.Key(kind, &year)
	if v, ok := s.aggregates.Get(key); ok {
		if summary, ok := v.(*models.YearlySummary); ok {
			return summary, nil
		}
	}

	summary, err := s.documents.SummarizeYear(ctx, kind, year)
	if err != nil {
		return nil, err
	}
	s.aggregates.Set(key, summary)

	return summary, nil
}

// invalidateFor drops aggregates affected by a write to doc.
func (s *DocumentService) invalidateFor(doc *models.Document) {
	if doc == nil {
		return
	}
	if _, year, _, err := models.ParseDisplayID(doc.DisplayID); err == nil {
		s.invalidator.Invalidate(doc.Kind, &year)
	} else {
		s.invalidator.Invalidate(doc.Kind, nil)
	}
}

func (s *DocumentService) validateCreate(req *CreateDocumentRequest) error {
	if !req.Kind.Valid() {
		return fmt.Errorf("unknown document kind %q", req.Kind)
	}
	if req.Status != "" && !s.kinds.ValidStatus(req.Kind, req.Status) {
		return fmt.Errorf("status %q is not valid for %s", req.Status, req.Kind)
	}
	return validation.ValidateStruct(req,
		validation.Field(&req.DisplayName, validation.Length(0, config.MaxDisplayNameLength)),
		validation.Field(&req.Items, validation.By(validateItemInputs)),
		validation.Field(&req.Remarks, validation.By(validateRemarkInputs)),
	)
}

func (s *DocumentService) validateUpdate(req *UpdateDocumentRequest) error {
	if !req.Kind.Valid() {
		return fmt.Errorf("unknown document kind %q", req.Kind)
	}
	if req.Status != nil && !s.kinds.ValidStatus(req.Kind, *req.Status) {
		return fmt.Errorf("status %q is not valid for %s", *req.Status, req.Kind)
	}
	if req.DisplayName != nil && len(*req.DisplayName) > config.MaxDisplayNameLength {
		return fmt.Errorf("display_name exceeds %d characters", config.MaxDisplayNameLength)
	}
	if req.Items != nil {
		if err := validateItemInputs(*req.Items); err != nil {
			return err
		}
	}
	if req.Remarks != nil {
		if err := validateRemarkInputs(*req.Remarks); err != nil {
			return err
		}
	}
	return nil
}

func validateItemInputs(value any) error {
	items, ok := value.([]ItemInput)
	if !ok {
		return fmt.Errorf("expected an item list")
	}
	for i, item := range items {
		if item.Name == "" {
			return fmt.Errorf("items[%d]: name is required", i)
		}
		if len(item.Name) > config.MaxItemNameLength {
			return fmt.Errorf("items[%d]: name exceeds %d characters", i, config.MaxItemNameLength)
		}
		for j, d := range item.Details {
			if len(d.Description) > config.MaxDetailTextLength {
				return fmt.Errorf("items[%d].details[%d]: description exceeds %d characters", i, j, config.MaxDetailTextLength)
			}
		}
	}
	return nil
}

func validateRemarkInputs(value any) error {
	remarks, ok := value.([]RemarkInput)
	if !ok {
		return fmt.Errorf("expected a remark list")
	}
	for i, remark := range remarks {
		if remark.Text == "" {
			return fmt.Errorf("remarks[%d]: text is required", i)
		}
		if len(remark.Text) > config.MaxRemarkTextLength {
			return fmt.Errorf("remarks[%d]: text exceeds %d characters", i, config.MaxRemarkTextLength)
		}
	}
	return nil
}
