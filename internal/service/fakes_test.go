package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"opsdesk/internal/domain"
	"opsdesk/internal/domain/models"
	"opsdesk/internal/domain/repositories"
)

// In-memory fakes for the repository interfaces. Concurrency-safe so the
// allocation tests can hammer them from many goroutines.

type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

type fakeSequenceRepo struct {
	mu       sync.Mutex
	counters map[string]int
	nextErr  error // forces the counter-unavailable fallback
}

func newFakeSequenceRepo() *fakeSequenceRepo {
	return &fakeSequenceRepo{counters: make(map[string]int)}
}

func seqKey(kind models.Kind, year int) string {
	return fmt.Sprintf("%s/%d", kind, year)
}

func (f *fakeSequenceRepo) Next(ctx context.Context, kind models.Kind, year int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nextErr != nil {
		return 0, f.nextErr
	}
	key := seqKey(kind, year)
	if _, ok := f.counters[key]; !ok {
		return 0, &domain.NotFoundError{Message: "no counter"}
	}
	f.counters[key]++
	return f.counters[key], nil
}

func (f *fakeSequenceRepo) Create(ctx context.Context, kind models.Kind, year int, lastValue int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := seqKey(kind, year)
	if _, ok := f.counters[key]; ok {
		return false, nil
	}
	f.counters[key] = lastValue
	return true, nil
}

func (f *fakeSequenceRepo) Get(ctx context.Context, kind models.Kind, year int) (*models.SequenceCounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.counters[seqKey(kind, year)]
	if !ok {
		return nil, &domain.NotFoundError{Message: "no counter"}
	}
	return &models.SequenceCounter{Kind: kind, Year: year, LastValue: value}, nil
}

type fakeDocumentRepo struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*models.Document
	// items backs SummarizeYear totals when set.
	items *fakeItemRepo
	// createConflicts forces the next N Create calls to fail with a
	// display-ID conflict, exercising the bounded fallback retry.
	createConflicts int
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{docs: make(map[uuid.UUID]*models.Document)}
}

func (f *fakeDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createConflicts > 0 {
		f.createConflicts--
		return &domain.ConflictError{Message: fmt.Sprintf("display id %s already exists", doc.DisplayID)}
	}
	for _, d := range f.docs {
		if d.DisplayID == doc.DisplayID {
			return &domain.ConflictError{Message: fmt.Sprintf("display id %s already exists", doc.DisplayID)}
		}
	}
	copied := *doc
	f.docs[doc.ID] = &copied
	return nil
}

func (f *fakeDocumentRepo) GetByID(ctx context.Context, kind models.Kind, id uuid.UUID) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok || doc.Kind != kind {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("%s %s not found", kind, id)}
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeDocumentRepo) GetForUpdate(ctx context.Context, kind models.Kind, id uuid.UUID) (*models.Document, error) {
	return f.GetByID(ctx, kind, id)
}

func (f *fakeDocumentRepo) Update(ctx context.Context, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[doc.ID]; !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("%s %s not found", doc.Kind, doc.ID)}
	}
	copied := *doc
	f.docs[doc.ID] = &copied
	return nil
}

func (f *fakeDocumentRepo) SetLifecycle(ctx context.Context, kind models.Kind, id uuid.UUID, lc models.Lifecycle, modifiedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok || doc.Kind != kind {
		return &domain.NotFoundError{Message: fmt.Sprintf("%s %s not found", kind, id)}
	}
	doc.Lifecycle = lc
	doc.ModifiedAt = modifiedAt
	return nil
}

func (f *fakeDocumentRepo) List(ctx context.Context, kind models.Kind, opts repositories.ListOptions) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Document
	for _, doc := range f.docs {
		if doc.Kind != kind {
			continue
		}
		if !opts.IncludeDeleted && !doc.Lifecycle.IsActive() {
			continue
		}
		out = append(out, *doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayID > out[j].DisplayID })
	if opts.Offset < len(out) {
		out = out[opts.Offset:]
	} else {
		out = nil
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f *fakeDocumentRepo) ActiveNameExists(ctx context.Context, kind models.Kind, name string, excludeID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range f.docs {
		if doc.Kind == kind && doc.DisplayName == name && doc.Lifecycle.IsActive() && doc.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDocumentRepo) MaxSequence(ctx context.Context, kind models.Kind, year int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for _, doc := range f.docs {
		if doc.Kind != kind {
			continue
		}
		_, docYear, seq, err := models.ParseDisplayID(doc.DisplayID)
		if err != nil || docYear != year {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max, nil
}

func (f *fakeDocumentRepo) SummarizeYear(ctx context.Context, kind models.Kind, year int) (*models.YearlySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	summary := &models.YearlySummary{Kind: kind, Year: year, Totals: make(map[string]float64)}
	for _, doc := range f.docs {
		if doc.Kind != kind || !doc.Lifecycle.IsActive() {
			continue
		}
		_, docYear, _, err := models.ParseDisplayID(doc.DisplayID)
		if err != nil || docYear != year {
			continue
		}
		summary.Count++
		total := 0.0
		if f.items != nil {
			items, _ := f.items.ListByDocument(ctx, doc.ID)
			for _, item := range items {
				total += item.Total
			}
		}
		summary.Totals[doc.Status] += total
	}
	return summary, nil
}

type fakeItemRepo struct {
	mu      sync.Mutex
	items   map[uuid.UUID]models.Item
	details map[uuid.UUID]models.Detail
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{
		items:   make(map[uuid.UUID]models.Item),
		details: make(map[uuid.UUID]models.Detail),
	}
}

func (f *fakeItemRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Item
	for _, item := range f.items {
		if item.DocumentID != documentID {
			continue
		}
		item.Details = nil
		for _, d := range f.details {
			if d.ItemID == item.ID {
				item.Details = append(item.Details, d)
			}
		}
		sort.Slice(item.Details, func(i, j int) bool {
			return item.Details[i].ID.String() < item.Details[j].ID.String()
		})
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (f *fakeItemRepo) Insert(ctx context.Context, item *models.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *item
	stored.Details = nil
	f.items[item.ID] = stored
	return nil
}

func (f *fakeItemRepo) Update(ctx context.Context, item *models.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *item
	stored.Details = nil
	f.items[item.ID] = stored
	return nil
}

func (f *fakeItemRepo) Delete(ctx context.Context, ids []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.items, id)
		// Storage cascades item deletion to details.
		for detailID, d := range f.details {
			if d.ItemID == id {
				delete(f.details, detailID)
			}
		}
	}
	return nil
}

func (f *fakeItemRepo) InsertDetail(ctx context.Context, detail *models.Detail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details[detail.ID] = *detail
	return nil
}

func (f *fakeItemRepo) UpdateDetail(ctx context.Context, detail *models.Detail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details[detail.ID] = *detail
	return nil
}

func (f *fakeItemRepo) DeleteDetails(ctx context.Context, ids []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.details, id)
	}
	return nil
}

type fakeRemarkRepo struct {
	mu      sync.Mutex
	remarks map[uuid.UUID]models.Remark
}

func newFakeRemarkRepo() *fakeRemarkRepo {
	return &fakeRemarkRepo{remarks: make(map[uuid.UUID]models.Remark)}
}

func (f *fakeRemarkRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]models.Remark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Remark
	for _, remark := range f.remarks {
		if remark.DocumentID == documentID {
			out = append(out, remark)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (f *fakeRemarkRepo) Insert(ctx context.Context, remark *models.Remark) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remarks[remark.ID] = *remark
	return nil
}

func (f *fakeRemarkRepo) Update(ctx context.Context, remark *models.Remark) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remarks[remark.ID] = *remark
	return nil
}

func (f *fakeRemarkRepo) Delete(ctx context.Context, ids []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.remarks, id)
	}
	return nil
}
