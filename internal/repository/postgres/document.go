package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"opsdesk/internal/domain"
	"opsdesk/internal/domain/models"
	"opsdesk/internal/domain/repositories"
)

// DocumentRepository is the pgx implementation of repositories.DocumentRepository.
type DocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &DocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const documentColumns = `id, kind, display_id, display_name, status, deleted_at, created_at, modified_at`

func (r *DocumentRepository) scanDocument(row interface{ Scan(...any) error }) (*models.Document, error) {
	var doc models.Document
	var deletedAt *time.Time
	err := row.Scan(
		&doc.ID,
		&doc.Kind,
		&doc.DisplayID,
		&doc.DisplayName,
		&doc.Status,
		&deletedAt,
		&doc.CreatedAt,
		&doc.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.Lifecycle = models.LifecycleFromColumn(deletedAt)
	return &doc, nil
}

// Create inserts a new document row. A duplicate display_id surfaces as
// domain.ErrConflict so the scan-and-increment fallback can retry.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, kind, display_id, display_name, status, deleted_at, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.tables.Documents)

	_, err := getExecutor(ctx, r.pool).Exec(ctx, query,
		doc.ID,
		doc.Kind,
		doc.DisplayID,
		doc.DisplayName,
		doc.Status,
		doc.Lifecycle.Column(),
		doc.CreatedAt,
		doc.ModifiedAt,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{Message: fmt.Sprintf("display id %s already exists", doc.DisplayID)}
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document row by primary key.
func (r *DocumentRepository) GetByID(ctx context.Context, kind models.Kind, id uuid.UUID) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE id = $1 AND kind = $2
	`, documentColumns, r.tables.Documents)

	doc, err := r.scanDocument(getExecutor(ctx, r.pool).QueryRow(ctx, query, id, kind))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("%s %s not found", kind, id)}
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

// GetForUpdate retrieves a document row and locks it for the duration of the
// surrounding transaction. The optimistic-lock check runs against this read,
// so no other writer can advance modified_at between check and write.
func (r *DocumentRepository) GetForUpdate(ctx context.Context, kind models.Kind, id uuid.UUID) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE id = $1 AND kind = $2 FOR UPDATE
	`, documentColumns, r.tables.Documents)

	doc, err := r.scanDocument(getExecutor(ctx, r.pool).QueryRow(ctx, query, id, kind))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("%s %s not found", kind, id)}
		}
		return nil, fmt.Errorf("get document for update: %w", err)
	}

	return doc, nil
}

// Update writes the mutable document fields. display_id is deliberately not
// in the SET list; it never changes once assigned.
func (r *DocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET display_name = $1, status = $2, deleted_at = $3, modified_at = $4
		WHERE id = $5 AND kind = $6
	`, r.tables.Documents)

	result, err := getExecutor(ctx, r.pool).Exec(ctx, query,
		doc.DisplayName,
		doc.Status,
		doc.Lifecycle.Column(),
		doc.ModifiedAt,
		doc.ID,
		doc.Kind,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("%s %s not found", doc.Kind, doc.ID)}
	}

	return nil
}

// SetLifecycle soft-deletes or restores a document.
func (r *DocumentRepository) SetLifecycle(ctx context.Context, kind models.Kind, id uuid.UUID, lc models.Lifecycle, modifiedAt time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s SET deleted_at = $1, modified_at = $2 WHERE id = $3 AND kind = $4
	`, r.tables.Documents)

	result, err := getExecutor(ctx, r.pool).Exec(ctx, query, lc.Column(), modifiedAt, id, kind)
	if err != nil {
		return fmt.Errorf("set document lifecycle: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("%s %s not found", kind, id)}
	}

	return nil
}

// List returns document rows for a kind, newest first. Soft-deleted rows are
// excluded unless opts.IncludeDeleted is set.
func (r *DocumentRepository) List(ctx context.Context, kind models.Kind, opts repositories.ListOptions) ([]models.Document, error) {
	filter := "AND deleted_at IS NULL"
	if opts.IncludeDeleted {
		filter = ""
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE kind = $1 %s
		ORDER BY display_id DESC
		LIMIT $2 OFFSET $3
	`, documentColumns, r.tables.Documents, filter)

	rows, err := getExecutor(ctx, r.pool).Query(ctx, query, kind, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var documents []models.Document
	for rows.Next() {
		doc, err := r.scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		documents = append(documents, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return documents, nil
}

// ActiveNameExists reports whether an active document of the kind, other than
// excludeID, already carries the display name. Soft-deleted rows do not count.
func (r *DocumentRepository) ActiveNameExists(ctx context.Context, kind models.Kind, name string, excludeID uuid.UUID) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s
			WHERE kind = $1 AND display_name = $2 AND deleted_at IS NULL AND id <> $3
		)
	`, r.tables.Documents)

	var exists bool
	err := getExecutor(ctx, r.pool).QueryRow(ctx, query, kind, name, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check display name: %w", err)
	}

	return exists, nil
}

// MaxSequence returns the highest display-ID sequence number issued for
// (kind, year), 0 when none exist. Deleted rows count: their display IDs
// stay reserved.
func (r *DocumentRepository) MaxSequence(ctx context.Context, kind models.Kind, year int) (int, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(MAX(split_part(display_id, '-', 3)::int), 0)
		FROM %s
		WHERE kind = $1 AND split_part(display_id, '-', 2) = $2
	`, r.tables.Documents)

	var max int
	err := getExecutor(ctx, r.pool).QueryRow(ctx, query, kind, fmt.Sprintf("%04d", year)).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max sequence: %w", err)
	}

	return max, nil
}

// SummarizeYear aggregates item totals per status for one kind and year.
func (r *DocumentRepository) SummarizeYear(ctx context.Context, kind models.Kind, year int) (*models.YearlySummary, error) {
	query := fmt.Sprintf(`
		SELECT d.status, COUNT(DISTINCT d.id), COALESCE(SUM(i.total), 0)
		FROM %s d
		LEFT JOIN %s i ON i.document_id = d.id
		WHERE d.kind = $1 AND d.deleted_at IS NULL AND split_part(d.display_id, '-', 2) = $2
		GROUP BY d.status
	`, r.tables.Documents, r.tables.Items)

	rows, err := getExecutor(ctx, r.pool).Query(ctx, query, kind, fmt.Sprintf("%04d", year))
	if err != nil {
		return nil, fmt.Errorf("summarize year: %w", err)
	}
	defer rows.Close()

	summary := &models.YearlySummary{
		Kind:   kind,
		Year:   year,
		Totals: make(map[string]float64),
	}
	for rows.Next() {
		var status string
		var count int
		var total float64
		if err := rows.Scan(&status, &count, &total); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		summary.Count += count
		summary.Totals[status] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary rows: %w", err)
	}

	return summary, nil
}
