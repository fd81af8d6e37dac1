package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"opsdesk/internal/domain/models"
	"opsdesk/internal/domain/repositories"
)

// ItemRepository is the pgx implementation of repositories.ItemRepository.
type ItemRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewItemRepository creates a new item repository.
func NewItemRepository(config *RepositoryConfig) repositories.ItemRepository {
	return &ItemRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// ListByDocument returns a document's items in order_index order, each with
// its detail rows attached.
func (r *ItemRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]models.Item, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, name, order_index, total
		FROM %s
		WHERE document_id = $1
		ORDER BY order_index ASC
	`, r.tables.Items)

	exec := getExecutor(ctx, r.pool)
	rows, err := exec.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	itemIDs := make([]uuid.UUID, 0)
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ID, &item.DocumentID, &item.Name, &item.OrderIndex, &item.Total); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
		itemIDs = append(itemIDs, item.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	rows.Close()

	if len(items) == 0 {
		return items, nil
	}

	detailQuery := fmt.Sprintf(`
		SELECT id, item_id, description, unit_price, quantity, amount
		FROM %s
		WHERE item_id = ANY($1)
		ORDER BY id
	`, r.tables.ItemDetails)

	detailRows, err := exec.Query(ctx, detailQuery, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("list item details: %w", err)
	}
	defer detailRows.Close()

	byItem := make(map[uuid.UUID][]models.Detail)
	for detailRows.Next() {
		var d models.Detail
		if err := detailRows.Scan(&d.ID, &d.ItemID, &d.Description, &d.UnitPrice, &d.Quantity, &d.Amount); err != nil {
			return nil, fmt.Errorf("scan item detail: %w", err)
		}
		byItem[d.ItemID] = append(byItem[d.ItemID], d)
	}
	if err := detailRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item details: %w", err)
	}

	for i := range items {
		items[i].Details = byItem[items[i].ID]
	}

	return items, nil
}

// Insert creates an item row.
func (r *ItemRepository) Insert(ctx context.Context, item *models.Item) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, name, order_index, total)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.Items)

	_, err := getExecutor(ctx, r.pool).Exec(ctx, query,
		item.ID, item.DocumentID, item.Name, item.OrderIndex, item.Total)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// Update writes an item's fields and order index.
func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	query := fmt.Sprintf(`
		UPDATE %s SET name = $1, order_index = $2, total = $3
		WHERE id = $4 AND document_id = $5
	`, r.tables.Items)

	_, err := getExecutor(ctx, r.pool).Exec(ctx, query,
		item.Name, item.OrderIndex, item.Total, item.ID, item.DocumentID)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// Delete removes item rows by id. Detail rows go with them via the
// ON DELETE CASCADE constraint.
func (r *ItemRepository) Delete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.tables.Items)
	if _, err := getExecutor(ctx, r.pool).Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	return nil
}

// InsertDetail creates a detail row under an item.
func (r *ItemRepository) InsertDetail(ctx context.Context, detail *models.Detail) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, item_id, description, unit_price, quantity, amount)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.ItemDetails)

	_, err := getExecutor(ctx, r.pool).Exec(ctx, query,
		detail.ID, detail.ItemID, detail.Description, detail.UnitPrice, detail.Quantity, detail.Amount)
	if err != nil {
		return fmt.Errorf("insert item detail: %w", err)
	}
	return nil
}

// UpdateDetail writes a detail row's fields.
func (r *ItemRepository) UpdateDetail(ctx context.Context, detail *models.Detail) error {
	query := fmt.Sprintf(`
		UPDATE %s SET description = $1, unit_price = $2, quantity = $3, amount = $4
		WHERE id = $5 AND item_id = $6
	`, r.tables.ItemDetails)

	_, err := getExecutor(ctx, r.pool).Exec(ctx, query,
		detail.Description, detail.UnitPrice, detail.Quantity, detail.Amount, detail.ID, detail.ItemID)
	if err != nil {
		return fmt.Errorf("update item detail: %w", err)
	}
	return nil
}

// DeleteDetails removes detail rows by id.
func (r *ItemRepository) DeleteDetails(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.tables.ItemDetails)
	if _, err := getExecutor(ctx, r.pool).Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("delete item details: %w", err)
	}
	return nil
}
