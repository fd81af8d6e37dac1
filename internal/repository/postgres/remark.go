package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"opsdesk/internal/domain/models"
	"opsdesk/internal/domain/repositories"
)

// RemarkRepository is the pgx implementation of repositories.RemarkRepository.
type RemarkRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewRemarkRepository creates a new remark repository.
func NewRemarkRepository(config *RepositoryConfig) repositories.RemarkRepository {
	return &RemarkRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// ListByDocument returns a document's remarks in order_index order.
func (r *RemarkRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]models.Remark, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, text, completed, order_index
		FROM %s
		WHERE document_id = $1
		ORDER BY order_index ASC
	`, r.tables.Remarks)

	rows, err := getExecutor(ctx, r.pool).Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list remarks: %w", err)
	}
	defer rows.Close()

	var remarks []models.Remark
	for rows.Next() {
		var remark models.Remark
		if err := rows.Scan(&remark.ID, &remark.DocumentID, &remark.Text, &remark.Completed, &remark.OrderIndex); err != nil {
			return nil, fmt.Errorf("scan remark: %w", err)
		}
		remarks = append(remarks, remark)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate remarks: %w", err)
	}

	return remarks, nil
}

// Insert creates a remark row.
func (r *RemarkRepository) Insert(ctx context.Context, remark *models.Remark) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, text, completed, order_index)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.Remarks)

	_, err := getExecutor(ctx, r.pool).Exec(ctx, query,
		remark.ID, remark.DocumentID, remark.Text, remark.Completed, remark.OrderIndex)
	if err != nil {
		return fmt.Errorf("insert remark: %w", err)
	}
	return nil
}

// Update writes a remark's fields and order index.
func (r *RemarkRepository) Update(ctx context.Context, remark *models.Remark) error {
	query := fmt.Sprintf(`
		UPDATE %s SET text = $1, completed = $2, order_index = $3
		WHERE id = $4 AND document_id = $5
	`, r.tables.Remarks)

	_, err := getExecutor(ctx, r.pool).Exec(ctx, query,
		remark.Text, remark.Completed, remark.OrderIndex, remark.ID, remark.DocumentID)
	if err != nil {
		return fmt.Errorf("update remark: %w", err)
	}
	return nil
}

// Delete removes remark rows by id.
func (r *RemarkRepository) Delete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.tables.Remarks)
	if _, err := getExecutor(ctx, r.pool).Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("delete remarks: %w", err)
	}
	return nil
}
