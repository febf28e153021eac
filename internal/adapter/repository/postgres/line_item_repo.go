package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rakapratama/projectledger-backend/internal/domain"
)

const selectLineItem = `
	SELECT id, project_id, category, sub_category, name, description,
	       qty_amount, qty_unit, volume_amount, volume_unit,
	       period_amount, period_unit, unit_price
	FROM line_items
`

// lineItemRepository implements domain.LineItemRepository
type lineItemRepository struct {
	db *DB
}

// NewLineItemRepository creates a new line item repository
func NewLineItemRepository(db *DB) domain.LineItemRepository {
	return &lineItemRepository{db: db}
}

func scanLineItem(row rowScanner) (*domain.LineItem, error) {
	var item domain.LineItem
	var qtyStr, volumeStr, periodStr, priceStr string
	if err := row.Scan(
		&item.ID,
		&item.ProjectID,
		&item.Category,
		&item.SubCategory,
		&item.Name,
		&item.Description,
		&qtyStr,
		&item.Quantity.Unit,
		&volumeStr,
		&item.Volume.Unit,
		&periodStr,
		&item.Period.Unit,
		&priceStr,
	); err != nil {
		return nil, err
	}

	for _, field := range []struct {
		raw  string
		dest *decimal.Decimal
	}{
		{qtyStr, &item.Quantity.Amount},
		{volumeStr, &item.Volume.Amount},
		{periodStr, &item.Period.Amount},
		{priceStr, &item.UnitPrice},
	} {
		value, err := decimal.NewFromString(field.raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse line item amount: %w", err)
		}
		*field.dest = value
	}
	return &item, nil
}

// GetByID retrieves a line item by its ID
func (r *lineItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LineItem, error) {
	item, err := scanLineItem(r.db.QueryRowContext(ctx, selectLineItem+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "line item", ID: id}
		}
		return nil, fmt.Errorf("failed to get line item: %w", err)
	}
	return item, nil
}

// ListByProject retrieves all line items of a project
func (r *lineItemRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.LineItem, error) {
	return r.queryItems(ctx, selectLineItem+` WHERE project_id = $1 ORDER BY category, name`, projectID)
}

// ListUnspentByProject retrieves the project's line items with no OUT
// ledger entry against them
func (r *lineItemRepository) ListUnspentByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.LineItem, error) {
	query := selectLineItem + `
		WHERE project_id = $1
		AND NOT EXISTS (
			SELECT 1 FROM ledger_entries e
			WHERE e.line_item_id = line_items.id AND e.kind = 'OUT'
		)
		ORDER BY category, name
	`
	return r.queryItems(ctx, query, projectID)
}

// Delete removes a line item; the ON DELETE SET NULL constraint nulls
// any ledger entry references to it
func (r *lineItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM line_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete line item: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if rows == 0 {
		return &domain.NotFoundError{Entity: "line item", ID: id}
	}
	return nil
}

func (r *lineItemRepository) queryItems(ctx context.Context, query string, args ...interface{}) ([]*domain.LineItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list line items: %w", err)
	}
	defer rows.Close()

	var items []*domain.LineItem
	for rows.Next() {
		item, err := scanLineItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate line items: %w", err)
	}
	return items, nil
}
