package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rakapratama/projectledger-backend/internal/domain"
)

// ledgerRepository implements domain.LedgerRepository
type ledgerRepository struct {
	db *DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *DB) domain.LedgerRepository {
	return &ledgerRepository{db: db}
}

// ListEntries retrieves ledger entries, newest first
func (r *ledgerRepository) ListEntries(ctx context.Context, filter domain.EntryFilter) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT id, account_id, project_id, line_item_id, amount, kind, description, created_at
		FROM ledger_entries
	`
	var args []interface{}
	where := ""
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		where = fmt.Sprintf(" WHERE account_id = $%d", len(args))
	}
	if filter.ProjectID != nil {
		args = append(args, *filter.ProjectID)
		clause := fmt.Sprintf("project_id = $%d", len(args))
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
	}
	query += where + " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		var entry domain.LedgerEntry
		var amountStr string
		var kind string
		if err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&entry.ProjectID,
			&entry.LineItemID,
			&amountStr,
			&kind,
			&entry.Description,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse entry amount: %w", err)
		}
		entry.Amount = amount
		entry.Kind = domain.EntryKind(kind)
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}
	return entries, nil
}

// ListTransfers retrieves transfers, newest first
func (r *ledgerRepository) ListTransfers(ctx context.Context) ([]*domain.Transfer, error) {
	query := `
		SELECT id, from_account_id, to_account_id, amount, created_at
		FROM transfers
		ORDER BY created_at DESC, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []*domain.Transfer
	for rows.Next() {
		var transfer domain.Transfer
		var amountStr string
		if err := rows.Scan(
			&transfer.ID,
			&transfer.FromAccountID,
			&transfer.ToAccountID,
			&amountStr,
			&transfer.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse transfer amount: %w", err)
		}
		transfer.Amount = amount
		transfers = append(transfers, &transfer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transfers: %w", err)
	}
	return transfers, nil
}

// OutTotalByProject returns the project's realized spend
func (r *ledgerRepository) OutTotalByProject(ctx context.Context, projectID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE project_id = $1 AND kind = 'OUT'
	`
	return queryDecimal(ctx, r.db, query, projectID)
}

// OutTotalByLineItem returns the line item's realized spend
func (r *ledgerRepository) OutTotalByLineItem(ctx context.Context, lineItemID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE line_item_id = $1 AND kind = 'OUT'
	`
	return queryDecimal(ctx, r.db, query, lineItemID)
}
