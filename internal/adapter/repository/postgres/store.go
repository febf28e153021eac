package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/rakapratama/projectledger-backend/internal/domain"
)

// lockWait bounds how long a unit of work queues for a row lock before
// failing with the retryable transient error
const lockWait = "3s"

// Store implements domain.Store over a single PostgreSQL database.
// Each unit of work is one transaction; row locks come from
// SELECT ... FOR UPDATE, bounded by lock_timeout so a contended unit
// surfaces a transient error instead of queueing indefinitely.
type Store struct {
	db *DB
}

// NewStore creates a new postgres-backed store
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Within runs fn inside one database transaction. On any error the
// transaction rolls back, so no partial writes land.
func (s *Store) Within(ctx context.Context, fn func(uow domain.UnitOfWork) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%s'", lockWait)); err != nil {
		return fmt.Errorf("failed to set lock timeout: %w", err)
	}

	if err := fn(&unitOfWork{tx: tx}); err != nil {
		return translateLockError(err)
	}

	if err := tx.Commit(); err != nil {
		return translateLockError(fmt.Errorf("failed to commit unit of work: %w", err))
	}
	return nil
}

// translateLockError maps the postgres lock/serialization failure
// classes onto the domain's single retryable error kind
func translateLockError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "55P03", // lock_not_available
			"40001", // serialization_failure
			"40P01": // deadlock_detected
			return fmt.Errorf("%s: %w", pqErr.Message, domain.ErrTransientLock)
		}
	}
	return err
}

// unitOfWork implements domain.UnitOfWork over one open transaction
type unitOfWork struct {
	tx *sql.Tx
}

func (u *unitOfWork) AccountForUpdate(ctx context.Context, id uuid.UUID) (*domain.BankAccount, error) {
	query := `
		SELECT id, name, balance
		FROM bank_accounts
		WHERE id = $1
		FOR UPDATE
	`

	var account domain.BankAccount
	var balanceStr string
	err := u.tx.QueryRowContext(ctx, query, id).Scan(&account.ID, &account.Name, &balanceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "bank account", ID: id}
		}
		return nil, fmt.Errorf("failed to lock bank account: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	account.Balance = balance

	return &account, nil
}

func (u *unitOfWork) ProjectForUpdate(ctx context.Context, id uuid.UUID) (*domain.ProjectWallet, error) {
	query := `
		SELECT id, name, client, status, allocated_budget, created_at
		FROM project_wallets
		WHERE id = $1
		FOR UPDATE
	`

	project, err := scanProject(u.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "project wallet", ID: id}
		}
		return nil, fmt.Errorf("failed to lock project wallet: %w", err)
	}
	return project, nil
}

func (u *unitOfWork) LineItem(ctx context.Context, id uuid.UUID) (*domain.LineItem, error) {
	item, err := scanLineItem(u.tx.QueryRowContext(ctx, selectLineItem+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "line item", ID: id}
		}
		return nil, fmt.Errorf("failed to get line item: %w", err)
	}
	return item, nil
}

func (u *unitOfWork) OutTotalByProject(ctx context.Context, projectID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE project_id = $1 AND kind = 'OUT'
	`
	return queryDecimal(ctx, u.tx, query, projectID)
}

func (u *unitOfWork) PlannedTotalByProject(ctx context.Context, projectID, excludeItem uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(qty_amount * volume_amount * period_amount * unit_price), 0)
		FROM line_items
		WHERE project_id = $1 AND id <> $2
	`
	return queryDecimal(ctx, u.tx, query, projectID, excludeItem)
}

func (u *unitOfWork) SaveAccountBalance(ctx context.Context, account *domain.BankAccount) error {
	query := `UPDATE bank_accounts SET balance = $2 WHERE id = $1`

	result, err := u.tx.ExecContext(ctx, query, account.ID, account.Balance.String())
	if err != nil {
		return fmt.Errorf("failed to update account balance: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		return &domain.NotFoundError{Entity: "bank account", ID: account.ID}
	}
	return nil
}

func (u *unitOfWork) SaveProject(ctx context.Context, project *domain.ProjectWallet) error {
	query := `
		UPDATE project_wallets
		SET name = $2, client = $3, status = $4, allocated_budget = $5
		WHERE id = $1
	`

	result, err := u.tx.ExecContext(ctx, query,
		project.ID,
		project.Name,
		project.Client,
		string(project.Status),
		project.AllocatedBudget.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update project wallet: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		return &domain.NotFoundError{Entity: "project wallet", ID: project.ID}
	}
	return nil
}

func (u *unitOfWork) CreateProject(ctx context.Context, project *domain.ProjectWallet) error {
	query := `
		INSERT INTO project_wallets (id, name, client, status, allocated_budget, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := u.tx.ExecContext(ctx, query,
		project.ID,
		project.Name,
		project.Client,
		string(project.Status),
		project.AllocatedBudget.String(),
		project.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project wallet: %w", err)
	}
	return nil
}

func (u *unitOfWork) PutLineItem(ctx context.Context, item *domain.LineItem) error {
	query := `
		INSERT INTO line_items (
			id, project_id, category, sub_category, name, description,
			qty_amount, qty_unit, volume_amount, volume_unit,
			period_amount, period_unit, unit_price
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			category = EXCLUDED.category,
			sub_category = EXCLUDED.sub_category,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			qty_amount = EXCLUDED.qty_amount,
			qty_unit = EXCLUDED.qty_unit,
			volume_amount = EXCLUDED.volume_amount,
			volume_unit = EXCLUDED.volume_unit,
			period_amount = EXCLUDED.period_amount,
			period_unit = EXCLUDED.period_unit,
			unit_price = EXCLUDED.unit_price
	`

	_, err := u.tx.ExecContext(ctx, query,
		item.ID,
		item.ProjectID,
		item.Category,
		item.SubCategory,
		item.Name,
		item.Description,
		item.Quantity.Amount.String(),
		item.Quantity.Unit,
		item.Volume.Amount.String(),
		item.Volume.Unit,
		item.Period.Amount.String(),
		item.Period.Unit,
		item.UnitPrice.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert line item: %w", err)
	}
	return nil
}

func (u *unitOfWork) AddEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, account_id, project_id, line_item_id, amount, kind, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := u.tx.ExecContext(ctx, query,
		entry.ID,
		entry.AccountID,
		uuidOrNil(entry.ProjectID),
		uuidOrNil(entry.LineItemID),
		entry.Amount.String(),
		string(entry.Kind),
		entry.Description,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

func (u *unitOfWork) AddTransfer(ctx context.Context, transfer *domain.Transfer) error {
	query := `
		INSERT INTO transfers (id, from_account_id, to_account_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := u.tx.ExecContext(ctx, query,
		transfer.ID,
		transfer.FromAccountID,
		transfer.ToAccountID,
		transfer.Amount.String(),
		transfer.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transfer: %w", err)
	}
	return nil
}

func uuidOrNil(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

// queryable covers *sql.Tx and *sql.DB for the shared helpers
type queryable interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func queryDecimal(ctx context.Context, q queryable, query string, args ...interface{}) (decimal.Decimal, error) {
	var valueStr string
	if err := q.QueryRowContext(ctx, query, args...).Scan(&valueStr); err != nil {
		return decimal.Zero, fmt.Errorf("failed to query decimal sum: %w", err)
	}
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse decimal sum: %w", err)
	}
	return value, nil
}

var _ domain.Store = (*Store)(nil)
