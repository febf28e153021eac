package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnitOfWork is the write side of the store as seen from inside one
// serializable unit of work. The ForUpdate reads take exclusive row
// locks; everything read through them stays locked until the unit
// commits or rolls back. Callers must acquire locks in the global
// order: account rows before project rows, and sibling account rows by
// ascending ID.
type UnitOfWork interface {
	// AccountForUpdate reads a bank account under an exclusive row lock
	AccountForUpdate(ctx context.Context, id uuid.UUID) (*BankAccount, error)

	// ProjectForUpdate reads a project wallet under an exclusive row lock
	ProjectForUpdate(ctx context.Context, id uuid.UUID) (*ProjectWallet, error)

	// LineItem reads a line item (no lock of its own; concurrent
	// sibling edits are serialized through the project row lock)
	LineItem(ctx context.Context, id uuid.UUID) (*LineItem, error)

	// OutTotalByProject sums the project's OUT entries within the unit
	// of work, so the realized-spend ceiling is checked under lock
	OutTotalByProject(ctx context.Context, projectID uuid.UUID) (decimal.Decimal, error)

	// PlannedTotalByProject sums planned costs over the project's line
	// items, excluding the given item when updating (uuid.Nil excludes
	// nothing)
	PlannedTotalByProject(ctx context.Context, projectID, excludeItem uuid.UUID) (decimal.Decimal, error)

	// SaveAccountBalance persists a locked account's new balance
	SaveAccountBalance(ctx context.Context, account *BankAccount) error

	// SaveProject persists a locked project's allocation and status
	SaveProject(ctx context.Context, project *ProjectWallet) error

	// CreateProject persists a new project wallet
	CreateProject(ctx context.Context, project *ProjectWallet) error

	// PutLineItem creates or replaces a line item
	PutLineItem(ctx context.Context, item *LineItem) error

	// AddEntry appends an immutable ledger entry
	AddEntry(ctx context.Context, entry *LedgerEntry) error

	// AddTransfer appends an immutable transfer record
	AddTransfer(ctx context.Context, transfer *Transfer) error
}

// Store runs units of work. Within executes fn inside one atomic unit:
// either every write fn issued lands, or none does. A unit that cannot
// take its locks within the store's bounded wait fails with
// ErrTransientLock and leaves no partial writes.
type Store interface {
	Within(ctx context.Context, fn func(uow UnitOfWork) error) error
}
