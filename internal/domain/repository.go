package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The read-side repository interfaces. Implementations may serve these
// from snapshot/consistent reads without row locks: everything here is
// informational or advisory, never part of a write's atomicity.

// AccountRepository defines the read side of bank account persistence
type AccountRepository interface {
	// GetByID retrieves an account by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*BankAccount, error)

	// GetByName retrieves an account by its unique name
	GetByName(ctx context.Context, name string) (*BankAccount, error)

	// Create creates a new bank account
	Create(ctx context.Context, account *BankAccount) error

	// List retrieves all bank accounts
	List(ctx context.Context) ([]*BankAccount, error)

	// TotalAssets returns the sum of balances over all bank accounts
	TotalAssets(ctx context.Context) (decimal.Decimal, error)
}

// CompanyWalletRepository defines persistence for the legacy company wallet
type CompanyWalletRepository interface {
	// Get retrieves the company wallet; a NotFoundError means it has
	// not been seeded yet
	Get(ctx context.Context) (*CompanyWallet, error)

	// Create creates the company wallet
	Create(ctx context.Context, wallet *CompanyWallet) error
}

// ProjectRepository defines the read side of project wallet persistence
type ProjectRepository interface {
	// GetByID retrieves a project wallet by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*ProjectWallet, error)

	// List retrieves all project wallets
	List(ctx context.Context) ([]*ProjectWallet, error)

	// LockedFunds returns the sum of allocated budgets over all ACTIVE
	// projects, excluding the given project if non-nil (used when an
	// existing project's allocation is being changed)
	LockedFunds(ctx context.Context, exclude *uuid.UUID) (decimal.Decimal, error)
}

// LineItemRepository defines the read side of line item persistence
type LineItemRepository interface {
	// GetByID retrieves a line item by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*LineItem, error)

	// ListByProject retrieves all line items of a project
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*LineItem, error)

	// ListUnspentByProject retrieves the project's line items with no
	// OUT ledger entry against them yet
	ListUnspentByProject(ctx context.Context, projectID uuid.UUID) ([]*LineItem, error)

	// Delete removes a line item. Ledger entries referencing it keep
	// their amount and account linkage; the reference becomes null.
	Delete(ctx context.Context, id uuid.UUID) error
}

// EntryFilter narrows a ledger entry listing
type EntryFilter struct {
	AccountID *uuid.UUID
	ProjectID *uuid.UUID
	Limit     int
	Offset    int
}

// LedgerRepository defines the read side of the immutable ledger
type LedgerRepository interface {
	// ListEntries retrieves ledger entries, newest first
	ListEntries(ctx context.Context, filter EntryFilter) ([]*LedgerEntry, error)

	// ListTransfers retrieves transfers, newest first
	ListTransfers(ctx context.Context) ([]*Transfer, error)

	// OutTotalByProject returns the sum of OUT entry amounts
	// referencing the project (its realized spend)
	OutTotalByProject(ctx context.Context, projectID uuid.UUID) (decimal.Decimal, error)

	// OutTotalByLineItem returns the sum of OUT entry amounts
	// referencing the line item
	OutTotalByLineItem(ctx context.Context, lineItemID uuid.UUID) (decimal.Decimal, error)
}
