package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryKind represents the direction of a ledger entry
type EntryKind string

const (
	EntryKindIn  EntryKind = "IN"
	EntryKindOut EntryKind = "OUT"
)

// LedgerEntry is an immutable record of money moving into or out of a
// bank account, optionally tied to a project and a line item.
// Once created, its amount, kind, account, project and timestamp never
// change. A removed line item nulls the reference; the entry itself and
// its account linkage survive.
type LedgerEntry struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	ProjectID   *uuid.UUID
	LineItemID  *uuid.UUID
	Amount      decimal.Decimal
	Kind        EntryKind
	Description string
	CreatedAt   time.Time // assigned inside the unit of work at apply time
}

// Transfer is an immutable record of funds moved between two distinct
// bank accounts.
type Transfer struct {
	ID            uuid.UUID
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal
	CreatedAt     time.Time
}
