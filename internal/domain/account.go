package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankAccount represents a company bank account holding real funds.
// Its balance is mutated only by the ledger engine inside a unit of work
// and must never go below zero.
type BankAccount struct {
	ID      uuid.UUID
	Name    string
	Balance decimal.Decimal
}

// Validate ensures the account adheres to domain rules
func (a *BankAccount) Validate() error {
	if a.Name == "" {
		return &ValidationError{Msg: "account name cannot be empty"}
	}
	if a.Balance.IsNegative() {
		return &ValidationError{Msg: "account balance cannot be negative"}
	}
	return nil
}

// CompanyWallet is the legacy aggregate balance of the company.
// It is listed alongside bank accounts but is not part of the
// money-movement invariant surface: no posting path touches it.
type CompanyWallet struct {
	ID      uuid.UUID
	Name    string
	Balance decimal.Decimal
}
