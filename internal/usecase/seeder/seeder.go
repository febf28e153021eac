package seeder

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rakapratama/projectledger-backend/internal/domain"
)

// Fixed UUIDs for the seeded accounts, so repeated boots are idempotent
var (
	AccountBCA     = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	AccountMandiri = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	AccountBRI     = uuid.MustParse("00000000-0000-0000-0000-000000000003")
	AccountCash    = uuid.MustParse("00000000-0000-0000-0000-000000000004")

	CompanyWalletID = uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
)

// CompanyWalletName is the display name of the single company wallet
const CompanyWalletName = "Main Company Wallet"

// defaultAccounts is the standard set of company bank accounts
var defaultAccounts = []struct {
	ID   uuid.UUID
	Name string
}{
	{AccountBCA, "BCA"},
	{AccountMandiri, "Mandiri"},
	{AccountBRI, "BRI"},
	{AccountCash, "CASH"},
}

// Seeder bootstraps the money store: the company wallet and the default
// bank accounts, all starting at zero balance
type Seeder struct {
	accounts domain.AccountRepository
	wallet   domain.CompanyWalletRepository
}

// NewSeeder creates a new Seeder instance
func NewSeeder(accounts domain.AccountRepository, wallet domain.CompanyWalletRepository) *Seeder {
	return &Seeder{
		accounts: accounts,
		wallet:   wallet,
	}
}

// Seed ensures the company wallet and every default bank account exist.
// Existing rows are left untouched, so balances survive restarts. Only
// a NotFoundError means "create it"; any other lookup failure aborts
// the boot instead of racing the store with blind inserts.
func (s *Seeder) Seed(ctx context.Context) error {
	if _, err := s.wallet.Get(ctx); err != nil {
		if !isNotFound(err) {
			return err
		}
		wallet := &domain.CompanyWallet{
			ID:      CompanyWalletID,
			Name:    CompanyWalletName,
			Balance: decimal.Zero,
		}
		if err := s.wallet.Create(ctx, wallet); err != nil {
			return err
		}
	}

	for _, seed := range defaultAccounts {
		_, err := s.accounts.GetByID(ctx, seed.ID)
		if err == nil {
			continue
		}
		if !isNotFound(err) {
			return err
		}

		account := &domain.BankAccount{
			ID:      seed.ID,
			Name:    seed.Name,
			Balance: decimal.Zero,
		}
		if err := account.Validate(); err != nil {
			return err
		}
		if err := s.accounts.Create(ctx, account); err != nil {
			return err
		}
	}

	return nil
}

func isNotFound(err error) bool {
	var notFound *domain.NotFoundError
	return errors.As(err, &notFound)
}
