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

// accountRepository implements domain.AccountRepository
type accountRepository struct {
	db *DB
}

// NewAccountRepository creates a new bank account repository
func NewAccountRepository(db *DB) domain.AccountRepository {
	return &accountRepository{db: db}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*domain.BankAccount, error) {
	var account domain.BankAccount
	var balanceStr string
	if err := row.Scan(&account.ID, &account.Name, &balanceStr); err != nil {
		return nil, err
	}
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	account.Balance = balance
	return &account, nil
}

// GetByID retrieves an account by its ID
func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.BankAccount, error) {
	query := `SELECT id, name, balance FROM bank_accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "bank account", ID: id}
		}
		return nil, fmt.Errorf("failed to get bank account: %w", err)
	}
	return account, nil
}

// GetByName retrieves an account by its unique name
func (r *accountRepository) GetByName(ctx context.Context, name string) (*domain.BankAccount, error) {
	query := `SELECT id, name, balance FROM bank_accounts WHERE name = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "bank account"}
		}
		return nil, fmt.Errorf("failed to get bank account by name: %w", err)
	}
	return account, nil
}

// Create creates a new bank account
func (r *accountRepository) Create(ctx context.Context, account *domain.BankAccount) error {
	query := `INSERT INTO bank_accounts (id, name, balance) VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, account.ID, account.Name, account.Balance.String())
	if err != nil {
		return fmt.Errorf("failed to create bank account: %w", err)
	}
	return nil
}

// List retrieves all bank accounts ordered by name
func (r *accountRepository) List(ctx context.Context) ([]*domain.BankAccount, error) {
	query := `SELECT id, name, balance FROM bank_accounts ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.BankAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bank accounts: %w", err)
	}
	return accounts, nil
}

// TotalAssets returns the sum of balances over all bank accounts
func (r *accountRepository) TotalAssets(ctx context.Context) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(balance), 0) FROM bank_accounts`
	return queryDecimal(ctx, r.db, query)
}

// walletRepository implements domain.CompanyWalletRepository
type walletRepository struct {
	db *DB
}

// NewCompanyWalletRepository creates a new company wallet repository
func NewCompanyWalletRepository(db *DB) domain.CompanyWalletRepository {
	return &walletRepository{db: db}
}

// Get retrieves the company wallet
func (r *walletRepository) Get(ctx context.Context) (*domain.CompanyWallet, error) {
	query := `SELECT id, name, balance FROM company_wallets LIMIT 1`

	var wallet domain.CompanyWallet
	var balanceStr string
	err := r.db.QueryRowContext(ctx, query).Scan(&wallet.ID, &wallet.Name, &balanceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "company wallet"}
		}
		return nil, fmt.Errorf("failed to get company wallet: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	wallet.Balance = balance
	return &wallet, nil
}

// Create creates the company wallet
func (r *walletRepository) Create(ctx context.Context, wallet *domain.CompanyWallet) error {
	query := `INSERT INTO company_wallets (id, name, balance) VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, wallet.ID, wallet.Name, wallet.Balance.String())
	if err != nil {
		return fmt.Errorf("failed to create company wallet: %w", err)
	}
	return nil
}
