//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakapratama/projectledger-backend/internal/adapter/repository/postgres"
	"github.com/rakapratama/projectledger-backend/internal/domain"
	"github.com/rakapratama/projectledger-backend/internal/usecase/budget"
	"github.com/rakapratama/projectledger-backend/internal/usecase/ledger"
)

var (
	db    *postgres.DB
	store *postgres.Store
)

// TestMain connects to the database once for the whole suite. Run the
// migrations in migrations/ against the test database first.
func TestMain(m *testing.M) {
	dbConnStr := os.Getenv("DB_CONN_STR")
	if dbConnStr == "" {
		dbConnStr = "host=localhost port=5432 user=postgres password=postgres dbname=projectledger_test sslmode=disable"
	}

	var err error
	db, err = postgres.NewDB(dbConnStr)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to database: %v", err))
	}
	defer db.Close()

	store = postgres.NewStore(db)

	code := m.Run()
	os.Exit(code)
}

// cleanup removes all rows in dependency order so each test starts from
// an empty ledger.
func cleanup(t *testing.T) {
	t.Helper()
	for _, table := range []string{"transfers", "ledger_entries", "line_items", "project_wallets", "bank_accounts", "company_wallets"} {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}
}

func createAccount(t *testing.T, name string, balance int64) uuid.UUID {
	t.Helper()
	account := &domain.BankAccount{
		ID:      uuid.New(),
		Name:    name,
		Balance: decimal.NewFromInt(balance),
	}
	repo := postgres.NewAccountRepository(db)
	require.NoError(t, repo.Create(context.Background(), account))
	return account.ID
}

func createProject(t *testing.T, name string, allocated int64) uuid.UUID {
	t.Helper()
	project := &domain.ProjectWallet{
		ID:              uuid.New(),
		Name:            name,
		Status:          domain.ProjectStatusActive,
		AllocatedBudget: decimal.NewFromInt(allocated),
	}
	require.NoError(t, store.Within(context.Background(), func(uow domain.UnitOfWork) error {
		return uow.CreateProject(context.Background(), project)
	}))
	return project.ID
}

func TestPostEntry_PersistsBalanceAndEntry(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	accountID := createAccount(t, "BCA", 1000)

	svc := ledger.NewService(store, nil)
	entry, err := svc.PostEntry(ctx, ledger.PostEntryInput{
		AccountID:   accountID,
		Amount:      decimal.NewFromInt(400),
		Kind:        domain.EntryKindIn,
		Description: "client payment",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, entry.ID)

	account, err := postgres.NewAccountRepository(db).GetByID(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(1400)))

	entries, err := postgres.NewLedgerRepository(db).ListEntries(ctx, domain.EntryFilter{AccountID: &accountID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(400)))
}

func TestPostEntry_RejectionLeavesNoTrace(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	accountID := createAccount(t, "BCA", 1000)
	projectID := createProject(t, "Website Revamp", 5000)

	svc := ledger.NewService(store, nil)
	_, err := svc.PostEntry(ctx, ledger.PostEntryInput{
		AccountID: accountID,
		Amount:    decimal.NewFromInt(1500),
		Kind:      domain.EntryKindOut,
		ProjectID: &projectID,
	})
	var insufficient *domain.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)

	account, err := postgres.NewAccountRepository(db).GetByID(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(1000)))

	entries, err := postgres.NewLedgerRepository(db).ListEntries(ctx, domain.EntryFilter{AccountID: &accountID, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// Eight concurrent 300 expenses against a 1000 balance: the row lock
// serializes them and exactly three may commit.
func TestPostEntry_ConcurrentExpensesNeverOverdraw(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	accountID := createAccount(t, "BCA", 1000)
	projectID := createProject(t, "Website Revamp", 5000)

	svc := ledger.NewService(store, nil)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.PostEntry(ctx, ledger.PostEntryInput{
				AccountID: accountID,
				Amount:    decimal.NewFromInt(300),
				Kind:      domain.EntryKindOut,
				ProjectID: &projectID,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			var insufficient *domain.InsufficientFundsError
			assert.ErrorAs(t, err, &insufficient)
		}
	}
	assert.Equal(t, 3, succeeded)

	account, err := postgres.NewAccountRepository(db).GetByID(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(100)), "balance is %s", account.Balance)
}

// Opposite-direction transfers between the same two accounts must not
// deadlock: both units of work lock the accounts in ascending ID order.
func TestTransfer_ConcurrentOppositeDirections(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	aID := createAccount(t, "BCA", 500)
	bID := createAccount(t, "Mandiri", 500)

	svc := ledger.NewService(store, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.Transfer(ctx, ledger.TransferInput{FromAccountID: aID, ToAccountID: bID, Amount: decimal.NewFromInt(100)})
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := svc.Transfer(ctx, ledger.TransferInput{FromAccountID: bID, ToAccountID: aID, Amount: decimal.NewFromInt(250)})
		assert.NoError(t, err)
	}()
	wg.Wait()

	repo := postgres.NewAccountRepository(db)
	a, err := repo.GetByID(ctx, aID)
	require.NoError(t, err)
	b, err := repo.GetByID(ctx, bID)
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(decimal.NewFromInt(650)), "a is %s", a.Balance)
	assert.True(t, b.Balance.Equal(decimal.NewFromInt(350)), "b is %s", b.Balance)
}

// Concurrent sibling line items race for the same planned-cost
// headroom; the project row lock admits only what fits.
func TestUpsertLineItem_ConcurrentSiblingsRespectCeiling(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	createAccount(t, "BCA", 100000)
	projectID := createProject(t, "Website Revamp", 1000)

	svc := budget.NewService(store, postgres.NewAccountRepository(db), postgres.NewProjectRepository(db))

	const attempts = 6
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.UpsertLineItem(ctx, budget.UpsertLineItemInput{
				ProjectID: projectID,
				Category:  "Design",
				Name:      fmt.Sprintf("Item %d", i),
				Quantity:  domain.Dimension{Amount: decimal.NewFromInt(1)},
				Volume:    domain.Dimension{Amount: decimal.NewFromInt(1)},
				Period:    domain.Dimension{Amount: decimal.NewFromInt(1)},
				UnitPrice: decimal.NewFromInt(300),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 3, succeeded)

	items, err := postgres.NewLineItemRepository(db).ListByProject(ctx, projectID)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestDeleteLineItem_NullsLedgerReference(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	accountID := createAccount(t, "BCA", 5000)
	projectID := createProject(t, "Website Revamp", 2000)

	budgetSvc := budget.NewService(store, postgres.NewAccountRepository(db), postgres.NewProjectRepository(db))
	item, err := budgetSvc.UpsertLineItem(ctx, budget.UpsertLineItemInput{
		ProjectID: projectID,
		Category:  "Design",
		Name:      "Wireframes",
		Quantity:  domain.Dimension{Amount: decimal.NewFromInt(1)},
		Volume:    domain.Dimension{Amount: decimal.NewFromInt(1)},
		Period:    domain.Dimension{Amount: decimal.NewFromInt(1)},
		UnitPrice: decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	ledgerSvc := ledger.NewService(store, nil)
	_, err = ledgerSvc.PostEntry(ctx, ledger.PostEntryInput{
		AccountID:  accountID,
		Amount:     decimal.NewFromInt(500),
		Kind:       domain.EntryKindOut,
		LineItemID: &item.ID,
	})
	require.NoError(t, err)

	require.NoError(t, postgres.NewLineItemRepository(db).Delete(ctx, item.ID))

	entries, err := postgres.NewLedgerRepository(db).ListEntries(ctx, domain.EntryFilter{AccountID: &accountID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].LineItemID)
	assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(500)))
}
