package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakapratama/projectledger-backend/internal/adapter/repository/memory"
	"github.com/rakapratama/projectledger-backend/internal/domain"
)

// capturingPublisher records published events for assertions
type capturingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *capturingPublisher) Publish(ctx context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func seedAccount(t *testing.T, store *memory.Store, name string, balance int64) *domain.BankAccount {
	t.Helper()
	account := &domain.BankAccount{
		ID:      uuid.New(),
		Name:    name,
		Balance: decimal.NewFromInt(balance),
	}
	require.NoError(t, store.Create(context.Background(), account))
	return account
}

func seedProject(t *testing.T, store *memory.Store, name string, budget int64, status domain.ProjectStatus) *domain.ProjectWallet {
	t.Helper()
	project := &domain.ProjectWallet{
		ID:              uuid.New(),
		Name:            name,
		Status:          status,
		AllocatedBudget: decimal.NewFromInt(budget),
	}
	require.NoError(t, store.Within(context.Background(), func(uow domain.UnitOfWork) error {
		return uow.CreateProject(context.Background(), project)
	}))
	return project
}

func seedLineItem(t *testing.T, store *memory.Store, projectID uuid.UUID, name string, price int64) *domain.LineItem {
	t.Helper()
	item := &domain.LineItem{
		ID:        uuid.New(),
		ProjectID: projectID,
		Category:  "General",
		Name:      name,
		Quantity:  domain.Dimension{Amount: decimal.NewFromInt(1), Unit: domain.DefaultQuantityUnit},
		Volume:    domain.Dimension{Amount: decimal.NewFromInt(1), Unit: domain.DefaultVolumeUnit},
		Period:    domain.Dimension{Amount: decimal.NewFromInt(1), Unit: domain.DefaultPeriodUnit},
		UnitPrice: decimal.NewFromInt(price),
	}
	require.NoError(t, store.Within(context.Background(), func(uow domain.UnitOfWork) error {
		return uow.PutLineItem(context.Background(), item)
	}))
	return item
}

func TestPostEntry_Income(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	events := &capturingPublisher{}
	service := NewService(store, events)

	account := seedAccount(t, store, "BCA", 1000)

	entry, err := service.PostEntry(ctx, PostEntryInput{
		AccountID:   account.ID,
		Amount:      decimal.NewFromInt(400),
		Kind:        domain.EntryKindIn,
		Description: "Client down payment",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.EntryKindIn, entry.Kind)
	assert.Nil(t, entry.ProjectID)
	assert.False(t, entry.CreatedAt.IsZero())

	updated, err := store.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1400).Equal(updated.Balance))
	assert.Equal(t, []string{TopicEntryPosted}, events.topics)
}

func TestPostEntry_InvalidAmount(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := NewService(store, nil)

	account := seedAccount(t, store, "BCA", 1000)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err := service.PostEntry(ctx, PostEntryInput{
			AccountID: account.ID,
			Amount:    amount,
			Kind:      domain.EntryKindIn,
		})
		var invalid *domain.InvalidAmountError
		assert.ErrorAs(t, err, &invalid)
	}
}

func TestPostEntry_ExpenseRequiresProject(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := NewService(store, nil)

	account := seedAccount(t, store, "BCA", 1000)

	_, err := service.PostEntry(ctx, PostEntryInput{
		AccountID: account.ID,
		Amount:    decimal.NewFromInt(100),
		Kind:      domain.EntryKindOut,
	})

	var missing *domain.MissingProjectError
	require.ErrorAs(t, err, &missing)

	// No partial effect
	updated, err := store.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(updated.Balance))
}

func TestPostEntry_InsufficientFundsLeavesBalance(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := NewService(store, nil)

	// Account balance 1000, project budget 2000 with 0 spent:
	// an OUT of 1500 fails on funds, not budget
	account := seedAccount(t, store, "BCA", 1000)
	project := seedProject(t, store, "Depot upgrade", 2000, domain.ProjectStatusActive)

	_, err := service.PostEntry(ctx, PostEntryInput{
		AccountID: account.ID,
		Amount:    decimal.NewFromInt(1500),
		Kind:      domain.EntryKindOut,
		ProjectID: &project.ID,
	})

	var insufficient *domain.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, decimal.NewFromInt(1000).Equal(insufficient.Balance))

	updated, err := store.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(updated.Balance))

	entries, err := store.Ledger().ListEntries(ctx, domain.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPostEntry_OverBudget(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := NewService(store, nil)

	account := seedAccount(t, store, "BCA", 10000)
	project := seedProject(t, store, "Depot upgrade", 2000, domain.ProjectStatusActive)

	_, err := service.PostEntry(ctx, PostEntryInput{
		AccountID: account.ID,
		Amount:    decimal.NewFromInt(1800),
		Kind:      domain.EntryKindOut,
		ProjectID: &project.ID,
	})
	require.NoError(t, err)

	_, err = service.PostEntry(ctx, PostEntryInput{
		AccountID: account.ID,
		Amount:    decimal.NewFromInt(300),
		Kind:      domain.EntryKindOut,
		ProjectID: &project.ID,
	})

	var over *domain.OverBudgetError
	require.ErrorAs(t, err, &over)
	assert.True(t, decimal.NewFromInt(1800).Equal(over.RealizedSpend))

	// The failed posting must not touch the balance
	updated, err := store.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(8200).Equal(updated.Balance))
}

func TestPostEntry_ProjectInferredFromLineItem(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := NewService(store, nil)

	account := seedAccount(t, store, "BCA", 1000)
	project := seedProject(t, store, "Depot upgrade", 2000, domain.ProjectStatusActive)
	item := seedLineItem(t, store, project.ID, "Cement", 100)

	entry, err := service.PostEntry(ctx, PostEntryInput{
		AccountID:  account.ID,
		Amount:     decimal.NewFromInt(100),
		Kind:       domain.EntryKindOut,
		LineItemID: &item.ID,
	})

	require.NoError(t, err)
	require.NotNil(t, entry.ProjectID)
	assert.Equal(t, project.ID, *entry.ProjectID)
	require.NotNil(t, entry.LineItemID)
	assert.Equal(t, item.ID, *entry.LineItemID)
}

func TestPostEntry_ProjectMismatch(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := NewService(store, nil)

	account := seedAccount(t, store, "BCA", 1000)
	project := seedProject(t, store, "Depot upgrade", 2000, domain.ProjectStatusActive)
	other := seedProject(t, store, "Launch event", 500, domain.ProjectStatusActive)
	item := seedLineItem(t, store, project.ID, "Cement", 100)

	_, err := service.PostEntry(ctx, PostEntryInput{
		AccountID:  account.ID,
		Amount:     decimal.NewFromInt(100),
		Kind:       domain.EntryKindOut,
		ProjectID:  &other.ID,
		LineItemID: &item.ID,
	})

	var mismatch *domain.ProjectMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestPostEntry_InactiveProject(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := NewService(store, nil)

	account := seedAccount(t, store, "BCA", 1000)
	project := seedProject(t, store, "Depot upgrade", 2000, domain.ProjectStatusCancelled)

	_, err := service.PostEntry(ctx, PostEntryInput{
		AccountID: account.ID,
		Amount:    decimal.NewFromInt(100),
		Kind:      domain.EntryKindOut,
		ProjectID: &project.ID,
	})

	var inactive *domain.ProjectNotActiveError
	require.ErrorAs(t, err, &inactive)
	assert.Equal(t, domain.ProjectStatusCancelled, inactive.Status)
}

func TestPostEntry_ConcurrentExpensesNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := NewService(store, nil)

	// Balance 1000 and eight concurrent OUT postings of 300 each:
	// exactly three can fit, the rest must fail with InsufficientFunds
	account := seedAccount(t, store, "BCA", 1000)
	project := seedProject(t, store, "Depot upgrade", 100000, domain.ProjectStatusActive)

	const workers = 8
	results := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = service.PostEntry(ctx, PostEntryInput{
				AccountID: account.ID,
				Amount:    decimal.NewFromInt(300),
				Kind:      domain.EntryKindOut,
				ProjectID: &project.ID,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			var insufficient *domain.InsufficientFundsError
			require.ErrorAs(t, err, &insufficient)
		}
	}
	assert.Equal(t, 3, succeeded)

	updated, err := store.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(updated.Balance),
		"final balance must be 1000 - 3*300, got %s", updated.Balance)
	assert.False(t, updated.Balance.IsNegative())
}

func TestTransfer_MovesFunds(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	events := &capturingPublisher{}
	service := NewService(store, events)

	from := seedAccount(t, store, "BCA", 300)
	to := seedAccount(t, store, "Mandiri", 50)

	transfer, err := service.Transfer(ctx, TransferInput{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        decimal.NewFromInt(200),
	})

	require.NoError(t, err)
	assert.Equal(t, from.ID, transfer.FromAccountID)
	assert.Equal(t, to.ID, transfer.ToAccountID)

	updatedFrom, err := store.GetByID(ctx, from.ID)
	require.NoError(t, err)
	updatedTo, err := store.GetByID(ctx, to.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(updatedFrom.Balance))
	assert.True(t, decimal.NewFromInt(250).Equal(updatedTo.Balance))

	transfers, err := store.Ledger().ListTransfers(ctx)
	require.NoError(t, err)
	assert.Len(t, transfers, 1)
	assert.Equal(t, []string{TopicTransferPosted}, events.topics)
}

func TestTransfer_SameAccount(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := NewService(store, nil)

	account := seedAccount(t, store, "BCA", 300)

	_, err := service.Transfer(ctx, TransferInput{
		FromAccountID: account.ID,
		ToAccountID:   account.ID,
		Amount:        decimal.NewFromInt(50),
	})

	var same *domain.SameAccountTransferError
	assert.ErrorAs(t, err, &same)
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := NewService(store, nil)

	from := seedAccount(t, store, "BCA", 100)
	to := seedAccount(t, store, "Mandiri", 50)

	_, err := service.Transfer(ctx, TransferInput{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        decimal.NewFromInt(200),
	})

	var insufficient *domain.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)

	// Neither side moves on failure
	updatedFrom, err := store.GetByID(ctx, from.ID)
	require.NoError(t, err)
	updatedTo, err := store.GetByID(ctx, to.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(updatedFrom.Balance))
	assert.True(t, decimal.NewFromInt(50).Equal(updatedTo.Balance))
}

func TestTransfer_ConcurrentOppositeDirections(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := NewService(store, nil)

	a := seedAccount(t, store, "BCA", 1000)
	b := seedAccount(t, store, "Mandiri", 1000)

	// Opposite transfers over the same pair must neither deadlock nor
	// lose an update
	const rounds = 20
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := service.Transfer(ctx, TransferInput{
				FromAccountID: a.ID, ToAccountID: b.ID, Amount: decimal.NewFromInt(10),
			})
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := service.Transfer(ctx, TransferInput{
				FromAccountID: b.ID, ToAccountID: a.ID, Amount: decimal.NewFromInt(10),
			})
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	updatedA, err := store.GetByID(ctx, a.ID)
	require.NoError(t, err)
	updatedB, err := store.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(updatedA.Balance))
	assert.True(t, decimal.NewFromInt(1000).Equal(updatedB.Balance))
}
