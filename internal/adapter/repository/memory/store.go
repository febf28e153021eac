package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rakapratama/projectledger-backend/internal/domain"
)

// Store is an in-memory implementation of the domain store and the
// read-side repositories, used by unit tests and local runs without a
// database. One mutex serializes units of work; a snapshot taken at the
// start of each unit restores the previous state when the unit fails,
// so a rejected operation leaves every entity exactly as it was.
type Store struct {
	mu        sync.Mutex
	accounts  map[uuid.UUID]*domain.BankAccount
	wallet    *domain.CompanyWallet
	projects  map[uuid.UUID]*domain.ProjectWallet
	items     map[uuid.UUID]*domain.LineItem
	entries   []*domain.LedgerEntry
	transfers []*domain.Transfer
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		accounts: make(map[uuid.UUID]*domain.BankAccount),
		projects: make(map[uuid.UUID]*domain.ProjectWallet),
		items:    make(map[uuid.UUID]*domain.LineItem),
	}
}

// snapshot captures a deep copy of the whole store state
type snapshot struct {
	accounts  map[uuid.UUID]*domain.BankAccount
	wallet    *domain.CompanyWallet
	projects  map[uuid.UUID]*domain.ProjectWallet
	items     map[uuid.UUID]*domain.LineItem
	entries   []*domain.LedgerEntry
	transfers []*domain.Transfer
}

func (s *Store) takeSnapshot() snapshot {
	snap := snapshot{
		accounts:  make(map[uuid.UUID]*domain.BankAccount, len(s.accounts)),
		projects:  make(map[uuid.UUID]*domain.ProjectWallet, len(s.projects)),
		items:     make(map[uuid.UUID]*domain.LineItem, len(s.items)),
		entries:   make([]*domain.LedgerEntry, len(s.entries)),
		transfers: make([]*domain.Transfer, len(s.transfers)),
	}
	for id, a := range s.accounts {
		cp := *a
		snap.accounts[id] = &cp
	}
	if s.wallet != nil {
		cp := *s.wallet
		snap.wallet = &cp
	}
	for id, p := range s.projects {
		cp := *p
		snap.projects[id] = &cp
	}
	for id, li := range s.items {
		cp := *li
		snap.items[id] = &cp
	}
	// Entries and transfers are immutable once created; copying the
	// slices is enough.
	copy(snap.entries, s.entries)
	copy(snap.transfers, s.transfers)
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.accounts = snap.accounts
	s.wallet = snap.wallet
	s.projects = snap.projects
	s.items = snap.items
	s.entries = snap.entries
	s.transfers = snap.transfers
}

// Within runs fn as one atomic unit of work. Units are serialized by
// the store mutex, which trivially satisfies the row-locking contract;
// on error the pre-unit snapshot is restored.
func (s *Store) Within(ctx context.Context, fn func(uow domain.UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snap := s.takeSnapshot()
	if err := fn(&unitOfWork{store: s, ctx: ctx}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// unitOfWork operates directly on the store maps; the store mutex is
// already held for the whole unit.
type unitOfWork struct {
	store *Store
	ctx   context.Context
}

func (u *unitOfWork) AccountForUpdate(ctx context.Context, id uuid.UUID) (*domain.BankAccount, error) {
	account, ok := u.store.accounts[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "bank account", ID: id}
	}
	cp := *account
	return &cp, nil
}

func (u *unitOfWork) ProjectForUpdate(ctx context.Context, id uuid.UUID) (*domain.ProjectWallet, error) {
	project, ok := u.store.projects[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "project wallet", ID: id}
	}
	cp := *project
	return &cp, nil
}

func (u *unitOfWork) LineItem(ctx context.Context, id uuid.UUID) (*domain.LineItem, error) {
	item, ok := u.store.items[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "line item", ID: id}
	}
	cp := *item
	return &cp, nil
}

func (u *unitOfWork) OutTotalByProject(ctx context.Context, projectID uuid.UUID) (decimal.Decimal, error) {
	return u.store.outTotalByProjectLocked(projectID), nil
}

func (u *unitOfWork) PlannedTotalByProject(ctx context.Context, projectID, excludeItem uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, item := range u.store.items {
		if item.ProjectID == projectID && item.ID != excludeItem {
			total = total.Add(item.PlannedCost())
		}
	}
	return total, nil
}

func (u *unitOfWork) SaveAccountBalance(ctx context.Context, account *domain.BankAccount) error {
	existing, ok := u.store.accounts[account.ID]
	if !ok {
		return &domain.NotFoundError{Entity: "bank account", ID: account.ID}
	}
	existing.Balance = account.Balance
	return nil
}

func (u *unitOfWork) SaveProject(ctx context.Context, project *domain.ProjectWallet) error {
	existing, ok := u.store.projects[project.ID]
	if !ok {
		return &domain.NotFoundError{Entity: "project wallet", ID: project.ID}
	}
	existing.Status = project.Status
	existing.AllocatedBudget = project.AllocatedBudget
	existing.Name = project.Name
	existing.Client = project.Client
	return nil
}

func (u *unitOfWork) CreateProject(ctx context.Context, project *domain.ProjectWallet) error {
	cp := *project
	u.store.projects[project.ID] = &cp
	return nil
}

func (u *unitOfWork) PutLineItem(ctx context.Context, item *domain.LineItem) error {
	cp := *item
	u.store.items[item.ID] = &cp
	return nil
}

func (u *unitOfWork) AddEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	cp := *entry
	u.store.entries = append(u.store.entries, &cp)
	return nil
}

func (u *unitOfWork) AddTransfer(ctx context.Context, transfer *domain.Transfer) error {
	cp := *transfer
	u.store.transfers = append(u.store.transfers, &cp)
	return nil
}

func (s *Store) outTotalByProjectLocked(projectID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, e := range s.entries {
		if e.Kind == domain.EntryKindOut && e.ProjectID != nil && *e.ProjectID == projectID {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// --- read-side repositories ---

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*domain.BankAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "bank account", ID: id}
	}
	cp := *account
	return &cp, nil
}

func (s *Store) GetByName(ctx context.Context, name string) (*domain.BankAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.Name == name {
			cp := *account
			return &cp, nil
		}
	}
	return nil, &domain.NotFoundError{Entity: "bank account"}
}

func (s *Store) Create(ctx context.Context, account *domain.BankAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *account
	s.accounts[account.ID] = &cp
	return nil
}

func (s *Store) List(ctx context.Context) ([]*domain.BankAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts := make([]*domain.BankAccount, 0, len(s.accounts))
	for _, account := range s.accounts {
		cp := *account
		accounts = append(accounts, &cp)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	return accounts, nil
}

func (s *Store) TotalAssets(ctx context.Context) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, account := range s.accounts {
		total = total.Add(account.Balance)
	}
	return total, nil
}

func (s *Store) Get(ctx context.Context) (*domain.CompanyWallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wallet == nil {
		return nil, &domain.NotFoundError{Entity: "company wallet"}
	}
	cp := *s.wallet
	return &cp, nil
}

func (s *Store) CreateWallet(ctx context.Context, wallet *domain.CompanyWallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *wallet
	s.wallet = &cp
	return nil
}

// Wallet exposes the store as a CompanyWalletRepository; its Create
// method name collides with AccountRepository's, hence the adapter.
func (s *Store) Wallet() domain.CompanyWalletRepository {
	return walletRepo{s}
}

type walletRepo struct{ s *Store }

func (r walletRepo) Get(ctx context.Context) (*domain.CompanyWallet, error) {
	return r.s.Get(ctx)
}

func (r walletRepo) Create(ctx context.Context, wallet *domain.CompanyWallet) error {
	return r.s.CreateWallet(ctx, wallet)
}

// Projects exposes the store as a ProjectRepository
func (s *Store) Projects() domain.ProjectRepository {
	return projectRepo{s}
}

type projectRepo struct{ s *Store }

func (r projectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProjectWallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	project, ok := r.s.projects[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "project wallet", ID: id}
	}
	cp := *project
	return &cp, nil
}

func (r projectRepo) List(ctx context.Context) ([]*domain.ProjectWallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	projects := make([]*domain.ProjectWallet, 0, len(r.s.projects))
	for _, project := range r.s.projects {
		cp := *project
		projects = append(projects, &cp)
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.Before(projects[j].CreatedAt)
	})
	return projects, nil
}

func (r projectRepo) LockedFunds(ctx context.Context, exclude *uuid.UUID) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	locked := decimal.Zero
	for _, project := range r.s.projects {
		if project.Status != domain.ProjectStatusActive {
			continue
		}
		if exclude != nil && project.ID == *exclude {
			continue
		}
		locked = locked.Add(project.AllocatedBudget)
	}
	return locked, nil
}

// LineItems exposes the store as a LineItemRepository
func (s *Store) LineItems() domain.LineItemRepository {
	return lineItemRepo{s}
}

type lineItemRepo struct{ s *Store }

func (r lineItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.LineItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.items[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "line item", ID: id}
	}
	cp := *item
	return &cp, nil
}

func (r lineItemRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.LineItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.listItemsLocked(projectID, false), nil
}

func (r lineItemRepo) ListUnspentByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.LineItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.listItemsLocked(projectID, true), nil
}

func (r lineItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[id]; !ok {
		return &domain.NotFoundError{Entity: "line item", ID: id}
	}
	delete(r.s.items, id)
	// Ledger entries keep their amount and account; only the line-item
	// reference is nulled.
	for _, e := range r.s.entries {
		if e.LineItemID != nil && *e.LineItemID == id {
			e.LineItemID = nil
		}
	}
	return nil
}

func (s *Store) listItemsLocked(projectID uuid.UUID, unspentOnly bool) []*domain.LineItem {
	spent := make(map[uuid.UUID]bool)
	if unspentOnly {
		for _, e := range s.entries {
			if e.Kind == domain.EntryKindOut && e.LineItemID != nil {
				spent[*e.LineItemID] = true
			}
		}
	}
	items := make([]*domain.LineItem, 0)
	for _, item := range s.items {
		if item.ProjectID != projectID {
			continue
		}
		if unspentOnly && spent[item.ID] {
			continue
		}
		cp := *item
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

// Ledger exposes the store as a LedgerRepository
func (s *Store) Ledger() domain.LedgerRepository {
	return ledgerRepo{s}
}

type ledgerRepo struct{ s *Store }

func (r ledgerRepo) ListEntries(ctx context.Context, filter domain.EntryFilter) ([]*domain.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entries := make([]*domain.LedgerEntry, 0)
	// Stored oldest first; serve newest first.
	for i := len(r.s.entries) - 1; i >= 0; i-- {
		e := r.s.entries[i]
		if filter.AccountID != nil && e.AccountID != *filter.AccountID {
			continue
		}
		if filter.ProjectID != nil && (e.ProjectID == nil || *e.ProjectID != *filter.ProjectID) {
			continue
		}
		cp := *e
		entries = append(entries, &cp)
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(entries) {
			return nil, nil
		}
		entries = entries[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(entries) {
		entries = entries[:filter.Limit]
	}
	return entries, nil
}

func (r ledgerRepo) ListTransfers(ctx context.Context) ([]*domain.Transfer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	transfers := make([]*domain.Transfer, 0, len(r.s.transfers))
	for i := len(r.s.transfers) - 1; i >= 0; i-- {
		cp := *r.s.transfers[i]
		transfers = append(transfers, &cp)
	}
	return transfers, nil
}

func (r ledgerRepo) OutTotalByProject(ctx context.Context, projectID uuid.UUID) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.outTotalByProjectLocked(projectID), nil
}

func (r ledgerRepo) OutTotalByLineItem(ctx context.Context, lineItemID uuid.UUID) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := decimal.Zero
	for _, e := range r.s.entries {
		if e.Kind == domain.EntryKindOut && e.LineItemID != nil && *e.LineItemID == lineItemID {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

// Compile-time checks: the store serves both sides
var (
	_ domain.Store                   = (*Store)(nil)
	_ domain.AccountRepository       = (*Store)(nil)
	_ domain.CompanyWalletRepository = walletRepo{}
	_ domain.ProjectRepository       = projectRepo{}
	_ domain.LineItemRepository      = lineItemRepo{}
	_ domain.LedgerRepository        = ledgerRepo{}
)
