package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rakapratama/projectledger-backend/internal/domain"
)

// Event topics published after a unit of work commits
const (
	TopicEntryPosted    = "ledger.entry.posted"
	TopicTransferPosted = "ledger.transfer.posted"
)

// EventPublisher notifies external consumers after a commit. Publishing
// is best-effort and never part of the unit of work's atomicity.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event any) error
}

// EntryPostedEvent is the payload published on TopicEntryPosted
type EntryPostedEvent struct {
	EntryID   string    `json:"entry_id"`
	AccountID string    `json:"account_id"`
	ProjectID *string   `json:"project_id,omitempty"`
	Amount    string    `json:"amount"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// TransferPostedEvent is the payload published on TopicTransferPosted
type TransferPostedEvent struct {
	TransferID    string    `json:"transfer_id"`
	FromAccountID string    `json:"from_account_id"`
	ToAccountID   string    `json:"to_account_id"`
	Amount        string    `json:"amount"`
	CreatedAt     time.Time `json:"created_at"`
}

// PostEntryInput represents the input for posting a ledger entry
type PostEntryInput struct {
	AccountID   uuid.UUID
	Amount      decimal.Decimal
	Kind        domain.EntryKind
	ProjectID   *uuid.UUID
	LineItemID  *uuid.UUID
	Description string
}

// TransferInput represents the input for a transfer between accounts
type TransferInput struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal
}

// Service is the ledger engine. It validates and atomically applies
// balance-affecting operations: every mutation happens inside one unit
// of work that takes exclusive row locks in the global order (account
// before project, sibling accounts by ascending ID) and re-validates
// the invariants under those locks before writing.
type Service struct {
	Store  domain.Store
	Events EventPublisher
}

// NewService creates a new ledger Service instance
func NewService(store domain.Store, events EventPublisher) *Service {
	return &Service{
		Store:  store,
		Events: events,
	}
}

// PostEntry records an income or expense against a bank account.
// Logic:
//  1. Reject non-positive amounts
//  2. Resolve the project: a line item implies its project; an explicit
//     project must match the line item's; OUT requires a project
//  3. Lock the account row, then the project row
//  4. For OUT, require the balance to cover the amount and the realized
//     spend to stay within the allocated budget
//  5. Apply the balance change and append the immutable entry
func (s *Service) PostEntry(ctx context.Context, input PostEntryInput) (*domain.LedgerEntry, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, &domain.InvalidAmountError{Amount: input.Amount}
	}
	if input.Kind != domain.EntryKindIn && input.Kind != domain.EntryKindOut {
		return nil, &domain.ValidationError{Msg: "entry kind must be IN or OUT"}
	}

	var entry *domain.LedgerEntry
	err := s.Store.Within(ctx, func(uow domain.UnitOfWork) error {
		var item *domain.LineItem
		if input.LineItemID != nil {
			fetched, err := uow.LineItem(ctx, *input.LineItemID)
			if err != nil {
				return err
			}
			item = fetched
		}

		projectID, err := domain.ResolvePostingProject(input.Kind, input.ProjectID, item)
		if err != nil {
			return err
		}

		// Fixed lock order: account before project
		account, err := uow.AccountForUpdate(ctx, input.AccountID)
		if err != nil {
			return err
		}

		var project *domain.ProjectWallet
		if projectID != nil {
			project, err = uow.ProjectForUpdate(ctx, *projectID)
			if err != nil {
				return err
			}
			if !project.IsActive() {
				return &domain.ProjectNotActiveError{ProjectID: project.ID, Status: project.Status}
			}
		}

		if input.Kind == domain.EntryKindOut {
			// Realized spend is summed under the project lock so two
			// concurrent expenses cannot both pass a stale ceiling
			realized, err := uow.OutTotalByProject(ctx, *projectID)
			if err != nil {
				return err
			}
			if err := domain.CheckOutPosting(account, project, realized, input.Amount); err != nil {
				return err
			}
			account.Balance = account.Balance.Sub(input.Amount)
		} else {
			account.Balance = account.Balance.Add(input.Amount)
		}

		if err := uow.SaveAccountBalance(ctx, account); err != nil {
			return err
		}

		var lineItemID *uuid.UUID
		if item != nil {
			id := item.ID
			lineItemID = &id
		}
		entry = &domain.LedgerEntry{
			ID:          uuid.New(),
			AccountID:   account.ID,
			ProjectID:   projectID,
			LineItemID:  lineItemID,
			Amount:      input.Amount,
			Kind:        input.Kind,
			Description: input.Description,
			CreatedAt:   time.Now().UTC(),
		}
		return uow.AddEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.publishEntry(ctx, entry)
	return entry, nil
}

// Transfer atomically moves funds between two distinct bank accounts.
// Both account rows are locked in ascending ID order regardless of
// which is the source, so two opposite transfers over the same pair
// cannot deadlock.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (*domain.Transfer, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, &domain.InvalidAmountError{Amount: input.Amount}
	}
	if input.FromAccountID == input.ToAccountID {
		return nil, &domain.SameAccountTransferError{AccountID: input.FromAccountID}
	}

	var transfer *domain.Transfer
	err := s.Store.Within(ctx, func(uow domain.UnitOfWork) error {
		first, second := input.FromAccountID, input.ToAccountID
		if second.String() < first.String() {
			first, second = second, first
		}

		firstAccount, err := uow.AccountForUpdate(ctx, first)
		if err != nil {
			return err
		}
		secondAccount, err := uow.AccountForUpdate(ctx, second)
		if err != nil {
			return err
		}

		from, to := firstAccount, secondAccount
		if from.ID != input.FromAccountID {
			from, to = secondAccount, firstAccount
		}

		if err := domain.CheckTransferSource(from, input.Amount); err != nil {
			return err
		}

		from.Balance = from.Balance.Sub(input.Amount)
		to.Balance = to.Balance.Add(input.Amount)

		if err := uow.SaveAccountBalance(ctx, from); err != nil {
			return err
		}
		if err := uow.SaveAccountBalance(ctx, to); err != nil {
			return err
		}

		transfer = &domain.Transfer{
			ID:            uuid.New(),
			FromAccountID: input.FromAccountID,
			ToAccountID:   input.ToAccountID,
			Amount:        input.Amount,
			CreatedAt:     time.Now().UTC(),
		}
		return uow.AddTransfer(ctx, transfer)
	})
	if err != nil {
		return nil, err
	}

	s.publishTransfer(ctx, transfer)
	return transfer, nil
}

func (s *Service) publishEntry(ctx context.Context, entry *domain.LedgerEntry) {
	if s.Events == nil {
		return
	}
	event := EntryPostedEvent{
		EntryID:   entry.ID.String(),
		AccountID: entry.AccountID.String(),
		Amount:    entry.Amount.String(),
		Kind:      string(entry.Kind),
		CreatedAt: entry.CreatedAt,
	}
	if entry.ProjectID != nil {
		id := entry.ProjectID.String()
		event.ProjectID = &id
	}
	// Best-effort: the entry is already durable, the publisher logs
	// its own failures.
	_ = s.Events.Publish(ctx, TopicEntryPosted, event)
}

func (s *Service) publishTransfer(ctx context.Context, transfer *domain.Transfer) {
	if s.Events == nil {
		return
	}
	_ = s.Events.Publish(ctx, TopicTransferPosted, TransferPostedEvent{
		TransferID:    transfer.ID.String(),
		FromAccountID: transfer.FromAccountID.String(),
		ToAccountID:   transfer.ToAccountID.String(),
		Amount:        transfer.Amount.String(),
		CreatedAt:     transfer.CreatedAt,
	})
}
