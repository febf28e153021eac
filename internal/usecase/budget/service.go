package budget

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rakapratama/projectledger-backend/internal/domain"
)

// UpsertLineItemInput represents the input for creating or updating a
// line item. A nil ID creates; a set ID updates that item in place.
type UpsertLineItemInput struct {
	ID          uuid.UUID // uuid.Nil on create
	ProjectID   uuid.UUID
	Category    string
	SubCategory string
	Name        string
	Description string
	Quantity    domain.Dimension
	Volume      domain.Dimension
	Period      domain.Dimension
	UnitPrice   decimal.Decimal
}

// CreateProjectInput represents the input for opening a project wallet
type CreateProjectInput struct {
	Name            string
	Client          string
	AllocatedBudget decimal.Decimal
}

// Availability is the result of the free-cash solvency check
type Availability struct {
	Allowed  bool
	FreeCash decimal.Decimal
}

// Service manages project wallets and their planned-cost line items.
// The planned-cost ceiling (sum of line items vs allocated budget) is
// enforced under the project row lock on every create and update; the
// free-cash check is advisory and runs on snapshot reads.
type Service struct {
	Store    domain.Store
	Accounts domain.AccountRepository
	Projects domain.ProjectRepository
}

// NewService creates a new budget Service instance
func NewService(store domain.Store, accounts domain.AccountRepository, projects domain.ProjectRepository) *Service {
	return &Service{
		Store:    store,
		Accounts: accounts,
		Projects: projects,
	}
}

// UpsertLineItem creates or updates a line item.
// Logic:
//  1. Validate the item and compute its planned cost
//  2. Lock the project row, so concurrent sibling edits serialize
//  3. Sum the planned costs of the project's other items (excluding
//     this one when updating)
//  4. Reject if the sums exceed the allocated budget, reporting the
//     remaining headroom
//  5. Persist the item
//
// Editing quantities or prices re-runs the check: an update can
// retroactively violate the budget and is rejected the same way.
func (s *Service) UpsertLineItem(ctx context.Context, input UpsertLineItemInput) (*domain.LineItem, error) {
	item := &domain.LineItem{
		ID:          input.ID,
		ProjectID:   input.ProjectID,
		Category:    input.Category,
		SubCategory: input.SubCategory,
		Name:        input.Name,
		Description: input.Description,
		Quantity:    applyDefaultUnit(input.Quantity, domain.DefaultQuantityUnit),
		Volume:      applyDefaultUnit(input.Volume, domain.DefaultVolumeUnit),
		Period:      applyDefaultUnit(input.Period, domain.DefaultPeriodUnit),
		UnitPrice:   input.UnitPrice,
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	err := s.Store.Within(ctx, func(uow domain.UnitOfWork) error {
		project, err := uow.ProjectForUpdate(ctx, input.ProjectID)
		if err != nil {
			return err
		}
		if !project.IsActive() {
			return &domain.ProjectNotActiveError{ProjectID: project.ID, Status: project.Status}
		}

		excludeID := uuid.Nil
		if input.ID != uuid.Nil {
			existing, err := uow.LineItem(ctx, input.ID)
			if err != nil {
				return err
			}
			if existing.ProjectID != input.ProjectID {
				return &domain.ProjectMismatchError{
					LineItemID:        existing.ID,
					LineItemProjectID: existing.ProjectID,
					ProjectID:         input.ProjectID,
				}
			}
			excludeID = input.ID
		}

		otherItemsCost, err := uow.PlannedTotalByProject(ctx, input.ProjectID, excludeID)
		if err != nil {
			return err
		}
		if err := domain.CheckPlannedBudget(project, otherItemsCost, item.PlannedCost()); err != nil {
			return err
		}

		return uow.PutLineItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// CheckAvailability reports whether a candidate allocated budget fits
// the company's free cash: total bank assets minus the allocations of
// all ACTIVE projects (excluding the project being modified, if any).
// The check is advisory; it mutates nothing and takes no locks.
func (s *Service) CheckAvailability(ctx context.Context, candidate decimal.Decimal, exclude *uuid.UUID) (Availability, error) {
	totalAssets, err := s.Accounts.TotalAssets(ctx)
	if err != nil {
		return Availability{}, err
	}
	lockedFunds, err := s.Projects.LockedFunds(ctx, exclude)
	if err != nil {
		return Availability{}, err
	}

	freeCash := totalAssets.Sub(lockedFunds)
	return Availability{
		Allowed:  candidate.LessThanOrEqual(freeCash),
		FreeCash: freeCash,
	}, nil
}

// CreateProject opens a new ACTIVE project wallet. The allocation must
// pass the free-cash check first; the gap between check and commit is
// the accepted advisory race.
func (s *Service) CreateProject(ctx context.Context, input CreateProjectInput) (*domain.ProjectWallet, error) {
	project := &domain.ProjectWallet{
		ID:              uuid.New(),
		Name:            input.Name,
		Client:          input.Client,
		Status:          domain.ProjectStatusActive,
		AllocatedBudget: input.AllocatedBudget,
		CreatedAt:       time.Now().UTC(),
	}
	if err := project.Validate(); err != nil {
		return nil, err
	}

	availability, err := s.CheckAvailability(ctx, input.AllocatedBudget, nil)
	if err != nil {
		return nil, err
	}
	if !availability.Allowed {
		return nil, &domain.InsufficientFreeCashError{
			Candidate: input.AllocatedBudget,
			FreeCash:  availability.FreeCash,
		}
	}

	err = s.Store.Within(ctx, func(uow domain.UnitOfWork) error {
		return uow.CreateProject(ctx, project)
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// UpdateAllocation changes a project's allocated budget. Increases on
// an ACTIVE project must pass the free-cash check (excluding the
// project's own current allocation from locked funds).
func (s *Service) UpdateAllocation(ctx context.Context, projectID uuid.UUID, allocated decimal.Decimal) (*domain.ProjectWallet, error) {
	if allocated.IsNegative() {
		return nil, &domain.InvalidAmountError{Amount: allocated}
	}

	current, err := s.Projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if current.IsActive() && allocated.GreaterThan(current.AllocatedBudget) {
		availability, err := s.CheckAvailability(ctx, allocated, &projectID)
		if err != nil {
			return nil, err
		}
		if !availability.Allowed {
			return nil, &domain.InsufficientFreeCashError{
				Candidate: allocated,
				FreeCash:  availability.FreeCash,
			}
		}
	}

	var updated *domain.ProjectWallet
	err = s.Store.Within(ctx, func(uow domain.UnitOfWork) error {
		project, err := uow.ProjectForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		project.AllocatedBudget = allocated

		// The new ceiling must still cover the planned costs and the
		// realized spend already committed, both summed under the lock
		plannedTotal, err := uow.PlannedTotalByProject(ctx, projectID, uuid.Nil)
		if err != nil {
			return err
		}
		realizedSpend, err := uow.OutTotalByProject(ctx, projectID)
		if err != nil {
			return err
		}
		if err := domain.CheckAllocationCovers(project, plannedTotal, realizedSpend); err != nil {
			return err
		}

		updated = project
		return uow.SaveProject(ctx, project)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetStatus moves a project through its lifecycle. COMPLETED and
// CANCELLED projects stop counting toward locked funds and reject new
// postings and line items. Re-activating a project locks its allocation
// again, so it must pass the free-cash check like a new project.
func (s *Service) SetStatus(ctx context.Context, projectID uuid.UUID, status domain.ProjectStatus) (*domain.ProjectWallet, error) {
	if status == domain.ProjectStatusActive {
		current, err := s.Projects.GetByID(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if !current.IsActive() {
			availability, err := s.CheckAvailability(ctx, current.AllocatedBudget, &projectID)
			if err != nil {
				return nil, err
			}
			if !availability.Allowed {
				return nil, &domain.InsufficientFreeCashError{
					Candidate: current.AllocatedBudget,
					FreeCash:  availability.FreeCash,
				}
			}
		}
	}

	var updated *domain.ProjectWallet
	err := s.Store.Within(ctx, func(uow domain.UnitOfWork) error {
		project, err := uow.ProjectForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		project.Status = status
		if err := project.Validate(); err != nil {
			return err
		}
		updated = project
		return uow.SaveProject(ctx, project)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func applyDefaultUnit(dim domain.Dimension, unit string) domain.Dimension {
	if dim.Unit == "" {
		dim.Unit = unit
	}
	return dim
}
