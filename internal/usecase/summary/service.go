package summary

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rakapratama/projectledger-backend/internal/domain"
)

// ProjectSummary holds the derived figures for one project wallet.
// Everything here is recomputed from the ledger and the line items on
// every call; nothing is cached.
type ProjectSummary struct {
	ProjectID         uuid.UUID
	TotalSpent        decimal.Decimal // sum of OUT ledger entries
	RemainingBudget   decimal.Decimal // allocated budget minus total spent
	GrandTotalPlanned decimal.Decimal // sum of line items' planned costs
	CategoryTotals    map[string]decimal.Decimal
}

// LineItemSummary holds the derived figures for one line item
type LineItemSummary struct {
	LineItemID    uuid.UUID
	PlannedCost   decimal.Decimal
	RealizedSpend decimal.Decimal
	Margin        decimal.Decimal // planned cost minus realized spend
}

// Overview holds the company-wide treasury figures shown on the
// dashboard
type Overview struct {
	TotalAssets decimal.Decimal
	LockedFunds decimal.Decimal
	FreeCash    decimal.Decimal
	Solvent     bool // false when locked funds exceed total assets
}

// Service derives spent/remaining/margin figures from the ledger and
// budget data. It is strictly read-only.
type Service struct {
	Accounts  domain.AccountRepository
	Projects  domain.ProjectRepository
	LineItems domain.LineItemRepository
	Ledger    domain.LedgerRepository
}

// NewService creates a new summary Service instance
func NewService(
	accounts domain.AccountRepository,
	projects domain.ProjectRepository,
	lineItems domain.LineItemRepository,
	ledger domain.LedgerRepository,
) *Service {
	return &Service{
		Accounts:  accounts,
		Projects:  projects,
		LineItems: lineItems,
		Ledger:    ledger,
	}
}

// ProjectSummary computes the realized and planned figures for a project
func (s *Service) ProjectSummary(ctx context.Context, projectID uuid.UUID) (*ProjectSummary, error) {
	project, err := s.Projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	totalSpent, err := s.Ledger.OutTotalByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum project spend: %w", err)
	}

	items, err := s.LineItems.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list line items: %w", err)
	}

	grandTotal := decimal.Zero
	categoryTotals := make(map[string]decimal.Decimal)
	for _, item := range items {
		cost := item.PlannedCost()
		grandTotal = grandTotal.Add(cost)
		categoryTotals[item.Category] = categoryTotals[item.Category].Add(cost)
	}

	return &ProjectSummary{
		ProjectID:         projectID,
		TotalSpent:        totalSpent,
		RemainingBudget:   project.AllocatedBudget.Sub(totalSpent),
		GrandTotalPlanned: grandTotal,
		CategoryTotals:    categoryTotals,
	}, nil
}

// LineItemSummary computes planned cost, realized spend and margin for
// one line item
func (s *Service) LineItemSummary(ctx context.Context, lineItemID uuid.UUID) (*LineItemSummary, error) {
	item, err := s.LineItems.GetByID(ctx, lineItemID)
	if err != nil {
		return nil, err
	}

	realized, err := s.Ledger.OutTotalByLineItem(ctx, lineItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum line item spend: %w", err)
	}

	planned := item.PlannedCost()
	return &LineItemSummary{
		LineItemID:    lineItemID,
		PlannedCost:   planned,
		RealizedSpend: realized,
		Margin:        planned.Sub(realized),
	}, nil
}

// Overview computes the company-wide treasury figures: total bank
// assets, funds locked by ACTIVE projects, and the free cash left for
// new allocations
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	totalAssets, err := s.Accounts.TotalAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum bank assets: %w", err)
	}

	lockedFunds, err := s.Projects.LockedFunds(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to sum locked funds: %w", err)
	}

	freeCash := totalAssets.Sub(lockedFunds)
	return &Overview{
		TotalAssets: totalAssets,
		LockedFunds: lockedFunds,
		FreeCash:    freeCash,
		Solvent:     !freeCash.IsNegative(),
	}, nil
}
