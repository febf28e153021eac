package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// This file holds the pure decision functions behind the ledger engine.
// They take already-fetched rows and return the typed error for the
// first violated rule, so the rule set is unit-testable without a store.
// The engine calls them again under row locks before applying writes.

// ResolvePostingProject decides which project a posting applies to.
// A line item given without a project implies the line item's project;
// if both are given they must agree. OUT entries must end up with a
// project; IN entries may have none.
func ResolvePostingProject(kind EntryKind, projectID *uuid.UUID, item *LineItem) (*uuid.UUID, error) {
	resolved := projectID
	if item != nil {
		if resolved == nil {
			p := item.ProjectID
			resolved = &p
		} else if *resolved != item.ProjectID {
			return nil, &ProjectMismatchError{
				LineItemID:        item.ID,
				LineItemProjectID: item.ProjectID,
				ProjectID:         *resolved,
			}
		}
	}
	if kind == EntryKindOut && resolved == nil {
		return nil, &MissingProjectError{}
	}
	return resolved, nil
}

// CheckOutPosting enforces the two write-time ceilings on an expense:
// the account must cover the amount, and the project's realized spend
// (sum of prior OUT entries, planned costs play no part) plus the
// amount must stay within the allocated budget.
func CheckOutPosting(account *BankAccount, project *ProjectWallet, realizedSpend, amount decimal.Decimal) error {
	if account.Balance.LessThan(amount) {
		return &InsufficientFundsError{
			AccountID: account.ID,
			Balance:   account.Balance,
			Requested: amount,
		}
	}
	if realizedSpend.Add(amount).GreaterThan(project.AllocatedBudget) {
		return &OverBudgetError{
			ProjectID:       project.ID,
			AllocatedBudget: project.AllocatedBudget,
			RealizedSpend:   realizedSpend,
			Requested:       amount,
		}
	}
	return nil
}

// CheckTransferSource enforces that the source account covers the amount.
func CheckTransferSource(from *BankAccount, amount decimal.Decimal) error {
	if from.Balance.LessThan(amount) {
		return &InsufficientFundsError{
			AccountID: from.ID,
			Balance:   from.Balance,
			Requested: amount,
		}
	}
	return nil
}

// CheckAllocationCovers verifies that a project's allocated budget
// still covers what the project has already committed: the planned
// costs of its line items and the realized spend posted against it.
// Lowering an allocation must not retroactively break either ceiling.
func CheckAllocationCovers(project *ProjectWallet, plannedTotal, realizedSpend decimal.Decimal) error {
	if plannedTotal.GreaterThan(project.AllocatedBudget) {
		return &BudgetExceededError{
			ProjectID: project.ID,
			Remaining: project.AllocatedBudget,
			Requested: plannedTotal,
		}
	}
	if realizedSpend.GreaterThan(project.AllocatedBudget) {
		return &OverBudgetError{
			ProjectID:       project.ID,
			AllocatedBudget: project.AllocatedBudget,
			RealizedSpend:   realizedSpend,
			Requested:       decimal.Zero,
		}
	}
	return nil
}

// CheckPlannedBudget enforces the planned-cost ceiling on a line item:
// the other items' planned costs plus this item's cost must fit the
// allocated budget. The returned error carries the remaining headroom.
func CheckPlannedBudget(project *ProjectWallet, otherItemsCost, thisItemCost decimal.Decimal) error {
	if otherItemsCost.Add(thisItemCost).GreaterThan(project.AllocatedBudget) {
		return &BudgetExceededError{
			ProjectID: project.ID,
			Remaining: project.AllocatedBudget.Sub(otherItemsCost),
			Requested: thisItemCost,
		}
	}
	return nil
}
