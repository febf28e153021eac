package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrTransientLock marks a unit of work that failed to acquire its row
// locks (or to commit) within the bounded wait. It is the only error
// kind a caller may retry unchanged; every other kind is terminal for
// that request.
var ErrTransientLock = errors.New("transient lock failure, retry the operation")

// IsRetryable reports whether the caller may retry the operation unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientLock)
}

// ValidationError reports an entity or input field that breaks a
// domain rule. Transports can match it as a class without inspecting
// the message.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	if e.ID == uuid.Nil {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InvalidAmountError reports a non-positive amount on a posting or transfer.
type InvalidAmountError struct {
	Amount decimal.Decimal
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("amount must be positive, got %s", e.Amount)
}

// SameAccountTransferError reports a transfer whose source and
// destination are the same account.
type SameAccountTransferError struct {
	AccountID uuid.UUID
}

func (e *SameAccountTransferError) Error() string {
	return fmt.Sprintf("cannot transfer from account %s to itself", e.AccountID)
}

// ProjectMismatchError reports a posting that names both a project and a
// line item belonging to a different project. This is a data-integrity
// error, not a user mistake that can be corrected by retrying.
type ProjectMismatchError struct {
	LineItemID        uuid.UUID
	LineItemProjectID uuid.UUID
	ProjectID         uuid.UUID
}

func (e *ProjectMismatchError) Error() string {
	return fmt.Sprintf("line item %s belongs to project %s, not %s",
		e.LineItemID, e.LineItemProjectID, e.ProjectID)
}

// MissingProjectError reports an OUT posting with no project resolved.
type MissingProjectError struct{}

func (e *MissingProjectError) Error() string {
	return "expense entries must reference a project"
}

// InsufficientFundsError reports an account balance too low for the
// requested movement. Balance and Requested give the caller enough to
// render a user-facing message.
type InsufficientFundsError struct {
	AccountID uuid.UUID
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("account %s has %s, cannot move %s",
		e.AccountID, e.Balance, e.Requested)
}

// OverBudgetError reports an OUT posting that would push a project's
// realized spend (sum of prior OUT entries) past its allocated budget.
type OverBudgetError struct {
	ProjectID       uuid.UUID
	AllocatedBudget decimal.Decimal
	RealizedSpend   decimal.Decimal
	Requested       decimal.Decimal
}

func (e *OverBudgetError) Error() string {
	return fmt.Sprintf("project %s has spent %s of %s, cannot spend %s more",
		e.ProjectID, e.RealizedSpend, e.AllocatedBudget, e.Requested)
}

// BudgetExceededError reports a line item whose planned cost does not
// fit the project's remaining planned headroom.
type BudgetExceededError struct {
	ProjectID uuid.UUID
	Remaining decimal.Decimal // allocated budget minus the other items' planned costs
	Requested decimal.Decimal
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("project %s has %s of planned budget left, line item costs %s",
		e.ProjectID, e.Remaining, e.Requested)
}

// InsufficientFreeCashError reports a project allocation that exceeds
// the company's available free cash.
type InsufficientFreeCashError struct {
	Candidate decimal.Decimal
	FreeCash  decimal.Decimal
}

func (e *InsufficientFreeCashError) Error() string {
	return fmt.Sprintf("allocation %s exceeds available free cash %s",
		e.Candidate, e.FreeCash)
}

// ProjectNotActiveError reports an operation against a project that is
// no longer ACTIVE.
type ProjectNotActiveError struct {
	ProjectID uuid.UUID
	Status    ProjectStatus
}

func (e *ProjectNotActiveError) Error() string {
	return fmt.Sprintf("project %s is %s, not ACTIVE", e.ProjectID, e.Status)
}
