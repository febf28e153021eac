package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProjectStatus represents the lifecycle state of a project wallet
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
	ProjectStatusCancelled ProjectStatus = "CANCELLED"
)

// ProjectWallet is a budget envelope for a single project.
// While ACTIVE its allocated budget counts toward the company's locked
// funds, the sum of its line items' planned costs must stay within the
// allocation, and so must the sum of its OUT ledger entries. The two
// ceilings are independent: planned cost and realized spend are never
// reconciled against each other.
type ProjectWallet struct {
	ID              uuid.UUID
	Name            string
	Client          string
	Status          ProjectStatus
	AllocatedBudget decimal.Decimal
	CreatedAt       time.Time
}

// Validate ensures the project wallet adheres to domain rules
func (p *ProjectWallet) Validate() error {
	if p.Name == "" {
		return &ValidationError{Msg: "project name cannot be empty"}
	}
	if p.AllocatedBudget.IsNegative() {
		return &ValidationError{Msg: "allocated budget cannot be negative"}
	}
	switch p.Status {
	case ProjectStatusActive, ProjectStatusCompleted, ProjectStatusCancelled:
	default:
		return &ValidationError{Msg: "project status must be ACTIVE, COMPLETED or CANCELLED"}
	}
	return nil
}

// IsActive reports whether the project still locks funds and accepts
// postings and line-item edits.
func (p *ProjectWallet) IsActive() bool {
	return p.Status == ProjectStatusActive
}
