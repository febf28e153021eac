package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Default units for line-item dimensions
const (
	DefaultQuantityUnit = "pcs"
	DefaultVolumeUnit   = "set"
	DefaultPeriodUnit   = "event"
)

// Dimension is one multiplicative quantity dimension of a line item:
// an amount plus the unit it is expressed in (e.g. 3 "pcs", 2 "day").
type Dimension struct {
	Amount decimal.Decimal
	Unit   string
}

// LineItem is a planned-cost row inside a project's budget envelope.
// Its planned cost is the product of the three quantity dimensions and
// the unit price; the sum of planned costs across a project's line items
// must never exceed the project's allocated budget.
type LineItem struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	Category    string
	SubCategory string
	Name        string
	Description string
	Quantity    Dimension
	Volume      Dimension
	Period      Dimension
	UnitPrice   decimal.Decimal
}

// PlannedCost computes quantity x volume x period x unit price.
func (li *LineItem) PlannedCost() decimal.Decimal {
	return li.Quantity.Amount.
		Mul(li.Volume.Amount).
		Mul(li.Period.Amount).
		Mul(li.UnitPrice)
}

// Validate ensures the line item adheres to domain rules
func (li *LineItem) Validate() error {
	if li.ProjectID == uuid.Nil {
		return &ValidationError{Msg: "line item must belong to a project"}
	}
	if li.Name == "" {
		return &ValidationError{Msg: "line item name cannot be empty"}
	}
	if li.Category == "" {
		return &ValidationError{Msg: "line item category cannot be empty"}
	}
	for _, dim := range []Dimension{li.Quantity, li.Volume, li.Period} {
		if dim.Amount.LessThanOrEqual(decimal.Zero) {
			return &ValidationError{Msg: "dimension amounts must be positive"}
		}
	}
	if li.UnitPrice.IsNegative() {
		return &ValidationError{Msg: "unit price cannot be negative"}
	}
	return nil
}
