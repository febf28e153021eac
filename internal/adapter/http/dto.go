package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rakapratama/projectledger-backend/internal/domain"
)

// Monetary values cross the wire as strings so clients never touch
// binary floats.

type accountResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

type projectResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Client          string    `json:"client,omitempty"`
	Status          string    `json:"status"`
	AllocatedBudget string    `json:"allocated_budget"`
	CreatedAt       time.Time `json:"created_at"`
}

type dimensionPayload struct {
	Amount string `json:"amount"`
	Unit   string `json:"unit,omitempty"`
}

type lineItemResponse struct {
	ID          string           `json:"id"`
	ProjectID   string           `json:"project_id"`
	Category    string           `json:"category"`
	SubCategory string           `json:"sub_category,omitempty"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Quantity    dimensionPayload `json:"quantity"`
	Volume      dimensionPayload `json:"volume"`
	Period      dimensionPayload `json:"period"`
	UnitPrice   string           `json:"unit_price"`
	PlannedCost string           `json:"planned_cost"`
}

type entryResponse struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	ProjectID   string    `json:"project_id,omitempty"`
	LineItemID  string    `json:"line_item_id,omitempty"`
	Amount      string    `json:"amount"`
	Kind        string    `json:"kind"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type transferResponse struct {
	ID            string    `json:"id"`
	FromAccountID string    `json:"from_account_id"`
	ToAccountID   string    `json:"to_account_id"`
	Amount        string    `json:"amount"`
	CreatedAt     time.Time `json:"created_at"`
}

type postEntryRequest struct {
	AccountID   string `json:"account_id" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Kind        string `json:"kind" binding:"required"`
	ProjectID   string `json:"project_id"`
	LineItemID  string `json:"line_item_id"`
	Description string `json:"description"`
}

type transferRequest struct {
	FromAccountID string `json:"from_account_id" binding:"required"`
	ToAccountID   string `json:"to_account_id" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
}

type lineItemRequest struct {
	ProjectID   string           `json:"project_id" binding:"required"`
	Category    string           `json:"category" binding:"required"`
	SubCategory string           `json:"sub_category"`
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Quantity    dimensionPayload `json:"quantity"`
	Volume      dimensionPayload `json:"volume"`
	Period      dimensionPayload `json:"period"`
	UnitPrice   string           `json:"unit_price" binding:"required"`
}

type createProjectRequest struct {
	Name            string `json:"name" binding:"required"`
	Client          string `json:"client"`
	AllocatedBudget string `json:"allocated_budget" binding:"required"`
}

type allocationRequest struct {
	AllocatedBudget string `json:"allocated_budget" binding:"required"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func toAccountResponse(a *domain.BankAccount) accountResponse {
	return accountResponse{
		ID:      a.ID.String(),
		Name:    a.Name,
		Balance: a.Balance.String(),
	}
}

func toProjectResponse(p *domain.ProjectWallet) projectResponse {
	return projectResponse{
		ID:              p.ID.String(),
		Name:            p.Name,
		Client:          p.Client,
		Status:          string(p.Status),
		AllocatedBudget: p.AllocatedBudget.String(),
		CreatedAt:       p.CreatedAt,
	}
}

func toLineItemResponse(li *domain.LineItem) lineItemResponse {
	return lineItemResponse{
		ID:          li.ID.String(),
		ProjectID:   li.ProjectID.String(),
		Category:    li.Category,
		SubCategory: li.SubCategory,
		Name:        li.Name,
		Description: li.Description,
		Quantity:    toDimensionPayload(li.Quantity),
		Volume:      toDimensionPayload(li.Volume),
		Period:      toDimensionPayload(li.Period),
		UnitPrice:   li.UnitPrice.String(),
		PlannedCost: li.PlannedCost().String(),
	}
}

func toDimensionPayload(d domain.Dimension) dimensionPayload {
	return dimensionPayload{Amount: d.Amount.String(), Unit: d.Unit}
}

func toEntryResponse(e *domain.LedgerEntry) entryResponse {
	resp := entryResponse{
		ID:          e.ID.String(),
		AccountID:   e.AccountID.String(),
		Amount:      e.Amount.String(),
		Kind:        string(e.Kind),
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
	if e.ProjectID != nil {
		resp.ProjectID = e.ProjectID.String()
	}
	if e.LineItemID != nil {
		resp.LineItemID = e.LineItemID.String()
	}
	return resp
}

func toTransferResponse(t *domain.Transfer) transferResponse {
	return transferResponse{
		ID:            t.ID.String(),
		FromAccountID: t.FromAccountID.String(),
		ToAccountID:   t.ToAccountID.String(),
		Amount:        t.Amount.String(),
		CreatedAt:     t.CreatedAt,
	}
}

// parseDimension converts a wire dimension. An absent amount means the
// caller wants the default quantity of one with the default unit.
func parseDimension(p dimensionPayload) (domain.Dimension, error) {
	if p.Amount == "" {
		return domain.Dimension{Amount: decimal.NewFromInt(1), Unit: p.Unit}, nil
	}
	amount, err := decimal.NewFromString(p.Amount)
	if err != nil {
		return domain.Dimension{}, err
	}
	return domain.Dimension{Amount: amount, Unit: p.Unit}, nil
}

// parseOptionalUUID returns nil for the empty string.
func parseOptionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
