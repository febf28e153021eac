package http

import (
	nethttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/rakapratama/projectledger-backend/internal/domain"
	"github.com/rakapratama/projectledger-backend/internal/usecase/ledger"
)

const defaultListLimit = 50

func (s *Server) postEntry(c *gin.Context) {
	var req postEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	accountID, err := parseOptionalUUID(req.AccountID)
	if err != nil || accountID == nil {
		badRequest(c, "invalid account_id format")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		badRequest(c, "invalid amount format")
		return
	}
	projectID, err := parseOptionalUUID(req.ProjectID)
	if err != nil {
		badRequest(c, "invalid project_id format")
		return
	}
	lineItemID, err := parseOptionalUUID(req.LineItemID)
	if err != nil {
		badRequest(c, "invalid line_item_id format")
		return
	}

	entry, err := s.ledger.PostEntry(c.Request.Context(), ledger.PostEntryInput{
		AccountID:   *accountID,
		Amount:      amount,
		Kind:        domain.EntryKind(req.Kind),
		ProjectID:   projectID,
		LineItemID:  lineItemID,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(nethttp.StatusCreated, toEntryResponse(entry))
}

func (s *Server) postTransfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	fromID, err := parseOptionalUUID(req.FromAccountID)
	if err != nil || fromID == nil {
		badRequest(c, "invalid from_account_id format")
		return
	}
	toID, err := parseOptionalUUID(req.ToAccountID)
	if err != nil || toID == nil {
		badRequest(c, "invalid to_account_id format")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		badRequest(c, "invalid amount format")
		return
	}

	transfer, err := s.ledger.Transfer(c.Request.Context(), ledger.TransferInput{
		FromAccountID: *fromID,
		ToAccountID:   *toID,
		Amount:        amount,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(nethttp.StatusCreated, toTransferResponse(transfer))
}

func (s *Server) listEntries(c *gin.Context) {
	filter := domain.EntryFilter{Limit: defaultListLimit}

	accountID, err := parseOptionalUUID(c.Query("account_id"))
	if err != nil {
		badRequest(c, "invalid account_id format")
		return
	}
	filter.AccountID = accountID

	projectID, err := parseOptionalUUID(c.Query("project_id"))
	if err != nil {
		badRequest(c, "invalid project_id format")
		return
	}
	filter.ProjectID = projectID

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			badRequest(c, "limit must be positive")
			return
		}
		filter.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			badRequest(c, "offset must be non-negative")
			return
		}
		filter.Offset = offset
	}

	entries, err := s.entries.ListEntries(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, toEntryResponse(entry))
	}
	c.JSON(nethttp.StatusOK, gin.H{"entries": resp})
}

func (s *Server) listTransfers(c *gin.Context) {
	transfers, err := s.entries.ListTransfers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]transferResponse, 0, len(transfers))
	for _, transfer := range transfers {
		resp = append(resp, toTransferResponse(transfer))
	}
	c.JSON(nethttp.StatusOK, gin.H{"transfers": resp})
}

func (s *Server) getCompanyWallet(c *gin.Context) {
	wallet, err := s.wallet.Get(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(nethttp.StatusOK, gin.H{
		"id":      wallet.ID.String(),
		"name":    wallet.Name,
		"balance": wallet.Balance.String(),
	})
}

func (s *Server) listAccounts(c *gin.Context) {
	accounts, err := s.accounts.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]accountResponse, 0, len(accounts))
	for _, account := range accounts {
		resp = append(resp, toAccountResponse(account))
	}
	c.JSON(nethttp.StatusOK, gin.H{"accounts": resp})
}
