package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) getProjectSummary(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid project id format")
		return
	}

	sum, err := s.summary.ProjectSummary(c.Request.Context(), projectID)
	if err != nil {
		writeError(c, err)
		return
	}

	categories := make(map[string]string, len(sum.CategoryTotals))
	for category, total := range sum.CategoryTotals {
		categories[category] = total.String()
	}

	c.JSON(nethttp.StatusOK, gin.H{
		"project_id":          sum.ProjectID.String(),
		"total_spent":         sum.TotalSpent.String(),
		"remaining_budget":    sum.RemainingBudget.String(),
		"grand_total_planned": sum.GrandTotalPlanned.String(),
		"category_totals":     categories,
	})
}

func (s *Server) getLineItemSummary(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid line item id format")
		return
	}

	sum, err := s.summary.LineItemSummary(c.Request.Context(), itemID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(nethttp.StatusOK, gin.H{
		"line_item_id":   sum.LineItemID.String(),
		"planned_cost":   sum.PlannedCost.String(),
		"realized_spend": sum.RealizedSpend.String(),
		"margin":         sum.Margin.String(),
	})
}

func (s *Server) getOverview(c *gin.Context) {
	overview, err := s.summary.Overview(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(nethttp.StatusOK, gin.H{
		"total_assets": overview.TotalAssets.String(),
		"locked_funds": overview.LockedFunds.String(),
		"free_cash":    overview.FreeCash.String(),
		"solvent":      overview.Solvent,
	})
}
