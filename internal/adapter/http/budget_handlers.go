package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rakapratama/projectledger-backend/internal/domain"
	"github.com/rakapratama/projectledger-backend/internal/usecase/budget"
)

func (s *Server) createProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	allocated, err := decimal.NewFromString(req.AllocatedBudget)
	if err != nil {
		badRequest(c, "invalid allocated_budget format")
		return
	}

	project, err := s.budget.CreateProject(c.Request.Context(), budget.CreateProjectInput{
		Name:            req.Name,
		Client:          req.Client,
		AllocatedBudget: allocated,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(nethttp.StatusCreated, toProjectResponse(project))
}

func (s *Server) listProjects(c *gin.Context) {
	projects, err := s.projects.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]projectResponse, 0, len(projects))
	for _, project := range projects {
		resp = append(resp, toProjectResponse(project))
	}
	c.JSON(nethttp.StatusOK, gin.H{"projects": resp})
}

func (s *Server) updateAllocation(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid project id format")
		return
	}

	var req allocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	allocated, err := decimal.NewFromString(req.AllocatedBudget)
	if err != nil {
		badRequest(c, "invalid allocated_budget format")
		return
	}

	project, err := s.budget.UpdateAllocation(c.Request.Context(), projectID, allocated)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(nethttp.StatusOK, toProjectResponse(project))
}

func (s *Server) setProjectStatus(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid project id format")
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	project, err := s.budget.SetStatus(c.Request.Context(), projectID, domain.ProjectStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(nethttp.StatusOK, toProjectResponse(project))
}

func (s *Server) createLineItem(c *gin.Context) {
	s.upsertLineItem(c, uuid.Nil)
}

func (s *Server) updateLineItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid line item id format")
		return
	}
	s.upsertLineItem(c, itemID)
}

func (s *Server) upsertLineItem(c *gin.Context, itemID uuid.UUID) {
	var req lineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		badRequest(c, "invalid project_id format")
		return
	}
	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		badRequest(c, "invalid unit_price format")
		return
	}
	quantity, err := parseDimension(req.Quantity)
	if err != nil {
		badRequest(c, "invalid quantity amount format")
		return
	}
	volume, err := parseDimension(req.Volume)
	if err != nil {
		badRequest(c, "invalid volume amount format")
		return
	}
	period, err := parseDimension(req.Period)
	if err != nil {
		badRequest(c, "invalid period amount format")
		return
	}

	item, err := s.budget.UpsertLineItem(c.Request.Context(), budget.UpsertLineItemInput{
		ID:          itemID,
		ProjectID:   projectID,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Name:        req.Name,
		Description: req.Description,
		Quantity:    quantity,
		Volume:      volume,
		Period:      period,
		UnitPrice:   unitPrice,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	status := nethttp.StatusOK
	if itemID == uuid.Nil {
		status = nethttp.StatusCreated
	}
	c.JSON(status, toLineItemResponse(item))
}

func (s *Server) deleteLineItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid line item id format")
		return
	}

	if err := s.lineItems.Delete(c.Request.Context(), itemID); err != nil {
		writeError(c, err)
		return
	}

	c.Status(nethttp.StatusNoContent)
}

func (s *Server) listLineItems(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid project id format")
		return
	}

	var items []*domain.LineItem
	if c.Query("unspent") == "true" {
		items, err = s.lineItems.ListUnspentByProject(c.Request.Context(), projectID)
	} else {
		items, err = s.lineItems.ListByProject(c.Request.Context(), projectID)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]lineItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toLineItemResponse(item))
	}
	c.JSON(nethttp.StatusOK, gin.H{"line_items": resp})
}

func (s *Server) checkAvailability(c *gin.Context) {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		badRequest(c, "invalid amount format")
		return
	}

	exclude, err := parseOptionalUUID(c.Query("exclude_project_id"))
	if err != nil {
		badRequest(c, "invalid exclude_project_id format")
		return
	}

	availability, err := s.budget.CheckAvailability(c.Request.Context(), amount, exclude)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(nethttp.StatusOK, gin.H{
		"allowed":   availability.Allowed,
		"free_cash": availability.FreeCash.String(),
	})
}
