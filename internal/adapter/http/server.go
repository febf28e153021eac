package http

import (
	nethttp "net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rakapratama/projectledger-backend/internal/domain"
	"github.com/rakapratama/projectledger-backend/internal/usecase/budget"
	"github.com/rakapratama/projectledger-backend/internal/usecase/ledger"
	"github.com/rakapratama/projectledger-backend/internal/usecase/summary"
)

// Server exposes the ledger and budget use cases over a JSON API.
type Server struct {
	ledger    *ledger.Service
	budget    *budget.Service
	summary   *summary.Service
	accounts  domain.AccountRepository
	wallet    domain.CompanyWalletRepository
	projects  domain.ProjectRepository
	lineItems domain.LineItemRepository
	entries   domain.LedgerRepository
	log       logrus.FieldLogger
}

// NewServer creates a new API server over the given services and
// read-side repositories.
func NewServer(
	ledgerSvc *ledger.Service,
	budgetSvc *budget.Service,
	summarySvc *summary.Service,
	accounts domain.AccountRepository,
	wallet domain.CompanyWalletRepository,
	projects domain.ProjectRepository,
	lineItems domain.LineItemRepository,
	entries domain.LedgerRepository,
	log logrus.FieldLogger,
) *Server {
	return &Server{
		ledger:    ledgerSvc,
		budget:    budgetSvc,
		summary:   summarySvc,
		accounts:  accounts,
		wallet:    wallet,
		projects:  projects,
		lineItems: lineItems,
		entries:   entries,
		log:       log,
	}
}

// Router builds the gin engine with CORS, auth and all routes mounted
// under /api/v1. The health endpoint stays outside the auth wall so
// orchestrators can probe it without credentials.
func (s *Server) Router(apiToken string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization")
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1", AuthMiddleware(apiToken))
	{
		api.GET("/accounts", s.listAccounts)
		api.GET("/company-wallet", s.getCompanyWallet)
		api.GET("/overview", s.getOverview)
		api.GET("/availability", s.checkAvailability)

		api.POST("/entries", s.postEntry)
		api.GET("/entries", s.listEntries)
		api.POST("/transfers", s.postTransfer)
		api.GET("/transfers", s.listTransfers)

		api.POST("/projects", s.createProject)
		api.GET("/projects", s.listProjects)
		api.GET("/projects/:id/summary", s.getProjectSummary)
		api.GET("/projects/:id/line-items", s.listLineItems)
		api.PUT("/projects/:id/allocation", s.updateAllocation)
		api.PUT("/projects/:id/status", s.setProjectStatus)

		api.POST("/line-items", s.createLineItem)
		api.PUT("/line-items/:id", s.updateLineItem)
		api.DELETE("/line-items/:id", s.deleteLineItem)
		api.GET("/line-items/:id/summary", s.getLineItemSummary)
	}

	return router
}
