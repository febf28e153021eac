package http

import (
	"errors"
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"github.com/rakapratama/projectledger-backend/internal/domain"
)

// writeError converts a domain error into an HTTP response. Rejections
// that carry balance or budget context keep it in the body so clients
// can render the shortfall.
func writeError(c *gin.Context, err error) {
	var (
		validation      *domain.ValidationError
		notFound        *domain.NotFoundError
		insufficient    *domain.InsufficientFundsError
		overBudget      *domain.OverBudgetError
		budgetExceeded  *domain.BudgetExceededError
		freeCash        *domain.InsufficientFreeCashError
		invalidAmount   *domain.InvalidAmountError
		sameAccount     *domain.SameAccountTransferError
		mismatch        *domain.ProjectMismatchError
		missingProject  *domain.MissingProjectError
		projectInactive *domain.ProjectNotActiveError
	)

	switch {
	case errors.As(err, &notFound):
		c.JSON(nethttp.StatusNotFound, gin.H{"error": err.Error()})

	case errors.As(err, &insufficient):
		c.JSON(nethttp.StatusUnprocessableEntity, gin.H{
			"error":     err.Error(),
			"balance":   insufficient.Balance.String(),
			"requested": insufficient.Requested.String(),
		})

	case errors.As(err, &overBudget):
		c.JSON(nethttp.StatusUnprocessableEntity, gin.H{
			"error":            err.Error(),
			"allocated_budget": overBudget.AllocatedBudget.String(),
			"realized_spend":   overBudget.RealizedSpend.String(),
			"requested":        overBudget.Requested.String(),
		})

	case errors.As(err, &budgetExceeded):
		c.JSON(nethttp.StatusUnprocessableEntity, gin.H{
			"error":     err.Error(),
			"remaining": budgetExceeded.Remaining.String(),
			"requested": budgetExceeded.Requested.String(),
		})

	case errors.As(err, &freeCash):
		c.JSON(nethttp.StatusUnprocessableEntity, gin.H{
			"error":     err.Error(),
			"free_cash": freeCash.FreeCash.String(),
			"candidate": freeCash.Candidate.String(),
		})

	case errors.As(err, &validation),
		errors.As(err, &invalidAmount),
		errors.As(err, &sameAccount),
		errors.As(err, &mismatch),
		errors.As(err, &missingProject),
		errors.As(err, &projectInactive):
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": err.Error()})

	case domain.IsRetryable(err):
		c.Header("Retry-After", "1")
		c.JSON(nethttp.StatusServiceUnavailable, gin.H{"error": "operation timed out waiting for a lock, retry"})

	default:
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// badRequest writes a plain 400 for malformed input that never reached
// the domain layer.
func badRequest(c *gin.Context, msg string) {
	c.JSON(nethttp.StatusBadRequest, gin.H{"error": msg})
}
