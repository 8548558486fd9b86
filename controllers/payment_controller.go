package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clipcash/clipcash_backend/models"
	"github.com/clipcash/clipcash_backend/repositories"
	"github.com/clipcash/clipcash_backend/services"
	"github.com/clipcash/clipcash_backend/utils"
	"github.com/clipcash/clipcash_backend/websocket"
)

// PaymentController exposes the payout preview, release and ledger endpoints
type PaymentController struct {
	payments     *services.PaymentService
	transactions *repositories.TransactionRepository
	hub          *websocket.Hub
}

// NewPaymentController creates a new payment controller
func NewPaymentController(payments *services.PaymentService, transactions *repositories.TransactionRepository, hub *websocket.Hub) *PaymentController {
	return &PaymentController{
		payments:     payments,
		transactions: transactions,
		hub:          hub,
	}
}

// ReleasePaymentsRequest names the campaign and creators to pay
type ReleasePaymentsRequest struct {
	CampaignID string   `json:"campaignId" validate:"required"`
	CreatorIDs []string `json:"creatorIds" validate:"required,min=1"`
}

// GetPendingPayments previews what a payout run would pay right now
func (pc *PaymentController) GetPendingPayments(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	creatorIDs := c.QueryParams()["creatorId"]
	if len(creatorIDs) == 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "At least one creatorId query parameter is required",
		})
	}

	pending, unpaid, err := pc.payments.GetPendingPayments(ctx, c.Param("campaignId"), creatorIDs)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending payments calculated",
		Data: map[string]interface{}{
			"pendingPayments": pending,
			"unpaidVideos":    unpaid,
		},
	})
}

// ReleasePayments runs the payout protocol for the named creators
func (pc *PaymentController) ReleasePayments(c echo.Context) error {
	// Payouts wait on the external processor per creator
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	actorID, err := utils.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID in token",
		})
	}

	var req ReleasePaymentsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Data:    err.Error(),
		})
	}

	result, err := pc.payments.PayCreators(ctx, req.CampaignID, req.CreatorIDs, actorID)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: err.Error(),
		})
	}

	if pc.hub != nil {
		eventType := websocket.EventTypePayoutCompleted
		if !result.Success {
			eventType = websocket.EventTypePayoutFailed
		}
		pc.hub.Broadcast(websocket.Event{
			Type:    eventType,
			Message: fmt.Sprintf("Payout batch %s: %d creators paid, $%.2f total", result.ReconciliationID, result.ProcessedCount, result.TotalPaid),
			Data:    result,
		})
	}

	status := http.StatusOK
	message := fmt.Sprintf("Processed %d payment(s)", result.ProcessedCount)
	if !result.Success {
		// Partial success still returns the full result for the caller to act on
		status = http.StatusMultiStatus
		message = result.Error
	}

	return c.JSON(status, models.Response{
		Status:  status,
		Message: message,
		Data:    result,
	})
}

// ListTransactions returns the payment ledger for one campaign
func (pc *PaymentController) ListTransactions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	txs, err := pc.transactions.ListTransactions(ctx, c.Param("campaignId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid campaign ID",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Transactions retrieved successfully",
		Data:    txs,
	})
}
