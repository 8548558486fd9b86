package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clipcash/clipcash_backend/models"
	"github.com/clipcash/clipcash_backend/services"
	"github.com/clipcash/clipcash_backend/websocket"
)

// MetricsController exposes the on-demand metrics refresh trigger
type MetricsController struct {
	metrics *services.MetricsService
	hub     *websocket.Hub
}

// NewMetricsController creates a new metrics controller
func NewMetricsController(metrics *services.MetricsService, hub *websocket.Hub) *MetricsController {
	return &MetricsController{metrics: metrics, hub: hub}
}

// RefreshMetricsRequest optionally narrows the refresh to specific campaigns
type RefreshMetricsRequest struct {
	CampaignIDs []string `json:"campaignIds,omitempty"`
}

// RefreshMetrics recomputes engagement and earnings for the requested
// campaigns, or all campaigns when none are given. Always returns the full
// per-campaign outcome list; partial failures are data, not errors.
func (mc *MetricsController) RefreshMetrics(c echo.Context) error {
	// Refreshing many campaigns means many upstream calls
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var req RefreshMetricsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	outcomes := mc.metrics.RefreshCampaigns(ctx, req.CampaignIDs)

	var succeeded, failed int
	for _, outcome := range outcomes {
		switch outcome.Status {
		case models.RefreshStatusSuccess:
			succeeded++
		case models.RefreshStatusError:
			failed++
		}
	}

	if mc.hub != nil {
		mc.hub.Broadcast(websocket.Event{
			Type:    websocket.EventTypeMetricsRefreshed,
			Message: fmt.Sprintf("Metrics refreshed: %d succeeded, %d failed", succeeded, failed),
			Data:    outcomes,
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: fmt.Sprintf("Refresh finished: %d succeeded, %d failed", succeeded, failed),
		Data:    outcomes,
	})
}
