package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clipcash/clipcash_backend/controllers"
	custommiddleware "github.com/clipcash/clipcash_backend/middleware"
	"github.com/clipcash/clipcash_backend/models"
	"github.com/clipcash/clipcash_backend/utils"
	"github.com/clipcash/clipcash_backend/websocket"
)

// SetupRoutes registers every API route on the Echo instance
func SetupRoutes(
	e *echo.Echo,
	hub *websocket.Hub,
	authController *controllers.AuthController,
	userController *controllers.UserController,
	campaignController *controllers.CampaignController,
	metricsController *controllers.MetricsController,
	paymentController *controllers.PaymentController,
) {
	// Public auth routes
	e.POST("/api/auth/register", authController.Register)
	e.POST("/api/auth/login", authController.Login)

	// Everything under /api past this point requires a valid token
	api := e.Group("/api", custommiddleware.JWTMiddleware())

	// Profile and TikTok account linking
	api.GET("/users/me", userController.GetMe)
	api.PUT("/users/me/payout-email", userController.UpdatePayoutEmail)
	api.POST("/tiktok/link", userController.LinkTikTok)
	api.POST("/tiktok/verify", userController.VerifyTikTok)

	// Campaign reads and creator submissions
	api.GET("/campaigns", campaignController.ListCampaigns)
	api.GET("/campaigns/:id", campaignController.GetCampaign)
	api.POST("/campaigns/:id/submissions", campaignController.SubmitVideo)

	// Admin-only operations
	admin := api.Group("", custommiddleware.RequireAdmin())
	admin.POST("/campaigns", campaignController.CreateCampaign)
	admin.PATCH("/campaigns/:id/submissions", campaignController.ReviewSubmission)
	admin.POST("/metrics/refresh", metricsController.RefreshMetrics)
	admin.POST("/payments/release", paymentController.ReleasePayments)
	admin.GET("/payments/pending/:campaignId", paymentController.GetPendingPayments)
	admin.GET("/payments/transactions/:campaignId", paymentController.ListTransactions)

	// Authenticated event stream for the bot front-end
	e.GET("/ws", func(c echo.Context) error {
		userID, err := utils.ExtractUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid user ID in token",
			})
		}
		return websocket.HandleWebSocket(c, hub, userID)
	}, custommiddleware.JWTMiddleware())
}
