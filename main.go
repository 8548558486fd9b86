package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/clipcash/clipcash_backend/config"
	"github.com/clipcash/clipcash_backend/controllers"
	"github.com/clipcash/clipcash_backend/middleware"
	"github.com/clipcash/clipcash_backend/repositories"
	"github.com/clipcash/clipcash_backend/routes"
	"github.com/clipcash/clipcash_backend/services"
	"github.com/clipcash/clipcash_backend/utils"
	"github.com/clipcash/clipcash_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Initialize Firebase (optional, push notifications)
	config.InitFirebase()

	// Connect to Redis (optional, TikTok bio verification)
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()

	// Create WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Repositories
	campaignRepo := repositories.NewCampaignRepository(client)
	transactionRepo := repositories.NewTransactionRepository(client)
	userRepo := repositories.NewUserRepository(client)

	// Services
	tiktokService := services.NewTikTokService()
	paypalService := services.NewPayPalService()
	notificationService := utils.NewNotificationService(client)
	metricsService := services.NewMetricsService(campaignRepo, tiktokService)
	paymentService := services.NewPaymentService(campaignRepo, transactionRepo, userRepo, paypalService, notificationService)

	// Periodic metrics refresh
	scheduler := services.NewMetricsScheduler(metricsService)
	go scheduler.Run()

	// Controllers
	authController := controllers.NewAuthController(userRepo)
	userController := controllers.NewUserController(userRepo, tiktokService, redisClient)
	campaignController := controllers.NewCampaignController(campaignRepo, transactionRepo, userRepo, tiktokService)
	metricsController := controllers.NewMetricsController(metricsService, wsHub)
	paymentController := controllers.NewPaymentController(paymentService, transactionRepo, wsHub)

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeaders())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "ClipCash Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Register routes
	routes.SetupRoutes(e, wsHub, authController, userController, campaignController, metricsController, paymentController)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
