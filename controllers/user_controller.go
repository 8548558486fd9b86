package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"

	"github.com/clipcash/clipcash_backend/models"
	"github.com/clipcash/clipcash_backend/repositories"
	"github.com/clipcash/clipcash_backend/services"
	"github.com/clipcash/clipcash_backend/utils"
)

// UserController handles profile reads, TikTok account linking and payout email
type UserController struct {
	users  *repositories.UserRepository
	tiktok *services.TikTokService
	redis  *redis.Client
}

// NewUserController creates a new user controller
func NewUserController(users *repositories.UserRepository, tiktok *services.TikTokService, redisClient *redis.Client) *UserController {
	return &UserController{
		users:  users,
		tiktok: tiktok,
		redis:  redisClient,
	}
}

// LinkTikTokRequest claims a TikTok username for bio verification
type LinkTikTokRequest struct {
	Username string `json:"username" validate:"required,min=2,max=24"`
}

// UpdatePayoutEmailRequest changes where payouts are sent
type UpdatePayoutEmailRequest struct {
	PayoutEmail string `json:"payoutEmail" validate:"required,email"`
}

// GetMe returns the authenticated user's profile
func (uc *UserController) GetMe(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := utils.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID in token",
		})
	}

	user, err := uc.users.GetUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile retrieved successfully",
		Data:    user,
	})
}

// LinkTikTok starts bio verification: generates a code the creator must place
// in their TikTok bio before calling VerifyTikTok
func (uc *UserController) LinkTikTok(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := utils.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID in token",
		})
	}

	var req LinkTikTokRequest
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

	username := strings.TrimPrefix(strings.TrimSpace(req.Username), "@")

	code, err := utils.GenerateVerificationCode()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate verification code",
		})
	}

	if err := utils.StoreVerificationCode(ctx, uc.redis, userID, username, code); err != nil {
		return c.JSON(http.StatusServiceUnavailable, models.Response{
			Status:  http.StatusServiceUnavailable,
			Message: "Verification is temporarily unavailable",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Add this code to your TikTok bio, then verify",
		Data: map[string]string{
			"username": username,
			"code":     code,
		},
	})
}

// VerifyTikTok checks the claimed account's bio for the pending code and marks
// the user verified on success
func (uc *UserController) VerifyTikTok(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userID, err := utils.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID in token",
		})
	}

	if err := utils.ValidateVerifyAttempts(userID, uc.redis); err != nil {
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Status:  http.StatusTooManyRequests,
			Message: "Too many verification attempts, try again later",
		})
	}

	code, username, err := utils.GetVerificationCode(ctx, uc.redis, userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	info, err := uc.tiktok.GetUserInfo(ctx, username)
	if err != nil {
		return c.JSON(http.StatusBadGateway, models.Response{
			Status:  http.StatusBadGateway,
			Message: "Could not look up the TikTok account right now",
		})
	}

	if !strings.Contains(info.Bio, code) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Verification code not found in bio",
		})
	}

	if err := uc.users.SetTikTokVerified(ctx, userID, username); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to save verification",
		})
	}

	utils.ClearVerificationCode(ctx, uc.redis, userID)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "TikTok account verified successfully",
		Data:    map[string]string{"tiktokUsername": username},
	})
}

// UpdatePayoutEmail sets where the creator's payouts are sent
func (uc *UserController) UpdatePayoutEmail(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := utils.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID in token",
		})
	}

	var req UpdatePayoutEmailRequest
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

	if err := uc.users.SetPayoutEmail(ctx, userID, strings.ToLower(strings.TrimSpace(req.PayoutEmail))); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update payout email",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payout email updated successfully",
	})
}
