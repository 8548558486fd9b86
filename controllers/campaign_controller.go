package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clipcash/clipcash_backend/models"
	"github.com/clipcash/clipcash_backend/repositories"
	"github.com/clipcash/clipcash_backend/services"
	"github.com/clipcash/clipcash_backend/utils"
)

// CampaignController handles campaign reads, creation and link submissions
type CampaignController struct {
	campaigns    *repositories.CampaignRepository
	transactions *repositories.TransactionRepository
	users        *repositories.UserRepository
	tiktok       *services.TikTokService
}

// NewCampaignController creates a new campaign controller
func NewCampaignController(campaigns *repositories.CampaignRepository, transactions *repositories.TransactionRepository, users *repositories.UserRepository, tiktok *services.TikTokService) *CampaignController {
	return &CampaignController{
		campaigns:    campaigns,
		transactions: transactions,
		users:        users,
		tiktok:       tiktok,
	}
}

// CreateCampaignRequest is the admin campaign creation body
type CreateCampaignRequest struct {
	Name                      string   `json:"name" validate:"required"`
	Description               string   `json:"description,omitempty"`
	RatePerMillion            float64  `json:"ratePerMillion" validate:"gte=0"`
	Budget                    *float64 `json:"budget,omitempty" validate:"omitempty,gt=0"`
	MaxSubmissions            *int     `json:"maxSubmissions,omitempty" validate:"omitempty,gt=0"`
	MaxCreatorEarningsPerPost *float64 `json:"maxCreatorEarningsPerPost,omitempty" validate:"omitempty,gt=0"`
	SoundID                   string   `json:"soundId,omitempty"`
	RequireSound              bool     `json:"requireSound,omitempty"`
	ServerIDs                 []string `json:"serverIds,omitempty"`
}

// SubmitVideoRequest is the creator link submission body
type SubmitVideoRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// CreateCampaign creates a campaign and records its budget deposit
func (cc *CampaignController) CreateCampaign(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actorID, err := utils.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID in token",
		})
	}

	var req CreateCampaignRequest
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
	if req.RequireSound && req.SoundID == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "requireSound needs a soundId",
		})
	}

	campaign := &models.Campaign{
		Name:                      req.Name,
		Description:               req.Description,
		RatePerMillion:            req.RatePerMillion,
		Budget:                    req.Budget,
		MaxSubmissions:            req.MaxSubmissions,
		MaxCreatorEarningsPerPost: req.MaxCreatorEarningsPerPost,
		SoundID:                   req.SoundID,
		RequireSound:              req.RequireSound,
		ServerIDs:                 req.ServerIDs,
		CreatedBy:                 actorID,
	}

	campaignID, err := cc.campaigns.InsertCampaign(ctx, campaign)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create campaign",
		})
	}

	// Budgeted campaigns get a deposit row in the ledger
	if req.Budget != nil {
		deposit := &models.Transaction{
			TargetUserID: actorID,
			CampaignID:   campaign.ID,
			Amount:       *req.Budget,
			Currency:     "USD",
			Type:         models.TransactionTypeCampaignDeposit,
			Status:       models.TransactionStatusCompleted,
			CreatedAt:    time.Now(),
		}
		if _, err := cc.transactions.InsertTransaction(ctx, deposit); err != nil {
			c.Logger().Errorf("failed to record campaign deposit: %v", err)
		}
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Campaign created successfully",
		Data:    map[string]string{"campaignId": campaignID},
	})
}

// ListCampaigns returns campaigns, optionally filtered by Discord server id
func (cc *CampaignController) ListCampaigns(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var campaigns []models.Campaign
	var err error

	if serverID := c.QueryParam("serverId"); serverID != "" {
		campaigns, err = cc.campaigns.ListCampaignsByServer(ctx, serverID)
	} else {
		campaigns, err = cc.campaigns.ListCampaigns(ctx)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to list campaigns",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Campaigns retrieved successfully",
		Data:    campaigns,
	})
}

// GetCampaign returns one campaign by id
func (cc *CampaignController) GetCampaign(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	campaign, err := cc.campaigns.GetCampaign(ctx, c.Param("id"))
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Campaign not found",
			})
		}
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid campaign ID",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Campaign retrieved successfully",
		Data:    campaign,
	})
}

// ReviewSubmissionRequest sets the review status of one submission
type ReviewSubmissionRequest struct {
	URL    string `json:"url" validate:"required,url"`
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// ReviewSubmission lets an admin approve or reject a pending submission.
// Only approved submissions count toward billable views and payouts.
func (cc *CampaignController) ReviewSubmission(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req ReviewSubmissionRequest
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

	if err := cc.campaigns.SetVideoStatus(ctx, c.Param("id"), req.URL, req.Status); err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Submission not found in this campaign",
			})
		}
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid campaign ID",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Submission " + req.Status,
	})
}

// SubmitVideo adds a creator's TikTok link to a campaign
func (cc *CampaignController) SubmitVideo(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userID, err := utils.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID in token",
		})
	}

	var req SubmitVideoRequest
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

	user, err := cc.users.GetUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "User not found",
		})
	}
	if !user.TikTokVerified {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Link and verify your TikTok account before submitting",
		})
	}

	campaign, err := cc.campaigns.GetCampaign(ctx, c.Param("id"))
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Campaign not found",
			})
		}
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid campaign ID",
		})
	}

	// Completed campaigns accept no further submissions
	if campaign.IsComplete {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Campaign is complete and no longer accepts submissions",
		})
	}
	if campaign.MaxSubmissions != nil && len(campaign.Videos) >= *campaign.MaxSubmissions {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Campaign has reached its submission cap",
		})
	}
	for _, video := range campaign.Videos {
		if video.URL == req.URL {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "This link was already submitted to the campaign",
			})
		}
	}

	data, err := cc.tiktok.Fetch(ctx, req.URL)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotResolvable):
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Could not resolve the shortened TikTok link",
			})
		case errors.Is(err, services.ErrNotExtractable):
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "This does not look like a TikTok video or photo link",
			})
		default:
			return c.JSON(http.StatusBadGateway, models.Response{
				Status:  http.StatusBadGateway,
				Message: "Could not fetch video data right now, try again later",
			})
		}
	}

	if data.AuthorID != "" && !strings.EqualFold(data.AuthorID, user.TikTokUsername) {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "This post does not belong to your linked TikTok account",
		})
	}

	soundMatch := campaign.SoundID != "" && data.MusicID == campaign.SoundID
	if campaign.RequireSound && !soundMatch {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "This post does not use the campaign's required sound",
		})
	}

	now := time.Now()
	video := models.VideoSubmission{
		URL:          req.URL,
		VideoID:      data.VideoID,
		IsPhoto:      data.IsPhoto,
		AuthorID:     userID,
		Status:       models.SubmissionStatusPending,
		Views:        data.Views,
		Shares:       data.Shares,
		Comments:     data.Comments,
		Likes:        data.Likes,
		MusicID:      data.MusicID,
		SoundIDMatch: soundMatch,
		Earnings:     utils.CalculateEarnings(campaign.RatePerMillion, data.Views, campaign.MaxCreatorEarningsPerPost),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := cc.campaigns.AppendVideo(ctx, campaign.ID.Hex(), video); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to save submission",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Submission received, pending approval",
		Data:    video,
	})
}
