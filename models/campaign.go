package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Submission status values. Approval is a manual moderator decision.
const (
	SubmissionStatusPending  = "pending"
	SubmissionStatusApproved = "approved"
	SubmissionStatusRejected = "rejected"
)

// Campaign represents a budgeted solicitation for creator-submitted TikTok content
type Campaign struct {
	ID                        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                      string             `bson:"name" json:"name"`
	Description               string             `bson:"description,omitempty" json:"description,omitempty"`
	RatePerMillion            float64            `bson:"ratePerMillion" json:"ratePerMillion"` // USD per 1,000,000 views
	Budget                    *float64           `bson:"budget,omitempty" json:"budget,omitempty"`
	BudgetUsed                float64            `bson:"budgetUsed" json:"budgetUsed"`
	MaxSubmissions            *int               `bson:"maxSubmissions,omitempty" json:"maxSubmissions,omitempty"`
	MaxCreatorEarningsPerPost *float64           `bson:"maxCreatorEarningsPerPost,omitempty" json:"maxCreatorEarningsPerPost,omitempty"`
	SoundID                   string             `bson:"soundId,omitempty" json:"soundId,omitempty"`
	RequireSound              bool               `bson:"requireSound" json:"requireSound"`
	IsComplete                bool               `bson:"isComplete" json:"isComplete"`
	ServerIDs                 []string           `bson:"serverIds,omitempty" json:"serverIds,omitempty"`
	Videos                    []VideoSubmission  `bson:"videos" json:"videos"`

	// Aggregate metrics, recomputed by the metrics refresh
	TotalViews    int64   `bson:"totalViews" json:"totalViews"`
	TotalLikes    int64   `bson:"totalLikes" json:"totalLikes"`
	TotalComments int64   `bson:"totalComments" json:"totalComments"`
	TotalShares   int64   `bson:"totalShares" json:"totalShares"`
	TotalEarnings float64 `bson:"totalEarnings" json:"totalEarnings"`

	Receipts  []PayoutReceipt `bson:"receipts,omitempty" json:"receipts,omitempty"`
	CreatedBy string          `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// VideoSubmission is one creator-submitted TikTok link inside a campaign
type VideoSubmission struct {
	URL          string `bson:"url" json:"url"`
	VideoID      string `bson:"videoId" json:"videoId"`
	IsPhoto      bool   `bson:"isPhoto,omitempty" json:"isPhoto,omitempty"`
	AuthorID     string `bson:"authorId" json:"authorId"`
	Status       string `bson:"status" json:"status"`
	Views        int64  `bson:"views" json:"views"`
	Shares       int64  `bson:"shares" json:"shares"`
	Comments     int64  `bson:"comments" json:"comments"`
	Likes        int64  `bson:"likes" json:"likes"`
	MusicID      string `bson:"musicId,omitempty" json:"musicId,omitempty"`
	SoundIDMatch bool   `bson:"soundIdMatch" json:"soundIdMatch"`

	Earnings    float64 `bson:"earnings" json:"earnings"`
	HasBeenPaid bool    `bson:"hasBeenPaid" json:"hasBeenPaid"`

	// Payout metadata, written once when the video is paid
	PaidAmount    float64    `bson:"paidAmount,omitempty" json:"paidAmount,omitempty"`
	PaidAt        *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	PaidBy        string     `bson:"paidBy,omitempty" json:"paidBy,omitempty"`
	PayoutBatchID string     `bson:"payoutBatchId,omitempty" json:"payoutBatchId,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PayoutReceipt is an append-only audit record for one payout batch on a campaign
type PayoutReceipt struct {
	ReconciliationID string               `bson:"reconciliationId" json:"reconciliationId"`
	ActorID          string               `bson:"actorId" json:"actorId"`
	TotalAmount      float64              `bson:"totalAmount" json:"totalAmount"`
	Paid             []ReceiptPaidEntry   `bson:"paid" json:"paid"`
	Unpaid           []ReceiptUnpaidEntry `bson:"unpaid,omitempty" json:"unpaid,omitempty"`
	CreatedAt        time.Time            `bson:"createdAt" json:"createdAt"`
}

type ReceiptPaidEntry struct {
	CreatorID     string   `bson:"creatorId" json:"creatorId"`
	Amount        float64  `bson:"amount" json:"amount"`
	VideoURLs     []string `bson:"videoUrls" json:"videoUrls"`
	PayoutBatchID string   `bson:"payoutBatchId" json:"payoutBatchId"`
}

type ReceiptUnpaidEntry struct {
	CreatorID string `bson:"creatorId,omitempty" json:"creatorId,omitempty"`
	VideoURL  string `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	Reason    string `bson:"reason" json:"reason"`
}

// CampaignRefreshOutcome reports what happened to one campaign during a metrics refresh
type CampaignRefreshOutcome struct {
	CampaignID  string       `json:"campaignId"`
	Status      string       `json:"status"` // "success", "skipped" or "error"
	Error       string       `json:"error,omitempty"`
	VideoErrors []VideoError `json:"videoErrors,omitempty"`
}

const (
	RefreshStatusSuccess = "success"
	RefreshStatusSkipped = "skipped"
	RefreshStatusError   = "error"
)

// VideoError records a single submission whose metrics fetch failed during a refresh
type VideoError struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// IsCampaignComplete reports whether the campaign's budget or submission cap is
// exhausted. Evaluated against current state, never memoized.
func IsCampaignComplete(c *Campaign) bool {
	if c.Budget != nil && c.BudgetUsed >= *c.Budget {
		return true
	}
	if c.MaxSubmissions != nil && len(c.Videos) >= *c.MaxSubmissions {
		return true
	}
	return false
}
