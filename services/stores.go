package services

import (
	"context"

	"github.com/clipcash/clipcash_backend/models"
)

// The document store is the only shared mutable resource. Services depend on
// these narrow interfaces; repositories provide the MongoDB implementations.
// Individual operations are atomic, cross-document sequences are not.

// CampaignStore provides campaign document access
type CampaignStore interface {
	GetCampaign(ctx context.Context, id string) (*models.Campaign, error)
	ListCampaigns(ctx context.Context) ([]models.Campaign, error)
	// SaveMetrics persists the full videos array, the aggregate metric fields
	// and isComplete in a single merge write.
	SaveMetrics(ctx context.Context, campaign *models.Campaign) error
	// ReplaceVideos writes back the full videos array (payout bookkeeping).
	ReplaceVideos(ctx context.Context, campaignID string, videos []models.VideoSubmission) error
	// AppendReceipt atomically appends a payout receipt to the campaign.
	AppendReceipt(ctx context.Context, campaignID string, receipt models.PayoutReceipt) error
}

// TransactionStore provides ledger, alert and reconciliation-summary access
type TransactionStore interface {
	InsertTransaction(ctx context.Context, tx *models.Transaction) (string, error)
	MarkTransactionCompleted(ctx context.Context, txID, paymentReference string) error
	MarkTransactionFailed(ctx context.Context, txID, reason string) error
	ListTransactions(ctx context.Context, campaignID string) ([]models.Transaction, error)
	InsertAlert(ctx context.Context, alert *models.Alert) error
	InsertReconciliationSummary(ctx context.Context, summary *models.ReconciliationSummary) error
}

// UserStore provides the creator lookups and wallet updates the payout path needs
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	CreditWallet(ctx context.Context, userID string, amount float64) error
}

// MetricsFetcher is the engagement source for one content URL
type MetricsFetcher interface {
	Fetch(ctx context.Context, url string) (*models.TikTokVideoData, error)
}

// PayoutSender executes one external transfer to one recipient
type PayoutSender interface {
	SendPayout(ctx context.Context, recipientEmail string, amount float64, senderBatchID, note string) (string, error)
}

// PayoutNotifier delivers best-effort notifications after a completed payout.
// Failures are logged by implementations and never surfaced to the payout path.
type PayoutNotifier interface {
	NotifyPayoutCompleted(creatorID string, amount float64, campaign *models.Campaign, batchID string)
}
