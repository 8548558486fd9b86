package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction types
const (
	TransactionTypeCreatorPayout   = "creatorPayout"
	TransactionTypeCampaignDeposit = "campaignDeposit"
)

// Transaction statuses. Pending transactions are written before any money moves;
// completed and failed are terminal.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Transaction is one row in the payment ledger. Payouts carry a negative amount.
type Transaction struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TargetUserID     string              `bson:"targetUserId" json:"targetUserId"`
	CampaignID       primitive.ObjectID  `bson:"campaignId" json:"campaignId"`
	Amount           float64             `bson:"amount" json:"amount"`
	Currency         string              `bson:"currency" json:"currency"`
	Type             string              `bson:"type" json:"type"`
	Status           string              `bson:"status" json:"status"`
	PaymentReference string              `bson:"paymentReference,omitempty" json:"paymentReference,omitempty"`
	FailureReason    string              `bson:"failureReason,omitempty" json:"failureReason,omitempty"`
	Metadata         TransactionMetadata `bson:"metadata" json:"metadata"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
	CompletedAt      *time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// TransactionMetadata carries the earnings breakdown backing a payout
type TransactionMetadata struct {
	VideoURLs        []string `bson:"videoUrls,omitempty" json:"videoUrls,omitempty"`
	VideoCount       int      `bson:"videoCount,omitempty" json:"videoCount,omitempty"`
	TotalViews       int64    `bson:"totalViews,omitempty" json:"totalViews,omitempty"`
	RatePerMillion   float64  `bson:"ratePerMillion,omitempty" json:"ratePerMillion,omitempty"`
	ReconciliationID string   `bson:"reconciliationId,omitempty" json:"reconciliationId,omitempty"`
}

// Alert severities
const (
	AlertSeverityCritical = "critical"
)

// Alert is a persisted escalation record demanding manual attention. The payout
// path writes one whenever money may have moved but bookkeeping did not finish.
type Alert struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Severity      string             `bson:"severity" json:"severity"`
	Message       string             `bson:"message" json:"message"`
	CampaignID    string             `bson:"campaignId,omitempty" json:"campaignId,omitempty"`
	CreatorID     string             `bson:"creatorId,omitempty" json:"creatorId,omitempty"`
	TransactionID string             `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	PayoutBatchID string             `bson:"payoutBatchId,omitempty" json:"payoutBatchId,omitempty"`
	Resolved      bool               `bson:"resolved" json:"resolved"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// ReconciliationSummary is the batch-level record persisted for every payout run,
// successful or not.
type ReconciliationSummary struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReconciliationID string             `bson:"reconciliationId" json:"reconciliationId"`
	CampaignID       string             `bson:"campaignId" json:"campaignId"`
	ActorID          string             `bson:"actorId" json:"actorId"`
	AttemptedCount   int                `bson:"attemptedCount" json:"attemptedCount"`
	SucceededCount   int                `bson:"succeededCount" json:"succeededCount"`
	FailedCount      int                `bson:"failedCount" json:"failedCount"`
	Outcomes         []CreatorOutcome   `bson:"outcomes" json:"outcomes"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
}

// CreatorOutcome reports the result of one creator's payout inside a batch
type CreatorOutcome struct {
	CreatorID     string  `bson:"creatorId" json:"creatorId"`
	Amount        float64 `bson:"amount" json:"amount"`
	Success       bool    `bson:"success" json:"success"`
	PayoutBatchID string  `bson:"payoutBatchId,omitempty" json:"payoutBatchId,omitempty"`
	Error         string  `bson:"error,omitempty" json:"error,omitempty"`
}

// PendingPayment aggregates everything owed to one creator before any network
// call is made. In-memory only, never persisted as-is.
type PendingPayment struct {
	CreatorID   string            `json:"creatorId"`
	PayoutEmail string            `json:"payoutEmail"`
	AmountOwed  float64           `json:"amountOwed"`
	Videos      []VideoSubmission `json:"videos"`
}

// UnpaidVideo explains why a submission was excluded from a payout batch
type UnpaidVideo struct {
	URL       string  `json:"url"`
	CreatorID string  `json:"creatorId"`
	Earnings  float64 `json:"earnings"`
	Reason    string  `json:"reason"`
}

// Exclusion reasons surfaced in UnpaidVideo and receipts
const (
	UnpaidReasonNotApproved   = "not approved"
	UnpaidReasonAlreadyPaid   = "already paid"
	UnpaidReasonZeroEarnings  = "zero earnings"
	UnpaidReasonNoPayoutEmail = "no payout email"
)

// PayoutBatchResult is returned to the caller of a payout run
type PayoutBatchResult struct {
	Success          bool             `json:"success"`
	ProcessedCount   int              `json:"processedCount"`
	TotalPaid        float64          `json:"totalPaid"`
	ReconciliationID string           `json:"reconciliationId"`
	Outcomes         []CreatorOutcome `json:"outcomes"`
	UnpaidVideos     []UnpaidVideo    `json:"unpaidVideos,omitempty"`
	Error            string           `json:"error,omitempty"`
}
