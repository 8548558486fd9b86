package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/clipcash/clipcash_backend/models"
	"github.com/clipcash/clipcash_backend/utils"
)

// PaymentService drives the payout protocol: pending transaction, external
// transfer, transaction completion, video/wallet bookkeeping, receipt. It is
// the only writer of hasBeenPaid and payout fields.
type PaymentService struct {
	campaigns    CampaignStore
	transactions TransactionStore
	users        UserStore
	payouts      PayoutSender
	notifier     PayoutNotifier
}

// NewPaymentService creates the payment reconciliation engine. notifier may be
// nil; notifications are best-effort.
func NewPaymentService(campaigns CampaignStore, transactions TransactionStore, users UserStore, payouts PayoutSender, notifier PayoutNotifier) *PaymentService {
	return &PaymentService{
		campaigns:    campaigns,
		transactions: transactions,
		users:        users,
		payouts:      payouts,
		notifier:     notifier,
	}
}

// CalculatePendingPayments filters the campaign's submissions down to payable
// videos for the given creators and aggregates one pending payment per creator.
// payoutEmails maps creator id to payout destination; creators without one are
// excluded with an explicit reason, never silently dropped.
//
// Filter order per submission, first match wins: not approved, already paid,
// zero earnings, missing payout email.
func CalculatePendingPayments(campaign *models.Campaign, creatorIDs []string, payoutEmails map[string]string) ([]models.PendingPayment, []models.UnpaidVideo) {
	wanted := make(map[string]bool, len(creatorIDs))
	for _, id := range creatorIDs {
		wanted[id] = true
	}

	byCreator := make(map[string]*models.PendingPayment)
	var order []string
	var unpaid []models.UnpaidVideo

	for _, video := range campaign.Videos {
		if !wanted[video.AuthorID] {
			continue
		}

		switch {
		case video.Status != models.SubmissionStatusApproved:
			unpaid = append(unpaid, models.UnpaidVideo{
				URL: video.URL, CreatorID: video.AuthorID, Earnings: video.Earnings,
				Reason: models.UnpaidReasonNotApproved,
			})
		case video.HasBeenPaid:
			unpaid = append(unpaid, models.UnpaidVideo{
				URL: video.URL, CreatorID: video.AuthorID, Earnings: video.Earnings,
				Reason: models.UnpaidReasonAlreadyPaid,
			})
		case video.Earnings <= 0:
			unpaid = append(unpaid, models.UnpaidVideo{
				URL: video.URL, CreatorID: video.AuthorID, Earnings: video.Earnings,
				Reason: models.UnpaidReasonZeroEarnings,
			})
		case payoutEmails[video.AuthorID] == "":
			unpaid = append(unpaid, models.UnpaidVideo{
				URL: video.URL, CreatorID: video.AuthorID, Earnings: video.Earnings,
				Reason: models.UnpaidReasonNoPayoutEmail,
			})
		default:
			payment, ok := byCreator[video.AuthorID]
			if !ok {
				payment = &models.PendingPayment{
					CreatorID:   video.AuthorID,
					PayoutEmail: payoutEmails[video.AuthorID],
				}
				byCreator[video.AuthorID] = payment
				order = append(order, video.AuthorID)
			}
			payment.AmountOwed = utils.Round2(payment.AmountOwed + video.Earnings)
			payment.Videos = append(payment.Videos, video)
		}
	}

	pending := make([]models.PendingPayment, 0, len(order))
	for _, creatorID := range order {
		pending = append(pending, *byCreator[creatorID])
	}

	return pending, unpaid
}

// GetPendingPayments re-reads the campaign and returns what a payout run would
// pay right now. Read-only preview for the release endpoint and the bot.
func (s *PaymentService) GetPendingPayments(ctx context.Context, campaignID string, creatorIDs []string) ([]models.PendingPayment, []models.UnpaidVideo, error) {
	campaign, err := s.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, nil, fmt.Errorf("campaign not found: %w", err)
	}

	emails, err := s.payoutEmails(ctx, creatorIDs)
	if err != nil {
		return nil, nil, err
	}

	pending, unpaid := CalculatePendingPayments(campaign, creatorIDs, emails)
	return pending, unpaid, nil
}

// PayCreators runs the payout protocol for every named creator on a campaign.
// Creators are processed sequentially and independently; one failure never
// rolls back or blocks another creator's completed payout. Re-running after a
// partial failure cannot double-pay: eligibility is re-evaluated against
// freshly read state and hasBeenPaid is the guard.
func (s *PaymentService) PayCreators(ctx context.Context, campaignID string, creatorIDs []string, actorID string) (*models.PayoutBatchResult, error) {
	reconciliationID := uuid.NewString()
	result := &models.PayoutBatchResult{ReconciliationID: reconciliationID}

	// Fresh read; never trust a caller-supplied snapshot.
	campaign, err := s.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("campaign not found: %w", err)
	}

	emails, err := s.payoutEmails(ctx, creatorIDs)
	if err != nil {
		return nil, err
	}

	pending, unpaid := CalculatePendingPayments(campaign, creatorIDs, emails)
	result.UnpaidVideos = unpaid

	receipt := models.PayoutReceipt{
		ReconciliationID: reconciliationID,
		ActorID:          actorID,
		CreatedAt:        time.Now(),
	}
	for _, u := range unpaid {
		receipt.Unpaid = append(receipt.Unpaid, models.ReceiptUnpaidEntry{
			CreatorID: u.CreatorID, VideoURL: u.URL, Reason: u.Reason,
		})
	}

	for _, payment := range pending {
		outcome := s.payCreator(ctx, campaign, payment, reconciliationID, actorID)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Success {
			result.ProcessedCount++
			result.TotalPaid = utils.Round2(result.TotalPaid + outcome.Amount)
			videoURLs := make([]string, 0, len(payment.Videos))
			for _, v := range payment.Videos {
				videoURLs = append(videoURLs, v.URL)
			}
			receipt.Paid = append(receipt.Paid, models.ReceiptPaidEntry{
				CreatorID:     payment.CreatorID,
				Amount:        outcome.Amount,
				VideoURLs:     videoURLs,
				PayoutBatchID: outcome.PayoutBatchID,
			})
		}
	}
	receipt.TotalAmount = result.TotalPaid

	if len(receipt.Paid) > 0 || len(receipt.Unpaid) > 0 {
		if err := s.campaigns.AppendReceipt(ctx, campaignID, receipt); err != nil {
			log.Printf("payout %s: failed to append receipt: %v", reconciliationID, err)
		}
	}

	// The batch summary is persisted regardless of outcome.
	summary := &models.ReconciliationSummary{
		ReconciliationID: reconciliationID,
		CampaignID:       campaignID,
		ActorID:          actorID,
		AttemptedCount:   len(pending),
		SucceededCount:   result.ProcessedCount,
		FailedCount:      len(pending) - result.ProcessedCount,
		Outcomes:         result.Outcomes,
		CreatedAt:        time.Now(),
	}
	if err := s.transactions.InsertReconciliationSummary(ctx, summary); err != nil {
		log.Printf("payout %s: failed to persist reconciliation summary: %v", reconciliationID, err)
	}

	result.Success = result.ProcessedCount == len(pending)
	if !result.Success {
		result.Error = fmt.Sprintf("%d of %d payouts failed", len(pending)-result.ProcessedCount, len(pending))
	}

	return result, nil
}

// payCreator runs the phase-ordered payout protocol for one creator. Each
// phase gates the next:
//
//	validate -> pending transaction -> external transfer -> verify batch id
//	-> complete transaction -> mark videos paid -> wallet credit
//
// A failure after the external transfer succeeded escalates to a critical
// alert; the engine never auto-reverses money already sent.
func (s *PaymentService) payCreator(ctx context.Context, campaign *models.Campaign, payment models.PendingPayment, reconciliationID, actorID string) models.CreatorOutcome {
	outcome := models.CreatorOutcome{
		CreatorID: payment.CreatorID,
		Amount:    payment.AmountOwed,
	}

	// Phase 1: validate against current stored state.
	if payment.PayoutEmail == "" {
		outcome.Error = "creator has no payout email"
		return outcome
	}
	if payment.AmountOwed <= 0 {
		outcome.Error = "nothing to pay"
		return outcome
	}
	paidIndexes := make([]int, 0, len(payment.Videos))
	var totalViews int64
	videoURLs := make([]string, 0, len(payment.Videos))
	for _, video := range payment.Videos {
		matches := []int{}
		for i := range campaign.Videos {
			if campaign.Videos[i].URL == video.URL {
				matches = append(matches, i)
			}
		}
		if len(matches) == 0 {
			outcome.Error = fmt.Sprintf("video no longer exists in campaign: %s", video.URL)
			return outcome
		}
		if len(matches) > 1 {
			outcome.Error = fmt.Sprintf("ambiguous duplicate video URL in campaign: %s", video.URL)
			return outcome
		}
		paidIndexes = append(paidIndexes, matches[0])
		totalViews += video.Views
		videoURLs = append(videoURLs, video.URL)
	}

	// Phase 2: record the pending transaction before any money moves.
	tx := &models.Transaction{
		TargetUserID: payment.CreatorID,
		CampaignID:   campaign.ID,
		Amount:       -payment.AmountOwed,
		Currency:     "USD",
		Type:         models.TransactionTypeCreatorPayout,
		Status:       models.TransactionStatusPending,
		Metadata: models.TransactionMetadata{
			VideoURLs:        videoURLs,
			VideoCount:       len(videoURLs),
			TotalViews:       totalViews,
			RatePerMillion:   campaign.RatePerMillion,
			ReconciliationID: reconciliationID,
		},
		CreatedAt: time.Now(),
	}
	txID, err := s.transactions.InsertTransaction(ctx, tx)
	if err != nil {
		outcome.Error = "failed to record pending transaction: " + err.Error()
		return outcome
	}

	// Phase 3: one external transfer for exactly this creator.
	senderBatchID := fmt.Sprintf("%s-%s", reconciliationID, payment.CreatorID)
	note := fmt.Sprintf("Earnings for %d video(s) in campaign %s", len(payment.Videos), campaign.Name)
	batchID, err := s.payouts.SendPayout(ctx, payment.PayoutEmail, payment.AmountOwed, senderBatchID, note)
	if err != nil {
		// Phase 3/4 failure: no confirmed transfer, safe to just fail the row.
		if markErr := s.transactions.MarkTransactionFailed(ctx, txID, err.Error()); markErr != nil {
			log.Printf("payout %s: failed to mark transaction %s failed: %v", reconciliationID, txID, markErr)
		}
		outcome.Error = "payout failed: " + err.Error()
		return outcome
	}
	outcome.PayoutBatchID = batchID

	// Money is out the door from here on. Any bookkeeping failure below is a
	// critical escalation, never an auto-reversal.
	if err := s.transactions.MarkTransactionCompleted(ctx, txID, batchID); err != nil {
		s.escalate(ctx, campaign, payment.CreatorID, txID, batchID,
			"payout sent but transaction completion failed: "+err.Error())
		outcome.Error = "payout sent but bookkeeping incomplete (transaction)"
		return outcome
	}

	if err := s.markVideosPaid(ctx, campaign, paidIndexes, payment.AmountOwed, actorID, batchID); err != nil {
		s.escalate(ctx, campaign, payment.CreatorID, txID, batchID,
			"payout sent but videos could not be marked paid: "+err.Error())
		outcome.Error = "payout sent but bookkeeping incomplete (videos)"
		return outcome
	}

	if err := s.users.CreditWallet(ctx, payment.CreatorID, payment.AmountOwed); err != nil {
		// Wallet totals are derived convenience data; log, don't escalate.
		log.Printf("payout %s: failed to credit wallet for %s: %v", reconciliationID, payment.CreatorID, err)
	}

	if s.notifier != nil {
		s.notifier.NotifyPayoutCompleted(payment.CreatorID, payment.AmountOwed, campaign, batchID)
	}

	outcome.Success = true
	return outcome
}

// markVideosPaid stamps payout metadata on the paid submissions and writes the
// full videos array back.
func (s *PaymentService) markVideosPaid(ctx context.Context, campaign *models.Campaign, indexes []int, amount float64, actorID, batchID string) error {
	now := time.Now()
	for _, i := range indexes {
		video := &campaign.Videos[i]
		video.HasBeenPaid = true
		video.PaidAmount = video.Earnings
		video.PaidAt = &now
		video.PaidBy = actorID
		video.PayoutBatchID = batchID
		video.UpdatedAt = now
	}
	return s.campaigns.ReplaceVideos(ctx, campaign.ID.Hex(), campaign.Videos)
}

// escalate persists a critical alert demanding manual reconciliation
func (s *PaymentService) escalate(ctx context.Context, campaign *models.Campaign, creatorID, txID, batchID, message string) {
	log.Printf("CRITICAL payout escalation (campaign %s, creator %s): %s", campaign.ID.Hex(), creatorID, message)
	alert := &models.Alert{
		Severity:      models.AlertSeverityCritical,
		Message:       message,
		CampaignID:    campaign.ID.Hex(),
		CreatorID:     creatorID,
		TransactionID: txID,
		PayoutBatchID: batchID,
		CreatedAt:     time.Now(),
	}
	if err := s.transactions.InsertAlert(ctx, alert); err != nil {
		log.Printf("failed to persist critical alert: %v", err)
	}
}

// payoutEmails resolves each creator's payout destination. Unknown creators
// map to an empty email and get filtered with an explicit reason.
func (s *PaymentService) payoutEmails(ctx context.Context, creatorIDs []string) (map[string]string, error) {
	users, err := s.users.GetUsersByIDs(ctx, creatorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load creators: %w", err)
	}
	emails := make(map[string]string, len(users))
	for id, user := range users {
		emails[id] = user.PayoutEmail
	}
	return emails, nil
}
