package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/clipcash/clipcash_backend/models"
)

// fakeTransactionStore records ledger writes in memory
type fakeTransactionStore struct {
	transactions map[string]*models.Transaction
	alerts       []models.Alert
	summaries    []models.ReconciliationSummary
	nextID       int

	insertErr   error
	completeErr error
}

func newFakeTransactionStore() *fakeTransactionStore {
	return &fakeTransactionStore{transactions: map[string]*models.Transaction{}}
}

func (f *fakeTransactionStore) InsertTransaction(ctx context.Context, tx *models.Transaction) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.nextID++
	id := fmt.Sprintf("tx-%d", f.nextID)
	stored := *tx
	f.transactions[id] = &stored
	return id, nil
}

func (f *fakeTransactionStore) MarkTransactionCompleted(ctx context.Context, txID, paymentReference string) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	tx, ok := f.transactions[txID]
	if !ok {
		return errors.New("transaction not found")
	}
	tx.Status = models.TransactionStatusCompleted
	tx.PaymentReference = paymentReference
	return nil
}

func (f *fakeTransactionStore) MarkTransactionFailed(ctx context.Context, txID, reason string) error {
	tx, ok := f.transactions[txID]
	if !ok {
		return errors.New("transaction not found")
	}
	tx.Status = models.TransactionStatusFailed
	tx.FailureReason = reason
	return nil
}

func (f *fakeTransactionStore) ListTransactions(ctx context.Context, campaignID string) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, tx := range f.transactions {
		out = append(out, *tx)
	}
	return out, nil
}

func (f *fakeTransactionStore) InsertAlert(ctx context.Context, alert *models.Alert) error {
	f.alerts = append(f.alerts, *alert)
	return nil
}

func (f *fakeTransactionStore) InsertReconciliationSummary(ctx context.Context, summary *models.ReconciliationSummary) error {
	f.summaries = append(f.summaries, *summary)
	return nil
}

// fakeUserStore serves creators and tracks wallet credits
type fakeUserStore struct {
	users   map[string]*models.User
	credits map[string]float64
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	store := &fakeUserStore{users: map[string]*models.User{}, credits: map[string]float64{}}
	for _, u := range users {
		store.users[u.ID.Hex()] = u
	}
	return store
}

func (f *fakeUserStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func (f *fakeUserStore) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := map[string]*models.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (f *fakeUserStore) CreditWallet(ctx context.Context, userID string, amount float64) error {
	f.credits[userID] += amount
	return nil
}

// fakePayoutSender records transfers and can fail per recipient
type fakePayoutSender struct {
	sent        []sentPayout
	failFor     map[string]error
	nextBatchID int
}

type sentPayout struct {
	email  string
	amount float64
}

func (f *fakePayoutSender) SendPayout(ctx context.Context, recipientEmail string, amount float64, senderBatchID, note string) (string, error) {
	if err, ok := f.failFor[recipientEmail]; ok {
		return "", err
	}
	f.sent = append(f.sent, sentPayout{email: recipientEmail, amount: amount})
	f.nextBatchID++
	return fmt.Sprintf("BATCH-%d", f.nextBatchID), nil
}

func newCreator(email string) *models.User {
	return &models.User{
		ID:          primitive.NewObjectID(),
		PayoutEmail: email,
		UserType:    models.UserTypeCreator,
	}
}

func approvedVideo(url, authorID string, earnings float64) models.VideoSubmission {
	return models.VideoSubmission{
		URL: url, AuthorID: authorID, Status: models.SubmissionStatusApproved,
		Views: int64(earnings / 50 * 1_000_000), Earnings: earnings,
	}
}

func TestCalculatePendingPaymentsFilterOrder(t *testing.T) {
	videos := []models.VideoSubmission{
		{URL: "pending", AuthorID: "c1", Status: models.SubmissionStatusPending, Earnings: 10},
		{URL: "paid", AuthorID: "c1", Status: models.SubmissionStatusApproved, HasBeenPaid: true, Earnings: 10},
		{URL: "zero", AuthorID: "c1", Status: models.SubmissionStatusApproved, Earnings: 0},
		{URL: "noemail", AuthorID: "c2", Status: models.SubmissionStatusApproved, Earnings: 10},
		{URL: "payable", AuthorID: "c1", Status: models.SubmissionStatusApproved, Earnings: 10},
	}
	campaign := &models.Campaign{ID: primitive.NewObjectID(), Videos: videos}

	pending, unpaid := CalculatePendingPayments(campaign, []string{"c1", "c2"}, map[string]string{"c1": "c1@pay.me"})

	require.Len(t, pending, 1)
	assert.Equal(t, "c1", pending[0].CreatorID)
	assert.Equal(t, 10.0, pending[0].AmountOwed)

	require.Len(t, unpaid, 4)
	reasons := map[string]string{}
	for _, u := range unpaid {
		reasons[u.URL] = u.Reason
	}
	assert.Equal(t, models.UnpaidReasonNotApproved, reasons["pending"])
	assert.Equal(t, models.UnpaidReasonAlreadyPaid, reasons["paid"])
	assert.Equal(t, models.UnpaidReasonZeroEarnings, reasons["zero"])
	assert.Equal(t, models.UnpaidReasonNoPayoutEmail, reasons["noemail"])
}

func TestCalculatePendingPaymentsAggregatesPerCreator(t *testing.T) {
	campaign := &models.Campaign{ID: primitive.NewObjectID(), Videos: []models.VideoSubmission{
		approvedVideo("u1", "c1", 10.10),
		approvedVideo("u2", "c2", 5),
		approvedVideo("u3", "c1", 20.25),
	}}
	emails := map[string]string{"c1": "c1@pay.me", "c2": "c2@pay.me"}

	pending, unpaid := CalculatePendingPayments(campaign, []string{"c1", "c2"}, emails)

	assert.Empty(t, unpaid)
	require.Len(t, pending, 2)

	// First-seen creator order is preserved
	assert.Equal(t, "c1", pending[0].CreatorID)
	assert.Equal(t, 30.35, pending[0].AmountOwed)
	assert.Len(t, pending[0].Videos, 2)
	assert.Equal(t, "c2", pending[1].CreatorID)
	assert.Equal(t, 5.0, pending[1].AmountOwed)
}

func TestCalculatePendingPaymentsIgnoresUnrequestedCreators(t *testing.T) {
	campaign := &models.Campaign{ID: primitive.NewObjectID(), Videos: []models.VideoSubmission{
		approvedVideo("u1", "c1", 10),
		approvedVideo("u2", "other", 99),
	}}

	pending, unpaid := CalculatePendingPayments(campaign, []string{"c1"}, map[string]string{"c1": "c1@pay.me"})

	require.Len(t, pending, 1)
	assert.Equal(t, "c1", pending[0].CreatorID)
	assert.Empty(t, unpaid)
}

func TestPayCreatorsHappyPath(t *testing.T) {
	creator := newCreator("creator@pay.me")
	campaign := testCampaign(approvedVideo("u1", creator.ID.Hex(), 50))
	campaigns := newFakeCampaignStore(campaign)
	transactions := newFakeTransactionStore()
	users := newFakeUserStore(creator)
	sender := &fakePayoutSender{}

	svc := NewPaymentService(campaigns, transactions, users, sender, nil)
	result, err := svc.PayCreators(context.Background(), campaign.ID.Hex(), []string{creator.ID.Hex()}, "admin-1")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.ProcessedCount)
	assert.Equal(t, 50.0, result.TotalPaid)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "creator@pay.me", sender.sent[0].email)

	// Ledger row is completed with the external batch reference
	require.Len(t, transactions.transactions, 1)
	tx := transactions.transactions["tx-1"]
	assert.Equal(t, models.TransactionStatusCompleted, tx.Status)
	assert.Equal(t, "BATCH-1", tx.PaymentReference)
	assert.Equal(t, -50.0, tx.Amount)

	// Video is stamped paid
	saved := campaigns.campaigns[campaign.ID.Hex()]
	assert.True(t, saved.Videos[0].HasBeenPaid)
	assert.Equal(t, 50.0, saved.Videos[0].PaidAmount)
	assert.Equal(t, "admin-1", saved.Videos[0].PaidBy)
	assert.Equal(t, "BATCH-1", saved.Videos[0].PayoutBatchID)

	// Wallet credited, receipt appended, summary persisted
	assert.Equal(t, 50.0, users.credits[creator.ID.Hex()])
	require.Len(t, campaigns.receipts, 1)
	assert.Len(t, campaigns.receipts[0].Paid, 1)
	require.Len(t, transactions.summaries, 1)
	assert.Equal(t, 1, transactions.summaries[0].SucceededCount)
	assert.Empty(t, transactions.alerts)
}

func TestPayCreatorsSecondRunPaysNothing(t *testing.T) {
	creator := newCreator("creator@pay.me")
	campaign := testCampaign(approvedVideo("u1", creator.ID.Hex(), 50))
	campaigns := newFakeCampaignStore(campaign)
	transactions := newFakeTransactionStore()
	users := newFakeUserStore(creator)
	sender := &fakePayoutSender{}

	svc := NewPaymentService(campaigns, transactions, users, sender, nil)

	first, err := svc.PayCreators(context.Background(), campaign.ID.Hex(), []string{creator.ID.Hex()}, "admin-1")
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := svc.PayCreators(context.Background(), campaign.ID.Hex(), []string{creator.ID.Hex()}, "admin-1")
	require.NoError(t, err)

	// The video is now hasBeenPaid, so nothing is pending and no money moves
	assert.True(t, second.Success)
	assert.Zero(t, second.ProcessedCount)
	assert.Zero(t, second.TotalPaid)
	assert.Len(t, sender.sent, 1)
	require.Len(t, second.UnpaidVideos, 1)
	assert.Equal(t, models.UnpaidReasonAlreadyPaid, second.UnpaidVideos[0].Reason)
}

func TestPayCreatorsTransferFailure(t *testing.T) {
	creator := newCreator("creator@pay.me")
	campaign := testCampaign(approvedVideo("u1", creator.ID.Hex(), 50))
	campaigns := newFakeCampaignStore(campaign)
	transactions := newFakeTransactionStore()
	users := newFakeUserStore(creator)
	sender := &fakePayoutSender{failFor: map[string]error{"creator@pay.me": errors.New("processor unavailable")}}

	svc := NewPaymentService(campaigns, transactions, users, sender, nil)
	result, err := svc.PayCreators(context.Background(), campaign.ID.Hex(), []string{creator.ID.Hex()}, "admin-1")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Zero(t, result.ProcessedCount)

	// Pending transaction was failed, video untouched, no alert (no money moved)
	tx := transactions.transactions["tx-1"]
	assert.Equal(t, models.TransactionStatusFailed, tx.Status)
	assert.Contains(t, tx.FailureReason, "processor unavailable")
	assert.False(t, campaigns.campaigns[campaign.ID.Hex()].Videos[0].HasBeenPaid)
	assert.Empty(t, transactions.alerts)
	assert.Zero(t, users.credits[creator.ID.Hex()])

	// Summary is persisted even for a fully failed batch
	require.Len(t, transactions.summaries, 1)
	assert.Equal(t, 1, transactions.summaries[0].FailedCount)

	// A retry after the processor recovers pays normally
	sender.failFor = nil
	retry, err := svc.PayCreators(context.Background(), campaign.ID.Hex(), []string{creator.ID.Hex()}, "admin-1")
	require.NoError(t, err)
	assert.True(t, retry.Success)
	assert.Equal(t, 1, retry.ProcessedCount)
	assert.Len(t, sender.sent, 1)
}

func TestPayCreatorsBookkeepingFailureEscalates(t *testing.T) {
	creator := newCreator("creator@pay.me")
	campaign := testCampaign(approvedVideo("u1", creator.ID.Hex(), 50))
	campaigns := newFakeCampaignStore(campaign)
	transactions := newFakeTransactionStore()
	transactions.completeErr = errors.New("db down")
	users := newFakeUserStore(creator)
	sender := &fakePayoutSender{}

	svc := NewPaymentService(campaigns, transactions, users, sender, nil)
	result, err := svc.PayCreators(context.Background(), campaign.ID.Hex(), []string{creator.ID.Hex()}, "admin-1")
	require.NoError(t, err)

	// Money went out but completion failed: critical alert, creator not
	// counted as processed, video not marked paid.
	assert.False(t, result.Success)
	assert.Zero(t, result.ProcessedCount)
	require.Len(t, sender.sent, 1)
	require.Len(t, transactions.alerts, 1)
	assert.Equal(t, models.AlertSeverityCritical, transactions.alerts[0].Severity)
	assert.Equal(t, creator.ID.Hex(), transactions.alerts[0].CreatorID)
	assert.NotEmpty(t, transactions.alerts[0].PayoutBatchID)
	assert.False(t, campaigns.campaigns[campaign.ID.Hex()].Videos[0].HasBeenPaid)
}

func TestPayCreatorsPartialBatchIsolation(t *testing.T) {
	good := newCreator("good@pay.me")
	bad := newCreator("bad@pay.me")
	campaign := testCampaign(
		approvedVideo("u1", good.ID.Hex(), 50),
		approvedVideo("u2", bad.ID.Hex(), 30),
	)
	campaigns := newFakeCampaignStore(campaign)
	transactions := newFakeTransactionStore()
	users := newFakeUserStore(good, bad)
	sender := &fakePayoutSender{failFor: map[string]error{"bad@pay.me": errors.New("account locked")}}

	svc := NewPaymentService(campaigns, transactions, users, sender, nil)
	result, err := svc.PayCreators(context.Background(), campaign.ID.Hex(), []string{good.ID.Hex(), bad.ID.Hex()}, "admin-1")
	require.NoError(t, err)

	// One failure never rolls back the other creator's completed payout
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.ProcessedCount)
	assert.Equal(t, 50.0, result.TotalPaid)

	saved := campaigns.campaigns[campaign.ID.Hex()]
	assert.True(t, saved.Videos[0].HasBeenPaid)
	assert.False(t, saved.Videos[1].HasBeenPaid)

	require.Len(t, result.Outcomes, 2)
	assert.True(t, result.Outcomes[0].Success)
	assert.False(t, result.Outcomes[1].Success)
}

func TestPayCreatorsDuplicateURLRejected(t *testing.T) {
	creator := newCreator("creator@pay.me")
	campaign := testCampaign(
		approvedVideo("dup", creator.ID.Hex(), 50),
		approvedVideo("dup", creator.ID.Hex(), 50),
	)
	campaigns := newFakeCampaignStore(campaign)
	transactions := newFakeTransactionStore()
	users := newFakeUserStore(creator)
	sender := &fakePayoutSender{}

	svc := NewPaymentService(campaigns, transactions, users, sender, nil)
	result, err := svc.PayCreators(context.Background(), campaign.ID.Hex(), []string{creator.ID.Hex()}, "admin-1")
	require.NoError(t, err)

	// Ambiguous bookkeeping target: refuse before any money moves
	assert.False(t, result.Success)
	assert.Empty(t, sender.sent)
	require.Len(t, result.Outcomes, 1)
	assert.Contains(t, result.Outcomes[0].Error, "duplicate")
}

func TestPayCreatorsUnknownCampaign(t *testing.T) {
	svc := NewPaymentService(newFakeCampaignStore(), newFakeTransactionStore(), newFakeUserStore(), &fakePayoutSender{}, nil)

	_, err := svc.PayCreators(context.Background(), "missing", []string{"c1"}, "admin-1")
	assert.Error(t, err)
}

func TestGetPendingPaymentsPreviewDoesNotPay(t *testing.T) {
	creator := newCreator("creator@pay.me")
	campaign := testCampaign(approvedVideo("u1", creator.ID.Hex(), 50))
	campaigns := newFakeCampaignStore(campaign)
	sender := &fakePayoutSender{}

	svc := NewPaymentService(campaigns, newFakeTransactionStore(), newFakeUserStore(creator), sender, nil)
	pending, unpaid, err := svc.GetPendingPayments(context.Background(), campaign.ID.Hex(), []string{creator.ID.Hex()})
	require.NoError(t, err)

	require.Len(t, pending, 1)
	assert.Equal(t, 50.0, pending[0].AmountOwed)
	assert.Empty(t, unpaid)
	assert.Empty(t, sender.sent)
	assert.False(t, campaigns.campaigns[campaign.ID.Hex()].Videos[0].HasBeenPaid)
}
