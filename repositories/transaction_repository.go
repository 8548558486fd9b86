package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clipcash/clipcash_backend/config"
	"github.com/clipcash/clipcash_backend/models"
)

// TransactionRepository provides MongoDB access to the payment ledger, the
// alerts collection and reconciliation summaries
type TransactionRepository struct {
	transactions    *mongo.Collection
	alerts          *mongo.Collection
	reconciliations *mongo.Collection
}

// NewTransactionRepository creates a transaction repository
func NewTransactionRepository(db *mongo.Client) *TransactionRepository {
	return &TransactionRepository{
		transactions:    config.GetCollection(db, "transactions"),
		alerts:          config.GetCollection(db, "alerts"),
		reconciliations: config.GetCollection(db, "reconciliations"),
	}
}

// InsertTransaction writes a new ledger row and returns its hex id
func (r *TransactionRepository) InsertTransaction(ctx context.Context, tx *models.Transaction) (string, error) {
	tx.ID = primitive.NewObjectID()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}

	if _, err := r.transactions.InsertOne(ctx, tx); err != nil {
		return "", err
	}
	return tx.ID.Hex(), nil
}

// MarkTransactionCompleted moves a pending transaction to completed with its
// external payment reference. Terminal states are immutable: the filter only
// matches pending rows.
func (r *TransactionRepository) MarkTransactionCompleted(ctx context.Context, txID, paymentReference string) error {
	objID, err := primitive.ObjectIDFromHex(txID)
	if err != nil {
		return err
	}

	now := time.Now()
	res, err := r.transactions.UpdateOne(ctx,
		bson.M{"_id": objID, "status": models.TransactionStatusPending},
		bson.M{"$set": bson.M{
			"status":           models.TransactionStatusCompleted,
			"paymentReference": paymentReference,
			"completedAt":      now,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errors.New("transaction not found or not pending")
	}
	return nil
}

// MarkTransactionFailed moves a pending transaction to failed with the reason
func (r *TransactionRepository) MarkTransactionFailed(ctx context.Context, txID, reason string) error {
	objID, err := primitive.ObjectIDFromHex(txID)
	if err != nil {
		return err
	}

	res, err := r.transactions.UpdateOne(ctx,
		bson.M{"_id": objID, "status": models.TransactionStatusPending},
		bson.M{"$set": bson.M{
			"status":        models.TransactionStatusFailed,
			"failureReason": reason,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errors.New("transaction not found or not pending")
	}
	return nil
}

// ListTransactions returns the ledger for one campaign, newest first
func (r *TransactionRepository) ListTransactions(ctx context.Context, campaignID string) ([]models.Transaction, error) {
	objID, err := primitive.ObjectIDFromHex(campaignID)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.transactions.Find(ctx, bson.M{"campaignId": objID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var txs []models.Transaction
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// InsertAlert persists an escalation record
func (r *TransactionRepository) InsertAlert(ctx context.Context, alert *models.Alert) error {
	alert.ID = primitive.NewObjectID()
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	_, err := r.alerts.InsertOne(ctx, alert)
	return err
}

// InsertReconciliationSummary persists a payout batch summary
func (r *TransactionRepository) InsertReconciliationSummary(ctx context.Context, summary *models.ReconciliationSummary) error {
	summary.ID = primitive.NewObjectID()
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now()
	}
	_, err := r.reconciliations.InsertOne(ctx, summary)
	return err
}
