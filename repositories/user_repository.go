package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clipcash/clipcash_backend/config"
	"github.com/clipcash/clipcash_backend/models"
)

// UserRepository provides MongoDB access to the users collection
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a user repository
func NewUserRepository(db *mongo.Client) *UserRepository {
	return &UserRepository{
		collection: config.GetCollection(db, "users"),
	}
}

// GetUser fetches one user by hex id
func (r *UserRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail fetches one user by login email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsersByIDs fetches users keyed by hex id. Unknown ids are simply absent
// from the result; callers surface that with an explicit reason.
func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		objIDs = append(objIDs, objID)
	}

	result := make(map[string]*models.User, len(objIDs))
	if len(objIDs) == 0 {
		return result, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	for i := range users {
		result[users[i].ID.Hex()] = &users[i]
	}
	return result, nil
}

// InsertUser creates a new account
func (r *UserRepository) InsertUser(ctx context.Context, user *models.User) (string, error) {
	user.ID = primitive.NewObjectID()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		return "", err
	}
	return user.ID.Hex(), nil
}

// CreditWallet adds a completed payout to the creator's wallet counters
func (r *UserRepository) CreditWallet(ctx context.Context, userID string, amount float64) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateByID(ctx, objID, bson.M{
		"$inc": bson.M{
			"wallet.totalEarned":  amount,
			"wallet.totalPaidOut": amount,
		},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	return err
}

// SetTikTokVerified stores the verified TikTok identity on the user
func (r *UserRepository) SetTikTokVerified(ctx context.Context, userID, username string) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateByID(ctx, objID, bson.M{
		"$set": bson.M{
			"tiktokUsername": username,
			"tiktokVerified": true,
			"updatedAt":      time.Now(),
		},
	})
	return err
}

// SetPayoutEmail updates the creator's payout destination
func (r *UserRepository) SetPayoutEmail(ctx context.Context, userID, payoutEmail string) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateByID(ctx, objID, bson.M{
		"$set": bson.M{
			"payoutEmail": payoutEmail,
			"updatedAt":   time.Now(),
		},
	})
	return err
}
