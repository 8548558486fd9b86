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

// CampaignRepository provides MongoDB access to the campaigns collection
type CampaignRepository struct {
	collection *mongo.Collection
}

// NewCampaignRepository creates a campaign repository
func NewCampaignRepository(db *mongo.Client) *CampaignRepository {
	return &CampaignRepository{
		collection: config.GetCollection(db, "campaigns"),
	}
}

// GetCampaign fetches one campaign by hex id
func (r *CampaignRepository) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var campaign models.Campaign
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// ListCampaigns returns every campaign
func (r *CampaignRepository) ListCampaigns(ctx context.Context) ([]models.Campaign, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var campaigns []models.Campaign
	if err := cursor.All(ctx, &campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}

// ListCampaignsByServer returns campaigns routed to a server id
func (r *CampaignRepository) ListCampaignsByServer(ctx context.Context, serverID string) ([]models.Campaign, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"serverIds": serverID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var campaigns []models.Campaign
	if err := cursor.All(ctx, &campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}

// InsertCampaign creates a new campaign document
func (r *CampaignRepository) InsertCampaign(ctx context.Context, campaign *models.Campaign) (string, error) {
	campaign.ID = primitive.NewObjectID()
	now := time.Now()
	campaign.CreatedAt = now
	campaign.UpdatedAt = now
	if campaign.Videos == nil {
		campaign.Videos = []models.VideoSubmission{}
	}

	if _, err := r.collection.InsertOne(ctx, campaign); err != nil {
		return "", err
	}
	return campaign.ID.Hex(), nil
}

// SaveMetrics persists a metrics pass: the full videos array, the aggregate
// fields and isComplete, in one merge write. There is no sub-document
// granularity for videos, so the array is always replaced whole.
func (r *CampaignRepository) SaveMetrics(ctx context.Context, campaign *models.Campaign) error {
	update := bson.M{
		"$set": bson.M{
			"videos":        campaign.Videos,
			"totalViews":    campaign.TotalViews,
			"totalLikes":    campaign.TotalLikes,
			"totalComments": campaign.TotalComments,
			"totalShares":   campaign.TotalShares,
			"totalEarnings": campaign.TotalEarnings,
			"budgetUsed":    campaign.BudgetUsed,
			"isComplete":    campaign.IsComplete,
			"updatedAt":     campaign.UpdatedAt,
		},
	}
	_, err := r.collection.UpdateByID(ctx, campaign.ID, update)
	return err
}

// ReplaceVideos writes back the full videos array
func (r *CampaignRepository) ReplaceVideos(ctx context.Context, campaignID string, videos []models.VideoSubmission) error {
	objID, err := primitive.ObjectIDFromHex(campaignID)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateByID(ctx, objID, bson.M{
		"$set": bson.M{
			"videos":    videos,
			"updatedAt": time.Now(),
		},
	})
	return err
}

// AppendVideo atomically appends one submission to the campaign
func (r *CampaignRepository) AppendVideo(ctx context.Context, campaignID string, video models.VideoSubmission) error {
	objID, err := primitive.ObjectIDFromHex(campaignID)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateByID(ctx, objID, bson.M{
		"$push": bson.M{"videos": video},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
	return err
}

// SetVideoStatus updates the review status of one submission, matched by URL
func (r *CampaignRepository) SetVideoStatus(ctx context.Context, campaignID, videoURL, status string) error {
	objID, err := primitive.ObjectIDFromHex(campaignID)
	if err != nil {
		return err
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "videos.url": videoURL},
		bson.M{
			"$set": bson.M{
				"videos.$.status":    status,
				"videos.$.updatedAt": time.Now(),
				"updatedAt":          time.Now(),
			},
		},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// AppendReceipt atomically appends a payout receipt to the campaign
func (r *CampaignRepository) AppendReceipt(ctx context.Context, campaignID string, receipt models.PayoutReceipt) error {
	objID, err := primitive.ObjectIDFromHex(campaignID)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateByID(ctx, objID, bson.M{
		"$push": bson.M{"receipts": receipt},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
	return err
}
