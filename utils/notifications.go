package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"firebase.google.com/go/v4/messaging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/gomail.v2"

	"github.com/clipcash/clipcash_backend/config"
	"github.com/clipcash/clipcash_backend/models"
)

// NotificationService delivers best-effort payout notifications: an in-app
// document, a payout email and an FCM push. Every channel failure is logged
// and never propagated; notifications must not block payout bookkeeping.
type NotificationService struct {
	db *mongo.Client
}

// NewNotificationService creates the notification sender
func NewNotificationService(db *mongo.Client) *NotificationService {
	return &NotificationService{db: db}
}

// SaveNotification saves an in-app notification to the database
func SaveNotification(db *mongo.Client, userID primitive.ObjectID, title, message, notifType string, data interface{}) error {
	collection := config.GetCollection(db, "notifications")

	notification := models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      notifType,
		Data:      data,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	_, err := collection.InsertOne(context.Background(), notification)
	return err
}

// NotifyPayoutCompleted tells a creator their payout went through
func (n *NotificationService) NotifyPayoutCompleted(creatorID string, amount float64, campaign *models.Campaign, batchID string) {
	objID, err := primitive.ObjectIDFromHex(creatorID)
	if err != nil {
		log.Printf("notifications: invalid creator id %s: %v", creatorID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = config.GetCollection(n.db, "users").FindOne(ctx, bson.M{"_id": objID}).Decode(&user)
	if err != nil {
		log.Printf("notifications: failed to load creator %s: %v", creatorID, err)
		return
	}

	title := "Payout sent"
	message := fmt.Sprintf("You were paid $%.2f for campaign %q.", amount, campaign.Name)

	if err := SaveNotification(n.db, objID, title, message, models.NotificationTypePayoutCompleted, map[string]interface{}{
		"campaignId":    campaign.ID.Hex(),
		"amount":        amount,
		"payoutBatchId": batchID,
	}); err != nil {
		log.Printf("notifications: failed to save in-app notification: %v", err)
	}

	if user.PayoutEmail != "" {
		body := fmt.Sprintf("Hi,\n\nYour earnings of $%.2f for campaign %q have been sent to %s (PayPal batch %s).\n\nThanks for creating with us.",
			amount, campaign.Name, user.PayoutEmail, batchID)
		if err := sendEmail(user.Email, title, body); err != nil {
			log.Printf("notifications: failed to send payout email to %s: %v", user.Email, err)
		}
	}

	if user.FCMToken != "" {
		if err := sendPush(ctx, user.FCMToken, title, message); err != nil {
			log.Printf("notifications: failed to send push: %v", err)
		}
	}
}

// sendEmail delivers one plain-text email over SMTP
func sendEmail(to, subject, body string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	if smtpHost == "" {
		return fmt.Errorf("SMTP not configured")
	}

	smtpPort := 2525
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &smtpPort)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	return d.DialAndSend(m)
}

// sendPush delivers one FCM push when Firebase is configured
func sendPush(ctx context.Context, token, title, body string) error {
	if config.FirebaseApp == nil {
		return fmt.Errorf("firebase not configured")
	}

	client, err := config.FirebaseApp.Messaging(ctx)
	if err != nil {
		return err
	}

	_, err = client.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	})
	return err
}
