package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User types
const (
	UserTypeCreator = "creator"
	UserTypeAdmin   = "admin"
)

// User is a platform account. Creators link a TikTok identity through bio
// verification and configure a payout email before they can be paid.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DiscordID      string             `bson:"discordId,omitempty" json:"discordId,omitempty"`
	Email          string             `bson:"email" json:"email"`
	Password       string             `bson:"password,omitempty" json:"-"`
	UserType       string             `bson:"userType" json:"userType"`
	TikTokUsername string             `bson:"tiktokUsername,omitempty" json:"tiktokUsername,omitempty"`
	TikTokVerified bool               `bson:"tiktokVerified" json:"tiktokVerified"`
	PayoutEmail    string             `bson:"payoutEmail,omitempty" json:"payoutEmail,omitempty"`
	Wallet         Wallet             `bson:"wallet" json:"wallet"`
	FCMToken       string             `bson:"fcmToken,omitempty" json:"-"`
	IsActive       bool               `bson:"isActive" json:"isActive"`
	LastActivityAt *time.Time         `bson:"lastActivityAt,omitempty" json:"lastActivityAt,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Wallet tracks a creator's lifetime earnings bookkeeping
type Wallet struct {
	Balance      float64 `bson:"balance" json:"balance"`
	TotalEarned  float64 `bson:"totalEarned" json:"totalEarned"`
	TotalPaidOut float64 `bson:"totalPaidOut" json:"totalPaidOut"`
}

// Response is the standard API response envelope
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// LoginRequest represents the login credentials
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents a new account signup
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DiscordID   string `json:"discordId,omitempty"`
	PayoutEmail string `json:"payoutEmail,omitempty" validate:"omitempty,email"`
}

// LoginResponse carries the issued tokens
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user,omitempty"`
}
