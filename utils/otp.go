// utils/otp.go
package utils

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// Bio verification codes expire after 10 minutes
const verificationCodeTTL = 10 * time.Minute

// GenerateVerificationCode returns a short random code the creator places in
// their TikTok bio to prove ownership
func GenerateVerificationCode() (string, error) {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	return "clip-" + base32.StdEncoding.EncodeToString(bytes)[:8], nil
}

// StoreVerificationCode saves the pending code and claimed username for a user
func StoreVerificationCode(ctx context.Context, rdb *redis.Client, userID, username, code string) error {
	if rdb == nil {
		return errors.New("verification unavailable: redis not connected")
	}
	if err := rdb.Set(ctx, "tiktok_verify_code:"+userID, code, verificationCodeTTL).Err(); err != nil {
		return err
	}
	return rdb.Set(ctx, "tiktok_verify_user:"+userID, username, verificationCodeTTL).Err()
}

// GetVerificationCode returns the pending code and username for a user, or an
// error when none is pending or it has expired
func GetVerificationCode(ctx context.Context, rdb *redis.Client, userID string) (code, username string, err error) {
	if rdb == nil {
		return "", "", errors.New("verification unavailable: redis not connected")
	}

	code, err = rdb.Get(ctx, "tiktok_verify_code:"+userID).Result()
	if err == redis.Nil {
		return "", "", errors.New("no pending verification, request a new code")
	}
	if err != nil {
		return "", "", err
	}

	username, err = rdb.Get(ctx, "tiktok_verify_user:"+userID).Result()
	if err != nil {
		return "", "", errors.New("no pending verification, request a new code")
	}

	return code, username, nil
}

// ClearVerificationCode removes the pending verification state after success
func ClearVerificationCode(ctx context.Context, rdb *redis.Client, userID string) {
	if rdb == nil {
		return
	}
	rdb.Del(ctx, "tiktok_verify_code:"+userID, "tiktok_verify_user:"+userID)
}

// ValidateVerifyAttempts limits bio verification checks per user per hour
func ValidateVerifyAttempts(userID string, rdb *redis.Client) error {
	if rdb == nil {
		return nil
	}

	key := "tiktok_verify_attempts:" + userID
	attempts, err := rdb.Incr(context.Background(), key).Result()
	if err != nil {
		return err
	}

	if attempts == 1 {
		rdb.Expire(context.Background(), key, 1*time.Hour)
	}

	if attempts > 10 {
		return errors.New("too many verification attempts")
	}

	return nil
}
