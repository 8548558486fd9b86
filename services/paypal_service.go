package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/clipcash/clipcash_backend/models"
)

// PayPalService handles interactions with the PayPal Payouts API
type PayPalService struct {
	baseURL      string
	clientID     string
	clientSecret string
	isSandbox    bool
	client       *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewPayPalService creates a new PayPal service instance from environment config
func NewPayPalService() *PayPalService {
	isSandbox := os.Getenv("PAYPAL_ENV") != "production"

	baseURL := os.Getenv("PAYPAL_API_URL")
	if baseURL == "" {
		if isSandbox {
			baseURL = "https://api-m.sandbox.paypal.com"
		} else {
			baseURL = "https://api-m.paypal.com"
		}
	}

	clientID := os.Getenv("PAYPAL_CLIENT_ID")
	clientSecret := os.Getenv("PAYPAL_CLIENT_SECRET")

	if clientID == "" || clientSecret == "" {
		log.Printf("WARNING: PayPal credentials not fully configured:")
		if clientID == "" {
			log.Printf("  - PAYPAL_CLIENT_ID is missing")
		}
		if clientSecret == "" {
			log.Printf("  - PAYPAL_CLIENT_SECRET is missing")
		}
		log.Printf("Set these environment variables for payouts to work")
	} else {
		log.Printf("PayPal Service Configuration:")
		log.Printf("  Environment: %s", map[bool]string{true: "sandbox", false: "production"}[isSandbox])
		log.Printf("  Base URL: %s", baseURL)
		log.Printf("  Client ID: %s...", clientID[:min(8, len(clientID))])
	}

	return &PayPalService{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		isSandbox:    isSandbox,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// getAccessToken fetches (or reuses) an OAuth token via the client-credentials grant
func (s *PayPalService) getAccessToken(ctx context.Context) (string, error) {
	if s.clientID == "" || s.clientSecret == "" {
		return "", fmt.Errorf("missing PayPal credentials. Please set PAYPAL_CLIENT_ID and PAYPAL_CLIENT_SECRET environment variables")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Now().Before(s.tokenExpiry) {
		return s.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(s.clientID, s.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("PayPal token request failed: status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp models.PayPalTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("PayPal token response missing access_token")
	}

	s.accessToken = tokenResp.AccessToken
	// refresh a minute early
	s.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn-60) * time.Second)

	return s.accessToken, nil
}

// SendPayout transfers amount USD to one recipient email. senderBatchID is the
// sender-assigned idempotency id for the batch. Returns the PayPal batch id;
// a 2xx response without a non-empty payout_batch_id is treated as a failure.
func (s *PayPalService) SendPayout(ctx context.Context, recipientEmail string, amount float64, senderBatchID, note string) (string, error) {
	token, err := s.getAccessToken(ctx)
	if err != nil {
		return "", err
	}

	payload := models.PayPalPayoutRequest{
		SenderBatchHeader: models.PayPalSenderBatchHeader{
			SenderBatchID: senderBatchID,
			EmailSubject:  "You have a payout from your campaign earnings",
		},
		Items: []models.PayPalPayoutItem{
			{
				RecipientType: "EMAIL",
				Amount: models.PayPalAmount{
					Value:    fmt.Sprintf("%.2f", amount),
					Currency: "USD",
				},
				Receiver:     recipientEmail,
				Note:         note,
				SenderItemID: senderBatchID + "-1",
			},
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/v1/payments/payouts", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create payout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send payout request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read payout response: %w", err)
	}

	if s.isSandbox || os.Getenv("PAYPAL_DEBUG") == "true" {
		log.Printf("PayPal payout response (%d): %s", resp.StatusCode, string(respBody))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp models.PayPalErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Name != "" {
			return "", fmt.Errorf("PayPal payout error: %s - %s (debug_id %s)", errResp.Name, errResp.Message, errResp.DebugID)
		}
		return "", fmt.Errorf("PayPal payout failed: status %d", resp.StatusCode)
	}

	var payoutResp models.PayPalPayoutResponse
	if err := json.Unmarshal(respBody, &payoutResp); err != nil {
		return "", fmt.Errorf("failed to parse payout response: %w", err)
	}

	// Payout confirmation must carry a batch id even on 2xx; anything else is
	// treated as a failed transfer.
	if payoutResp.BatchHeader == nil || payoutResp.BatchHeader.PayoutBatchID == "" {
		return "", fmt.Errorf("PayPal payout response missing batch id")
	}

	return payoutResp.BatchHeader.PayoutBatchID, nil
}
