package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipcash/clipcash_backend/models"
)

func newTestPayPalService(baseURL string) *PayPalService {
	return &PayPalService{
		baseURL:      baseURL,
		clientID:     "test-client",
		clientSecret: "test-secret",
		client:       &http.Client{Timeout: 5 * time.Second},
	}
}

func paypalHandler(t *testing.T, payoutStatus int, payoutBody string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			assert.Equal(t, "test-client", user)
			assert.Equal(t, "test-secret", pass)
			w.Write([]byte(`{"access_token": "token-123", "expires_in": 3600}`))
		case "/v1/payments/payouts":
			assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
			w.WriteHeader(payoutStatus)
			w.Write([]byte(payoutBody))
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
	}
}

func TestSendPayout(t *testing.T) {
	var captured models.PayPalPayoutRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			w.Write([]byte(`{"access_token": "token-123", "expires_in": 3600}`))
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"batch_header": {"payout_batch_id": "PB-42", "batch_status": "PENDING"}}`))
	}))
	defer server.Close()

	s := newTestPayPalService(server.URL)

	batchID, err := s.SendPayout(context.Background(), "creator@pay.me", 123.456, "recon-1-c1", "earnings")
	require.NoError(t, err)
	assert.Equal(t, "PB-42", batchID)

	assert.Equal(t, "recon-1-c1", captured.SenderBatchHeader.SenderBatchID)
	require.Len(t, captured.Items, 1)
	assert.Equal(t, "EMAIL", captured.Items[0].RecipientType)
	assert.Equal(t, "creator@pay.me", captured.Items[0].Receiver)
	// Amount is serialized with exactly two decimals
	assert.Equal(t, "123.46", captured.Items[0].Amount.Value)
	assert.Equal(t, "USD", captured.Items[0].Amount.Currency)
}

func TestSendPayoutMissingBatchID(t *testing.T) {
	// A 2xx response without payout_batch_id must fail, never succeed silently
	server := httptest.NewServer(paypalHandler(t, http.StatusCreated, `{"batch_header": {"batch_status": "PENDING"}}`))
	defer server.Close()

	s := newTestPayPalService(server.URL)

	_, err := s.SendPayout(context.Background(), "creator@pay.me", 10, "recon-1-c1", "earnings")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing batch id")
}

func TestSendPayoutAPIError(t *testing.T) {
	server := httptest.NewServer(paypalHandler(t, http.StatusUnprocessableEntity,
		`{"name": "INSUFFICIENT_FUNDS", "message": "Sender does not have sufficient funds", "debug_id": "d1"}`))
	defer server.Close()

	s := newTestPayPalService(server.URL)

	_, err := s.SendPayout(context.Background(), "creator@pay.me", 10, "recon-1-c1", "earnings")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INSUFFICIENT_FUNDS")
}

func TestSendPayoutMissingCredentials(t *testing.T) {
	s := &PayPalService{client: &http.Client{Timeout: time.Second}}

	_, err := s.SendPayout(context.Background(), "creator@pay.me", 10, "recon-1-c1", "earnings")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing PayPal credentials")
}

func TestAccessTokenReused(t *testing.T) {
	tokenCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			tokenCalls++
			w.Write([]byte(`{"access_token": "token-123", "expires_in": 3600}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"batch_header": {"payout_batch_id": "PB-1"}}`))
	}))
	defer server.Close()

	s := newTestPayPalService(server.URL)

	for i := 0; i < 3; i++ {
		_, err := s.SendPayout(context.Background(), "creator@pay.me", 10, "recon-1-c1", "earnings")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, tokenCalls)
}
