package models

// PayPalTokenResponse is the OAuth client-credentials grant response
type PayPalTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// PayPalPayoutRequest is the Payouts API request body. One request covers
// exactly one recipient; batching across creators is deliberately avoided.
type PayPalPayoutRequest struct {
	SenderBatchHeader PayPalSenderBatchHeader `json:"sender_batch_header"`
	Items             []PayPalPayoutItem      `json:"items"`
}

// PayPalSenderBatchHeader carries the sender-assigned idempotency id
type PayPalSenderBatchHeader struct {
	SenderBatchID string `json:"sender_batch_id"`
	EmailSubject  string `json:"email_subject,omitempty"`
	EmailMessage  string `json:"email_message,omitempty"`
}

// PayPalPayoutItem is one recipient line
type PayPalPayoutItem struct {
	RecipientType string       `json:"recipient_type"`
	Amount        PayPalAmount `json:"amount"`
	Receiver      string       `json:"receiver"`
	Note          string       `json:"note,omitempty"`
	SenderItemID  string       `json:"sender_item_id"`
}

// PayPalAmount is a currency/value pair; value is a 2-decimal string
type PayPalAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// PayPalPayoutResponse is the Payouts API response. A response without a
// non-empty payout_batch_id is treated as a failure regardless of HTTP status.
type PayPalPayoutResponse struct {
	BatchHeader *PayPalBatchHeader `json:"batch_header"`
	Links       []PayPalLink       `json:"links,omitempty"`
}

// PayPalBatchHeader identifies the executed payout batch
type PayPalBatchHeader struct {
	PayoutBatchID string `json:"payout_batch_id"`
	BatchStatus   string `json:"batch_status"`
}

// PayPalLink is a HATEOAS link entry
type PayPalLink struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

// PayPalErrorResponse is the error body shape
type PayPalErrorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	DebugID string `json:"debug_id"`
}
