// Package payment is the adapter for the external payment gateway. It creates
// payment intents before the customer pays, verifies the gateway's HMAC
// signature after, and issues refunds. The adapter never retries on its own;
// duplicate charges are worse than a surfaced failure.
package payment

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront/internal/apperrors"
)

// Config holds payment gateway connection details.
type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration // bound on every gateway call
}

// Client talks to the payment gateway over HTTP.
type Client struct {
	keyID     string
	keySecret string
	baseURL   string
	http      *http.Client
}

// NewClient creates a new payment gateway client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      &http.Client{Timeout: timeout},
	}
}

// Intent is the gateway's pre-authorization object for an amount to be
// charged. The customer completes payment against it externally.
type Intent struct {
	IntentID string `json:"id"`
	Amount   int64  `json:"amount"` // minor currency units
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// Refund is the gateway's record of a returned payment.
type Refund struct {
	RefundID string `json:"id"`
	Status   string `json:"status"`
}

type gatewayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateIntent registers an intent for the given amount with the gateway.
// Callers must not create an Order until an intent exists.
func (c *Client) CreateIntent(amountMinorUnits int64, currency string) (*Intent, error) {
	payload := map[string]interface{}{
		"amount":   amountMinorUnits,
		"currency": currency,
		"receipt":  uuid.New().String(),
	}
	var intent Intent
	if err := c.post("/v1/orders", payload, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// VerifySignature recomputes the HMAC-SHA256 of "orderRef|paymentRef" with
// the shared secret and compares it to the supplied signature in constant
// time. This is the sole proof that a payment actually occurred.
func (c *Client) VerifySignature(orderRef, paymentRef, signature string) bool {
	expected := Sign(c.keySecret, orderRef, paymentRef)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign produces the hex HMAC-SHA256 signature the gateway sends for a
// completed payment.
func Sign(secret, orderRef, paymentRef string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

// Refund asks the gateway to return amountMinorUnits of the payment. A
// payment the gateway reports as already fully refunded is treated as
// success, so cancellation retries stay idempotent.
func (c *Client) Refund(paymentRef string, amountMinorUnits int64) (*Refund, error) {
	payload := map[string]interface{}{"amount": amountMinorUnits}
	var refund Refund
	err := c.post("/v1/payments/"+paymentRef+"/refund", payload, &refund)
	if err == nil {
		return &refund, nil
	}
	if strings.Contains(strings.ToLower(err.Error()), "fully refunded") {
		return &Refund{RefundID: paymentRef, Status: "processed"}, nil
	}
	return nil, apperrors.RefundFailed(err)
}

// post sends an authenticated JSON request and decodes the response into out.
func (c *Client) post(path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal gateway request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.GatewayUnavailable(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.GatewayUnavailable(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var gwErr gatewayError
		if json.Unmarshal(respBody, &gwErr) == nil && gwErr.Error.Description != "" {
			return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, gwErr.Error.Description)
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusUnauthorized {
			return apperrors.GatewayUnavailable(fmt.Errorf("gateway returned status %d", resp.StatusCode))
		}
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
	}
	return nil
}
