package payment_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/apperrors"
	"storefront/pkg/payment"

	"github.com/stretchr/testify/assert"
)

const testSecret = "test_key_secret"

func newTestClient(url string) *payment.Client {
	return payment.NewClient(payment.Config{
		KeyID:     "test_key_id",
		KeySecret: testSecret,
		BaseURL:   url,
	})
}

func TestClient_CreateIntent(t *testing.T) {
	var gotAuthUser, gotAuthPass string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuthUser, gotAuthPass, _ = r.BasicAuth()
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       "order_N9Z1",
			"amount":   gotBody["amount"],
			"currency": gotBody["currency"],
			"receipt":  gotBody["receipt"],
		})
	}))
	defer server.Close()

	intent, err := newTestClient(server.URL).CreateIntent(122745, "INR")

	assert.NoError(t, err)
	assert.Equal(t, "order_N9Z1", intent.IntentID)
	assert.Equal(t, int64(122745), intent.Amount)
	assert.Equal(t, "INR", intent.Currency)
	assert.NotEmpty(t, intent.Receipt)
	assert.Equal(t, "test_key_id", gotAuthUser)
	assert.Equal(t, testSecret, gotAuthPass)
}

func TestClient_CreateIntent_GatewayDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	server.Close() // refuse connections

	intent, err := newTestClient(server.URL).CreateIntent(100, "INR")

	assert.Nil(t, intent)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeGatewayDown))
}

func TestClient_CreateIntent_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	intent, err := newTestClient(server.URL).CreateIntent(100, "INR")

	assert.Nil(t, intent)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeGatewayDown))
}

func TestClient_VerifySignature(t *testing.T) {
	client := newTestClient("http://unused")

	genuine := payment.Sign(testSecret, "order_N9Z1", "pay_A1B2")

	assert.True(t, client.VerifySignature("order_N9Z1", "pay_A1B2", genuine))

	// A tampered reference or signature must fail.
	assert.False(t, client.VerifySignature("order_N9Z1", "pay_OTHER", genuine))
	assert.False(t, client.VerifySignature("order_OTHER", "pay_A1B2", genuine))
	assert.False(t, client.VerifySignature("order_N9Z1", "pay_A1B2", genuine+"00"))
	assert.False(t, client.VerifySignature("order_N9Z1", "pay_A1B2", ""))

	// A signature minted with the wrong secret must fail.
	forged := payment.Sign("wrong_secret", "order_N9Z1", "pay_A1B2")
	assert.False(t, client.VerifySignature("order_N9Z1", "pay_A1B2", forged))
}

func TestClient_Refund(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/pay_A1B2/refund", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{
			"id":     "rfnd_X7Y8",
			"status": "processed",
		})
	}))
	defer server.Close()

	refund, err := newTestClient(server.URL).Refund("pay_A1B2", 122745)

	assert.NoError(t, err)
	assert.Equal(t, "rfnd_X7Y8", refund.RefundID)
	assert.Equal(t, "processed", refund.Status)
}

func TestClient_Refund_AlreadyRefunded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{
				"code":        "BAD_REQUEST_ERROR",
				"description": "The payment has been fully refunded already",
			},
		})
	}))
	defer server.Close()

	// A cancellation retried after a refund already went through must still
	// succeed, or the order could never reach Cancelled.
	refund, err := newTestClient(server.URL).Refund("pay_A1B2", 122745)

	assert.NoError(t, err)
	assert.Equal(t, "pay_A1B2", refund.RefundID)
	assert.Equal(t, "processed", refund.Status)
}

func TestClient_Refund_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{
				"code":        "BAD_REQUEST_ERROR",
				"description": "refund amount exceeds captured amount",
			},
		})
	}))
	defer server.Close()

	refund, err := newTestClient(server.URL).Refund("pay_A1B2", 999999)

	assert.Nil(t, refund)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeRefundFailed))
	assert.Contains(t, err.Error(), "exceeds captured amount")
}
