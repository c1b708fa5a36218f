package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"storefront/internal/handlers"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/courier"
	"storefront/pkg/payment"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

const gatewaySecret = "test_gateway_secret"

// testEnv wires the full handler stack against in-memory repositories and
// fake gateway/courier servers.
type testEnv struct {
	app      *fiber.App
	products *repositories.MockProductRepository
	users    *repositories.MockUserRepository
	cleanup  func()
}

// setupEnv builds a Fiber app with every route registered, backed by fake
// HTTP servers standing in for the payment gateway and the courier.
func setupEnv() *testEnv {
	gatewayServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/orders":
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":       "order_itest1",
				"amount":   body["amount"],
				"currency": body["currency"],
			})
		default: // refunds
			json.NewEncoder(w).Encode(map[string]string{"id": "rfnd_itest1", "status": "processed"})
		}
	}))
	courierServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/packages":
			json.NewEncoder(w).Encode(map[string]string{"tracking_number": "WB555000111", "status": "MANIFESTED"})
		case "/api/v1/packages/cancel":
			w.WriteHeader(http.StatusOK)
		default:
			json.NewEncoder(w).Encode(map[string]string{"status": "In Transit", "location": "Nagpur Hub"})
		}
	}))

	productRepo := repositories.NewMockProductRepository()
	userRepo := repositories.NewMockUserRepository(productRepo)
	orderRepo := repositories.NewMockOrderRepository(productRepo)
	shipmentRepo := repositories.NewMockShipmentRepository()

	gateway := payment.NewClient(payment.Config{
		KeyID: "test_key", KeySecret: gatewaySecret, BaseURL: gatewayServer.URL,
	})
	courierClient := courier.NewClient(courier.Config{
		BaseURL: courierServer.URL, APIKey: "test_api_key", OriginPin: "110001",
	})

	pricing := services.NewPricingService(services.PricingConfig{}, nil)
	authService := services.NewAuthService(userRepo, "test_jwt_secret")
	productService := services.NewProductService(productRepo)
	userService := services.NewUserService(userRepo, productRepo)
	orderService := services.NewOrderService(orderRepo, userRepo, productRepo, shipmentRepo, pricing, gateway, courierClient, nil)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)
	handlers.NewProductHandler(productService, authService).RegisterRoutes(apiV1)
	handlers.NewUserHandler(userService, authService).RegisterRoutes(apiV1)
	handlers.NewOrderHandler(orderService, authService).RegisterRoutes(apiV1)

	return &testEnv{
		app:      app,
		products: productRepo,
		users:    userRepo,
		cleanup: func() {
			gatewayServer.Close()
			courierServer.Close()
		},
	}
}

// TestMain suppresses logging during tests for cleaner output.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	assert.NoError(t, err)

	var parsed map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		json.Unmarshal(raw, &parsed)
	}
	return resp, parsed
}

func (e *testEnv) registerAndLogin(t *testing.T, username string) string {
	t.Helper()
	resp, _ := e.request(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "Test User",
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := e.request(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	assert.NotEmpty(t, token)
	return token
}

func TestAuthRegisterAndLogin(t *testing.T) {
	env := setupEnv()
	defer env.cleanup()

	token := env.registerAndLogin(t, "asha")
	assert.NotEmpty(t, token)

	// Duplicate username is rejected
	resp, _ := env.request(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "Test User",
		"username": "asha",
		"email":    "other@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Wrong password is rejected
	resp, _ = env.request(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "asha",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := setupEnv()
	defer env.cleanup()

	resp, _ := env.request(t, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.request(t, http.MethodGet, "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProductMutationsRequireAdmin(t *testing.T) {
	env := setupEnv()
	defer env.cleanup()

	token := env.registerAndLogin(t, "regularuser")

	// Public read works without any token.
	resp, _ := env.request(t, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A regular user may not create products.
	resp, _ = env.request(t, http.MethodPost, "/api/v1/products", token, map[string]interface{}{
		"name":  "Sneaky Product",
		"price": 1.0,
		"stock": 1,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCheckoutAndCancelFlow(t *testing.T) {
	env := setupEnv()
	defer env.cleanup()

	assert.NoError(t, env.products.Create(&models.Product{
		ID: "prod-1", Name: "Bluetooth Speaker", Price: 500.00, Stock: 5, WeightGrams: 400,
	}))

	token := env.registerAndLogin(t, "buyer")

	// Save a shipping address.
	resp, address := env.request(t, http.MethodPost, "/api/v1/addresses", token, map[string]string{
		"full_name":   "Asha K",
		"phone":       "9999999999",
		"street":      "12 MG Road",
		"city":        "Bengaluru",
		"state":       "KA",
		"postal_code": "560001",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	addressID, _ := address["id"].(string)
	assert.NotEmpty(t, addressID)

	// Fill the cart.
	resp, _ = env.request(t, http.MethodPost, "/api/v1/cart", token, map[string]interface{}{
		"product_id": "prod-1",
		"quantity":   2,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Quote the full price breakdown.
	resp, quote := env.request(t, http.MethodPost, "/api/v1/orders/quote", token, map[string]string{
		"address_id": addressID,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1000.00, quote["subtotal"])
	assert.Equal(t, 169.00, quote["shipping"])
	assert.Equal(t, 58.45, quote["tax"])
	assert.Equal(t, 1227.45, quote["total"])

	// Create the payment intent at the (fake) gateway.
	resp, intent := env.request(t, http.MethodPost, "/api/v1/orders/checkout", token, map[string]interface{}{
		"address_id": addressID,
		"amount":     1227.45,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "order_itest1", intent["id"])

	// A forged total is rejected before any money moves.
	resp, body := env.request(t, http.MethodPost, "/api/v1/orders/checkout", token, map[string]interface{}{
		"address_id": addressID,
		"amount":     1300.00,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "PRICE_MISMATCH", body["code"])

	// A tampered signature places nothing.
	resp, body = env.request(t, http.MethodPost, "/api/v1/orders/confirm", token, map[string]string{
		"address_id":       addressID,
		"gateway_order_id": "order_itest1",
		"payment_id":       "pay_itest1",
		"signature":        "forged",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_SIGNATURE", body["code"])

	// Confirm with the genuine signature.
	resp, order := env.request(t, http.MethodPost, "/api/v1/orders/confirm", token, map[string]string{
		"address_id":       addressID,
		"gateway_order_id": "order_itest1",
		"payment_id":       "pay_itest1",
		"signature":        payment.Sign(gatewaySecret, "order_itest1", "pay_itest1"),
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID, _ := order["id"].(string)
	assert.NotEmpty(t, orderID)
	assert.Equal(t, "Processing", order["status"])
	assert.Equal(t, "WB555000111", order["tracking_number"])
	assert.Equal(t, 1227.45, order["total_price"])

	// The cart was consumed by the order.
	resp, _ = env.request(t, http.MethodGet, "/api/v1/cart", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The order shows up in the buyer's history.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	listResp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	var orders []map[string]interface{}
	assert.NoError(t, json.NewDecoder(listResp.Body).Decode(&orders))
	assert.Len(t, orders, 1)

	// Cancel: refund issued, stock restored, order terminal.
	resp, cancelled := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%s/cancel", orderID), token, map[string]string{
		"reason": "changed my mind",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Cancelled", cancelled["status"])
	assert.Equal(t, "rfnd_itest1", cancelled["refund_id"])

	product, err := env.products.GetByID("prod-1")
	assert.NoError(t, err)
	assert.Equal(t, 5, product.Stock)

	// Cancelling twice is rejected.
	resp, body = env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%s/cancel", orderID), token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_TRANSITION", body["code"])
}
