// Package courier is the adapter for the outbound shipping partner. It books
// shipments, cancels them, quotes rates, and polls live tracking status.
package courier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront/internal/apperrors"
)

// Config holds courier API connection details.
type Config struct {
	BaseURL   string
	APIKey    string
	OriginPin string // postal code shipments originate from
	Name      string // courier display name, e.g. "Delivery One"
	Timeout   time.Duration
}

// Client talks to the courier partner's API over HTTP.
type Client struct {
	baseURL   string
	apiKey    string
	originPin string
	name      string
	http      *http.Client
}

// NewClient creates a new courier client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	name := cfg.Name
	if name == "" {
		name = "Delivery One"
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		originPin: cfg.OriginPin,
		name:      name,
		http:      &http.Client{Timeout: timeout},
	}
}

// Name returns the courier's display name, recorded on shipments.
func (c *Client) Name() string { return c.name }

// ShipmentRequest describes one outbound shipment to book.
type ShipmentRequest struct {
	OrderID     string
	FullName    string
	Phone       string
	Street      string
	City        string
	State       string
	PostalCode  string
	Country     string
	WeightGrams int
	COD         bool
}

// Booking is the courier's confirmation of a booked shipment.
type Booking struct {
	TrackingNumber string `json:"tracking_number"`
	Status         string `json:"status"`
	Courier        string `json:"-"`
}

// CancelResult reports the outcome of a shipment cancellation.
type CancelResult struct {
	Success bool
	Message string
}

// TrackingStatus is one point-in-time tracking snapshot.
type TrackingStatus struct {
	Status    string    `json:"status"`
	Location  string    `json:"location"`
	Timestamp time.Time `json:"timestamp"`
}

// BookShipment books an outbound shipment. The external order identifier is
// unique per attempt (order id + nanosecond timestamp) because the courier
// rejects duplicate identifiers when a booking is retried.
func (c *Client) BookShipment(req ShipmentRequest) (*Booking, error) {
	externalID := fmt.Sprintf("%s-%d", req.OrderID, time.Now().UnixNano())
	paymentMode := "Prepaid"
	if req.COD {
		paymentMode = "COD"
	}
	payload := map[string]interface{}{
		"external_order_id": externalID,
		"consignee": map[string]string{
			"name":        req.FullName,
			"phone":       req.Phone,
			"street":      req.Street,
			"city":        req.City,
			"state":       req.State,
			"postal_code": req.PostalCode,
			"country":     req.Country,
		},
		"origin_pin":   c.originPin,
		"weight_grams": req.WeightGrams,
		"payment_mode": paymentMode,
	}

	var booking Booking
	if err := c.post("/api/v1/packages", payload, &booking); err != nil {
		return nil, apperrors.ShipmentBookingFailed(err)
	}
	if booking.TrackingNumber == "" {
		return nil, apperrors.ShipmentBookingFailed(fmt.Errorf("courier returned no tracking number"))
	}
	if booking.Status == "" {
		booking.Status = "PROCESSING"
	}
	booking.Courier = c.name
	return &booking, nil
}

// CancelShipment cancels a booked shipment. An unconfigured courier or a
// shipment the courier already cancelled is not a failure; cancellation of
// the order must never be blocked by courier-side idempotency quirks.
func (c *Client) CancelShipment(trackingNumber string) CancelResult {
	if c.baseURL == "" || c.apiKey == "" {
		return CancelResult{Success: true, Message: "courier not configured; nothing to cancel"}
	}

	payload := map[string]string{"waybill": trackingNumber}
	err := c.post("/api/v1/packages/cancel", payload, nil)
	if err == nil {
		return CancelResult{Success: true, Message: "shipment cancelled"}
	}
	if strings.Contains(strings.ToLower(err.Error()), "already cancelled") {
		return CancelResult{Success: true, Message: "shipment was already cancelled by the courier"}
	}
	return CancelResult{Success: false, Message: err.Error()}
}

// GetShippingCharge quotes the delivery rate from the origin pin to the
// destination postal code for the given weight.
func (c *Client) GetShippingCharge(destPostalCode string, weightGrams int) (float64, error) {
	q := url.Values{}
	q.Set("origin", c.originPin)
	q.Set("destination", destPostalCode)
	q.Set("weight", strconv.Itoa(weightGrams))

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/api/v1/rates?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build rate request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, apperrors.Unserviceable(destPostalCode)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, apperrors.Unserviceable(destPostalCode)
	}

	var rate struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rate); err != nil || rate.Amount <= 0 {
		return 0, apperrors.Unserviceable(destPostalCode)
	}
	return rate.Amount, nil
}

// PollStatus fetches the live tracking status for a waybill. A waybill the
// courier has no record of yet yields a neutral "Info Received" status
// rather than an error; polling is read-only and safe to retry.
func (c *Client) PollStatus(trackingNumber string) (*TrackingStatus, error) {
	q := url.Values{}
	q.Set("waybill", trackingNumber)

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/api/v1/packages/json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tracking request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.ShipmentBookingFailed(fmt.Errorf("tracking request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tracking response: %w", err)
	}

	var parsed struct {
		Status    string `json:"status"`
		Location  string `json:"location"`
		Timestamp string `json:"timestamp"`
	}
	if resp.StatusCode != http.StatusOK || json.Unmarshal(body, &parsed) != nil || parsed.Status == "" {
		// The courier has no record yet.
		return &TrackingStatus{Status: "Info Received", Location: "N/A", Timestamp: time.Now()}, nil
	}

	ts, err := time.Parse(time.RFC3339, parsed.Timestamp)
	if err != nil {
		ts = time.Now()
	}
	return &TrackingStatus{Status: parsed.Status, Location: parsed.Location, Timestamp: ts}, nil
}

// post sends an authenticated JSON request and decodes the response into out.
func (c *Client) post(path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal courier request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build courier request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("courier request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read courier response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var courierErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &courierErr) == nil && courierErr.Message != "" {
			return fmt.Errorf("courier returned %d: %s", resp.StatusCode, courierErr.Message)
		}
		return fmt.Errorf("courier returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode courier response: %w", err)
		}
	}
	return nil
}
