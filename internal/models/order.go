package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// OrderStatus is the closed set of order lifecycle states.
type OrderStatus string

const (
	StatusPaid       OrderStatus = "Paid"       // payment verified, no shipment yet
	StatusProcessing OrderStatus = "Processing" // shipment booked with the courier
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

// ParseOrderStatus converts a free-form string into an OrderStatus,
// rejecting anything outside the known set.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPaid, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("unknown order status: %q", s)
}

// Terminal reports whether no further transition is permitted from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusShipped || s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether the transition s -> next is legal.
// Cancellation is reachable from any non-terminal state; the happy path is
// Paid -> Processing -> Shipped -> Delivered.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case StatusPaid:
		return next == StatusProcessing || next == StatusCancelled
	case StatusProcessing:
		return next == StatusShipped || next == StatusCancelled
	case StatusShipped:
		return next == StatusDelivered
	case StatusDelivered, StatusCancelled:
		return false
	}
	return false
}

// OrderItem is a snapshot of one cart line at order time. Name and Price are
// copied from the product so later catalog edits never rewrite history.
type OrderItem struct {
	ID        string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string  `json:"order_id" gorm:"index;type:varchar(36)"`
	ProductID string  `json:"product_id" gorm:"type:varchar(36)"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"` // unit price at the time of order
	gorm.Model
}

// ShippingAddress is the order's own copy of the destination address.
type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Refund bookkeeping states recorded on the order.
const (
	RefundProcessed = "processed"
	RefundSkipped   = "skipped" // no payment was captured, nothing to refund
)

// Order represents a customer order. It is created only after payment
// verification succeeds and owns deep copies of its line items and address.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID          string          `json:"user_id" gorm:"index;type:varchar(36)"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	ShippingAddress ShippingAddress `json:"shipping_address" gorm:"embedded;embeddedPrefix:ship_"`

	Subtotal    float64 `json:"subtotal"`
	ShippingFee float64 `json:"shipping_fee"`
	Tax         float64 `json:"tax"`
	TotalPrice  float64 `json:"total_price"`

	Status OrderStatus `json:"status" gorm:"type:varchar(20)"`

	// Payment gateway references.
	GatewayOrderID string `json:"gateway_order_id"`
	PaymentID      string `json:"payment_id"`
	PaymentMethod  string `json:"payment_method"`

	// Shipment references, set once a courier booking succeeds.
	TrackingNumber  string `json:"tracking_number"`
	Courier         string `json:"courier"`
	ShipmentPending bool   `json:"shipment_pending"` // booking failed, awaiting operator retry

	// Refund record, populated on cancellation.
	RefundID     string     `json:"refund_id,omitempty"`
	RefundStatus string     `json:"refund_status,omitempty"`
	RefundAmount float64    `json:"refund_amount,omitempty"`
	RefundedAt   *time.Time `json:"refunded_at,omitempty"`

	// Cancellation record.
	CancelledBy  string     `json:"cancelled_by,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`

	gorm.Model
}
