package models

import "gorm.io/gorm"

// Shipment statuses as reported by the courier.
const (
	ShipmentPending       = "PENDING"
	ShipmentProcessing    = "PROCESSING"
	ShipmentShipped       = "SHIPPED"
	ShipmentInTransit     = "IN_TRANSIT"
	ShipmentOutForDeliver = "OUT_FOR_DELIVERY"
	ShipmentDelivered     = "DELIVERED"
	ShipmentFailed        = "FAILED"
	ShipmentReturned      = "RETURNED"
	ShipmentCancelled     = "CANCELLED"
)

// Shipment is created when a courier booking succeeds.
type Shipment struct {
	ID             string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID        string          `json:"order_id" gorm:"index;type:varchar(36)"`
	UserID         string          `json:"user_id" gorm:"index;type:varchar(36)"`
	TrackingNumber string          `json:"tracking_number" gorm:"uniqueIndex;type:varchar(100)"`
	Status         string          `json:"status" gorm:"type:varchar(30);default:PENDING"`
	Courier        string          `json:"courier"`
	Address        ShippingAddress `json:"address" gorm:"embedded;embeddedPrefix:addr_"`
	gorm.Model
}
