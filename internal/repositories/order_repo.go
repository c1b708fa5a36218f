package repositories

import (
	"storefront/internal/models"
)

// StockReservation is one stock mutation tied to an order line.
// ProductName rides along so shortfall errors can name the product.
type StockReservation struct {
	ProductID   string
	ProductName string
	Quantity    int
}

// OrderRepository defines the interface for order data access. PlaceOrder and
// CancelOrder are transactional: the order write and every stock mutation
// commit together or not at all.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	GetByUser(userID string) ([]models.Order, error)
	// PlaceOrder creates the order and decrements stock for every reservation,
	// each decrement guarded by stock >= quantity. Any shortfall aborts the
	// whole placement with an InsufficientStock error and no stock is mutated.
	PlaceOrder(order *models.Order, reservations []StockReservation) error
	// CancelOrder persists the (already mutated) order and increments stock
	// back for every reservation in the same transaction.
	CancelOrder(order *models.Order, restock []StockReservation) error
	Update(order *models.Order) error
}
