package repositories

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/apperrors"
	"storefront/internal/models"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetAll retrieves all orders with their line items, newest first.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves a single order by its ID.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("order with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByUser retrieves all orders belonging to a user, newest first.
func (r *GORMOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Where("user_id = ?", userID).
		Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// PlaceOrder runs the stock decrements and the order insert in one
// transaction. Each decrement is a conditional UPDATE guarded by
// stock >= quantity, so two concurrent placements cannot both take the
// last unit: the second sees zero rows affected and rolls back.
func (r *GORMOrderRepository) PlaceOrder(order *models.Order, reservations []StockReservation) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, res := range reservations {
			result := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", res.ProductID, res.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", res.Quantity))
			if result.Error != nil {
				return fmt.Errorf("failed to decrement stock for product %s: %w", res.ProductID, result.Error)
			}
			if result.RowsAffected == 0 {
				return apperrors.InsufficientStock(res.ProductName)
			}
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
}

// CancelOrder persists the cancelled order and restores stock in one
// transaction. A failed increment aborts the transaction so the order is
// never marked cancelled without its stock returned.
func (r *GORMOrderRepository) CancelOrder(order *models.Order, restock []StockReservation) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, res := range restock {
			if err := tx.Model(&models.Product{}).
				Where("id = ?", res.ProductID).
				UpdateColumn("stock", gorm.Expr("stock + ?", res.Quantity)).Error; err != nil {
				return fmt.Errorf("failed to restore stock for product %s: %w", res.ProductID, err)
			}
		}
		if err := tx.Save(order).Error; err != nil {
			return fmt.Errorf("failed to persist cancelled order: %w", err)
		}
		return nil
	})
}

// Update saves changes to an existing order.
func (r *GORMOrderRepository) Update(order *models.Order) error {
	res := r.db.Save(order)
	if res.Error != nil {
		return fmt.Errorf("failed to update order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("order with ID %s not found for update", order.ID)
	}
	return nil
}
