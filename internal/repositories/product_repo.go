package repositories

import (
	"storefront/internal/models"
)

// ProductRepository defines the interface for product data access.
// Stock mutations tied to order placement go through OrderRepository's
// transactional methods, not here.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
