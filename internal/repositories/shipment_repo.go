package repositories

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/apperrors"
	"storefront/internal/models"
)

// ShipmentRepository defines the interface for shipment data access.
type ShipmentRepository interface {
	Create(shipment *models.Shipment) error
	GetByOrderID(orderID string) (*models.Shipment, error)
	UpdateStatus(trackingNumber, status string) error
}

// GORMShipmentRepository is a GORM implementation of ShipmentRepository.
type GORMShipmentRepository struct {
	db *gorm.DB
}

// NewGORMShipmentRepository creates a new instance of GORMShipmentRepository.
func NewGORMShipmentRepository(db *gorm.DB) *GORMShipmentRepository {
	return &GORMShipmentRepository{db: db}
}

// Create stores a new shipment record.
func (r *GORMShipmentRepository) Create(shipment *models.Shipment) error {
	if shipment.ID == "" {
		shipment.ID = uuid.New().String()
	}
	if err := r.db.Create(shipment).Error; err != nil {
		return fmt.Errorf("failed to create shipment: %w", err)
	}
	return nil
}

// GetByOrderID returns the shipment booked for an order.
func (r *GORMShipmentRepository) GetByOrderID(orderID string) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.db.First(&shipment, "order_id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("shipment for order %s not found", orderID)
		}
		return nil, fmt.Errorf("failed to get shipment for order %s: %w", orderID, err)
	}
	return &shipment, nil
}

// UpdateStatus sets the courier-reported status for a tracking number.
func (r *GORMShipmentRepository) UpdateStatus(trackingNumber, status string) error {
	res := r.db.Model(&models.Shipment{}).
		Where("tracking_number = ?", trackingNumber).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update shipment status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("shipment with tracking number %s not found", trackingNumber)
	}
	return nil
}

// MockShipmentRepository is an in-memory implementation of ShipmentRepository.
type MockShipmentRepository struct {
	shipments map[string]models.Shipment // keyed by tracking number
	mu        sync.RWMutex
}

// NewMockShipmentRepository creates a new instance of MockShipmentRepository.
func NewMockShipmentRepository() *MockShipmentRepository {
	return &MockShipmentRepository{shipments: make(map[string]models.Shipment)}
}

// Create stores a new shipment record.
func (r *MockShipmentRepository) Create(shipment *models.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if shipment.ID == "" {
		shipment.ID = uuid.New().String()
	}
	r.shipments[shipment.TrackingNumber] = *shipment
	return nil
}

// GetByOrderID returns the shipment booked for an order.
func (r *MockShipmentRepository) GetByOrderID(orderID string) (*models.Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.shipments {
		if s.OrderID == orderID {
			shipment := s
			return &shipment, nil
		}
	}
	return nil, apperrors.NotFound("shipment for order %s not found", orderID)
}

// UpdateStatus sets the courier-reported status for a tracking number.
func (r *MockShipmentRepository) UpdateStatus(trackingNumber, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	shipment, ok := r.shipments[trackingNumber]
	if !ok {
		return apperrors.NotFound("shipment with tracking number %s not found", trackingNumber)
	}
	shipment.Status = status
	r.shipments[trackingNumber] = shipment
	return nil
}
