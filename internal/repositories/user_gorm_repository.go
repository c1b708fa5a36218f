package repositories

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/apperrors"
	"storefront/internal/models"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "username = ?", username).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("user with username %s not found", username)
		}
		return nil, fmt.Errorf("failed to get user by username %s: %w", username, err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("user with email %s not found", email)
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("user with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// GetCartWithProducts loads the user's cart lines with their products.
func (r *GORMUserRepository) GetCartWithProducts(userID string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Preload("Product").Where("user_id = ?", userID).
		Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart for user %s: %w", userID, err)
	}
	return items, nil
}

// AddCartItem adds a product to the user's cart, merging quantities when the
// product is already present.
func (r *GORMUserRepository) AddCartItem(userID, productID string, quantity int) error {
	var existing models.CartItem
	err := r.db.Where("user_id = ? AND product_id = ?", userID, productID).First(&existing).Error
	if err == nil {
		existing.Quantity += quantity
		if err := r.db.Save(&existing).Error; err != nil {
			return fmt.Errorf("failed to update cart item: %w", err)
		}
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("failed to look up cart item: %w", err)
	}

	item := models.CartItem{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := r.db.Create(&item).Error; err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

// UpdateCartQuantity sets the quantity for a product already in the cart.
func (r *GORMUserRepository) UpdateCartQuantity(userID, productID string, quantity int) error {
	res := r.db.Model(&models.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("quantity", quantity)
	if res.Error != nil {
		return fmt.Errorf("failed to update cart quantity: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("product %s not found in cart", productID)
	}
	return nil
}

// RemoveCartItem removes a single cart line by its ID.
func (r *GORMUserRepository) RemoveCartItem(userID, cartItemID string) error {
	res := r.db.Where("user_id = ? AND id = ?", userID, cartItemID).Delete(&models.CartItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove cart item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("cart item %s not found", cartItemID)
	}
	return nil
}

// ClearCart removes every cart line for a user.
func (r *GORMUserRepository) ClearCart(userID string) error {
	if err := r.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart for user %s: %w", userID, err)
	}
	return nil
}

// ListAddresses returns the user's address book.
func (r *GORMUserRepository) ListAddresses(userID string) ([]models.Address, error) {
	var addresses []models.Address
	if err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&addresses).Error; err != nil {
		return nil, fmt.Errorf("failed to list addresses for user %s: %w", userID, err)
	}
	return addresses, nil
}

// GetAddressByID returns one address, scoped to its owner.
func (r *GORMUserRepository) GetAddressByID(userID, addressID string) (*models.Address, error) {
	var address models.Address
	if err := r.db.Where("user_id = ? AND id = ?", userID, addressID).First(&address).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("address with ID %s not found", addressID)
		}
		return nil, fmt.Errorf("failed to get address %s: %w", addressID, err)
	}
	return &address, nil
}

// AddAddress stores a new address; the user's first address becomes default.
func (r *GORMUserRepository) AddAddress(address *models.Address) error {
	if address.ID == "" {
		address.ID = uuid.New().String()
	}
	var count int64
	if err := r.db.Model(&models.Address{}).Where("user_id = ?", address.UserID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count addresses: %w", err)
	}
	address.IsDefault = count == 0
	if err := r.db.Create(address).Error; err != nil {
		return fmt.Errorf("failed to add address: %w", err)
	}
	return nil
}

// UpdateAddress saves changes to an existing address.
func (r *GORMUserRepository) UpdateAddress(address *models.Address) error {
	res := r.db.Where("user_id = ? AND id = ?", address.UserID, address.ID).Save(address)
	if res.Error != nil {
		return fmt.Errorf("failed to update address: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("address with ID %s not found for update", address.ID)
	}
	return nil
}

// DeleteAddress removes an address, scoped to its owner.
func (r *GORMUserRepository) DeleteAddress(userID, addressID string) error {
	res := r.db.Where("user_id = ? AND id = ?", userID, addressID).Delete(&models.Address{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete address: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("address with ID %s not found for deletion", addressID)
	}
	return nil
}
