package repositories

import "storefront/internal/models"

// UserRepository defines the interface for user data access, including the
// user's cart and address book. The order workflow only reads through
// GetCartWithProducts and GetAddressByID and clears the cart after placement;
// the other mutations back the cart/address endpoints.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)

	GetCartWithProducts(userID string) ([]models.CartItem, error)
	AddCartItem(userID, productID string, quantity int) error
	UpdateCartQuantity(userID, productID string, quantity int) error
	RemoveCartItem(userID, cartItemID string) error
	ClearCart(userID string) error

	ListAddresses(userID string) ([]models.Address, error)
	GetAddressByID(userID, addressID string) (*models.Address, error)
	AddAddress(address *models.Address) error
	UpdateAddress(address *models.Address) error
	DeleteAddress(userID, addressID string) error
}
