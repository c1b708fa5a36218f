package services

import (
	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// UserService handles the user's cart and address book. The order workflow
// consumes both through the repository; these operations exist for the
// storefront endpoints that fill them.
type UserService struct {
	userRepo    repositories.UserRepository
	productRepo repositories.ProductRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository, productRepo repositories.ProductRepository) *UserService {
	return &UserService{
		userRepo:    userRepo,
		productRepo: productRepo,
	}
}

// GetCart returns the user's cart with live product data.
func (s *UserService) GetCart(userID string) ([]models.CartItem, error) {
	return s.userRepo.GetCartWithProducts(userID)
}

// AddToCart adds a product to the cart after confirming the requested
// quantity is in stock right now. The binding stock check still happens at
// order placement.
func (s *UserService) AddToCart(userID, productID string, quantity int) error {
	if quantity < 1 {
		return apperrors.Validation("a valid quantity is required")
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	if product.Stock < quantity {
		return apperrors.InsufficientStock(product.Name)
	}
	return s.userRepo.AddCartItem(userID, productID, quantity)
}

// UpdateCartQuantity sets the quantity for a product already in the cart.
func (s *UserService) UpdateCartQuantity(userID, productID string, quantity int) error {
	if quantity < 1 {
		return apperrors.Validation("a valid quantity is required")
	}
	return s.userRepo.UpdateCartQuantity(userID, productID, quantity)
}

// RemoveFromCart removes a single cart line.
func (s *UserService) RemoveFromCart(userID, cartItemID string) error {
	return s.userRepo.RemoveCartItem(userID, cartItemID)
}

// ListAddresses returns the user's address book.
func (s *UserService) ListAddresses(userID string) ([]models.Address, error) {
	return s.userRepo.ListAddresses(userID)
}

// AddAddress stores a new address in the user's address book.
func (s *UserService) AddAddress(userID string, address *models.Address) error {
	address.UserID = userID
	if address.Country == "" {
		address.Country = "India"
	}
	if address.Type == "" {
		address.Type = "Home"
	}
	return s.userRepo.AddAddress(address)
}

// UpdateAddress saves changes to an existing address.
func (s *UserService) UpdateAddress(userID string, address *models.Address) error {
	address.UserID = userID
	if address.Country == "" {
		address.Country = "India"
	}
	if address.Type == "" {
		address.Type = "Home"
	}
	return s.userRepo.UpdateAddress(address)
}

// DeleteAddress removes an address from the user's address book.
func (s *UserService) DeleteAddress(userID, addressID string) error {
	return s.userRepo.DeleteAddress(userID, addressID)
}
