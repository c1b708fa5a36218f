package repositories

import (
	"sync"

	"github.com/google/uuid"

	"storefront/internal/apperrors"
	"storefront/internal/models"
)

// MockUserRepository is an in-memory implementation of UserRepository.
// Cart lines carry a copy of the product loaded from the shared product
// repository, mirroring the Preload the GORM implementation does.
type MockUserRepository struct {
	users     map[string]models.User
	addresses map[string]models.Address
	cart      map[string][]models.CartItem // keyed by user ID
	products  *MockProductRepository
	mu        sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository(products *MockProductRepository) *MockUserRepository {
	return &MockUserRepository{
		users:     make(map[string]models.User),
		addresses: make(map[string]models.Address),
		cart:      make(map[string][]models.CartItem),
		products:  products,
	}
}

// Create adds a new user.
func (r *MockUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	r.users[user.ID] = *user
	return nil
}

// GetByUsername returns a user by username.
func (r *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, apperrors.NotFound("user with username %s not found", username)
}

// GetByEmail returns a user by email.
func (r *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, apperrors.NotFound("user with email %s not found", email)
}

// GetByID returns a user by ID.
func (r *MockUserRepository) GetByID(id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user with ID %s not found", id)
	}
	return &user, nil
}

// GetCartWithProducts returns the user's cart with live product data.
func (r *MockUserRepository) GetCartWithProducts(userID string) ([]models.CartItem, error) {
	r.mu.RLock()
	items := append([]models.CartItem(nil), r.cart[userID]...)
	r.mu.RUnlock()

	for i := range items {
		product, err := r.products.GetByID(items[i].ProductID)
		if err != nil {
			return nil, err
		}
		items[i].Product = *product
	}
	return items, nil
}

// AddCartItem adds a product to the cart, merging quantities.
func (r *MockUserRepository) AddCartItem(userID, productID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.cart[userID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += quantity
			r.cart[userID] = items
			return nil
		}
	}
	r.cart[userID] = append(items, models.CartItem{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	})
	return nil
}

// UpdateCartQuantity sets the quantity for a product already in the cart.
func (r *MockUserRepository) UpdateCartQuantity(userID, productID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.cart[userID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			r.cart[userID] = items
			return nil
		}
	}
	return apperrors.NotFound("product %s not found in cart", productID)
}

// RemoveCartItem removes a single cart line by its ID.
func (r *MockUserRepository) RemoveCartItem(userID, cartItemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.cart[userID]
	for i := range items {
		if items[i].ID == cartItemID {
			r.cart[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("cart item %s not found", cartItemID)
}

// ClearCart removes every cart line for a user.
func (r *MockUserRepository) ClearCart(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.cart, userID)
	return nil
}

// ListAddresses returns the user's address book.
func (r *MockUserRepository) ListAddresses(userID string) ([]models.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var addresses []models.Address
	for _, a := range r.addresses {
		if a.UserID == userID {
			addresses = append(addresses, a)
		}
	}
	return addresses, nil
}

// GetAddressByID returns one address, scoped to its owner.
func (r *MockUserRepository) GetAddressByID(userID, addressID string) (*models.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	address, ok := r.addresses[addressID]
	if !ok || address.UserID != userID {
		return nil, apperrors.NotFound("address with ID %s not found", addressID)
	}
	return &address, nil
}

// AddAddress stores a new address; the user's first address becomes default.
func (r *MockUserRepository) AddAddress(address *models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if address.ID == "" {
		address.ID = uuid.New().String()
	}
	hasAddress := false
	for _, a := range r.addresses {
		if a.UserID == address.UserID {
			hasAddress = true
			break
		}
	}
	address.IsDefault = !hasAddress
	r.addresses[address.ID] = *address
	return nil
}

// UpdateAddress saves changes to an existing address.
func (r *MockUserRepository) UpdateAddress(address *models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.addresses[address.ID]
	if !ok || existing.UserID != address.UserID {
		return apperrors.NotFound("address with ID %s not found for update", address.ID)
	}
	r.addresses[address.ID] = *address
	return nil
}

// DeleteAddress removes an address, scoped to its owner.
func (r *MockUserRepository) DeleteAddress(userID, addressID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.addresses[addressID]
	if !ok || existing.UserID != userID {
		return apperrors.NotFound("address with ID %s not found for deletion", addressID)
	}
	delete(r.addresses, addressID)
	return nil
}
