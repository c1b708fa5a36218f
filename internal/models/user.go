package models

import "gorm.io/gorm"

// User roles checked by the admin middleware and order authorization.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a customer of the store.
type User struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name       string     `json:"name" validate:"required,min=2,max=100"`
	Username   string     `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email      string     `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password   string     `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	Role       string     `json:"role" gorm:"type:varchar(20);default:user" validate:"omitempty,oneof=user admin"`
	Addresses  []Address  `json:"addresses" gorm:"foreignKey:UserID"`
	Cart       []CartItem `json:"cart" gorm:"foreignKey:UserID"`
	gorm.Model            // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// Address is an entry in a user's address book. Orders copy the fields they
// need into their own snapshot; they never reference an Address row.
type Address struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	UserID     string `json:"user_id" gorm:"index;type:varchar(36)"`
	FullName   string `json:"full_name" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country"`
	Type       string `json:"type"` // e.g. "Home", "Work"
	IsDefault  bool   `json:"is_default"`
	gorm.Model
}

// CartItem is one line of a user's shopping cart.
type CartItem struct {
	ID        string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string  `json:"user_id" gorm:"index;type:varchar(36)"`
	ProductID string  `json:"product_id" gorm:"type:varchar(36)" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,gte=1"`
	Product   Product `json:"product" gorm:"foreignKey:ProductID"`
	gorm.Model
}
