package models

import "gorm.io/gorm"

// Product represents a product in the store catalog.
// Stock is the only field the order workflow mutates; everything else is
// managed by admin CRUD.
type Product struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string  `json:"name" validate:"required,min=3,max=100"`
	Description string  `json:"description" validate:"omitempty,max=500"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Category    string  `json:"category" validate:"omitempty,max=100"`
	WeightGrams int     `json:"weight_grams" validate:"gte=0"` // used for courier rate quotes
	LengthCM    float64 `json:"length_cm" validate:"gte=0"`
	BreadthCM   float64 `json:"breadth_cm" validate:"gte=0"`
	HeightCM    float64 `json:"height_cm" validate:"gte=0"`
	Published   bool    `json:"published" gorm:"default:true"`
	gorm.Model          // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
