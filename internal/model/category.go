package model

import "time"

// Category groups products. A category and a product are related through the
// category_product join table; neither side owns the other.
type Category struct {
	ID          int64            `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Description *string          `json:"description" db:"description"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time        `json:"updatedAt" db:"updated_at"`
	Products    []ProductSummary `json:"products"`
}

// CategorySummary is the shape of a category nested inside a product.
type CategorySummary struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// CategoryRequest is the payload for creating or updating a category.
type CategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
}
