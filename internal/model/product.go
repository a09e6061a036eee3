package model

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents an item held in stock.
type Product struct {
	ID          int64             `json:"id" db:"id"`
	Name        string            `json:"name" db:"name"`
	Description *string           `json:"description" db:"description"`
	Price       decimal.Decimal   `json:"price" db:"price"`
	Stock       int               `json:"stock" db:"stock"`
	Image       *string           `json:"image" db:"image"`
	CreatedAt   time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time         `json:"updatedAt" db:"updated_at"`
	Categories  []CategorySummary `json:"categories"`
}

// ProductSummary is the shape of a product nested inside a category.
type ProductSummary struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Image       *string         `json:"image"`
}

// CategoryIDs returns the ids of the attached categories.
func (p *Product) CategoryIDs() []int64 {
	ids := make([]int64, len(p.Categories))
	for i, c := range p.Categories {
		ids[i] = c.ID
	}
	return ids
}

// CreateProductRequest is the payload for creating a product. Categories
// replaces nothing on create; it is the initial association set.
type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0,lte=9999999999.99"`
	Stock       *int             `json:"stock" validate:"required,gte=0,lte=2147483647"`
	Categories  []int64          `json:"categories" validate:"omitempty,dive,gt=0"`
	Image       *Upload          `json:"-"`
}

// UpdateProductRequest is a partial update: nil fields keep their stored
// value. A non-nil Categories replaces the association set wholesale, so an
// empty list detaches every category. Description distinguishes an explicit
// null, which clears it, from an absent key.
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description NullableString   `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gte=0,lte=9999999999.99"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0,lte=2147483647"`
	Categories  *[]int64         `json:"categories" validate:"omitempty,dive,gt=0"`
}

// NullableString records whether a JSON key was present and, if so, whether
// it held null.
type NullableString struct {
	Set   bool
	Value *string
}

// SetString returns a present, non-null NullableString.
func SetString(s string) NullableString {
	return NullableString{Set: true, Value: &s}
}

// UnmarshalJSON marks the field as present. A null literal leaves Value nil.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// MarshalJSON writes the value or null.
func (n NullableString) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// Upload is an image payload received with a product.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
