package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a sellable item in the catalogue.
type Product struct {
	ID                 int64               `json:"productId" db:"id"`
	Name               string              `json:"productName" db:"name"`
	Description        string              `json:"description" db:"description"`
	Image              string              `json:"image" db:"image"`
	Price              decimal.Decimal     `json:"price" db:"price"`
	SpecialPrice       decimal.NullDecimal `json:"specialPrice" db:"special_price"`
	SpecialPriceActive bool                `json:"specialPriceActive" db:"special_price_active"`
	QuantityInStock    int                 `json:"quantity" db:"quantity_in_stock"`
	CategoryID         int64               `json:"categoryId" db:"category_id"`
	CreatedAt          time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time           `json:"updatedAt" db:"updated_at"`
}

// ClearInvalidSpecialPrice drops a special price that is not strictly below
// the base price. It reports whether anything was cleared.
func (p *Product) ClearInvalidSpecialPrice() bool {
	if !p.SpecialPrice.Valid || p.SpecialPrice.Decimal.LessThan(p.Price) {
		return false
	}
	p.SpecialPrice = decimal.NullDecimal{}
	p.SpecialPriceActive = false
	return true
}

// ProductRequest is the payload for creating a product.
type ProductRequest struct {
	Name               string           `json:"productName"`
	Description        string           `json:"description"`
	Price              decimal.Decimal  `json:"price"`
	SpecialPrice       *decimal.Decimal `json:"specialPrice,omitempty"`
	SpecialPriceActive bool             `json:"specialPriceActive"`
	QuantityInStock    int              `json:"quantity"`
}

// Validate checks the create payload field by field.
func (r *ProductRequest) Validate() error {
	fields := map[string]string{}
	if len([]rune(r.Name)) < 3 {
		fields["productName"] = "product name must contain at least 3 characters"
	}
	if len([]rune(r.Description)) < 6 {
		fields["description"] = "description must contain at least 6 characters"
	}
	if !r.Price.IsPositive() {
		fields["price"] = "price must be greater than zero"
	}
	if r.SpecialPrice != nil && r.SpecialPrice.IsNegative() {
		fields["specialPrice"] = "special price cannot be negative"
	}
	if r.QuantityInStock < 0 {
		fields["quantity"] = "quantity cannot be negative"
	}
	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	return nil
}

// ProductUpdateRequest is a partial update; nil fields are left unchanged.
type ProductUpdateRequest struct {
	Name               *string          `json:"productName,omitempty"`
	Description        *string          `json:"description,omitempty"`
	Price              *decimal.Decimal `json:"price,omitempty"`
	SpecialPrice       *decimal.Decimal `json:"specialPrice,omitempty"`
	SpecialPriceActive *bool            `json:"specialPriceActive,omitempty"`
	QuantityInStock    *int             `json:"quantity,omitempty"`
	CategoryID         *int64           `json:"categoryId,omitempty"`
}

// Apply copies the non-nil fields onto p.
func (r *ProductUpdateRequest) Apply(p *Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.SpecialPrice != nil {
		p.SpecialPrice = decimal.NewNullDecimal(*r.SpecialPrice)
	}
	if r.SpecialPriceActive != nil {
		p.SpecialPriceActive = *r.SpecialPriceActive
	}
	if r.QuantityInStock != nil {
		p.QuantityInStock = *r.QuantityInStock
	}
	if r.CategoryID != nil {
		p.CategoryID = *r.CategoryID
	}
}

// Validate checks the supplied fields only.
func (r *ProductUpdateRequest) Validate() error {
	fields := map[string]string{}
	if r.Name != nil && len([]rune(*r.Name)) < 3 {
		fields["productName"] = "product name must contain at least 3 characters"
	}
	if r.Description != nil && len([]rune(*r.Description)) < 6 {
		fields["description"] = "description must contain at least 6 characters"
	}
	if r.Price != nil && !r.Price.IsPositive() {
		fields["price"] = "price must be greater than zero"
	}
	if r.QuantityInStock != nil && *r.QuantityInStock < 0 {
		fields["quantity"] = "quantity cannot be negative"
	}
	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	return nil
}

// ProductPage is a page of products.
type ProductPage struct {
	Content       []Product `json:"content"`
	PageNumber    int       `json:"pageNumber"`
	PageSize      int       `json:"pageSize"`
	TotalElements int64     `json:"totalElements"`
	TotalPages    int       `json:"totalPages"`
	LastPage      bool      `json:"lastPage"`
}
