package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is a user's pending selection of products. TotalPrice is derived
// from the live prices of the referenced products.
type Cart struct {
	ID         int64           `json:"cartId" db:"id"`
	UserID     int64           `json:"userId" db:"user_id"`
	TotalPrice decimal.Decimal `json:"totalPrice" db:"total_price"`
	Items      []CartItem      `json:"items"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time       `json:"updatedAt" db:"updated_at"`
}

// CartItem is one product line in a cart, unique per product.
type CartItem struct {
	ID       int64           `json:"cartItemId" db:"id"`
	CartID   int64           `json:"-" db:"cart_id"`
	Product  Product         `json:"product"`
	Quantity int             `json:"quantity" db:"quantity"`
	Discount decimal.Decimal `json:"discount" db:"discount"`
}

// FindItem returns the index of the line for productID.
func (c *Cart) FindItem(productID int64) (int, bool) {
	for i := range c.Items {
		if c.Items[i].Product.ID == productID {
			return i, true
		}
	}
	return -1, false
}

// RemoveItemAt drops the line at index i.
func (c *Cart) RemoveItemAt(i int) CartItem {
	removed := c.Items[i]
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return removed
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// CartView is the API representation of a cart, priced and annotated
// with stock warnings.
type CartView struct {
	CartID     int64           `json:"cartId"`
	UserID     int64           `json:"userId"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Products   []CartItemView  `json:"products"`
}

// CartItemView is a single priced cart line.
type CartItemView struct {
	ProductID     int64           `json:"productId"`
	ProductName   string          `json:"productName"`
	Image         string          `json:"image"`
	Description   string          `json:"description"`
	CartQuantity  int             `json:"cartQuantity"`
	StockQuantity int             `json:"quantity"`
	Discount      decimal.Decimal `json:"discount"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Warning       string          `json:"warning,omitempty"`
}
