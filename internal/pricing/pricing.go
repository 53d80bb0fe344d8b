// Package pricing derives cart line and cart prices from live product data.
// All arithmetic is exact decimal; nothing is rounded here.
package pricing

import (
	"digicommerce/internal/model"

	"github.com/shopspring/decimal"
)

// BasePrice returns the special price when it is active and set, otherwise
// the list price.
func BasePrice(p model.Product) decimal.Decimal {
	if p.SpecialPriceActive && p.SpecialPrice.Valid {
		return p.SpecialPrice.Decimal
	}
	return p.Price
}

// EffectiveUnitPrice applies a line discount percentage to the base price.
// A zero or negative discount leaves the base price untouched.
func EffectiveUnitPrice(p model.Product, discountPercent decimal.Decimal) decimal.Decimal {
	base := BasePrice(p)
	if !discountPercent.IsPositive() {
		return base
	}
	// Shift(-2) divides by 100 without a precision cutoff.
	return base.Sub(base.Mul(discountPercent).Shift(-2))
}

// LineSubtotal is the effective unit price times the line quantity.
func LineSubtotal(item model.CartItem) decimal.Decimal {
	unit := EffectiveUnitPrice(item.Product, item.Discount)
	return unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// CartTotal sums the subtotals of all lines.
func CartTotal(items []model.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(LineSubtotal(item))
	}
	return total
}

// Recalculate stores the derived total on the cart and returns it.
func Recalculate(cart *model.Cart) decimal.Decimal {
	cart.TotalPrice = CartTotal(cart.Items)
	return cart.TotalPrice
}
