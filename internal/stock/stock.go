// Package stock checks requested quantities against available inventory.
package stock

import (
	"fmt"

	"digicommerce/internal/model"
)

// Status is the outcome of a reservation check.
type Status int

const (
	OK Status = iota
	Insufficient
	OutOfStock
)

func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case Insufficient:
		return "INSUFFICIENT"
	case OutOfStock:
		return "OUT_OF_STOCK"
	default:
		return "UNKNOWN"
	}
}

// Result carries the status and, for Insufficient, the available quantity.
type Result struct {
	Status    Status
	Available int
}

// CanReserve is a pure check of requested against available.
func CanReserve(available, requested int) Result {
	switch {
	case available <= 0:
		return Result{Status: OutOfStock}
	case available < requested:
		return Result{Status: Insufficient, Available: available}
	default:
		return Result{Status: OK, Available: available}
	}
}

// Check runs CanReserve and converts a failure into a domain error naming
// the product with both available and requested quantities.
func Check(productName string, available, requested int) error {
	res := CanReserve(available, requested)
	switch res.Status {
	case OutOfStock:
		return model.NewDomainError(model.ErrCodeOutOfStock,
			fmt.Sprintf("%s is out of stock", productName))
	case Insufficient:
		return model.NewDomainError(model.ErrCodeInsufficientStock,
			fmt.Sprintf("Not enough stock for %s. Available: %d, requested: %d", productName, res.Available, requested))
	}
	return nil
}

// Warning returns the cart view hint for a line, or "" when stock covers it.
func Warning(available, inCart int) string {
	res := CanReserve(available, inCart)
	switch res.Status {
	case OutOfStock:
		return "Product out of stock! Please remove it from the cart to continue."
	case Insufficient:
		return fmt.Sprintf("Warning! Only %d units available in stock.", res.Available)
	}
	return ""
}
