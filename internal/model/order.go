package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the payment lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderStatusPaid           OrderStatus = "PAID"
	OrderStatusPaymentFailed  OrderStatus = "PAYMENT_FAILED"
)

// Order is an immutable snapshot of a cart taken at checkout. Only Status
// and the attached Payment change afterwards.
type Order struct {
	ID          uuid.UUID       `json:"orderId" db:"id"`
	UserID      int64           `json:"-" db:"user_id"`
	Email       string          `json:"email" db:"email"`
	AddressID   *int64          `json:"addressId" db:"address_id"`
	OrderDate   time.Time       `json:"orderDate" db:"order_date"`
	TotalAmount decimal.Decimal `json:"totalAmount" db:"total_amount"`
	Status      OrderStatus     `json:"orderStatus" db:"status"`
	Items       []OrderItem     `json:"orderItems"`
	Payment     *Payment        `json:"payment,omitempty"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem represents a line item in an order. The unit price is frozen
// at checkout. ProductID is nil once the product has been deleted.
type OrderItem struct {
	ID                  uuid.UUID       `json:"orderItemId" db:"id"`
	OrderID             uuid.UUID       `json:"-" db:"order_id"`
	ProductID           *int64          `json:"productId" db:"product_id"`
	ProductName         string          `json:"productName" db:"product_name"`
	Quantity            int             `json:"quantity" db:"quantity"`
	Discount            decimal.Decimal `json:"discount" db:"discount"`
	OrderedProductPrice decimal.Decimal `json:"orderedProductPrice" db:"ordered_product_price"`
}

// Subtotal returns the frozen unit price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.OrderedProductPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CheckoutRequest represents the request payload for placing an order.
type CheckoutRequest struct {
	AddressID     int64  `json:"addressId"`
	PaymentMethod string `json:"paymentMethod"`
}

// Validate checks the checkout payload.
func (r *CheckoutRequest) Validate() error {
	fields := map[string]string{}
	if r.AddressID <= 0 {
		fields["addressId"] = "address id is required"
	}
	if len([]rune(strings.TrimSpace(r.PaymentMethod))) < 3 {
		fields["paymentMethod"] = "payment method must contain at least 3 characters"
	}
	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	return nil
}
