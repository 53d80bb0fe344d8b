package service

import (
	"context"
	"io"

	"digicommerce/internal/model"

	"github.com/google/uuid"
)

// CatalogService manages categories and products.
type CatalogService interface {
	ListCategories(ctx context.Context, page model.PageRequest) (*model.CategoryPage, error)
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	CreateCategory(ctx context.Context, req *model.CategoryRequest) (*model.Category, error)
	UpdateCategory(ctx context.Context, id int64, req *model.CategoryRequest) (*model.Category, error)
	DeleteCategory(ctx context.Context, id int64) (*model.Category, error)

	// ListProducts returns a page of the whole catalogue.
	ListProducts(ctx context.Context, page model.PageRequest) (*model.ProductPage, error)

	// ListProductsByCategory fails with a not-found error when the category
	// is unknown or empty.
	ListProductsByCategory(ctx context.Context, categoryID int64, page model.PageRequest) (*model.ProductPage, error)

	// SearchProducts matches keyword case-insensitively against names.
	SearchProducts(ctx context.Context, keyword string, page model.PageRequest) (*model.ProductPage, error)

	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	CreateProduct(ctx context.Context, categoryID int64, req *model.ProductRequest) (*model.Product, error)

	// UpdateProduct applies a partial update and reprices affected carts.
	UpdateProduct(ctx context.Context, id int64, req *model.ProductUpdateRequest) (*model.Product, error)

	// UpdateProductImage stores the upload and points the product at it.
	UpdateProductImage(ctx context.Context, id int64, filename string, content io.Reader) (*model.Product, error)

	// DeleteProduct removes the product from every cart, then deletes it.
	DeleteProduct(ctx context.Context, id int64) (*model.Product, error)
}

// CartMaintenance keeps carts consistent with catalogue changes.
type CartMaintenance interface {
	// ProductUpdated recomputes the total of every cart holding the product.
	ProductUpdated(ctx context.Context, productID int64) error

	// ProductDeleted drops the product's line from every cart holding it.
	ProductDeleted(ctx context.Context, productID int64) error
}

// CartService manages a user's shopping cart.
type CartService interface {
	CartMaintenance

	// GetCart returns the priced cart, creating an empty one on first use.
	GetCart(ctx context.Context, userID int64) (*model.CartView, error)

	// AddItem adds qty to the product's line, inserting it if needed.
	AddItem(ctx context.Context, userID, productID int64, qty int) (*model.CartView, error)

	// SetItemQuantity overwrites a line's quantity. A quantity of zero or
	// less removes the line.
	SetItemQuantity(ctx context.Context, userID, productID int64, qty int) (*model.CartView, error)

	// RemoveItem reports whether a line was removed.
	RemoveItem(ctx context.Context, userID, productID int64) (bool, error)

	// Clear empties the cart.
	Clear(ctx context.Context, userID int64) error

	// ListAll returns every cart.
	ListAll(ctx context.Context) ([]model.CartView, error)
}

// AddressService manages shipping addresses. Every operation except
// ListAll is restricted to the owner.
type AddressService interface {
	Create(ctx context.Context, userID int64, req *model.AddressRequest) (*model.Address, error)
	ListMine(ctx context.Context, userID int64) ([]model.Address, error)
	Get(ctx context.Context, userID, id int64) (*model.Address, error)
	Update(ctx context.Context, userID, id int64, req *model.AddressRequest) (*model.Address, error)
	Delete(ctx context.Context, userID, id int64) error
	ListAll(ctx context.Context) ([]model.Address, error)
}

// OrderService turns carts into orders.
type OrderService interface {
	// Checkout snapshots the user's cart into a PENDING_PAYMENT order.
	// Stock is decremented and the cart cleared only once payment is approved.
	Checkout(ctx context.Context, user *model.User, req *model.CheckoutRequest) (*model.Order, error)

	GetOrder(ctx context.Context, userID int64, id uuid.UUID) (*model.Order, error)
	ListMyOrders(ctx context.Context, userID int64) ([]model.Order, error)
}

// PaymentService talks to the payment gateway for an order.
type PaymentService interface {
	CreatePreference(ctx context.Context, userID int64, orderID uuid.UUID) (*model.PreferenceResponse, error)
	CreatePixCharge(ctx context.Context, userID int64, orderID uuid.UUID) (*model.PixChargeResponse, error)

	// HandleWebhook never fails; there is no caller to report to.
	HandleWebhook(ctx context.Context, n *model.PaymentNotification)

	// ProcessPaymentNotification applies the gateway's view of a payment to
	// its order. Malformed ids are logged and ignored.
	ProcessPaymentNotification(ctx context.Context, paymentID string) error
}

// UserService resolves request identities.
type UserService interface {
	// EnsureUser returns the user for email, registering it on first sight.
	EnsureUser(ctx context.Context, email string) (*model.User, error)
}
