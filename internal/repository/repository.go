package repository

import (
	"context"

	"digicommerce/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TxManager starts transactions shared by several repositories. Writes
// that must commit together take the returned pgx.Tx.
type TxManager interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// List retrieves a page of products and the total count.
	List(ctx context.Context, page model.PageRequest) ([]model.Product, int64, error)

	// ListByCategory retrieves a page of products in a category.
	ListByCategory(ctx context.Context, categoryID int64, page model.PageRequest) ([]model.Product, int64, error)

	// Search retrieves products whose name contains keyword, ignoring case.
	Search(ctx context.Context, keyword string, page model.PageRequest) ([]model.Product, int64, error)

	// GetByID retrieves a single product by its ID. Returns nil when absent.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// GetByIDForUpdate retrieves and row-locks a product inside tx.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*model.Product, error)

	// Create inserts a product, filling ID and timestamps.
	Create(ctx context.Context, tx pgx.Tx, product *model.Product) error

	// Update persists every mutable column of product.
	Update(ctx context.Context, tx pgx.Tx, product *model.Product) error

	// Delete removes a product. Returns false when nothing was deleted.
	Delete(ctx context.Context, tx pgx.Tx, id int64) (bool, error)

	// DecrementStock subtracts qty when enough stock remains. Returns false
	// when the guard rejected the update.
	DecrementStock(ctx context.Context, tx pgx.Tx, id int64, qty int) (bool, error)
}

// CategoryRepository defines data access for categories.
type CategoryRepository interface {
	List(ctx context.Context, page model.PageRequest) ([]model.Category, int64, error)
	GetByID(ctx context.Context, id int64) (*model.Category, error)
	GetByName(ctx context.Context, name string) (*model.Category, error)
	Create(ctx context.Context, category *model.Category) error
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// UserRepository defines data access for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// EnsureByEmail returns the user with email, creating it first if needed.
	EnsureByEmail(ctx context.Context, email, username string) (*model.User, error)
}

// AddressRepository defines data access for shipping addresses.
type AddressRepository interface {
	Create(ctx context.Context, address *model.Address) error
	GetByID(ctx context.Context, id int64) (*model.Address, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Address, error)
	ListAll(ctx context.Context) ([]model.Address, error)
	Update(ctx context.Context, address *model.Address) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// CartRepository defines data access for carts and their lines. Items are
// always returned with their product fully loaded.
type CartRepository interface {
	// GetByUserID retrieves a user's cart. Returns nil when the user has none.
	GetByUserID(ctx context.Context, userID int64) (*model.Cart, error)

	// GetOrCreateForUpdate returns the user's cart, creating an empty one
	// if needed, and locks it for the rest of tx.
	GetOrCreateForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (*model.Cart, error)

	// ListAll retrieves every cart.
	ListAll(ctx context.Context) ([]model.Cart, error)

	// ListByProductForUpdate locks and returns every cart holding productID.
	ListByProductForUpdate(ctx context.Context, tx pgx.Tx, productID int64) ([]model.Cart, error)

	// SaveItem inserts the line or overwrites quantity and discount.
	SaveItem(ctx context.Context, tx pgx.Tx, cartID int64, item *model.CartItem) error

	// DeleteItem removes a line. Returns false when it did not exist.
	DeleteItem(ctx context.Context, tx pgx.Tx, cartID, productID int64) (bool, error)

	// DeleteAllItems empties the cart.
	DeleteAllItems(ctx context.Context, tx pgx.Tx, cartID int64) error

	// UpdateTotal persists the derived cart total.
	UpdateTotal(ctx context.Context, tx pgx.Tx, cartID int64, total decimal.Decimal) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items and payment.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByIDForUpdate retrieves and locks an order with its items inside tx.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// ListByUser retrieves a user's orders, newest first, with items.
	ListByUser(ctx context.Context, userID int64) ([]model.Order, error)

	// UpdateStatus sets the order status.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error
}

// PaymentRepository defines data access for payments.
type PaymentRepository interface {
	Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Payment, error)
	GetByOrderIDForUpdate(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (*model.Payment, error)
	Update(ctx context.Context, tx pgx.Tx, payment *model.Payment) error
}

// OutboxRepository stores domain events for asynchronous publishing.
type OutboxRepository interface {
	// Append writes an event inside the caller's transaction.
	Append(ctx context.Context, tx pgx.Tx, event *model.OutboxEvent) error

	// FetchPending returns up to limit unprocessed events, oldest first.
	FetchPending(ctx context.Context, limit int) ([]model.OutboxEvent, error)

	// MarkProcessed flags an event as published.
	MarkProcessed(ctx context.Context, id uuid.UUID) error
}
