package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"digicommerce/internal/metrics"
	"digicommerce/internal/model"
	"digicommerce/internal/pricing"
	"digicommerce/internal/repository"
	"digicommerce/internal/stock"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type orderEvent struct {
	OrderID     string `json:"orderId"`
	UserID      int64  `json:"userId"`
	Email       string `json:"email"`
	TotalAmount string `json:"totalAmount"`
	Status      string `json:"status"`
	Items       int    `json:"items"`
}

func newOrderEvent(o *model.Order) orderEvent {
	return orderEvent{
		OrderID:     o.ID.String(),
		UserID:      o.UserID,
		Email:       o.Email,
		TotalAmount: o.TotalAmount.String(),
		Status:      string(o.Status),
		Items:       len(o.Items),
	}
}

// orderService implements OrderService.
type orderService struct {
	txm       repository.TxManager
	orders    repository.OrderRepository
	payments  repository.PaymentRepository
	products  repository.ProductRepository
	carts     repository.CartRepository
	addresses repository.AddressRepository
	outbox    repository.OutboxRepository
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	txm repository.TxManager,
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	products repository.ProductRepository,
	carts repository.CartRepository,
	addresses repository.AddressRepository,
	outbox repository.OutboxRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		txm:       txm,
		orders:    orders,
		payments:  payments,
		products:  products,
		carts:     carts,
		addresses: addresses,
		outbox:    outbox,
		metrics:   m,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

// Checkout validates the cart in a fixed order and the first failure wins:
// empty cart, address, then per line product availability and stock.
func (s *orderService) Checkout(ctx context.Context, user *model.User, req *model.CheckoutRequest) (_ *model.Order, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback(ctx, tx, &err, s.logger)

	cart, err := s.carts.GetOrCreateForUpdate(ctx, tx, user.ID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, model.ErrEmptyCart
	}

	address, err := s.addresses.GetByID(ctx, req.AddressID)
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	if address == nil {
		return nil, model.NotFound(model.ErrCodeAddressNotFound, "Address", "addressId", req.AddressID)
	}
	if address.UserID != user.ID {
		s.logger.Warn().Int64("address_id", address.ID).Int64("user_id", user.ID).Msg("checkout with foreign address")
		return nil, model.ErrForbidden
	}

	now := time.Now().UTC()
	order := &model.Order{
		ID:        uuid.New(),
		UserID:    user.ID,
		Email:     user.Email,
		AddressID: &address.ID,
		OrderDate: now,
		Status:    model.OrderStatusPendingPayment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	total := decimal.Zero
	items := make([]model.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		product, err := s.products.GetByIDForUpdate(ctx, tx, line.Product.ID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, model.NewDomainError(model.ErrCodeProductUnavailable,
				fmt.Sprintf("Product %s is no longer available", line.Product.Name))
		}
		if err := stock.Check(product.Name, product.QuantityInStock, line.Quantity); err != nil {
			return nil, err
		}

		unit := pricing.EffectiveUnitPrice(*product, line.Discount)
		productID := product.ID
		item := model.OrderItem{
			ID:                  uuid.New(),
			OrderID:             order.ID,
			ProductID:           &productID,
			ProductName:         product.Name,
			Quantity:            line.Quantity,
			Discount:            line.Discount,
			OrderedProductPrice: unit,
		}
		items = append(items, item)
		total = total.Add(item.Subtotal())
	}
	order.TotalAmount = total

	if err = s.orders.CreateOrder(ctx, tx, order); err != nil {
		return nil, err
	}
	if err = s.orders.CreateOrderItems(ctx, tx, items); err != nil {
		return nil, err
	}

	payment := &model.Payment{
		ID:            uuid.New(),
		OrderID:       order.ID,
		Method:        strings.TrimSpace(req.PaymentMethod),
		GatewayName:   model.GatewayMercadoPago,
		GatewayStatus: model.PaymentStatusPending,
		Amount:        total,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err = s.payments.Create(ctx, tx, payment); err != nil {
		return nil, err
	}

	order.Items = items
	order.Payment = payment

	if err = appendEvent(ctx, s.outbox, tx, model.AggregateOrder, order.ID.String(),
		model.EventOrderCreated, newOrderEvent(order)); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit checkout")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.metrics.OrderStatus(string(order.Status))
	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int64("user_id", user.ID).
		Int("item_count", len(items)).
		Str("total", total.String()).
		Msg("order created")

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, userID int64, id uuid.UUID) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.NotFound(model.ErrCodeOrderNotFound, "Order", "orderId", id)
	}
	if order.UserID != userID {
		return nil, model.ErrForbidden
	}
	return order, nil
}

func (s *orderService) ListMyOrders(ctx context.Context, userID int64) ([]model.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
