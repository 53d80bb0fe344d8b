package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"digicommerce/internal/config"
	"digicommerce/internal/gateway"
	"digicommerce/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	txm      *MockTxManager
	tx       *MockTx
	orders   *MockOrderRepository
	payments *MockPaymentRepository
	products *MockProductRepository
	carts    *MockCartRepository
	outbox   *MockOutboxRepository
	gateway  *MockGateway
	cache    *MockCartCache
	cartSync *MockCartMaintenance
	service  PaymentService
}

func newPaymentFixture() *paymentFixture {
	f := &paymentFixture{
		txm:      new(MockTxManager),
		tx:       newCommittingTx(),
		orders:   new(MockOrderRepository),
		payments: new(MockPaymentRepository),
		products: new(MockProductRepository),
		carts:    new(MockCartRepository),
		outbox:   new(MockOutboxRepository),
		gateway:  new(MockGateway),
		cache:    new(MockCartCache),
		cartSync: new(MockCartMaintenance),
	}
	cfg := config.PaymentConfig{
		WebhookBaseURL:      "https://api.shop.test/",
		FrontendBaseURL:     "https://shop.test/",
		StatementDescriptor: "DIGICOMMERCE",
		DefaultCurrency:     "BRL",
	}
	f.txm.On("BeginTx", mock.Anything).Return(f.tx, nil)
	f.service = NewPaymentService(f.txm, f.orders, f.payments, f.products, f.carts, f.outbox,
		f.gateway, f.cache, f.cartSync, cfg, nil, zerolog.Nop())
	return f
}

func pendingOrder(id uuid.UUID) *model.Order {
	productID := int64(1)
	return &model.Order{
		ID:          id,
		UserID:      3,
		Email:       "ana@example.com",
		Status:      model.OrderStatusPendingPayment,
		TotalAmount: dec("20.00"),
		Items: []model.OrderItem{
			{ID: uuid.New(), OrderID: id, ProductID: &productID, ProductName: "Mouse", Quantity: 2, OrderedProductPrice: dec("10.00")},
		},
	}
}

func TestPaymentService_ProcessNotification_Approved(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	orderID := uuid.New()
	payment := &model.Payment{ID: uuid.New(), OrderID: orderID, GatewayStatus: model.PaymentStatusPending}

	f.gateway.On("GetPayment", ctx, int64(555)).Return(&gateway.PaymentInfo{
		ID: "555", Status: "approved", StatusDetail: "accredited", ExternalReference: orderID.String(),
		Amount: dec("20.00"), PaymentTypeID: "account_money",
	}, nil)
	f.orders.On("GetByIDForUpdate", ctx, f.tx, orderID).Return(pendingOrder(orderID), nil)
	f.payments.On("GetByOrderIDForUpdate", ctx, f.tx, orderID).Return(payment, nil)
	f.products.On("DecrementStock", ctx, f.tx, int64(1), 2).Return(true, nil)
	f.carts.On("GetOrCreateForUpdate", ctx, f.tx, int64(3)).Return(&model.Cart{ID: 7, UserID: 3, TotalPrice: dec("20.00"),
		Items: []model.CartItem{{CartID: 7, Product: model.Product{ID: 1}, Quantity: 2}}}, nil)
	f.carts.On("DeleteAllItems", ctx, f.tx, int64(7)).Return(nil)
	f.carts.On("UpdateTotal", ctx, f.tx, int64(7), totalOf("0")).Return(nil)
	f.payments.On("Update", ctx, f.tx, mock.MatchedBy(func(p *model.Payment) bool {
		return p.GatewayPaymentID == "555" && p.GatewayStatus == "approved" && p.ConfirmedAt != nil && p.Method == "account_money"
	})).Return(nil)
	f.orders.On("UpdateStatus", ctx, f.tx, orderID, model.OrderStatusPaid).Return(nil)
	f.outbox.On("Append", ctx, f.tx, eventOfType(model.EventOrderPaid)).Return(nil)
	f.cache.On("Delete", mock.Anything, []int64{3}).Return(nil)
	f.cartSync.On("ProductUpdated", ctx, int64(1)).Return(nil)

	err := f.service.ProcessPaymentNotification(ctx, "555")

	require.NoError(t, err)
	assert.True(t, f.tx.committed)
	f.products.AssertExpectations(t)
	f.carts.AssertExpectations(t)
	f.payments.AssertExpectations(t)
	f.orders.AssertExpectations(t)
	f.outbox.AssertExpectations(t)
	f.cache.AssertExpectations(t)
	f.cartSync.AssertExpectations(t)
}

func TestPaymentService_ProcessNotification_OversellStillPays(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	orderID := uuid.New()

	f.gateway.On("GetPayment", ctx, int64(555)).Return(&gateway.PaymentInfo{
		ID: "555", Status: "approved", ExternalReference: orderID.String(), Amount: dec("20.00"),
	}, nil)
	f.orders.On("GetByIDForUpdate", ctx, f.tx, orderID).Return(pendingOrder(orderID), nil)
	f.payments.On("GetByOrderIDForUpdate", ctx, f.tx, orderID).Return(nil, nil)
	f.products.On("DecrementStock", ctx, f.tx, int64(1), 2).Return(false, nil)
	f.carts.On("GetOrCreateForUpdate", ctx, f.tx, int64(3)).Return(&model.Cart{ID: 7, UserID: 3}, nil)
	f.payments.On("Create", ctx, f.tx, mock.AnythingOfType("*model.Payment")).Return(nil)
	f.orders.On("UpdateStatus", ctx, f.tx, orderID, model.OrderStatusPaid).Return(nil)
	f.outbox.On("Append", ctx, f.tx, mock.Anything).Return(nil)
	f.cache.On("Delete", mock.Anything, []int64{3}).Return(nil)
	f.cartSync.On("ProductUpdated", ctx, int64(1)).Return(errors.New("lock timeout"))

	require.NoError(t, f.service.ProcessPaymentNotification(ctx, "555"))

	f.orders.AssertExpectations(t)
	f.payments.AssertExpectations(t)
	f.carts.AssertNotCalled(t, "DeleteAllItems", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_ProcessNotification_DuplicateApprovalIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	orderID := uuid.New()
	paid := pendingOrder(orderID)
	paid.Status = model.OrderStatusPaid

	f.gateway.On("GetPayment", ctx, int64(555)).Return(&gateway.PaymentInfo{
		ID: "555", Status: "approved", ExternalReference: orderID.String(),
	}, nil)
	f.orders.On("GetByIDForUpdate", ctx, f.tx, orderID).Return(paid, nil)

	require.NoError(t, f.service.ProcessPaymentNotification(ctx, "555"))

	assert.True(t, f.tx.rolledBack)
	assert.False(t, f.tx.committed)
	f.products.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.payments.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_ProcessNotification_StatusMapping(t *testing.T) {
	tests := []struct {
		gatewayStatus string
		expected      model.OrderStatus
		eventType     string
	}{
		{"rejected", model.OrderStatusPaymentFailed, model.EventOrderPaymentFailed},
		{"cancelled", model.OrderStatusPaymentFailed, model.EventOrderPaymentFailed},
		{"refunded", model.OrderStatusPaymentFailed, model.EventOrderPaymentFailed},
		{"charged_back", model.OrderStatusPaymentFailed, model.EventOrderPaymentFailed},
		{"in_process", model.OrderStatusPendingPayment, ""},
		{"pending", model.OrderStatusPendingPayment, ""},
	}

	for _, tt := range tests {
		t.Run(tt.gatewayStatus, func(t *testing.T) {
			ctx := context.Background()
			f := newPaymentFixture()
			orderID := uuid.New()

			f.gateway.On("GetPayment", ctx, int64(77)).Return(&gateway.PaymentInfo{
				ID: "77", Status: tt.gatewayStatus, StatusDetail: "cc_rejected_other_reason", ExternalReference: orderID.String(),
			}, nil)
			f.orders.On("GetByIDForUpdate", ctx, f.tx, orderID).Return(pendingOrder(orderID), nil)
			f.payments.On("GetByOrderIDForUpdate", ctx, f.tx, orderID).Return(&model.Payment{ID: uuid.New(), OrderID: orderID}, nil)
			f.payments.On("Update", ctx, f.tx, mock.MatchedBy(func(p *model.Payment) bool {
				return p.GatewayStatus == tt.gatewayStatus && p.ConfirmedAt == nil
			})).Return(nil)
			if tt.eventType != "" {
				f.orders.On("UpdateStatus", ctx, f.tx, orderID, tt.expected).Return(nil)
				f.outbox.On("Append", ctx, f.tx, eventOfType(tt.eventType)).Return(nil)
			}

			require.NoError(t, f.service.ProcessPaymentNotification(ctx, "77"))

			assert.True(t, f.tx.committed)
			f.payments.AssertExpectations(t)
			f.orders.AssertExpectations(t)
			f.products.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			f.cache.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			if tt.eventType == "" {
				f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				f.outbox.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestPaymentService_ProcessNotification_Malformed(t *testing.T) {
	ctx := context.Background()

	t.Run("Non numeric id", func(t *testing.T) {
		f := newPaymentFixture()

		require.NoError(t, f.service.ProcessPaymentNotification(ctx, "abc"))

		f.gateway.AssertNotCalled(t, "GetPayment", mock.Anything, mock.Anything)
	})

	t.Run("External reference is not an order", func(t *testing.T) {
		f := newPaymentFixture()
		f.gateway.On("GetPayment", ctx, int64(9)).Return(&gateway.PaymentInfo{ID: "9", Status: "approved", ExternalReference: "cart-17"}, nil)

		require.NoError(t, f.service.ProcessPaymentNotification(ctx, "9"))

		f.txm.AssertNotCalled(t, "BeginTx", mock.Anything)
	})
}

func TestPaymentService_ProcessNotification_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("Gateway unavailable", func(t *testing.T) {
		f := newPaymentFixture()
		f.gateway.On("GetPayment", ctx, int64(9)).Return(nil, fmt.Errorf("get payment: %w", model.ErrGateway))

		err := f.service.ProcessPaymentNotification(ctx, "9")

		assert.True(t, errors.Is(err, model.ErrGateway))
	})

	t.Run("Unknown order", func(t *testing.T) {
		f := newPaymentFixture()
		orderID := uuid.New()
		f.gateway.On("GetPayment", ctx, int64(9)).Return(&gateway.PaymentInfo{ID: "9", Status: "approved", ExternalReference: orderID.String()}, nil)
		f.orders.On("GetByIDForUpdate", ctx, f.tx, orderID).Return(nil, nil)

		err := f.service.ProcessPaymentNotification(ctx, "9")

		assert.True(t, errors.Is(err, model.ErrOrderNotFound))
		assert.True(t, f.tx.rolledBack)
	})
}

func TestPaymentService_HandleWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("Ignored action", func(t *testing.T) {
		f := newPaymentFixture()
		n := &model.PaymentNotification{Action: "merchant_order.updated"}
		n.Data.ID = "555"

		f.service.HandleWebhook(ctx, n)

		f.gateway.AssertNotCalled(t, "GetPayment", mock.Anything, mock.Anything)
	})

	t.Run("Failure is swallowed", func(t *testing.T) {
		f := newPaymentFixture()
		n := &model.PaymentNotification{Action: "payment.updated", Type: "payment"}
		n.Data.ID = "555"
		f.gateway.On("GetPayment", ctx, int64(555)).Return(nil, model.ErrGateway)

		assert.NotPanics(t, func() { f.service.HandleWebhook(ctx, n) })
		f.gateway.AssertExpectations(t)
	})

	t.Run("Nil notification", func(t *testing.T) {
		f := newPaymentFixture()
		assert.NotPanics(t, func() { f.service.HandleWebhook(ctx, nil) })
	})
}

func TestPaymentService_CreatePreference(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	orderID := uuid.New()

	f.orders.On("GetByID", ctx, orderID).Return(pendingOrder(orderID), nil)
	f.gateway.On("CreatePreference", ctx, mock.MatchedBy(func(req gateway.PreferenceRequest) bool {
		return req.ExternalReference == orderID.String() &&
			req.PayerEmail == "ana@example.com" &&
			len(req.Items) == 1 && req.Items[0].ID == "1" && req.Items[0].Quantity == 2 &&
			req.NotificationURL == "https://api.shop.test/api/webhooks/mercadopago" &&
			req.BackURLs.Success == "https://shop.test/payment/success" &&
			req.BackURLs.Failure == "https://shop.test/payment/failure" &&
			req.Currency == "BRL"
	})).Return(&gateway.Preference{ID: "pref-1", InitPoint: "https://mp.test/init/pref-1"}, nil)

	resp, err := f.service.CreatePreference(ctx, 3, orderID)

	require.NoError(t, err)
	assert.Equal(t, "pref-1", resp.PreferenceID)
	assert.Equal(t, "https://mp.test/init/pref-1", resp.InitPoint)
	f.gateway.AssertExpectations(t)
}

func TestPaymentService_CreatePreference_Rejected(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	paid := pendingOrder(orderID)
	paid.Status = model.OrderStatusPaid

	tests := []struct {
		name     string
		userID   int64
		order    *model.Order
		expected error
	}{
		{"Missing order", 3, nil, model.ErrOrderNotFound},
		{"Other user", 4, pendingOrder(orderID), model.ErrForbidden},
		{"Already paid", 3, paid, model.ErrInvalidOrderState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture()
			f.orders.On("GetByID", ctx, orderID).Return(tt.order, nil)

			_, err := f.service.CreatePreference(ctx, tt.userID, orderID)

			assert.True(t, errors.Is(err, tt.expected))
			f.gateway.AssertNotCalled(t, "CreatePreference", mock.Anything, mock.Anything)
		})
	}
}

func TestPaymentService_CreatePixCharge(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	orderID := uuid.New()
	payment := &model.Payment{ID: uuid.New(), OrderID: orderID, Method: "card", GatewayStatus: model.PaymentStatusPending}

	f.orders.On("GetByID", ctx, orderID).Return(pendingOrder(orderID), nil)
	f.gateway.On("CreatePixCharge", ctx, mock.MatchedBy(func(req gateway.PixChargeRequest) bool {
		return req.ExternalReference == orderID.String() && req.Amount.Equal(dec("20.00"))
	})).Return(&gateway.PixCharge{ID: "901", Status: "pending", QRCode: "00020126", QRCodeBase64: "iVBORw0"}, nil)
	f.payments.On("GetByOrderIDForUpdate", ctx, f.tx, orderID).Return(payment, nil)
	f.payments.On("Update", ctx, f.tx, payment).Return(nil)

	resp, err := f.service.CreatePixCharge(ctx, 3, orderID)

	require.NoError(t, err)
	assert.Equal(t, "901", resp.GatewayPaymentID)
	assert.Equal(t, "00020126", resp.QRCode)
	assert.Equal(t, "pix", payment.Method)
	assert.Equal(t, "901", payment.GatewayPaymentID)
	assert.Equal(t, "iVBORw0", payment.QRCodeBase64)
	assert.True(t, f.tx.committed)
}

func TestPaymentService_CreatePixCharge_GatewayDown(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	orderID := uuid.New()

	f.orders.On("GetByID", ctx, orderID).Return(pendingOrder(orderID), nil)
	f.gateway.On("CreatePixCharge", ctx, mock.Anything).Return(nil, fmt.Errorf("create pix charge: %w", model.ErrGateway))

	_, err := f.service.CreatePixCharge(ctx, 3, orderID)

	assert.True(t, errors.Is(err, model.ErrGateway))
	f.txm.AssertNotCalled(t, "BeginTx", mock.Anything)
}
