package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"digicommerce/internal/cache"
	"digicommerce/internal/config"
	"digicommerce/internal/gateway"
	"digicommerce/internal/metrics"
	"digicommerce/internal/model"
	"digicommerce/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Gateway statuses after which a payment will not be approved.
var failedStatuses = map[string]bool{
	"rejected":     true,
	"cancelled":    true,
	"refunded":     true,
	"charged_back": true,
}

// paymentService implements PaymentService.
type paymentService struct {
	txm       repository.TxManager
	orders    repository.OrderRepository
	payments  repository.PaymentRepository
	products  repository.ProductRepository
	carts     repository.CartRepository
	outbox    repository.OutboxRepository
	gateway   gateway.Gateway
	cartCache cache.CartCache
	cartSync  CartMaintenance
	cfg       config.PaymentConfig
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	txm repository.TxManager,
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	products repository.ProductRepository,
	carts repository.CartRepository,
	outbox repository.OutboxRepository,
	gw gateway.Gateway,
	cartCache cache.CartCache,
	cartSync CartMaintenance,
	cfg config.PaymentConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) PaymentService {
	if cartCache == nil {
		cartCache = cache.NoopCache{}
	}
	return &paymentService{
		txm:       txm,
		orders:    orders,
		payments:  payments,
		products:  products,
		carts:     carts,
		outbox:    outbox,
		gateway:   gw,
		cartCache: cartCache,
		cartSync:  cartSync,
		cfg:       cfg,
		metrics:   m,
		logger:    logger.With().Str("service", "payment").Logger(),
	}
}

// payableOrder loads an order owned by userID that is still awaiting payment.
func (s *paymentService) payableOrder(ctx context.Context, userID int64, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.NotFound(model.ErrCodeOrderNotFound, "Order", "orderId", orderID)
	}
	if order.UserID != userID {
		return nil, model.ErrForbidden
	}
	if order.Status != model.OrderStatusPendingPayment {
		return nil, model.ErrInvalidOrderState
	}
	return order, nil
}

func (s *paymentService) CreatePreference(ctx context.Context, userID int64, orderID uuid.UUID) (*model.PreferenceResponse, error) {
	order, err := s.payableOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	items := make([]gateway.PreferenceItem, len(order.Items))
	for i, item := range order.Items {
		id := item.ID.String()
		if item.ProductID != nil {
			id = strconv.FormatInt(*item.ProductID, 10)
		}
		items[i] = gateway.PreferenceItem{
			ID:        id,
			Title:     item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: item.OrderedProductPrice,
		}
	}

	front := strings.TrimSuffix(s.cfg.FrontendBaseURL, "/")
	pref, err := s.gateway.CreatePreference(ctx, gateway.PreferenceRequest{
		ExternalReference: order.ID.String(),
		PayerEmail:        order.Email,
		Items:             items,
		NotificationURL:   s.cfg.NotificationURL(),
		BackURLs: gateway.BackURLs{
			Success: front + "/payment/success",
			Pending: front + "/payment/pending",
			Failure: front + "/payment/failure",
		},
		StatementDescriptor: s.cfg.StatementDescriptor,
		Currency:            s.cfg.DefaultCurrency,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("preference_id", pref.ID).
		Msg("payment preference created")

	return &model.PreferenceResponse{
		PreferenceID:     pref.ID,
		InitPoint:        pref.InitPoint,
		SandboxInitPoint: pref.SandboxInitPoint,
	}, nil
}

func (s *paymentService) CreatePixCharge(ctx context.Context, userID int64, orderID uuid.UUID) (_ *model.PixChargeResponse, err error) {
	order, err := s.payableOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	charge, err := s.gateway.CreatePixCharge(ctx, gateway.PixChargeRequest{
		ExternalReference: order.ID.String(),
		PayerEmail:        order.Email,
		Description:       "Order " + order.ID.String(),
		Amount:            order.TotalAmount,
		NotificationURL:   s.cfg.NotificationURL(),
	})
	if err != nil {
		return nil, err
	}

	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback(ctx, tx, &err, s.logger)

	payment, err := s.payments.GetByOrderIDForUpdate(ctx, tx, order.ID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, model.NotFound(model.ErrCodeResourceNotFound, "Payment", "orderId", order.ID)
	}

	payment.Method = "pix"
	payment.GatewayPaymentID = charge.ID
	payment.GatewayStatus = charge.Status
	payment.QRCode = charge.QRCode
	payment.QRCodeBase64 = charge.QRCodeBase64
	payment.UpdatedAt = time.Now().UTC()

	if err = s.payments.Update(ctx, tx, payment); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to save pix charge: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("gateway_payment_id", charge.ID).
		Msg("pix charge created")

	return &model.PixChargeResponse{
		GatewayPaymentID: charge.ID,
		Status:           charge.Status,
		QRCode:           charge.QRCode,
		QRCodeBase64:     charge.QRCodeBase64,
	}, nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, n *model.PaymentNotification) {
	if n == nil || (n.Action != "payment.created" && n.Action != "payment.updated") {
		s.metrics.Notification("ignored")
		s.logger.Debug().Interface("notification", n).Msg("ignoring notification")
		return
	}

	if err := s.ProcessPaymentNotification(ctx, n.Data.ID); err != nil {
		s.metrics.Notification("failed")
		s.logger.Error().Err(err).Str("payment_id", n.Data.ID).Msg("failed to process payment notification")
	}
}

func (s *paymentService) ProcessPaymentNotification(ctx context.Context, paymentID string) (err error) {
	id, parseErr := strconv.ParseInt(strings.TrimSpace(paymentID), 10, 64)
	if parseErr != nil {
		s.metrics.Notification("malformed")
		s.logger.Error().Str("payment_id", paymentID).Msg("invalid payment id received from webhook")
		return nil
	}

	info, err := s.gateway.GetPayment(ctx, id)
	if err != nil {
		return err
	}

	orderID, parseErr := uuid.Parse(info.ExternalReference)
	if parseErr != nil {
		s.metrics.Notification("malformed")
		s.logger.Warn().
			Str("payment_id", info.ID).
			Str("external_reference", info.ExternalReference).
			Msg("payment does not reference an order")
		return nil
	}

	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer rollback(ctx, tx, &err, s.logger)

	order, err := s.orders.GetByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return model.NotFound(model.ErrCodeOrderNotFound, "Order", "orderId", orderID)
	}

	if order.Status == model.OrderStatusPaid {
		s.metrics.Notification("duplicate")
		s.logger.Info().Str("order_id", orderID.String()).Msg("order already paid, nothing to do")
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return nil
	}

	payment, err := s.payments.GetByOrderIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return err
	}
	isNew := payment == nil
	now := time.Now().UTC()
	if isNew {
		payment = &model.Payment{ID: uuid.New(), OrderID: orderID, CreatedAt: now}
	}

	payment.GatewayName = model.GatewayMercadoPago
	payment.GatewayPaymentID = info.ID
	payment.GatewayStatus = info.Status
	payment.GatewayStatusDetail = info.StatusDetail
	payment.Amount = info.Amount
	if info.PaymentTypeID != "" {
		payment.Method = info.PaymentTypeID
	}
	payment.UpdatedAt = now

	status := order.Status
	eventType := ""
	switch {
	case info.Status == model.PaymentStatusApproved:
		status = model.OrderStatusPaid
		eventType = model.EventOrderPaid
		payment.ConfirmedAt = &now

		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			ok, err := s.products.DecrementStock(ctx, tx, *item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				s.logger.Warn().
					Str("order_id", orderID.String()).
					Int64("product_id", *item.ProductID).
					Int("quantity", item.Quantity).
					Msg("stock lower than paid quantity, order oversold")
			}
		}

		if err = emptyCart(ctx, s.carts, tx, order.UserID); err != nil {
			return err
		}
	case failedStatuses[info.Status]:
		status = model.OrderStatusPaymentFailed
		eventType = model.EventOrderPaymentFailed
	}

	if isNew {
		err = s.payments.Create(ctx, tx, payment)
	} else {
		err = s.payments.Update(ctx, tx, payment)
	}
	if err != nil {
		return err
	}

	if status != order.Status {
		if err = s.orders.UpdateStatus(ctx, tx, orderID, status); err != nil {
			return err
		}
		order.Status = status
		if err = appendEvent(ctx, s.outbox, tx, model.AggregateOrder, orderID.String(),
			eventType, newOrderEvent(order)); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to commit payment notification")
		return fmt.Errorf("failed to apply payment notification: %w", err)
	}

	s.metrics.Notification("processed")
	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("gateway_status", info.Status).
		Str("order_status", string(status)).
		Msg("payment notification applied")

	if status == model.OrderStatusPaid {
		s.metrics.OrderStatus(string(status))
		if err := s.cartCache.Delete(context.WithoutCancel(ctx), order.UserID); err != nil {
			s.logger.Warn().Err(err).Int64("user_id", order.UserID).Msg("cart cache invalidation failed")
		}
		// Stock changed, so other carts holding these products need fresh warnings.
		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			if err := s.cartSync.ProductUpdated(ctx, *item.ProductID); err != nil {
				s.logger.Error().Err(err).Int64("product_id", *item.ProductID).Msg("failed to refresh carts after stock change")
			}
		}
	} else if status == model.OrderStatusPaymentFailed {
		s.metrics.OrderStatus(string(status))
	}
	return nil
}
