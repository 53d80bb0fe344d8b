package gateway

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const pixMethodID = "pix"

type paymentAPI interface {
	Create(ctx context.Context, request payment.Request) (*payment.Response, error)
	Get(ctx context.Context, id int) (*payment.Response, error)
}

type preferenceAPI interface {
	Create(ctx context.Context, request preference.Request) (*preference.Response, error)
}

type mercadoPago struct {
	payments    paymentAPI
	preferences preferenceAPI
	timeout     time.Duration
	logger      zerolog.Logger
}

// NewMercadoPago creates a gateway backed by the Mercado Pago SDK.
func NewMercadoPago(accessToken string, timeout time.Duration, logger zerolog.Logger) (Gateway, error) {
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to configure mercado pago: %w", err)
	}

	return newMercadoPago(payment.NewClient(cfg), preference.NewClient(cfg), timeout, logger), nil
}

func newMercadoPago(payments paymentAPI, preferences preferenceAPI, timeout time.Duration, logger zerolog.Logger) *mercadoPago {
	return &mercadoPago{
		payments:    payments,
		preferences: preferences,
		timeout:     timeout,
		logger:      logger.With().Str("component", "mercadopago").Logger(),
	}
}

func (g *mercadoPago) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *mercadoPago) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	items := make([]preference.ItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = preference.ItemRequest{
			ID:         item.ID,
			Title:      item.Title,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice.InexactFloat64(),
			CurrencyID: req.Currency,
		}
	}

	request := preference.Request{
		Items:             items,
		Payer:             &preference.PayerRequest{Email: req.PayerEmail},
		ExternalReference: req.ExternalReference,
		NotificationURL:   req.NotificationURL,
		BackURLs: &preference.BackURLsRequest{
			Success: req.BackURLs.Success,
			Pending: req.BackURLs.Pending,
			Failure: req.BackURLs.Failure,
		},
		AutoReturn:          "approved",
		StatementDescriptor: req.StatementDescriptor,
	}

	resp, err := g.preferences.Create(ctx, request)
	if err != nil {
		g.logger.Error().Err(err).Str("external_reference", req.ExternalReference).Msg("failed to create preference")
		return nil, fmt.Errorf("failed to create preference: %w", err)
	}

	g.logger.Info().
		Str("preference_id", resp.ID).
		Str("external_reference", req.ExternalReference).
		Msg("preference created")

	return &Preference{
		ID:               resp.ID,
		InitPoint:        resp.InitPoint,
		SandboxInitPoint: resp.SandboxInitPoint,
	}, nil
}

func (g *mercadoPago) GetPayment(ctx context.Context, paymentID int64) (*PaymentInfo, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	resp, err := g.payments.Get(ctx, int(paymentID))
	if err != nil {
		g.logger.Error().Err(err).Int64("payment_id", paymentID).Msg("failed to fetch payment")
		return nil, fmt.Errorf("failed to fetch payment %d: %w", paymentID, err)
	}

	return &PaymentInfo{
		ID:                strconv.Itoa(resp.ID),
		Status:            resp.Status,
		StatusDetail:      resp.StatusDetail,
		ExternalReference: resp.ExternalReference,
		Amount:            decimal.NewFromFloat(resp.TransactionAmount).Round(2),
		PaymentTypeID:     resp.PaymentTypeID,
	}, nil
}

func (g *mercadoPago) CreatePixCharge(ctx context.Context, req PixChargeRequest) (*PixCharge, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	request := payment.Request{
		TransactionAmount: req.Amount.InexactFloat64(),
		PaymentMethodID:   pixMethodID,
		Description:       req.Description,
		ExternalReference: req.ExternalReference,
		NotificationURL:   req.NotificationURL,
		Payer:             &payment.PayerRequest{Email: req.PayerEmail},
	}

	resp, err := g.payments.Create(ctx, request)
	if err != nil {
		g.logger.Error().Err(err).Str("external_reference", req.ExternalReference).Msg("failed to create pix charge")
		return nil, fmt.Errorf("failed to create pix charge: %w", err)
	}

	g.logger.Info().
		Int("payment_id", resp.ID).
		Str("status", resp.Status).
		Str("external_reference", req.ExternalReference).
		Msg("pix charge created")

	return &PixCharge{
		ID:           strconv.Itoa(resp.ID),
		Status:       resp.Status,
		QRCode:       resp.PointOfInteraction.TransactionData.QRCode,
		QRCodeBase64: resp.PointOfInteraction.TransactionData.QRCodeBase64,
	}, nil
}
