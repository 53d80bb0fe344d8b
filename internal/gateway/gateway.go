package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// Gateway is the payment provider used by checkout and the webhook flow.
type Gateway interface {
	// CreatePreference opens a hosted checkout for an order.
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)

	// GetPayment fetches the current state of a gateway payment.
	GetPayment(ctx context.Context, paymentID int64) (*PaymentInfo, error)

	// CreatePixCharge issues a PIX charge and returns its QR code.
	CreatePixCharge(ctx context.Context, req PixChargeRequest) (*PixCharge, error)
}

// PreferenceItem is a single order line sent to the hosted checkout.
type PreferenceItem struct {
	ID        string
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
}

// BackURLs are the storefront pages the buyer returns to.
type BackURLs struct {
	Success string
	Pending string
	Failure string
}

type PreferenceRequest struct {
	ExternalReference   string
	PayerEmail          string
	Items               []PreferenceItem
	NotificationURL     string
	BackURLs            BackURLs
	StatementDescriptor string
	Currency            string
}

type Preference struct {
	ID               string
	InitPoint        string
	SandboxInitPoint string
}

// PaymentInfo is the gateway's view of a payment. ExternalReference holds
// the order id supplied when the payment was created.
type PaymentInfo struct {
	ID                string
	Status            string
	StatusDetail      string
	ExternalReference string
	Amount            decimal.Decimal
	PaymentTypeID     string
}

type PixChargeRequest struct {
	ExternalReference string
	PayerEmail        string
	Description       string
	Amount            decimal.Decimal
	NotificationURL   string
}

type PixCharge struct {
	ID           string
	Status       string
	QRCode       string
	QRCodeBase64 string
}
