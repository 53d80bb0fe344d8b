package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	GatewayMercadoPago = "MercadoPago"

	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
)

// Payment is the gateway-side record of an order's payment. It is one to
// one with Order and is mutated only by payment flows.
type Payment struct {
	ID                  uuid.UUID       `json:"paymentId" db:"id"`
	OrderID             uuid.UUID       `json:"orderId" db:"order_id"`
	Method              string          `json:"paymentMethod" db:"method"`
	GatewayName         string          `json:"pgName" db:"gateway_name"`
	GatewayPaymentID    string          `json:"pgPaymentId,omitempty" db:"gateway_payment_id"`
	GatewayStatus       string          `json:"pgStatus" db:"gateway_status"`
	GatewayStatusDetail string          `json:"pgResponseMessage,omitempty" db:"gateway_status_detail"`
	Amount              decimal.Decimal `json:"amount" db:"amount"`
	QRCode              string          `json:"qrCode,omitempty" db:"qr_code"`
	QRCodeBase64        string          `json:"qrCodeBase64,omitempty" db:"qr_code_base64"`
	ConfirmedAt         *time.Time      `json:"confirmedAt,omitempty" db:"confirmed_at"`
	CreatedAt           time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time       `json:"updatedAt" db:"updated_at"`
}

// PaymentNotification is the webhook body sent by the gateway.
type PaymentNotification struct {
	Action string `json:"action"`
	Type   string `json:"type"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// PreferenceResponse is returned after creating a hosted checkout.
type PreferenceResponse struct {
	PreferenceID     string `json:"preferenceId"`
	InitPoint        string `json:"initPoint"`
	SandboxInitPoint string `json:"sandboxInitPoint,omitempty"`
}

// PixChargeResponse is returned after creating a PIX charge.
type PixChargeResponse struct {
	GatewayPaymentID string `json:"pgPaymentId"`
	Status           string `json:"status"`
	QRCode           string `json:"qrCode"`
	QRCodeBase64     string `json:"qrCodeBase64"`
}
