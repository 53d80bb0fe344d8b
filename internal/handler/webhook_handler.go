package handler

import (
	"encoding/json"
	"net/http"

	"digicommerce/internal/model"
	"digicommerce/internal/service"

	"github.com/rs/zerolog"
)

// WebhookHandler receives payment gateway notifications.
type WebhookHandler struct {
	payments service.PaymentService
	logger   zerolog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(payments service.PaymentService, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		payments: payments,
		logger:   logger.With().Str("handler", "webhook").Logger(),
	}
}

// MercadoPago handles POST /api/webhooks/mercadopago. It always answers 200.
func (h *WebhookHandler) MercadoPago(w http.ResponseWriter, r *http.Request) {
	var n model.PaymentNotification
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		h.logger.Warn().Err(err).Msg("unreadable webhook body")
		w.WriteHeader(http.StatusOK)
		return
	}

	h.logger.Info().Str("action", n.Action).Str("payment_id", n.Data.ID).Msg("payment notification received")
	h.payments.HandleWebhook(r.Context(), &n)
	w.WriteHeader(http.StatusOK)
}
