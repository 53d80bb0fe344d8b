package gateway

import (
	"context"
	"fmt"
	"time"

	"digicommerce/internal/model"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// BreakerSettings configures the circuit breaker wrapped around a Gateway.
type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

type breakerGateway struct {
	next   Gateway
	cb     *gobreaker.CircuitBreaker[any]
	logger zerolog.Logger
}

// WithBreaker wraps next in a circuit breaker. Every failure, including an
// open breaker, is reported to callers as model.ErrGateway.
func WithBreaker(next Gateway, settings BreakerSettings, logger zerolog.Logger) Gateway {
	logger = logger.With().Str("component", "gateway-breaker").Logger()

	maxFailures := settings.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &breakerGateway{next: next, cb: cb, logger: logger}
}

func execute[T any](g *breakerGateway, op string, fn func() (T, error)) (T, error) {
	var zero T

	result, err := g.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		g.logger.Error().Err(err).Str("operation", op).Msg("payment gateway call failed")
		return zero, fmt.Errorf("%s: %w", op, model.ErrGateway)
	}
	v, _ := result.(T)
	return v, nil
}

func (g *breakerGateway) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	return execute(g, "create preference", func() (*Preference, error) {
		return g.next.CreatePreference(ctx, req)
	})
}

func (g *breakerGateway) GetPayment(ctx context.Context, paymentID int64) (*PaymentInfo, error) {
	return execute(g, "get payment", func() (*PaymentInfo, error) {
		return g.next.GetPayment(ctx, paymentID)
	})
}

func (g *breakerGateway) CreatePixCharge(ctx context.Context, req PixChargeRequest) (*PixCharge, error) {
	return execute(g, "create pix charge", func() (*PixCharge, error) {
		return g.next.CreatePixCharge(ctx, req)
	})
}
