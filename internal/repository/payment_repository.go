package repository

import (
	"context"
	"errors"
	"fmt"

	"digicommerce/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const paymentColumns = `id, order_id, method, gateway_name, COALESCE(gateway_payment_id, ''), gateway_status,
	gateway_status_detail, amount, qr_code, qr_code_base64, confirmed_at, created_at, updated_at`

type paymentRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPaymentRepository creates a new PostgreSQL-backed payment repository.
func NewPaymentRepository(pool *pgxpool.Pool, logger zerolog.Logger) PaymentRepository {
	return &paymentRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "payment").Logger(),
	}
}

// getPayment is shared with the order repository. Returns nil when absent.
func getPayment(ctx context.Context, q querier, where string, args ...any) (*model.Payment, error) {
	var p model.Payment
	err := q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments `+where, args...).Scan(
		&p.ID, &p.OrderID, &p.Method, &p.GatewayName, &p.GatewayPaymentID, &p.GatewayStatus,
		&p.GatewayStatusDetail, &p.Amount, &p.QRCode, &p.QRCodeBase64, &p.ConfirmedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}
	return &p, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *paymentRepository) Create(ctx context.Context, tx pgx.Tx, p *model.Payment) error {
	query := `
		INSERT INTO payments (id, order_id, method, gateway_name, gateway_payment_id, gateway_status,
			gateway_status_detail, amount, qr_code, qr_code_base64, confirmed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := tx.Exec(ctx, query,
		p.ID, p.OrderID, p.Method, p.GatewayName, nullIfEmpty(p.GatewayPaymentID), p.GatewayStatus,
		p.GatewayStatusDetail, p.Amount, p.QRCode, p.QRCodeBase64, p.ConfirmedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", p.OrderID.String()).Msg("failed to create payment")
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Payment, error) {
	p, err := getPayment(ctx, r.pool, `WHERE order_id = $1`, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query payment")
	}
	return p, err
}

func (r *paymentRepository) GetByOrderIDForUpdate(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (*model.Payment, error) {
	p, err := getPayment(ctx, tx, `WHERE order_id = $1 FOR UPDATE`, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to lock payment")
	}
	return p, err
}

func (r *paymentRepository) Update(ctx context.Context, tx pgx.Tx, p *model.Payment) error {
	query := `
		UPDATE payments
		SET method = $2, gateway_name = $3, gateway_payment_id = $4, gateway_status = $5,
			gateway_status_detail = $6, amount = $7, qr_code = $8, qr_code_base64 = $9,
			confirmed_at = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := tx.QueryRow(ctx, query,
		p.ID, p.Method, p.GatewayName, nullIfEmpty(p.GatewayPaymentID), p.GatewayStatus,
		p.GatewayStatusDetail, p.Amount, p.QRCode, p.QRCodeBase64, p.ConfirmedAt,
	).Scan(&p.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("payment_id", p.ID.String()).Msg("failed to update payment")
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return nil
}
