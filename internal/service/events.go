package service

import (
	"context"
	"encoding/json"
	"fmt"

	"digicommerce/internal/model"
	"digicommerce/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// appendEvent marshals payload and writes it to the outbox inside tx.
func appendEvent(ctx context.Context, outbox repository.OutboxRepository, tx pgx.Tx, aggregateType, aggregateID, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	return outbox.Append(ctx, tx, &model.OutboxEvent{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       data,
	})
}

// rollback is deferred by every transactional method; it is a no-op once
// the transaction has been committed.
func rollback(ctx context.Context, tx pgx.Tx, err *error, logger zerolog.Logger) {
	if *err == nil {
		return
	}
	if rbErr := tx.Rollback(ctx); rbErr != nil {
		logger.Error().Err(rbErr).Msg("failed to rollback transaction")
	}
}
