package events

import (
	"context"
	"time"

	"digicommerce/internal/repository"

	"github.com/rs/zerolog"
)

// OutboxPoller publishes pending outbox events and marks them processed.
// Events that fail to publish stay pending and are retried on the next tick.
type OutboxPoller struct {
	repo      repository.OutboxRepository
	writer    MessageWriter
	interval  time.Duration
	batchSize int
	logger    zerolog.Logger
}

// NewOutboxPoller creates a poller reading batchSize events every interval.
func NewOutboxPoller(repo repository.OutboxRepository, writer MessageWriter, interval time.Duration, batchSize int, logger zerolog.Logger) *OutboxPoller {
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxPoller{
		repo:      repo,
		writer:    writer,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger.With().Str("component", "outbox-poller").Logger(),
	}
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info().Dur("interval", p.interval).Int("batch_size", p.batchSize).Msg("outbox poller started")

	for {
		select {
		case <-ticker.C:
			p.ProcessPending(ctx)
		case <-ctx.Done():
			p.logger.Info().Msg("outbox poller stopped")
			return
		}
	}
}

// ProcessPending publishes one batch and returns how many events were sent.
func (p *OutboxPoller) ProcessPending(ctx context.Context) int {
	events, err := p.repo.FetchPending(ctx, p.batchSize)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to fetch outbox events")
		return 0
	}

	sent := 0
	for _, event := range events {
		if err := p.writer.WriteMessages(ctx, toMessage(event)); err != nil {
			p.logger.Error().
				Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", event.EventType).
				Msg("failed to publish event")
			// Keep per-aggregate order: stop at the first failure.
			break
		}

		if err := p.repo.MarkProcessed(ctx, event.ID); err != nil {
			p.logger.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to mark event processed")
			break
		}
		sent++
	}

	if sent > 0 {
		p.logger.Debug().Int("sent", sent).Msg("outbox events published")
	}
	return sent
}

// Close releases the underlying writer.
func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}
