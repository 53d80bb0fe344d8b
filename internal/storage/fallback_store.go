package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"digicommerce/internal/model"

	"github.com/rs/zerolog"
)

type fallbackStore struct {
	primary   FileStore
	secondary FileStore
	enabled   bool
	logger    zerolog.Logger
}

// NewFallbackStore tries primary first when enabled, then secondary. A nil
// primary means only secondary is used.
func NewFallbackStore(primary, secondary FileStore, enabled bool, logger zerolog.Logger) FileStore {
	return &fallbackStore{
		primary:   primary,
		secondary: secondary,
		enabled:   enabled,
		logger:    logger.With().Str("component", "fallback-store").Logger(),
	}
}

func (s *fallbackStore) Store(ctx context.Context, originalName string, content io.Reader) (string, error) {
	if !s.enabled || s.primary == nil {
		s.logger.Debug().
			Bool("s3_enabled", s.enabled).
			Bool("has_primary", s.primary != nil).
			Msg("primary store disabled, using local file system")
		return s.secondary.Store(ctx, originalName, content)
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	name, err := s.primary.Store(ctx, originalName, bytes.NewReader(data))
	if err == nil {
		return name, nil
	}
	if errors.Is(err, model.ErrInvalidFile) {
		return "", err
	}

	s.logger.Warn().
		Err(err).
		Str("file", originalName).
		Msg("primary store failed, falling back to local file system")

	return s.secondary.Store(ctx, originalName, bytes.NewReader(data))
}
