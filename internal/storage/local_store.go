package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

type localStore struct {
	dir    string
	logger zerolog.Logger
}

// NewLocalStore creates a store writing into dir, created on first use.
func NewLocalStore(dir string, logger zerolog.Logger) FileStore {
	return &localStore{
		dir:    dir,
		logger: logger.With().Str("component", "local-store").Logger(),
	}
}

func (s *localStore) Store(ctx context.Context, originalName string, content io.Reader) (string, error) {
	name, err := GenerateName(originalName)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Error().Err(err).Str("dir", s.dir).Msg("failed to create upload directory")
		return "", fmt.Errorf("failed to create upload directory %s: %w", s.dir, err)
	}

	path := filepath.Join(s.dir, name)
	file, err := os.Create(path)
	if err != nil {
		s.logger.Error().Err(err).Str("file", path).Msg("failed to create file")
		return "", fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer file.Close()

	written, err := io.Copy(file, content)
	if err != nil {
		os.Remove(path)
		s.logger.Error().Err(err).Str("file", path).Msg("failed to write file")
		return "", fmt.Errorf("failed to write file %s: %w", path, err)
	}

	s.logger.Info().
		Str("file", path).
		Int64("bytes", written).
		Msg("image stored locally")

	return name, nil
}
