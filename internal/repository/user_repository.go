package repository

import (
	"context"
	"errors"
	"fmt"

	"digicommerce/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, `SELECT id, username, email, created_at FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT id, username, email, created_at FROM users WHERE email = LOWER($1)`, email)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

// EnsureByEmail upserts on the unique email so concurrent first requests
// from the same user resolve to one row.
func (r *userRepository) EnsureByEmail(ctx context.Context, email, username string) (*model.User, error) {
	query := `
		INSERT INTO users (username, email)
		VALUES ($1, LOWER($2))
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, username, email, created_at
	`

	var u model.User
	if err := r.pool.QueryRow(ctx, query, username, email).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt); err != nil {
		r.logger.Error().Err(err).Str("email", email).Msg("failed to ensure user")
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	return &u, nil
}
