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

const addressColumns = `id, user_id, street, building_name, city, state, country, cep`

type addressRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAddressRepository creates a new PostgreSQL-backed address repository.
func NewAddressRepository(pool *pgxpool.Pool, logger zerolog.Logger) AddressRepository {
	return &addressRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "address").Logger(),
	}
}

func scanAddress(row pgx.Row, a *model.Address) error {
	return row.Scan(&a.ID, &a.UserID, &a.Street, &a.BuildingName, &a.City, &a.State, &a.Country, &a.CEP)
}

func (r *addressRepository) Create(ctx context.Context, a *model.Address) error {
	query := `
		INSERT INTO addresses (user_id, street, building_name, city, state, country, cep)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query,
		a.UserID, a.Street, a.BuildingName, a.City, a.State, a.Country, a.CEP,
	).Scan(&a.ID)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", a.UserID).Msg("failed to create address")
		return fmt.Errorf("failed to create address: %w", err)
	}
	return nil
}

func (r *addressRepository) GetByID(ctx context.Context, id int64) (*model.Address, error) {
	var a model.Address
	err := scanAddress(r.pool.QueryRow(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id), &a)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("address_id", id).Msg("failed to query address")
		return nil, fmt.Errorf("failed to query address: %w", err)
	}
	return &a, nil
}

func (r *addressRepository) ListByUser(ctx context.Context, userID int64) ([]model.Address, error) {
	return r.list(ctx, `SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY id`, userID)
}

func (r *addressRepository) ListAll(ctx context.Context) ([]model.Address, error) {
	return r.list(ctx, `SELECT `+addressColumns+` FROM addresses ORDER BY id`)
}

func (r *addressRepository) list(ctx context.Context, query string, args ...any) ([]model.Address, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query addresses")
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}
	defer rows.Close()

	addresses := []model.Address{}
	for rows.Next() {
		var a model.Address
		if err := scanAddress(rows, &a); err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}
	return addresses, nil
}

func (r *addressRepository) Update(ctx context.Context, a *model.Address) error {
	query := `
		UPDATE addresses
		SET street = $2, building_name = $3, city = $4, state = $5, country = $6, cep = $7
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, a.ID, a.Street, a.BuildingName, a.City, a.State, a.Country, a.CEP)
	if err != nil {
		r.logger.Error().Err(err).Int64("address_id", a.ID).Msg("failed to update address")
		return fmt.Errorf("failed to update address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NotFound(model.ErrCodeAddressNotFound, "Address", "addressId", a.ID)
	}
	return nil
}

func (r *addressRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("address_id", id).Msg("failed to delete address")
		return false, fmt.Errorf("failed to delete address: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
