package service

import (
	"context"
	"fmt"

	"digicommerce/internal/model"
	"digicommerce/internal/repository"

	"github.com/rs/zerolog"
)

// addressService implements AddressService.
type addressService struct {
	addresses repository.AddressRepository
	logger    zerolog.Logger
}

// NewAddressService creates a new address service.
func NewAddressService(addresses repository.AddressRepository, logger zerolog.Logger) AddressService {
	return &addressService{
		addresses: addresses,
		logger:    logger.With().Str("service", "address").Logger(),
	}
}

func (s *addressService) Create(ctx context.Context, userID int64, req *model.AddressRequest) (*model.Address, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	address := &model.Address{UserID: userID}
	req.ApplyTo(address)

	if err := s.addresses.Create(ctx, address); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("address_id", address.ID).Int64("user_id", userID).Msg("address created")
	return address, nil
}

func (s *addressService) ListMine(ctx context.Context, userID int64) ([]model.Address, error) {
	addresses, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

func (s *addressService) Get(ctx context.Context, userID, id int64) (*model.Address, error) {
	return s.owned(ctx, userID, id)
}

func (s *addressService) Update(ctx context.Context, userID, id int64, req *model.AddressRequest) (*model.Address, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	address, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	req.ApplyTo(address)
	if err := s.addresses.Update(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

func (s *addressService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}

	if _, err := s.addresses.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Int64("address_id", id).Int64("user_id", userID).Msg("address deleted")
	return nil
}

func (s *addressService) ListAll(ctx context.Context) ([]model.Address, error) {
	addresses, err := s.addresses.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

// owned loads an address and checks it belongs to userID.
func (s *addressService) owned(ctx context.Context, userID, id int64) (*model.Address, error) {
	address, err := s.addresses.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	if address == nil {
		return nil, model.NotFound(model.ErrCodeAddressNotFound, "Address", "addressId", id)
	}
	if address.UserID != userID {
		s.logger.Warn().Int64("address_id", id).Int64("user_id", userID).Msg("address belongs to another user")
		return nil, model.ErrForbidden
	}
	return address, nil
}
