package service

import (
	"context"
	"fmt"
	"strings"

	"digicommerce/internal/model"
	"digicommerce/internal/repository"

	"github.com/rs/zerolog"
)

type userService struct {
	users  repository.UserRepository
	logger zerolog.Logger
}

// NewUserService creates a new user service.
func NewUserService(users repository.UserRepository, logger zerolog.Logger) UserService {
	return &userService{
		users:  users,
		logger: logger.With().Str("service", "user").Logger(),
	}
}

func (s *userService) EnsureUser(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return nil, model.ErrUnauthorised
	}

	user, err := s.users.EnsureByEmail(ctx, email, email[:at])
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return user, nil
}
