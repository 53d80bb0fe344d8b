package cache

import (
	"context"
	"errors"

	"digicommerce/internal/model"
)

// ErrCacheMiss is returned when no cart view is cached for the user.
var ErrCacheMiss = errors.New("cache miss")

// ErrStale is returned by Set when the cart was invalidated after the
// caller read its generation. Nothing is written.
var ErrStale = errors.New("cart changed while loading")

// CartCache stores priced cart views keyed by user id. Every Delete bumps
// the user's generation; Set only writes when the generation still matches
// the one read before the cart was loaded.
type CartCache interface {
	Get(ctx context.Context, userID int64) (*model.CartView, error)
	Generation(ctx context.Context, userID int64) (int64, error)
	Set(ctx context.Context, userID, generation int64, cart *model.CartView) error
	Delete(ctx context.Context, userIDs ...int64) error
}

// NoopCache is used when Redis is disabled. Every read misses.
type NoopCache struct{}

func (NoopCache) Get(context.Context, int64) (*model.CartView, error) {
	return nil, ErrCacheMiss
}

func (NoopCache) Generation(context.Context, int64) (int64, error) {
	return 0, nil
}

func (NoopCache) Set(context.Context, int64, int64, *model.CartView) error {
	return nil
}

func (NoopCache) Delete(context.Context, ...int64) error {
	return nil
}
