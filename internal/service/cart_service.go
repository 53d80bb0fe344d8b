package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"digicommerce/internal/cache"
	"digicommerce/internal/metrics"
	"digicommerce/internal/model"
	"digicommerce/internal/pricing"
	"digicommerce/internal/repository"
	"digicommerce/internal/stock"
	"digicommerce/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// cartService implements CartService.
type cartService struct {
	txm          repository.TxManager
	carts        repository.CartRepository
	products     repository.ProductRepository
	cache        cache.CartCache
	metrics      *metrics.Metrics
	imageBaseURL string
	group        singleflight.Group
	logger       zerolog.Logger
}

// NewCartService creates a new cart service. m may be nil.
func NewCartService(
	txm repository.TxManager,
	carts repository.CartRepository,
	products repository.ProductRepository,
	cartCache cache.CartCache,
	m *metrics.Metrics,
	imageBaseURL string,
	logger zerolog.Logger,
) CartService {
	if cartCache == nil {
		cartCache = cache.NoopCache{}
	}
	return &cartService{
		txm:          txm,
		carts:        carts,
		products:     products,
		cache:        cartCache,
		metrics:      m,
		imageBaseURL: imageBaseURL,
		logger:       logger.With().Str("service", "cart").Logger(),
	}
}

// GetCart serves from cache when possible. Concurrent misses for the same
// user share one database load, which does not inherit any single caller's
// cancellation.
func (s *cartService) GetCart(ctx context.Context, userID int64) (*model.CartView, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(strconv.FormatInt(userID, 10), func() (any, error) {
		return s.cachedCart(shared, userID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.CartView), nil
	}
}

func (s *cartService) cachedCart(ctx context.Context, userID int64) (*model.CartView, error) {
	view, err := s.cache.Get(ctx, userID)
	if err == nil {
		s.metrics.CacheHit()
		return view, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("cart cache read failed")
	}
	s.metrics.CacheMiss()

	// Read before loading so an invalidation during the load is detected.
	gen, genErr := s.cache.Generation(ctx, userID)

	view, err = s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if genErr != nil {
		s.logger.Warn().Err(genErr).Int64("user_id", userID).Msg("cart cache generation read failed")
		return view, nil
	}
	if err := s.cache.Set(ctx, userID, gen, view); err != nil {
		if errors.Is(err, cache.ErrStale) {
			s.logger.Debug().Int64("user_id", userID).Msg("cart changed during load, not cached")
		} else {
			s.logger.Warn().Err(err).Int64("user_id", userID).Msg("cart cache write failed")
		}
	}
	return view, nil
}

// loadCart creates the cart if needed and persists a fresh total against
// live prices.
func (s *cartService) loadCart(ctx context.Context, userID int64) (_ *model.CartView, err error) {
	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback(ctx, tx, &err, s.logger)

	cart, err := s.carts.GetOrCreateForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	stored := cart.TotalPrice
	if total := pricing.Recalculate(cart); !total.Equal(stored) {
		if err = s.carts.UpdateTotal(ctx, tx, cart.ID, total); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return s.view(cart), nil
}

func (s *cartService) AddItem(ctx context.Context, userID, productID int64, qty int) (*model.CartView, error) {
	if qty <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, func(tx pgx.Tx, cart *model.Cart) error {
		idx, exists := cart.FindItem(productID)
		newQty := qty
		if exists {
			newQty += cart.Items[idx].Quantity
		}

		if err := stock.Check(product.Name, product.QuantityInStock, newQty); err != nil {
			return err
		}

		if exists {
			cart.Items[idx].Quantity = newQty
			cart.Items[idx].Product = *product
		} else {
			cart.Items = append(cart.Items, model.CartItem{
				CartID:   cart.ID,
				Product:  *product,
				Quantity: qty,
				Discount: decimal.Zero,
			})
			idx = len(cart.Items) - 1
		}
		return s.carts.SaveItem(ctx, tx, cart.ID, &cart.Items[idx])
	})
}

func (s *cartService) SetItemQuantity(ctx context.Context, userID, productID int64, qty int) (*model.CartView, error) {
	if qty <= 0 {
		return s.mutate(ctx, userID, func(tx pgx.Tx, cart *model.Cart) error {
			return s.dropLine(ctx, tx, cart, productID)
		})
	}

	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, func(tx pgx.Tx, cart *model.Cart) error {
		idx, exists := cart.FindItem(productID)
		if !exists {
			return model.NewDomainError(model.ErrCodeResourceNotFound,
				fmt.Sprintf("Product %s not available in the cart", product.Name))
		}

		if err := stock.Check(product.Name, product.QuantityInStock, qty); err != nil {
			return err
		}

		cart.Items[idx].Quantity = qty
		cart.Items[idx].Product = *product
		return s.carts.SaveItem(ctx, tx, cart.ID, &cart.Items[idx])
	})
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID int64) (bool, error) {
	removed := false
	_, err := s.mutate(ctx, userID, func(tx pgx.Tx, cart *model.Cart) error {
		_, removed = cart.FindItem(productID)
		return s.dropLine(ctx, tx, cart, productID)
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (s *cartService) Clear(ctx context.Context, userID int64) error {
	_, err := s.mutate(ctx, userID, func(tx pgx.Tx, cart *model.Cart) error {
		if err := s.carts.DeleteAllItems(ctx, tx, cart.ID); err != nil {
			return err
		}
		cart.Items = nil
		return nil
	})
	return err
}

func (s *cartService) ListAll(ctx context.Context) ([]model.CartView, error) {
	carts, err := s.carts.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list carts: %w", err)
	}
	if len(carts) == 0 {
		return nil, model.NewDomainError(model.ErrCodeResourceNotFound, "No cart exists")
	}

	views := make([]model.CartView, len(carts))
	for i := range carts {
		pricing.Recalculate(&carts[i])
		views[i] = *s.view(&carts[i])
	}
	return views, nil
}

func (s *cartService) ProductUpdated(ctx context.Context, productID int64) error {
	return s.fanOut(ctx, productID, func(context.Context, pgx.Tx, *model.Cart) error {
		return nil
	})
}

func (s *cartService) ProductDeleted(ctx context.Context, productID int64) error {
	return s.fanOut(ctx, productID, func(ctx context.Context, tx pgx.Tx, cart *model.Cart) error {
		return s.dropLine(ctx, tx, cart, productID)
	})
}

// fanOut applies change to every cart holding productID and persists each
// recomputed total in one transaction.
func (s *cartService) fanOut(ctx context.Context, productID int64, change func(context.Context, pgx.Tx, *model.Cart) error) (err error) {
	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer rollback(ctx, tx, &err, s.logger)

	carts, err := s.carts.ListByProductForUpdate(ctx, tx, productID)
	if err != nil {
		return err
	}

	userIDs := make([]int64, 0, len(carts))
	for i := range carts {
		cart := &carts[i]
		if err = change(ctx, tx, cart); err != nil {
			return err
		}
		if err = s.carts.UpdateTotal(ctx, tx, cart.ID, pricing.Recalculate(cart)); err != nil {
			return err
		}
		userIDs = append(userIDs, cart.UserID)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to update carts for product %d: %w", productID, err)
	}

	s.invalidate(ctx, userIDs...)
	s.logger.Debug().Int64("product_id", productID).Int("carts", len(carts)).Msg("carts refreshed")
	return nil
}

// mutate runs change against the locked cart, then recomputes and persists
// the total. A failing change leaves the cart untouched.
func (s *cartService) mutate(ctx context.Context, userID int64, change func(pgx.Tx, *model.Cart) error) (_ *model.CartView, err error) {
	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback(ctx, tx, &err, s.logger)

	cart, err := s.carts.GetOrCreateForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if err = change(tx, cart); err != nil {
		return nil, err
	}

	if err = s.carts.UpdateTotal(ctx, tx, cart.ID, pricing.Recalculate(cart)); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to commit cart change")
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}

	s.invalidate(ctx, userID)
	return s.view(cart), nil
}

// dropLine removes a line if present. Absent lines are not an error.
func (s *cartService) dropLine(ctx context.Context, tx pgx.Tx, cart *model.Cart, productID int64) error {
	idx, exists := cart.FindItem(productID)
	if !exists {
		return nil
	}
	if _, err := s.carts.DeleteItem(ctx, tx, cart.ID, productID); err != nil {
		return err
	}
	cart.RemoveItemAt(idx)
	return nil
}

func (s *cartService) findProduct(ctx context.Context, productID int64) (*model.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.NotFound(model.ErrCodeProductNotFound, "Product", "productId", productID)
	}
	return product, nil
}

func (s *cartService) invalidate(ctx context.Context, userIDs ...int64) {
	if err := s.cache.Delete(context.WithoutCancel(ctx), userIDs...); err != nil {
		s.logger.Warn().Err(err).Ints64("user_ids", userIDs).Msg("cart cache invalidation failed")
	}
}

func (s *cartService) view(cart *model.Cart) *model.CartView {
	lines := make([]model.CartItemView, len(cart.Items))
	for i, item := range cart.Items {
		lines[i] = model.CartItemView{
			ProductID:     item.Product.ID,
			ProductName:   item.Product.Name,
			Image:         storage.ImageURL(s.imageBaseURL, item.Product.Image),
			Description:   item.Product.Description,
			CartQuantity:  item.Quantity,
			StockQuantity: item.Product.QuantityInStock,
			Discount:      item.Discount,
			UnitPrice:     pricing.EffectiveUnitPrice(item.Product, item.Discount),
			Subtotal:      pricing.LineSubtotal(item),
			Warning:       stock.Warning(item.Product.QuantityInStock, item.Quantity),
		}
	}

	return &model.CartView{
		CartID:     cart.ID,
		UserID:     cart.UserID,
		TotalPrice: cart.TotalPrice,
		Products:   lines,
	}
}

// emptyCart clears a user's cart inside an existing transaction. The
// caller invalidates the cache after commit.
func emptyCart(ctx context.Context, carts repository.CartRepository, tx pgx.Tx, userID int64) error {
	cart, err := carts.GetOrCreateForUpdate(ctx, tx, userID)
	if err != nil {
		return err
	}
	if cart.IsEmpty() && cart.TotalPrice.IsZero() {
		return nil
	}
	if err := carts.DeleteAllItems(ctx, tx, cart.ID); err != nil {
		return err
	}
	return carts.UpdateTotal(ctx, tx, cart.ID, decimal.Zero)
}
