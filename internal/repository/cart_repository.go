package repository

import (
	"context"
	"errors"
	"fmt"

	"digicommerce/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const cartColumns = `c.id, c.user_id, c.total_price, c.created_at, c.updated_at`

// cartRepository implements CartRepository using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

func scanCart(row pgx.Row, c *model.Cart) error {
	return row.Scan(&c.ID, &c.UserID, &c.TotalPrice, &c.CreatedAt, &c.UpdatedAt)
}

// GetByUserID retrieves a user's cart with items.
func (r *cartRepository) GetByUserID(ctx context.Context, userID int64) (*model.Cart, error) {
	var cart model.Cart
	err := scanCart(r.pool.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts c WHERE c.user_id = $1`, userID), &cart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("user_id", userID).Msg("cart not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	carts := []model.Cart{cart}
	if err := r.loadItems(ctx, r.pool, carts); err != nil {
		return nil, err
	}
	return &carts[0], nil
}

// GetOrCreateForUpdate returns the user's cart, creating it if needed, and
// holds a row lock on it until tx ends.
func (r *cartRepository) GetOrCreateForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (*model.Cart, error) {
	_, err := tx.Exec(ctx, `INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to create cart")
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	var cart model.Cart
	err = scanCart(tx.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts c WHERE c.user_id = $1 FOR UPDATE`, userID), &cart)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to lock cart")
		return nil, fmt.Errorf("failed to lock cart: %w", err)
	}

	carts := []model.Cart{cart}
	if err := r.loadItems(ctx, tx, carts); err != nil {
		return nil, err
	}
	return &carts[0], nil
}

// ListAll retrieves every cart with items.
func (r *cartRepository) ListAll(ctx context.Context) ([]model.Cart, error) {
	return r.listCarts(ctx, r.pool, `SELECT `+cartColumns+` FROM carts c ORDER BY c.id`)
}

// ListByProductForUpdate locks and returns every cart holding productID.
func (r *cartRepository) ListByProductForUpdate(ctx context.Context, tx pgx.Tx, productID int64) ([]model.Cart, error) {
	query := `
		SELECT ` + cartColumns + `
		FROM carts c
		WHERE c.id IN (SELECT ci.cart_id FROM cart_items ci WHERE ci.product_id = $1)
		ORDER BY c.id
		FOR UPDATE
	`
	return r.listCarts(ctx, tx, query, productID)
}

func (r *cartRepository) listCarts(ctx context.Context, q querier, query string, args ...any) ([]model.Cart, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query carts")
		return nil, fmt.Errorf("failed to query carts: %w", err)
	}

	carts := []model.Cart{}
	for rows.Next() {
		var c model.Cart
		if err := scanCart(rows, &c); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan cart: %w", err)
		}
		carts = append(carts, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating carts: %w", err)
	}

	if err := r.loadItems(ctx, q, carts); err != nil {
		return nil, err
	}
	return carts, nil
}

// loadItems attaches lines, with their products, to each cart in place.
func (r *cartRepository) loadItems(ctx context.Context, q querier, carts []model.Cart) error {
	if len(carts) == 0 {
		return nil
	}

	ids := make([]int64, len(carts))
	index := make(map[int64]int, len(carts))
	for i := range carts {
		ids[i] = carts[i].ID
		index[carts[i].ID] = i
		carts[i].Items = []model.CartItem{}
	}

	query := `
		SELECT ci.id, ci.cart_id, ci.quantity, ci.discount, ` + productColumns + `
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = ANY($1)
		ORDER BY ci.id
	`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("cart_count", len(ids)).Msg("failed to query cart items")
		return fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.CartItem
		p := &item.Product
		err := rows.Scan(
			&item.ID, &item.CartID, &item.Quantity, &item.Discount,
			&p.ID, &p.Name, &p.Description, &p.Image, &p.Price, &p.SpecialPrice,
			&p.SpecialPriceActive, &p.QuantityInStock, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart item row")
			return fmt.Errorf("failed to scan cart item: %w", err)
		}
		i := index[item.CartID]
		carts[i].Items = append(carts[i].Items, item)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating cart items: %w", err)
	}
	return nil
}

// SaveItem inserts the line or overwrites quantity and discount.
func (r *cartRepository) SaveItem(ctx context.Context, tx pgx.Tx, cartID int64, item *model.CartItem) error {
	query := `
		INSERT INTO cart_items (cart_id, product_id, quantity, discount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, discount = EXCLUDED.discount
		RETURNING id
	`

	err := tx.QueryRow(ctx, query, cartID, item.Product.ID, item.Quantity, item.Discount).Scan(&item.ID)
	if err != nil {
		r.logger.Error().Err(err).
			Int64("cart_id", cartID).
			Int64("product_id", item.Product.ID).
			Msg("failed to save cart item")
		return fmt.Errorf("failed to save cart item: %w", err)
	}
	item.CartID = cartID
	return nil
}

// DeleteItem removes a line. Returns false when it did not exist.
func (r *cartRepository) DeleteItem(ctx context.Context, tx pgx.Tx, cartID, productID int64) (bool, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		r.logger.Error().Err(err).
			Int64("cart_id", cartID).
			Int64("product_id", productID).
			Msg("failed to delete cart item")
		return false, fmt.Errorf("failed to delete cart item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteAllItems empties the cart.
func (r *cartRepository) DeleteAllItems(ctx context.Context, tx pgx.Tx, cartID int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		r.logger.Error().Err(err).Int64("cart_id", cartID).Msg("failed to clear cart items")
		return fmt.Errorf("failed to clear cart items: %w", err)
	}
	return nil
}

// UpdateTotal persists the derived cart total.
func (r *cartRepository) UpdateTotal(ctx context.Context, tx pgx.Tx, cartID int64, total decimal.Decimal) error {
	if _, err := tx.Exec(ctx, `UPDATE carts SET total_price = $2, updated_at = NOW() WHERE id = $1`, cartID, total); err != nil {
		r.logger.Error().Err(err).Int64("cart_id", cartID).Msg("failed to update cart total")
		return fmt.Errorf("failed to update cart total: %w", err)
	}
	return nil
}
