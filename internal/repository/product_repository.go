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

const productColumns = `p.id, p.name, p.description, p.image, p.price, p.special_price,
	p.special_price_active, p.quantity_in_stock, p.category_id, p.created_at, p.updated_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Image,
		&p.Price,
		&p.SpecialPrice,
		&p.SpecialPriceActive,
		&p.QuantityInStock,
		&p.CategoryID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

// sortClause builds an ORDER BY from a whitelisted column set.
func sortClause(page model.PageRequest, allowed []string, alias string) string {
	page = page.Normalize(allowed...)
	return fmt.Sprintf("ORDER BY %s.%s %s", alias, page.SortBy, page.SortOrder)
}

// List retrieves a page of products and the total count.
func (r *productRepository) List(ctx context.Context, page model.PageRequest) ([]model.Product, int64, error) {
	return r.listWhere(ctx, page, "TRUE")
}

// ListByCategory retrieves a page of products in a category.
func (r *productRepository) ListByCategory(ctx context.Context, categoryID int64, page model.PageRequest) ([]model.Product, int64, error) {
	return r.listWhere(ctx, page, "p.category_id = $1", categoryID)
}

// Search retrieves products whose name contains keyword, ignoring case.
func (r *productRepository) Search(ctx context.Context, keyword string, page model.PageRequest) ([]model.Product, int64, error) {
	return r.listWhere(ctx, page, "p.name ILIKE '%' || $1 || '%'", keyword)
}

func (r *productRepository) listWhere(ctx context.Context, page model.PageRequest, where string, args ...any) ([]model.Product, int64, error) {
	page = page.Normalize(model.ProductSortFields...)

	var total int64
	countQuery := `SELECT COUNT(*) FROM products p WHERE ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		WHERE %s
		%s
		LIMIT $%d OFFSET $%d
	`, productColumns, where, sortClause(page, model.ProductSortFields, "p"), n+1, n+2)

	rows, err := r.pool.Query(ctx, query, append(args, page.PageSize, page.Offset())...)
	if err != nil {
		r.logger.Error().Err(err).
			Int("page_number", page.PageNumber).
			Int("page_size", page.PageSize).
			Msg("failed to query products")
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	return r.getByID(ctx, r.pool, id, "")
}

// GetByIDForUpdate retrieves and row-locks a product inside tx.
func (r *productRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*model.Product, error) {
	return r.getByID(ctx, tx, id, "FOR UPDATE")
}

func (r *productRepository) getByID(ctx context.Context, q querier, id int64, lock string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1 ` + lock

	var p model.Product
	if err := scanProduct(q.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// Create inserts a product, filling ID and timestamps.
func (r *productRepository) Create(ctx context.Context, tx pgx.Tx, p *model.Product) error {
	query := `
		INSERT INTO products (name, description, image, price, special_price, special_price_active,
			quantity_in_stock, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		p.Name, p.Description, p.Image, p.Price, p.SpecialPrice, p.SpecialPriceActive,
		p.QuantityInStock, p.CategoryID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("name", p.Name).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.Debug().Int64("product_id", p.ID).Msg("product created successfully")
	return nil
}

// Update persists every mutable column of product.
func (r *productRepository) Update(ctx context.Context, tx pgx.Tx, p *model.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, image = $4, price = $5, special_price = $6,
			special_price_active = $7, quantity_in_stock = $8, category_id = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := tx.QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.Image, p.Price, p.SpecialPrice,
		p.SpecialPriceActive, p.QuantityInStock, p.CategoryID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NotFound(model.ErrCodeProductNotFound, "Product", "productId", p.ID)
		}
		r.logger.Error().Err(err).Int64("product_id", p.ID).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes a product. Returns false when nothing was deleted.
func (r *productRepository) Delete(ctx context.Context, tx pgx.Tx, id int64) (bool, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to delete product")
		return false, fmt.Errorf("failed to delete product: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DecrementStock subtracts qty when enough stock remains.
func (r *productRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id int64, qty int) (bool, error) {
	query := `
		UPDATE products
		SET quantity_in_stock = quantity_in_stock - $2, updated_at = NOW()
		WHERE id = $1 AND quantity_in_stock >= $2
	`

	tag, err := tx.Exec(ctx, query, id, qty)
	if err != nil {
		r.logger.Error().Err(err).
			Int64("product_id", id).
			Int("quantity", qty).
			Msg("failed to decrement stock")
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
