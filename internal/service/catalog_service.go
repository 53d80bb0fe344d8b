package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"digicommerce/internal/model"
	"digicommerce/internal/repository"
	"digicommerce/internal/storage"

	"github.com/rs/zerolog"
)

type productEvent struct {
	ProductID  int64  `json:"productId"`
	Name       string `json:"productName,omitempty"`
	Price      string `json:"price,omitempty"`
	Quantity   int    `json:"quantity"`
	CategoryID int64  `json:"categoryId,omitempty"`
}

func newProductEvent(p *model.Product) productEvent {
	return productEvent{
		ProductID:  p.ID,
		Name:       p.Name,
		Price:      p.Price.String(),
		Quantity:   p.QuantityInStock,
		CategoryID: p.CategoryID,
	}
}

// catalogService implements CatalogService.
type catalogService struct {
	txm          repository.TxManager
	categories   repository.CategoryRepository
	products     repository.ProductRepository
	outbox       repository.OutboxRepository
	carts        CartMaintenance
	files        storage.FileStore
	imageBaseURL string
	logger       zerolog.Logger
}

// NewCatalogService creates a new catalogue service.
func NewCatalogService(
	txm repository.TxManager,
	categories repository.CategoryRepository,
	products repository.ProductRepository,
	outbox repository.OutboxRepository,
	carts CartMaintenance,
	files storage.FileStore,
	imageBaseURL string,
	logger zerolog.Logger,
) CatalogService {
	return &catalogService{
		txm:          txm,
		categories:   categories,
		products:     products,
		outbox:       outbox,
		carts:        carts,
		files:        files,
		imageBaseURL: imageBaseURL,
		logger:       logger.With().Str("service", "catalog").Logger(),
	}
}

func (s *catalogService) ListCategories(ctx context.Context, page model.PageRequest) (*model.CategoryPage, error) {
	page = page.Normalize(model.CategorySortFields...)

	categories, total, err := s.categories.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if total == 0 {
		return nil, model.NewDomainError(model.ErrCodeResourceNotFound, "no categories found")
	}

	return &model.CategoryPage{
		Content:       categories,
		PageNumber:    page.PageNumber,
		PageSize:      page.PageSize,
		TotalElements: total,
		TotalPages:    page.TotalPages(total),
		LastPage:      page.IsLast(total),
	}, nil
}

func (s *catalogService) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return nil, model.NotFound(model.ErrCodeCategoryNotFound, "Category", "categoryId", id)
	}
	return category, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, req *model.CategoryRequest) (*model.Category, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	existing, err := s.categories.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check category name: %w", err)
	}
	if existing != nil {
		return nil, model.NewDomainError(model.ErrCodeCategoryExists,
			fmt.Sprintf("Category with the name %s already exists", name))
	}

	category := &model.Category{Name: name}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("category_id", category.ID).Str("name", name).Msg("category created")
	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id int64, req *model.CategoryRequest) (*model.Category, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	category.Name = strings.TrimSpace(req.Name)
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id int64) (*model.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.categories.Delete(ctx, id); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("category_id", id).Msg("category deleted")
	return category, nil
}

func (s *catalogService) ListProducts(ctx context.Context, page model.PageRequest) (*model.ProductPage, error) {
	page = page.Normalize(model.ProductSortFields...)

	products, total, err := s.products.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return s.productPage(products, total, page), nil
}

func (s *catalogService) ListProductsByCategory(ctx context.Context, categoryID int64, page model.PageRequest) (*model.ProductPage, error) {
	category, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	page = page.Normalize(model.ProductSortFields...)
	products, total, err := s.products.ListByCategory(ctx, categoryID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if total == 0 {
		return nil, model.NewDomainError(model.ErrCodeResourceNotFound,
			fmt.Sprintf("%s category has no products", category.Name))
	}
	return s.productPage(products, total, page), nil
}

func (s *catalogService) SearchProducts(ctx context.Context, keyword string, page model.PageRequest) (*model.ProductPage, error) {
	keyword = strings.TrimSpace(keyword)
	page = page.Normalize(model.ProductSortFields...)

	products, total, err := s.products.Search(ctx, keyword, page)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	if total == 0 {
		return nil, model.NewDomainError(model.ErrCodeResourceNotFound,
			fmt.Sprintf("Products not found with keyword: %s", keyword))
	}
	return s.productPage(products, total, page), nil
}

func (s *catalogService) productPage(products []model.Product, total int64, page model.PageRequest) *model.ProductPage {
	for i := range products {
		s.withImageURL(&products[i])
	}
	if products == nil {
		products = []model.Product{}
	}
	return &model.ProductPage{
		Content:       products,
		PageNumber:    page.PageNumber,
		PageSize:      page.PageSize,
		TotalElements: total,
		TotalPages:    page.TotalPages(total),
		LastPage:      page.IsLast(total),
	}
}

func (s *catalogService) withImageURL(p *model.Product) *model.Product {
	p.Image = storage.ImageURL(s.imageBaseURL, p.Image)
	return p
}

func (s *catalogService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.NotFound(model.ErrCodeProductNotFound, "Product", "productId", id)
	}
	return s.withImageURL(product), nil
}

func (s *catalogService) CreateProduct(ctx context.Context, categoryID int64, req *model.ProductRequest) (_ *model.Product, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.SpecialPrice != nil && req.SpecialPrice.GreaterThanOrEqual(req.Price) {
		return nil, model.ErrInvalidSpecialPrice
	}
	if _, err := s.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:               strings.TrimSpace(req.Name),
		Description:        strings.TrimSpace(req.Description),
		Price:              req.Price,
		SpecialPriceActive: req.SpecialPriceActive && req.SpecialPrice != nil,
		QuantityInStock:    req.QuantityInStock,
		CategoryID:         categoryID,
	}
	if req.SpecialPrice != nil {
		product.SpecialPrice.Decimal = *req.SpecialPrice
		product.SpecialPrice.Valid = true
	}

	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback(ctx, tx, &err, s.logger)

	if err = s.products.Create(ctx, tx, product); err != nil {
		return nil, err
	}
	if err = appendEvent(ctx, s.outbox, tx, model.AggregateProduct, strconv.FormatInt(product.ID, 10),
		model.EventProductCreated, newProductEvent(product)); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to commit product creation")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().Int64("product_id", product.ID).Int64("category_id", categoryID).Msg("product created")
	return s.withImageURL(product), nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id int64, req *model.ProductUpdateRequest) (*model.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.CategoryID != nil {
		if _, err := s.GetCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	return s.mutateProduct(ctx, id, func(p *model.Product) {
		req.Apply(p)
		if p.ClearInvalidSpecialPrice() {
			s.logger.Warn().
				Int64("product_id", id).
				Str("price", p.Price.String()).
				Msg("special price not below price, cleared")
		}
	})
}

func (s *catalogService) UpdateProductImage(ctx context.Context, id int64, filename string, content io.Reader) (*model.Product, error) {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return nil, err
	}

	name, err := s.files.Store(ctx, filename, content)
	if err != nil {
		return nil, err
	}

	return s.mutateProduct(ctx, id, func(p *model.Product) {
		p.Image = name
	})
}

// mutateProduct locks the product, applies change, persists it with an
// outbox event and then reprices the carts holding it.
func (s *catalogService) mutateProduct(ctx context.Context, id int64, change func(*model.Product)) (_ *model.Product, err error) {
	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback(ctx, tx, &err, s.logger)

	product, err := s.products.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, model.NotFound(model.ErrCodeProductNotFound, "Product", "productId", id)
	}

	change(product)

	if err = s.products.Update(ctx, tx, product); err != nil {
		return nil, err
	}
	if err = appendEvent(ctx, s.outbox, tx, model.AggregateProduct, strconv.FormatInt(id, 10),
		model.EventProductUpdated, newProductEvent(product)); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to commit product update")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if cartErr := s.carts.ProductUpdated(ctx, id); cartErr != nil {
		s.logger.Error().Err(cartErr).Int64("product_id", id).Msg("failed to reprice carts after product update")
	}

	s.logger.Info().Int64("product_id", id).Msg("product updated")
	return s.withImageURL(product), nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id int64) (_ *model.Product, err error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if cartErr := s.carts.ProductDeleted(ctx, id); cartErr != nil {
		s.logger.Error().Err(cartErr).Int64("product_id", id).Msg("failed to remove product from carts")
	}

	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback(ctx, tx, &err, s.logger)

	deleted, err := s.products.Delete(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !deleted {
		err = model.NotFound(model.ErrCodeProductNotFound, "Product", "productId", id)
		return nil, err
	}
	if err = appendEvent(ctx, s.outbox, tx, model.AggregateProduct, strconv.FormatInt(id, 10),
		model.EventProductDeleted, productEvent{ProductID: id}); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to commit product deletion")
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info().Int64("product_id", id).Msg("product deleted")
	return product, nil
}
