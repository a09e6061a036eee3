package service

import (
	"context"
	"fmt"
	"strings"

	"stockapi/internal/model"
	"stockapi/internal/repository"
	"stockapi/internal/storage"
	"stockapi/internal/validation"

	"github.com/rs/zerolog"
)

// priceScale is the number of fractional digits a stored price keeps.
const priceScale = 2

// productService implements ProductService.
type productService struct {
	productRepo    repository.ProductRepository
	categoryRepo   repository.CategoryRepository
	images         storage.ImageStore
	validator      *validation.Validator
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	images storage.ImageStore,
	validator *validation.Validator,
	maxUploadBytes int64,
	logger zerolog.Logger,
) ProductService {
	return &productService{
		productRepo:    productRepo,
		categoryRepo:   categoryRepo,
		images:         images,
		validator:      validator,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With().Str("service", "product").Logger(),
	}
}

// List retrieves every product with its categories.
func (s *productService) List(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	s.logger.Debug().Int("count", len(products)).Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	if id <= 0 {
		s.logger.Debug().Int64("product_id", id).Msg("invalid product ID")
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Int64("product_id", id).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// Create validates the request, stores the image and inserts the product with
// its categories in one transaction. A stored image is removed again when the
// transaction fails.
func (s *productService) Create(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error) {
	req.Name = strings.TrimSpace(req.Name)

	var img *storage.Image
	err := s.validator.Validate(ctx, req,
		validation.Decimals("price", req.Price, priceScale),
		s.categoriesExist(req.Categories),
		func(ctx context.Context) ([]validation.Violation, error) {
			prepared, err := storage.Prepare(req.Image, s.maxUploadBytes)
			if err != nil {
				return violationsOf(err)
			}
			img = prepared
			return nil, nil
		},
	)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Stock:       *req.Stock,
	}

	if img != nil {
		ref, err := s.images.Put(ctx, img)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to store product image")
			return nil, fmt.Errorf("failed to store product image: %w", err)
		}
		product.Image = &ref
	}

	if err := s.insert(ctx, product, req.Categories); err != nil {
		if product.Image != nil {
			s.discardImage(ctx, *product.Image)
		}
		return nil, err
	}

	s.logger.Info().
		Int64("product_id", product.ID).
		Int("category_count", len(req.Categories)).
		Bool("has_image", product.Image != nil).
		Msg("product created successfully")

	return s.reload(ctx, product.ID)
}

// insert writes the product and its associations within one transaction.
func (s *productService) insert(ctx context.Context, product *model.Product, categoryIDs []int64) (err error) {
	tx, err := s.productRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to create product: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.productRepo.Create(ctx, tx, product); err != nil {
		return s.wrap(err, "failed to create product")
	}

	if len(categoryIDs) > 0 {
		if err = s.productRepo.ReplaceCategories(ctx, tx, product.ID, categoryIDs); err != nil {
			return s.wrap(err, "failed to attach categories")
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("product_id", product.ID).Msg("failed to commit transaction")
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update applies the non-nil fields of req to the product. A non-nil
// category list replaces the associations in the same transaction.
func (s *productService) Update(ctx context.Context, id int64, req *model.UpdateProductRequest) (*model.Product, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}

	var categoryIDs []int64
	if req.Categories != nil {
		categoryIDs = *req.Categories
	}

	if err := s.validator.Validate(ctx, req,
		validation.Decimals("price", req.Price, priceScale),
		s.categoriesExist(categoryIDs),
	); err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description.Set {
		product.Description = req.Description.Value
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}

	if err := s.update(ctx, product, req.Categories); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("product_id", id).
		Bool("categories_replaced", req.Categories != nil).
		Msg("product updated successfully")

	return s.reload(ctx, id)
}

func (s *productService) update(ctx context.Context, product *model.Product, categoryIDs *[]int64) (err error) {
	tx, err := s.productRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to update product: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.productRepo.Update(ctx, tx, product); err != nil {
		return s.wrap(err, "failed to update product")
	}

	if categoryIDs != nil {
		if err = s.productRepo.ReplaceCategories(ctx, tx, product.ID, *categoryIDs); err != nil {
			return s.wrap(err, "failed to replace categories")
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("product_id", product.ID).Msg("failed to commit transaction")
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes the product and its associations, then its stored image.
// Failing to remove the image is logged and not reported.
func (s *productService) Delete(ctx context.Context, id int64) (err error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.productRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to delete product: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.productRepo.Delete(ctx, tx, id); err != nil {
		return s.wrap(err, "failed to delete product")
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to commit transaction")
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if product.Image != nil {
		s.discardImage(ctx, *product.Image)
	}

	s.logger.Info().Int64("product_id", id).Msg("product deleted successfully")

	return nil
}

func (s *productService) reload(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload product: %w", err)
	}
	return product, nil
}

// discardImage deletes a stored image on a context detached from the
// request, which may already be cancelled.
func (s *productService) discardImage(ctx context.Context, ref string) {
	if err := s.images.Delete(context.WithoutCancel(ctx), ref); err != nil {
		s.logger.Warn().Err(err).Str("image", ref).Msg("failed to delete product image")
	}
}

func (s *productService) categoriesExist(ids []int64) validation.Check {
	return validation.Exists("categories", ids, s.categoryRepo.MissingIDs)
}

func (s *productService) wrap(err error, msg string) error {
	if isDomainError(err) {
		return err
	}
	s.logger.Error().Err(err).Msg(msg)
	return fmt.Errorf("%s: %w", msg, err)
}

// violationsOf turns a validation error into check violations so it is
// reported together with the other rules.
func violationsOf(err error) ([]validation.Violation, error) {
	de, ok := model.AsError(err)
	if !ok {
		return nil, err
	}

	var violations []validation.Violation
	for _, field := range de.FieldNames() {
		for _, msg := range de.Fields[field] {
			violations = append(violations, validation.Violation{Field: field, Message: msg})
		}
	}
	return violations, nil
}
