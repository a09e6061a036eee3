package service

import (
	"context"
	"fmt"
	"strings"

	"stockapi/internal/model"
	"stockapi/internal/repository"
	"stockapi/internal/validation"

	"github.com/rs/zerolog"
)

// categoryService implements CategoryService.
type categoryService struct {
	categoryRepo repository.CategoryRepository
	validator    *validation.Validator
	logger       zerolog.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(
	categoryRepo repository.CategoryRepository,
	validator *validation.Validator,
	logger zerolog.Logger,
) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		validator:    validator,
		logger:       logger.With().Str("service", "category").Logger(),
	}
}

// List retrieves every category with its products.
func (s *categoryService) List(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categoryRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list categories")
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	s.logger.Debug().Int("count", len(categories)).Msg("retrieved categories")

	return categories, nil
}

// GetByID retrieves a single category by ID.
func (s *categoryService) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	if id <= 0 {
		return nil, model.ErrCategoryNotFound
	}

	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("category_id", id).Msg("failed to get category")
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	if category == nil {
		return nil, model.ErrCategoryNotFound
	}

	return category, nil
}

// Create validates the request and creates a category.
func (s *categoryService) Create(ctx context.Context, req *model.CategoryRequest) (*model.Category, error) {
	req.Name = strings.TrimSpace(req.Name)

	if err := s.validator.Validate(ctx, req, s.uniqueName(req.Name, 0)); err != nil {
		return nil, err
	}

	category := &model.Category{
		Name:        req.Name,
		Description: req.Description,
		Products:    []model.ProductSummary{},
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if isDomainError(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("failed to create category")
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.logger.Info().Int64("category_id", category.ID).Str("name", category.Name).Msg("category created")

	return category, nil
}

// Update validates the request and overwrites an existing category. The
// uniqueness rule ignores the category itself.
func (s *categoryService) Update(ctx context.Context, id int64, req *model.CategoryRequest) (*model.Category, error) {
	category, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)

	if err := s.validator.Validate(ctx, req, s.uniqueName(req.Name, id)); err != nil {
		return nil, err
	}

	category.Name = req.Name
	category.Description = req.Description

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if isDomainError(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("category_id", id).Msg("failed to update category")
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.logger.Info().Int64("category_id", id).Msg("category updated")

	return category, nil
}

// Delete removes a category. Its products are kept.
func (s *categoryService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return model.ErrCategoryNotFound
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if isDomainError(err) {
			return err
		}
		s.logger.Error().Err(err).Int64("category_id", id).Msg("failed to delete category")
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.logger.Info().Int64("category_id", id).Msg("category deleted")

	return nil
}

func (s *categoryService) uniqueName(name string, exceptID int64) validation.Check {
	return validation.Unique("name", func(ctx context.Context) (bool, error) {
		if name == "" {
			return false, nil
		}
		return s.categoryRepo.NameTaken(ctx, name, exceptID)
	})
}
