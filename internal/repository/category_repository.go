package repository

import (
	"context"
	"fmt"

	"stockapi/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// categoryRepository implements the CategoryRepository interface using PostgreSQL.
type categoryRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(pool *pgxpool.Pool, logger zerolog.Logger) CategoryRepository {
	return &categoryRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "category").Logger(),
	}
}

// GetAll retrieves every category with its products attached.
func (r *categoryRepository) GetAll(ctx context.Context) ([]model.Category, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM categories
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query categories")
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan category row")
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating category rows")
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	if err := r.attachProducts(ctx, categories); err != nil {
		return nil, err
	}

	return categories, nil
}

// GetByID retrieves a single category by its ID.
func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM categories
		WHERE id = $1
	`

	var c model.Category
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Int64("category_id", id).Msg("category not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("category_id", id).Msg("failed to query category")
		return nil, fmt.Errorf("failed to query category: %w", err)
	}

	categories := []model.Category{c}
	if err := r.attachProducts(ctx, categories); err != nil {
		return nil, err
	}

	return &categories[0], nil
}

// attachProducts loads the products of every category with a single query.
func (r *categoryRepository) attachProducts(ctx context.Context, categories []model.Category) error {
	if len(categories) == 0 {
		return nil
	}

	ids := make([]int64, len(categories))
	index := make(map[int64]int, len(categories))
	for i := range categories {
		categories[i].Products = []model.ProductSummary{}
		ids[i] = categories[i].ID
		index[categories[i].ID] = i
	}

	query := `
		SELECT cp.category_id, p.id, p.name, p.description, p.price, p.stock, p.image
		FROM category_product cp
		JOIN products p ON p.id = cp.product_id
		WHERE cp.category_id = ANY($1)
		ORDER BY p.id
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query category products")
		return fmt.Errorf("failed to query category products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var categoryID int64
		var p model.ProductSummary
		if err := rows.Scan(&categoryID, &p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Image); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan category product row")
			return fmt.Errorf("failed to scan category product: %w", err)
		}
		i := index[categoryID]
		categories[i].Products = append(categories[i].Products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating category product rows")
		return fmt.Errorf("error iterating category products: %w", err)
	}

	return nil
}

// NameTaken reports whether another category already uses name.
func (r *categoryRepository) NameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM categories WHERE name = $1 AND id <> $2)`

	var taken bool
	if err := r.pool.QueryRow(ctx, query, name, exceptID).Scan(&taken); err != nil {
		r.logger.Error().Err(err).Str("name", name).Msg("failed to check category name uniqueness")
		return false, fmt.Errorf("failed to check category name uniqueness: %w", err)
	}

	return taken, nil
}

// MissingIDs returns the ids that do not reference an existing category.
func (r *categoryRepository) MissingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT DISTINCT wanted.id
		FROM unnest($1::bigint[]) AS wanted(id)
		LEFT JOIN categories c ON c.id = wanted.id
		WHERE c.id IS NULL
		ORDER BY wanted.id
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to validate categories exist")
		return nil, fmt.Errorf("failed to validate categories exist: %w", err)
	}
	defer rows.Close()

	var missing []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan category id: %w", err)
		}
		missing = append(missing, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category ids: %w", err)
	}

	if len(missing) > 0 {
		r.logger.Warn().
			Int("expected", len(ids)).
			Int("missing", len(missing)).
			Msg("not all category IDs exist")
	}

	return missing, nil
}

// Create inserts a new category.
func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	query := `
		INSERT INTO categories (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query, category.Name, category.Description).
		Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		if conflict, ok := translateError(err); ok {
			r.logger.Debug().Err(err).Str("name", category.Name).Msg("category insert rejected by constraint")
			return conflict
		}
		r.logger.Error().Err(err).Str("name", category.Name).Msg("failed to create category")
		return fmt.Errorf("failed to create category: %w", err)
	}

	r.logger.Debug().Int64("category_id", category.ID).Msg("category created successfully")

	return nil
}

// Update overwrites name and description of an existing category.
func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	query := `
		UPDATE categories
		SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query, category.ID, category.Name, category.Description).
		Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return model.ErrCategoryNotFound
		}
		if conflict, ok := translateError(err); ok {
			r.logger.Debug().Err(err).Int64("category_id", category.ID).Msg("category update rejected by constraint")
			return conflict
		}
		r.logger.Error().Err(err).Int64("category_id", category.ID).Msg("failed to update category")
		return fmt.Errorf("failed to update category: %w", err)
	}

	return nil
}

// Delete removes a category. Join rows cascade; products are untouched.
func (r *categoryRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("category_id", id).Msg("failed to delete category")
		return fmt.Errorf("failed to delete category: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrCategoryNotFound
	}

	r.logger.Debug().Int64("category_id", id).Msg("category deleted")

	return nil
}
