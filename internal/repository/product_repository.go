package repository

import (
	"context"
	"fmt"

	"stockapi/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

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

const productColumns = `id, name, description, price, stock, image, created_at, updated_at`

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Image, &p.CreatedAt, &p.UpdatedAt)
}

// BeginTx starts a new database transaction.
func (r *productRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := beginTx(ctx, r.pool)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, err
	}
	return tx, nil
}

// GetAll retrieves every product with its categories attached.
func (r *productRepository) GetAll(ctx context.Context) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	if err := r.attachCategories(ctx, products); err != nil {
		return nil, err
	}

	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p model.Product
	if err := scanProduct(r.pool.QueryRow(ctx, query, id), &p); err != nil {
		if isNoRows(err) {
			r.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	products := []model.Product{p}
	if err := r.attachCategories(ctx, products); err != nil {
		return nil, err
	}

	return &products[0], nil
}

// attachCategories loads the categories of every product with a single query.
func (r *productRepository) attachCategories(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, len(products))
	index := make(map[int64]int, len(products))
	for i := range products {
		products[i].Categories = []model.CategorySummary{}
		ids[i] = products[i].ID
		index[products[i].ID] = i
	}

	query := `
		SELECT cp.product_id, c.id, c.name, c.description
		FROM category_product cp
		JOIN categories c ON c.id = cp.category_id
		WHERE cp.product_id = ANY($1)
		ORDER BY c.id
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query product categories")
		return fmt.Errorf("failed to query product categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID int64
		var c model.CategorySummary
		if err := rows.Scan(&productID, &c.ID, &c.Name, &c.Description); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product category row")
			return fmt.Errorf("failed to scan product category: %w", err)
		}
		i := index[productID]
		products[i].Categories = append(products[i].Categories, c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product category rows")
		return fmt.Errorf("error iterating product categories: %w", err)
	}

	return nil
}

// Create inserts a new product within the provided transaction.
func (r *productRepository) Create(ctx context.Context, tx pgx.Tx, product *model.Product) error {
	query := `
		INSERT INTO products (name, description, price, stock, image)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query, product.Name, product.Description, product.Price, product.Stock, product.Image).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("name", product.Name).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.Debug().Int64("product_id", product.ID).Msg("product created successfully")

	return nil
}

// Update overwrites the scalar fields of an existing product within the
// provided transaction.
func (r *productRepository) Update(ctx context.Context, tx pgx.Tx, product *model.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, stock = $5, image = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query, product.ID, product.Name, product.Description, product.Price, product.Stock, product.Image).
		Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return model.ErrProductNotFound
		}
		r.logger.Error().Err(err).Int64("product_id", product.ID).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// ReplaceCategories swaps the product's association set for categoryIDs.
// Duplicate ids collapse into a single association.
func (r *productRepository) ReplaceCategories(ctx context.Context, tx pgx.Tx, productID int64, categoryIDs []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM category_product WHERE product_id = $1`, productID); err != nil {
		r.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to detach categories")
		return fmt.Errorf("failed to detach categories: %w", err)
	}

	if len(categoryIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO category_product (category_id, product_id)
		SELECT DISTINCT category_id, $2::bigint
		FROM unnest($1::bigint[]) AS ids(category_id)
		ON CONFLICT (category_id, product_id) DO NOTHING
	`

	if _, err := tx.Exec(ctx, query, categoryIDs, productID); err != nil {
		if conflict, ok := translateError(err); ok {
			r.logger.Debug().Err(err).Int64("product_id", productID).Msg("category attach rejected by constraint")
			return conflict
		}
		r.logger.Error().
			Err(err).
			Int64("product_id", productID).
			Int("count", len(categoryIDs)).
			Msg("failed to attach categories")
		return fmt.Errorf("failed to attach categories: %w", err)
	}

	r.logger.Debug().
		Int64("product_id", productID).
		Int("count", len(categoryIDs)).
		Msg("categories attached")

	return nil
}

// Delete removes the product and its category associations within the
// provided transaction.
func (r *productRepository) Delete(ctx context.Context, tx pgx.Tx, id int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM category_product WHERE product_id = $1`, id); err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to detach categories")
		return fmt.Errorf("failed to detach categories: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}
