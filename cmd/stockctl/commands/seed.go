package commands

import (
	"context"
	"fmt"
	"math/rand/v2"

	"stockapi/internal/model"
	"stockapi/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	seedProducts    int
	seedPerCategory int
	seedRandom      uint64
)

// sampleCategories are created once; reruns reuse the existing rows.
var sampleCategories = []struct {
	name        string
	description string
}{
	{"Electronics", "Phones, laptops and accessories"},
	{"Books", "Printed and digital books"},
	{"Home", "Furniture and kitchen"},
	{"Garden", "Tools and plants"},
}

var sampleProductNames = []string{
	"Wireless Mouse", "Mechanical Keyboard", "Desk Lamp", "Coffee Grinder",
	"Garden Hose", "Paperback Novel", "USB-C Cable", "Plant Pot",
	"Bookshelf", "Headphones", "Pruning Shears", "Notebook",
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert sample categories and products",
	Long: `Seed creates the sample categories (skipping those that already exist),
inserts --products random products and attaches --per-category randomly chosen
products to every sample category.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedProducts < 0 || seedPerCategory < 0 {
			return fmt.Errorf("--products and --per-category must not be negative")
		}

		ctx := cmd.Context()

		pool, logger, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		rng := rand.New(rand.NewPCG(seedRandom, seedRandom^0x9e3779b97f4a7c15))
		if seedRandom == 0 {
			rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}

		summary, err := seed(ctx, pool, rng, logger)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d categories (%d new) and %d products\n",
			summary.categories, summary.newCategories, summary.products)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().IntVar(&seedProducts, "products", 6, "Number of products to create")
	seedCmd.Flags().IntVar(&seedPerCategory, "per-category", 3, "Products attached to each category")
	seedCmd.Flags().Uint64Var(&seedRandom, "random-seed", 0, "Seed for reproducible data (0 picks one)")
}

type seedSummary struct {
	categories    int
	newCategories int
	products      int
}

func seed(ctx context.Context, pool *pgxpool.Pool, rng *rand.Rand, logger zerolog.Logger) (*seedSummary, error) {
	categoryRepo := repository.NewCategoryRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)

	summary := &seedSummary{}

	existing, err := categoryRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]int64, len(existing))
	for _, c := range existing {
		byName[c.Name] = c.ID
	}

	categoryIDs := make([]int64, 0, len(sampleCategories))
	for _, sc := range sampleCategories {
		if id, ok := byName[sc.name]; ok {
			categoryIDs = append(categoryIDs, id)
			continue
		}
		desc := sc.description
		c := &model.Category{Name: sc.name, Description: &desc}
		if err := categoryRepo.Create(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to create category %q: %w", sc.name, err)
		}
		categoryIDs = append(categoryIDs, c.ID)
		summary.newCategories++
	}
	summary.categories = len(categoryIDs)

	products := make([]int64, 0, seedProducts)
	for i := 0; i < seedProducts; i++ {
		p := &model.Product{
			Name:  sampleProductNames[rng.IntN(len(sampleProductNames))],
			Price: decimal.New(int64(rng.IntN(100000)), -2),
			Stock: rng.IntN(100),
		}
		if err := insertProduct(ctx, productRepo, p); err != nil {
			return nil, err
		}
		products = append(products, p.ID)
	}
	summary.products = len(products)

	// Each category picks its own random subset; invert that into one
	// category list per product.
	assigned := make(map[int64][]int64)
	for _, categoryID := range categoryIDs {
		for _, i := range rng.Perm(len(products))[:min(seedPerCategory, len(products))] {
			assigned[products[i]] = append(assigned[products[i]], categoryID)
		}
	}

	for productID, ids := range assigned {
		if err := attachCategories(ctx, productRepo, productID, ids); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Int("categories", summary.categories).
		Int("products", summary.products).
		Msg("sample data seeded")

	return summary, nil
}

func insertProduct(ctx context.Context, repo repository.ProductRepository, p *model.Product) (err error) {
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = repo.Create(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func attachCategories(ctx context.Context, repo repository.ProductRepository, productID int64, ids []int64) (err error) {
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = repo.ReplaceCategories(ctx, tx, productID, ids); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
