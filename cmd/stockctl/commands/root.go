package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"stockapi/internal/config"
	"stockapi/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	dbURL   string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "stockctl",
	Short: "Operator tool for the stock management API",
	Long: `stockctl talks directly to the stock API database.

Database settings come from the same DB_* environment variables (and .env
file) the API server reads. --db overrides them with a full connection URL.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection URL (overrides DB_* variables)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

// connect opens a pool using --db or the DB_* environment.
func connect(ctx context.Context) (*pgxpool.Pool, zerolog.Logger, error) {
	dbCfg, logCfg, err := config.LoadDatabase()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}

	if verbose {
		logCfg.Level = "debug"
	}
	logger := config.NewLogger(logCfg)

	connString := dbCfg.ConnectionString()
	if dbURL != "" {
		connString = dbURL
	}

	pool, err := database.NewPoolFromURL(ctx, connString, dbCfg, logger)
	if err != nil {
		return nil, logger, err
	}

	return pool, logger, nil
}
