// Package app wires repositories, services and handlers into the HTTP API.
package app

import (
	"fmt"
	"net/http"

	"stockapi/internal/auth"
	"stockapi/internal/config"
	"stockapi/internal/handler"
	"stockapi/internal/repository"
	"stockapi/internal/router"
	"stockapi/internal/service"
	"stockapi/internal/storage"
	"stockapi/internal/validation"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// NewHandler builds the complete HTTP handler on top of pool and images.
func NewHandler(pool *pgxpool.Pool, images storage.ImageStore, cfg *config.Config, logger zerolog.Logger) (http.Handler, error) {
	// Initialize repositories
	userRepo := repository.NewUserRepository(pool, logger)
	categoryRepo := repository.NewCategoryRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	tokenRepo := repository.NewTokenRepository(pool, logger)

	// Credentials and tokens
	hasher, err := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize password hasher: %w", err)
	}
	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	validator := validation.New()

	// Initialize services
	authService := auth.NewService(userRepo, tokenRepo, validator, hasher, issuer, logger)
	userService := service.NewUserService(userRepo, validator, hasher, logger)
	categoryService := service.NewCategoryService(categoryRepo, validator, logger)
	productService := service.NewProductService(productRepo, categoryRepo, images, validator, cfg.Storage.MaxUploadBytes, logger)

	return router.New(router.Handlers{
		Auth:     handler.NewAuthHandler(authService, logger),
		User:     handler.NewUserHandler(userService, logger),
		Product:  handler.NewProductHandler(productService, cfg.Storage.MaxUploadBytes, logger),
		Category: handler.NewCategoryHandler(categoryService, logger),
	}, authService, logger), nil
}
