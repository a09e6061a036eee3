package router

import (
	"net/http"

	"stockapi/internal/handler"
	"stockapi/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Product  *handler.ProductHandler
	Category *handler.CategoryHandler
}

// publicPaths are reachable without a bearer token.
var publicPaths = []string{
	"/health",
	"/v1/welcome",
	"/v1/register",
	"/v1/login",
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, authn middleware.Authenticator, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Public routes
	mux.HandleFunc("GET /v1/welcome", h.Auth.Welcome)
	mux.HandleFunc("POST /v1/register", h.Auth.Register)
	mux.HandleFunc("POST /v1/login", h.Auth.Login)

	// Session routes
	mux.HandleFunc("POST /v1/logout", h.Auth.Logout)
	mux.HandleFunc("GET /v1/user", h.Auth.Me)

	// User routes
	mux.HandleFunc("GET /v1/users", h.User.List)
	mux.HandleFunc("POST /v1/users", h.User.Create)
	mux.HandleFunc("GET /v1/users/{id}", h.User.GetByID)
	mux.HandleFunc("PUT /v1/users/{id}", h.User.Update)
	mux.HandleFunc("DELETE /v1/users/{id}", h.User.Delete)

	// Product routes
	mux.HandleFunc("GET /v1/products", h.Product.List)
	mux.HandleFunc("POST /v1/products", h.Product.Create)
	mux.HandleFunc("GET /v1/products/{id}", h.Product.GetByID)
	mux.HandleFunc("PUT /v1/products/{id}", h.Product.Update)
	mux.HandleFunc("DELETE /v1/products/{id}", h.Product.Delete)

	// Category routes
	mux.HandleFunc("GET /v1/categories", h.Category.List)
	mux.HandleFunc("POST /v1/categories", h.Category.Create)
	mux.HandleFunc("GET /v1/categories/{id}", h.Category.GetByID)
	mux.HandleFunc("PUT /v1/categories/{id}", h.Category.Update)
	mux.HandleFunc("DELETE /v1/categories/{id}", h.Category.Delete)

	// Apply middleware in order: Recovery -> Logging -> CORS -> BearerAuth
	var handler http.Handler = mux
	handler = middleware.BearerAuth(authn, logger, publicPaths...)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
