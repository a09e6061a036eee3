package service

import (
	"context"

	"stockapi/internal/model"
)

// UserService defines operations for user management.
type UserService interface {
	// List retrieves every user.
	List(ctx context.Context) ([]model.User, error)

	// GetByID retrieves a single user by ID.
	GetByID(ctx context.Context, id int64) (*model.User, error)

	// Create validates the request and creates a user with a hashed password.
	Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)

	// Update overwrites name, email and password of an existing user.
	Update(ctx context.Context, id int64, req *model.UpdateUserRequest) (*model.User, error)

	// Delete removes a user.
	Delete(ctx context.Context, id int64) error
}

// CategoryService defines operations for category management.
type CategoryService interface {
	// List retrieves every category with its products.
	List(ctx context.Context) ([]model.Category, error)

	// GetByID retrieves a single category with its products.
	GetByID(ctx context.Context, id int64) (*model.Category, error)

	// Create validates the request and creates a category.
	Create(ctx context.Context, req *model.CategoryRequest) (*model.Category, error)

	// Update validates the request and overwrites an existing category.
	Update(ctx context.Context, id int64, req *model.CategoryRequest) (*model.Category, error)

	// Delete removes a category and detaches it from its products.
	Delete(ctx context.Context, id int64) error
}

// ProductService defines operations for product management.
type ProductService interface {
	// List retrieves every product with its categories.
	List(ctx context.Context) ([]model.Product, error)

	// GetByID retrieves a single product with its categories.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// Create validates the request, stores the optional image and creates the
	// product together with its category associations.
	Create(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error)

	// Update applies a partial update. A non-nil category list replaces the
	// associations.
	Update(ctx context.Context, id int64, req *model.UpdateProductRequest) (*model.Product, error)

	// Delete removes a product, its associations and its stored image.
	Delete(ctx context.Context, id int64) error
}

// isDomainError reports whether err should reach the caller unwrapped.
func isDomainError(err error) bool {
	_, ok := model.AsError(err)
	return ok
}
