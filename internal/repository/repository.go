package repository

import (
	"context"
	"time"

	"stockapi/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository defines the interface for user data access operations.
type UserRepository interface {
	// GetAll retrieves every user ordered by ID.
	GetAll(ctx context.Context) ([]model.User, error)

	// GetByID retrieves a single user. It returns nil without error when the
	// user does not exist.
	GetByID(ctx context.Context, id int64) (*model.User, error)

	// GetByEmail retrieves a user by email. It returns nil without error when
	// no user has that email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// EmailTaken reports whether another user (not exceptID) uses email.
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)

	// Create inserts the user and fills in its ID and timestamps.
	Create(ctx context.Context, user *model.User) error

	// Update overwrites name, email and password of an existing user.
	Update(ctx context.Context, user *model.User) error

	// Delete removes a user.
	Delete(ctx context.Context, id int64) error

	// Count returns the number of users.
	Count(ctx context.Context) (int, error)
}

// CategoryRepository defines the interface for category data access operations.
type CategoryRepository interface {
	// GetAll retrieves every category with its products attached.
	GetAll(ctx context.Context) ([]model.Category, error)

	// GetByID retrieves a category with its products attached. It returns nil
	// without error when the category does not exist.
	GetByID(ctx context.Context, id int64) (*model.Category, error)

	// NameTaken reports whether another category (not exceptID) uses name.
	NameTaken(ctx context.Context, name string, exceptID int64) (bool, error)

	// MissingIDs returns the subset of ids that do not reference a category.
	MissingIDs(ctx context.Context, ids []int64) ([]int64, error)

	// Create inserts the category and fills in its ID and timestamps.
	Create(ctx context.Context, category *model.Category) error

	// Update overwrites name and description of an existing category.
	Update(ctx context.Context, category *model.Category) error

	// Delete removes a category. Its product associations are detached;
	// the products themselves are kept.
	Delete(ctx context.Context, id int64) error
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// GetAll retrieves every product with its categories attached.
	GetAll(ctx context.Context) ([]model.Product, error)

	// GetByID retrieves a product with its categories attached. It returns
	// nil without error when the product does not exist.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// Create inserts the product within the provided transaction and fills
	// in its ID and timestamps.
	Create(ctx context.Context, tx pgx.Tx, product *model.Product) error

	// Update overwrites the scalar fields of an existing product within the
	// provided transaction.
	Update(ctx context.Context, tx pgx.Tx, product *model.Product) error

	// ReplaceCategories detaches every category from the product and attaches
	// categoryIDs within the provided transaction.
	ReplaceCategories(ctx context.Context, tx pgx.Tx, productID int64, categoryIDs []int64) error

	// Delete removes the product and its category associations within the
	// provided transaction.
	Delete(ctx context.Context, tx pgx.Tx, id int64) error
}

// TokenRepository records bearer tokens revoked before their expiry.
type TokenRepository interface {
	// Revoke marks the token identified by jti as unusable until expiresAt.
	Revoke(ctx context.Context, jti uuid.UUID, expiresAt time.Time) error

	// IsRevoked reports whether the token identified by jti was revoked.
	IsRevoked(ctx context.Context, jti uuid.UUID) (bool, error)

	// PurgeExpired deletes revocations whose tokens have expired by now.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
