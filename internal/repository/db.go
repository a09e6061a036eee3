package repository

import (
	"context"
	"errors"
	"fmt"

	"stockapi/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL error codes the repositories translate into domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// constraintFields maps database constraints to the request field they guard.
var constraintFields = map[string]string{
	"users_email_key":                   "email",
	"categories_name_key":               "name",
	"category_product_category_id_fkey": "categories",
}

// TxBeginner is satisfied by *pgxpool.Pool and lets repositories share
// transaction handling.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ TxBeginner = (*pgxpool.Pool)(nil)

// beginTx starts a transaction on the given pool.
func beginTx(ctx context.Context, db TxBeginner) (pgx.Tx, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// translateError converts a violation of a known constraint into a conflict
// error naming the offending field. ok is false for every other error.
func translateError(err error) (conflict error, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil, false
	}

	field, known := constraintFields[pgErr.ConstraintName]
	if !known {
		return nil, false
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return model.NewConflictError(field, fmt.Sprintf("The %s has already been taken.", field)), true
	case pgForeignKeyViolation:
		return model.NewConflictError(field, fmt.Sprintf("The selected %s are invalid.", field)), true
	default:
		return nil, false
	}
}

// isNoRows reports whether err means the query matched nothing.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
