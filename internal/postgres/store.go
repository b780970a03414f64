// Package postgres implements the storage and report ports over pgx.
//
// Inserts are conflict-ignoring (ON CONFLICT ... DO NOTHING) and each one
// runs inside a savepoint so a constraint violation on one row leaves the
// enclosing transaction usable for the rest of the batch.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/proshopdata/salespipe/internal/ingest"
)

// PostgreSQL error codes checked when classifying insert failures.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store implements ingest.Store over a pgx session.
//
// The session is normally an open pgx.Tx: savepoints guard every insert,
// and SAVEPOINT is only valid inside a transaction. The commit boundary
// belongs to the caller.
type Store struct {
	db DBTX
}

// NewStore creates a Store bound to the given session.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// InsertCustomer inserts a customer, ignoring duplicate emails.
func (s *Store) InsertCustomer(ctx context.Context, row ingest.CustomerRow) (bool, error) {
	return s.insertIgnore(ctx,
		`INSERT INTO customers (name, email)
		 VALUES ($1, $2)
		 ON CONFLICT (email) DO NOTHING`,
		row.Name, row.Email,
	)
}

// InsertProduct inserts a product, ignoring duplicate product names.
func (s *Store) InsertProduct(ctx context.Context, row ingest.ProductRow) (bool, error) {
	return s.insertIgnore(ctx,
		`INSERT INTO products (product_name, price)
		 VALUES ($1, $2)
		 ON CONFLICT (product_name) DO NOTHING`,
		row.Name, row.Price,
	)
}

// InsertOrder inserts an order. The conflict key is the composite
// (customer_id, order_date): the source rows carry no order identifier,
// so a repeated (customer, timestamp) pair is the same order.
func (s *Store) InsertOrder(ctx context.Context, row ingest.OrderRow) (bool, error) {
	return s.insertIgnore(ctx,
		`INSERT INTO orders (customer_id, order_date)
		 VALUES ($1, $2)
		 ON CONFLICT (customer_id, order_date) DO NOTHING`,
		row.CustomerID, pgtype.Timestamptz{Time: row.OrderDate, Valid: true},
	)
}

// InsertOrderItem inserts a line item keyed on (order_id, product_id).
func (s *Store) InsertOrderItem(ctx context.Context, row ingest.OrderItemRow) (bool, error) {
	return s.insertIgnore(ctx,
		`INSERT INTO order_items (order_id, product_id, quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (order_id, product_id) DO NOTHING`,
		row.OrderID, row.ProductID, row.Quantity,
	)
}

// insertIgnore runs one conflict-ignoring insert inside a savepoint.
// Returns whether a row was actually persisted. Foreign-key violations
// roll back to the savepoint and surface as ingest.ErrForeignKey so the
// batch continues; anything else is fatal.
func (s *Store) insertIgnore(ctx context.Context, sql string, args ...any) (bool, error) {
	if _, err := s.db.Exec(ctx, "SAVEPOINT ingest_row"); err != nil {
		return false, fmt.Errorf("create savepoint: %w", err)
	}

	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		_, _ = s.db.Exec(ctx, "ROLLBACK TO SAVEPOINT ingest_row")
		return false, classifyInsertError(err)
	}

	if _, err := s.db.Exec(ctx, "RELEASE SAVEPOINT ingest_row"); err != nil {
		return false, fmt.Errorf("release savepoint: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// classifyInsertError maps constraint violations onto the ingest taxonomy.
// Only foreign-key violations are row-level rejections; duplicates never
// error because the conflict target absorbs them.
func classifyInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeForeignKeyViolation:
			return fmt.Errorf("%w (constraint %s)", ingest.ErrForeignKey, pgErr.ConstraintName)
		}
	}
	return err
}
