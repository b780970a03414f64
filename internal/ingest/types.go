// Package ingest provides the business logic for batch loading sales data.
// It validates raw rows, performs idempotent conflict-ignoring inserts via
// the Store port, and records per-row rejections without aborting a batch.
// This package has no database driver dependencies and can be exercised
// against any Store implementation.
package ingest

import (
	"context"
	"errors"
	"time"
)

// RawRow is a single source row as a mapping from column name to raw value.
// A missing column is an absent key, never a lookup failure.
type RawRow map[string]string

// CustomerRow is a validated customer ready for insertion.
type CustomerRow struct {
	Name  string
	Email string
}

// ProductRow is a validated product ready for insertion.
type ProductRow struct {
	Name  string
	Price float64
}

// OrderRow is a validated order ready for insertion.
// OrderDate is never zero: rows without a date get the ingestion time.
type OrderRow struct {
	CustomerID int64
	OrderDate  time.Time
}

// OrderItemRow is a validated order line item ready for insertion.
type OrderItemRow struct {
	OrderID   int64
	ProductID int64
	Quantity  int32
}

// ErrForeignKey reports that an insert referenced a parent row that does
// not exist. Ingestors treat it as a row-level rejection, not a fatal error.
var ErrForeignKey = errors.New("referenced row does not exist")

// Store is the storage port consumed by the ingestors.
//
// Each Insert method attempts a conflict-ignoring insert: it returns
// (true, nil) when a new row was persisted, (false, nil) when a row with
// the same unique key already exists, and (false, ErrForeignKey) when a
// referenced parent row is missing. Any other error is fatal to the run.
//
// Implementations must leave the session usable after ErrForeignKey so the
// remaining rows of the batch can still be processed.
type Store interface {
	InsertCustomer(ctx context.Context, row CustomerRow) (bool, error)
	InsertProduct(ctx context.Context, row ProductRow) (bool, error)
	InsertOrder(ctx context.Context, row OrderRow) (bool, error)
	InsertOrderItem(ctx context.Context, row OrderItemRow) (bool, error)
}

// RowSource is a finite, restartable sequence of raw rows.
// Rows may be called more than once and must yield the same data each time.
type RowSource interface {
	// Name identifies the source (file name) for logs and rejections.
	Name() string
	// Rows reads the full source. An error here fails the entity's stage.
	Rows(ctx context.Context) ([]RawRow, error)
}

// Stage orders the ingestion pipeline. Later stages validate foreign keys
// against rows committed by earlier stages, so the order is a correctness
// requirement, not a preference.
type Stage int

const (
	StageCustomers Stage = iota
	StageProducts
	StageOrders
	StageOrderItems

	stageCount
)

// String returns the stage name for logs.
func (s Stage) String() string {
	switch s {
	case StageCustomers:
		return "customers"
	case StageProducts:
		return "products"
	case StageOrders:
		return "orders"
	case StageOrderItems:
		return "order_items"
	default:
		return "unknown"
	}
}

// BuildFunc parses and validates one raw row into typed insert parameters.
// A returned error means the row is rejected; it is never fatal to the run.
// now supplies the ingestion time for defaultable fields.
type BuildFunc func(row RawRow, now func() time.Time) (any, error)

// InsertFunc performs the conflict-ignoring insert for one built row.
type InsertFunc func(ctx context.Context, store Store, params any) (bool, error)

// EntityDefinition contains everything needed to ingest one entity type.
type EntityDefinition struct {
	Entity    string   // table name: "customers"
	Stage     Stage    // position in the pipeline
	KeyFields []string // raw columns echoed into rejection entries
	Build     BuildFunc
	Insert    InsertFunc
}

// EntityResult summarizes one entity's ingestion within a run.
type EntityResult struct {
	Entity     string
	Source     string
	Total      int // data rows seen (empty rows excluded)
	Inserted   int // rows persisted for the first time
	Duplicates int // conflict no-ops
	Rejected   int // rows skipped with a rejection entry
}

// RunResult is the outcome of a full pipeline run.
type RunResult struct {
	RunID    string
	Entities []EntityResult
	Duration time.Duration
}

// Inserted returns the total number of newly persisted rows across entities.
func (r RunResult) Inserted() int {
	n := 0
	for _, e := range r.Entities {
		n += e.Inserted
	}
	return n
}

// Rejected returns the total number of rejected rows across entities.
func (r RunResult) Rejected() int {
	n := 0
	for _, e := range r.Entities {
		n += e.Rejected
	}
	return n
}
