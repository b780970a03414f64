// Package memstore provides an in-memory implementation of the ingest
// storage port and the report source. It enforces the same unique-key and
// foreign-key semantics as the PostgreSQL adapter, which makes it the
// reference store for tests and for demo runs without a database.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/proshopdata/salespipe/internal/ingest"
	"github.com/proshopdata/salespipe/internal/report"
)

type customer struct {
	id    int64
	name  string
	email string
}

type product struct {
	id    int64
	name  string
	price float64
}

type order struct {
	id         int64
	customerID int64
	date       time.Time
}

type orderItem struct {
	orderID   int64
	productID int64
	quantity  int32
}

type orderKey struct {
	customerID int64
	date       int64 // unix nanoseconds
}

type itemKey struct {
	orderID   int64
	productID int64
}

// Store is an in-memory transactional-enough store: inserts are
// conflict-ignoring, identifiers are assigned sequentially, and foreign
// keys are checked at insert time.
type Store struct {
	mu        sync.RWMutex
	customers []customer
	products  []product
	orders    []order
	items     []orderItem

	byEmail       map[string]int64
	byProductName map[string]int64
	byOrderKey    map[orderKey]int64
	byItemKey     map[itemKey]bool
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		byEmail:       make(map[string]int64),
		byProductName: make(map[string]int64),
		byOrderKey:    make(map[orderKey]int64),
		byItemKey:     make(map[itemKey]bool),
	}
}

// InsertCustomer implements ingest.Store. The unique key is the email.
func (s *Store) InsertCustomer(_ context.Context, row ingest.CustomerRow) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[row.Email]; exists {
		return false, nil
	}
	id := int64(len(s.customers) + 1)
	s.customers = append(s.customers, customer{id: id, name: row.Name, email: row.Email})
	s.byEmail[row.Email] = id
	return true, nil
}

// InsertProduct implements ingest.Store. The unique key is the product name.
func (s *Store) InsertProduct(_ context.Context, row ingest.ProductRow) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byProductName[row.Name]; exists {
		return false, nil
	}
	id := int64(len(s.products) + 1)
	s.products = append(s.products, product{id: id, name: row.Name, price: row.Price})
	s.byProductName[row.Name] = id
	return true, nil
}

// InsertOrder implements ingest.Store. The conflict key is the composite
// (customer_id, order_date); the customer must already exist.
func (s *Store) InsertOrder(_ context.Context, row ingest.OrderRow) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row.CustomerID < 1 || row.CustomerID > int64(len(s.customers)) {
		return false, fmt.Errorf("%w: customer %d", ingest.ErrForeignKey, row.CustomerID)
	}

	key := orderKey{customerID: row.CustomerID, date: row.OrderDate.UnixNano()}
	if _, exists := s.byOrderKey[key]; exists {
		return false, nil
	}
	id := int64(len(s.orders) + 1)
	s.orders = append(s.orders, order{id: id, customerID: row.CustomerID, date: row.OrderDate})
	s.byOrderKey[key] = id
	return true, nil
}

// InsertOrderItem implements ingest.Store. The conflict key is the
// composite (order_id, product_id); both parents must already exist.
func (s *Store) InsertOrderItem(_ context.Context, row ingest.OrderItemRow) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row.OrderID < 1 || row.OrderID > int64(len(s.orders)) {
		return false, fmt.Errorf("%w: order %d", ingest.ErrForeignKey, row.OrderID)
	}
	if row.ProductID < 1 || row.ProductID > int64(len(s.products)) {
		return false, fmt.Errorf("%w: product %d", ingest.ErrForeignKey, row.ProductID)
	}

	key := itemKey{orderID: row.OrderID, productID: row.ProductID}
	if s.byItemKey[key] {
		return false, nil
	}
	s.items = append(s.items, orderItem{orderID: row.OrderID, productID: row.ProductID, quantity: row.Quantity})
	s.byItemKey[key] = true
	return true, nil
}

// Counts returns the number of stored rows per table.
func (s *Store) Counts() (customers, products, orders, items int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.customers), len(s.products), len(s.orders), len(s.items)
}

// CustomerTotals implements report.Source.
func (s *Store) CustomerTotals(_ context.Context) ([]report.CustomerTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[int64]float64)
	for _, it := range s.items {
		o := s.orders[it.orderID-1]
		p := s.products[it.productID-1]
		totals[o.customerID] += p.price * float64(it.quantity)
	}

	result := make([]report.CustomerTotal, 0, len(totals))
	for customerID, total := range totals {
		result = append(result, report.CustomerTotal{
			Name:  s.customers[customerID-1].name,
			Total: total,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// DailyTotals implements report.Source.
func (s *Store) DailyTotals(_ context.Context) ([]report.PeriodTotal, error) {
	return s.periodTotals(func(t time.Time) time.Time { return report.DayStart(t.UTC()) })
}

// WeeklyTotals implements report.Source.
func (s *Store) WeeklyTotals(_ context.Context) ([]report.PeriodTotal, error) {
	return s.periodTotals(func(t time.Time) time.Time { return report.WeekStart(t.UTC()) })
}

// periodTotals buckets item totals by the given truncation of order_date.
func (s *Store) periodTotals(bucket func(time.Time) time.Time) ([]report.PeriodTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[time.Time]float64)
	for _, it := range s.items {
		o := s.orders[it.orderID-1]
		p := s.products[it.productID-1]
		totals[bucket(o.date)] += p.price * float64(it.quantity)
	}

	result := make([]report.PeriodTotal, 0, len(totals))
	for start, total := range totals {
		result = append(result, report.PeriodTotal{Start: start, Total: total})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start.Before(result[j].Start) })
	return result, nil
}

// Orders implements report.Source.
func (s *Store) Orders(_ context.Context) ([]report.OrderSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]report.OrderSummary, 0, len(s.orders))
	for _, o := range s.orders {
		result = append(result, report.OrderSummary{
			OrderID:   o.id,
			Customer:  s.customers[o.customerID-1].name,
			OrderDate: o.date,
		})
	}
	return result, nil
}
