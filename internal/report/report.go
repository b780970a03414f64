// Package report defines the read-only sales aggregation surface: result
// shapes, the source port the storage adapters implement, and the
// week-bucketing convention shared between SQL and in-memory sources.
package report

import (
	"context"
	"time"
)

// CustomerTotal is one customer's lifetime order total.
// Customers with no orders never appear (inner-join semantics).
type CustomerTotal struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

// PeriodTotal is the order total for one time bucket (a calendar day or a
// week starting on Monday). Sequences are ascending by Start.
type PeriodTotal struct {
	Start time.Time `json:"start"`
	Total float64   `json:"total"`
}

// OrderSummary is one order joined with its customer's name.
type OrderSummary struct {
	OrderID   int64     `json:"order_id"`
	Customer  string    `json:"customer"`
	OrderDate time.Time `json:"order_date"`
}

// Source is the aggregation port. All methods are pure reads over
// committed data and are safe to call concurrently.
type Source interface {
	// CustomerTotals returns the sum of price*quantity per customer with
	// at least one order, grouped by customer identity.
	CustomerTotals(ctx context.Context) ([]CustomerTotal, error)

	// DailyTotals returns the same sums grouped by the calendar date of
	// order_date, ascending.
	DailyTotals(ctx context.Context) ([]PeriodTotal, error)

	// WeeklyTotals returns the same sums grouped by week start, ascending.
	WeeklyTotals(ctx context.Context) ([]PeriodTotal, error)

	// Orders lists all orders with their customer names.
	Orders(ctx context.Context) ([]OrderSummary, error)
}

// WeekStart truncates t to the Monday that begins its week, at midnight in
// t's location. Matching PostgreSQL's DATE_TRUNC('week', ...), Monday is
// the fixed week boundary: a timestamp exactly at Monday 00:00 belongs to
// the week it starts.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}

// DayStart truncates t to midnight in t's location.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
