package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/proshopdata/salespipe/internal/report"
)

// Reports implements report.Source with SQL joins over committed data.
// It should be backed by a pool, never a transaction shared with an
// in-flight ingestion run, so queries only ever see committed rows.
type Reports struct {
	db DBTX
}

// NewReports creates a Reports source bound to the given session.
func NewReports(db DBTX) *Reports {
	return &Reports{db: db}
}

// CustomerTotals returns total spend per customer with at least one order.
func (r *Reports) CustomerTotals(ctx context.Context) ([]report.CustomerTotal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.name, SUM(p.price * oi.quantity)::float8 AS total_spent
		FROM customers c
		JOIN orders o ON c.customer_id = o.customer_id
		JOIN order_items oi ON o.order_id = oi.order_id
		JOIN products p ON oi.product_id = p.product_id
		GROUP BY c.customer_id, c.name
		ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("query customer totals: %w", err)
	}
	defer rows.Close()

	var result []report.CustomerTotal
	for rows.Next() {
		var t report.CustomerTotal
		if err := rows.Scan(&t.Name, &t.Total); err != nil {
			return nil, fmt.Errorf("scan customer total: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// DailyTotals returns total sales grouped by the calendar date of order_date.
func (r *Reports) DailyTotals(ctx context.Context) ([]report.PeriodTotal, error) {
	return r.periodTotals(ctx, `
		SELECT DATE(o.order_date) AS sale_date,
		       SUM(p.price * oi.quantity)::float8 AS total_sales
		FROM orders o
		JOIN order_items oi ON o.order_id = oi.order_id
		JOIN products p ON oi.product_id = p.product_id
		GROUP BY sale_date
		ORDER BY sale_date`)
}

// WeeklyTotals returns total sales grouped by week start (Monday).
func (r *Reports) WeeklyTotals(ctx context.Context) ([]report.PeriodTotal, error) {
	return r.periodTotals(ctx, `
		SELECT DATE_TRUNC('week', o.order_date) AS sale_week,
		       SUM(p.price * oi.quantity)::float8 AS total_sales
		FROM orders o
		JOIN order_items oi ON o.order_id = oi.order_id
		JOIN products p ON oi.product_id = p.product_id
		GROUP BY sale_week
		ORDER BY sale_week`)
}

// periodTotals runs one time-bucketed aggregation query.
func (r *Reports) periodTotals(ctx context.Context, sql string) ([]report.PeriodTotal, error) {
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query period totals: %w", err)
	}
	defer rows.Close()

	var result []report.PeriodTotal
	for rows.Next() {
		var start pgtype.Timestamptz
		var t report.PeriodTotal
		if err := rows.Scan(&start, &t.Total); err != nil {
			return nil, fmt.Errorf("scan period total: %w", err)
		}
		t.Start = start.Time
		result = append(result, t)
	}
	return result, rows.Err()
}

// Orders lists all orders with their customer names.
func (r *Reports) Orders(ctx context.Context) ([]report.OrderSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT o.order_id, c.name, o.order_date
		FROM orders o
		JOIN customers c ON o.customer_id = c.customer_id
		ORDER BY o.order_id`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var result []report.OrderSummary
	for rows.Next() {
		var date pgtype.Timestamptz
		var o report.OrderSummary
		if err := rows.Scan(&o.OrderID, &o.Customer, &date); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.OrderDate = date.Time
		result = append(result, o)
	}
	return result, rows.Err()
}
