package postgres

import (
	"context"
	"fmt"
)

// seedStatements insert a small demo dataset. Every statement is
// conflict-ignoring, so seeding an already seeded database is a no-op.
var seedStatements = []string{
	`INSERT INTO customers (name, email) VALUES
		('Avery Collins', 'avery.collins@example.com'),
		('Jordan Brooks', 'jordan.brooks@example.com'),
		('Riley Hayes', 'riley.hayes@example.com'),
		('Morgan Ellis', 'morgan.ellis@example.com')
	ON CONFLICT DO NOTHING`,

	`INSERT INTO products (product_name, price) VALUES
		('Forged Irons Set', 699.99),
		('Tour Driver', 449.99),
		('Blade Putter', 249.99),
		('Cavity Wedge', 129.99)
	ON CONFLICT DO NOTHING`,

	`INSERT INTO orders (customer_id, order_date) VALUES
		(1, '2024-03-04 10:00:00+00'),
		(2, '2024-03-05 14:30:00+00')
	ON CONFLICT DO NOTHING`,

	`INSERT INTO order_items (order_id, product_id, quantity) VALUES
		(1, 1, 3),
		(1, 2, 1),
		(2, 2, 2)
	ON CONFLICT DO NOTHING`,
}

// Seed inserts the demo dataset. Safe to call repeatedly.
func Seed(ctx context.Context, db DBTX) error {
	for i, stmt := range seedStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("seed statement %d: %w", i+1, err)
		}
	}
	return nil
}
