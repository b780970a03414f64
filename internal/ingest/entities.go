package ingest

// entities.go registers the four ingested entity types. Each Build
// function is the parse-or-reject boundary: it validates every required
// field and returns typed insert parameters, so no partially valid row
// ever reaches the store.

import (
	"context"
	"fmt"
	"time"
)

func init() {
	registerCustomers()
	registerProducts()
	registerOrders()
	registerOrderItems()
}

func registerCustomers() {
	Register(EntityDefinition{
		Entity:    "customers",
		Stage:     StageCustomers,
		KeyFields: []string{"email"},
		Build: func(row RawRow, _ func() time.Time) (any, error) {
			name, ok := cell(row, "name")
			if !ok {
				return nil, fmt.Errorf("missing or empty name")
			}
			email, ok := cell(row, "email")
			if !ok {
				return nil, fmt.Errorf("missing or empty email")
			}
			if !ValidEmail(email) {
				return nil, fmt.Errorf("invalid email %q", email)
			}
			return CustomerRow{Name: name, Email: email}, nil
		},
		Insert: func(ctx context.Context, store Store, params any) (bool, error) {
			return store.InsertCustomer(ctx, params.(CustomerRow))
		},
	})
}

func registerProducts() {
	Register(EntityDefinition{
		Entity:    "products",
		Stage:     StageProducts,
		KeyFields: []string{"product_name"},
		Build: func(row RawRow, _ func() time.Time) (any, error) {
			name, ok := cell(row, "product_name")
			if !ok {
				return nil, fmt.Errorf("missing or empty product_name")
			}
			raw, ok := cell(row, "price")
			if !ok {
				return nil, fmt.Errorf("missing or empty price")
			}
			price, ok := parsePrice(raw)
			if !ok {
				return nil, fmt.Errorf("invalid price %q", raw)
			}
			return ProductRow{Name: name, Price: price}, nil
		},
		Insert: func(ctx context.Context, store Store, params any) (bool, error) {
			return store.InsertProduct(ctx, params.(ProductRow))
		},
	})
}

func registerOrders() {
	Register(EntityDefinition{
		Entity:    "orders",
		Stage:     StageOrders,
		KeyFields: []string{"customer_id", "order_date"},
		Build: func(row RawRow, now func() time.Time) (any, error) {
			raw, ok := cell(row, "customer_id")
			if !ok {
				return nil, fmt.Errorf("missing or empty customer_id")
			}
			customerID, ok := parseID(raw)
			if !ok {
				return nil, fmt.Errorf("invalid customer_id %q", raw)
			}

			// order_date defaults to the ingestion time when absent.
			orderDate := now().UTC()
			if raw, ok := cell(row, "order_date"); ok {
				t, ok := ParseTimestamp(raw)
				if !ok {
					return nil, fmt.Errorf("invalid order_date %q", raw)
				}
				orderDate = t
			}

			return OrderRow{CustomerID: customerID, OrderDate: orderDate}, nil
		},
		Insert: func(ctx context.Context, store Store, params any) (bool, error) {
			return store.InsertOrder(ctx, params.(OrderRow))
		},
	})
}

func registerOrderItems() {
	Register(EntityDefinition{
		Entity:    "order_items",
		Stage:     StageOrderItems,
		KeyFields: []string{"order_id", "product_id"},
		Build: func(row RawRow, _ func() time.Time) (any, error) {
			orderID, err := requireID(row, "order_id")
			if err != nil {
				return nil, err
			}
			productID, err := requireID(row, "product_id")
			if err != nil {
				return nil, err
			}
			raw, ok := cell(row, "quantity")
			if !ok {
				return nil, fmt.Errorf("missing or empty quantity")
			}
			quantity, ok := parseQuantity(raw)
			if !ok {
				return nil, fmt.Errorf("invalid quantity %q", raw)
			}
			return OrderItemRow{
				OrderID:   orderID,
				ProductID: productID,
				Quantity:  quantity,
			}, nil
		},
		Insert: func(ctx context.Context, store Store, params any) (bool, error) {
			return store.InsertOrderItem(ctx, params.(OrderItemRow))
		},
	})
}

// requireID extracts a required positive integer column.
func requireID(row RawRow, name string) (int64, error) {
	raw, ok := cell(row, name)
	if !ok {
		return 0, fmt.Errorf("missing or empty %s", name)
	}
	id, ok := parseID(raw)
	if !ok {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}
