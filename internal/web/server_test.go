package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/proshopdata/salespipe/internal/config"
	"github.com/proshopdata/salespipe/internal/ingest"
	"github.com/proshopdata/salespipe/internal/memstore"
	"github.com/proshopdata/salespipe/internal/report"
)

func testConfig() config.ServerConfig {
	return config.ServerConfig{
		Host:           "127.0.0.1",
		Port:           0,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		IdleTimeout:    5 * time.Second,
		RequestTimeout: 5 * time.Second,
	}
}

func seededStore(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()

	mustInsert := func(ok bool, err error) {
		t.Helper()
		if err != nil || !ok {
			t.Fatalf("seed insert: ok=%v err=%v", ok, err)
		}
	}

	mustInsert(store.InsertCustomer(ctx, ingest.CustomerRow{Name: "Avery", Email: "avery@example.com"}))
	mustInsert(store.InsertProduct(ctx, ingest.ProductRow{Name: "Forged Irons Set", Price: 699.99}))
	mustInsert(store.InsertOrder(ctx, ingest.OrderRow{
		CustomerID: 1,
		OrderDate:  time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
	}))
	mustInsert(store.InsertOrderItem(ctx, ingest.OrderItemRow{OrderID: 1, ProductID: 1, Quantity: 2}))
	return store
}

func getJSON(t *testing.T, handler http.Handler, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			t.Fatalf("decode %s response: %v", path, err)
		}
	}
	return rec
}

func TestHandleHealth(t *testing.T) {
	srv := NewServer(memstore.New(), testConfig())

	var body map[string]string
	rec := getJSON(t, srv.Router(), "/healthz", &body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestHandleCustomerTotals(t *testing.T) {
	srv := NewServer(seededStore(t), testConfig())

	var totals []report.CustomerTotal
	rec := getJSON(t, srv.Router(), "/api/reports/customers", &totals)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(totals) != 1 {
		t.Fatalf("got %d totals, want 1", len(totals))
	}
	if totals[0].Name != "Avery" || totals[0].Total != 1399.98 {
		t.Errorf("totals[0] = %+v", totals[0])
	}
}

func TestHandlePeriodTotals(t *testing.T) {
	srv := NewServer(seededStore(t), testConfig())

	t.Run("daily", func(t *testing.T) {
		var totals []report.PeriodTotal
		rec := getJSON(t, srv.Router(), "/api/reports/daily", &totals)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if len(totals) != 1 {
			t.Fatalf("got %d buckets, want 1", len(totals))
		}
		want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
		if !totals[0].Start.Equal(want) || totals[0].Total != 1399.98 {
			t.Errorf("totals[0] = %+v", totals[0])
		}
	})

	t.Run("weekly buckets start on Monday", func(t *testing.T) {
		var totals []report.PeriodTotal
		rec := getJSON(t, srv.Router(), "/api/reports/weekly", &totals)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if len(totals) != 1 {
			t.Fatalf("got %d buckets, want 1", len(totals))
		}
		want := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
		if !totals[0].Start.Equal(want) {
			t.Errorf("week start = %v, want %v", totals[0].Start, want)
		}
	})
}

func TestHandleOrders(t *testing.T) {
	srv := NewServer(seededStore(t), testConfig())

	var orders []report.OrderSummary
	rec := getJSON(t, srv.Router(), "/api/orders", &orders)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(orders) != 1 {
		t.Fatalf("got %d orders, want 1", len(orders))
	}
	if orders[0].Customer != "Avery" {
		t.Errorf("orders[0] = %+v", orders[0])
	}
}

func TestEmptyStoreRendersEmptyArrays(t *testing.T) {
	srv := NewServer(memstore.New(), testConfig())

	for _, path := range []string{
		"/api/reports/customers",
		"/api/reports/daily",
		"/api/reports/weekly",
		"/api/orders",
	} {
		rec := getJSON(t, srv.Router(), path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
			continue
		}
		if got := rec.Body.String(); got != "[]\n" {
			t.Errorf("%s body = %q, want empty array", path, got)
		}
	}
}

// failingSource returns an error from every query.
type failingSource struct{}

func (failingSource) CustomerTotals(context.Context) ([]report.CustomerTotal, error) {
	return nil, errors.New("connection reset by peer")
}

func (failingSource) DailyTotals(context.Context) ([]report.PeriodTotal, error) {
	return nil, errors.New("connection reset by peer")
}

func (failingSource) WeeklyTotals(context.Context) ([]report.PeriodTotal, error) {
	return nil, errors.New("connection reset by peer")
}

func (failingSource) Orders(context.Context) ([]report.OrderSummary, error) {
	return nil, errors.New("connection reset by peer")
}

func TestQueryFailureHidesDetail(t *testing.T) {
	srv := NewServer(failingSource{}, testConfig())

	rec := getJSON(t, srv.Router(), "/api/reports/customers", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] != "report query failed" {
		t.Errorf("error = %q, want generic message", body["error"])
	}
}

func TestRateLimiter(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerMinute = 3
	srv := NewServer(memstore.New(), cfg)

	for i := 0; i < 3; i++ {
		rec := getJSON(t, srv.Router(), "/healthz", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := getJSON(t, srv.Router(), "/healthz", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 after limit", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing on 429")
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	srv := NewServer(memstore.New(), testConfig())

	rec := getJSON(t, srv.Router(), "/api/reports/monthly", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
