package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/proshopdata/salespipe/internal/logging"
	"github.com/proshopdata/salespipe/internal/report"
)

// handleHealth responds to health checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCustomerTotals returns lifetime spend per customer.
func (s *Server) handleCustomerTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.reports.CustomerTotals(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("customer totals query failed", "error", err)
		writeError(r.Context(), w, http.StatusInternalServerError, "report query failed")
		return
	}
	if totals == nil {
		totals = []report.CustomerTotal{}
	}
	writeJSON(r.Context(), w, http.StatusOK, totals)
}

// handleDailyTotals returns revenue per calendar day.
func (s *Server) handleDailyTotals(w http.ResponseWriter, r *http.Request) {
	s.handlePeriodTotals(w, r, "daily", s.reports.DailyTotals)
}

// handleWeeklyTotals returns revenue per week, keyed by the Monday that
// starts the week.
func (s *Server) handleWeeklyTotals(w http.ResponseWriter, r *http.Request) {
	s.handlePeriodTotals(w, r, "weekly", s.reports.WeeklyTotals)
}

func (s *Server) handlePeriodTotals(w http.ResponseWriter, r *http.Request, period string, query func(context.Context) ([]report.PeriodTotal, error)) {
	totals, err := query(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("period totals query failed", "period", period, "error", err)
		writeError(r.Context(), w, http.StatusInternalServerError, "report query failed")
		return
	}
	if totals == nil {
		totals = []report.PeriodTotal{}
	}
	writeJSON(r.Context(), w, http.StatusOK, totals)
}

// handleOrders returns the order listing with customer names resolved.
func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.reports.Orders(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("orders query failed", "error", err)
		writeError(r.Context(), w, http.StatusInternalServerError, "report query failed")
		return
	}
	if orders == nil {
		orders = []report.OrderSummary{}
	}
	writeJSON(r.Context(), w, http.StatusOK, orders)
}

// writeJSON encodes v as the response body. Encoding failures are logged
// but cannot be reported to the client once the header is written.
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(ctx).Error("encode response", "error", err)
	}
}

// writeError sends a JSON error body. The message must already be
// client-safe; internal detail stays in the logs.
func writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(ctx, w, status, map[string]string{"error": message})
}
