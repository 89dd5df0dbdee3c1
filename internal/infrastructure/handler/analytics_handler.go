package handler

import (
	"net/http"

	"github.com/damon-houk/thrift-ledger/internal/application/service"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/logger"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
)

// AnalyticsHandler serves the cached summary and the monthly series
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	metrics   *service.MetricsMaintainer
	logger    logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analytics *service.AnalyticsService, metrics *service.MetricsMaintainer, log logger.Logger) *AnalyticsHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &AnalyticsHandler{
		analytics: analytics,
		metrics:   metrics,
		logger:    log,
	}
}

// GetSummary returns the maintained totals without touching the store
func (h *AnalyticsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Serving cached summary", map[string]interface{}{
		"request_id": middleware.GetRequestID(r.Context()),
	})

	sendJSON(w, h.logger, http.StatusOK, toSummaryResponse(h.metrics.Summary(), h.metrics.RefreshedAt()))
}

// GetMonthlyExpenses returns the expense total per calendar month
func (h *AnalyticsHandler) GetMonthlyExpenses(w http.ResponseWriter, r *http.Request) {
	series := h.analytics.MonthlyExpenseSeries(r.Context())
	sendJSON(w, h.logger, http.StatusOK, toMonthTotalResponses(series))
}

// GetMonthlyIncomeExpenses returns income and expenses per calendar month
func (h *AnalyticsHandler) GetMonthlyIncomeExpenses(w http.ResponseWriter, r *http.Request) {
	series := h.analytics.MonthlyIncomeExpenseSeries(r.Context())
	sendJSON(w, h.logger, http.StatusOK, toMonthIncomeExpenseResponses(series))
}

// RegisterRoutes registers the analytics handler routes
func (h *AnalyticsHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/summary", h.GetSummary).Methods("GET")
	router.HandleFunc("/analytics/monthly-expenses", h.GetMonthlyExpenses).Methods("GET")
	router.HandleFunc("/analytics/monthly-income-expenses", h.GetMonthlyIncomeExpenses).Methods("GET")

	h.logger.Info("Analytics routes registered", map[string]interface{}{
		"routes": []string{
			"GET /summary",
			"GET /analytics/monthly-expenses",
			"GET /analytics/monthly-income-expenses",
		},
	})
}
