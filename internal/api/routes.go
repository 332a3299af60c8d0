package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/trogers1052/stock-tracker/internal/metrics"
)

// SetupRoutes configures all API routes. m may be nil, in which case no
// request metrics are recorded and /metrics is not served.
func SetupRoutes(handler *Handler, m *metrics.Metrics) *mux.Router {
	r := mux.NewRouter()
	if m != nil {
		r.Use(m.Middleware)
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Market data
	api.HandleFunc("/stocks", handler.GetAllStocks).Methods(http.MethodGet)
	api.HandleFunc("/stocks/{symbol}", handler.GetStock).Methods(http.MethodGet)
	api.HandleFunc("/stocks/{symbol}/quote", handler.GetQuote).Methods(http.MethodGet)
	api.HandleFunc("/stocks/{symbol}/history", handler.GetHistory).Methods(http.MethodGet)
	api.HandleFunc("/stocks/{symbol}/indicators", handler.GetIndicators).Methods(http.MethodGet)
	api.HandleFunc("/stocks/{symbol}/indicators/latest", handler.GetLatestIndicators).Methods(http.MethodGet)
	api.HandleFunc("/stocks/{symbol}/indicators/{type}/history", handler.GetIndicatorHistory).Methods(http.MethodGet)
	api.HandleFunc("/stocks/{symbol}/signals", handler.GetSignals).Methods(http.MethodGet)
	api.HandleFunc("/stocks/{symbol}/levels", handler.GetLevels).Methods(http.MethodGet)

	api.HandleFunc("/alerts/evaluate", handler.EvaluateAlerts).Methods(http.MethodPost)

	user := api.PathPrefix("/users/{username}").Subrouter()

	// Holdings and portfolio
	user.HandleFunc("/holdings", handler.GetHoldings).Methods(http.MethodGet)
	user.HandleFunc("/holdings", handler.AddHolding).Methods(http.MethodPost)
	user.HandleFunc("/holdings/export", handler.ExportHoldings).Methods(http.MethodGet)
	user.HandleFunc("/holdings/import", handler.ImportHoldings).Methods(http.MethodPost)
	user.HandleFunc("/holdings/{id:[0-9]+}", handler.GetHolding).Methods(http.MethodGet)
	user.HandleFunc("/holdings/{id:[0-9]+}", handler.UpdateHolding).Methods(http.MethodPut)
	user.HandleFunc("/holdings/{id:[0-9]+}", handler.RemoveHolding).Methods(http.MethodDelete)
	user.HandleFunc("/portfolio", handler.GetPortfolioSummary).Methods(http.MethodGet)
	user.HandleFunc("/portfolio/holdings", handler.GetValuations).Methods(http.MethodGet)
	user.HandleFunc("/portfolio/rebalance", handler.Rebalance).Methods(http.MethodPost)

	// Alerts
	user.HandleFunc("/alerts", handler.GetAlerts).Methods(http.MethodGet)
	user.HandleFunc("/alerts", handler.CreateAlert).Methods(http.MethodPost)
	user.HandleFunc("/alerts/history", handler.GetAlertHistory).Methods(http.MethodGet)
	user.HandleFunc("/alerts/stats", handler.GetAlertStatistics).Methods(http.MethodGet)
	user.HandleFunc("/alerts/{id:[0-9]+}", handler.GetAlert).Methods(http.MethodGet)
	user.HandleFunc("/alerts/{id:[0-9]+}", handler.UpdateAlert).Methods(http.MethodPut)
	user.HandleFunc("/alerts/{id:[0-9]+}", handler.DeleteAlert).Methods(http.MethodDelete)
	user.HandleFunc("/alerts/{id:[0-9]+}/reset", handler.ResetAlert).Methods(http.MethodPost)

	// Forecasts
	user.HandleFunc("/forecasts", handler.GetForecasts).Methods(http.MethodGet)
	user.HandleFunc("/forecasts", handler.CreateForecast).Methods(http.MethodPost)
	user.HandleFunc("/forecasts/{id:[0-9]+}", handler.GetForecast).Methods(http.MethodGet)
	user.HandleFunc("/forecasts/{id:[0-9]+}", handler.DeleteForecast).Methods(http.MethodDelete)

	return r
}
