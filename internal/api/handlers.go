package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/trogers1052/stock-tracker/internal/alerts"
	"github.com/trogers1052/stock-tracker/internal/database"
	"github.com/trogers1052/stock-tracker/internal/forecast"
	"github.com/trogers1052/stock-tracker/internal/marketdata"
	"github.com/trogers1052/stock-tracker/internal/portfolio"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db        *database.DB
	market    *marketdata.Service
	portfolio *portfolio.Service
	alerts    *alerts.Evaluator
	forecasts *forecast.Service
	period    string
}

// NewHandler creates a new Handler. defaultPeriod is the history range used
// when a request names none.
func NewHandler(
	db *database.DB,
	market *marketdata.Service,
	portfolioSvc *portfolio.Service,
	evaluator *alerts.Evaluator,
	forecasts *forecast.Service,
	defaultPeriod string,
) *Handler {
	if defaultPeriod == "" {
		defaultPeriod = "1y"
	}
	return &Handler{
		db:        db,
		market:    market,
		portfolio: portfolioSvc,
		alerts:    evaluator,
		forecasts: forecasts,
		period:    defaultPeriod,
	}
}

// GetAllStocks handles GET /stocks
func (h *Handler) GetAllStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.db.GetAllStocks()
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stocks)
}

// GetStock handles GET /stocks/{symbol}
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.db.GetStock(symbolVar(r))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stock)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(); err != nil {
		slog.Error("health check failed", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func symbolVar(r *http.Request) string {
	return marketdata.NormalizeSymbol(mux.Vars(r)["symbol"])
}

func usernameVar(r *http.Request) string {
	return mux.Vars(r)["username"]
}

func muxVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

func idVar(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, errBadRequest("invalid id")
	}
	return id, nil
}

func intQuery(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errBadRequest("invalid " + key)
	}
	return n, nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadRequest("invalid request body")
	}
	return nil
}

type badRequest string

func (e badRequest) Error() string { return string(e) }

func errBadRequest(msg string) error { return badRequest(msg) }

// statusFor maps domain errors onto HTTP status codes and client messages
func statusFor(err error) (int, string) {
	var br badRequest
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest, br.Error()
	case errors.Is(err, marketdata.ErrNoData):
		return http.StatusNotFound, marketdata.ErrNoData.Error()
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, portfolio.ErrInvalidHolding),
		errors.Is(err, alerts.ErrInvalidAlert),
		errors.Is(err, forecast.ErrInvalidHorizon),
		errors.Is(err, forecast.ErrUnknownModel):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, forecast.ErrInsufficientData):
		return http.StatusUnprocessableEntity, err.Error()
	}
	return http.StatusInternalServerError, "internal server error"
}

func respondError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	respondJSON(w, status, map[string]string{"error": msg})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func setCSVHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
}
