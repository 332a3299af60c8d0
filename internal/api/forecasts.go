package api

import (
	"net/http"

	"github.com/trogers1052/stock-tracker/internal/forecast"
	"github.com/trogers1052/stock-tracker/internal/models"
)

type forecastRequest struct {
	Symbol string `json:"symbol"`
	Model  string `json:"model"`
	Days   int    `json:"days"`
}

// CreateForecast handles POST /users/{username}/forecasts
func (h *Handler) CreateForecast(w http.ResponseWriter, r *http.Request) {
	var req forecastRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Symbol == "" {
		respondError(w, errBadRequest("symbol is required"))
		return
	}
	if req.Model == "" {
		req.Model = models.ModelRandomForest
	}

	f, err := h.forecasts.Run(r.Context(), usernameVar(r), req.Symbol, req.Model, req.Days)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, f)
}

// GetForecasts handles GET /users/{username}/forecasts
func (h *Handler) GetForecasts(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", forecast.DefaultListLimit)
	if err != nil {
		respondError(w, err)
		return
	}
	list, err := h.forecasts.List(usernameVar(r), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if list == nil {
		list = []*models.Forecast{}
	}
	respondJSON(w, http.StatusOK, list)
}

// GetForecast handles GET /users/{username}/forecasts/{id}; ?format=csv
// returns the predicted points as CSV
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		respondError(w, err)
		return
	}
	f, err := h.forecasts.Get(usernameVar(r), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		setCSVHeaders(w, f.Symbol+"_forecast.csv")
		if err := forecast.WriteCSV(w, f); err != nil {
			respondError(w, err)
		}
		return
	}
	respondJSON(w, http.StatusOK, f)
}

// DeleteForecast handles DELETE /users/{username}/forecasts/{id}
func (h *Handler) DeleteForecast(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.forecasts.Delete(usernameVar(r), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
