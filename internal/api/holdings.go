package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/stock-tracker/internal/models"
	"github.com/trogers1052/stock-tracker/internal/portfolio"
)

// holdingRequest is the body of POST and PUT on holdings
type holdingRequest struct {
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	PurchaseDate  string          `json:"purchase_date"`
}

func (req holdingRequest) holding(username string) (*models.Holding, error) {
	h := &models.Holding{
		Username:      username,
		Symbol:        req.Symbol,
		Quantity:      req.Quantity,
		PurchasePrice: req.PurchasePrice,
	}
	if req.PurchaseDate != "" {
		d, err := time.Parse(models.DateLayout, req.PurchaseDate)
		if err != nil {
			return nil, fmt.Errorf("%w: purchase_date must be YYYY-MM-DD", portfolio.ErrInvalidHolding)
		}
		h.PurchaseDate = d
	}
	return h, nil
}

// GetHoldings handles GET /users/{username}/holdings
func (h *Handler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.portfolio.Holdings(usernameVar(r))
	if err != nil {
		respondError(w, err)
		return
	}
	if holdings == nil {
		holdings = []*models.Holding{}
	}
	respondJSON(w, http.StatusOK, holdings)
}

// AddHolding handles POST /users/{username}/holdings
func (h *Handler) AddHolding(w http.ResponseWriter, r *http.Request) {
	var req holdingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	holding, err := req.holding(usernameVar(r))
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.portfolio.Add(r.Context(), holding); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, holding)
}

// GetHolding handles GET /users/{username}/holdings/{id}
func (h *Handler) GetHolding(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		respondError(w, err)
		return
	}
	holding, err := h.portfolio.Get(usernameVar(r), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, holding)
}

// UpdateHolding handles PUT /users/{username}/holdings/{id}
func (h *Handler) UpdateHolding(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req holdingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	holding, err := req.holding(usernameVar(r))
	if err != nil {
		respondError(w, err)
		return
	}
	holding.ID = id
	if err := h.portfolio.Update(holding); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, holding)
}

// RemoveHolding handles DELETE /users/{username}/holdings/{id}
func (h *Handler) RemoveHolding(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.portfolio.Remove(r.Context(), usernameVar(r), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportHoldings handles GET /users/{username}/holdings/export
func (h *Handler) ExportHoldings(w http.ResponseWriter, r *http.Request) {
	username := usernameVar(r)
	holdings, err := h.portfolio.Holdings(username)
	if err != nil {
		respondError(w, err)
		return
	}
	setCSVHeaders(w, username+"_holdings.csv")
	if err := portfolio.WriteHoldingsCSV(w, holdings); err != nil {
		respondError(w, err)
	}
}

// ImportHoldings handles POST /users/{username}/holdings/import. The body is
// a holdings CSV; ?replace=true drops the existing holdings first.
func (h *Handler) ImportHoldings(w http.ResponseWriter, r *http.Request) {
	replace := false
	if v := r.URL.Query().Get("replace"); v != "" {
		var err error
		if replace, err = strconv.ParseBool(v); err != nil {
			respondError(w, errBadRequest("invalid replace"))
			return
		}
	}

	n, err := h.portfolio.ImportCSV(usernameVar(r), r.Body, replace)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"imported": n, "replaced": replace})
}

// GetValuations handles GET /users/{username}/portfolio/holdings; ?format=csv
// returns the valuation report
func (h *Handler) GetValuations(w http.ResponseWriter, r *http.Request) {
	username := usernameVar(r)
	vals, err := h.portfolio.Valuations(r.Context(), username)
	if err != nil {
		respondError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		setCSVHeaders(w, username+"_portfolio.csv")
		if err := portfolio.WriteValuationsCSV(w, vals); err != nil {
			respondError(w, err)
		}
		return
	}
	respondJSON(w, http.StatusOK, vals)
}

// GetPortfolioSummary handles GET /users/{username}/portfolio
func (h *Handler) GetPortfolioSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.portfolio.Summary(r.Context(), usernameVar(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Rebalance handles POST /users/{username}/portfolio/rebalance. The optional
// body maps symbols to target percentages; without one the target is equal
// weight.
func (h *Handler) Rebalance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target map[string]decimal.Decimal `json:"target"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
	}

	suggestions, err := h.portfolio.Rebalance(r.Context(), usernameVar(r), req.Target)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, suggestions)
}
