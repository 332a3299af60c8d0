package api

import (
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/stock-tracker/internal/alerts"
	"github.com/trogers1052/stock-tracker/internal/models"
)

type alertRequest struct {
	Symbol      string          `json:"symbol"`
	RuleType    string          `json:"rule_type"`
	Comparison  string          `json:"comparison"`
	Threshold   decimal.Decimal `json:"threshold"`
	NotifyEmail string          `json:"notify_email"`
}

// GetAlerts handles GET /users/{username}/alerts
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	list, err := h.alerts.List(usernameVar(r))
	if err != nil {
		respondError(w, err)
		return
	}
	if list == nil {
		list = []*models.Alert{}
	}
	respondJSON(w, http.StatusOK, list)
}

// CreateAlert handles POST /users/{username}/alerts
func (h *Handler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	a := &models.Alert{
		Username:    usernameVar(r),
		Symbol:      req.Symbol,
		RuleType:    req.RuleType,
		Comparison:  req.Comparison,
		Threshold:   req.Threshold,
		NotifyEmail: req.NotifyEmail,
	}
	if err := h.alerts.Create(a); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

// UpdateAlert handles PUT /users/{username}/alerts/{id}
func (h *Handler) UpdateAlert(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req alertRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	a, err := h.alerts.Update(&models.Alert{
		ID:          id,
		Username:    usernameVar(r),
		Symbol:      req.Symbol,
		RuleType:    req.RuleType,
		Comparison:  req.Comparison,
		Threshold:   req.Threshold,
		NotifyEmail: req.NotifyEmail,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// GetAlert handles GET /users/{username}/alerts/{id}
func (h *Handler) GetAlert(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		respondError(w, err)
		return
	}
	a, err := h.alerts.Get(usernameVar(r), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// ResetAlert handles POST /users/{username}/alerts/{id}/reset
func (h *Handler) ResetAlert(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		respondError(w, err)
		return
	}
	a, err := h.alerts.Reset(usernameVar(r), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// DeleteAlert handles DELETE /users/{username}/alerts/{id}
func (h *Handler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.alerts.Delete(usernameVar(r), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAlertHistory handles GET /users/{username}/alerts/history
func (h *Handler) GetAlertHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", alerts.DefaultHistoryLimit)
	if err != nil {
		respondError(w, err)
		return
	}
	history, err := h.alerts.History(usernameVar(r), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if history == nil {
		history = []*models.AlertHistory{}
	}
	respondJSON(w, http.StatusOK, history)
}

// GetAlertStatistics handles GET /users/{username}/alerts/stats
func (h *Handler) GetAlertStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.alerts.Statistics(usernameVar(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// EvaluateAlerts handles POST /alerts/evaluate and runs one pass immediately
func (h *Handler) EvaluateAlerts(w http.ResponseWriter, r *http.Request) {
	res, err := h.alerts.Evaluate(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if res.Triggered == nil {
		res.Triggered = []*models.AlertHistory{}
	}
	respondJSON(w, http.StatusOK, res)
}
