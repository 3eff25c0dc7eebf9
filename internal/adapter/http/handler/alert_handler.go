package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/fxoffice/internal/adapter/http/dto"
	"github.com/iho/fxoffice/internal/domain"
)

// AlertService defines the behavior needed by AlertHandler.
type AlertService interface {
	GetAlert(ctx context.Context, id string) (*domain.BranchAlert, error)
	ListAlerts(ctx context.Context, branchID string, unresolvedOnly bool, limit, offset int) ([]*domain.BranchAlert, error)
	Resolve(ctx context.Context, id, actor, notes string) (*domain.BranchAlert, error)
}

// AlertHandler handles branch alert HTTP requests.
type AlertHandler struct {
	alertUC AlertService
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alertUC AlertService) *AlertHandler {
	return &AlertHandler{alertUC: alertUC}
}

// List lists a branch's alerts, unresolved only by default.
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alertUC.ListAlerts(r.Context(), chi.URLParam(r, "branchID"),
		parseBoolQuery(r, "unresolved_only", true),
		parseIntQuery(r, "limit", 50), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list alerts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.AlertsFromDomain(alerts)))
}

// Get retrieves an alert by id.
func (h *AlertHandler) Get(w http.ResponseWriter, r *http.Request) {
	alert, err := h.alertUC.GetAlert(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get alert", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AlertFromDomain(alert))
}

// Resolve closes an open alert.
func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req dto.ResolveAlertRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	alert, err := h.alertUC.Resolve(r.Context(), chi.URLParam(r, "id"), domain.ActorID(r.Context()), req.Notes)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to resolve alert", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AlertFromDomain(alert))
}
