package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/fxoffice/internal/adapter/http/dto"
	"github.com/iho/fxoffice/internal/domain"
	"github.com/iho/fxoffice/internal/usecase"
)

// RateSyncService defines the behavior needed by RateSyncHandler.
type RateSyncService interface {
	InitiateSync(ctx context.Context, input usecase.InitiateSyncInput) (*domain.RateUpdateRequest, error)
	Approve(ctx context.Context, input usecase.ReviewInput) (*domain.RateUpdateRequest, error)
	Reject(ctx context.Context, input usecase.ReviewInput) (*domain.RateUpdateRequest, error)
	GetRequest(ctx context.Context, id string) (*domain.RateUpdateRequest, error)
	ListRequests(ctx context.Context, status *domain.UpdateRequestStatus, limit, offset int) ([]*domain.RateUpdateRequest, error)
	SweepExpired(ctx context.Context) (int, error)
}

// RateSyncHandler handles rate sync workflow HTTP requests.
type RateSyncHandler struct {
	syncUC RateSyncService
}

// NewRateSyncHandler creates a new RateSyncHandler.
func NewRateSyncHandler(syncUC RateSyncService) *RateSyncHandler {
	return &RateSyncHandler{syncUC: syncUC}
}

// Initiate fetches feed rates and stages them as a pending request.
func (h *RateSyncHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req dto.InitiateSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	request, err := h.syncUC.InitiateSync(r.Context(), usecase.InitiateSyncInput{
		BaseCurrency: req.BaseCurrency,
		Targets:      req.Targets,
		Actor:        domain.ActorID(r.Context()),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to initiate rate sync", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.RateRequestFromDomain(request))
}

// Approve applies a pending request's rates to the timeline.
func (h *RateSyncHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "approve", h.syncUC.Approve)
}

// Reject declines a pending request.
func (h *RateSyncHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "reject", h.syncUC.Reject)
}

type reviewFunc func(ctx context.Context, input usecase.ReviewInput) (*domain.RateUpdateRequest, error)

func (h *RateSyncHandler) review(w http.ResponseWriter, r *http.Request, verb string, apply reviewFunc) {
	var req dto.ReviewRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	request, err := apply(r.Context(), usecase.ReviewInput{
		RequestID: chi.URLParam(r, "id"),
		Actor:     domain.ActorID(r.Context()),
		Notes:     req.Notes,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to "+verb+" request", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RateRequestFromDomain(request))
}

// Sweep expires stale pending requests on demand, ahead of the
// background sweeper's next tick.
func (h *RateSyncHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	expired, err := h.syncUC.SweepExpired(r.Context())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to sweep expired requests", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SweepResponse{Expired: expired})
}

// Get retrieves a rate update request.
func (h *RateSyncHandler) Get(w http.ResponseWriter, r *http.Request) {
	request, err := h.syncUC.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get request", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RateRequestFromDomain(request))
}

// List lists rate update requests, optionally filtered by status.
func (h *RateSyncHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *domain.UpdateRequestStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.UpdateRequestStatus(raw)
		status = &s
	}

	requests, err := h.syncUC.ListRequests(r.Context(), status,
		parseIntQuery(r, "limit", 50), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list requests", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.RateRequestsFromDomain(requests)))
}
