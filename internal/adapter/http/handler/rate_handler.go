package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/fxoffice/internal/adapter/http/dto"
	"github.com/iho/fxoffice/internal/domain"
	"github.com/iho/fxoffice/internal/usecase"
)

// RateService defines the behavior needed by RateHandler.
type RateService interface {
	CreateCurrency(ctx context.Context, input usecase.CreateCurrencyInput) (*domain.Currency, error)
	GetCurrency(ctx context.Context, code string) (*domain.Currency, error)
	ListCurrencies(ctx context.Context, input usecase.ListCurrenciesInput) ([]*domain.Currency, error)
	SetBaseCurrency(ctx context.Context, currencyID, actor string) error
	SetRate(ctx context.Context, input usecase.SetRateInput) (*domain.ExchangeRate, error)
	GetCurrentRate(ctx context.Context, from, to string, asOf *time.Time) (*domain.ExchangeRate, error)
	DeactivateRate(ctx context.Context, from, to, actor, reason string) error
	GetHistory(ctx context.Context, input usecase.GetHistoryInput) ([]*domain.ExchangeRateHistory, error)
	CalculateExchange(ctx context.Context, input usecase.CalculateExchangeInput) (*usecase.CalculateExchangeResult, error)
}

// RateHandler handles currency and exchange rate HTTP requests.
type RateHandler struct {
	rateUC RateService
}

// NewRateHandler creates a new RateHandler.
func NewRateHandler(rateUC RateService) *RateHandler {
	return &RateHandler{rateUC: rateUC}
}

// CreateCurrency registers a currency.
func (h *RateHandler) CreateCurrency(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	currency, err := h.rateUC.CreateCurrency(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create currency", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.CurrencyFromDomain(currency))
}

// GetCurrency retrieves a currency by code.
func (h *RateHandler) GetCurrency(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	currency, err := h.rateUC.GetCurrency(r.Context(), code)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get currency", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.CurrencyFromDomain(currency))
}

// ListCurrencies lists registered currencies.
func (h *RateHandler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.rateUC.ListCurrencies(r.Context(), usecase.ListCurrenciesInput{
		IncludeInactive: parseBoolQuery(r, "include_inactive", false),
		Limit:           parseIntQuery(r, "limit", 50),
		Offset:          parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list currencies", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.CurrenciesFromDomain(currencies)))
}

// SetBaseCurrency flags a currency as the system base.
func (h *RateHandler) SetBaseCurrency(w http.ResponseWriter, r *http.Request) {
	currency, err := h.rateUC.GetCurrency(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get currency", err.Error())
		return
	}

	if err := h.rateUC.SetBaseCurrency(r.Context(), currency.ID, domain.ActorID(r.Context())); err != nil {
		writeError(w, mapDomainError(err), "failed to set base currency", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetRate sets a pair's exchange rate, superseding the current interval.
func (h *RateHandler) SetRate(w http.ResponseWriter, r *http.Request) {
	var req dto.SetRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	rate, err := h.rateUC.SetRate(r.Context(), req.ToUseCaseInput(domain.ActorID(r.Context())))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to set rate", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.RateFromDomain(rate))
}

// GetCurrentRate returns the rate effective now, or at as_of when given.
func (h *RateHandler) GetCurrentRate(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseTimeQuery(r, "as_of")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of", err.Error())
		return
	}

	rate, err := h.rateUC.GetCurrentRate(r.Context(), chi.URLParam(r, "from"), chi.URLParam(r, "to"), asOf)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get rate", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RateFromDomain(rate))
}

// DeactivateRate closes a pair's current rate interval.
func (h *RateHandler) DeactivateRate(w http.ResponseWriter, r *http.Request) {
	var req dto.DeactivateRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	if err := h.rateUC.DeactivateRate(r.Context(), req.From, req.To, domain.ActorID(r.Context()), req.Reason); err != nil {
		writeError(w, mapDomainError(err), "failed to deactivate rate", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetRateHistory lists a pair's audit history.
func (h *RateHandler) GetRateHistory(w http.ResponseWriter, r *http.Request) {
	tr, err := timeRangeQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid time range", err.Error())
		return
	}

	history, err := h.rateUC.GetHistory(r.Context(), usecase.GetHistoryInput{
		From:   chi.URLParam(r, "from"),
		To:     chi.URLParam(r, "to"),
		Range:  tr,
		Limit:  parseIntQuery(r, "limit", 50),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get rate history", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.RateHistoryFromDomain(history)))
}

// CalculateExchange quotes a conversion at the effective rate.
func (h *RateHandler) CalculateExchange(w http.ResponseWriter, r *http.Request) {
	var req dto.CalculateExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	result, err := h.rateUC.CalculateExchange(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to calculate exchange", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.QuoteFromResult(result))
}
