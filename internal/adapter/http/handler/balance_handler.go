package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/fxoffice/internal/adapter/http/dto"
	"github.com/iho/fxoffice/internal/domain"
	"github.com/iho/fxoffice/internal/usecase"
)

// BalanceService defines the behavior needed by BalanceHandler.
type BalanceService interface {
	Credit(ctx context.Context, input usecase.MovementInput) (*domain.BranchBalance, error)
	Debit(ctx context.Context, input usecase.MovementInput) (*domain.BranchBalance, error)
	Reserve(ctx context.Context, input usecase.MovementInput) (*domain.BranchBalance, error)
	Release(ctx context.Context, input usecase.MovementInput) (*domain.BranchBalance, error)
	CommitReserved(ctx context.Context, input usecase.MovementInput) (*domain.BranchBalance, error)
	Adjust(ctx context.Context, input usecase.AdjustInput) (*domain.BranchBalance, error)
	Reconcile(ctx context.Context, branchID, currencyID, actor string) (*domain.ReconciliationReport, error)
	SetThresholds(ctx context.Context, input usecase.SetThresholdsInput) (*domain.BranchBalance, error)
	GetBalance(ctx context.Context, branchID, currencyID string) (*domain.BranchBalance, error)
	ListBalances(ctx context.Context, branchID string, limit, offset int) ([]*domain.BranchBalance, error)
	GetHistory(ctx context.Context, input usecase.GetBalanceHistoryInput) ([]*domain.BalanceChange, error)
}

// BalanceHandler handles branch balance HTTP requests.
type BalanceHandler struct {
	ledgerUC BalanceService
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(ledgerUC BalanceService) *BalanceHandler {
	return &BalanceHandler{ledgerUC: ledgerUC}
}

type movementFunc func(ctx context.Context, input usecase.MovementInput) (*domain.BranchBalance, error)

func (h *BalanceHandler) movement(w http.ResponseWriter, r *http.Request, verb string, apply movementFunc) {
	var req dto.MovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	input := req.ToUseCaseInput(chi.URLParam(r, "branchID"), chi.URLParam(r, "currency"), domain.ActorID(r.Context()))

	balance, err := apply(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to "+verb, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}

// Credit increases a branch balance.
func (h *BalanceHandler) Credit(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, "credit balance", h.ledgerUC.Credit)
}

// Debit decreases a branch balance.
func (h *BalanceHandler) Debit(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, "debit balance", h.ledgerUC.Debit)
}

// Reserve earmarks funds without moving them.
func (h *BalanceHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, "reserve funds", h.ledgerUC.Reserve)
}

// Release returns reserved funds to the available pool.
func (h *BalanceHandler) Release(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, "release funds", h.ledgerUC.Release)
}

// CommitReserved debits previously reserved funds.
func (h *BalanceHandler) CommitReserved(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, "commit reserved funds", h.ledgerUC.CommitReserved)
}

// Adjust applies a signed administrative correction.
func (h *BalanceHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req dto.AdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	balance, err := h.ledgerUC.Adjust(r.Context(), usecase.AdjustInput{
		BranchID:   chi.URLParam(r, "branchID"),
		CurrencyID: chi.URLParam(r, "currency"),
		Amount:     req.Amount,
		Actor:      domain.ActorID(r.Context()),
		Notes:      req.Notes,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to adjust balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}

// Reconcile recomputes the balance from its history and reports drift.
// A mismatch is reported with 409 alongside the full report; the stored
// balance is never rewritten here.
func (h *BalanceHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledgerUC.Reconcile(r.Context(), chi.URLParam(r, "branchID"), chi.URLParam(r, "currency"), domain.ActorID(r.Context()))
	if err != nil {
		var mismatch *domain.ReconciliationMismatch
		if errors.As(err, &mismatch) && report != nil {
			writeJSON(w, http.StatusConflict, dto.ReconciliationFromDomain(report))
			return
		}
		writeError(w, mapDomainError(err), "failed to reconcile balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromDomain(report))
}

// SetThresholds configures alert thresholds for a balance.
func (h *BalanceHandler) SetThresholds(w http.ResponseWriter, r *http.Request) {
	var req dto.SetThresholdsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	balance, err := h.ledgerUC.SetThresholds(r.Context(), usecase.SetThresholdsInput{
		BranchID:   chi.URLParam(r, "branchID"),
		CurrencyID: chi.URLParam(r, "currency"),
		Min:        req.MinThreshold,
		Max:        req.MaxThreshold,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to set thresholds", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}

// Get retrieves one branch balance.
func (h *BalanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	balance, err := h.ledgerUC.GetBalance(r.Context(), chi.URLParam(r, "branchID"), chi.URLParam(r, "currency"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}

// List lists a branch's balances across currencies.
func (h *BalanceHandler) List(w http.ResponseWriter, r *http.Request) {
	balances, err := h.ledgerUC.ListBalances(r.Context(), chi.URLParam(r, "branchID"),
		parseIntQuery(r, "limit", 50), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list balances", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.BalancesFromDomain(balances)))
}

// History lists the balance change log.
func (h *BalanceHandler) History(w http.ResponseWriter, r *http.Request) {
	tr, err := timeRangeQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid time range", err.Error())
		return
	}

	changes, err := h.ledgerUC.GetHistory(r.Context(), usecase.GetBalanceHistoryInput{
		BranchID:   chi.URLParam(r, "branchID"),
		CurrencyID: chi.URLParam(r, "currency"),
		Range:      tr,
		Limit:      parseIntQuery(r, "limit", 50),
		Offset:     parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance history", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.BalanceChangesFromDomain(changes)))
}
