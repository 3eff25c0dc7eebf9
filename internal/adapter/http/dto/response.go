package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxoffice/internal/domain"
	"github.com/iho/fxoffice/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// CurrencyResponse represents a currency in API responses.
type CurrencyResponse struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"`
	NameEN        string    `json:"name_en"`
	NameAR        string    `json:"name_ar,omitempty"`
	Symbol        string    `json:"symbol,omitempty"`
	DecimalPlaces int       `json:"decimal_places"`
	IsBase        bool      `json:"is_base"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CurrencyFromDomain converts a domain currency to a response.
func CurrencyFromDomain(c *domain.Currency) *CurrencyResponse {
	return &CurrencyResponse{
		ID:            c.ID,
		Code:          c.Code,
		NameEN:        c.NameEN,
		NameAR:        c.NameAR,
		Symbol:        c.Symbol,
		DecimalPlaces: c.DecimalPlaces,
		IsBase:        c.IsBase,
		Active:        c.Active,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// CurrenciesFromDomain converts domain currencies to responses.
func CurrenciesFromDomain(currencies []*domain.Currency) []*CurrencyResponse {
	result := make([]*CurrencyResponse, len(currencies))
	for i, c := range currencies {
		result[i] = CurrencyFromDomain(c)
	}
	return result
}

// RateResponse represents an exchange rate in API responses.
type RateResponse struct {
	ID            string           `json:"id,omitempty"`
	FromCurrency  string           `json:"from_currency"`
	ToCurrency    string           `json:"to_currency"`
	Rate          decimal.Decimal  `json:"rate"`
	BuyRate       *decimal.Decimal `json:"buy_rate,omitempty"`
	SellRate      *decimal.Decimal `json:"sell_rate,omitempty"`
	EffectiveFrom time.Time        `json:"effective_from"`
	EffectiveTo   *time.Time       `json:"effective_to,omitempty"`
	SetBy         string           `json:"set_by,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	Inverted      bool             `json:"inverted,omitempty"`
}

// RateFromDomain converts a domain rate to a response.
func RateFromDomain(r *domain.ExchangeRate) *RateResponse {
	return &RateResponse{
		ID:            r.ID,
		FromCurrency:  r.Pair.From,
		ToCurrency:    r.Pair.To,
		Rate:          r.Rate,
		BuyRate:       r.BuyRate,
		SellRate:      r.SellRate,
		EffectiveFrom: r.EffectiveFrom,
		EffectiveTo:   r.EffectiveTo,
		SetBy:         r.SetBy,
		Notes:         r.Notes,
		Inverted:      r.Inverted,
	}
}

// RateHistoryResponse represents one rate audit record.
type RateHistoryResponse struct {
	ID           string           `json:"id"`
	FromCurrency string           `json:"from_currency"`
	ToCurrency   string           `json:"to_currency"`
	OldRate      *decimal.Decimal `json:"old_rate,omitempty"`
	NewRate      decimal.Decimal  `json:"new_rate"`
	ChangeType   string           `json:"change_type"`
	ChangePct    decimal.Decimal  `json:"change_percentage"`
	ChangedBy    string           `json:"changed_by"`
	ChangedAt    time.Time        `json:"changed_at"`
	Reason       string           `json:"reason,omitempty"`
}

// RateHistoryFromDomain converts domain history rows to responses.
func RateHistoryFromDomain(rows []*domain.ExchangeRateHistory) []*RateHistoryResponse {
	result := make([]*RateHistoryResponse, len(rows))
	for i, h := range rows {
		result[i] = &RateHistoryResponse{
			ID:           h.ID,
			FromCurrency: h.Pair.From,
			ToCurrency:   h.Pair.To,
			OldRate:      h.OldRate,
			NewRate:      h.NewRate,
			ChangeType:   string(h.ChangeType),
			ChangePct:    h.ChangePercentage(),
			ChangedBy:    h.ChangedBy,
			ChangedAt:    h.ChangedAt,
			Reason:       h.Reason,
		}
	}
	return result
}

// ExchangeQuoteResponse represents a conversion quote.
type ExchangeQuoteResponse struct {
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	Rate         decimal.Decimal `json:"rate"`
	Amount       decimal.Decimal `json:"amount"`
	Converted    decimal.Decimal `json:"converted"`
	Inverted     bool            `json:"inverted,omitempty"`
}

// QuoteFromResult converts a calculation result to a response.
func QuoteFromResult(r *usecase.CalculateExchangeResult) *ExchangeQuoteResponse {
	return &ExchangeQuoteResponse{
		FromCurrency: r.Rate.Pair.From,
		ToCurrency:   r.Rate.Pair.To,
		Rate:         r.Rate.Rate,
		Amount:       r.Amount,
		Converted:    r.Converted,
		Inverted:     r.Rate.Inverted,
	}
}

// BalanceResponse represents a branch balance in API responses.
type BalanceResponse struct {
	ID               string           `json:"id"`
	BranchID         string           `json:"branch_id"`
	Currency         string           `json:"currency"`
	Balance          decimal.Decimal  `json:"balance"`
	Reserved         decimal.Decimal  `json:"reserved"`
	Available        decimal.Decimal  `json:"available"`
	MinThreshold     *decimal.Decimal `json:"min_threshold,omitempty"`
	MaxThreshold     *decimal.Decimal `json:"max_threshold,omitempty"`
	Active           bool             `json:"active"`
	LastUpdated      time.Time        `json:"last_updated"`
	LastReconciledAt *time.Time       `json:"last_reconciled_at,omitempty"`
}

// BalanceFromDomain converts a domain balance to a response.
func BalanceFromDomain(b *domain.BranchBalance) *BalanceResponse {
	return &BalanceResponse{
		ID:               b.ID,
		BranchID:         b.BranchID,
		Currency:         b.CurrencyID,
		Balance:          b.Balance,
		Reserved:         b.Reserved,
		Available:        b.Available(),
		MinThreshold:     b.MinThreshold,
		MaxThreshold:     b.MaxThreshold,
		Active:           b.Active,
		LastUpdated:      b.LastUpdated,
		LastReconciledAt: b.LastReconciledAt,
	}
}

// BalancesFromDomain converts domain balances to responses.
func BalancesFromDomain(balances []*domain.BranchBalance) []*BalanceResponse {
	result := make([]*BalanceResponse, len(balances))
	for i, b := range balances {
		result[i] = BalanceFromDomain(b)
	}
	return result
}

// BalanceChangeResponse represents one balance history row.
type BalanceChangeResponse struct {
	ID            string          `json:"id"`
	BranchID      string          `json:"branch_id"`
	Currency      string          `json:"currency"`
	ChangeType    string          `json:"change_type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	ReferenceType string          `json:"reference_type,omitempty"`
	PerformedBy   string          `json:"performed_by"`
	PerformedAt   time.Time       `json:"performed_at"`
	Notes         string          `json:"notes,omitempty"`
}

// BalanceChangesFromDomain converts domain history rows to responses.
func BalanceChangesFromDomain(changes []*domain.BalanceChange) []*BalanceChangeResponse {
	result := make([]*BalanceChangeResponse, len(changes))
	for i, c := range changes {
		result[i] = &BalanceChangeResponse{
			ID:            c.ID,
			BranchID:      c.BranchID,
			Currency:      c.CurrencyID,
			ChangeType:    string(c.ChangeType),
			Amount:        c.Amount,
			BalanceBefore: c.BalanceBefore,
			BalanceAfter:  c.BalanceAfter,
			ReferenceID:   c.ReferenceID,
			ReferenceType: c.ReferenceType,
			PerformedBy:   c.PerformedBy,
			PerformedAt:   c.PerformedAt,
			Notes:         c.Notes,
		}
	}
	return result
}

// ReconciliationResponse represents a reconciliation outcome.
type ReconciliationResponse struct {
	BranchID        string          `json:"branch_id"`
	Currency        string          `json:"currency"`
	StoredBalance   decimal.Decimal `json:"stored_balance"`
	ComputedBalance decimal.Decimal `json:"computed_balance"`
	Difference      decimal.Decimal `json:"difference"`
	EntriesFolded   int             `json:"entries_folded"`
	Matched         bool            `json:"matched"`
	PerformedBy     string          `json:"performed_by"`
	CheckedAt       time.Time       `json:"checked_at"`
}

// ReconciliationFromDomain converts a report to a response.
func ReconciliationFromDomain(r *domain.ReconciliationReport) *ReconciliationResponse {
	return &ReconciliationResponse{
		BranchID:        r.BranchID,
		Currency:        r.CurrencyID,
		StoredBalance:   r.StoredBalance,
		ComputedBalance: r.ComputedBalance,
		Difference:      r.Difference,
		EntriesFolded:   r.EntriesFolded,
		Matched:         r.Matched,
		PerformedBy:     r.PerformedBy,
		CheckedAt:       r.CheckedAt,
	}
}

// AlertResponse represents a branch alert in API responses.
type AlertResponse struct {
	ID              string     `json:"id"`
	BranchID        string     `json:"branch_id"`
	Currency        *string    `json:"currency,omitempty"`
	Type            string     `json:"type"`
	Severity        string     `json:"severity"`
	Title           string     `json:"title"`
	Message         string     `json:"message"`
	Resolved        bool       `json:"resolved"`
	TriggeredAt     time.Time  `json:"triggered_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy      *string    `json:"resolved_by,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`
}

// AlertFromDomain converts a domain alert to a response.
func AlertFromDomain(a *domain.BranchAlert) *AlertResponse {
	return &AlertResponse{
		ID:              a.ID,
		BranchID:        a.BranchID,
		Currency:        a.CurrencyID,
		Type:            string(a.Type),
		Severity:        string(a.Severity),
		Title:           a.Title,
		Message:         a.Message,
		Resolved:        a.Resolved,
		TriggeredAt:     a.TriggeredAt,
		ResolvedAt:      a.ResolvedAt,
		ResolvedBy:      a.ResolvedBy,
		ResolutionNotes: a.ResolutionNotes,
	}
}

// AlertsFromDomain converts domain alerts to responses.
func AlertsFromDomain(alerts []*domain.BranchAlert) []*AlertResponse {
	result := make([]*AlertResponse, len(alerts))
	for i, a := range alerts {
		result[i] = AlertFromDomain(a)
	}
	return result
}

// FetchedRateResponse represents one captured pair inside a rate update
// request.
type FetchedRateResponse struct {
	FromCurrency string           `json:"from_currency"`
	ToCurrency   string           `json:"to_currency"`
	FetchedRate  decimal.Decimal  `json:"fetched_rate"`
	CurrentRate  *decimal.Decimal `json:"current_rate,omitempty"`
	Change       *decimal.Decimal `json:"change,omitempty"`
	ChangePct    *decimal.Decimal `json:"change_percentage,omitempty"`
	Source       string           `json:"source"`
}

// RateRequestResponse represents a rate update request in API responses.
type RateRequestResponse struct {
	ID                string                         `json:"id"`
	Status            string                         `json:"status"`
	Source            string                         `json:"source"`
	BaseCurrency      string                         `json:"base_currency"`
	FetchedRates      map[string]FetchedRateResponse `json:"fetched_rates"`
	RequestedBy       string                         `json:"requested_by"`
	RequestedAt       time.Time                      `json:"requested_at"`
	ExpiresAt         time.Time                      `json:"expires_at"`
	ReviewedBy        *string                        `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time                     `json:"reviewed_at,omitempty"`
	ReviewNotes       string                         `json:"review_notes,omitempty"`
	RatesAppliedCount int                            `json:"rates_applied_count"`
	ErrorMessage      string                         `json:"error_message,omitempty"`
}

// RateRequestFromDomain converts a domain request to a response.
func RateRequestFromDomain(r *domain.RateUpdateRequest) *RateRequestResponse {
	rates := make(map[string]FetchedRateResponse, len(r.FetchedRates))
	for key, fr := range r.FetchedRates {
		rates[key] = FetchedRateResponse{
			FromCurrency: fr.FromCurrency,
			ToCurrency:   fr.ToCurrency,
			FetchedRate:  fr.FetchedRate,
			CurrentRate:  fr.CurrentRate,
			Change:       fr.Change,
			ChangePct:    fr.ChangePct,
			Source:       fr.Source,
		}
	}
	return &RateRequestResponse{
		ID:                r.ID,
		Status:            string(r.Status),
		Source:            r.Source,
		BaseCurrency:      r.BaseCurrency,
		FetchedRates:      rates,
		RequestedBy:       r.RequestedBy,
		RequestedAt:       r.RequestedAt,
		ExpiresAt:         r.ExpiresAt,
		ReviewedBy:        r.ReviewedBy,
		ReviewedAt:        r.ReviewedAt,
		ReviewNotes:       r.ReviewNotes,
		RatesAppliedCount: r.RatesAppliedCount,
		ErrorMessage:      r.ErrorMessage,
	}
}

// RateRequestsFromDomain converts domain requests to responses.
func RateRequestsFromDomain(requests []*domain.RateUpdateRequest) []*RateRequestResponse {
	result := make([]*RateRequestResponse, len(requests))
	for i, r := range requests {
		result[i] = RateRequestFromDomain(r)
	}
	return result
}

// SweepResponse reports an on-demand expiry sweep.
type SweepResponse struct {
	Expired int `json:"expired"`
}

// ListResponse wraps a list payload with its length.
type ListResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

// NewListResponse builds a ListResponse from items.
func NewListResponse[T any](items []T) ListResponse[T] {
	return ListResponse[T]{Items: items, Total: int64(len(items))}
}
