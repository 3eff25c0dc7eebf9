package dto

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"

	"github.com/iho/fxoffice/internal/domain"
	"github.com/iho/fxoffice/internal/usecase"
)

// CreateCurrencyRequest represents a request to register a currency.
type CreateCurrencyRequest struct {
	Code          string `json:"code"`
	NameEN        string `json:"name_en"`
	NameAR        string `json:"name_ar,omitempty"`
	Symbol        string `json:"symbol,omitempty"`
	DecimalPlaces int    `json:"decimal_places"`
}

// Validate checks the request fields.
func (r CreateCurrencyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.Length(3, 3), is.UpperCase),
		validation.Field(&r.NameEN, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.DecimalPlaces, validation.Min(0), validation.Max(8)),
	)
}

// ToUseCaseInput converts to use case input.
func (r CreateCurrencyRequest) ToUseCaseInput() usecase.CreateCurrencyInput {
	return usecase.CreateCurrencyInput{
		Code:          r.Code,
		NameEN:        r.NameEN,
		NameAR:        r.NameAR,
		Symbol:        r.Symbol,
		DecimalPlaces: r.DecimalPlaces,
	}
}

// SetRateRequest represents a request to set a pair's exchange rate.
type SetRateRequest struct {
	From          string           `json:"from_currency"`
	To            string           `json:"to_currency"`
	Rate          decimal.Decimal  `json:"rate"`
	BuyRate       *decimal.Decimal `json:"buy_rate,omitempty"`
	SellRate      *decimal.Decimal `json:"sell_rate,omitempty"`
	EffectiveFrom *time.Time       `json:"effective_from,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

// Validate checks the request fields.
func (r SetRateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.From, validation.Required, validation.Length(3, 3)),
		validation.Field(&r.To, validation.Required, validation.Length(3, 3)),
		validation.Field(&r.Rate, validation.By(positiveDecimal)),
	)
}

// ToUseCaseInput converts to use case input.
func (r SetRateRequest) ToUseCaseInput(actor string) usecase.SetRateInput {
	return usecase.SetRateInput{
		From:          r.From,
		To:            r.To,
		Rate:          r.Rate,
		BuyRate:       r.BuyRate,
		SellRate:      r.SellRate,
		EffectiveFrom: r.EffectiveFrom,
		Actor:         actor,
		Notes:         r.Notes,
	}
}

// DeactivateRateRequest closes a pair's current rate interval.
type DeactivateRateRequest struct {
	From   string `json:"from_currency"`
	To     string `json:"to_currency"`
	Reason string `json:"reason,omitempty"`
}

// Validate checks the request fields.
func (r DeactivateRateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.From, validation.Required, validation.Length(3, 3)),
		validation.Field(&r.To, validation.Required, validation.Length(3, 3)),
	)
}

// CalculateExchangeRequest represents a conversion quote request.
type CalculateExchangeRequest struct {
	From   string          `json:"from_currency"`
	To     string          `json:"to_currency"`
	Amount decimal.Decimal `json:"amount"`
	Side   string          `json:"side,omitempty"` // buy, sell or empty for mid
	AsOf   *time.Time      `json:"as_of,omitempty"`
}

// Validate checks the request fields.
func (r CalculateExchangeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.From, validation.Required, validation.Length(3, 3)),
		validation.Field(&r.To, validation.Required, validation.Length(3, 3)),
		validation.Field(&r.Amount, validation.By(positiveDecimal)),
		validation.Field(&r.Side, validation.In("", "mid", "buy", "sell")),
	)
}

// ToUseCaseInput converts to use case input.
func (r CalculateExchangeRequest) ToUseCaseInput() usecase.CalculateExchangeInput {
	side := domain.RateSideMid
	switch r.Side {
	case "buy":
		side = domain.RateSideBuy
	case "sell":
		side = domain.RateSideSell
	}
	return usecase.CalculateExchangeInput{
		From:   r.From,
		To:     r.To,
		Amount: r.Amount,
		Side:   side,
		AsOf:   r.AsOf,
	}
}

// MovementRequest represents a balance movement (credit, debit, reserve,
// release or commit).
type MovementRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	ChangeType    string          `json:"change_type,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	ReferenceType string          `json:"reference_type,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	AvailableOnly bool            `json:"available_only,omitempty"`
}

// Validate checks the request fields.
func (r MovementRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Amount, validation.By(positiveDecimal)),
		validation.Field(&r.ChangeType, validation.In("",
			string(domain.BalanceChangeTransaction),
			string(domain.BalanceChangeTransferIn),
			string(domain.BalanceChangeTransferOut),
			string(domain.BalanceChangeInitialBalance),
		)),
	)
}

// ToUseCaseInput converts to use case input.
func (r MovementRequest) ToUseCaseInput(branchID, currency, actor string) usecase.MovementInput {
	changeType := domain.BalanceChangeType(r.ChangeType)
	if r.ChangeType == "" {
		changeType = domain.BalanceChangeTransaction
	}
	return usecase.MovementInput{
		BranchID:      branchID,
		CurrencyID:    currency,
		Amount:        r.Amount,
		ChangeType:    changeType,
		ReferenceID:   r.ReferenceID,
		ReferenceType: r.ReferenceType,
		Actor:         actor,
		Notes:         r.Notes,
		AvailableOnly: r.AvailableOnly,
	}
}

// AdjustRequest represents a signed administrative correction.
type AdjustRequest struct {
	Amount decimal.Decimal `json:"amount"` // signed, non-zero
	Notes  string          `json:"notes,omitempty"`
}

// Validate checks the request fields.
func (r AdjustRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Amount, validation.By(nonZeroDecimal)),
		validation.Field(&r.Notes, validation.Required),
	)
}

// SetThresholdsRequest configures balance alert thresholds.
type SetThresholdsRequest struct {
	MinThreshold *decimal.Decimal `json:"min_threshold"`
	MaxThreshold *decimal.Decimal `json:"max_threshold"`
}

// InitiateSyncRequest starts a rate sync against the external feed.
type InitiateSyncRequest struct {
	BaseCurrency string   `json:"base_currency"`
	Targets      []string `json:"target_currencies"`
}

// Validate checks the request fields.
func (r InitiateSyncRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BaseCurrency, validation.Required, validation.Length(3, 3)),
		validation.Field(&r.Targets, validation.Required, validation.Length(1, 50),
			validation.Each(validation.Length(3, 3))),
	)
}

// ReviewRequest approves or rejects a pending rate update request.
type ReviewRequest struct {
	Notes string `json:"notes,omitempty"`
}

// ResolveAlertRequest resolves an open alert.
type ResolveAlertRequest struct {
	Notes string `json:"notes,omitempty"`
}

func positiveDecimal(value any) error {
	d, ok := value.(decimal.Decimal)
	if !ok || !d.IsPositive() {
		return validation.NewError("validation_positive", "must be a positive number")
	}
	return nil
}

func nonZeroDecimal(value any) error {
	d, ok := value.(decimal.Decimal)
	if !ok || d.IsZero() {
		return validation.NewError("validation_non_zero", "must be a non-zero number")
	}
	return nil
}
