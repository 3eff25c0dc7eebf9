package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxoffice/internal/domain"
	"github.com/iho/fxoffice/internal/infrastructure/metrics"
)

// RateTimelineUseCase owns the interval-versioned exchange rate timeline
// and the currency registry. Rates are never mutated in place: setting a
// rate closes the pair's open interval and opens a new one, so
// point-in-time queries and the audit trail fall out of the data model.
type RateTimelineUseCase struct {
	txManager    TransactionManager
	currencyRepo CurrencyRepository
	rateRepo     RateRepository
	locker       KeyLocker
	idGen        IDGenerator
	clock        Clock
	metrics      *metrics.Metrics
}

// NewRateTimelineUseCase creates a new RateTimelineUseCase.
func NewRateTimelineUseCase(
	txManager TransactionManager,
	currencyRepo CurrencyRepository,
	rateRepo RateRepository,
	locker KeyLocker,
	idGen IDGenerator,
	clock Clock,
	metrics *metrics.Metrics,
) *RateTimelineUseCase {
	return &RateTimelineUseCase{
		txManager:    txManager,
		currencyRepo: currencyRepo,
		rateRepo:     rateRepo,
		locker:       locker,
		idGen:        idGen,
		clock:        clock,
		metrics:      metrics,
	}
}

// SetRateInput represents input for setting an exchange rate.
type SetRateInput struct {
	From          string
	To            string
	Rate          decimal.Decimal
	BuyRate       *decimal.Decimal
	SellRate      *decimal.Decimal
	EffectiveFrom *time.Time // defaults to now
	Actor         string
	Notes         string
}

// SetRate atomically supersedes the pair's current rate: the open
// interval (if any) is closed at effectiveFrom, the new open-ended row
// is inserted, and exactly one history row records the old→new triad.
func (uc *RateTimelineUseCase) SetRate(ctx context.Context, input SetRateInput) (*domain.ExchangeRate, error) {
	pair, err := domain.NewRatePair(input.From, input.To)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()

	effectiveFrom := now
	if input.EffectiveFrom != nil {
		effectiveFrom = input.EffectiveFrom.UTC()
	}

	rate := &domain.ExchangeRate{
		ID:            uc.idGen.Generate(),
		Pair:          pair,
		Rate:          input.Rate,
		BuyRate:       input.BuyRate,
		SellRate:      input.SellRate,
		EffectiveFrom: effectiveFrom,
		SetBy:         input.Actor,
		Notes:         input.Notes,
		CreatedAt:     now,
	}

	// Reject bad input before touching the store.
	if err := rate.Validate(); err != nil {
		return nil, err
	}

	fromCurrency, err := uc.activeCurrency(ctx, pair.From)
	if err != nil {
		return nil, err
	}

	toCurrency, err := uc.activeCurrency(ctx, pair.To)
	if err != nil {
		return nil, err
	}

	rate.FromCurrencyID = fromCurrency.ID
	rate.ToCurrencyID = toCurrency.ID

	release, err := uc.locker.Acquire(ctx, "rate:"+pair.Key())
	if err != nil {
		return nil, err
	}
	defer release()

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	history := &domain.ExchangeRateHistory{
		ID:          uc.idGen.Generate(),
		Pair:        pair,
		NewRate:     rate.Rate,
		NewBuyRate:  rate.BuyRate,
		NewSellRate: rate.SellRate,
		ChangeType:  domain.RateChangeCreated,
		ChangedBy:   input.Actor,
		ChangedAt:   now,
		Reason:      input.Notes,
	}

	open, err := uc.rateRepo.GetOpenForUpdate(txCtx, tx, pair)
	switch {
	case err == nil:
		// A new rate must strictly follow the open interval's start;
		// anything else signals clock skew or out-of-order submission.
		if !effectiveFrom.After(open.EffectiveFrom) {
			return nil, fmt.Errorf("%w: open interval starts at %s, new rate effective at %s",
				domain.ErrOutOfOrderEffectiveDate, open.EffectiveFrom, effectiveFrom)
		}

		if err := uc.rateRepo.CloseInterval(txCtx, tx, open.ID, effectiveFrom); err != nil {
			return nil, err
		}

		history.ChangeType = domain.RateChangeUpdated
		history.OldRate = &open.Rate
		history.OldBuyRate = open.BuyRate
		history.OldSellRate = open.SellRate
	case errors.Is(err, domain.ErrNoRateFound):
		// First rate for the pair.
	default:
		return nil, err
	}

	if err := uc.rateRepo.Create(txCtx, tx, rate); err != nil {
		return nil, err
	}

	history.ExchangeRateID = rate.ID
	if err := uc.rateRepo.CreateHistory(txCtx, tx, history); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.RatesSet.WithLabelValues(string(history.ChangeType)).Inc()
	}

	return rate, nil
}

// DeactivateRate closes the pair's open interval without opening a new
// one, leaving the pair with no current rate.
func (uc *RateTimelineUseCase) DeactivateRate(ctx context.Context, from, to, actor, reason string) error {
	pair, err := domain.NewRatePair(from, to)
	if err != nil {
		return err
	}

	release, err := uc.locker.Acquire(ctx, "rate:"+pair.Key())
	if err != nil {
		return err
	}
	defer release()

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	open, err := uc.rateRepo.GetOpenForUpdate(txCtx, tx, pair)
	if err != nil {
		return err
	}

	now := uc.clock.Now()
	if err := uc.rateRepo.CloseInterval(txCtx, tx, open.ID, now); err != nil {
		return err
	}

	history := &domain.ExchangeRateHistory{
		ID:             uc.idGen.Generate(),
		ExchangeRateID: open.ID,
		Pair:           pair,
		OldRate:        &open.Rate,
		OldBuyRate:     open.BuyRate,
		OldSellRate:    open.SellRate,
		NewRate:        open.Rate,
		NewBuyRate:     open.BuyRate,
		NewSellRate:    open.SellRate,
		ChangeType:     domain.RateChangeDeactivated,
		ChangedBy:      actor,
		ChangedAt:      now,
		Reason:         reason,
	}

	if err := uc.rateRepo.CreateHistory(txCtx, tx, history); err != nil {
		return err
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.RatesSet.WithLabelValues(string(domain.RateChangeDeactivated)).Inc()
	}

	return nil
}

// GetCurrentRate returns the rate whose interval covers asOf (now when
// nil). When no direct row covers the instant, the inverse pair is
// consulted and its algebraic inverse returned.
func (uc *RateTimelineUseCase) GetCurrentRate(ctx context.Context, from, to string, asOf *time.Time) (*domain.ExchangeRate, error) {
	pair, err := domain.NewRatePair(from, to)
	if err != nil {
		return nil, err
	}

	at := uc.clock.Now()
	if asOf != nil {
		at = asOf.UTC()
	}

	rate, err := uc.rateRepo.GetAt(ctx, pair, at)
	if err == nil {
		return rate, nil
	}

	if !errors.Is(err, domain.ErrNoRateFound) {
		return nil, err
	}

	inverse, invErr := uc.rateRepo.GetAt(ctx, pair.Inverse(), at)
	if invErr != nil {
		if errors.Is(invErr, domain.ErrNoRateFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNoRateFound, pair.Key())
		}
		return nil, invErr
	}

	return inverse.Inverse(), nil
}

// GetHistoryInput represents input for querying rate history.
type GetHistoryInput struct {
	From   string
	To     string
	Range  domain.TimeRange
	Limit  int
	Offset int
}

// GetHistory lists the pair's audit history, newest first.
func (uc *RateTimelineUseCase) GetHistory(ctx context.Context, input GetHistoryInput) ([]*domain.ExchangeRateHistory, error) {
	pair, err := domain.NewRatePair(input.From, input.To)
	if err != nil {
		return nil, err
	}

	if err := input.Range.Validate(); err != nil {
		return nil, err
	}

	limit, offset, _ := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.rateRepo.ListHistory(ctx, pair, input.Range, limit, offset)
}

// CalculateExchangeInput represents input for a conversion quote.
type CalculateExchangeInput struct {
	From   string
	To     string
	Amount decimal.Decimal
	Side   domain.RateSide
	AsOf   *time.Time
}

// CalculateExchangeResult is a conversion quote.
type CalculateExchangeResult struct {
	Rate      *domain.ExchangeRate
	Amount    decimal.Decimal
	Converted decimal.Decimal
}

// CalculateExchange converts an amount using the rate effective at AsOf,
// rounded to the target currency's precision.
func (uc *RateTimelineUseCase) CalculateExchange(ctx context.Context, input CalculateExchangeInput) (*CalculateExchangeResult, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	rate, err := uc.GetCurrentRate(ctx, input.From, input.To, input.AsOf)
	if err != nil {
		return nil, err
	}

	toCurrency, err := uc.currencyRepo.GetByCode(ctx, rate.Pair.To)
	if err != nil {
		return nil, err
	}

	converted := rate.Convert(input.Amount, input.Side).Round(int32(toCurrency.DecimalPlaces))

	return &CalculateExchangeResult{
		Rate:      rate,
		Amount:    input.Amount,
		Converted: converted,
	}, nil
}

// SetBaseCurrency flags the currency as the system base, clearing any
// prior base flag in the same unit of work so the single-base invariant
// holds at every commit point.
func (uc *RateTimelineUseCase) SetBaseCurrency(ctx context.Context, currencyID, actor string) error {
	release, err := uc.locker.Acquire(ctx, "currency:base")
	if err != nil {
		return err
	}
	defer release()

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	currency, err := uc.currencyRepo.GetByIDForUpdate(txCtx, tx, currencyID)
	if err != nil {
		return err
	}

	if !currency.Active {
		return fmt.Errorf("%w: %s", domain.ErrCurrencyInactive, currency.Code)
	}

	now := uc.clock.Now()

	current, err := uc.currencyRepo.GetBaseForUpdate(txCtx, tx)
	switch {
	case err == nil:
		if current.ID == currency.ID {
			return tx.Commit(txCtx) // already the base, nothing to do
		}
		if err := uc.currencyRepo.SetBaseFlag(txCtx, tx, current.ID, false, now); err != nil {
			return err
		}
	case errors.Is(err, domain.ErrCurrencyNotFound):
		// No base currency yet.
	default:
		return err
	}

	if err := uc.currencyRepo.SetBaseFlag(txCtx, tx, currency.ID, true, now); err != nil {
		// The partial unique index surfaces a concurrent violation here.
		return err
	}

	return tx.Commit(txCtx)
}

// CreateCurrencyInput represents input for registering a currency.
type CreateCurrencyInput struct {
	Code          string
	NameEN        string
	NameAR        string
	Symbol        string
	DecimalPlaces int
}

// CreateCurrency registers a currency.
func (uc *RateTimelineUseCase) CreateCurrency(ctx context.Context, input CreateCurrencyInput) (*domain.Currency, error) {
	now := uc.clock.Now()

	currency := &domain.Currency{
		ID:            uc.idGen.Generate(),
		Code:          domain.NormalizeCurrencyCode(input.Code),
		NameEN:        input.NameEN,
		NameAR:        input.NameAR,
		Symbol:        input.Symbol,
		DecimalPlaces: input.DecimalPlaces,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := currency.Validate(); err != nil {
		return nil, err
	}

	if _, err := uc.currencyRepo.GetByCode(ctx, currency.Code); err == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCurrencyExists, currency.Code)
	} else if !errors.Is(err, domain.ErrCurrencyNotFound) {
		return nil, err
	}

	if err := uc.currencyRepo.Create(ctx, currency); err != nil {
		return nil, err
	}

	return currency, nil
}

// GetCurrency looks up a currency by code.
func (uc *RateTimelineUseCase) GetCurrency(ctx context.Context, code string) (*domain.Currency, error) {
	return uc.currencyRepo.GetByCode(ctx, domain.NormalizeCurrencyCode(code))
}

// ListCurrenciesInput represents input for listing currencies.
type ListCurrenciesInput struct {
	IncludeInactive bool
	Limit           int
	Offset          int
}

// ListCurrencies lists registered currencies.
func (uc *RateTimelineUseCase) ListCurrencies(ctx context.Context, input ListCurrenciesInput) ([]*domain.Currency, error) {
	limit, offset, _ := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.currencyRepo.List(ctx, input.IncludeInactive, limit, offset)
}

func (uc *RateTimelineUseCase) activeCurrency(ctx context.Context, code string) (*domain.Currency, error) {
	currency, err := uc.currencyRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if !currency.Active {
		return nil, fmt.Errorf("%w: %s", domain.ErrCurrencyInactive, code)
	}

	return currency, nil
}
