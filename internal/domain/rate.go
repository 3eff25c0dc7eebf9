package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RatePair is an ordered currency pair, identified by uppercase codes.
type RatePair struct {
	From string
	To   string
}

// NewRatePair builds a normalized pair, rejecting same-currency pairs.
func NewRatePair(from, to string) (RatePair, error) {
	p := RatePair{
		From: NormalizeCurrencyCode(from),
		To:   NormalizeCurrencyCode(to),
	}

	if err := ValidateCurrencyCode(p.From); err != nil {
		return RatePair{}, err
	}
	if err := ValidateCurrencyCode(p.To); err != nil {
		return RatePair{}, err
	}
	if p.From == p.To {
		return RatePair{}, ErrSameCurrency
	}

	return p, nil
}

// Key returns the canonical "FROM/TO" representation.
func (p RatePair) Key() string {
	return p.From + "/" + p.To
}

// Inverse returns the reversed pair.
func (p RatePair) Inverse() RatePair {
	return RatePair{From: p.To, To: p.From}
}

// ExchangeRate is one interval-versioned row of a pair's rate timeline.
// The interval [EffectiveFrom, EffectiveTo) is half-open; EffectiveTo == nil
// means the row is the pair's current rate.
type ExchangeRate struct {
	ID             string
	FromCurrencyID string
	ToCurrencyID   string
	Pair           RatePair
	Rate           decimal.Decimal
	BuyRate        *decimal.Decimal
	SellRate       *decimal.Decimal
	EffectiveFrom  time.Time
	EffectiveTo    *time.Time
	SetBy          string
	Notes          string
	CreatedAt      time.Time

	// Inverted is set when the rate was derived algebraically from the
	// opposite pair's stored row rather than read directly.
	Inverted bool
}

// Validate checks rate invariants before any write.
func (r *ExchangeRate) Validate() error {
	if r.Pair.From == r.Pair.To {
		return ErrSameCurrency
	}
	if r.Rate.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidRate
	}
	if r.BuyRate != nil && r.BuyRate.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidRate
	}
	if r.SellRate != nil && r.SellRate.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidRate
	}
	if r.EffectiveTo != nil && !r.EffectiveTo.After(r.EffectiveFrom) {
		return ErrOutOfOrderEffectiveDate
	}
	return nil
}

// Covers reports whether the rate's effective interval contains t.
func (r *ExchangeRate) Covers(t time.Time) bool {
	if t.Before(r.EffectiveFrom) {
		return false
	}
	return r.EffectiveTo == nil || t.Before(*r.EffectiveTo)
}

// Inverse returns the algebraic inverse rate (1/rate) for the reversed
// pair. Buy and sell swap sides: the inverse of a buy is a sell.
func (r *ExchangeRate) Inverse() *ExchangeRate {
	one := decimal.NewFromInt(1)

	inv := &ExchangeRate{
		ID:             r.ID,
		FromCurrencyID: r.ToCurrencyID,
		ToCurrencyID:   r.FromCurrencyID,
		Pair:           r.Pair.Inverse(),
		Rate:           one.Div(r.Rate),
		EffectiveFrom:  r.EffectiveFrom,
		EffectiveTo:    r.EffectiveTo,
		SetBy:          r.SetBy,
		CreatedAt:      r.CreatedAt,
		Inverted:       true,
	}

	if r.SellRate != nil {
		buy := one.Div(*r.SellRate)
		inv.BuyRate = &buy
	}
	if r.BuyRate != nil {
		sell := one.Div(*r.BuyRate)
		inv.SellRate = &sell
	}

	return inv
}

// RateSide selects which quoted rate a conversion uses.
type RateSide string

const (
	RateSideMid  RateSide = "mid"
	RateSideBuy  RateSide = "buy"
	RateSideSell RateSide = "sell"
)

// Convert calculates the to-currency amount using the requested side,
// falling back to the mid rate when buy/sell is not quoted.
func (r *ExchangeRate) Convert(amount decimal.Decimal, side RateSide) decimal.Decimal {
	switch side {
	case RateSideBuy:
		if r.BuyRate != nil {
			return amount.Mul(*r.BuyRate)
		}
	case RateSideSell:
		if r.SellRate != nil {
			return amount.Mul(*r.SellRate)
		}
	}
	return amount.Mul(r.Rate)
}

// RateChangeType classifies a timeline mutation.
type RateChangeType string

const (
	RateChangeCreated     RateChangeType = "created"
	RateChangeUpdated     RateChangeType = "updated"
	RateChangeDeactivated RateChangeType = "deactivated"
)

// IsValid checks the change type is a known variant.
func (t RateChangeType) IsValid() bool {
	switch t {
	case RateChangeCreated, RateChangeUpdated, RateChangeDeactivated:
		return true
	}
	return false
}

// ExchangeRateHistory is an immutable audit record of one timeline
// mutation: the old and new rate triads plus the acting user.
type ExchangeRateHistory struct {
	ID             string
	ExchangeRateID string
	Pair           RatePair
	OldRate        *decimal.Decimal
	OldBuyRate     *decimal.Decimal
	OldSellRate    *decimal.Decimal
	NewRate        decimal.Decimal
	NewBuyRate     *decimal.Decimal
	NewSellRate    *decimal.Decimal
	ChangeType     RateChangeType
	ChangedBy      string
	ChangedAt      time.Time
	Reason         string
}

// ChangePercentage returns the relative rate change, zero when there was
// no previous rate.
func (h *ExchangeRateHistory) ChangePercentage() decimal.Decimal {
	if h.OldRate == nil || h.OldRate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return h.NewRate.Sub(*h.OldRate).Div(*h.OldRate).Mul(decimal.NewFromInt(100))
}
