package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func mustPair(t *testing.T, from, to string) RatePair {
	t.Helper()

	p, err := NewRatePair(from, to)
	if err != nil {
		t.Fatalf("NewRatePair(%s, %s): %v", from, to, err)
	}

	return p
}

func TestNewRatePair(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr error
	}{
		{name: "valid pair", from: "USD", to: "TRY"},
		{name: "normalizes case and spacing", from: " usd ", to: "try"},
		{name: "same currency", from: "USD", to: "usd", wantErr: ErrSameCurrency},
		{name: "bad code", from: "US", to: "TRY", wantErr: ErrInvalidCurrencyCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewRatePair(tt.from, tt.to)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if p.Key() != "USD/TRY" {
				t.Errorf("expected key USD/TRY, got %s", p.Key())
			}
		})
	}
}

func TestExchangeRate_Validate(t *testing.T) {
	now := time.Now().UTC()
	negative := decimal.NewFromInt(-1)
	positive := decimal.NewFromFloat(33.5)

	tests := []struct {
		name    string
		mutate  func(*ExchangeRate)
		wantErr error
	}{
		{name: "valid rate", mutate: func(r *ExchangeRate) {}},
		{
			name:    "non-positive rate",
			mutate:  func(r *ExchangeRate) { r.Rate = decimal.Zero },
			wantErr: ErrInvalidRate,
		},
		{
			name:    "non-positive buy rate",
			mutate:  func(r *ExchangeRate) { r.BuyRate = &negative },
			wantErr: ErrInvalidRate,
		},
		{
			name:    "positive buy and sell",
			mutate:  func(r *ExchangeRate) { r.BuyRate = &positive; r.SellRate = &positive },
			wantErr: nil,
		},
		{
			name:    "same currency pair",
			mutate:  func(r *ExchangeRate) { r.Pair = RatePair{From: "USD", To: "USD"} },
			wantErr: ErrSameCurrency,
		},
		{
			name: "effective_to before effective_from",
			mutate: func(r *ExchangeRate) {
				before := now.Add(-time.Hour)
				r.EffectiveTo = &before
			},
			wantErr: ErrOutOfOrderEffectiveDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate := &ExchangeRate{
				Pair:          mustPair(t, "USD", "TRY"),
				Rate:          decimal.NewFromFloat(34.10),
				EffectiveFrom: now,
			}
			tt.mutate(rate)

			err := rate.Validate()

			if tt.wantErr == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestExchangeRate_Covers(t *testing.T) {
	t1 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)

	open := &ExchangeRate{EffectiveFrom: t1}
	closed := &ExchangeRate{EffectiveFrom: t1, EffectiveTo: &t2}

	if open.Covers(t1.Add(-time.Second)) {
		t.Error("open interval should not cover instants before effective_from")
	}

	if !open.Covers(t1) || !open.Covers(t2.Add(time.Hour)) {
		t.Error("open interval should cover everything from effective_from onwards")
	}

	if !closed.Covers(t1) || !closed.Covers(t2.Add(-time.Second)) {
		t.Error("closed interval should cover [from, to)")
	}

	// half-open: the end instant belongs to the successor interval
	if closed.Covers(t2) {
		t.Error("closed interval should not cover effective_to")
	}
}

func TestExchangeRate_Inverse(t *testing.T) {
	buy := decimal.NewFromInt(4)
	sell := decimal.NewFromInt(5)

	rate := &ExchangeRate{
		Pair:     mustPair(t, "USD", "TRY"),
		Rate:     decimal.NewFromInt(2),
		BuyRate:  &buy,
		SellRate: &sell,
	}

	inv := rate.Inverse()

	if inv.Pair.Key() != "TRY/USD" {
		t.Errorf("expected TRY/USD, got %s", inv.Pair.Key())
	}

	if !inv.Rate.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("expected inverse rate 0.5, got %s", inv.Rate)
	}

	// buy/sell swap: inverse buy = 1/sell, inverse sell = 1/buy
	if inv.BuyRate == nil || !inv.BuyRate.Equal(decimal.RequireFromString("0.2")) {
		t.Errorf("expected inverse buy 0.2, got %v", inv.BuyRate)
	}

	if inv.SellRate == nil || !inv.SellRate.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("expected inverse sell 0.25, got %v", inv.SellRate)
	}

	if !inv.Inverted {
		t.Error("inverse rate should be flagged as inverted")
	}
}

func TestExchangeRate_Convert(t *testing.T) {
	buy := decimal.RequireFromString("33.40")
	sell := decimal.RequireFromString("34.80")

	rate := &ExchangeRate{
		Pair:     mustPair(t, "USD", "TRY"),
		Rate:     decimal.RequireFromString("34.10"),
		BuyRate:  &buy,
		SellRate: &sell,
	}

	amount := decimal.NewFromInt(100)

	if got := rate.Convert(amount, RateSideMid); !got.Equal(decimal.RequireFromString("3410")) {
		t.Errorf("mid conversion: got %s", got)
	}

	if got := rate.Convert(amount, RateSideBuy); !got.Equal(decimal.RequireFromString("3340")) {
		t.Errorf("buy conversion: got %s", got)
	}

	if got := rate.Convert(amount, RateSideSell); !got.Equal(decimal.RequireFromString("3480")) {
		t.Errorf("sell conversion: got %s", got)
	}

	// falls back to mid when a side is not quoted
	rate.BuyRate = nil
	if got := rate.Convert(amount, RateSideBuy); !got.Equal(decimal.RequireFromString("3410")) {
		t.Errorf("fallback conversion: got %s", got)
	}
}

func TestExchangeRateHistory_ChangePercentage(t *testing.T) {
	old := decimal.NewFromInt(40)

	h := &ExchangeRateHistory{
		OldRate: &old,
		NewRate: decimal.NewFromInt(42),
	}

	if got := h.ChangePercentage(); !got.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected 5%%, got %s", got)
	}

	created := &ExchangeRateHistory{NewRate: decimal.NewFromInt(42)}
	if got := created.ChangePercentage(); !got.IsZero() {
		t.Errorf("expected zero for created rows, got %s", got)
	}
}
