package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/fxoffice/internal/adapter/http/dto"
	"github.com/iho/fxoffice/internal/domain"
	"github.com/iho/fxoffice/internal/usecase"
)

type fakeRateService struct {
	setRateFn func(ctx context.Context, input usecase.SetRateInput) (*domain.ExchangeRate, error)
	getRateFn func(ctx context.Context, from, to string, asOf *time.Time) (*domain.ExchangeRate, error)
	createFn  func(ctx context.Context, input usecase.CreateCurrencyInput) (*domain.Currency, error)
}

func (f *fakeRateService) CreateCurrency(ctx context.Context, input usecase.CreateCurrencyInput) (*domain.Currency, error) {
	return f.createFn(ctx, input)
}

func (f *fakeRateService) GetCurrency(ctx context.Context, code string) (*domain.Currency, error) {
	return &domain.Currency{ID: "cur-1", Code: code, Active: true}, nil
}

func (f *fakeRateService) ListCurrencies(ctx context.Context, input usecase.ListCurrenciesInput) ([]*domain.Currency, error) {
	return []*domain.Currency{}, nil
}

func (f *fakeRateService) SetBaseCurrency(ctx context.Context, currencyID, actor string) error {
	return nil
}

func (f *fakeRateService) SetRate(ctx context.Context, input usecase.SetRateInput) (*domain.ExchangeRate, error) {
	return f.setRateFn(ctx, input)
}

func (f *fakeRateService) GetCurrentRate(ctx context.Context, from, to string, asOf *time.Time) (*domain.ExchangeRate, error) {
	return f.getRateFn(ctx, from, to, asOf)
}

func (f *fakeRateService) DeactivateRate(ctx context.Context, from, to, actor, reason string) error {
	return nil
}

func (f *fakeRateService) GetHistory(ctx context.Context, input usecase.GetHistoryInput) ([]*domain.ExchangeRateHistory, error) {
	return []*domain.ExchangeRateHistory{}, nil
}

func (f *fakeRateService) CalculateExchange(ctx context.Context, input usecase.CalculateExchangeInput) (*usecase.CalculateExchangeResult, error) {
	return &usecase.CalculateExchangeResult{
		Rate:      &domain.ExchangeRate{Pair: domain.RatePair{From: input.From, To: input.To}, Rate: decimal.NewFromInt(32)},
		Amount:    input.Amount,
		Converted: input.Amount.Mul(decimal.NewFromInt(32)),
	}, nil
}

func pairRequest(method, target, body, from, to string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("from", from)
	rctx.URLParams.Add("to", to)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestRateHandlerSetRate(t *testing.T) {
	var got usecase.SetRateInput
	svc := &fakeRateService{
		setRateFn: func(_ context.Context, input usecase.SetRateInput) (*domain.ExchangeRate, error) {
			got = input
			return &domain.ExchangeRate{
				Pair:          domain.RatePair{From: input.From, To: input.To},
				Rate:          input.Rate,
				EffectiveFrom: time.Now(),
			}, nil
		},
	}
	h := NewRateHandler(svc)

	body := `{"from_currency":"USD","to_currency":"TRY","rate":"33.61","notes":"morning fix"}`
	req := httptest.NewRequest(http.MethodPost, "/rates", strings.NewReader(body))
	req = req.WithContext(domain.ContextWithActor(req.Context(), domain.Actor{ID: "manager-1"}))
	rec := httptest.NewRecorder()
	h.SetRate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.Actor != "manager-1" {
		t.Errorf("expected actor manager-1, got %q", got.Actor)
	}
	if !got.Rate.Equal(decimal.RequireFromString("33.61")) {
		t.Errorf("unexpected rate: %s", got.Rate)
	}
}

func TestRateHandlerSetRateValidation(t *testing.T) {
	h := NewRateHandler(&fakeRateService{})

	tests := []struct {
		name string
		body string
	}{
		{"zero rate", `{"from_currency":"USD","to_currency":"TRY","rate":"0"}`},
		{"missing pair", `{"rate":"33.61"}`},
		{"malformed json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/rates", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.SetRate(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestRateHandlerGetCurrentRate(t *testing.T) {
	svc := &fakeRateService{
		getRateFn: func(_ context.Context, from, to string, asOf *time.Time) (*domain.ExchangeRate, error) {
			if asOf != nil {
				t.Errorf("expected nil asOf")
			}
			return &domain.ExchangeRate{
				Pair:     domain.RatePair{From: from, To: to},
				Rate:     decimal.RequireFromString("0.03"),
				Inverted: true,
			}, nil
		},
	}
	h := NewRateHandler(svc)

	req := pairRequest(http.MethodGet, "/rates/TRY/USD", "", "TRY", "USD")
	rec := httptest.NewRecorder()
	h.GetCurrentRate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.RateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Inverted {
		t.Errorf("expected inverted rate to be flagged")
	}
}

func TestRateHandlerGetCurrentRateNotFound(t *testing.T) {
	svc := &fakeRateService{
		getRateFn: func(context.Context, string, string, *time.Time) (*domain.ExchangeRate, error) {
			return nil, domain.ErrNoRateFound
		},
	}
	h := NewRateHandler(svc)

	req := pairRequest(http.MethodGet, "/rates/USD/JPY", "", "USD", "JPY")
	rec := httptest.NewRecorder()
	h.GetCurrentRate(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRateHandlerGetCurrentRateRejectsBadAsOf(t *testing.T) {
	h := NewRateHandler(&fakeRateService{})

	req := pairRequest(http.MethodGet, "/rates/USD/TRY?as_of=yesterday", "", "USD", "TRY")
	rec := httptest.NewRecorder()
	h.GetCurrentRate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRateHandlerCreateCurrencyConflict(t *testing.T) {
	svc := &fakeRateService{
		createFn: func(context.Context, usecase.CreateCurrencyInput) (*domain.Currency, error) {
			return nil, domain.ErrCurrencyExists
		},
	}
	h := NewRateHandler(svc)

	body := `{"code":"USD","name_en":"US Dollar","decimal_places":2}`
	req := httptest.NewRequest(http.MethodPost, "/currencies", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateCurrency(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestRateHandlerCalculateExchange(t *testing.T) {
	h := NewRateHandler(&fakeRateService{})

	body := `{"from_currency":"USD","to_currency":"TRY","amount":"100","side":"sell"}`
	req := httptest.NewRequest(http.MethodPost, "/rates/calculate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CalculateExchange(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.ExchangeQuoteResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Converted.Equal(decimal.NewFromInt(3200)) {
		t.Errorf("expected converted 3200, got %s", resp.Converted)
	}
}
