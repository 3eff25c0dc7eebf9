package dto

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/fxoffice/internal/domain"
)

func TestCreateCurrencyRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateCurrencyRequest
		wantErr bool
	}{
		{
			name: "valid",
			req:  CreateCurrencyRequest{Code: "USD", NameEN: "US Dollar", DecimalPlaces: 2},
		},
		{
			name:    "lowercase code",
			req:     CreateCurrencyRequest{Code: "usd", NameEN: "US Dollar"},
			wantErr: true,
		},
		{
			name:    "code too short",
			req:     CreateCurrencyRequest{Code: "US", NameEN: "US Dollar"},
			wantErr: true,
		},
		{
			name:    "missing name",
			req:     CreateCurrencyRequest{Code: "USD"},
			wantErr: true,
		},
		{
			name:    "negative decimal places",
			req:     CreateCurrencyRequest{Code: "USD", NameEN: "US Dollar", DecimalPlaces: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetRateRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     SetRateRequest
		wantErr bool
	}{
		{
			name: "valid",
			req:  SetRateRequest{From: "USD", To: "TRY", Rate: decimal.RequireFromString("33.61")},
		},
		{
			name:    "zero rate",
			req:     SetRateRequest{From: "USD", To: "TRY"},
			wantErr: true,
		},
		{
			name:    "negative rate",
			req:     SetRateRequest{From: "USD", To: "TRY", Rate: decimal.RequireFromString("-1")},
			wantErr: true,
		},
		{
			name:    "missing target",
			req:     SetRateRequest{From: "USD", Rate: decimal.NewFromInt(1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMovementRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     MovementRequest
		wantErr bool
	}{
		{
			name: "valid with default change type",
			req:  MovementRequest{Amount: decimal.NewFromInt(100)},
		},
		{
			name: "valid transfer in",
			req:  MovementRequest{Amount: decimal.NewFromInt(100), ChangeType: "transfer_in"},
		},
		{
			name:    "unknown change type",
			req:     MovementRequest{Amount: decimal.NewFromInt(100), ChangeType: "bogus"},
			wantErr: true,
		},
		{
			name:    "zero amount",
			req:     MovementRequest{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMovementRequestToUseCaseInputDefaultsChangeType(t *testing.T) {
	req := MovementRequest{Amount: decimal.NewFromInt(50)}
	input := req.ToUseCaseInput("branch-1", "USD", "teller")

	if input.ChangeType != domain.BalanceChangeTransaction {
		t.Errorf("expected default change type transaction, got %s", input.ChangeType)
	}
	if input.BranchID != "branch-1" || input.CurrencyID != "USD" || input.Actor != "teller" {
		t.Errorf("unexpected input: %+v", input)
	}
}

func TestAdjustRequestValidate(t *testing.T) {
	if err := (AdjustRequest{Amount: decimal.NewFromInt(-5), Notes: "cash count"}).Validate(); err != nil {
		t.Errorf("expected negative adjustment to be valid, got %v", err)
	}
	if err := (AdjustRequest{Amount: decimal.Zero, Notes: "x"}).Validate(); err == nil {
		t.Errorf("expected zero adjustment to be rejected")
	}
	if err := (AdjustRequest{Amount: decimal.NewFromInt(5)}).Validate(); err == nil {
		t.Errorf("expected missing notes to be rejected")
	}
}

func TestInitiateSyncRequestValidate(t *testing.T) {
	valid := InitiateSyncRequest{BaseCurrency: "USD", Targets: []string{"EUR", "TRY"}}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := (InitiateSyncRequest{BaseCurrency: "USD"}).Validate(); err == nil {
		t.Errorf("expected empty targets to be rejected")
	}
	if err := (InitiateSyncRequest{BaseCurrency: "USD", Targets: []string{"EURO"}}).Validate(); err == nil {
		t.Errorf("expected malformed target code to be rejected")
	}
}

func TestCalculateExchangeRequestSideMapping(t *testing.T) {
	req := CalculateExchangeRequest{From: "USD", To: "TRY", Amount: decimal.NewFromInt(10), Side: "buy"}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := req.ToUseCaseInput().Side; got != domain.RateSideBuy {
		t.Errorf("expected buy side, got %s", got)
	}

	req.Side = "short"
	if err := req.Validate(); err == nil {
		t.Errorf("expected unknown side to be rejected")
	}
}
