package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func balanceWithThresholds(balance string, min, max *string) *BranchBalance {
	b := &BranchBalance{
		BranchID:   "br-1",
		CurrencyID: "cur-usd",
		Balance:    decimal.RequireFromString(balance),
	}

	if min != nil {
		d := decimal.RequireFromString(*min)
		b.MinThreshold = &d
	}
	if max != nil {
		d := decimal.RequireFromString(*max)
		b.MaxThreshold = &d
	}

	return b
}

func strPtr(s string) *string { return &s }

func TestThresholdPolicy_Evaluate(t *testing.T) {
	policy := DefaultThresholdPolicy()

	tests := []struct {
		name         string
		balance      *BranchBalance
		wantType     AlertType
		wantSeverity AlertSeverity
		wantNone     bool
	}{
		{
			name:     "no thresholds configured",
			balance:  balanceWithThresholds("10", nil, nil),
			wantNone: true,
		},
		{
			name:     "comfortably within bounds",
			balance:  balanceWithThresholds("500", strPtr("100"), strPtr("1000")),
			wantNone: true,
		},
		{
			name:         "approaching minimum",
			balance:      balanceWithThresholds("110", strPtr("100"), nil),
			wantType:     AlertThresholdWarning,
			wantSeverity: SeverityInfo,
		},
		{
			name:         "below minimum",
			balance:      balanceWithThresholds("80", strPtr("100"), nil),
			wantType:     AlertLowBalance,
			wantSeverity: SeverityWarning,
		},
		{
			name:         "critically below minimum",
			balance:      balanceWithThresholds("40", strPtr("100"), nil),
			wantType:     AlertLowBalance,
			wantSeverity: SeverityCritical,
		},
		{
			name:         "above maximum",
			balance:      balanceWithThresholds("1200", nil, strPtr("1000")),
			wantType:     AlertHighBalance,
			wantSeverity: SeverityWarning,
		},
		{
			name:         "critically above maximum",
			balance:      balanceWithThresholds("2500", nil, strPtr("1000")),
			wantType:     AlertHighBalance,
			wantSeverity: SeverityCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conditions := policy.Evaluate(tt.balance)

			if tt.wantNone {
				if len(conditions) != 0 {
					t.Fatalf("expected no conditions, got %v", conditions)
				}
				return
			}

			if len(conditions) != 1 {
				t.Fatalf("expected one condition, got %d", len(conditions))
			}

			if conditions[0].Type != tt.wantType {
				t.Errorf("expected type %s, got %s", tt.wantType, conditions[0].Type)
			}

			if conditions[0].Severity != tt.wantSeverity {
				t.Errorf("expected severity %s, got %s", tt.wantSeverity, conditions[0].Severity)
			}
		})
	}
}

func TestThresholdPolicy_Evaluate_BothBounds(t *testing.T) {
	// min above max is a misconfiguration, but the policy still reports
	// both conditions rather than hiding one
	policy := DefaultThresholdPolicy()
	b := balanceWithThresholds("150", strPtr("200"), strPtr("100"))

	conditions := policy.Evaluate(b)
	if len(conditions) != 2 {
		t.Fatalf("expected two conditions, got %d", len(conditions))
	}
}

func TestBranchAlert_Validate(t *testing.T) {
	alert := &BranchAlert{
		ID:       "al-1",
		BranchID: "br-1",
		Type:     AlertLowBalance,
		Severity: SeverityWarning,
	}

	if err := alert.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	alert.Resolved = true
	if err := alert.Validate(); err == nil {
		t.Error("expected error for resolved alert without resolution time")
	}

	alert.Type = "volcano"
	if err := alert.Validate(); err == nil {
		t.Error("expected error for unknown alert type")
	}
}
