package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxoffice/internal/domain"
	"github.com/iho/fxoffice/internal/usecase"
	"github.com/iho/fxoffice/internal/usecase/mocks"
)

func newAlertMonitor(alertRepo *mocks.MockAlertRepository, clock *mocks.MockClock) *usecase.AlertMonitorUseCase {
	return usecase.NewAlertMonitorUseCase(alertRepo, domain.DefaultThresholdPolicy(), mocks.NewMockIDGenerator(), clock, nil)
}

func thresholdBalance(balance int64) *domain.BranchBalance {
	min := decimal.NewFromInt(1000)
	max := decimal.NewFromInt(50000)
	return &domain.BranchBalance{
		ID:           "bal-1",
		BranchID:     "branch-1",
		CurrencyID:   "cur-USD",
		Balance:      decimal.NewFromInt(balance),
		MinThreshold: &min,
		MaxThreshold: &max,
		Active:       true,
	}
}

func TestAlertMonitorUseCase_Evaluate(t *testing.T) {
	tests := []struct {
		name         string
		balance      int64
		wantType     domain.AlertType
		wantSeverity domain.AlertSeverity
		wantNone     bool
	}{
		{name: "critically low", balance: 400, wantType: domain.AlertLowBalance, wantSeverity: domain.SeverityCritical},
		{name: "below minimum", balance: 800, wantType: domain.AlertLowBalance, wantSeverity: domain.SeverityWarning},
		{name: "approaching minimum", balance: 1100, wantType: domain.AlertThresholdWarning, wantSeverity: domain.SeverityInfo},
		{name: "healthy", balance: 20000, wantNone: true},
		{name: "above maximum", balance: 60000, wantType: domain.AlertHighBalance, wantSeverity: domain.SeverityWarning},
		{name: "critically high", balance: 110000, wantType: domain.AlertHighBalance, wantSeverity: domain.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alertRepo := mocks.NewMockAlertRepository()
			clock := mocks.NewMockClock(time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC))
			uc := newAlertMonitor(alertRepo, clock)

			if err := uc.Evaluate(context.Background(), thresholdBalance(tt.balance)); err != nil {
				t.Fatalf("Evaluate: %v", err)
			}

			alerts, _ := alertRepo.List(context.Background(), "branch-1", true, 10, 0)
			if tt.wantNone {
				if len(alerts) != 0 {
					t.Errorf("expected no alerts, got %d", len(alerts))
				}
				return
			}
			if len(alerts) != 1 {
				t.Fatalf("expected 1 alert, got %d", len(alerts))
			}
			if alerts[0].Type != tt.wantType {
				t.Errorf("expected type %s, got %s", tt.wantType, alerts[0].Type)
			}
			if alerts[0].Severity != tt.wantSeverity {
				t.Errorf("expected severity %s, got %s", tt.wantSeverity, alerts[0].Severity)
			}
		})
	}
}

func TestAlertMonitorUseCase_Evaluate_Dedupe(t *testing.T) {
	alertRepo := mocks.NewMockAlertRepository()
	clock := mocks.NewMockClock(time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC))
	uc := newAlertMonitor(alertRepo, clock)

	// Two evaluations of the same condition raise one alert.
	for i := 0; i < 2; i++ {
		if err := uc.Evaluate(context.Background(), thresholdBalance(800)); err != nil {
			t.Fatalf("Evaluate %d: %v", i, err)
		}
	}

	alerts, _ := alertRepo.List(context.Background(), "branch-1", true, 10, 0)
	if len(alerts) != 1 {
		t.Errorf("expected 1 open alert after repeat evaluation, got %d", len(alerts))
	}
}

func TestAlertMonitorUseCase_Evaluate_AutoResolve(t *testing.T) {
	alertRepo := mocks.NewMockAlertRepository()
	clock := mocks.NewMockClock(time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC))
	uc := newAlertMonitor(alertRepo, clock)

	if err := uc.Evaluate(context.Background(), thresholdBalance(800)); err != nil {
		t.Fatalf("Evaluate low: %v", err)
	}

	clock.Advance(time.Hour)

	// The balance recovers; the open low_balance alert resolves itself.
	if err := uc.Evaluate(context.Background(), thresholdBalance(20000)); err != nil {
		t.Fatalf("Evaluate recovered: %v", err)
	}

	open, _ := alertRepo.List(context.Background(), "branch-1", true, 10, 0)
	if len(open) != 0 {
		t.Errorf("expected no open alerts after recovery, got %d", len(open))
	}

	all, _ := alertRepo.List(context.Background(), "branch-1", false, 10, 0)
	if len(all) != 1 {
		t.Fatalf("expected resolved alert kept, got %d", len(all))
	}
	if !all[0].Resolved || all[0].ResolvedAt == nil {
		t.Error("expected alert marked resolved with timestamp")
	}
}

func TestAlertMonitorUseCase_Evaluate_SeverityEscalation(t *testing.T) {
	alertRepo := mocks.NewMockAlertRepository()
	clock := mocks.NewMockClock(time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC))
	uc := newAlertMonitor(alertRepo, clock)

	if err := uc.Evaluate(context.Background(), thresholdBalance(800)); err != nil {
		t.Fatalf("Evaluate warning: %v", err)
	}

	clock.Advance(time.Hour)

	// The balance drains further; warning escalates to critical.
	if err := uc.Evaluate(context.Background(), thresholdBalance(300)); err != nil {
		t.Fatalf("Evaluate critical: %v", err)
	}

	open, _ := alertRepo.List(context.Background(), "branch-1", true, 10, 0)
	if len(open) != 1 {
		t.Fatalf("expected 1 open alert, got %d", len(open))
	}
	if open[0].Severity != domain.SeverityCritical {
		t.Errorf("expected escalated critical alert, got %s", open[0].Severity)
	}

	all, _ := alertRepo.List(context.Background(), "branch-1", false, 10, 0)
	if len(all) != 2 {
		t.Errorf("expected superseded alert kept in history, got %d", len(all))
	}
}

func TestAlertMonitorUseCase_Resolve(t *testing.T) {
	alertRepo := mocks.NewMockAlertRepository()
	clock := mocks.NewMockClock(time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC))
	uc := newAlertMonitor(alertRepo, clock)

	currency := "cur-USD"
	raised, err := uc.Raise(context.Background(), usecase.RaiseAlertInput{
		BranchID:   "branch-1",
		CurrencyID: &currency,
		Type:       domain.AlertSuspiciousActivity,
		Severity:   domain.SeverityWarning,
		Title:      "unusual transaction volume",
		Message:    "volume tripled in the last hour",
	})
	if err != nil {
		t.Fatalf("Raise: %v", err)
	}

	resolved, err := uc.Resolve(context.Background(), raised.ID, "manager", "reviewed, legitimate")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !resolved.Resolved || resolved.ResolvedBy == nil || *resolved.ResolvedBy != "manager" {
		t.Error("expected resolution recorded")
	}

	// Resolving twice fails.
	if _, err := uc.Resolve(context.Background(), raised.ID, "manager", "again"); !errors.Is(err, domain.ErrAlertResolved) {
		t.Errorf("expected ErrAlertResolved, got %v", err)
	}

	if _, err := uc.Resolve(context.Background(), "missing", "manager", ""); !errors.Is(err, domain.ErrAlertNotFound) {
		t.Errorf("expected ErrAlertNotFound, got %v", err)
	}
}

func TestAlertMonitorUseCase_Raise_ReturnsExistingOpen(t *testing.T) {
	alertRepo := mocks.NewMockAlertRepository()
	clock := mocks.NewMockClock(time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC))
	uc := newAlertMonitor(alertRepo, clock)

	currency := "cur-USD"
	input := usecase.RaiseAlertInput{
		BranchID:   "branch-1",
		CurrencyID: &currency,
		Type:       domain.AlertReconciliationNeeded,
		Severity:   domain.SeverityCritical,
		Title:      "balance reconciliation mismatch",
	}

	first, err := uc.Raise(context.Background(), input)
	if err != nil {
		t.Fatalf("first Raise: %v", err)
	}
	second, err := uc.Raise(context.Background(), input)
	if err != nil {
		t.Fatalf("second Raise: %v", err)
	}
	if first.ID != second.ID {
		t.Error("repeat raise should return the existing open alert")
	}
}
