package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AlertType classifies a branch alert.
type AlertType string

const (
	AlertLowBalance           AlertType = "low_balance"
	AlertHighBalance          AlertType = "high_balance"
	AlertSuspiciousActivity   AlertType = "suspicious_activity"
	AlertReconciliationNeeded AlertType = "reconciliation_needed"
	AlertThresholdWarning     AlertType = "threshold_warning"
)

// IsValid checks the alert type is a known variant.
func (t AlertType) IsValid() bool {
	switch t {
	case AlertLowBalance, AlertHighBalance, AlertSuspiciousActivity,
		AlertReconciliationNeeded, AlertThresholdWarning:
		return true
	}
	return false
}

// AlertSeverity grades an alert.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// IsValid checks the severity is a known variant.
func (s AlertSeverity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

// BranchAlert is a raised condition on a branch, optionally scoped to one
// currency. Alerts are resolved, never deleted.
type BranchAlert struct {
	ID              string
	BranchID        string
	CurrencyID      *string
	Type            AlertType
	Severity        AlertSeverity
	Title           string
	Message         string
	Resolved        bool
	TriggeredAt     time.Time
	ResolvedAt      *time.Time
	ResolvedBy      *string
	ResolutionNotes string
}

// Validate checks alert invariants.
func (a *BranchAlert) Validate() error {
	if !a.Type.IsValid() {
		return fmt.Errorf("invalid alert type %q", a.Type)
	}
	if !a.Severity.IsValid() {
		return fmt.Errorf("invalid alert severity %q", a.Severity)
	}
	if a.Resolved && a.ResolvedAt == nil {
		return fmt.Errorf("alert %s: resolved without resolution time", a.ID)
	}
	if !a.Resolved && a.ResolvedAt != nil {
		return fmt.Errorf("alert %s: resolution time set on unresolved alert", a.ID)
	}
	return nil
}

// AlertCondition is a threshold condition that currently holds for a
// balance, as determined by a ThresholdPolicy.
type AlertCondition struct {
	Type     AlertType
	Severity AlertSeverity
	Message  string
}

// ThresholdPolicy derives alert conditions from a balance and its
// thresholds. WarningBand widens the threshold for early warnings;
// CriticalFactor sets how far past the threshold a breach becomes
// critical.
type ThresholdPolicy struct {
	WarningBand    decimal.Decimal // e.g. 1.2: warn when balance < 1.2 * min
	CriticalFactor decimal.Decimal // e.g. 2.0: critical when balance < min/2 or > max*2
}

// DefaultThresholdPolicy returns the stock policy.
func DefaultThresholdPolicy() ThresholdPolicy {
	return ThresholdPolicy{
		WarningBand:    decimal.NewFromFloat(1.2),
		CriticalFactor: decimal.NewFromInt(2),
	}
}

// Evaluate returns the threshold conditions that hold for the balance.
// At most one of low_balance/threshold_warning and one high_balance
// condition is returned; conditions that no longer hold are absent, which
// the monitor uses to auto-resolve.
func (p ThresholdPolicy) Evaluate(b *BranchBalance) []AlertCondition {
	var conditions []AlertCondition

	if b.MinThreshold != nil {
		min := *b.MinThreshold
		switch {
		case b.Balance.LessThan(min.Div(p.CriticalFactor)):
			conditions = append(conditions, AlertCondition{
				Type:     AlertLowBalance,
				Severity: SeverityCritical,
				Message:  fmt.Sprintf("balance %s is critically below minimum threshold %s", b.Balance, min),
			})
		case b.Balance.LessThan(min):
			conditions = append(conditions, AlertCondition{
				Type:     AlertLowBalance,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("balance %s is below minimum threshold %s", b.Balance, min),
			})
		case b.Balance.LessThan(min.Mul(p.WarningBand)):
			conditions = append(conditions, AlertCondition{
				Type:     AlertThresholdWarning,
				Severity: SeverityInfo,
				Message:  fmt.Sprintf("balance %s is approaching minimum threshold %s", b.Balance, min),
			})
		}
	}

	if b.MaxThreshold != nil {
		max := *b.MaxThreshold
		switch {
		case b.Balance.GreaterThan(max.Mul(p.CriticalFactor)):
			conditions = append(conditions, AlertCondition{
				Type:     AlertHighBalance,
				Severity: SeverityCritical,
				Message:  fmt.Sprintf("balance %s is critically above maximum threshold %s", b.Balance, max),
			})
		case b.Balance.GreaterThan(max):
			conditions = append(conditions, AlertCondition{
				Type:     AlertHighBalance,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("balance %s is above maximum threshold %s", b.Balance, max),
			})
		}
	}

	return conditions
}
