package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/iho/fxoffice/internal/domain"
	"github.com/iho/fxoffice/internal/infrastructure/metrics"
)

// AlertMonitorUseCase raises and resolves branch alerts. Threshold
// alerts are driven by Evaluate after balance mutations; the rest are
// raised explicitly.
type AlertMonitorUseCase struct {
	alertRepo AlertRepository
	policy    domain.ThresholdPolicy
	idGen     IDGenerator
	clock     Clock
	metrics   *metrics.Metrics
}

// NewAlertMonitorUseCase creates a new AlertMonitorUseCase.
func NewAlertMonitorUseCase(
	alertRepo AlertRepository,
	policy domain.ThresholdPolicy,
	idGen IDGenerator,
	clock Clock,
	metrics *metrics.Metrics,
) *AlertMonitorUseCase {
	return &AlertMonitorUseCase{
		alertRepo: alertRepo,
		policy:    policy,
		idGen:     idGen,
		clock:     clock,
		metrics:   metrics,
	}
}

// thresholdTypes are the alert types Evaluate owns. Other types are
// raised and resolved by hand and are never auto-resolved here.
var thresholdTypes = []domain.AlertType{
	domain.AlertLowBalance,
	domain.AlertHighBalance,
	domain.AlertThresholdWarning,
}

// Evaluate re-checks the balance against its thresholds, raising alerts
// for conditions that hold and auto-resolving open threshold alerts for
// conditions that no longer do. One unresolved alert exists per
// (branch, currency, type) at a time.
func (uc *AlertMonitorUseCase) Evaluate(ctx context.Context, balance *domain.BranchBalance) error {
	conditions := uc.policy.Evaluate(balance)

	held := make(map[domain.AlertType]domain.AlertCondition, len(conditions))
	for _, c := range conditions {
		held[c.Type] = c
	}

	currencyID := balance.CurrencyID
	now := uc.clock.Now()

	var errs []error
	for _, alertType := range thresholdTypes {
		open, err := uc.alertRepo.GetUnresolved(ctx, balance.BranchID, &currencyID, alertType)
		if err != nil && !errors.Is(err, domain.ErrAlertNotFound) {
			errs = append(errs, err)
			continue
		}

		condition, holds := held[alertType]

		switch {
		case holds && open == nil:
			_, err := uc.Raise(ctx, RaiseAlertInput{
				BranchID:   balance.BranchID,
				CurrencyID: &currencyID,
				Type:       condition.Type,
				Severity:   condition.Severity,
				Title:      titleFor(condition.Type),
				Message:    condition.Message,
			})
			if err != nil {
				errs = append(errs, err)
			}
		case holds && open != nil && open.Severity != condition.Severity:
			// Severity moved. Close the stale alert and raise at the
			// new grade so the history keeps both.
			if err := uc.alertRepo.Resolve(ctx, open.ID, now, "system", "superseded by "+string(condition.Severity)+" alert"); err != nil {
				errs = append(errs, err)
				continue
			}
			_, err := uc.Raise(ctx, RaiseAlertInput{
				BranchID:   balance.BranchID,
				CurrencyID: &currencyID,
				Type:       condition.Type,
				Severity:   condition.Severity,
				Title:      titleFor(condition.Type),
				Message:    condition.Message,
			})
			if err != nil {
				errs = append(errs, err)
			}
		case !holds && open != nil:
			if err := uc.alertRepo.Resolve(ctx, open.ID, now, "system", "condition cleared"); err != nil {
				errs = append(errs, err)
			} else if uc.metrics != nil {
				uc.metrics.AlertsResolved.Inc()
			}
		}
	}

	return errors.Join(errs...)
}

// RaiseAlertInput represents input for raising an alert.
type RaiseAlertInput struct {
	BranchID   string
	CurrencyID *string
	Type       domain.AlertType
	Severity   domain.AlertSeverity
	Title      string
	Message    string
}

// Raise creates an unresolved alert. Raising a type that already has an
// open alert for the same (branch, currency) returns the existing one
// untouched.
func (uc *AlertMonitorUseCase) Raise(ctx context.Context, input RaiseAlertInput) (*domain.BranchAlert, error) {
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid alert type %q", input.Type)
	}
	if !input.Severity.IsValid() {
		return nil, fmt.Errorf("invalid alert severity %q", input.Severity)
	}

	open, err := uc.alertRepo.GetUnresolved(ctx, input.BranchID, input.CurrencyID, input.Type)
	if err == nil {
		return open, nil
	}
	if !errors.Is(err, domain.ErrAlertNotFound) {
		return nil, err
	}

	alert := &domain.BranchAlert{
		ID:          uc.idGen.Generate(),
		BranchID:    input.BranchID,
		CurrencyID:  input.CurrencyID,
		Type:        input.Type,
		Severity:    input.Severity,
		Title:       input.Title,
		Message:     input.Message,
		TriggeredAt: uc.clock.Now(),
	}

	if err := alert.Validate(); err != nil {
		return nil, err
	}

	if err := uc.alertRepo.Create(ctx, alert); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AlertsRaised.WithLabelValues(string(input.Type), string(input.Severity)).Inc()
	}

	return alert, nil
}

// Resolve marks an alert resolved. Resolving twice fails with
// domain.ErrAlertResolved.
func (uc *AlertMonitorUseCase) Resolve(ctx context.Context, id, actor, notes string) (*domain.BranchAlert, error) {
	alert, err := uc.alertRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.Resolved {
		return nil, domain.ErrAlertResolved
	}

	now := uc.clock.Now()
	if err := uc.alertRepo.Resolve(ctx, id, now, actor, notes); err != nil {
		return nil, err
	}

	alert.Resolved = true
	alert.ResolvedAt = &now
	alert.ResolvedBy = &actor
	alert.ResolutionNotes = notes

	if uc.metrics != nil {
		uc.metrics.AlertsResolved.Inc()
	}

	return alert, nil
}

// GetAlert returns an alert by id.
func (uc *AlertMonitorUseCase) GetAlert(ctx context.Context, id string) (*domain.BranchAlert, error) {
	return uc.alertRepo.GetByID(ctx, id)
}

// ListAlerts lists a branch's alerts, newest first.
func (uc *AlertMonitorUseCase) ListAlerts(ctx context.Context, branchID string, unresolvedOnly bool, limit, offset int) ([]*domain.BranchAlert, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.alertRepo.List(ctx, branchID, unresolvedOnly, limit, offset)
}

func titleFor(alertType domain.AlertType) string {
	switch alertType {
	case domain.AlertLowBalance:
		return "balance below minimum threshold"
	case domain.AlertHighBalance:
		return "balance above maximum threshold"
	case domain.AlertThresholdWarning:
		return "balance approaching minimum threshold"
	default:
		return string(alertType)
	}
}
