package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxoffice/internal/domain"
	"github.com/iho/fxoffice/internal/infrastructure/metrics"
)

// AlertEvaluator re-checks threshold alerts after a committed balance
// mutation and raises ad-hoc alerts such as reconciliation mismatches.
// Implemented by AlertMonitorUseCase.
type AlertEvaluator interface {
	Evaluate(ctx context.Context, balance *domain.BranchBalance) error
	Raise(ctx context.Context, input RaiseAlertInput) (*domain.BranchAlert, error)
}

// LedgerUseCase owns branch balances, reserved funds and the append-only
// balance change log. Every mutation to a (branch, currency) key runs as
// one atomic step under that key's lock: read locked row, validate,
// write, append exactly one history row.
type LedgerUseCase struct {
	txManager   TransactionManager
	balanceRepo BalanceRepository
	locker      KeyLocker
	idGen       IDGenerator
	clock       Clock
	alerts      AlertEvaluator
	metrics     *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	balanceRepo BalanceRepository,
	locker KeyLocker,
	idGen IDGenerator,
	clock Clock,
	alerts AlertEvaluator,
	metrics *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:   txManager,
		balanceRepo: balanceRepo,
		locker:      locker,
		idGen:       idGen,
		clock:       clock,
		alerts:      alerts,
		metrics:     metrics,
	}
}

// MovementInput represents input for a balance movement.
type MovementInput struct {
	BranchID      string
	CurrencyID    string
	Amount        decimal.Decimal
	ChangeType    domain.BalanceChangeType
	ReferenceID   string
	ReferenceType string
	Actor         string
	Notes         string

	// AvailableOnly makes a debit fail rather than dip into reserved
	// funds.
	AvailableOnly bool
}

// Credit increases the balance. Amount must be positive.
func (uc *LedgerUseCase) Credit(ctx context.Context, input MovementInput) (*domain.BranchBalance, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if !input.ChangeType.IsValid() {
		return nil, domain.ErrInvalidAmount
	}

	return uc.mutate(ctx, input.key(), true, func(b *domain.BranchBalance, now time.Time) (*domain.BalanceChange, error) {
		before := b.Balance
		b.Balance = b.Balance.Add(input.Amount)

		return uc.changeRow(input, input.Amount, before, b.Balance, now), nil
	})
}

// Debit decreases the balance. Amount must be positive; the debit is
// rejected when it would drive the balance negative, or past the
// reserved portion.
func (uc *LedgerUseCase) Debit(ctx context.Context, input MovementInput) (*domain.BranchBalance, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if !input.ChangeType.IsValid() {
		return nil, domain.ErrInvalidAmount
	}

	return uc.mutate(ctx, input.key(), false, func(b *domain.BranchBalance, now time.Time) (*domain.BalanceChange, error) {
		if err := b.ValidateDebit(input.Amount, input.AvailableOnly); err != nil {
			return nil, err
		}

		before := b.Balance
		b.Balance = b.Balance.Sub(input.Amount)

		return uc.changeRow(input, input.Amount.Neg(), before, b.Balance, now), nil
	})
}

// Reserve earmarks part of the balance for a pending obligation.
// Reservations do not change the balance, so no history row is written;
// the committed movement carries the audit record.
func (uc *LedgerUseCase) Reserve(ctx context.Context, input MovementInput) (*domain.BranchBalance, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	return uc.mutate(ctx, input.key(), false, func(b *domain.BranchBalance, now time.Time) (*domain.BalanceChange, error) {
		if err := b.ValidateReserve(input.Amount); err != nil {
			return nil, err
		}

		b.Reserved = b.Reserved.Add(input.Amount)

		return nil, nil
	})
}

// Release returns reserved funds to the available pool.
func (uc *LedgerUseCase) Release(ctx context.Context, input MovementInput) (*domain.BranchBalance, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	return uc.mutate(ctx, input.key(), false, func(b *domain.BranchBalance, now time.Time) (*domain.BalanceChange, error) {
		if err := b.ValidateRelease(input.Amount); err != nil {
			return nil, err
		}

		b.Reserved = b.Reserved.Sub(input.Amount)

		return nil, nil
	})
}

// CommitReserved debits the balance and releases the matching
// reservation in one atomic step, used when a pending obligation
// settles.
func (uc *LedgerUseCase) CommitReserved(ctx context.Context, input MovementInput) (*domain.BranchBalance, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if !input.ChangeType.IsValid() {
		return nil, domain.ErrInvalidAmount
	}

	return uc.mutate(ctx, input.key(), false, func(b *domain.BranchBalance, now time.Time) (*domain.BalanceChange, error) {
		if err := b.ValidateRelease(input.Amount); err != nil {
			return nil, err
		}
		if err := b.ValidateDebit(input.Amount, false); err != nil {
			return nil, err
		}

		before := b.Balance
		b.Balance = b.Balance.Sub(input.Amount)
		b.Reserved = b.Reserved.Sub(input.Amount)

		return uc.changeRow(input, input.Amount.Neg(), before, b.Balance, now), nil
	})
}

// AdjustInput represents input for an administrative correction.
type AdjustInput struct {
	BranchID   string
	CurrencyID string
	Amount     decimal.Decimal // signed
	Actor      string
	Notes      string
}

// Adjust applies a signed administrative correction. The balance may
// move in either direction but never below zero. Authorization of the
// actor is the caller's responsibility.
func (uc *LedgerUseCase) Adjust(ctx context.Context, input AdjustInput) (*domain.BranchBalance, error) {
	if input.Amount.IsZero() {
		return nil, domain.ErrInvalidAmount
	}
	if input.Amount.Abs().GreaterThan(domain.MaxAmount) {
		return nil, domain.ErrAmountTooLarge
	}

	key := domain.BalanceKey{BranchID: input.BranchID, CurrencyID: input.CurrencyID}

	return uc.mutate(ctx, key, true, func(b *domain.BranchBalance, now time.Time) (*domain.BalanceChange, error) {
		before := b.Balance
		after := before.Add(input.Amount)

		if after.IsNegative() {
			return nil, domain.ErrInsufficientBalance
		}
		if b.Reserved.GreaterThan(after) {
			return nil, domain.ErrInsufficientAvailable
		}

		b.Balance = after

		return &domain.BalanceChange{
			ID:            uc.idGen.Generate(),
			BranchID:      input.BranchID,
			CurrencyID:    input.CurrencyID,
			ChangeType:    domain.BalanceChangeAdjustment,
			Amount:        input.Amount,
			BalanceBefore: before,
			BalanceAfter:  after,
			PerformedBy:   input.Actor,
			PerformedAt:   now,
			Notes:         input.Notes,
		}, nil
	})
}

// Reconcile recomputes the balance from its change log since the last
// reconciliation and compares against the stored value. A mismatch is
// reported, never corrected; correction is a separate, audited Adjust.
func (uc *LedgerUseCase) Reconcile(ctx context.Context, branchID, currencyID, actor string) (*domain.ReconciliationReport, error) {
	key := domain.BalanceKey{BranchID: branchID, CurrencyID: currencyID}

	release, err := uc.locker.Acquire(ctx, key.Key())
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

	balance, err := uc.balanceRepo.GetForUpdate(txCtx, tx, key)
	if err != nil {
		return nil, err
	}

	// Fold history since the last reconciliation on top of the balance
	// recorded back then. With no prior reconciliation the fold covers
	// the full log and starts from zero.
	var since *time.Time
	baseline := decimal.Zero
	if balance.LastReconciledAt != nil {
		since = balance.LastReconciledAt
		sum, _, err := uc.balanceRepo.SumChangesSince(txCtx, tx, key, nil)
		if err != nil {
			return nil, err
		}
		sinceSum, _, err := uc.balanceRepo.SumChangesSince(txCtx, tx, key, since)
		if err != nil {
			return nil, err
		}
		baseline = sum.Sub(sinceSum)
	}

	delta, folded, err := uc.balanceRepo.SumChangesSince(txCtx, tx, key, since)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	computed := baseline.Add(delta)

	report := &domain.ReconciliationReport{
		BranchID:        branchID,
		CurrencyID:      currencyID,
		StoredBalance:   balance.Balance,
		ComputedBalance: computed,
		Difference:      balance.Balance.Sub(computed),
		EntriesFolded:   folded,
		Matched:         balance.Balance.Equal(computed),
		PerformedBy:     actor,
		CheckedAt:       now,
	}

	if !report.Matched {
		_ = tx.Rollback(txCtx)

		if uc.metrics != nil {
			uc.metrics.ReconciliationMismatches.Inc()
		}

		uc.raiseReconciliationAlert(ctx, balance, report)

		return report, &domain.ReconciliationMismatch{
			BranchID:        branchID,
			CurrencyID:      currencyID,
			StoredBalance:   balance.Balance,
			ComputedBalance: computed,
		}
	}

	if err := uc.balanceRepo.MarkReconciled(txCtx, tx, balance.ID, now, actor); err != nil {
		return nil, err
	}

	change := &domain.BalanceChange{
		ID:            uc.idGen.Generate(),
		BranchID:      branchID,
		CurrencyID:    currencyID,
		ChangeType:    domain.BalanceChangeReconciliation,
		Amount:        decimal.Zero,
		BalanceBefore: balance.Balance,
		BalanceAfter:  balance.Balance,
		PerformedBy:   actor,
		PerformedAt:   now,
		Notes:         "reconciliation check passed",
	}

	if err := uc.balanceRepo.CreateChange(txCtx, tx, change); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.Reconciliations.Inc()
	}

	return report, nil
}

// SetThresholdsInput represents input for configuring alert thresholds.
type SetThresholdsInput struct {
	BranchID   string
	CurrencyID string
	Min        *decimal.Decimal
	Max        *decimal.Decimal
}

// SetThresholds configures the balance's alert thresholds.
func (uc *LedgerUseCase) SetThresholds(ctx context.Context, input SetThresholdsInput) (*domain.BranchBalance, error) {
	if input.Min != nil && input.Min.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	if input.Max != nil && input.Max.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	key := domain.BalanceKey{BranchID: input.BranchID, CurrencyID: input.CurrencyID}

	return uc.mutate(ctx, key, true, func(b *domain.BranchBalance, now time.Time) (*domain.BalanceChange, error) {
		b.MinThreshold = input.Min
		b.MaxThreshold = input.Max

		return nil, nil
	})
}

// GetBalance returns the balance for a (branch, currency) key.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, branchID, currencyID string) (*domain.BranchBalance, error) {
	return uc.balanceRepo.Get(ctx, domain.BalanceKey{BranchID: branchID, CurrencyID: currencyID})
}

// ListBalances lists a branch's balances across currencies.
func (uc *LedgerUseCase) ListBalances(ctx context.Context, branchID string, limit, offset int) ([]*domain.BranchBalance, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.balanceRepo.ListByBranch(ctx, branchID, limit, offset)
}

// GetHistoryInput fields mirror ListChanges filters.
type GetBalanceHistoryInput struct {
	BranchID   string
	CurrencyID string
	Range      domain.TimeRange
	Limit      int
	Offset     int
}

// GetHistory lists the balance change log, newest first.
func (uc *LedgerUseCase) GetHistory(ctx context.Context, input GetBalanceHistoryInput) ([]*domain.BalanceChange, error) {
	if err := input.Range.Validate(); err != nil {
		return nil, err
	}

	limit, offset, _ := domain.ValidatePagination(input.Limit, input.Offset)

	key := domain.BalanceKey{BranchID: input.BranchID, CurrencyID: input.CurrencyID}

	return uc.balanceRepo.ListChanges(ctx, key, input.Range, limit, offset)
}

// mutate runs one atomic balance mutation under the key's lock. The
// apply callback adjusts the in-memory row and returns the history row
// to append (nil for reservation-only changes). createMissing controls
// lazy creation of the zero row on first movement.
func (uc *LedgerUseCase) mutate(
	ctx context.Context,
	key domain.BalanceKey,
	createMissing bool,
	apply func(b *domain.BranchBalance, now time.Time) (*domain.BalanceChange, error),
) (*domain.BranchBalance, error) {
	release, err := uc.locker.Acquire(ctx, key.Key())
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

	now := uc.clock.Now()

	balance, err := uc.balanceRepo.GetForUpdate(txCtx, tx, key)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrBalanceNotFound) && createMissing:
		balance = &domain.BranchBalance{
			ID:          uc.idGen.Generate(),
			BranchID:    key.BranchID,
			CurrencyID:  key.CurrencyID,
			Balance:     decimal.Zero,
			Reserved:    decimal.Zero,
			Active:      true,
			LastUpdated: now,
			CreatedAt:   now,
		}
		if err := uc.balanceRepo.Create(txCtx, tx, balance); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if !balance.Active {
		return nil, domain.ErrBalanceInactive
	}

	change, err := apply(balance, now)
	if err != nil {
		return nil, err
	}

	balance.LastUpdated = now

	if change != nil {
		if err := change.Validate(); err != nil {
			return nil, err
		}
	}

	if err := uc.balanceRepo.UpdateAmounts(txCtx, tx, balance.ID, balance.Balance, balance.Reserved, now); err != nil {
		return nil, err
	}

	// Threshold changes ride the same row update.
	if change == nil {
		if err := uc.balanceRepo.UpdateThresholds(txCtx, tx, balance.ID, balance.MinThreshold, balance.MaxThreshold, now); err != nil {
			return nil, err
		}
	}

	// The audit append commits with the mutation or not at all.
	if change != nil {
		if err := uc.balanceRepo.CreateChange(txCtx, tx, change); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil && change != nil {
		uc.metrics.BalanceMutations.WithLabelValues(string(change.ChangeType)).Inc()
	}

	// Threshold evaluation observes committed state; a failure here
	// never unwinds the mutation.
	if uc.alerts != nil {
		_ = uc.alerts.Evaluate(ctx, balance)
	}

	return balance, nil
}

func (input MovementInput) key() domain.BalanceKey {
	return domain.BalanceKey{BranchID: input.BranchID, CurrencyID: input.CurrencyID}
}

func (uc *LedgerUseCase) changeRow(input MovementInput, signed, before, after decimal.Decimal, now time.Time) *domain.BalanceChange {
	return &domain.BalanceChange{
		ID:            uc.idGen.Generate(),
		BranchID:      input.BranchID,
		CurrencyID:    input.CurrencyID,
		ChangeType:    input.ChangeType,
		Amount:        signed,
		BalanceBefore: before,
		BalanceAfter:  after,
		ReferenceID:   input.ReferenceID,
		ReferenceType: input.ReferenceType,
		PerformedBy:   input.Actor,
		PerformedAt:   now,
		Notes:         input.Notes,
	}
}

func (uc *LedgerUseCase) raiseReconciliationAlert(ctx context.Context, balance *domain.BranchBalance, report *domain.ReconciliationReport) {
	if uc.alerts == nil {
		return
	}

	currencyID := balance.CurrencyID
	_, _ = uc.alerts.Raise(ctx, RaiseAlertInput{
		BranchID:   balance.BranchID,
		CurrencyID: &currencyID,
		Type:       domain.AlertReconciliationNeeded,
		Severity:   domain.SeverityCritical,
		Title:      "balance reconciliation mismatch",
		Message:    report.Difference.String() + " drift between stored balance and change log",
	})
}
