package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceChangeType classifies a balance mutation.
type BalanceChangeType string

const (
	BalanceChangeTransaction    BalanceChangeType = "transaction"
	BalanceChangeAdjustment     BalanceChangeType = "adjustment"
	BalanceChangeTransferIn     BalanceChangeType = "transfer_in"
	BalanceChangeTransferOut    BalanceChangeType = "transfer_out"
	BalanceChangeReconciliation BalanceChangeType = "reconciliation"
	BalanceChangeInitialBalance BalanceChangeType = "initial_balance"
)

// IsValid checks the change type is a known variant.
func (t BalanceChangeType) IsValid() bool {
	switch t {
	case BalanceChangeTransaction, BalanceChangeAdjustment,
		BalanceChangeTransferIn, BalanceChangeTransferOut,
		BalanceChangeReconciliation, BalanceChangeInitialBalance:
		return true
	}
	return false
}

// BalanceKey identifies a branch's balance in one currency.
type BalanceKey struct {
	BranchID   string
	CurrencyID string
}

// Key returns the canonical lock key for the balance.
func (k BalanceKey) Key() string {
	return "balance:" + k.BranchID + ":" + k.CurrencyID
}

// BranchBalance holds a branch's funds in one currency.
// Invariants: Balance >= 0 and 0 <= Reserved <= Balance at all times.
type BranchBalance struct {
	ID               string
	BranchID         string
	CurrencyID       string
	Balance          decimal.Decimal
	Reserved         decimal.Decimal
	MinThreshold     *decimal.Decimal
	MaxThreshold     *decimal.Decimal
	Active           bool
	LastUpdated      time.Time
	LastReconciledAt *time.Time
	LastReconciledBy *string
	CreatedAt        time.Time
}

// Available returns the portion of the balance not reserved.
func (b *BranchBalance) Available() decimal.Decimal {
	return b.Balance.Sub(b.Reserved)
}

// ValidateDebit checks whether the balance can be debited by amount.
// When availableOnly is set the reserved portion is off limits.
func (b *BranchBalance) ValidateDebit(amount decimal.Decimal, availableOnly bool) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if b.Balance.Sub(amount).IsNegative() {
		return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientBalance, b.Balance, amount)
	}
	if availableOnly && b.Available().Sub(amount).IsNegative() {
		return fmt.Errorf("%w: available %s, requested %s", ErrInsufficientAvailable, b.Available(), amount)
	}
	// A plain debit must still leave the reserved portion covered.
	if !availableOnly && b.Reserved.GreaterThan(b.Balance.Sub(amount)) {
		return fmt.Errorf("%w: reserved %s would exceed balance %s", ErrInsufficientAvailable, b.Reserved, b.Balance.Sub(amount))
	}
	return nil
}

// ValidateReserve checks whether amount can be moved to reserved.
func (b *BranchBalance) ValidateReserve(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if b.Available().Sub(amount).IsNegative() {
		return fmt.Errorf("%w: available %s, requested %s", ErrInsufficientAvailable, b.Available(), amount)
	}
	return nil
}

// ValidateRelease checks whether amount can be released from reserved.
func (b *BranchBalance) ValidateRelease(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if b.Reserved.Sub(amount).IsNegative() {
		return fmt.Errorf("%w: reserved %s, requested %s", ErrOverRelease, b.Reserved, amount)
	}
	return nil
}

// BelowMinimum reports whether the balance is under its minimum threshold.
func (b *BranchBalance) BelowMinimum() bool {
	return b.MinThreshold != nil && b.Balance.LessThan(*b.MinThreshold)
}

// AboveMaximum reports whether the balance is over its maximum threshold.
func (b *BranchBalance) AboveMaximum() bool {
	return b.MaxThreshold != nil && b.Balance.GreaterThan(*b.MaxThreshold)
}

// BalanceChange is an immutable audit record of one balance mutation.
// Amount is signed; BalanceAfter must equal BalanceBefore + Amount.
type BalanceChange struct {
	ID            string
	BranchID      string
	CurrencyID    string
	ChangeType    BalanceChangeType
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	ReferenceID   string
	ReferenceType string
	PerformedBy   string
	PerformedAt   time.Time
	Notes         string
}

// Validate checks the history row's internal consistency.
func (c *BalanceChange) Validate() error {
	if !c.ChangeType.IsValid() {
		return fmt.Errorf("invalid balance change type %q", c.ChangeType)
	}
	if c.BalanceBefore.IsNegative() || c.BalanceAfter.IsNegative() {
		return fmt.Errorf("balance change %s: balances must not be negative", c.ID)
	}
	if !c.BalanceBefore.Add(c.Amount).Equal(c.BalanceAfter) {
		return fmt.Errorf("balance change %s: %s + %s != %s", c.ID, c.BalanceBefore, c.Amount, c.BalanceAfter)
	}
	return nil
}

// ReconciliationReport is the outcome of recomputing a balance from its
// history log and comparing against the stored value.
type ReconciliationReport struct {
	BranchID        string
	CurrencyID      string
	StoredBalance   decimal.Decimal
	ComputedBalance decimal.Decimal
	Difference      decimal.Decimal
	EntriesFolded   int
	Matched         bool
	PerformedBy     string
	CheckedAt       time.Time
}

// ReconciliationMismatch reports drift between the stored balance and the
// balance recomputed from history. It is never auto-corrected; correction
// is a deliberate, separately audited adjustment.
type ReconciliationMismatch struct {
	BranchID        string
	CurrencyID      string
	StoredBalance   decimal.Decimal
	ComputedBalance decimal.Decimal
}

func (e *ReconciliationMismatch) Error() string {
	return fmt.Sprintf(
		"reconciliation mismatch for branch %s currency %s: stored %s, computed %s",
		e.BranchID, e.CurrencyID, e.StoredBalance, e.ComputedBalance,
	)
}
