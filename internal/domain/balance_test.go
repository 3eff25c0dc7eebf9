package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBranchBalance_ValidateDebit(t *testing.T) {
	tests := []struct {
		name          string
		balance       decimal.Decimal
		reserved      decimal.Decimal
		amount        decimal.Decimal
		availableOnly bool
		wantErr       error
	}{
		{
			name:    "debit within balance",
			balance: decimal.NewFromInt(100),
			amount:  decimal.NewFromInt(40),
		},
		{
			name:    "debit exact balance",
			balance: decimal.NewFromInt(100),
			amount:  decimal.NewFromInt(100),
		},
		{
			name:    "debit more than balance",
			balance: decimal.NewFromInt(100),
			amount:  decimal.NewFromInt(150),
			wantErr: ErrInsufficientBalance,
		},
		{
			name:    "zero amount",
			balance: decimal.NewFromInt(100),
			amount:  decimal.Zero,
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			balance: decimal.NewFromInt(100),
			amount:  decimal.NewFromInt(-5),
			wantErr: ErrInvalidAmount,
		},
		{
			name:          "available-only debit blocked by reservation",
			balance:       decimal.NewFromInt(60),
			reserved:      decimal.NewFromInt(50),
			amount:        decimal.NewFromInt(80),
			availableOnly: true,
			wantErr:       ErrInsufficientBalance,
		},
		{
			name:          "available-only debit within available",
			balance:       decimal.NewFromInt(60),
			reserved:      decimal.NewFromInt(50),
			amount:        decimal.NewFromInt(10),
			availableOnly: true,
		},
		{
			name:     "plain debit may not break reservation cover",
			balance:  decimal.NewFromInt(100),
			reserved: decimal.NewFromInt(80),
			amount:   decimal.NewFromInt(30),
			wantErr:  ErrInsufficientAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &BranchBalance{Balance: tt.balance, Reserved: tt.reserved}

			err := b.ValidateDebit(tt.amount, tt.availableOnly)

			if tt.wantErr == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBranchBalance_ValidateDebit_AvailableOnlyScenario(t *testing.T) {
	// reserve 50 of 60, then debit 80 available-only: available = 10 < 80
	b := &BranchBalance{
		Balance:  decimal.NewFromInt(60),
		Reserved: decimal.NewFromInt(50),
	}

	err := b.ValidateDebit(decimal.NewFromInt(80), true)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	// the amount also exceeds the total balance here, so the stronger
	// insufficient-balance error wins; a debit of 40 isolates the
	// available-only failure
	err = b.ValidateDebit(decimal.NewFromInt(40), true)
	if !errors.Is(err, ErrInsufficientAvailable) {
		t.Errorf("expected ErrInsufficientAvailable, got %v", err)
	}
}

func TestBranchBalance_ValidateReserveRelease(t *testing.T) {
	b := &BranchBalance{
		Balance:  decimal.NewFromInt(100),
		Reserved: decimal.NewFromInt(30),
	}

	if err := b.ValidateReserve(decimal.NewFromInt(70)); err != nil {
		t.Errorf("reserve up to available should pass, got %v", err)
	}

	if err := b.ValidateReserve(decimal.NewFromInt(71)); !errors.Is(err, ErrInsufficientAvailable) {
		t.Errorf("expected ErrInsufficientAvailable, got %v", err)
	}

	if err := b.ValidateRelease(decimal.NewFromInt(30)); err != nil {
		t.Errorf("release up to reserved should pass, got %v", err)
	}

	if err := b.ValidateRelease(decimal.NewFromInt(31)); !errors.Is(err, ErrOverRelease) {
		t.Errorf("expected ErrOverRelease, got %v", err)
	}
}

func TestBalanceChange_Validate(t *testing.T) {
	tests := []struct {
		name        string
		change      BalanceChange
		expectError bool
	}{
		{
			name: "consistent credit row",
			change: BalanceChange{
				ChangeType:    BalanceChangeInitialBalance,
				Amount:        decimal.NewFromInt(100),
				BalanceBefore: decimal.Zero,
				BalanceAfter:  decimal.NewFromInt(100),
			},
		},
		{
			name: "consistent debit row",
			change: BalanceChange{
				ChangeType:    BalanceChangeTransaction,
				Amount:        decimal.NewFromInt(-40),
				BalanceBefore: decimal.NewFromInt(100),
				BalanceAfter:  decimal.NewFromInt(60),
			},
		},
		{
			name: "before plus amount does not equal after",
			change: BalanceChange{
				ChangeType:    BalanceChangeTransaction,
				Amount:        decimal.NewFromInt(-40),
				BalanceBefore: decimal.NewFromInt(100),
				BalanceAfter:  decimal.NewFromInt(70),
			},
			expectError: true,
		},
		{
			name: "negative balance after",
			change: BalanceChange{
				ChangeType:    BalanceChangeAdjustment,
				Amount:        decimal.NewFromInt(-10),
				BalanceBefore: decimal.NewFromInt(5),
				BalanceAfter:  decimal.NewFromInt(-5),
			},
			expectError: true,
		},
		{
			name: "unknown change type",
			change: BalanceChange{
				ChangeType:    "withdrawal",
				Amount:        decimal.NewFromInt(10),
				BalanceBefore: decimal.Zero,
				BalanceAfter:  decimal.NewFromInt(10),
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.change.Validate()

			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}

			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
