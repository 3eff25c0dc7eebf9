package domain

import "errors"

var (
	// Rate timeline errors
	ErrInvalidRate             = errors.New("rate must be positive")
	ErrSameCurrency            = errors.New("cannot set rate for same currency")
	ErrOutOfOrderEffectiveDate = errors.New("effective date must be after the current rate's effective date")
	ErrNoRateFound             = errors.New("no rate found for currency pair")
	ErrRateNotFound            = errors.New("exchange rate not found")

	// Currency registry errors
	ErrInvalidCurrencyCode  = errors.New("invalid currency code")
	ErrCurrencyNotFound     = errors.New("currency not found")
	ErrCurrencyInactive     = errors.New("currency is not active")
	ErrCurrencyExists       = errors.New("currency code already registered")
	ErrMultipleBaseCurrency = errors.New("another active currency is already the base currency")

	// Ledger errors
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrBalanceNotFound       = errors.New("branch balance not found")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAvailable = errors.New("insufficient available balance")
	ErrOverRelease           = errors.New("release exceeds reserved balance")
	ErrBalanceInactive       = errors.New("branch balance is deactivated")

	// Rate update workflow errors
	ErrRequestNotFound   = errors.New("rate update request not found")
	ErrRequestNotPending = errors.New("rate update request is not pending")
	ErrRequestExpired    = errors.New("rate update request has expired")

	// Alert errors
	ErrAlertNotFound = errors.New("alert not found")
	ErrAlertResolved = errors.New("alert is already resolved")

	// Concurrency errors
	ErrContentionTimeout = errors.New("timed out waiting for key lock")
)
