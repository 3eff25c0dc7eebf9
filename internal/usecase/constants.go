package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultRequestTTL is the review window for a rate update request.
	DefaultRequestTTL = 24 * time.Hour

	// DefaultLockTimeout bounds waiting for a per-key lock.
	DefaultLockTimeout = 5 * time.Second

	// DefaultSpreadPercent is the buy/sell spread applied when approving
	// fetched rates that carry only a mid rate.
	DefaultSpreadPercent = "2.0"
)
