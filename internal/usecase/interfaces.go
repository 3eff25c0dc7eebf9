package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxoffice/internal/domain"
)

// CurrencyRepository defines data access for the currency registry.
type CurrencyRepository interface {
	Create(ctx context.Context, currency *domain.Currency) error
	GetByID(ctx context.Context, id string) (*domain.Currency, error)
	GetByCode(ctx context.Context, code string) (*domain.Currency, error)
	List(ctx context.Context, includeInactive bool, limit, offset int) ([]*domain.Currency, error)
	// GetBaseForUpdate locks and returns the active base currency, or
	// domain.ErrCurrencyNotFound when none is flagged.
	GetBaseForUpdate(ctx context.Context, tx Transaction) (*domain.Currency, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Currency, error)
	SetBaseFlag(ctx context.Context, tx Transaction, id string, isBase bool, updatedAt time.Time) error
}

// RateRepository defines data access for the exchange rate timeline and
// its audit history.
type RateRepository interface {
	// GetOpenForUpdate locks and returns the pair's open interval
	// (effective_to IS NULL), or domain.ErrNoRateFound.
	GetOpenForUpdate(ctx context.Context, tx Transaction, pair domain.RatePair) (*domain.ExchangeRate, error)
	CloseInterval(ctx context.Context, tx Transaction, rateID string, effectiveTo time.Time) error
	Create(ctx context.Context, tx Transaction, rate *domain.ExchangeRate) error
	// GetAt returns the row whose interval covers the given instant.
	GetAt(ctx context.Context, pair domain.RatePair, at time.Time) (*domain.ExchangeRate, error)
	CreateHistory(ctx context.Context, tx Transaction, entry *domain.ExchangeRateHistory) error
	ListHistory(ctx context.Context, pair domain.RatePair, rng domain.TimeRange, limit, offset int) ([]*domain.ExchangeRateHistory, error)
}

// BalanceRepository defines data access for branch balances and their
// append-only change log.
type BalanceRepository interface {
	Get(ctx context.Context, key domain.BalanceKey) (*domain.BranchBalance, error)
	// GetForUpdate locks the balance row, or returns
	// domain.ErrBalanceNotFound for keys that have never moved funds.
	GetForUpdate(ctx context.Context, tx Transaction, key domain.BalanceKey) (*domain.BranchBalance, error)
	Create(ctx context.Context, tx Transaction, balance *domain.BranchBalance) error
	UpdateAmounts(ctx context.Context, tx Transaction, id string, balance, reserved decimal.Decimal, updatedAt time.Time) error
	UpdateThresholds(ctx context.Context, tx Transaction, id string, min, max *decimal.Decimal, updatedAt time.Time) error
	MarkReconciled(ctx context.Context, tx Transaction, id string, at time.Time, by string) error
	ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*domain.BranchBalance, error)
	CreateChange(ctx context.Context, tx Transaction, change *domain.BalanceChange) error
	ListChanges(ctx context.Context, key domain.BalanceKey, rng domain.TimeRange, limit, offset int) ([]*domain.BalanceChange, error)
	// SumChangesSince folds the signed amounts recorded after the given
	// instant (all history when since is nil), returning the sum and the
	// number of rows folded.
	SumChangesSince(ctx context.Context, tx Transaction, key domain.BalanceKey, since *time.Time) (decimal.Decimal, int, error)
}

// AlertRepository defines data access for branch alerts.
type AlertRepository interface {
	Create(ctx context.Context, alert *domain.BranchAlert) error
	GetByID(ctx context.Context, id string) (*domain.BranchAlert, error)
	// GetUnresolved returns the open alert for (branch, currency, type),
	// or domain.ErrAlertNotFound.
	GetUnresolved(ctx context.Context, branchID string, currencyID *string, alertType domain.AlertType) (*domain.BranchAlert, error)
	Resolve(ctx context.Context, id string, at time.Time, by, notes string) error
	List(ctx context.Context, branchID string, unresolvedOnly bool, limit, offset int) ([]*domain.BranchAlert, error)
}

// RateRequestRepository defines data access for rate update requests.
type RateRequestRepository interface {
	Create(ctx context.Context, request *domain.RateUpdateRequest) error
	GetByID(ctx context.Context, id string) (*domain.RateUpdateRequest, error)
	// UpdateStatus performs a compare-and-swap transition: the update
	// applies only while the stored status equals from. The boolean
	// reports whether the row was actually transitioned.
	UpdateStatus(ctx context.Context, id string, from, to domain.UpdateRequestStatus, review ReviewUpdate) (bool, error)
	// RecordReview writes review metadata onto a request without
	// touching its status, for reviews that lose the transition race
	// after mutating the timeline. Rows already carrying a review are
	// left alone.
	RecordReview(ctx context.Context, id string, review ReviewUpdate) error
	// MarkExpired transitions every pending request whose expiry has
	// passed, returning the number of rows moved. Safe to call
	// repeatedly and concurrently with UpdateStatus.
	MarkExpired(ctx context.Context, now time.Time) (int, error)
	List(ctx context.Context, status *domain.UpdateRequestStatus, limit, offset int) ([]*domain.RateUpdateRequest, error)
}

// ReviewUpdate carries the review metadata written alongside a status
// transition.
type ReviewUpdate struct {
	ReviewedBy   *string
	ReviewedAt   *time.Time
	ReviewNotes  string
	AppliedCount int
	ErrorMessage string
}

// RateFeed is the external rate source collaborator. It returns the
// fetched pair rates keyed by target currency plus the source identifier
// actually used.
type RateFeed interface {
	FetchRates(ctx context.Context, base string, targets []string) (map[string]decimal.Decimal, string, error)
}

// KeyLocker serializes conflicting mutations per key. Acquire blocks for
// a bounded time and returns domain.ErrContentionTimeout when the key
// stays busy; the returned function releases the lock.
type KeyLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Clock supplies the current time. Mutating operations never call
// time.Now directly so tests and replay can control it.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
