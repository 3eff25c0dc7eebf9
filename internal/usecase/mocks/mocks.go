package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxoffice/internal/domain"
	"github.com/iho/fxoffice/internal/usecase"
)

// MockCurrencyRepository is a mock implementation of CurrencyRepository.
type MockCurrencyRepository struct {
	mu         sync.RWMutex
	currencies map[string]*domain.Currency

	CreateFunc           func(ctx context.Context, currency *domain.Currency) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Currency, error)
	GetByCodeFunc        func(ctx context.Context, code string) (*domain.Currency, error)
	ListFunc             func(ctx context.Context, includeInactive bool, limit, offset int) ([]*domain.Currency, error)
	GetBaseForUpdateFunc func(ctx context.Context, tx usecase.Transaction) (*domain.Currency, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Currency, error)
	SetBaseFlagFunc      func(ctx context.Context, tx usecase.Transaction, id string, isBase bool, updatedAt time.Time) error
}

func NewMockCurrencyRepository() *MockCurrencyRepository {
	return &MockCurrencyRepository{
		currencies: make(map[string]*domain.Currency),
	}
}

// Seed inserts a currency directly into the backing map.
func (m *MockCurrencyRepository) Seed(currencies ...*domain.Currency) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range currencies {
		m.currencies[c.ID] = c
	}
}

func (m *MockCurrencyRepository) Create(ctx context.Context, currency *domain.Currency) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, currency)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currencies[currency.ID] = currency
	return nil
}

func (m *MockCurrencyRepository) GetByID(ctx context.Context, id string) (*domain.Currency, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.currencies[id]; ok {
		return c, nil
	}
	return nil, domain.ErrCurrencyNotFound
}

func (m *MockCurrencyRepository) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	if m.GetByCodeFunc != nil {
		return m.GetByCodeFunc(ctx, code)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.currencies {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, domain.ErrCurrencyNotFound
}

func (m *MockCurrencyRepository) List(ctx context.Context, includeInactive bool, limit, offset int) ([]*domain.Currency, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, includeInactive, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Currency
	for _, c := range m.currencies {
		if c.Active || includeInactive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *MockCurrencyRepository) GetBaseForUpdate(ctx context.Context, tx usecase.Transaction) (*domain.Currency, error) {
	if m.GetBaseForUpdateFunc != nil {
		return m.GetBaseForUpdateFunc(ctx, tx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.currencies {
		if c.IsBase && c.Active {
			return c, nil
		}
	}
	return nil, domain.ErrCurrencyNotFound
}

func (m *MockCurrencyRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Currency, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockCurrencyRepository) SetBaseFlag(ctx context.Context, tx usecase.Transaction, id string, isBase bool, updatedAt time.Time) error {
	if m.SetBaseFlagFunc != nil {
		return m.SetBaseFlagFunc(ctx, tx, id, isBase, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.currencies[id]; ok {
		c.IsBase = isBase
		c.UpdatedAt = updatedAt
		return nil
	}
	return domain.ErrCurrencyNotFound
}

// MockRateRepository is a mock implementation of RateRepository.
type MockRateRepository struct {
	mu      sync.RWMutex
	rates   map[string]*domain.ExchangeRate
	history []*domain.ExchangeRateHistory

	GetOpenForUpdateFunc func(ctx context.Context, tx usecase.Transaction, pair domain.RatePair) (*domain.ExchangeRate, error)
	CloseIntervalFunc    func(ctx context.Context, tx usecase.Transaction, rateID string, effectiveTo time.Time) error
	CreateFunc           func(ctx context.Context, tx usecase.Transaction, rate *domain.ExchangeRate) error
	GetAtFunc            func(ctx context.Context, pair domain.RatePair, at time.Time) (*domain.ExchangeRate, error)
	CreateHistoryFunc    func(ctx context.Context, tx usecase.Transaction, entry *domain.ExchangeRateHistory) error
	ListHistoryFunc      func(ctx context.Context, pair domain.RatePair, rng domain.TimeRange, limit, offset int) ([]*domain.ExchangeRateHistory, error)
}

func NewMockRateRepository() *MockRateRepository {
	return &MockRateRepository{
		rates: make(map[string]*domain.ExchangeRate),
	}
}

// History returns the recorded history rows.
func (m *MockRateRepository) History() []*domain.ExchangeRateHistory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.ExchangeRateHistory(nil), m.history...)
}

func (m *MockRateRepository) GetOpenForUpdate(ctx context.Context, tx usecase.Transaction, pair domain.RatePair) (*domain.ExchangeRate, error) {
	if m.GetOpenForUpdateFunc != nil {
		return m.GetOpenForUpdateFunc(ctx, tx, pair)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rates {
		if r.Pair == pair && r.EffectiveTo == nil {
			return r, nil
		}
	}
	return nil, domain.ErrNoRateFound
}

func (m *MockRateRepository) CloseInterval(ctx context.Context, tx usecase.Transaction, rateID string, effectiveTo time.Time) error {
	if m.CloseIntervalFunc != nil {
		return m.CloseIntervalFunc(ctx, tx, rateID, effectiveTo)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rates[rateID]; ok {
		r.EffectiveTo = &effectiveTo
		return nil
	}
	return domain.ErrRateNotFound
}

func (m *MockRateRepository) Create(ctx context.Context, tx usecase.Transaction, rate *domain.ExchangeRate) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, rate)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[rate.ID] = rate
	return nil
}

func (m *MockRateRepository) GetAt(ctx context.Context, pair domain.RatePair, at time.Time) (*domain.ExchangeRate, error) {
	if m.GetAtFunc != nil {
		return m.GetAtFunc(ctx, pair, at)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rates {
		if r.Pair == pair && r.Covers(at) {
			return r, nil
		}
	}
	return nil, domain.ErrNoRateFound
}

func (m *MockRateRepository) CreateHistory(ctx context.Context, tx usecase.Transaction, entry *domain.ExchangeRateHistory) error {
	if m.CreateHistoryFunc != nil {
		return m.CreateHistoryFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, entry)
	return nil
}

func (m *MockRateRepository) ListHistory(ctx context.Context, pair domain.RatePair, rng domain.TimeRange, limit, offset int) ([]*domain.ExchangeRateHistory, error) {
	if m.ListHistoryFunc != nil {
		return m.ListHistoryFunc(ctx, pair, rng, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ExchangeRateHistory
	for _, h := range m.history {
		if h.Pair == pair {
			out = append(out, h)
		}
	}
	return out, nil
}

// MockBalanceRepository is a mock implementation of BalanceRepository.
type MockBalanceRepository struct {
	mu       sync.RWMutex
	balances map[domain.BalanceKey]*domain.BranchBalance
	changes  []*domain.BalanceChange

	GetFunc              func(ctx context.Context, key domain.BalanceKey) (*domain.BranchBalance, error)
	GetForUpdateFunc     func(ctx context.Context, tx usecase.Transaction, key domain.BalanceKey) (*domain.BranchBalance, error)
	CreateFunc           func(ctx context.Context, tx usecase.Transaction, balance *domain.BranchBalance) error
	UpdateAmountsFunc    func(ctx context.Context, tx usecase.Transaction, id string, balance, reserved decimal.Decimal, updatedAt time.Time) error
	UpdateThresholdsFunc func(ctx context.Context, tx usecase.Transaction, id string, min, max *decimal.Decimal, updatedAt time.Time) error
	MarkReconciledFunc   func(ctx context.Context, tx usecase.Transaction, id string, at time.Time, by string) error
	ListByBranchFunc     func(ctx context.Context, branchID string, limit, offset int) ([]*domain.BranchBalance, error)
	CreateChangeFunc     func(ctx context.Context, tx usecase.Transaction, change *domain.BalanceChange) error
	ListChangesFunc      func(ctx context.Context, key domain.BalanceKey, rng domain.TimeRange, limit, offset int) ([]*domain.BalanceChange, error)
	SumChangesSinceFunc  func(ctx context.Context, tx usecase.Transaction, key domain.BalanceKey, since *time.Time) (decimal.Decimal, int, error)
}

func NewMockBalanceRepository() *MockBalanceRepository {
	return &MockBalanceRepository{
		balances: make(map[domain.BalanceKey]*domain.BranchBalance),
	}
}

// Seed inserts a balance directly into the backing map.
func (m *MockBalanceRepository) Seed(balances ...*domain.BranchBalance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range balances {
		m.balances[domain.BalanceKey{BranchID: b.BranchID, CurrencyID: b.CurrencyID}] = b
	}
}

// Changes returns the recorded change rows.
func (m *MockBalanceRepository) Changes() []*domain.BalanceChange {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.BalanceChange(nil), m.changes...)
}

func (m *MockBalanceRepository) Get(ctx context.Context, key domain.BalanceKey) (*domain.BranchBalance, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.balances[key]; ok {
		return b, nil
	}
	return nil, domain.ErrBalanceNotFound
}

func (m *MockBalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, key domain.BalanceKey) (*domain.BranchBalance, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, tx, key)
	}
	return m.Get(ctx, key)
}

func (m *MockBalanceRepository) Create(ctx context.Context, tx usecase.Transaction, balance *domain.BranchBalance) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, balance)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[domain.BalanceKey{BranchID: balance.BranchID, CurrencyID: balance.CurrencyID}] = balance
	return nil
}

func (m *MockBalanceRepository) UpdateAmounts(ctx context.Context, tx usecase.Transaction, id string, balance, reserved decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateAmountsFunc != nil {
		return m.UpdateAmountsFunc(ctx, tx, id, balance, reserved, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.balances {
		if b.ID == id {
			b.Balance = balance
			b.Reserved = reserved
			b.LastUpdated = updatedAt
			return nil
		}
	}
	return domain.ErrBalanceNotFound
}

func (m *MockBalanceRepository) UpdateThresholds(ctx context.Context, tx usecase.Transaction, id string, min, max *decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateThresholdsFunc != nil {
		return m.UpdateThresholdsFunc(ctx, tx, id, min, max, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.balances {
		if b.ID == id {
			b.MinThreshold = min
			b.MaxThreshold = max
			b.LastUpdated = updatedAt
			return nil
		}
	}
	return domain.ErrBalanceNotFound
}

func (m *MockBalanceRepository) MarkReconciled(ctx context.Context, tx usecase.Transaction, id string, at time.Time, by string) error {
	if m.MarkReconciledFunc != nil {
		return m.MarkReconciledFunc(ctx, tx, id, at, by)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.balances {
		if b.ID == id {
			b.LastReconciledAt = &at
			b.LastReconciledBy = &by
			return nil
		}
	}
	return domain.ErrBalanceNotFound
}

func (m *MockBalanceRepository) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*domain.BranchBalance, error) {
	if m.ListByBranchFunc != nil {
		return m.ListByBranchFunc(ctx, branchID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.BranchBalance
	for _, b := range m.balances {
		if b.BranchID == branchID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CurrencyID < out[j].CurrencyID })
	return out, nil
}

func (m *MockBalanceRepository) CreateChange(ctx context.Context, tx usecase.Transaction, change *domain.BalanceChange) error {
	if m.CreateChangeFunc != nil {
		return m.CreateChangeFunc(ctx, tx, change)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, change)
	return nil
}

func (m *MockBalanceRepository) ListChanges(ctx context.Context, key domain.BalanceKey, rng domain.TimeRange, limit, offset int) ([]*domain.BalanceChange, error) {
	if m.ListChangesFunc != nil {
		return m.ListChangesFunc(ctx, key, rng, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.BalanceChange
	for _, c := range m.changes {
		if c.BranchID == key.BranchID && c.CurrencyID == key.CurrencyID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockBalanceRepository) SumChangesSince(ctx context.Context, tx usecase.Transaction, key domain.BalanceKey, since *time.Time) (decimal.Decimal, int, error) {
	if m.SumChangesSinceFunc != nil {
		return m.SumChangesSinceFunc(ctx, tx, key, since)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	count := 0
	for _, c := range m.changes {
		if c.BranchID != key.BranchID || c.CurrencyID != key.CurrencyID {
			continue
		}
		if since != nil && !c.PerformedAt.After(*since) {
			continue
		}
		sum = sum.Add(c.Amount)
		count++
	}
	return sum, count, nil
}

// MockAlertRepository is a mock implementation of AlertRepository.
type MockAlertRepository struct {
	mu     sync.RWMutex
	alerts map[string]*domain.BranchAlert

	CreateFunc        func(ctx context.Context, alert *domain.BranchAlert) error
	GetByIDFunc       func(ctx context.Context, id string) (*domain.BranchAlert, error)
	GetUnresolvedFunc func(ctx context.Context, branchID string, currencyID *string, alertType domain.AlertType) (*domain.BranchAlert, error)
	ResolveFunc       func(ctx context.Context, id string, at time.Time, by, notes string) error
	ListFunc          func(ctx context.Context, branchID string, unresolvedOnly bool, limit, offset int) ([]*domain.BranchAlert, error)
}

func NewMockAlertRepository() *MockAlertRepository {
	return &MockAlertRepository{
		alerts: make(map[string]*domain.BranchAlert),
	}
}

func (m *MockAlertRepository) Create(ctx context.Context, alert *domain.BranchAlert) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, alert)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts[alert.ID] = alert
	return nil
}

func (m *MockAlertRepository) GetByID(ctx context.Context, id string) (*domain.BranchAlert, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.alerts[id]; ok {
		return a, nil
	}
	return nil, domain.ErrAlertNotFound
}

func (m *MockAlertRepository) GetUnresolved(ctx context.Context, branchID string, currencyID *string, alertType domain.AlertType) (*domain.BranchAlert, error) {
	if m.GetUnresolvedFunc != nil {
		return m.GetUnresolvedFunc(ctx, branchID, currencyID, alertType)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.alerts {
		if a.Resolved || a.BranchID != branchID || a.Type != alertType {
			continue
		}
		if (a.CurrencyID == nil) != (currencyID == nil) {
			continue
		}
		if currencyID != nil && *a.CurrencyID != *currencyID {
			continue
		}
		return a, nil
	}
	return nil, domain.ErrAlertNotFound
}

func (m *MockAlertRepository) Resolve(ctx context.Context, id string, at time.Time, by, notes string) error {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, id, at, by, notes)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return domain.ErrAlertNotFound
	}
	a.Resolved = true
	a.ResolvedAt = &at
	a.ResolvedBy = &by
	a.ResolutionNotes = notes
	return nil
}

func (m *MockAlertRepository) List(ctx context.Context, branchID string, unresolvedOnly bool, limit, offset int) ([]*domain.BranchAlert, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, branchID, unresolvedOnly, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.BranchAlert
	for _, a := range m.alerts {
		if a.BranchID != branchID {
			continue
		}
		if unresolvedOnly && a.Resolved {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TriggeredAt.After(out[j].TriggeredAt) })
	return out, nil
}

// MockRateRequestRepository is a mock implementation of
// RateRequestRepository.
type MockRateRequestRepository struct {
	mu       sync.RWMutex
	requests map[string]*domain.RateUpdateRequest

	CreateFunc       func(ctx context.Context, request *domain.RateUpdateRequest) error
	GetByIDFunc      func(ctx context.Context, id string) (*domain.RateUpdateRequest, error)
	UpdateStatusFunc func(ctx context.Context, id string, from, to domain.UpdateRequestStatus, review usecase.ReviewUpdate) (bool, error)
	RecordReviewFunc func(ctx context.Context, id string, review usecase.ReviewUpdate) error
	MarkExpiredFunc  func(ctx context.Context, now time.Time) (int, error)
	ListFunc         func(ctx context.Context, status *domain.UpdateRequestStatus, limit, offset int) ([]*domain.RateUpdateRequest, error)
}

func NewMockRateRequestRepository() *MockRateRequestRepository {
	return &MockRateRequestRepository{
		requests: make(map[string]*domain.RateUpdateRequest),
	}
}

// Seed inserts a request directly into the backing map.
func (m *MockRateRequestRepository) Seed(requests ...*domain.RateUpdateRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range requests {
		m.requests[r.ID] = r
	}
}

func (m *MockRateRequestRepository) Create(ctx context.Context, request *domain.RateUpdateRequest) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, request)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[request.ID] = request
	return nil
}

func (m *MockRateRequestRepository) GetByID(ctx context.Context, id string) (*domain.RateUpdateRequest, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.requests[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, domain.ErrRequestNotFound
}

func (m *MockRateRequestRepository) UpdateStatus(ctx context.Context, id string, from, to domain.UpdateRequestStatus, review usecase.ReviewUpdate) (bool, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, from, to, review)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return false, domain.ErrRequestNotFound
	}
	if r.Status != from {
		return false, nil
	}
	r.Status = to
	r.ReviewedBy = review.ReviewedBy
	r.ReviewedAt = review.ReviewedAt
	r.ReviewNotes = review.ReviewNotes
	r.RatesAppliedCount = review.AppliedCount
	r.ErrorMessage = review.ErrorMessage
	return true, nil
}

func (m *MockRateRequestRepository) RecordReview(ctx context.Context, id string, review usecase.ReviewUpdate) error {
	if m.RecordReviewFunc != nil {
		return m.RecordReviewFunc(ctx, id, review)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return domain.ErrRequestNotFound
	}
	if r.ReviewedAt != nil {
		return nil
	}
	r.ReviewedBy = review.ReviewedBy
	r.ReviewedAt = review.ReviewedAt
	r.ReviewNotes = review.ReviewNotes
	r.RatesAppliedCount = review.AppliedCount
	r.ErrorMessage = review.ErrorMessage
	return nil
}

func (m *MockRateRequestRepository) MarkExpired(ctx context.Context, now time.Time) (int, error) {
	if m.MarkExpiredFunc != nil {
		return m.MarkExpiredFunc(ctx, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	moved := 0
	for _, r := range m.requests {
		if r.Status == domain.RequestPending && r.IsExpired(now) {
			r.Status = domain.RequestExpired
			moved++
		}
	}
	return moved, nil
}

func (m *MockRateRequestRepository) List(ctx context.Context, status *domain.UpdateRequestStatus, limit, offset int) ([]*domain.RateUpdateRequest, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, status, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.RateUpdateRequest
	for _, r := range m.requests {
		if status != nil && r.Status != *status {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%04d", m.counter)
}

// MockKeyLocker is a mock implementation of KeyLocker. The default
// always grants the lock and records acquisition order.
type MockKeyLocker struct {
	mu   sync.Mutex
	keys []string

	AcquireFunc func(ctx context.Context, key string) (func(), error)
}

func NewMockKeyLocker() *MockKeyLocker {
	return &MockKeyLocker{}
}

func (m *MockKeyLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return func() {}, nil
}

// AcquiredKeys returns keys in acquisition order.
func (m *MockKeyLocker) AcquiredKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.keys...)
}

// MockClock is a settable Clock frozen at Current.
type MockClock struct {
	mu      sync.Mutex
	Current time.Time
}

func NewMockClock(at time.Time) *MockClock {
	return &MockClock{Current: at}
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Current
}

// Advance moves the clock forward.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Current = m.Current.Add(d)
}
