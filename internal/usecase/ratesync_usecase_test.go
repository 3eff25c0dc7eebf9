package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/fxoffice/internal/domain"
	"github.com/iho/fxoffice/internal/usecase"
	"github.com/iho/fxoffice/internal/usecase/mocks"
)

type syncFixture struct {
	requestRepo  *mocks.MockRateRequestRepository
	currencyRepo *mocks.MockCurrencyRepository
	rateRepo     *mocks.MockRateRepository
	feed         *mocks.MockRateFeed
	clock        *mocks.MockClock
	timeline     *usecase.RateTimelineUseCase
	sync         *usecase.RateSyncUseCase
}

func newSyncFixture(t *testing.T) *syncFixture {
	ctrl := gomock.NewController(t)

	f := &syncFixture{
		requestRepo:  mocks.NewMockRateRequestRepository(),
		currencyRepo: mocks.NewMockCurrencyRepository(),
		rateRepo:     mocks.NewMockRateRepository(),
		feed:         mocks.NewMockRateFeed(ctrl),
		clock:        mocks.NewMockClock(time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)),
	}
	seedCurrencies(f.currencyRepo, "USD", "TRY", "EUR")

	f.timeline = newRateTimeline(f.currencyRepo, f.rateRepo, f.clock)
	f.sync = usecase.NewRateSyncUseCase(
		f.requestRepo,
		f.feed,
		f.timeline,
		mocks.NewMockKeyLocker(),
		mocks.NewMockIDGenerator(),
		f.clock,
		nil,
		0,
		decimal.Zero,
	)
	return f
}

func TestRateSyncUseCase_InitiateSync(t *testing.T) {
	f := newSyncFixture(t)

	// An existing USD/TRY rate lets the request report the drift.
	if _, err := f.timeline.SetRate(context.Background(), usecase.SetRateInput{
		From: "USD", To: "TRY", Rate: decimal.NewFromInt(32), Actor: "alice",
	}); err != nil {
		t.Fatalf("SetRate: %v", err)
	}
	f.clock.Advance(time.Hour)

	f.feed.EXPECT().FetchRates(gomock.Any(), "USD", []string{"EUR", "TRY"}).Return(
		map[string]decimal.Decimal{
			"TRY": decimal.RequireFromString("33.6"),
			"EUR": decimal.RequireFromString("0.92"),
		}, "openexchangerates", nil)

	request, err := f.sync.InitiateSync(context.Background(), usecase.InitiateSyncInput{
		BaseCurrency: "usd",
		Targets:      []string{"try", "eur"},
		Actor:        "scheduler",
	})
	if err != nil {
		t.Fatalf("InitiateSync: %v", err)
	}

	if request.Status != domain.RequestPending {
		t.Errorf("expected pending status, got %s", request.Status)
	}
	if want := f.clock.Now().Add(24 * time.Hour); !request.ExpiresAt.Equal(want) {
		t.Errorf("expected expiry %s, got %s", want, request.ExpiresAt)
	}
	if len(request.FetchedRates) != 2 {
		t.Fatalf("expected 2 fetched rates, got %d", len(request.FetchedRates))
	}

	try := request.FetchedRates["USD/TRY"]
	if try.CurrentRate == nil || !try.CurrentRate.Equal(decimal.NewFromInt(32)) {
		t.Error("expected current rate annotation for USD/TRY")
	}
	if try.ChangePct == nil || !try.ChangePct.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected 5%% change, got %v", try.ChangePct)
	}

	eur := request.FetchedRates["USD/EUR"]
	if eur.CurrentRate != nil {
		t.Error("pair with no timeline rate should have no current annotation")
	}
}

func TestRateSyncUseCase_InitiateSync_FeedFailure(t *testing.T) {
	f := newSyncFixture(t)

	f.feed.EXPECT().FetchRates(gomock.Any(), "USD", []string{"TRY"}).
		Return(nil, "", errors.New("upstream 503"))

	_, err := f.sync.InitiateSync(context.Background(), usecase.InitiateSyncInput{
		BaseCurrency: "USD",
		Targets:      []string{"TRY"},
		Actor:        "scheduler",
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	// A failed fetch stores nothing.
	requests, _ := f.requestRepo.List(context.Background(), nil, 10, 0)
	if len(requests) != 0 {
		t.Errorf("expected no stored requests, got %d", len(requests))
	}
}

func pendingRequest(now time.Time) *domain.RateUpdateRequest {
	return &domain.RateUpdateRequest{
		ID:           "req-1",
		Status:       domain.RequestPending,
		Source:       "openexchangerates",
		BaseCurrency: "USD",
		FetchedRates: map[string]domain.FetchedRate{
			"USD/TRY": {FromCurrency: "USD", ToCurrency: "TRY", FetchedRate: decimal.RequireFromString("33.6")},
			"USD/EUR": {FromCurrency: "USD", ToCurrency: "EUR", FetchedRate: decimal.RequireFromString("0.92")},
		},
		RequestedBy: "scheduler",
		RequestedAt: now,
		ExpiresAt:   now.Add(24 * time.Hour),
	}
}

func TestRateSyncUseCase_Approve(t *testing.T) {
	f := newSyncFixture(t)
	f.requestRepo.Seed(pendingRequest(f.clock.Now()))
	f.clock.Advance(time.Hour)

	request, err := f.sync.Approve(context.Background(), usecase.ReviewInput{
		RequestID: "req-1",
		Actor:     "manager",
		Notes:     "looks sane",
	})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if request.Status != domain.RequestApproved {
		t.Errorf("expected approved, got %s", request.Status)
	}
	if request.RatesAppliedCount != 2 {
		t.Errorf("expected 2 rates applied, got %d", request.RatesAppliedCount)
	}
	if request.ReviewedBy == nil || *request.ReviewedBy != "manager" {
		t.Error("expected reviewer recorded")
	}

	// The timeline carries the applied mid rate with spread quotes.
	rate, err := f.timeline.GetCurrentRate(context.Background(), "USD", "TRY", nil)
	if err != nil {
		t.Fatalf("GetCurrentRate after approve: %v", err)
	}
	if !rate.Rate.Equal(decimal.RequireFromString("33.6")) {
		t.Errorf("expected applied rate 33.6, got %s", rate.Rate)
	}
	if rate.BuyRate == nil || rate.SellRate == nil {
		t.Fatal("expected spread quotes on applied rate")
	}
	// Default 2% spread: buy below mid, sell above.
	if !rate.BuyRate.LessThan(rate.Rate) || !rate.SellRate.GreaterThan(rate.Rate) {
		t.Error("expected buy < mid < sell")
	}
}

func TestRateSyncUseCase_Approve_PartialFailure(t *testing.T) {
	f := newSyncFixture(t)
	f.requestRepo.Seed(pendingRequest(f.clock.Now()))
	f.clock.Advance(time.Hour)

	// Deactivate EUR so USD/EUR fails to apply while USD/TRY lands.
	eur, _ := f.currencyRepo.GetByCode(context.Background(), "EUR")
	eur.Active = false

	request, err := f.sync.Approve(context.Background(), usecase.ReviewInput{
		RequestID: "req-1",
		Actor:     "manager",
	})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if request.Status != domain.RequestApproved {
		t.Errorf("partial success should still approve, got %s", request.Status)
	}
	if request.RatesAppliedCount != 1 {
		t.Errorf("expected 1 rate applied, got %d", request.RatesAppliedCount)
	}
	if request.ErrorMessage == "" {
		t.Error("expected failed pairs recorded in error message")
	}
}

func TestRateSyncUseCase_Approve_AllFail(t *testing.T) {
	f := newSyncFixture(t)
	f.requestRepo.Seed(pendingRequest(f.clock.Now()))
	f.clock.Advance(time.Hour)

	for _, code := range []string{"TRY", "EUR"} {
		c, _ := f.currencyRepo.GetByCode(context.Background(), code)
		c.Active = false
	}

	request, err := f.sync.Approve(context.Background(), usecase.ReviewInput{
		RequestID: "req-1",
		Actor:     "manager",
	})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if request.Status != domain.RequestFailed {
		t.Errorf("expected failed when nothing applied, got %s", request.Status)
	}
	if request.RatesAppliedCount != 0 {
		t.Errorf("expected 0 applied, got %d", request.RatesAppliedCount)
	}
}

func TestRateSyncUseCase_Approve_LostRaceKeepsAudit(t *testing.T) {
	f := newSyncFixture(t)
	f.requestRepo.Seed(pendingRequest(f.clock.Now()))
	f.clock.Advance(time.Hour)

	// The sweeper wins the status transition between the timeline
	// mutations and the compare-and-swap.
	f.requestRepo.UpdateStatusFunc = func(_ context.Context, _ string, _, _ domain.UpdateRequestStatus, _ usecase.ReviewUpdate) (bool, error) {
		return false, nil
	}
	var recorded *usecase.ReviewUpdate
	f.requestRepo.RecordReviewFunc = func(_ context.Context, id string, review usecase.ReviewUpdate) error {
		if id != "req-1" {
			t.Errorf("expected review recorded on req-1, got %s", id)
		}
		recorded = &review
		return nil
	}

	_, err := f.sync.Approve(context.Background(), usecase.ReviewInput{
		RequestID: "req-1",
		Actor:     "manager",
	})
	if !errors.Is(err, domain.ErrRequestNotPending) {
		t.Fatalf("expected lost race to report not pending, got %v", err)
	}

	if recorded == nil {
		t.Fatal("expected review metadata persisted for the audit trail")
	}
	if recorded.AppliedCount != 2 {
		t.Errorf("expected 2 applied rates recorded, got %d", recorded.AppliedCount)
	}
	if recorded.ReviewedBy == nil || *recorded.ReviewedBy != "manager" {
		t.Error("expected reviewer recorded")
	}
}

func TestRateSyncUseCase_Review_TerminalAndExpired(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(r *domain.RateUpdateRequest, now time.Time)
		errorType error
	}{
		{
			name:      "already approved",
			mutate:    func(r *domain.RateUpdateRequest, _ time.Time) { r.Status = domain.RequestApproved },
			errorType: domain.ErrRequestNotPending,
		},
		{
			name:      "expired at the exact instant",
			mutate:    func(r *domain.RateUpdateRequest, now time.Time) { r.ExpiresAt = now },
			errorType: domain.ErrRequestExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSyncFixture(t)
			request := pendingRequest(f.clock.Now().Add(-time.Hour))
			tt.mutate(request, f.clock.Now())
			f.requestRepo.Seed(request)

			if _, err := f.sync.Approve(context.Background(), usecase.ReviewInput{RequestID: "req-1", Actor: "manager"}); !errors.Is(err, tt.errorType) {
				t.Errorf("Approve: expected %v, got %v", tt.errorType, err)
			}
			if _, err := f.sync.Reject(context.Background(), usecase.ReviewInput{RequestID: "req-1", Actor: "manager"}); !errors.Is(err, tt.errorType) {
				t.Errorf("Reject: expected %v, got %v", tt.errorType, err)
			}
		})
	}
}

func TestRateSyncUseCase_Reject(t *testing.T) {
	f := newSyncFixture(t)
	f.requestRepo.Seed(pendingRequest(f.clock.Now()))

	request, err := f.sync.Reject(context.Background(), usecase.ReviewInput{
		RequestID: "req-1",
		Actor:     "manager",
		Notes:     "rates look stale",
	})
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if request.Status != domain.RequestRejected {
		t.Errorf("expected rejected, got %s", request.Status)
	}

	// Nothing reached the timeline.
	if _, err := f.timeline.GetCurrentRate(context.Background(), "USD", "TRY", nil); !errors.Is(err, domain.ErrNoRateFound) {
		t.Errorf("expected no timeline rate after reject, got %v", err)
	}
}

func TestRateSyncUseCase_SweepExpired(t *testing.T) {
	f := newSyncFixture(t)
	now := f.clock.Now()

	stale := pendingRequest(now.Add(-25 * time.Hour))
	stale.ID = "req-stale"
	fresh := pendingRequest(now)
	fresh.ID = "req-fresh"
	f.requestRepo.Seed(stale, fresh)

	moved, err := f.sync.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if moved != 1 {
		t.Errorf("expected 1 request swept, got %d", moved)
	}

	// Idempotent: a second sweep moves nothing.
	moved, err = f.sync.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("second SweepExpired: %v", err)
	}
	if moved != 0 {
		t.Errorf("expected 0 on repeat sweep, got %d", moved)
	}

	swept, _ := f.requestRepo.GetByID(context.Background(), "req-stale")
	if swept.Status != domain.RequestExpired {
		t.Errorf("expected expired, got %s", swept.Status)
	}
	kept, _ := f.requestRepo.GetByID(context.Background(), "req-fresh")
	if kept.Status != domain.RequestPending {
		t.Errorf("expected fresh request untouched, got %s", kept.Status)
	}
}

func TestRateSyncUseCase_GetRequest_ReportsExpiry(t *testing.T) {
	f := newSyncFixture(t)
	request := pendingRequest(f.clock.Now().Add(-30 * time.Hour))
	f.requestRepo.Seed(request)

	got, err := f.sync.GetRequest(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if got.Status != domain.RequestExpired {
		t.Errorf("expected expired before sweeper runs, got %s", got.Status)
	}

	// The projection is read-side only; the store still says pending.
	stored, _ := f.requestRepo.GetByID(context.Background(), "req-1")
	if stored.Status != domain.RequestPending {
		t.Errorf("expected stored status untouched, got %s", stored.Status)
	}
}
