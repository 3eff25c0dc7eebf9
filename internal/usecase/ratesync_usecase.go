package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxoffice/internal/domain"
	"github.com/iho/fxoffice/internal/infrastructure/metrics"
)

// RateSetter applies an approved rate to the timeline. Implemented by
// RateTimelineUseCase.
type RateSetter interface {
	SetRate(ctx context.Context, input SetRateInput) (*domain.ExchangeRate, error)
	GetCurrentRate(ctx context.Context, from, to string, asOf *time.Time) (*domain.ExchangeRate, error)
}

// RateSyncUseCase fetches rates from an external feed and stages them
// for human approval. Fetched rates never touch the timeline until a
// reviewer approves the request.
type RateSyncUseCase struct {
	requestRepo RateRequestRepository
	feed        RateFeed
	timeline    RateSetter
	locker      KeyLocker
	idGen       IDGenerator
	clock       Clock
	metrics     *metrics.Metrics

	requestTTL    time.Duration
	spreadPercent decimal.Decimal
}

// NewRateSyncUseCase creates a new RateSyncUseCase. A non-positive
// requestTTL falls back to DefaultRequestTTL, a non-positive
// spreadPercent to DefaultSpreadPercent.
func NewRateSyncUseCase(
	requestRepo RateRequestRepository,
	feed RateFeed,
	timeline RateSetter,
	locker KeyLocker,
	idGen IDGenerator,
	clock Clock,
	metrics *metrics.Metrics,
	requestTTL time.Duration,
	spreadPercent decimal.Decimal,
) *RateSyncUseCase {
	if requestTTL <= 0 {
		requestTTL = DefaultRequestTTL
	}
	if spreadPercent.LessThanOrEqual(decimal.Zero) {
		spreadPercent = decimal.RequireFromString(DefaultSpreadPercent)
	}
	return &RateSyncUseCase{
		requestRepo:   requestRepo,
		feed:          feed,
		timeline:      timeline,
		locker:        locker,
		idGen:         idGen,
		clock:         clock,
		metrics:       metrics,
		requestTTL:    requestTTL,
		spreadPercent: spreadPercent,
	}
}

// InitiateSyncInput represents input for starting a rate sync.
type InitiateSyncInput struct {
	BaseCurrency string
	Targets      []string
	Actor        string
}

// InitiateSync fetches current rates for base→target pairs from the
// feed and stores them as a pending request. Each fetched rate is
// annotated with the active timeline rate and the percentage change so
// reviewers see the drift before deciding.
func (uc *RateSyncUseCase) InitiateSync(ctx context.Context, input InitiateSyncInput) (*domain.RateUpdateRequest, error) {
	base := domain.NormalizeCurrencyCode(input.BaseCurrency)
	if err := domain.ValidateCurrencyCode(base); err != nil {
		return nil, err
	}
	if len(input.Targets) == 0 {
		return nil, fmt.Errorf("rate sync: no target currencies")
	}

	targets := make([]string, 0, len(input.Targets))
	for _, t := range input.Targets {
		code := domain.NormalizeCurrencyCode(t)
		if err := domain.ValidateCurrencyCode(code); err != nil {
			return nil, err
		}
		if code == base {
			return nil, domain.ErrSameCurrency
		}
		targets = append(targets, code)
	}
	sort.Strings(targets)

	fetched, source, err := uc.feed.FetchRates(ctx, base, targets)
	if err != nil {
		return nil, fmt.Errorf("rate sync: fetch from feed: %w", err)
	}

	now := uc.clock.Now()
	rates := make(map[string]domain.FetchedRate, len(fetched))
	for target, rate := range fetched {
		fr := domain.FetchedRate{
			FromCurrency: base,
			ToCurrency:   target,
			FetchedRate:  rate,
			Source:       source,
		}

		if current, err := uc.timeline.GetCurrentRate(ctx, base, target, nil); err == nil {
			change := rate.Sub(current.Rate)
			fr.CurrentRate = &current.Rate
			fr.Change = &change
			if !current.Rate.IsZero() {
				pct := change.Div(current.Rate).Mul(decimal.NewFromInt(100)).Round(4)
				fr.ChangePct = &pct
			}
		}

		rates[base+"/"+target] = fr
	}

	request := &domain.RateUpdateRequest{
		ID:           uc.idGen.Generate(),
		Status:       domain.RequestPending,
		Source:       source,
		BaseCurrency: base,
		FetchedRates: rates,
		RequestedBy:  input.Actor,
		RequestedAt:  now,
		ExpiresAt:    now.Add(uc.requestTTL),
	}

	if err := request.Validate(); err != nil {
		return nil, err
	}

	if err := uc.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.RateSyncRequests.WithLabelValues("initiated").Inc()
	}

	return request, nil
}

// ReviewInput represents input for approving or rejecting a request.
type ReviewInput struct {
	RequestID string
	Actor     string
	Notes     string
}

// Approve applies a pending request's fetched rates to the timeline.
// Buy and sell quotes are derived from the mid rate with the configured
// spread. Application is per pair: pairs that fail leave the rest
// applied, and the request ends up approved when at least one pair
// landed, failed when none did. The status transition is a
// compare-and-swap, so a concurrent reviewer or the expiry sweeper wins
// or loses atomically.
func (uc *RateSyncUseCase) Approve(ctx context.Context, input ReviewInput) (*domain.RateUpdateRequest, error) {
	release, err := uc.locker.Acquire(ctx, "raterequest:"+input.RequestID)
	if err != nil {
		return nil, err
	}
	defer release()

	request, err := uc.requestRepo.GetByID(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	if err := request.CanReview(now); err != nil {
		return nil, err
	}

	applied := 0
	var failures []string

	keys := make([]string, 0, len(request.FetchedRates))
	for key := range request.FetchedRates {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fr := request.FetchedRates[key]

		buy, sell := uc.spreadQuotes(fr.FetchedRate)

		_, err := uc.timeline.SetRate(ctx, SetRateInput{
			From:     fr.FromCurrency,
			To:       fr.ToCurrency,
			Rate:     fr.FetchedRate,
			BuyRate:  &buy,
			SellRate: &sell,
			Actor:    input.Actor,
			Notes:    "applied from rate sync request " + request.ID,
		})
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", key, err))
			continue
		}
		applied++
	}

	status := domain.RequestApproved
	if applied == 0 {
		status = domain.RequestFailed
	}

	review := ReviewUpdate{
		ReviewedBy:   &input.Actor,
		ReviewedAt:   &now,
		ReviewNotes:  input.Notes,
		AppliedCount: applied,
		ErrorMessage: strings.Join(failures, "; "),
	}

	moved, err := uc.requestRepo.UpdateStatus(ctx, request.ID, domain.RequestPending, status, review)
	if err != nil {
		return nil, err
	}
	if !moved {
		// Lost the race to another reviewer or the sweeper. Any rates
		// already applied stay on the timeline, so keep the applied
		// count and failures on the row for the audit trail.
		if applied > 0 {
			_ = uc.requestRepo.RecordReview(ctx, request.ID, review)
		}
		return nil, domain.ErrRequestNotPending
	}

	request.Status = status
	request.ReviewedBy = review.ReviewedBy
	request.ReviewedAt = review.ReviewedAt
	request.ReviewNotes = review.ReviewNotes
	request.RatesAppliedCount = applied
	request.ErrorMessage = review.ErrorMessage

	if uc.metrics != nil {
		uc.metrics.RateSyncRequests.WithLabelValues(string(status)).Inc()
	}

	return request, nil
}

// Reject declines a pending request without touching the timeline.
func (uc *RateSyncUseCase) Reject(ctx context.Context, input ReviewInput) (*domain.RateUpdateRequest, error) {
	request, err := uc.requestRepo.GetByID(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	if err := request.CanReview(now); err != nil {
		return nil, err
	}

	review := ReviewUpdate{
		ReviewedBy:  &input.Actor,
		ReviewedAt:  &now,
		ReviewNotes: input.Notes,
	}

	moved, err := uc.requestRepo.UpdateStatus(ctx, request.ID, domain.RequestPending, domain.RequestRejected, review)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, domain.ErrRequestNotPending
	}

	request.Status = domain.RequestRejected
	request.ReviewedBy = review.ReviewedBy
	request.ReviewedAt = review.ReviewedAt
	request.ReviewNotes = review.ReviewNotes

	if uc.metrics != nil {
		uc.metrics.RateSyncRequests.WithLabelValues("rejected").Inc()
	}

	return request, nil
}

// SweepExpired moves every pending request past its expiry to expired.
// Idempotent; a second sweep over the same set moves zero rows.
func (uc *RateSyncUseCase) SweepExpired(ctx context.Context) (int, error) {
	moved, err := uc.requestRepo.MarkExpired(ctx, uc.clock.Now())
	if err != nil {
		return 0, err
	}

	if uc.metrics != nil && moved > 0 {
		uc.metrics.RateSyncRequests.WithLabelValues("expired").Add(float64(moved))
	}

	return moved, nil
}

// GetRequest returns a request by id. Pending requests past their
// expiry are reported as expired even before the sweeper runs.
func (uc *RateSyncUseCase) GetRequest(ctx context.Context, id string) (*domain.RateUpdateRequest, error) {
	request, err := uc.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if request.Status == domain.RequestPending && request.IsExpired(uc.clock.Now()) {
		request.Status = domain.RequestExpired
	}

	return request, nil
}

// ListRequests lists requests, newest first, optionally filtered by
// status.
func (uc *RateSyncUseCase) ListRequests(ctx context.Context, status *domain.UpdateRequestStatus, limit, offset int) ([]*domain.RateUpdateRequest, error) {
	if status != nil && !status.IsValid() {
		return nil, fmt.Errorf("invalid request status %q", *status)
	}
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.requestRepo.List(ctx, status, limit, offset)
}

// spreadQuotes derives buy/sell quotes from a mid rate: sell at
// mid*(1+spread/100), buy at mid*(1-spread/100).
func (uc *RateSyncUseCase) spreadQuotes(mid decimal.Decimal) (buy, sell decimal.Decimal) {
	hundred := decimal.NewFromInt(100)
	margin := mid.Mul(uc.spreadPercent).Div(hundred)
	return mid.Sub(margin), mid.Add(margin)
}
