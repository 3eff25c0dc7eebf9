package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// UpdateRequestStatus is the state of a rate update request.
// pending is the only non-terminal state.
type UpdateRequestStatus string

const (
	RequestPending  UpdateRequestStatus = "pending"
	RequestApproved UpdateRequestStatus = "approved"
	RequestRejected UpdateRequestStatus = "rejected"
	RequestExpired  UpdateRequestStatus = "expired"
	RequestFailed   UpdateRequestStatus = "failed"
)

// IsValid checks the status is a known variant.
func (s UpdateRequestStatus) IsValid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected, RequestExpired, RequestFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (s UpdateRequestStatus) IsTerminal() bool {
	return s.IsValid() && s != RequestPending
}

// FetchedRate is one captured pair rate inside a rate update request,
// enriched with the timeline's rate at capture time for review.
type FetchedRate struct {
	FromCurrency string           `json:"from_currency"`
	ToCurrency   string           `json:"to_currency"`
	FetchedRate  decimal.Decimal  `json:"fetched_rate"`
	CurrentRate  *decimal.Decimal `json:"current_rate,omitempty"`
	Change       *decimal.Decimal `json:"change,omitempty"`
	ChangePct    *decimal.Decimal `json:"change_percentage,omitempty"`
	Source       string           `json:"source"`
}

// RateUpdateRequest stages externally fetched rates until a reviewer
// approves or rejects them, or the request expires.
type RateUpdateRequest struct {
	ID                string
	Status            UpdateRequestStatus
	Source            string
	BaseCurrency      string
	FetchedRates      map[string]FetchedRate // keyed by pair ("USD/TRY")
	RequestedBy       string
	RequestedAt       time.Time
	ExpiresAt         time.Time
	ReviewedBy        *string
	ReviewedAt        *time.Time
	ReviewNotes       string
	RatesAppliedCount int
	ErrorMessage      string
}

// Validate checks request invariants.
func (r *RateUpdateRequest) Validate() error {
	if !r.Status.IsValid() {
		return fmt.Errorf("invalid request status %q", r.Status)
	}
	if len(r.FetchedRates) == 0 {
		return fmt.Errorf("rate update request %s: no fetched rates", r.ID)
	}
	if !r.ExpiresAt.After(r.RequestedAt) {
		return fmt.Errorf("rate update request %s: expiry must be after request time", r.ID)
	}
	return nil
}

// IsExpired reports whether the request's review window has passed.
func (r *RateUpdateRequest) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// CanReview checks that the request may be approved or rejected at now.
func (r *RateUpdateRequest) CanReview(now time.Time) error {
	if r.Status != RequestPending {
		return fmt.Errorf("%w: current status is %s", ErrRequestNotPending, r.Status)
	}
	if r.IsExpired(now) {
		return ErrRequestExpired
	}
	return nil
}
