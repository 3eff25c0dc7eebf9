package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fxoffice/internal/domain"
	"github.com/iho/fxoffice/internal/usecase"
)

const requestColumns = `id, status, source, base_currency, fetched_rates,
	requested_by, requested_at, expires_at, reviewed_by, reviewed_at,
	review_notes, rates_applied_count, error_message`

// RateRequestRepository implements usecase.RateRequestRepository. The
// fetched rate snapshot is stored as JSONB; it is an immutable capture,
// never queried by field.
type RateRequestRepository struct {
	pool dbPool
}

// NewRateRequestRepository creates a new RateRequestRepository.
func NewRateRequestRepository(pool *pgxpool.Pool) *RateRequestRepository {
	return &RateRequestRepository{pool: pool}
}

// Create creates a new rate update request.
func (r *RateRequestRepository) Create(ctx context.Context, request *domain.RateUpdateRequest) error {
	rates, err := json.Marshal(request.FetchedRates)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO rate_update_requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		request.ID,
		string(request.Status),
		request.Source,
		request.BaseCurrency,
		rates,
		request.RequestedBy,
		timeToPgTimestamptz(request.RequestedAt),
		timeToPgTimestamptz(request.ExpiresAt),
		stringPtrToText(request.ReviewedBy),
		timePtrToPgTimestamptz(request.ReviewedAt),
		request.ReviewNotes,
		request.RatesAppliedCount,
		request.ErrorMessage,
	)

	return err
}

// GetByID retrieves a request by ID.
func (r *RateRequestRepository) GetByID(ctx context.Context, id string) (*domain.RateUpdateRequest, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM rate_update_requests
		WHERE id = $1`, id)

	return scanRequest(row)
}

// UpdateStatus performs a compare-and-swap status transition. The update
// applies only while the stored status still equals from; the boolean
// reports whether the row moved.
func (r *RateRequestRepository) UpdateStatus(ctx context.Context, id string, from, to domain.UpdateRequestStatus, review usecase.ReviewUpdate) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE rate_update_requests
		SET status = $3,
			reviewed_by = $4,
			reviewed_at = $5,
			review_notes = $6,
			rates_applied_count = $7,
			error_message = $8
		WHERE id = $1 AND status = $2`,
		id, string(from), string(to),
		stringPtrToText(review.ReviewedBy),
		timePtrToPgTimestamptz(review.ReviewedAt),
		review.ReviewNotes,
		review.AppliedCount,
		review.ErrorMessage,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a lost race from a missing row.
		var exists bool
		if err := r.pool.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM rate_update_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
			return false, err
		}
		if !exists {
			return false, domain.ErrRequestNotFound
		}

		return false, nil
	}

	return true, nil
}

// RecordReview writes review metadata without a status transition. The
// reviewed_at guard keeps a review that won the race from being
// overwritten.
func (r *RateRequestRepository) RecordReview(ctx context.Context, id string, review usecase.ReviewUpdate) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE rate_update_requests
		SET reviewed_by = $2,
			reviewed_at = $3,
			review_notes = $4,
			rates_applied_count = $5,
			error_message = $6
		WHERE id = $1 AND reviewed_at IS NULL`,
		id,
		stringPtrToText(review.ReviewedBy),
		timePtrToPgTimestamptz(review.ReviewedAt),
		review.ReviewNotes,
		review.AppliedCount,
		review.ErrorMessage,
	)

	return err
}

// MarkExpired transitions every pending request past its expiry in a
// single statement, so concurrent sweeps and reviews serialize on the
// row-level status check.
func (r *RateRequestRepository) MarkExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE rate_update_requests
		SET status = $1
		WHERE status = $2 AND expires_at <= $3`,
		string(domain.RequestExpired), string(domain.RequestPending), timeToPgTimestamptz(now))
	if err != nil {
		return 0, err
	}

	return int(tag.RowsAffected()), nil
}

// List retrieves requests, newest first, optionally filtered by status.
func (r *RateRequestRepository) List(ctx context.Context, status *domain.UpdateRequestStatus, limit, offset int) ([]*domain.RateUpdateRequest, error) {
	var statusFilter pgtype.Text
	if status != nil {
		statusFilter = pgtype.Text{String: string(*status), Valid: true}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+requestColumns+`
		FROM rate_update_requests
		WHERE $1::text IS NULL OR status = $1
		ORDER BY requested_at DESC
		LIMIT $2 OFFSET $3`, statusFilter, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*domain.RateUpdateRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}

	return requests, rows.Err()
}

func scanRequest(row pgx.Row) (*domain.RateUpdateRequest, error) {
	var (
		req        domain.RateUpdateRequest
		status     string
		rates      []byte
		reviewedBy pgtype.Text
		reviewedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&req.ID,
		&status,
		&req.Source,
		&req.BaseCurrency,
		&rates,
		&req.RequestedBy,
		&req.RequestedAt,
		&req.ExpiresAt,
		&reviewedBy,
		&reviewedAt,
		&req.ReviewNotes,
		&req.RatesAppliedCount,
		&req.ErrorMessage,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}

		return nil, err
	}

	req.Status = domain.UpdateRequestStatus(status)
	req.ReviewedBy = textToStringPtr(reviewedBy)
	req.ReviewedAt = pgTimestamptzToTimePtr(reviewedAt)

	if len(rates) > 0 {
		if err := json.Unmarshal(rates, &req.FetchedRates); err != nil {
			return nil, err
		}
	}

	return &req, nil
}
