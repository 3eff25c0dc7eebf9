package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fxoffice/internal/domain"
)

const alertColumns = `id, branch_id, currency_id, alert_type, severity, title, message,
	is_resolved, triggered_at, resolved_at, resolved_by, resolution_notes`

// AlertRepository implements usecase.AlertRepository.
type AlertRepository struct {
	pool dbPool
}

// NewAlertRepository creates a new AlertRepository.
func NewAlertRepository(pool *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

// Create creates a new alert.
func (r *AlertRepository) Create(ctx context.Context, alert *domain.BranchAlert) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO branch_alerts (`+alertColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		alert.ID,
		alert.BranchID,
		stringPtrToText(alert.CurrencyID),
		string(alert.Type),
		string(alert.Severity),
		alert.Title,
		alert.Message,
		alert.Resolved,
		timeToPgTimestamptz(alert.TriggeredAt),
		timePtrToPgTimestamptz(alert.ResolvedAt),
		stringPtrToText(alert.ResolvedBy),
		alert.ResolutionNotes,
	)

	return err
}

// GetByID retrieves an alert by ID.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*domain.BranchAlert, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+alertColumns+`
		FROM branch_alerts
		WHERE id = $1`, id)

	return scanAlert(row)
}

// GetUnresolved retrieves the open alert for (branch, currency, type).
func (r *AlertRepository) GetUnresolved(ctx context.Context, branchID string, currencyID *string, alertType domain.AlertType) (*domain.BranchAlert, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+alertColumns+`
		FROM branch_alerts
		WHERE branch_id = $1
		  AND alert_type = $2
		  AND NOT is_resolved
		  AND currency_id IS NOT DISTINCT FROM $3
		ORDER BY triggered_at DESC
		LIMIT 1`, branchID, string(alertType), stringPtrToText(currencyID))

	return scanAlert(row)
}

// Resolve marks an alert resolved.
func (r *AlertRepository) Resolve(ctx context.Context, id string, at time.Time, by, notes string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE branch_alerts
		SET is_resolved = TRUE, resolved_at = $2, resolved_by = $3, resolution_notes = $4
		WHERE id = $1 AND NOT is_resolved`,
		id, timeToPgTimestamptz(at), by, notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlertNotFound
	}

	return nil
}

// List retrieves a branch's alerts, newest first.
func (r *AlertRepository) List(ctx context.Context, branchID string, unresolvedOnly bool, limit, offset int) ([]*domain.BranchAlert, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+alertColumns+`
		FROM branch_alerts
		WHERE branch_id = $1
		  AND (NOT is_resolved OR NOT $2)
		ORDER BY triggered_at DESC
		LIMIT $3 OFFSET $4`, branchID, unresolvedOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*domain.BranchAlert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}

func scanAlert(row pgx.Row) (*domain.BranchAlert, error) {
	var (
		a                   domain.BranchAlert
		currencyID          pgtype.Text
		alertType, severity string
		resolvedAt          pgtype.Timestamptz
		resolvedBy          pgtype.Text
	)

	err := row.Scan(
		&a.ID,
		&a.BranchID,
		&currencyID,
		&alertType,
		&severity,
		&a.Title,
		&a.Message,
		&a.Resolved,
		&a.TriggeredAt,
		&resolvedAt,
		&resolvedBy,
		&a.ResolutionNotes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAlertNotFound
		}

		return nil, err
	}

	a.CurrencyID = textToStringPtr(currencyID)
	a.Type = domain.AlertType(alertType)
	a.Severity = domain.AlertSeverity(severity)
	a.ResolvedAt = pgTimestamptzToTimePtr(resolvedAt)
	a.ResolvedBy = textToStringPtr(resolvedBy)

	return &a, nil
}
