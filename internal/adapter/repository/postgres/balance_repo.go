package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/fxoffice/internal/domain"
	"github.com/iho/fxoffice/internal/usecase"
)

const balanceColumns = `id, branch_id, currency_id, balance, reserved_balance,
	min_threshold, max_threshold, is_active, last_updated,
	last_reconciled_at, last_reconciled_by, created_at`

// BalanceRepository implements usecase.BalanceRepository.
type BalanceRepository struct {
	pool dbPool
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(pool *pgxpool.Pool) *BalanceRepository {
	return &BalanceRepository{pool: pool}
}

// Get retrieves a balance by its (branch, currency) key.
func (r *BalanceRepository) Get(ctx context.Context, key domain.BalanceKey) (*domain.BranchBalance, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+balanceColumns+`
		FROM branch_balances
		WHERE branch_id = $1 AND currency_id = $2`, key.BranchID, key.CurrencyID)

	return scanBalance(row)
}

// GetForUpdate retrieves a balance with a FOR UPDATE lock.
func (r *BalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, key domain.BalanceKey) (*domain.BranchBalance, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx, `
		SELECT `+balanceColumns+`
		FROM branch_balances
		WHERE branch_id = $1 AND currency_id = $2
		FOR UPDATE`, key.BranchID, key.CurrencyID)

	return scanBalance(row)
}

// Create inserts a new balance row.
func (r *BalanceRepository) Create(ctx context.Context, tx usecase.Transaction, balance *domain.BranchBalance) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO branch_balances (`+balanceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		balance.ID,
		balance.BranchID,
		balance.CurrencyID,
		decimalToNumeric(balance.Balance),
		decimalToNumeric(balance.Reserved),
		decimalPtrToNumeric(balance.MinThreshold),
		decimalPtrToNumeric(balance.MaxThreshold),
		balance.Active,
		timeToPgTimestamptz(balance.LastUpdated),
		timePtrToPgTimestamptz(balance.LastReconciledAt),
		stringPtrToText(balance.LastReconciledBy),
		timeToPgTimestamptz(balance.CreatedAt),
	)

	return err
}

// UpdateAmounts writes the balance and reserved amounts.
func (r *BalanceRepository) UpdateAmounts(ctx context.Context, tx usecase.Transaction, id string, balance, reserved decimal.Decimal, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `
		UPDATE branch_balances
		SET balance = $2, reserved_balance = $3, last_updated = $4
		WHERE id = $1`,
		id, decimalToNumeric(balance), decimalToNumeric(reserved), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBalanceNotFound
	}

	return nil
}

// UpdateThresholds writes the alert thresholds.
func (r *BalanceRepository) UpdateThresholds(ctx context.Context, tx usecase.Transaction, id string, min, max *decimal.Decimal, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `
		UPDATE branch_balances
		SET min_threshold = $2, max_threshold = $3, last_updated = $4
		WHERE id = $1`,
		id, decimalPtrToNumeric(min), decimalPtrToNumeric(max), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBalanceNotFound
	}

	return nil
}

// MarkReconciled stamps the reconciliation checkpoint.
func (r *BalanceRepository) MarkReconciled(ctx context.Context, tx usecase.Transaction, id string, at time.Time, by string) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `
		UPDATE branch_balances
		SET last_reconciled_at = $2, last_reconciled_by = $3
		WHERE id = $1`, id, timeToPgTimestamptz(at), by)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBalanceNotFound
	}

	return nil
}

// ListByBranch retrieves a branch's balances ordered by currency.
func (r *BalanceRepository) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*domain.BranchBalance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+balanceColumns+`
		FROM branch_balances
		WHERE branch_id = $1
		ORDER BY currency_id
		LIMIT $2 OFFSET $3`, branchID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []*domain.BranchBalance
	for rows.Next() {
		balance, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, balance)
	}

	return balances, rows.Err()
}

// CreateChange appends a change log row.
func (r *BalanceRepository) CreateChange(ctx context.Context, tx usecase.Transaction, change *domain.BalanceChange) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO branch_balance_history (
			id, branch_id, currency_id, change_type, amount,
			balance_before, balance_after, reference_id, reference_type,
			performed_by, performed_at, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		change.ID,
		change.BranchID,
		change.CurrencyID,
		string(change.ChangeType),
		decimalToNumeric(change.Amount),
		decimalToNumeric(change.BalanceBefore),
		decimalToNumeric(change.BalanceAfter),
		change.ReferenceID,
		change.ReferenceType,
		change.PerformedBy,
		timeToPgTimestamptz(change.PerformedAt),
		change.Notes,
	)

	return err
}

// ListChanges retrieves the change log, newest first.
func (r *BalanceRepository) ListChanges(ctx context.Context, key domain.BalanceKey, rng domain.TimeRange, limit, offset int) ([]*domain.BalanceChange, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, branch_id, currency_id, change_type, amount,
			balance_before, balance_after, reference_id, reference_type,
			performed_by, performed_at, notes
		FROM branch_balance_history
		WHERE branch_id = $1 AND currency_id = $2
		  AND ($3::timestamptz IS NULL OR performed_at >= $3)
		  AND ($4::timestamptz IS NULL OR performed_at < $4)
		ORDER BY performed_at DESC
		LIMIT $5 OFFSET $6`,
		key.BranchID, key.CurrencyID,
		timeOrNullToPgTimestamptz(rng.From), timeOrNullToPgTimestamptz(rng.To),
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []*domain.BalanceChange
	for rows.Next() {
		var (
			c                     domain.BalanceChange
			changeType            string
			amount, before, after pgtype.Numeric
		)

		err := rows.Scan(
			&c.ID,
			&c.BranchID,
			&c.CurrencyID,
			&changeType,
			&amount,
			&before,
			&after,
			&c.ReferenceID,
			&c.ReferenceType,
			&c.PerformedBy,
			&c.PerformedAt,
			&c.Notes,
		)
		if err != nil {
			return nil, err
		}

		c.ChangeType = domain.BalanceChangeType(changeType)
		c.Amount = numericToDecimal(amount)
		c.BalanceBefore = numericToDecimal(before)
		c.BalanceAfter = numericToDecimal(after)

		changes = append(changes, &c)
	}

	return changes, rows.Err()
}

// SumChangesSince folds signed amounts recorded after the given instant,
// the full log when since is nil. Runs inside the caller's transaction so
// the fold and the locked balance row observe the same snapshot.
func (r *BalanceRepository) SumChangesSince(ctx context.Context, tx usecase.Transaction, key domain.BalanceKey, since *time.Time) (decimal.Decimal, int, error) {
	pgxTx := tx.(*Tx).PgxTx()

	var (
		sum   pgtype.Numeric
		count int
	)

	err := pgxTx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM branch_balance_history
		WHERE branch_id = $1 AND currency_id = $2
		  AND ($3::timestamptz IS NULL OR performed_at > $3)`,
		key.BranchID, key.CurrencyID, timePtrToPgTimestamptz(since)).Scan(&sum, &count)
	if err != nil {
		return decimal.Zero, 0, err
	}

	return numericToDecimal(sum), count, nil
}

func scanBalance(row pgx.Row) (*domain.BranchBalance, error) {
	var (
		b                 domain.BranchBalance
		balance, reserved pgtype.Numeric
		minT, maxT        pgtype.Numeric
		reconciledAt      pgtype.Timestamptz
		reconciledBy      pgtype.Text
	)

	err := row.Scan(
		&b.ID,
		&b.BranchID,
		&b.CurrencyID,
		&balance,
		&reserved,
		&minT,
		&maxT,
		&b.Active,
		&b.LastUpdated,
		&reconciledAt,
		&reconciledBy,
		&b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBalanceNotFound
		}

		return nil, err
	}

	b.Balance = numericToDecimal(balance)
	b.Reserved = numericToDecimal(reserved)
	b.MinThreshold = numericToDecimalPtr(minT)
	b.MaxThreshold = numericToDecimalPtr(maxT)
	b.LastReconciledAt = pgTimestamptzToTimePtr(reconciledAt)
	b.LastReconciledBy = textToStringPtr(reconciledBy)

	return &b, nil
}
