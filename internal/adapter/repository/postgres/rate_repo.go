package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fxoffice/internal/domain"
	"github.com/iho/fxoffice/internal/usecase"
)

const rateColumns = `id, from_currency_id, to_currency_id, from_code, to_code, rate, buy_rate, sell_rate,
	effective_from, effective_to, set_by, notes, created_at`

// RateRepository implements usecase.RateRepository.
type RateRepository struct {
	pool dbPool
}

// NewRateRepository creates a new RateRepository.
func NewRateRepository(pool *pgxpool.Pool) *RateRepository {
	return &RateRepository{pool: pool}
}

// GetOpenForUpdate retrieves the pair's open interval with a FOR UPDATE lock.
func (r *RateRepository) GetOpenForUpdate(ctx context.Context, tx usecase.Transaction, pair domain.RatePair) (*domain.ExchangeRate, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx, `
		SELECT `+rateColumns+`
		FROM exchange_rates
		WHERE from_code = $1 AND to_code = $2 AND effective_to IS NULL
		FOR UPDATE`, pair.From, pair.To)

	rate, err := scanRate(row)
	if err != nil {
		if errors.Is(err, domain.ErrRateNotFound) {
			return nil, domain.ErrNoRateFound
		}

		return nil, err
	}

	return rate, nil
}

// CloseInterval stamps the interval's end, turning [from, NULL) into [from, to).
func (r *RateRepository) CloseInterval(ctx context.Context, tx usecase.Transaction, rateID string, effectiveTo time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `
		UPDATE exchange_rates
		SET effective_to = $2
		WHERE id = $1 AND effective_to IS NULL`, rateID, timeToPgTimestamptz(effectiveTo))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRateNotFound
	}

	return nil
}

// Create inserts a new rate row.
func (r *RateRepository) Create(ctx context.Context, tx usecase.Transaction, rate *domain.ExchangeRate) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO exchange_rates (`+rateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rate.ID,
		rate.FromCurrencyID,
		rate.ToCurrencyID,
		rate.Pair.From,
		rate.Pair.To,
		decimalToNumeric(rate.Rate),
		decimalPtrToNumeric(rate.BuyRate),
		decimalPtrToNumeric(rate.SellRate),
		timeToPgTimestamptz(rate.EffectiveFrom),
		timePtrToPgTimestamptz(rate.EffectiveTo),
		rate.SetBy,
		rate.Notes,
		timeToPgTimestamptz(rate.CreatedAt),
	)

	return mapUniqueViolation(err)
}

// GetAt retrieves the rate whose half-open interval covers the instant.
func (r *RateRepository) GetAt(ctx context.Context, pair domain.RatePair, at time.Time) (*domain.ExchangeRate, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+rateColumns+`
		FROM exchange_rates
		WHERE from_code = $1 AND to_code = $2
		  AND effective_from <= $3
		  AND (effective_to IS NULL OR effective_to > $3)
		ORDER BY effective_from DESC
		LIMIT 1`, pair.From, pair.To, timeToPgTimestamptz(at))

	rate, err := scanRate(row)
	if err != nil {
		if errors.Is(err, domain.ErrRateNotFound) {
			return nil, domain.ErrNoRateFound
		}

		return nil, err
	}

	return rate, nil
}

// CreateHistory appends an audit history row.
func (r *RateRepository) CreateHistory(ctx context.Context, tx usecase.Transaction, entry *domain.ExchangeRateHistory) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO exchange_rate_history (
			id, exchange_rate_id, from_code, to_code,
			old_rate, old_buy_rate, old_sell_rate,
			new_rate, new_buy_rate, new_sell_rate,
			change_type, changed_by, changed_at, reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		entry.ID,
		entry.ExchangeRateID,
		entry.Pair.From,
		entry.Pair.To,
		decimalPtrToNumeric(entry.OldRate),
		decimalPtrToNumeric(entry.OldBuyRate),
		decimalPtrToNumeric(entry.OldSellRate),
		decimalToNumeric(entry.NewRate),
		decimalPtrToNumeric(entry.NewBuyRate),
		decimalPtrToNumeric(entry.NewSellRate),
		string(entry.ChangeType),
		entry.ChangedBy,
		timeToPgTimestamptz(entry.ChangedAt),
		entry.Reason,
	)

	return err
}

// ListHistory retrieves the pair's audit history, newest first.
func (r *RateRepository) ListHistory(ctx context.Context, pair domain.RatePair, rng domain.TimeRange, limit, offset int) ([]*domain.ExchangeRateHistory, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, exchange_rate_id, from_code, to_code,
			old_rate, old_buy_rate, old_sell_rate,
			new_rate, new_buy_rate, new_sell_rate,
			change_type, changed_by, changed_at, reason
		FROM exchange_rate_history
		WHERE from_code = $1 AND to_code = $2
		  AND ($3::timestamptz IS NULL OR changed_at >= $3)
		  AND ($4::timestamptz IS NULL OR changed_at < $4)
		ORDER BY changed_at DESC
		LIMIT $5 OFFSET $6`,
		pair.From, pair.To,
		timeOrNullToPgTimestamptz(rng.From), timeOrNullToPgTimestamptz(rng.To),
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.ExchangeRateHistory
	for rows.Next() {
		var (
			h                        domain.ExchangeRateHistory
			oldRate, oldBuy, oldSell pgtype.Numeric
			newRate, newBuy, newSell pgtype.Numeric
			changeType               string
		)

		err := rows.Scan(
			&h.ID,
			&h.ExchangeRateID,
			&h.Pair.From,
			&h.Pair.To,
			&oldRate, &oldBuy, &oldSell,
			&newRate, &newBuy, &newSell,
			&changeType,
			&h.ChangedBy,
			&h.ChangedAt,
			&h.Reason,
		)
		if err != nil {
			return nil, err
		}

		h.OldRate = numericToDecimalPtr(oldRate)
		h.OldBuyRate = numericToDecimalPtr(oldBuy)
		h.OldSellRate = numericToDecimalPtr(oldSell)
		h.NewRate = numericToDecimal(newRate)
		h.NewBuyRate = numericToDecimalPtr(newBuy)
		h.NewSellRate = numericToDecimalPtr(newSell)
		h.ChangeType = domain.RateChangeType(changeType)

		entries = append(entries, &h)
	}

	return entries, rows.Err()
}

func scanRate(row pgx.Row) (*domain.ExchangeRate, error) {
	var (
		rate           domain.ExchangeRate
		mid, buy, sell pgtype.Numeric
		effectiveTo    pgtype.Timestamptz
	)

	err := row.Scan(
		&rate.ID,
		&rate.FromCurrencyID,
		&rate.ToCurrencyID,
		&rate.Pair.From,
		&rate.Pair.To,
		&mid,
		&buy,
		&sell,
		&rate.EffectiveFrom,
		&effectiveTo,
		&rate.SetBy,
		&rate.Notes,
		&rate.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRateNotFound
		}

		return nil, err
	}

	rate.Rate = numericToDecimal(mid)
	rate.BuyRate = numericToDecimalPtr(buy)
	rate.SellRate = numericToDecimalPtr(sell)
	rate.EffectiveTo = pgTimestamptzToTimePtr(effectiveTo)

	return &rate, nil
}
