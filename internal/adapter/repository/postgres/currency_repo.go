package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fxoffice/internal/domain"
	"github.com/iho/fxoffice/internal/usecase"
)

const currencyColumns = `id, code, name_en, name_ar, symbol, decimal_places, is_base, is_active, created_at, updated_at`

// CurrencyRepository implements usecase.CurrencyRepository.
type CurrencyRepository struct {
	pool dbPool
}

// NewCurrencyRepository creates a new CurrencyRepository.
func NewCurrencyRepository(pool *pgxpool.Pool) *CurrencyRepository {
	return &CurrencyRepository{pool: pool}
}

// Create creates a new currency.
func (r *CurrencyRepository) Create(ctx context.Context, currency *domain.Currency) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO currencies (`+currencyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		currency.ID,
		currency.Code,
		currency.NameEN,
		currency.NameAR,
		currency.Symbol,
		currency.DecimalPlaces,
		currency.IsBase,
		currency.Active,
		timeToPgTimestamptz(currency.CreatedAt),
		timeToPgTimestamptz(currency.UpdatedAt),
	)

	return mapUniqueViolation(err)
}

// GetByID retrieves a currency by ID.
func (r *CurrencyRepository) GetByID(ctx context.Context, id string) (*domain.Currency, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+currencyColumns+`
		FROM currencies
		WHERE id = $1`, id)

	return scanCurrency(row)
}

// GetByCode retrieves a currency by its uppercase code.
func (r *CurrencyRepository) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+currencyColumns+`
		FROM currencies
		WHERE code = $1`, code)

	return scanCurrency(row)
}

// List retrieves currencies ordered by code.
func (r *CurrencyRepository) List(ctx context.Context, includeInactive bool, limit, offset int) ([]*domain.Currency, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+currencyColumns+`
		FROM currencies
		WHERE is_active OR $1
		ORDER BY code
		LIMIT $2 OFFSET $3`, includeInactive, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var currencies []*domain.Currency
	for rows.Next() {
		currency, err := scanCurrency(rows)
		if err != nil {
			return nil, err
		}
		currencies = append(currencies, currency)
	}

	return currencies, rows.Err()
}

// GetBaseForUpdate retrieves the active base currency with a FOR UPDATE lock.
func (r *CurrencyRepository) GetBaseForUpdate(ctx context.Context, tx usecase.Transaction) (*domain.Currency, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx, `
		SELECT `+currencyColumns+`
		FROM currencies
		WHERE is_base AND is_active
		FOR UPDATE`)

	return scanCurrency(row)
}

// GetByIDForUpdate retrieves a currency by ID with a FOR UPDATE lock.
func (r *CurrencyRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Currency, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx, `
		SELECT `+currencyColumns+`
		FROM currencies
		WHERE id = $1
		FOR UPDATE`, id)

	return scanCurrency(row)
}

// SetBaseFlag sets or clears the base flag on a currency.
func (r *CurrencyRepository) SetBaseFlag(ctx context.Context, tx usecase.Transaction, id string, isBase bool, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `
		UPDATE currencies
		SET is_base = $2, updated_at = $3
		WHERE id = $1`, id, isBase, timeToPgTimestamptz(updatedAt))
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCurrencyNotFound
	}

	return nil
}

func scanCurrency(row pgx.Row) (*domain.Currency, error) {
	var c domain.Currency

	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.NameEN,
		&c.NameAR,
		&c.Symbol,
		&c.DecimalPlaces,
		&c.IsBase,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCurrencyNotFound
		}

		return nil, err
	}

	return &c, nil
}
