package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/iho/fxoffice/internal/domain"
)

func TestCurrencyRepositoryCreateMapsDuplicateCode(t *testing.T) {
	mockPool := newMockPool(t)
	repo := &CurrencyRepository{pool: mockPool}

	mockPool.ExpectExec("INSERT INTO currencies").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "currencies_code_key"})

	err := repo.Create(context.Background(), &domain.Currency{ID: "cur-usd", Code: "USD", NameEN: "US Dollar"})
	if !errors.Is(err, domain.ErrCurrencyExists) {
		t.Fatalf("expected duplicate code mapped to domain error, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestCurrencyRepositorySetBaseFlagMapsSingleBaseConflict(t *testing.T) {
	mockPool := newMockPool(t)
	repo := &CurrencyRepository{pool: mockPool}

	mockPool.ExpectBegin()
	mockPool.ExpectExec("UPDATE currencies").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "idx_currencies_single_base"})

	pgxTx, err := mockPool.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	err = repo.SetBaseFlag(context.Background(), &Tx{tx: pgxTx}, "cur-eur", true, time.Now())
	if !errors.Is(err, domain.ErrMultipleBaseCurrency) {
		t.Fatalf("expected single base conflict mapped to domain error, got %v", err)
	}
}

func TestCurrencyRepositoryCreatePassesThroughOtherErrors(t *testing.T) {
	mockPool := newMockPool(t)
	repo := &CurrencyRepository{pool: mockPool}

	dbErr := errors.New("connection reset")
	mockPool.ExpectExec("INSERT INTO currencies").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(dbErr)

	err := repo.Create(context.Background(), &domain.Currency{ID: "cur-usd", Code: "USD", NameEN: "US Dollar"})
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected raw error passed through, got %v", err)
	}
}
