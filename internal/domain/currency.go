package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var currencyCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// Currency represents a currency registered in the system.
type Currency struct {
	ID            string
	Code          string // ISO 4217 code (USD, EUR, TRY, ...)
	NameEN        string
	NameAR        string
	Symbol        string
	DecimalPlaces int
	IsBase        bool
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NormalizeCurrencyCode trims and uppercases a currency code.
func NormalizeCurrencyCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCurrencyCode checks that code is a 3-letter uppercase code.
func ValidateCurrencyCode(code string) error {
	if !currencyCodeRegex.MatchString(code) {
		return fmt.Errorf("%w: %q is not a 3-letter currency code", ErrInvalidCurrencyCode, code)
	}
	return nil
}

// Validate checks currency invariants.
func (c *Currency) Validate() error {
	if err := ValidateCurrencyCode(c.Code); err != nil {
		return err
	}
	if c.NameEN == "" {
		return fmt.Errorf("currency %s: english name is required", c.Code)
	}
	if c.DecimalPlaces < 0 {
		return fmt.Errorf("currency %s: decimal places must not be negative", c.Code)
	}
	return nil
}
