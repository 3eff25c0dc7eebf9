package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/iho/fxoffice/internal/adapter/http/dto"
	"github.com/iho/fxoffice/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrCurrencyNotFound),
		errors.Is(err, domain.ErrRateNotFound),
		errors.Is(err, domain.ErrNoRateFound),
		errors.Is(err, domain.ErrBalanceNotFound),
		errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, domain.ErrAlertNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCurrencyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRequestNotPending),
		errors.Is(err, domain.ErrRequestExpired),
		errors.Is(err, domain.ErrAlertResolved),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInsufficientAvailable),
		errors.Is(err, domain.ErrOverRelease),
		errors.Is(err, domain.ErrMultipleBaseCurrency):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrInvalidCurrencyCode),
		errors.Is(err, domain.ErrInvalidRate),
		errors.Is(err, domain.ErrSameCurrency),
		errors.Is(err, domain.ErrOutOfOrderEffectiveDate),
		errors.Is(err, domain.ErrInvalidTimeRange),
		errors.Is(err, domain.ErrCurrencyInactive),
		errors.Is(err, domain.ErrBalanceInactive):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrContentionTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseBoolQuery parses a boolean query parameter with a default value.
func parseBoolQuery(r *http.Request, key string, defaultValue bool) bool {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue
	}
	return b
}

// parseTimeQuery parses an RFC 3339 query parameter, nil when absent.
func parseTimeQuery(r *http.Request, key string) (*time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// timeRangeQuery builds a TimeRange from from/to query parameters.
func timeRangeQuery(r *http.Request) (domain.TimeRange, error) {
	var tr domain.TimeRange
	from, err := parseTimeQuery(r, "from")
	if err != nil {
		return tr, err
	}
	to, err := parseTimeQuery(r, "to")
	if err != nil {
		return tr, err
	}
	if from != nil {
		tr.From = *from
	}
	if to != nil {
		tr.To = *to
	}
	return tr, nil
}
