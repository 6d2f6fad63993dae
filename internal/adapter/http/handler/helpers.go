package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/logger"
)

const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes the {kind, message} body for err.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := dto.NewErrorResponse(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, body)
}

// decode reads a JSON body into req and validates its struct tags.
func decode(w http.ResponseWriter, r *http.Request, req any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidRequest, err)
	}
	return dto.Validate(req)
}

// principal returns the authenticated caller.
func principal(r *http.Request) (domain.Principal, error) {
	p, ok := domain.PrincipalFromContext(r.Context())
	if !ok {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return p, nil
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

// parseFilter reads the transaction filter query parameters. Dates are
// YYYY-MM-DD in loc.
func parseFilter(r *http.Request, loc *time.Location) (domain.TransactionFilter, error) {
	q := r.URL.Query()
	filter := domain.TransactionFilter{
		IBAN:       q.Get("iban"),
		SearchTerm: q.Get("searchTerm"),
	}

	var err error
	if filter.StartDate, err = domain.ParseFilterDate(q.Get("startDate"), loc); err != nil {
		return filter, err
	}
	if filter.EndDate, err = domain.ParseFilterDate(q.Get("endDate"), loc); err != nil {
		return filter, err
	}
	if filter.MinAmount, err = parseAmountQuery(q.Get("minAmount")); err != nil {
		return filter, err
	}
	if filter.MaxAmount, err = parseAmountQuery(q.Get("maxAmount")); err != nil {
		return filter, err
	}

	return filter, nil
}

func parseAmountQuery(value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q is not a number", domain.ErrInvalidFilter, value)
	}
	return &d, nil
}
