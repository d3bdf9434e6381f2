// Request parsing utilities shared by the handlers: JSON body decoding,
// path and header identifiers, and the list/summary query filters.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// decodeJSON decodes the request body into dst, rejecting unknown fields
// and oversized payloads.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	return nil
}

// parseID extracts the {id} path value as a positive integer.
func parseID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// parseUserHeader resolves the owner from the X-User-ID header.
func parseUserHeader(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if raw == "" {
		return 0, errors.New("missing X-User-ID header")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid X-User-ID %q", raw)
	}
	return id, nil
}

// parseTransactionFilter builds the list/summary filter from query
// parameters: account_id, from, to (YYYY-MM-DD, inclusive), uncategorized,
// limit and offset.
func parseTransactionFilter(r *http.Request, userID int64) (core.TransactionFilter, error) {
	filter := core.TransactionFilter{UserID: userID}
	query := r.URL.Query()

	if v := strings.TrimSpace(query.Get("account_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return filter, fmt.Errorf("invalid account_id %q", v)
		}
		filter.AccountID = id
	}
	if v := strings.TrimSpace(query.Get("from")); v != "" {
		from, err := parseDate(v)
		if err != nil {
			return filter, fmt.Errorf("invalid from date %q", v)
		}
		filter.From = from
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		to, err := parseDate(v)
		if err != nil {
			return filter, fmt.Errorf("invalid to date %q", v)
		}
		// Inclusive: cover the whole day.
		filter.To = to.Add(24*time.Hour - time.Nanosecond)
	}
	if v := strings.TrimSpace(query.Get("uncategorized")); v != "" {
		filter.OnlyUncategorized = v == "true" || v == "1"
	}
	if v := strings.TrimSpace(query.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("invalid limit %q", v)
		}
		filter.Limit = n
	}
	if v := strings.TrimSpace(query.Get("offset")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("invalid offset %q", v)
		}
		filter.Offset = n
	}

	return filter, nil
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(dateStr string) (time.Time, error) {
	return time.Parse("2006-01-02", dateStr)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
