package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tally/internal/core"
	"tally/internal/ledger"
	"tally/internal/services"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// parseYearMonth extracts year and month query parameters, defaulting to the
// current month.
func parseYearMonth(r *http.Request) (year int, month time.Month) {
	now := time.Now()
	year, month = now.Year(), now.Month()

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			month = time.Month(m)
		}
	}
	return year, month
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrMissingCategory),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrTemplateConflict),
		errors.Is(err, core.ErrMissingSeriesKey),
		errors.Is(err, core.ErrEmptyDate),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, services.ErrNotStandalone):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeTransaction reads a transaction body, rejecting unknown fields so
// typos in field names surface as 400s instead of silently dropped data.
func decodeTransaction(r *http.Request) (core.Transaction, error) {
	var t core.Transaction
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		return core.Transaction{}, fmt.Errorf("decode transaction: %w", err)
	}
	return t, nil
}

// clientIP extracts the caller's address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if idx := strings.IndexByte(ip, ','); idx >= 0 {
			return strings.TrimSpace(ip[:idx])
		}
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
