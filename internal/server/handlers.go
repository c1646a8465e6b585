package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/agbru/fibtrio/internal/errors"
	"github.com/agbru/fibtrio/internal/export"
	"github.com/agbru/fibtrio/internal/fibonacci"
	"github.com/agbru/fibtrio/internal/logging"
	"github.com/agbru/fibtrio/internal/service"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleAlgorithms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]any{
		"algorithms": s.service.Algorithms(),
	})
}

// handleCalculate serves GET /calculate?n=<index>&algo=<variant>.
//
// Status codes:
//   - 200 on success
//   - 400 for a missing or malformed n, a negative n, an unknown variant or
//     an n above the configured limits
//   - 422 when n does not fit in the memoization table
//   - 504 when the request timeout expires
//   - 500 otherwise
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	n, algo, err := parseCalculateParams(r)
	if err != nil {
		s.writeErrorResponse(w, statusForError(err), err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.service.Calculate(ctx, algo, n)
	duration := time.Since(start)

	status := statusForError(err)
	if errors.Is(err, service.ErrMaxValueExceeded) {
		s.writeErrorResponse(w, status, err.Error())
		return
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("calculation failed", err,
			logging.Int("n", n), logging.String("algorithm", algo))
	}
	s.writeJSONResponse(w, status, buildCalculateResponse(n, algo, result, duration, err))
}

// statusForError maps a calculation error to an HTTP status.
func statusForError(err error) int {
	var (
		unknown    *fibonacci.UnknownCalculatorError
		validation apperrors.ValidationError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, fibonacci.ErrCapacityExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, fibonacci.ErrInvalidInput),
		errors.Is(err, service.ErrMaxValueExceeded),
		errors.As(err, &unknown),
		errors.As(err, &validation):
		return http.StatusBadRequest
	case apperrors.IsContextError(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// parseCalculateParams reads n and algo. Negative n is accepted here so that
// the calculator reports it with its own error.
func parseCalculateParams(r *http.Request) (n int, algo string, err error) {
	nStr := r.URL.Query().Get("n")
	if nStr == "" {
		return 0, "", apperrors.NewValidationError("n", "missing parameter", nil)
	}
	n, convErr := strconv.Atoi(nStr)
	if convErr != nil {
		return 0, "", apperrors.NewValidationError("n", "must be an integer", nStr)
	}

	algo = r.URL.Query().Get("algo")
	if algo == "" {
		algo = DefaultAlgorithm
	}
	return n, algo, nil
}

func buildCalculateResponse(n int, algo string, result float64, duration time.Duration, err error) Response {
	resp := Response{
		N:         n,
		Duration:  duration.String(),
		Algorithm: algo,
	}
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Result = fibonacci.FormatValue(result)
	resp.Exact = fibonacci.IsExact(n)
	return resp
}

func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	stats, err := s.service.CacheStats()
	if err != nil {
		s.writeErrorResponse(w, http.StatusNotFound, err.Error())
		return
	}
	resp := CacheResponse{
		Hits:     stats.Hits,
		Misses:   stats.Misses,
		Fills:    stats.Fills,
		Filled:   stats.Filled,
		Capacity: stats.Capacity,
	}
	if lookups := stats.Hits + stats.Misses; lookups > 0 {
		resp.HitRatio = float64(stats.Hits) / float64(lookups)
	}
	s.writeJSONResponse(w, http.StatusOK, resp)
}

// handleCacheExport streams the memoization table as Arrow IPC.
func (s *Server) handleCacheExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	table, err := s.service.CacheSnapshot()
	if err != nil {
		s.writeErrorResponse(w, http.StatusNotFound, err.Error())
		return
	}

	// Encode first so that a failure can still produce an error status.
	var buf bytes.Buffer
	if err := export.WriteCacheTable(&buf, table); err != nil {
		s.logger.Error("cache export failed", err)
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to encode cache table")
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "fibtrio-cache.arrow"))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("cache export write interrupted", logging.Err(err))
	}
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		s.logger.Error("encoding JSON response", err)
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
