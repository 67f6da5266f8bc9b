package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/gscore/pkg/metrics"
)

// MetricsMiddleware records request latency and, for failed requests, the
// error code written in the body. Failures written without a code are
// bucketed by status class.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		durationMs := float64(time.Since(start).Milliseconds())
		metrics.RecordHTTPRequest(endpoint, r.Method, strconv.Itoa(wrapped.statusCode), durationMs)
		if wrapped.statusCode >= http.StatusBadRequest {
			metrics.RecordHTTPError(endpoint, r.Method, wrapped.errorType())
		}
	}
}

// CORSMiddleware allows any origin and answers preflight requests directly.
func CORSMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET,OPTIONS,PATCH,DELETE,POST,PUT")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

// responseWriter captures the status and API error code of a response.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	errorCode  string
}

func (rw *responseWriter) errorType() string {
	if rw.errorCode != "" {
		return rw.errorCode
	}
	switch {
	case rw.statusCode == http.StatusNotFound:
		return "not_found"
	case rw.statusCode >= http.StatusInternalServerError:
		return "server_error"
	default:
		return "client_error"
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
