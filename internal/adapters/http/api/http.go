// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/gscore/internal/adapters/github"
	"github.com/okian/gscore/internal/adapters/ledger"
	service "github.com/okian/gscore/internal/app"
	"github.com/okian/gscore/internal/domain/lock"
	"github.com/okian/gscore/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	ScoreDependencies
	LeaderboardDependencies
	BulkDependencies
	HealthDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	scoreHandler       *ScoreHandler
	leaderboardHandler *LeaderboardHandler
	bulkHandler        *BulkHandler
	healthHandler      *HealthHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		scoreHandler:       NewScoreHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
		bulkHandler:        NewBulkHandler(deps),
		healthHandler:      NewHealthHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, CORSMiddleware(MetricsMiddleware(h, endpoint)))
	}

	route("/health", "health", s.healthHandler.HandleHealth)
	route("/healthz", "healthz", s.healthHandler.HandleMetrics)
	route("/stats", "stats", s.healthHandler.HandleStats)

	route("/api/calculate-score", "calculate_score", s.scoreHandler.HandleCalculate)
	route("/api/fdc/verify-and-store", "verify_and_store", s.scoreHandler.HandleVerifyAndStore)
	route("/api/store-score", "store_score", s.scoreHandler.HandleStoreScore)
	route("/api/fdc/check/", "check_verification", s.scoreHandler.HandleCheck)
	route("/api/fdc/flag/", "flag_status", s.scoreHandler.HandleFlagStatus)
	route("/api/flags", "flags", s.scoreHandler.HandleRecentFlags)
	route("/api/scores/", "latest_score", s.scoreHandler.HandleLatestScore)
	route("/api/leaderboard", "leaderboard", s.leaderboardHandler.HandleGetLeaderboard)
	route("/api/bulk", "bulk", s.bulkHandler.HandleRun)
	route("/api/bulk/", "bulk_status", s.bulkHandler.HandleStatus)
	route("/api/recommendations", "recommendations", s.bulkHandler.HandleRecommendations)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Flagged bool   `json:"flagged,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = clientMessage(err)
	}
	if rw, ok := w.(*responseWriter); ok {
		rw.errorCode = code
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, Flagged: service.IsFlagged(err)})
}

// writeFailure maps err to its status and code and writes it.
func writeFailure(ctx context.Context, w http.ResponseWriter, op string, err error) {
	c := classify(err)
	if c.status >= http.StatusInternalServerError {
		logger.GetOr(logger.Nop()).Error(ctx, "request failed",
			logger.String("op", op),
			logger.Int("status", c.status),
			logger.Error(err),
		)
	}
	writeError(w, c.status, c.code, Wrap(op, err))
}

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

type class struct {
	status int
	code   string
	kind   error
}

func classify(err error) class {
	var (
		upstream  *github.UpstreamError
		violation *lock.Violation
		ledgerErr *ledger.Error
	)
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, ledger.ErrInvalidWallet),
		errors.Is(err, github.ErrEmptyIdentity):
		return class{http.StatusBadRequest, "bad_request", ErrBadRequest}
	case errors.As(err, &violation):
		return class{http.StatusConflict, "identity_locked", ErrConflict}
	case errors.Is(err, service.ErrDuplicateBatch):
		return class{http.StatusConflict, "duplicate_batch", ErrConflict}
	case errors.As(err, &upstream):
		if upstream.NotFound() {
			return class{http.StatusNotFound, "not_found", ErrNotFound}
		}
		return class{http.StatusBadGateway, "upstream_error", ErrUpstream}
	case errors.Is(err, ledger.ErrNotConfigured):
		return class{http.StatusInternalServerError, "not_configured", ErrNotConfigured}
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ledger.ErrNoRecord),
		errors.Is(err, service.ErrBatchNotFound):
		return class{http.StatusNotFound, "not_found", ErrNotFound}
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrQueueFull):
		return class{http.StatusTooManyRequests, "backpressure", ErrBackpressure}
	case errors.Is(err, service.ErrNotStarted):
		return class{http.StatusServiceUnavailable, "unavailable", ErrUnavailable}
	case errors.Is(err, context.DeadlineExceeded):
		return class{http.StatusGatewayTimeout, "timeout", ErrTimeout}
	case errors.As(err, &ledgerErr):
		return class{http.StatusBadGateway, "ledger_error", ErrUpstream}
	default:
		return class{http.StatusInternalServerError, "internal_error", ErrInternal}
	}
}
