package api

import (
	"context"
	"net/http"
	"strconv"

	service "github.com/okian/gscore/internal/app"
)

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, limit int) ([]service.LeaderboardEntry, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps LeaderboardDependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// HandleGetLeaderboard handles GET /api/leaderboard?limit=N requests. A
// missing limit uses the default; an oversized one is clamped.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		n = v
	}
	entries, err := h.deps.Leaderboard(r.Context(), n)
	if err != nil {
		writeFailure(r.Context(), w, op, err)
		return
	}
	if entries == nil {
		entries = []service.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
