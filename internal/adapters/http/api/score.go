package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/gscore/internal/adapters/ledger"
	service "github.com/okian/gscore/internal/app"
	"github.com/okian/gscore/internal/domain/model"
	"github.com/okian/gscore/internal/domain/scoring"
)

const defaultFlagsLimit = 50

// ScoreDependencies covers scoring, storage and flag reads.
type ScoreDependencies interface {
	CalculateScore(ctx context.Context, identity, token string) (service.Calculation, error)
	VerifyAndStore(ctx context.Context, wallet, identity, token string) (service.Stored, error)
	StoreScore(ctx context.Context, wallet, identity string, score int) (service.Stored, error)
	CheckVerification(ctx context.Context, wallet, identity string) (service.Verification, error)
	FlagStatus(ctx context.Context, identity string) (model.Flag, bool, error)
	RecentFlags(ctx context.Context, limit int) ([]model.Flag, error)
	LatestScore(ctx context.Context, wallet string) (ledger.Record, error)
}

// ScoreHandler handles score and flag requests.
type ScoreHandler struct {
	deps ScoreDependencies
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps ScoreDependencies) *ScoreHandler {
	return &ScoreHandler{deps: deps}
}

type scoreRequest struct {
	WalletAddress  string `json:"walletAddress"`
	GithubUsername string `json:"githubUsername"`
	GithubToken    string `json:"githubToken"`
	Score          *int   `json:"score"`
}

type calculateResponse struct {
	Score   int             `json:"score"`
	Factors scoring.Factors `json:"normalizedFactors"`
	RawData model.Metrics   `json:"rawData"`
}

type storedResponse struct {
	Success bool `json:"success"`
	service.Stored
}

type flagResponse struct {
	Flagged bool        `json:"flagged"`
	Entry   *model.Flag `json:"entry"`
}

// HandleCalculate handles POST /api/calculate-score requests.
func (h *ScoreHandler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "api.calculate_score"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req scoreRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	calc, err := h.deps.CalculateScore(r.Context(), req.GithubUsername, req.GithubToken)
	if err != nil {
		writeFailure(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, calculateResponse{
		Score:   calc.Result.Score,
		Factors: calc.Result.Factors,
		RawData: calc.Metrics,
	})
}

// HandleVerifyAndStore handles POST /api/fdc/verify-and-store requests.
func (h *ScoreHandler) HandleVerifyAndStore(w http.ResponseWriter, r *http.Request) {
	const op = "api.verify_and_store"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req scoreRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	stored, err := h.deps.VerifyAndStore(r.Context(), req.WalletAddress, req.GithubUsername, req.GithubToken)
	if err != nil {
		writeFailure(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, storedResponse{Success: true, Stored: stored})
}

// HandleStoreScore handles POST /api/store-score requests.
func (h *ScoreHandler) HandleStoreScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.store_score"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req scoreRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Score == nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errMissing("score")))
		return
	}
	stored, err := h.deps.StoreScore(r.Context(), req.WalletAddress, req.GithubUsername, *req.Score)
	if err != nil {
		writeFailure(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, storedResponse{Success: true, Stored: stored})
}

// HandleCheck handles GET /api/fdc/check/{wallet}/{identity} requests.
func (h *ScoreHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	const op = "api.check_verification"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	wallet, identity, ok := strings.Cut(strings.TrimPrefix(r.URL.Path, "/api/fdc/check/"), "/")
	if !ok || wallet == "" || identity == "" || strings.Contains(identity, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	v, err := h.deps.CheckVerification(r.Context(), wallet, identity)
	if err != nil {
		writeFailure(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleFlagStatus handles GET /api/fdc/flag/{identity} requests.
func (h *ScoreHandler) HandleFlagStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.flag_status"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	identity := strings.TrimPrefix(r.URL.Path, "/api/fdc/flag/")
	if identity == "" || strings.Contains(identity, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	f, flagged, err := h.deps.FlagStatus(r.Context(), identity)
	if err != nil {
		writeFailure(r.Context(), w, op, err)
		return
	}
	resp := flagResponse{Flagged: flagged}
	if flagged {
		resp.Entry = &f
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleRecentFlags handles GET /api/flags?limit=N requests.
func (h *ScoreHandler) HandleRecentFlags(w http.ResponseWriter, r *http.Request) {
	const op = "api.recent_flags"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit := defaultFlagsLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	list, err := h.deps.RecentFlags(r.Context(), limit)
	if err != nil {
		writeFailure(r.Context(), w, op, err)
		return
	}
	if list == nil {
		list = []model.Flag{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleLatestScore handles GET /api/scores/{wallet} requests.
func (h *ScoreHandler) HandleLatestScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.latest_score"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	wallet := strings.TrimPrefix(r.URL.Path, "/api/scores/")
	if wallet == "" || strings.Contains(wallet, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	rec, err := h.deps.LatestScore(r.Context(), wallet)
	if err != nil {
		writeFailure(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type missingField string

func (m missingField) Error() string { return string(m) + " is required" }

func errMissing(field string) error { return missingField(field) }
