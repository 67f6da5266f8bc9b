package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/gscore/internal/app"
	"github.com/okian/gscore/internal/domain/bulk"
)

// BulkDependencies defines the batch operations.
type BulkDependencies interface {
	RunBatch(ctx context.Context, identities []string) (bulk.Report, error)
	SubmitBatch(ctx context.Context, id string, identities []string) (service.Batch, error)
	BatchStatus(ctx context.Context, id string) (service.Batch, error)
	Recommendations(ctx context.Context) (bulk.Report, bool, error)
}

// BulkHandler handles batch requests.
type BulkHandler struct {
	deps BulkDependencies
}

// NewBulkHandler creates a new bulk handler.
func NewBulkHandler(deps BulkDependencies) *BulkHandler {
	return &BulkHandler{deps: deps}
}

// bulkRequest accepts either a list of identities or free text holding
// usernames, @handles or profile URLs.
type bulkRequest struct {
	Identities []string `json:"identities"`
	Text       string   `json:"text"`
	BatchID    string   `json:"batchId"`
}

func (b bulkRequest) identities() []string {
	ids := bulk.ParseIdentities(strings.Join(b.Identities, "\n"))
	if b.Text != "" {
		ids = append(ids, bulk.ParseIdentities(b.Text)...)
	}
	return bulk.Dedupe(ids)
}

// HandleRun handles POST /api/bulk. With ?async=true the batch is queued
// and 202 is returned; otherwise the report is returned when done.
func (h *BulkHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.run_batch"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req bulkRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	async, _ := strconv.ParseBool(r.URL.Query().Get("async"))

	if async {
		b, err := h.deps.SubmitBatch(r.Context(), req.BatchID, req.identities())
		if err != nil {
			writeFailure(r.Context(), w, op, err)
			return
		}
		writeJSON(w, http.StatusAccepted, b)
		return
	}
	rep, err := h.deps.RunBatch(r.Context(), req.identities())
	if err != nil {
		writeFailure(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandleStatus handles GET /api/bulk/{batchId}.
func (h *BulkHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.batch_status"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/bulk/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	b, err := h.deps.BatchStatus(r.Context(), id)
	if err != nil {
		writeFailure(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// HandleRecommendations handles GET /api/recommendations.
func (h *BulkHandler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommendations"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rep, ok, err := h.deps.Recommendations(r.Context())
	if err != nil {
		writeFailure(r.Context(), w, op, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, errNoBatch))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
