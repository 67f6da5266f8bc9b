package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/okian/gscore/internal/adapters/mcp"
	service "github.com/okian/gscore/internal/app"
	"github.com/okian/gscore/internal/domain/bulk"
	"github.com/okian/gscore/internal/domain/model"
	"github.com/okian/gscore/internal/domain/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScorer struct {
	batchIDs []string
	flags    map[string]model.Flag
	fail     error
}

func (f *fakeScorer) CalculateScore(_ context.Context, identity, _ string) (service.Calculation, error) {
	if f.fail != nil {
		return service.Calculation{}, f.fail
	}
	return service.Calculation{
		Metrics: model.Metrics{Identity: identity, Followers: 10},
		Result:  scoring.Result{Score: 420},
	}, nil
}

func (f *fakeScorer) RunBatch(_ context.Context, identities []string) (bulk.Report, error) {
	f.batchIDs = identities
	out := make([]bulk.Outcome, 0, len(identities))
	for _, id := range identities {
		out = append(out, bulk.Outcome{Identity: id, Status: bulk.StatusScored, Score: 100})
	}
	return bulk.Report{BatchID: "b", Outcomes: out, Summary: bulk.Summarize(out)}, nil
}

func (f *fakeScorer) FlagStatus(_ context.Context, identity string) (model.Flag, bool, error) {
	fl, ok := f.flags[identity]
	return fl, ok, nil
}

func (f *fakeScorer) RecentFlags(_ context.Context, limit int) ([]model.Flag, error) {
	var out []model.Flag
	for _, fl := range f.flags {
		if len(out) == limit {
			break
		}
		out = append(out, fl)
	}
	return out, nil
}

func (f *fakeScorer) Leaderboard(_ context.Context, _ int) ([]service.LeaderboardEntry, error) {
	return []service.LeaderboardEntry{{Rank: 1, Identity: "alice", Score: 900}}, nil
}

func call(t *testing.T, svc mcpserver.Scorer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcpserver.NewServer(svc)
	tool := s.GetTool(name)
	require.NotNil(t, tool, "tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "tool failures are reported in the result")
	require.NotEmpty(t, res.Content)
	return res
}

func text(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestCalculateScoreTool(t *testing.T) {
	t.Run("scores", func(t *testing.T) {
		res := call(t, &fakeScorer{}, "calculate_score", map[string]any{"github_username": "alice"})
		assert.False(t, res.IsError)

		var body struct {
			Score   int           `json:"score"`
			RawData model.Metrics `json:"rawData"`
		}
		require.NoError(t, json.Unmarshal([]byte(text(res)), &body))
		assert.Equal(t, 420, body.Score)
		assert.Equal(t, "alice", body.RawData.Identity)
	})

	t.Run("missing username", func(t *testing.T) {
		res := call(t, &fakeScorer{}, "calculate_score", map[string]any{})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "github_username is required")
	})

	t.Run("service failure", func(t *testing.T) {
		res := call(t, &fakeScorer{fail: errors.New("rate limited")}, "calculate_score", map[string]any{"github_username": "alice"})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "rate limited")
	})
}

func TestRunBatchTool(t *testing.T) {
	svc := &fakeScorer{}
	res := call(t, svc, "run_batch", map[string]any{"identities": "alice, https://github.com/bob\nalice"})
	assert.False(t, res.IsError)
	assert.Equal(t, []string{"alice", "bob"}, svc.batchIDs)

	var rep bulk.Report
	require.NoError(t, json.Unmarshal([]byte(text(res)), &rep))
	assert.Equal(t, 2, rep.Summary.Scored)

	res = call(t, svc, "run_batch", map[string]any{"identities": "  "})
	assert.True(t, res.IsError)
}

func TestFlagTools(t *testing.T) {
	svc := &fakeScorer{flags: map[string]model.Flag{
		"ghost": {ID: "1", Identity: "ghost", Reason: "GitHub user ghost not found", CreatedAt: time.Now().UTC()},
	}}

	res := call(t, svc, "flag_status", map[string]any{"github_username": "ghost"})
	assert.False(t, res.IsError)
	assert.Contains(t, text(res), `"flagged": true`)
	assert.Contains(t, text(res), "ghost not found")

	res = call(t, svc, "flag_status", map[string]any{"github_username": "alice"})
	assert.Contains(t, text(res), `"flagged": false`)
	assert.Contains(t, text(res), `"entry": null`)

	res = call(t, svc, "recent_flags", map[string]any{"limit": 5.0})
	assert.False(t, res.IsError)
	var entries []model.Flag
	require.NoError(t, json.Unmarshal([]byte(text(res)), &entries))
	assert.Len(t, entries, 1)

	res = call(t, svc, "recent_flags", map[string]any{"limit": 0.0})
	assert.True(t, res.IsError)
}

func TestLeaderboardTool(t *testing.T) {
	res := call(t, &fakeScorer{}, "leaderboard", nil)
	assert.False(t, res.IsError)
	assert.Contains(t, text(res), "alice")
}
