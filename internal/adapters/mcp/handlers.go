package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/okian/gscore/internal/domain/bulk"
	"github.com/okian/gscore/internal/domain/model"
)

const defaultFlagLimit = 50

type toolHandler struct {
	svc Scorer
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (h *toolHandler) handleCalculateScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identity := request.GetString("github_username", "")
	if identity == "" {
		return mcp.NewToolResultError("github_username is required"), nil
	}
	calc, err := h.svc.CalculateScore(ctx, identity, request.GetString("github_token", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"score":             calc.Result.Score,
		"normalizedFactors": calc.Result.Factors,
		"rawData":           calc.Metrics,
	})
}

func (h *toolHandler) handleRunBatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := bulk.ParseIdentities(request.GetString("identities", ""))
	if len(ids) == 0 {
		return mcp.NewToolResultError("identities must name at least one GitHub profile"), nil
	}
	rep, err := h.svc.RunBatch(ctx, ids)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("batch failed: %v", err)), nil
	}
	return jsonResult(rep)
}

func (h *toolHandler) handleFlagStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identity := request.GetString("github_username", "")
	if identity == "" {
		return mcp.NewToolResultError("github_username is required"), nil
	}
	f, ok, err := h.svc.FlagStatus(ctx, identity)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("flag lookup failed: %v", err)), nil
	}
	var entry *model.Flag
	if ok {
		entry = &f
	}
	return jsonResult(map[string]any{"flagged": ok, "entry": entry})
}

func (h *toolHandler) handleRecentFlags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", defaultFlagLimit)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be at least 1"), nil
	}
	entries, err := h.svc.RecentFlags(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("flag listing failed: %v", err)), nil
	}
	if entries == nil {
		entries = []model.Flag{}
	}
	return jsonResult(entries)
}

func (h *toolHandler) handleLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := h.svc.Leaderboard(ctx, request.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("leaderboard failed: %v", err)), nil
	}
	return jsonResult(entries)
}
