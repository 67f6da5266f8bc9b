// Package mcp exposes scoring, batches and the flag ledger as Model Context
// Protocol tools over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	service "github.com/okian/gscore/internal/app"
	"github.com/okian/gscore/internal/domain/bulk"
	"github.com/okian/gscore/internal/domain/model"
)

// Name and version announced to MCP clients.
const (
	ServerName    = "GScore"
	ServerVersion = "1.0.0"
)

// Scorer is the part of the service the tools call.
type Scorer interface {
	CalculateScore(ctx context.Context, identity, token string) (service.Calculation, error)
	RunBatch(ctx context.Context, identities []string) (bulk.Report, error)
	FlagStatus(ctx context.Context, identity string) (model.Flag, bool, error)
	RecentFlags(ctx context.Context, limit int) ([]model.Flag, error)
	Leaderboard(ctx context.Context, limit int) ([]service.LeaderboardEntry, error)
}

// NewServer builds the MCP server without starting it.
func NewServer(svc Scorer) *server.MCPServer {
	s := server.NewMCPServer(ServerName, ServerVersion, server.WithLogging())
	h := &toolHandler{svc: svc}

	s.AddTool(mcp.NewTool("calculate_score",
		mcp.WithDescription("Score a GitHub profile from its public activity. Nothing is stored."),
		mcp.WithString("github_username", mcp.Description("GitHub login to score."), mcp.Required()),
		mcp.WithString("github_token", mcp.Description("Optional GitHub token for higher rate limits.")),
	), h.handleCalculateScore)

	s.AddTool(mcp.NewTool("run_batch",
		mcp.WithDescription("Score a list of GitHub profiles one after another and rank them."),
		mcp.WithString("identities", mcp.Description("Usernames or profile URLs separated by commas, spaces or newlines."), mcp.Required()),
	), h.handleRunBatch)

	s.AddTool(mcp.NewTool("flag_status",
		mcp.WithDescription("Report whether a GitHub profile has been flagged and why."),
		mcp.WithString("github_username", mcp.Description("GitHub login to look up."), mcp.Required()),
	), h.handleFlagStatus)

	s.AddTool(mcp.NewTool("recent_flags",
		mcp.WithDescription("List the most recent flag ledger entries, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of entries (default 50).")),
	), h.handleRecentFlags)

	s.AddTool(mcp.NewTool("leaderboard",
		mcp.WithDescription("Rank wallets by their latest stored score."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of entries.")),
	), h.handleLeaderboard)

	return s
}

// Serve runs the server on stdin and stdout until the client disconnects.
func Serve(_ context.Context, svc Scorer) error {
	return server.ServeStdio(NewServer(svc))
}
