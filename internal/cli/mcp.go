package cli

import (
	"github.com/okian/gscore/internal/adapters/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the GScore MCP server on stdio",
		Long:  `Launch an MCP server that lets AI agents score profiles, run batches and read the flag ledger through standard tools.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()
			return mcp.Serve(ctx, svc)
		},
	}
}
