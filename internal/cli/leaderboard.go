package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newLeaderboardCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank wallets by their latest stored score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			entries, err := svc.Leaderboard(ctx, limit)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Number of entries (0 uses the server default)")
	return cmd
}
