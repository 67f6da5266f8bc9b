package cli

import (
	"github.com/okian/gscore/internal/domain/model"
	"github.com/spf13/cobra"
)

func newFlagsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flags",
		Short: "Inspect the flag ledger",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List the most recent flags, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			entries, err := svc.RecentFlags(ctx, limit)
			if err != nil {
				return err
			}
			w, closeOut, err := a.writer(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = closeOut() }()
			return w.WriteFlags(entries)
		},
	}
	list.Flags().IntVarP(&limit, "limit", "l", 50, "Number of entries to show")

	show := &cobra.Command{
		Use:   "show <github-username>",
		Short: "Show the latest flag for a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			f, ok, err := svc.FlagStatus(ctx, args[0])
			if err != nil {
				return err
			}
			var entries []model.Flag
			if ok {
				entries = append(entries, f)
			}
			w, closeOut, err := a.writer(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = closeOut() }()
			return w.WriteFlags(entries)
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}
