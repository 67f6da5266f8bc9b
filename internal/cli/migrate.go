package cli

import (
	"fmt"

	"github.com/okian/gscore/internal/adapters/flags"
	"github.com/okian/gscore/pkg/logger"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	var (
		target int
		down   bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the SQL flag store schema",
		Long: `Move the flag store schema named by flags_backend and flags_dsn.
Without flags the schema is migrated to the latest version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.setup(ctx); err != nil {
				return err
			}
			dialect, err := flags.ParseDialect(a.cfg.FlagsBackend)
			if err != nil {
				return fmt.Errorf("%w: %s", errNotSQLBackend, a.cfg.FlagsBackend)
			}

			t := target
			switch {
			case down:
				t = 0
			case t == 0:
				t = -1
			}
			res, err := flags.MigrateDSN(ctx, dialect, a.cfg.FlagsDSN, t)
			if err != nil {
				return err
			}
			a.log.Info(ctx, "flag schema migrated",
				logger.String("dialect", string(dialect)),
				logger.Uint64("from", uint64(res.From)),
				logger.Uint64("to", uint64(res.To)),
				logger.Bool("changed", res.Changed),
			)
			if !res.Changed {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s flag schema already at version %d\n", dialect, res.To)
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s flag schema migrated from version %d to %d\n", dialect, res.From, res.To)
			return err
		},
	}
	cmd.Flags().IntVar(&target, "target", 0, "Schema version to migrate to (0 means latest)")
	cmd.Flags().BoolVar(&down, "down", false, "Roll every migration back")
	return cmd
}
