package cli

import (
	"github.com/spf13/cobra"
)

func newScoreCmd(a *app) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "score <github-username>",
		Short: "Compute the score of one GitHub profile without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			calc, err := svc.CalculateScore(ctx, args[0], token)
			if err != nil {
				return err
			}

			w, closeOut, err := a.writer(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = closeOut() }()
			return w.WriteScore(calc.Metrics, calc.Result)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "GitHub token for this request (defaults to github_token)")
	return cmd
}
