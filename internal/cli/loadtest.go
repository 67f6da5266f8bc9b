package cli

import (
	"time"

	"github.com/okian/gscore/internal/loadtest"
	"github.com/spf13/cobra"
)

func newLoadtestCmd(a *app) *cobra.Command {
	cfg := loadtest.Config{}
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Drive a running server with generated stores and check its answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd.Context()); err != nil {
				return err
			}
			_, err := loadtest.Run(cmd.Context(), &cfg)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:3001", "Base URL of the server")
	f.IntVar(&cfg.NumWallets, "wallets", 1000, "Number of wallets to store")
	f.IntVar(&cfg.TopN, "top", 10, "Leaderboard entries to fetch")
	f.IntVar(&cfg.Workers, "workers", 10, "Concurrent workers")
	f.DurationVar(&cfg.Timeout, "timeout", 30*time.Second, "HTTP request timeout")
	f.StringVar(&cfg.OutputFile, "out", "", "Save generated submissions to this JSON file")
	f.BoolVar(&cfg.Verbose, "verbose", false, "Log every failure")
	return cmd
}
