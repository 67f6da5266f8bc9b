// Package cli defines the gscore command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	service "github.com/okian/gscore/internal/app"
	"github.com/okian/gscore/internal/config"
	"github.com/okian/gscore/internal/report"
	"github.com/okian/gscore/pkg/logger"
	"github.com/spf13/cobra"
)

// All linker flags are set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globals holds the persistent flag values shared by every command.
type globals struct {
	configFile string
	logLevel   string
	output     string
	outputFile string
	color      string
}

// app is the state one command invocation works with.
type app struct {
	flags globals
	cfg   *config.Config
	log   logger.Logger
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:                "gscore",
		Short:              "Score GitHub profiles and anchor the scores on an EVM ledger.",
		Long:               `GScore turns public GitHub activity into a reputation score, keeps a ledger of flagged profiles, and ranks batches of profiles.`,
		Version:            fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceErrors:      true,
		SilenceUsage:       true,
		DisableSuggestions: true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "Path to a YAML config file (defaults to $GSCORE_CONFIG)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVarP(&a.flags.output, "output", "o", string(report.TableOut), "Output format: table, json or parquet")
	pf.StringVar(&a.flags.outputFile, "output-file", "", "Optional path to write output to")
	pf.StringVar(&a.flags.color, "color", "auto", "Colour table output: auto, yes or no")

	root.AddCommand(
		newScoreCmd(a),
		newBatchCmd(a),
		newFlagsCmd(a),
		newLeaderboardCmd(a),
		newMigrateCmd(a),
		newMCPCmd(a),
		newLoadtestCmd(a),
	)
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// setup loads configuration and applies the log level.
func (a *app) setup(ctx context.Context) error {
	path := a.flags.configFile
	if path == "" {
		path = os.Getenv(config.EnvPrefix + "CONFIG")
	}
	cfg, err := config.LoadFile(ctx, path)
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if a.flags.logLevel != "" {
		level = a.flags.logLevel
	}
	if level != "" {
		if err := logger.SetLevelString(level); err != nil {
			return err
		}
	}
	a.cfg = cfg
	a.log = logger.GetOr(logger.Nop())
	return nil
}

// service loads configuration and builds the scoring service.
func (a *app) service(ctx context.Context) (*service.Service, error) {
	if err := a.setup(ctx); err != nil {
		return nil, err
	}
	return service.Build(ctx, a.cfg, service.WithLogger(a.log.Named("service")))
}

// writer opens the report destination. The returned close func is never nil.
func (a *app) writer(cmd *cobra.Command) (*report.Writer, func() error, error) {
	format, err := report.ParseFormat(a.flags.output)
	if err != nil {
		return nil, nil, err
	}

	var (
		out     io.Writer = cmd.OutOrStdout()
		closeFn           = func() error { return nil }
	)
	if a.flags.outputFile != "" {
		f, err := os.Create(a.flags.outputFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		out, closeFn = f, f.Close
	}

	opts := []report.Option{report.WithFormat(format)}
	switch strings.ToLower(a.flags.color) {
	case "", "auto":
	case "yes", "true", "1":
		opts = append(opts, report.WithColor(true))
	case "no", "false", "0":
		opts = append(opts, report.WithColor(false))
	default:
		_ = closeFn()
		return nil, nil, fmt.Errorf("invalid --color value %q (want auto, yes or no)", a.flags.color)
	}
	return report.New(out, opts...), closeFn, nil
}
