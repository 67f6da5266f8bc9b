// Command gscore is the command-line front end: one-off scores, batches, the
// flag ledger, schema migrations, the MCP server and load tests.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/okian/gscore/internal/cli"
	"github.com/okian/gscore/pkg/logger"
)

func main() {
	// Stdout carries reports and the MCP protocol, so logs go to stderr.
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		_, _ = color.New(color.FgRed).Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		_, _ = color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
