/*
Package main is the entry point for the diabrisk CLI.

Usage:

	diabrisk [command]

Available Commands:

	train    Train a scaler and model pair from a CSV file
	serve    Serve the trained pair over HTTP
	predict  Score one daily entry
	score    Score a CSV of daily entries
	gen      Generate a synthetic training CSV
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/diabrisk/internal/cli"
	"github.com/okian/diabrisk/pkg/logger"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	root := cli.NewRootCmd(fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date))
	err := root.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
