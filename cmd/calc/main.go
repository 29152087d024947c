package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ai-calculator/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := cli.DefaultApp()
	rootCmd := cli.NewRootCmd(app, fmt.Sprintf("%s (commit: %s)", version, commit))
	return rootCmd.ExecuteContext(ctx)
}
