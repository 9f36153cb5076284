package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"astrocore/internal/cli"
	"astrocore/internal/config"
	"astrocore/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(cfg, log).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
