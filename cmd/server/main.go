package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sheikh-saqib/epoch-ledger/internal/app"
	"github.com/sheikh-saqib/epoch-ledger/internal/config"
	"github.com/sheikh-saqib/epoch-ledger/internal/logging"
	"github.com/spf13/pflag"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ledger-server: %v\n", err)
		os.Exit(2)
	}

	log, err := logging.New("ledger-server", logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ledger-server: %v\n", err)
		os.Exit(2)
	}

	node, err := app.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to start")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := node.Run(ctx); err != nil {
		log.WithError(err).Error("server exited")
		stop()
		os.Exit(1)
	}
}
