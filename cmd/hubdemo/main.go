// Command hubdemo runs a scenario script against a fresh notification hub and prints what the hub and its
// subscribers log.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/jeremyforan/notifyhub"
	"github.com/jeremyforan/notifyhub/internal/config"
	"github.com/jeremyforan/notifyhub/internal/logging"
	"github.com/jeremyforan/notifyhub/internal/scenario"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "hubdemo:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("hubdemo", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LoggingOptions(), os.Stdout)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var s *scenario.Scenario
	if cfg.Scenario == "" {
		s, err = scenario.Default()
	} else {
		s, err = scenario.Load(cfg.Scenario)
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slogger := logging.Slog(logger)

	hub := notifyhub.NewHub()
	hub.SetLogger(slogger)
	hub.SetStrictMembership(cfg.Strict)

	if err := s.Run(ctx, hub, slogger); err != nil {
		logger.Error("scenario failed", zap.Error(err))
		return err
	}
	return nil
}
