package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pingtools/jobtrack/agent/internal/config"
	"github.com/pingtools/jobtrack/agent/internal/runner"
	"github.com/pingtools/jobtrack/agent/internal/shipper"
)

func main() {
	configPath := flag.String("config", "reporter.yaml", "path to config file")
	serverURL := flag.String("server", "", "jobtrack-server base URL (overrides config)")
	station := flag.String("station", "", "station name reported as NomDuPoste (overrides config)")
	expect := flag.Duration("expect", 0, "expected job duration (overrides config)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] -- command [args...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	r := &cfg.Reporter
	if *serverURL != "" {
		r.ServerURL = *serverURL
	}
	if *station != "" {
		r.Station = *station
	}
	if *expect > 0 {
		r.ExpectedDuration = *expect
	}
	if r.Station == "" {
		r.Station, _ = os.Hostname()
	}
	if err := config.Validate(cfg); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	slog.Debug("jobtrack-reporter starting",
		"server_url", r.ServerURL,
		"station", r.Station,
		"expected_duration", r.ExpectedDuration,
	)

	ship, err := shipper.New(*r)
	if err != nil {
		slog.Error("failed to build shipper", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	res, err := runner.New(ship, r.Station, r.ExpectedDuration).Run(ctx, flag.Arg(0), flag.Args()[1:]...)
	if err != nil {
		slog.Error("job outcome not reported", "token", res.Token, "err", err)
	}
	slog.Debug("jobtrack-reporter done", "token", res.Token, "elapsed", time.Since(start))

	switch {
	case res.ExitCode > 0:
		os.Exit(res.ExitCode)
	case res.Status != runner.StatusSucceeded:
		os.Exit(1)
	}
}
