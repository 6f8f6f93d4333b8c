// Command lmbridge runs a language-model bridge worker speaking
// length-prefixed JSON over stdin/stdout.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/filegrind/lmbridge-go"
	"github.com/filegrind/lmbridge-go/config"
	"github.com/filegrind/lmbridge-go/metrics"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lmbridge",
		Short: "Language model bridge worker",
		Long: "lmbridge reads length-prefixed JSON requests on stdin, executes them\n" +
			"against declarative LM programs, and writes one response frame per\n" +
			"request on stdout. A pool supervisor spawns one worker per process.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd)
		},
	}

	cmd.Flags().String("mode", config.DefaultMode, "Execution mode (only pool-worker is supported)")
	cmd.Flags().String("log-level", "", "Log level: debug, info, warn or error")
	cmd.Flags().String("metrics-addr", "", "Prometheus listen address; empty disables metrics")

	return cmd
}

func run(cmd *cobra.Command) error {
	// A .env file is developer convenience; deployed workers get real env.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Mode, _ = flags.GetString("mode")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// stdout carries response frames, so all logging goes to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	collector, err := metrics.New(cfg.MetricsAddr)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	if collector.Enabled() {
		logger.Info("metrics enabled", "addr", cfg.MetricsAddr)
	}

	workerID := uuid.NewString()
	bridge, err := lmbridge.NewBridge(
		lmbridge.WithLogger(logger),
		lmbridge.WithWorkerID(workerID),
		lmbridge.WithRegistryCapacity(cfg.RegistryCapacity),
		lmbridge.WithMetrics(collector),
		lmbridge.WithEnvCredential(cfg.GeminiAPIKey),
		lmbridge.WithLMTimeout(cfg.LMTimeout),
		lmbridge.WithProbeTimeout(cfg.ProbeTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create bridge: %w", err)
	}

	rt := lmbridge.NewRuntime(os.Stdin, os.Stdout, bridge,
		lmbridge.WithRuntimeLogger(logger),
		lmbridge.WithLimits(lmbridge.Limits{MaxFrame: cfg.MaxFrame}),
	)

	ctx := cmd.Context()
	g, gctx := errgroup.WithContext(ctx)
	serveCtx, stopServe := context.WithCancel(gctx)
	defer stopServe()

	g.Go(func() error { return collector.Serve(serveCtx) })

	// The frame loop blocks in a stdin read that cancellation cannot
	// interrupt, so it runs outside the group and the process simply
	// exits if a signal arrives while a read is pending.
	runErr := make(chan error, 1)
	go func() { runErr <- rt.Run(ctx) }()

	select {
	case err = <-runErr:
		stopServe()
		if werr := g.Wait(); werr != nil && err == nil {
			err = werr
		}
	case <-gctx.Done():
		logger.Info("shutting down", "reason", context.Cause(gctx))
		stopServe()
		err = g.Wait()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := collector.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("metrics shutdown failed", "error", serr)
	}

	return err
}
