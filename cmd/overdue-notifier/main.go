// Command overdue-notifier mails customers whose loans are overdue.
//
// It runs the overdue scan on a cron schedule until it receives SIGINT or SIGTERM.
// With -once it runs a single scan and exits, with -isbn it prints a book and its loans.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AntonStoeckl/library-lending-go/config"
)

const shutdownTimeout = 10 * time.Second

// Flags holds the command-line configuration.
type Flags struct {
	ConfigPath           string
	ObservabilityEnabled bool
	Once                 bool
	ISBN                 string
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("overdue-notifier failed: %v", err)
	}
}

func run() error {
	flags := parseFlags()

	cfg, err := config.LoadAppConfig(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if flags.ObservabilityEnabled {
		cfg.Observability.Enabled = true
	}

	logger, err := newLogger(os.Stdout, cfg.Logging)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.close()

	switch {
	case flags.ISBN != "":
		return app.printBook(ctx, os.Stdout, flags.ISBN)
	case flags.Once:
		_, err = app.runScan(ctx)
		return err
	}

	sched, err := newScheduler(cfg.Overdue.Schedule, app.runScan, logger)
	if err != nil {
		return err
	}

	if cfg.Overdue.RunOnStart {
		sched.runNow(ctx)
	}

	if err = sched.start(ctx); err != nil {
		return err
	}

	logger.Info("overdue notifier started", "schedule", cfg.Overdue.Schedule, "threshold_days", cfg.Overdue.ThresholdDays)

	sig := <-sigChan
	logger.Info("shutdown signal received", "signal", sig.String())
	cancel()

	select {
	case <-sched.stop().Done():
		logger.Info("overdue notifier stopped gracefully")
	case <-time.After(shutdownTimeout):
		logger.Warn("shutdown timeout exceeded, a scan may have been interrupted")
	}

	return nil
}

func parseFlags() Flags {
	var (
		configPath    = flag.String("config", os.Getenv("LENDING_CONFIG"), "Path to the YAML config file")
		observability = flag.Bool("observability-enabled", false, "Enable OpenTelemetry observability")
		once          = flag.Bool("once", false, "Run one overdue scan and exit")
		isbn          = flag.String("isbn", "", "Print the book with this ISBN and its loans, then exit")
	)

	flag.Parse()

	return Flags{
		ConfigPath:           *configPath,
		ObservabilityEnabled: *observability,
		Once:                 *once,
		ISBN:                 *isbn,
	}
}
