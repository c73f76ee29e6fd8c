package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AntonStoeckl/library-lending-go/lending/service"
)

const scanTimeout = 5 * time.Minute

type scanFunc func(ctx context.Context) (service.OverdueReport, error)

// scheduler runs the overdue scan on a cron schedule. Overlapping runs are skipped.
type scheduler struct {
	cron   *cron.Cron
	spec   string
	scan   scanFunc
	logger *slog.Logger
}

func newScheduler(spec string, scan scanFunc, logger *slog.Logger) (*scheduler, error) {
	cronLogger := slogCronLogger{logger: logger}

	s := &scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		spec:   spec,
		scan:   scan,
		logger: logger,
	}

	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, err
	}

	return s, nil
}

// start registers the job and starts the cron loop in its own goroutine.
// Scans started by the schedule are canceled with ctx.
func (s *scheduler) start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.runNow(ctx) }); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

// stop stops the schedule. The returned context is done once a running scan has finished.
func (s *scheduler) stop() context.Context {
	return s.cron.Stop()
}

// runNow runs one scan. Failures are logged by the service wrapper and only summarized here.
func (s *scheduler) runNow(ctx context.Context) {
	scanCtx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	report, err := s.scan(scanCtx)
	if err != nil {
		s.logger.Error("overdue scan failed", "run_id", report.RunID.String(), "error", err.Error())
		return
	}

	if next := s.nextRun(); !next.IsZero() {
		s.logger.Info("next overdue scan scheduled", "at", next.Format(time.RFC3339))
	}
}

func (s *scheduler) nextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}

	return entries[0].Next
}

// slogCronLogger adapts *slog.Logger to cron.Logger.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l slogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l slogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err.Error())...)
}
