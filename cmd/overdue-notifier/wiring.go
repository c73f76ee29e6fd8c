package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AntonStoeckl/library-lending-go/config"
	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/mailnotifier"
	"github.com/AntonStoeckl/library-lending-go/lending/oteladapters"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine"
	"github.com/AntonStoeckl/library-lending-go/lending/rediscache"
	"github.com/AntonStoeckl/library-lending-go/lending/service"
	"github.com/AntonStoeckl/library-lending-go/lending/shell/observable"
)

const instrumentationName = "github.com/AntonStoeckl/library-lending-go"

// ErrUnknownLogFormat is returned when logging.format is neither json nor text.
var ErrUnknownLogFormat = errors.New("unknown log format")

// instrumentation holds the observability adapters shared by all components.
// Metrics and Tracing are nil unless observability is enabled.
type instrumentation struct {
	Metrics          lending.MetricsCollector
	Tracing          lending.TracingCollector
	ContextualLogger lending.ContextualLogger
}

// application is the wired object graph of the notifier.
type application struct {
	logger  *slog.Logger
	books   *observable.BookServiceWrapper
	loans   *observable.LoanServiceWrapper
	closers []func() error
}

func newLogger(w io.Writer, cfg config.LoggingConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "json", "":
		return slog.New(slog.NewJSONHandler(w, handlerOptions)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, handlerOptions)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLogFormat, cfg.Format)
	}
}

func newApplication(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (*application, error) {
	app := &application{logger: logger}

	instr, err := app.setupObservability(ctx, cfg.Observability)
	if err != nil {
		app.close()
		return nil, err
	}

	engine, err := app.openEngine(ctx, cfg.Postgres, engineOptions(cfg.Postgres, instr)...)
	if err != nil {
		app.close()
		return nil, err
	}

	if cfg.Postgres.Migrate {
		if err = engine.Migrate(ctx); err != nil {
			app.close()
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	bookStore, err := app.bookStore(engine, cfg.Redis, instr)
	if err != nil {
		app.close()
		return nil, err
	}

	notifier, err := newNotifier(cfg.SMTP, instr)
	if err != nil {
		app.close()
		return nil, err
	}

	if err = app.buildServices(bookStore, engine.Loans(), notifier, cfg.Overdue, instr); err != nil {
		app.close()
		return nil, err
	}

	return app, nil
}

func (a *application) setupObservability(ctx context.Context, cfg config.ObservabilityConfig) (instrumentation, error) {
	if !cfg.Enabled {
		return instrumentation{ContextualLogger: a.logger}, nil
	}

	providers, err := config.NewObservabilityProviders(ctx, cfg)
	if err != nil {
		return instrumentation{}, fmt.Errorf("failed to create observability providers: %w", err)
	}

	a.closers = append(a.closers, func() error {
		return providers.Shutdown(context.Background())
	})

	a.logger.Info("observability enabled", "trace_endpoint", cfg.TraceEndpoint, "metric_endpoint", cfg.MetricEndpoint)

	return instrumentation{
		Metrics:          oteladapters.NewMetricsCollector(providers.MeterProvider.Meter(instrumentationName)),
		Tracing:          oteladapters.NewTracingCollector(providers.TracerProvider.Tracer(instrumentationName)),
		ContextualLogger: oteladapters.NewSlogBridgeLoggerWithHandler(a.logger.Handler()),
	}, nil
}

func engineOptions(cfg config.PostgresConfig, instr instrumentation) []postgresengine.Option {
	options := []postgresengine.Option{postgresengine.WithContextualLogger(instr.ContextualLogger)}

	if cfg.BookTable != "" {
		options = append(options, postgresengine.WithBookTableName(cfg.BookTable))
	}

	if cfg.LoanTable != "" {
		options = append(options, postgresengine.WithLoanTableName(cfg.LoanTable))
	}

	if instr.Metrics != nil {
		options = append(options, postgresengine.WithMetrics(instr.Metrics))
	}

	if instr.Tracing != nil {
		options = append(options, postgresengine.WithTracing(instr.Tracing))
	}

	return options
}

// openEngine connects with the configured adapter. The sql adapter has no replica support.
func (a *application) openEngine(
	ctx context.Context,
	cfg config.PostgresConfig,
	options ...postgresengine.Option,
) (*postgresengine.Engine, error) {

	a.logger.Info("connecting to postgres", "adapter", cfg.Adapter, "replica", cfg.ReplicaDSN != "")

	switch cfg.Adapter {
	case config.AdapterSQL:
		db, err := config.PostgresSQLDB(ctx, cfg.DSN, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		a.closers = append(a.closers, db.Close)

		return postgresengine.NewEngineFromSQLDB(db, options...)

	case config.AdapterSQLX:
		db, err := config.PostgresSQLX(ctx, cfg.DSN, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		a.closers = append(a.closers, db.Close)

		if cfg.ReplicaDSN == "" {
			return postgresengine.NewEngineFromSQLX(db, options...)
		}

		replica, err := config.PostgresSQLX(ctx, cfg.ReplicaDSN, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to replica database: %w", err)
		}

		a.closers = append(a.closers, replica.Close)

		return postgresengine.NewEngineFromSQLXAndReplica(db, replica, options...)

	default:
		pool, err := a.openPGXPool(ctx, cfg.DSN, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if cfg.ReplicaDSN == "" {
			return postgresengine.NewEngineFromPGXPool(pool, options...)
		}

		replica, err := a.openPGXPool(ctx, cfg.ReplicaDSN, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to replica database: %w", err)
		}

		return postgresengine.NewEngineFromPGXPoolAndReplica(pool, replica, options...)
	}
}

func (a *application) openPGXPool(ctx context.Context, dsn string, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolConfig, err := config.PostgresPGXPoolConfig(dsn, cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	a.closers = append(a.closers, func() error {
		pool.Close()
		return nil
	})

	return pool, nil
}

// bookStore puts the Redis cache in front of the engine's book store when enabled.
func (a *application) bookStore(
	engine *postgresengine.Engine,
	cfg config.RedisConfig,
	instr instrumentation,
) (lending.BookStore, error) {

	if !cfg.Enabled {
		return engine.Books(), nil
	}

	client := rediscache.NewRedisClient(cfg.Address, cfg.Password, cfg.DB)
	a.closers = append(a.closers, client.Close)

	if err := client.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Address, err)
	}

	options := []rediscache.Option{rediscache.WithContextualLogger(instr.ContextualLogger)}

	if cfg.TTL > 0 {
		options = append(options, rediscache.WithTTL(cfg.TTL))
	}

	if instr.Metrics != nil {
		options = append(options, rediscache.WithMetrics(instr.Metrics))
	}

	return rediscache.NewBookStore(engine.Books(), client, options...)
}

func newNotifier(cfg config.SMTPConfig, instr instrumentation) (*mailnotifier.Notifier, error) {
	smtpOptions := []mailnotifier.SMTPOption{mailnotifier.WithPort(cfg.Port)}

	if cfg.Username != "" {
		smtpOptions = append(smtpOptions, mailnotifier.WithCredentials(cfg.Username, cfg.Password))
	}

	if cfg.TLS {
		smtpOptions = append(smtpOptions, mailnotifier.WithRequiredTLS())
	}

	sender, err := mailnotifier.NewSMTPSender(cfg.Host, smtpOptions...)
	if err != nil {
		return nil, err
	}

	options := []mailnotifier.Option{
		mailnotifier.WithContextualLogger(instr.ContextualLogger),
		mailnotifier.WithMaxAttempts(cfg.MaxAttempts),
		mailnotifier.WithBaseDelay(cfg.BaseDelay),
	}

	if cfg.Subject != "" {
		options = append(options, mailnotifier.WithSubject(cfg.Subject))
	}

	if instr.Metrics != nil {
		options = append(options, mailnotifier.WithMetrics(instr.Metrics))
	}

	return mailnotifier.New(sender, cfg.Sender, options...)
}

func (a *application) buildServices(
	bookStore lending.BookStore,
	loanStore lending.LoanStore,
	notifier lending.Notifier,
	cfg config.OverdueConfig,
	instr instrumentation,
) error {

	bookCore, err := service.NewBookService(bookStore)
	if err != nil {
		return err
	}

	loanCore, err := service.NewLoanService(
		loanStore,
		notifier,
		service.WithOverdueThreshold(cfg.ThresholdDays),
		service.WithOverdueMessage(cfg.Message),
	)
	if err != nil {
		return err
	}

	wrapperOptions := []observable.Option{observable.WithContextualLogging(instr.ContextualLogger)}

	if instr.Metrics != nil {
		wrapperOptions = append(wrapperOptions, observable.WithMetrics(instr.Metrics))
	}

	if instr.Tracing != nil {
		wrapperOptions = append(wrapperOptions, observable.WithTracing(instr.Tracing))
	}

	if a.books, err = observable.NewBookServiceWrapper(bookCore, wrapperOptions...); err != nil {
		return err
	}

	a.loans, err = observable.NewLoanServiceWrapper(loanCore, wrapperOptions...)

	return err
}

// close releases resources in reverse order of acquisition.
func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to release resource", "error", err.Error())
		}
	}

	a.closers = nil
}
