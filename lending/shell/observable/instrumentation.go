package observable

import (
	"context"
	"errors"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending/shell"
)

// ErrNilService is returned when a wrapper is created without a service to wrap.
var ErrNilService = errors.New("wrapped service must not be nil")

// instrumentation holds the optional collaborators shared by all wrappers.
type instrumentation struct {
	service string
	shell.Instrumentation
}

// Option defines a functional option for configuring a service wrapper.
type Option func(*instrumentation) error

// WithMetrics sets the metrics collector.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(i *instrumentation) error {
		i.Metrics = collector
		return nil
	}
}

// WithTracing sets the tracing collector.
func WithTracing(collector shell.TracingCollector) Option {
	return func(i *instrumentation) error {
		i.Tracing = collector
		return nil
	}
}

// WithContextualLogging sets the contextual logger, it takes precedence over the basic logger.
func WithContextualLogging(logger shell.ContextualLogger) Option {
	return func(i *instrumentation) error {
		i.ContextualLogger = logger
		return nil
	}
}

// WithLogging sets the basic logger.
func WithLogging(logger shell.Logger) Option {
	return func(i *instrumentation) error {
		i.Logger = logger
		return nil
	}
}

func newInstrumentation(service string, opts []Option) (instrumentation, error) {
	i := instrumentation{service: service}

	for _, opt := range opts {
		if err := opt(&i); err != nil {
			return instrumentation{}, err
		}
	}

	return i, nil
}

// run executes fn as one instrumented operation. fn may add span attributes to attrs.
func (i instrumentation) run(
	ctx context.Context,
	operation string,
	fn func(ctx context.Context, attrs map[string]string) error,
) error {

	start := time.Now()
	ctx, span := shell.StartOperationSpan(ctx, i.Tracing, i.service, operation)
	shell.LogOperationStart(ctx, i.Instrumentation, i.service, operation)

	attrs := make(map[string]string)
	err := fn(ctx, attrs)

	duration := time.Since(start)
	status := shell.StatusFromError(err)

	shell.RecordOperationMetrics(ctx, i.Metrics, i.service, operation, status, duration)
	shell.FinishOperationSpan(i.Tracing, span, status, duration, err, attrs)
	shell.LogOperationOutcome(ctx, i.Instrumentation, i.service, operation, status, duration, err)

	return err
}
