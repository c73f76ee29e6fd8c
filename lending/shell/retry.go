package shell

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	defaultMaxAttempts  = 3
	defaultBaseDelay    = time.Second
	defaultJitterFactor = 0.3

	errorTypeNone             = "none"
	errorTypeCanceled         = "context_canceled"
	errorTypeDeadlineExceeded = "context_deadline_exceeded"
	errorTypeBusinessRule     = "business_rule"
	errorTypeOther            = "other"

	labelFinalErrorType = "final_error_type"
)

var (
	// ErrNilMetricsCollector is returned when a nil metrics collector is provided to WithRetryMetrics.
	ErrNilMetricsCollector = errors.New("metrics collector must not be nil")

	// ErrEmptyOperation is returned when an empty operation name is provided to WithRetryMetrics.
	ErrEmptyOperation = errors.New("operation must not be empty")

	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeBaseDelay is returned when the base delay is negative.
	ErrNegativeBaseDelay = errors.New("base delay must not be negative")

	// ErrInvalidJitterFactor is returned when the jitter factor is not between 0.0 and 1.0.
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")

	// ErrNilRetryablePredicate is returned when a nil predicate is provided to WithRetryable.
	ErrNilRetryablePredicate = errors.New("retryable predicate must not be nil")
)

// RetryableFunc represents a function that can be retried.
type RetryableFunc func(ctx context.Context) error

// RetryMetadata describes how a retried call went.
type RetryMetadata struct {
	Attempts      int
	TotalDelay    time.Duration
	LastErrorType string
	Exhausted     bool
}

// retryConfig holds configuration for exponential backoff retry logic.
type retryConfig struct {
	maxAttempts      int
	baseDelay        time.Duration
	jitterFactor     float64
	isRetryable      func(err error) bool
	metricsCollector MetricsCollector
	operation        string
	instrumentation  Instrumentation
}

// RetryWithExponentialBackoff executes fn and retries it with exponential backoff
// while it fails with a retryable error, up to maxAttempts times.
//
// Retry Schedule (default): 0 s, 1 s, 2 s (with 30% jitter)
// Use Case: transient failures of external collaborators like an SMTP server
//
// By default every error is retryable except context cancellation, deadlines,
// business errors and invalid arguments.
func RetryWithExponentialBackoff(
	ctx context.Context,
	fn RetryableFunc,
	options ...RetryOption,
) (RetryMetadata, error) {

	config := &retryConfig{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
		isRetryable:  IsRetryableByDefault,
	}

	for _, option := range options {
		if err := option(config); err != nil {
			return RetryMetadata{}, err
		}
	}

	meta := RetryMetadata{LastErrorType: errorTypeNone}

	var lastErr error

	for attempt := 0; attempt < config.maxAttempts; attempt++ {
		if attempt > 0 {
			// Exponential backoff: baseDelay * 2^(attempt-1)
			delay := config.baseDelay * time.Duration(1<<(attempt-1))

			jitter := rand.Float64() * float64(delay) * config.jitterFactor //nolint:gosec //math/rand is sufficient for jitter
			backoffDelay := delay + time.Duration(jitter)

			recordRetryDelayMetric(ctx, config, attempt, backoffDelay)
			LogWarn(
				ctx,
				config.instrumentation,
				LogMsgRetrying,
				LogAttrOperation, config.operation,
				LogAttrAttempt, attempt,
				LogAttrDelayMS, ToMilliseconds(backoffDelay),
				LogAttrError, lastErr.Error(),
			)

			select {
			case <-time.After(backoffDelay):
				meta.TotalDelay += backoffDelay
			case <-ctx.Done():
				meta.LastErrorType = getErrorType(ctx.Err())
				return meta, ctx.Err()
			}
		}

		meta.Attempts++

		lastErr = fn(ctx)
		meta.LastErrorType = getErrorType(lastErr)

		if lastErr == nil {
			return meta, nil
		}

		if !config.isRetryable(lastErr) {
			return meta, lastErr
		}

		recordRetryAttemptMetric(ctx, attempt, config, lastErr)
	}

	meta.Exhausted = true
	recordMaxRetriesReachedMetric(ctx, config, lastErr)

	return meta, lastErr
}

// IsRetryableByDefault reports whether err is worth another attempt.
// Timeouts are not retried, retrying them during overload creates cascade failures.
func IsRetryableByDefault(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case lending.IsBusinessError(err), errors.Is(err, lending.ErrInvalidArgument):
		return false
	default:
		return true
	}
}

func recordRetryDelayMetric(ctx context.Context, config *retryConfig, attempt int, backoffDelay time.Duration) {
	if config.metricsCollector == nil {
		return
	}

	recordDuration(ctx, config.metricsCollector, RetryDelayMetric, backoffDelay, map[string]string{
		LogAttrOperation: config.operation,
		LogAttrAttempt:   formatAttempt(attempt),
	})
}

// recordRetryAttemptMetric only counts failures that will actually be retried.
func recordRetryAttemptMetric(ctx context.Context, attempt int, config *retryConfig, lastErr error) {
	if attempt >= config.maxAttempts-1 || config.metricsCollector == nil {
		return
	}

	incrementCounter(ctx, config.metricsCollector, RetryAttemptsMetric, map[string]string{
		LogAttrOperation: config.operation,
		LogAttrAttempt:   formatAttempt(attempt + 1),
		LogAttrErrorType: getErrorType(lastErr),
	})
}

func recordMaxRetriesReachedMetric(ctx context.Context, config *retryConfig, lastErr error) {
	if config.metricsCollector == nil {
		return
	}

	incrementCounter(ctx, config.metricsCollector, RetryMaxRetriesReachedMetric, map[string]string{
		LogAttrOperation:    config.operation,
		labelFinalErrorType: getErrorType(lastErr),
	})
}

// getErrorType extracts a string representation of the error type for metrics labeling.
func getErrorType(err error) string {
	switch {
	case err == nil:
		return errorTypeNone
	case errors.Is(err, context.Canceled):
		return errorTypeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return errorTypeDeadlineExceeded
	case lending.IsBusinessError(err):
		return errorTypeBusinessRule
	default:
		return errorTypeOther
	}
}

// RetryOption configures retry behavior using the functional options pattern.
type RetryOption func(*retryConfig) error

// WithMaxAttempts sets the maximum number of attempts, the first one included.
func WithMaxAttempts(attempts int) RetryOption {
	return func(config *retryConfig) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}

		config.maxAttempts = attempts

		return nil
	}
}

// WithBaseDelay sets the base delay for exponential backoff.
// Actual delays: baseDelay, baseDelay*2, baseDelay*4, baseDelay*8, etc.
func WithBaseDelay(delay time.Duration) RetryOption {
	return func(config *retryConfig) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}

		config.baseDelay = delay

		return nil
	}
}

// WithJitterFactor sets the jitter factor to prevent thundering herd problems.
// Valid range: 0.0 (no jitter) to 1.0 (100% jitter).
func WithJitterFactor(factor float64) RetryOption {
	return func(config *retryConfig) error {
		if factor < 0.0 || factor > 1.0 {
			return ErrInvalidJitterFactor
		}

		config.jitterFactor = factor

		return nil
	}
}

// WithRetryable replaces the predicate that decides whether an error is retried.
func WithRetryable(isRetryable func(err error) bool) RetryOption {
	return func(config *retryConfig) error {
		if isRetryable == nil {
			return ErrNilRetryablePredicate
		}

		config.isRetryable = isRetryable

		return nil
	}
}

// WithRetryMetrics sets the metrics collector for retry instrumentation.
// Requires the operation name to label metrics.
func WithRetryMetrics(collector MetricsCollector, operation string) RetryOption {
	return func(config *retryConfig) error {
		if collector == nil {
			return ErrNilMetricsCollector
		}

		if operation == "" {
			return ErrEmptyOperation
		}

		config.metricsCollector = collector
		config.operation = operation

		return nil
	}
}

// WithRetryLogging logs every retry at warn level.
func WithRetryLogging(logger Logger, contextualLogger ContextualLogger) RetryOption {
	return func(config *retryConfig) error {
		config.instrumentation.Logger = logger
		config.instrumentation.ContextualLogger = contextualLogger

		return nil
	}
}
