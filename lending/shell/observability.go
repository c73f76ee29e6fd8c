package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	// ServiceOperationDurationMetric tracks domain service operation duration (OpenTelemetry-compatible).
	ServiceOperationDurationMetric = "service_operation_duration_seconds"

	// ServiceOperationCallsMetric tracks total domain service calls.
	ServiceOperationCallsMetric = "service_operation_calls_total"

	// ServiceBusinessRejectionsMetric tracks requests rejected by a business rule,
	// e.g. a duplicate ISBN or a book that is already loaned.
	ServiceBusinessRejectionsMetric = "service_business_rejections_total"

	// OverdueNotifiedRecipientsMetric records how many customers one overdue scan notified.
	OverdueNotifiedRecipientsMetric = "overdue_scan_notified_recipients"

	// RetryAttemptsMetric tracks retry attempts.
	//
	// Labels:
	//   - operation: the retried operation (e.g., "mail_send")
	//   - attempt_number: which retry attempt (1, 2, 3)
	//   - error_type: category of the error causing the retry
	RetryAttemptsMetric = "retry_attempts_total"

	// RetryDelayMetric tracks the backoff delay before each retry attempt.
	RetryDelayMetric = "retry_delay_seconds"

	// RetryMaxRetriesReachedMetric tracks when retries are exhausted.
	RetryMaxRetriesReachedMetric = "retry_max_retries_reached_total"

	// StatusSuccess indicates successful completion.
	StatusSuccess = "success"

	// StatusError indicates a technical failure.
	StatusError = "error"

	// StatusRejected indicates a business rule rejected the request.
	StatusRejected = "rejected"

	// StatusInvalidArgument indicates caller misuse.
	StatusInvalidArgument = "invalid_argument"

	// StatusCanceled indicates the operation was canceled due to context cancellation.
	StatusCanceled = "canceled"

	// StatusTimeout indicates the operation timed out due to context deadline exceeded.
	StatusTimeout = "timeout"

	LogMsgOperationStarted   = "service operation started"
	LogMsgOperationCompleted = "service operation completed"
	LogMsgOperationRejected  = "service operation rejected"
	LogMsgOperationFailed    = "service operation failed"
	LogMsgOverdueScanDone    = "overdue scan completed"
	LogMsgRetrying           = "retrying after failure"

	LogAttrService    = "service"
	LogAttrOperation  = "operation"
	LogAttrStatus     = "status"
	LogAttrDurationMS = "duration_ms"
	LogAttrError      = "error"
	LogAttrErrorType  = "error_type"
	LogAttrRunID      = "run_id"
	LogAttrThreshold  = "threshold"
	LogAttrLoans      = "overdue_loans"
	LogAttrRecipients = "recipients"
	LogAttrAttempt    = "attempt_number"
	LogAttrDelayMS    = "delay_ms"

	// SpanNamePrefix is prepended to "<service>.<operation>" to form span names.
	SpanNamePrefix = "lending."
)

// Interface aliases for convenience, identical to the lending observability interfaces.

type MetricsCollector = lending.MetricsCollector

type ContextualMetricsCollector = lending.ContextualMetricsCollector

type TracingCollector = lending.TracingCollector

type SpanContext = lending.SpanContext

type ContextualLogger = lending.ContextualLogger

type Logger = lending.Logger

// Instrumentation bundles the optional observability collaborators of one component.
// Every field may be nil.
type Instrumentation struct {
	Metrics          MetricsCollector
	Tracing          TracingCollector
	Logger           Logger
	ContextualLogger ContextualLogger
}

// StatusFromError classifies the outcome of an operation for metrics, spans and logs.
func StatusFromError(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case lending.IsBusinessError(err):
		return StatusRejected
	case errors.Is(err, lending.ErrInvalidArgument):
		return StatusInvalidArgument
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	default:
		return StatusError
	}
}

// BuildOperationLabels creates the standard metric labels for a service operation.
func BuildOperationLabels(service, operation, status string) map[string]string {
	return map[string]string{
		LogAttrService:   service,
		LogAttrOperation: operation,
		LogAttrStatus:    status,
	}
}

// ToMilliseconds converts a time.Duration to float64 milliseconds with precision.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// SpanName returns the span name of a service operation.
func SpanName(service, operation string) string {
	return SpanNamePrefix + service + "." + operation
}

// RecordOperationMetrics records duration and call count of a service operation,
// and counts business rejections separately.
func RecordOperationMetrics(
	ctx context.Context,
	collector MetricsCollector,
	service string,
	operation string,
	status string,
	duration time.Duration,
) {
	if collector == nil {
		return
	}

	labels := BuildOperationLabels(service, operation, status)
	recordDuration(ctx, collector, ServiceOperationDurationMetric, duration, labels)
	incrementCounter(ctx, collector, ServiceOperationCallsMetric, labels)

	if status == StatusRejected {
		incrementCounter(ctx, collector, ServiceBusinessRejectionsMetric, BuildOperationLabels(service, operation, status))
	}
}

// RecordNotifiedRecipients records the recipient count of one overdue scan.
func RecordNotifiedRecipients(ctx context.Context, collector MetricsCollector, recipients int) {
	if collector == nil {
		return
	}

	recordValue(ctx, collector, OverdueNotifiedRecipientsMetric, float64(recipients), map[string]string{})
}

// StartOperationSpan starts a tracing span for a service operation.
// Returns the original context and nil if tracing is disabled.
func StartOperationSpan(
	ctx context.Context,
	tracingCollector TracingCollector,
	service string,
	operation string,
) (context.Context, SpanContext) {

	if tracingCollector == nil {
		return ctx, nil
	}

	return tracingCollector.StartSpan(ctx, SpanName(service, operation), map[string]string{
		LogAttrService:   service,
		LogAttrOperation: operation,
	})
}

// FinishOperationSpan completes a tracing span with the operation outcome.
func FinishOperationSpan(
	tracingCollector TracingCollector,
	span SpanContext,
	status string,
	duration time.Duration,
	err error,
	extraAttrs map[string]string,
) {

	if tracingCollector == nil || span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: formatDurationMS(duration),
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
	}

	for key, value := range extraAttrs {
		attrs[key] = value
	}

	tracingCollector.FinishSpan(span, status, attrs)
}

// LogOperationStart logs the beginning of a service operation at debug level.
func LogOperationStart(ctx context.Context, instr Instrumentation, service, operation string) {
	logDebug(ctx, instr, LogMsgOperationStarted, LogAttrService, service, LogAttrOperation, operation)
}

// LogOperationOutcome logs the end of a service operation.
// Success is logged at info, rejections and invalid arguments at warn, everything else at error.
func LogOperationOutcome(
	ctx context.Context,
	instr Instrumentation,
	service string,
	operation string,
	status string,
	duration time.Duration,
	err error,
) {

	args := []any{
		LogAttrService, service,
		LogAttrOperation, operation,
		LogAttrStatus, status,
		LogAttrDurationMS, ToMilliseconds(duration),
	}

	if err != nil {
		args = append(args, LogAttrError, err.Error())
	}

	switch status {
	case StatusSuccess:
		logInfo(ctx, instr, LogMsgOperationCompleted, args...)
	case StatusRejected, StatusInvalidArgument:
		logWarn(ctx, instr, LogMsgOperationRejected, args...)
	default:
		logError(ctx, instr, LogMsgOperationFailed, args...)
	}
}

// LogInfo logs at info level on the contextual logger if set, otherwise on the plain logger.
func LogInfo(ctx context.Context, instr Instrumentation, msg string, args ...any) {
	logInfo(ctx, instr, msg, args...)
}

// LogWarn logs at warn level on the contextual logger if set, otherwise on the plain logger.
func LogWarn(ctx context.Context, instr Instrumentation, msg string, args ...any) {
	logWarn(ctx, instr, msg, args...)
}

// LogError logs at error level on the contextual logger if set, otherwise on the plain logger.
func LogError(ctx context.Context, instr Instrumentation, msg string, args ...any) {
	logError(ctx, instr, msg, args...)
}

// IncrementCounter increments a counter, preferring the context-aware method. A nil collector is ignored.
func IncrementCounter(ctx context.Context, collector MetricsCollector, metric string, labels map[string]string) {
	if collector == nil {
		return
	}

	incrementCounter(ctx, collector, metric, labels)
}

func logDebug(ctx context.Context, instr Instrumentation, msg string, args ...any) {
	if instr.ContextualLogger != nil {
		instr.ContextualLogger.DebugContext(ctx, msg, args...)
	} else if instr.Logger != nil {
		instr.Logger.Debug(msg, args...)
	}
}

func logInfo(ctx context.Context, instr Instrumentation, msg string, args ...any) {
	if instr.ContextualLogger != nil {
		instr.ContextualLogger.InfoContext(ctx, msg, args...)
	} else if instr.Logger != nil {
		instr.Logger.Info(msg, args...)
	}
}

func logWarn(ctx context.Context, instr Instrumentation, msg string, args ...any) {
	if instr.ContextualLogger != nil {
		instr.ContextualLogger.WarnContext(ctx, msg, args...)
	} else if instr.Logger != nil {
		instr.Logger.Warn(msg, args...)
	}
}

func logError(ctx context.Context, instr Instrumentation, msg string, args ...any) {
	if instr.ContextualLogger != nil {
		instr.ContextualLogger.ErrorContext(ctx, msg, args...)
	} else if instr.Logger != nil {
		instr.Logger.Error(msg, args...)
	}
}

func recordDuration(
	ctx context.Context,
	collector MetricsCollector,
	metric string,
	duration time.Duration,
	labels map[string]string,
) {

	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
	} else {
		collector.RecordDuration(metric, duration, labels)
	}
}

func incrementCounter(ctx context.Context, collector MetricsCollector, metric string, labels map[string]string) {
	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
	} else {
		collector.IncrementCounter(metric, labels)
	}
}

func recordValue(ctx context.Context, collector MetricsCollector, metric string, value float64, labels map[string]string) {
	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metric, value, labels)
	} else {
		collector.RecordValue(metric, value, labels)
	}
}

// formatDurationMS formats duration in milliseconds for span attributes.
func formatDurationMS(duration time.Duration) string {
	return fmt.Sprintf("%.2f", ToMilliseconds(duration))
}

func formatAttempt(attempt int) string {
	return strconv.Itoa(attempt)
}
