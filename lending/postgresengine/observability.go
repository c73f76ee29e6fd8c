package postgresengine

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	// MetricStoreDuration tracks store operation duration in seconds, labeled by operation and status.
	MetricStoreDuration = "postgres_store_duration_seconds"

	// MetricStoreErrors counts failed store operations, labeled by operation and error_type.
	MetricStoreErrors = "postgres_store_errors_total"

	statusSuccess  = "success"
	statusError    = "error"
	statusRejected = "rejected"

	spanNamePrefix     = "postgres."
	spanAttrOperation  = "operation"
	spanAttrStatus     = "status"
	spanAttrErrorType  = "error_type"
	spanAttrRows       = "rows"
	spanAttrDBSystem   = "db.system"
	spanAttrDBSystemPG = "postgresql"

	errorTypeBusinessRule = "business_rule"
	errorTypeBuildQuery   = "build_query"
	errorTypeQuery        = "query"
	errorTypeScan         = "scan"
	errorTypeWrite        = "write"
	errorTypeNotFound     = "not_found"
	errorTypeCanceled     = "canceled"
	errorTypeTimeout      = "timeout"
	errorTypeOther        = "other"

	logMsgSQLExecuted      = "executed sql for: "
	logMsgOperation        = "lending store operation: "
	logMsgOperationFailed  = "lending store operation failed: "
	logMsgCloseRowsFailed  = "failed to close database rows"
	logMsgMigrationApplied = "schema statement applied"
	logAttrError           = "error"
	logAttrQuery           = "query"
	logAttrDurationMS      = "duration_ms"
	logAttrRows            = "rows"
	logAttrStatus          = "status"
	logAttrErrorType       = "error_type"
)

// observation collects what an operation reports once it finishes.
type observation struct {
	rows int
}

// observe runs fn as one store operation: a span, a duration metric, an error metric on failure,
// and one log record. Business rejections are logged at info and do not count as store errors.
func (e *Engine) observe(
	ctx context.Context,
	operation string,
	fn func(ctx context.Context, o *observation) error,
) error {

	ctx, span := e.startSpan(ctx, operation)
	o := &observation{}

	start := time.Now()
	err := fn(ctx, o)
	duration := time.Since(start)

	status := statusSuccess
	errorType := ""

	switch {
	case err == nil:
	case lending.IsBusinessError(err):
		status = statusRejected
		errorType = errorTypeBusinessRule
	default:
		status = statusError
		errorType = classifyError(err)
		e.recordErrorMetric(ctx, operation, errorType)
	}

	e.recordDurationMetric(ctx, operation, status, duration)
	e.finishSpan(span, status, errorType, o.rows)

	switch status {
	case statusError:
		e.logError(
			ctx,
			logMsgOperationFailed+operation,
			err,
			logAttrErrorType, errorType,
			logAttrDurationMS, toMilliseconds(duration),
		)
	default:
		e.logOperation(
			ctx,
			operation,
			logAttrStatus, status,
			logAttrRows, o.rows,
			logAttrDurationMS, toMilliseconds(duration),
		)
	}

	return err
}

func classifyError(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return errorTypeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return errorTypeTimeout
	case errors.Is(err, ErrRecordNotFound):
		return errorTypeNotFound
	case errors.Is(err, ErrBuildingQueryFailed):
		return errorTypeBuildQuery
	case errors.Is(err, ErrScanningDBRowFailed):
		return errorTypeScan
	case errors.Is(err, ErrSavingFailed), errors.Is(err, ErrDeletingFailed):
		return errorTypeWrite
	case errors.Is(err, ErrQueryingFailed):
		return errorTypeQuery
	default:
		return errorTypeOther
	}
}

func (e *Engine) recordDurationMetric(ctx context.Context, operation, status string, duration time.Duration) {
	if e.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		spanAttrStatus:    status,
	}

	if contextualCollector, ok := e.metricsCollector.(lending.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, MetricStoreDuration, duration, labels)
	} else {
		e.metricsCollector.RecordDuration(MetricStoreDuration, duration, labels)
	}
}

func (e *Engine) recordErrorMetric(ctx context.Context, operation, errorType string) {
	if e.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		spanAttrErrorType: errorType,
	}

	if contextualCollector, ok := e.metricsCollector.(lending.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, MetricStoreErrors, labels)
	} else {
		e.metricsCollector.IncrementCounter(MetricStoreErrors, labels)
	}
}

func (e *Engine) startSpan(ctx context.Context, operation string) (context.Context, lending.SpanContext) {
	if e.tracingCollector == nil {
		return ctx, nil
	}

	return e.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, map[string]string{
		spanAttrOperation: operation,
		spanAttrDBSystem:  spanAttrDBSystemPG,
	})
}

func (e *Engine) finishSpan(span lending.SpanContext, status, errorType string, rows int) {
	if e.tracingCollector == nil || span == nil {
		return
	}

	attrs := map[string]string{
		spanAttrRows: strconv.Itoa(rows),
	}

	if errorType != "" {
		attrs[spanAttrErrorType] = errorType
	}

	e.tracingCollector.FinishSpan(span, status, attrs)
}

// logQueryWithDuration logs SQL statements with execution time at debug level if a logger is configured.
func (e *Engine) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	args := []any{logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery}

	switch {
	case e.contextualLogger != nil:
		e.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, args...)
	case e.logger != nil:
		e.logger.Debug(logMsgSQLExecuted+action, args...)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (e *Engine) logOperation(ctx context.Context, action string, args ...any) {
	switch {
	case e.contextualLogger != nil:
		e.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	case e.logger != nil:
		e.logger.Info(logMsgOperation+action, args...)
	}
}

// logWarn logs non-critical issues if a logger is configured.
func (e *Engine) logWarn(ctx context.Context, message string, err error) {
	switch {
	case e.contextualLogger != nil:
		e.contextualLogger.WarnContext(ctx, message, logAttrError, err.Error())
	case e.logger != nil:
		e.logger.Warn(message, logAttrError, err.Error())
	}
}

// logError logs error information at the error level if a logger is configured.
func (e *Engine) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	switch {
	case e.contextualLogger != nil:
		e.contextualLogger.ErrorContext(ctx, message, allArgs...)
	case e.logger != nil:
		e.logger.Error(message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
