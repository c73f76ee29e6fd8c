// Package observable provides wrappers that instrument the lending domain services
// with metrics, tracing and logging while keeping the business logic pure.
//
// The wrappers are applied externally at wiring time:
//
//	// 1. Create the pure domain service
//	coreService, err := service.NewLoanService(loanStore, notifier)
//
//	// 2. Wrap it with observability (external, explicit)
//	loans, err := observable.NewLoanServiceWrapper(
//		coreService,
//		observable.WithMetrics(metricsCollector),
//		observable.WithTracing(tracingCollector),
//		observable.WithContextualLogging(contextualLogger),
//	)
//
//	// 3. Use the wrapped service
//	report, err := loans.NotifyOverdueLoans(ctx)
//
// Every operation records service_operation_duration_seconds and service_operation_calls_total
// labeled by service, operation and status. Business rejections are counted in
// service_business_rejections_total as well. Errors are returned unchanged.
package observable
