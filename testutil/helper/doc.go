// Package helper provides observability spies for tests: a metrics collector, a tracing collector,
// a contextual logger, and a slog.Handler that capture every call for inspection.
package helper
