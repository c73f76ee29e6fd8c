// Package shell holds the imperative shell helpers shared by the lending infrastructure:
// metric, log and span names, helpers that record them on the dependency-free observability
// interfaces, and retry with exponential backoff for flaky collaborators like the mail server.
//
// The domain services in lending/service never use this package. Instrumentation is added from
// the outside by the wrappers in lending/shell/observable.
package shell
