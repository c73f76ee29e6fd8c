// Package service contains the domain services for books and loans.
//
// The services hold the business rules only: ISBN uniqueness, the one-active-loan-per-book
// rule, identity preconditions for updates and deletes, and the overdue notification workflow.
// They neither log nor measure; wrap them with lending/shell/observable for that.
//
// Persistence and delivery are delegated to the lending.BookStore, lending.LoanStore and
// lending.Notifier contracts.
package service
