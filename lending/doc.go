// Package lending contains the domain model and the collaborator contracts
// for the example: Book catalog and loans of a public library.
//
// It defines the Book and Loan records, the business errors raised when a
// uniqueness or lending-exclusivity rule is violated, and the narrow store and
// notifier interfaces the domain services depend on.
//
// Concrete stores (PostgreSQL, Redis cache) and notifiers (SMTP) live in
// sub-packages and only depend on this package, never on each other.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'domain' layer plus its 'ports'.
package lending
