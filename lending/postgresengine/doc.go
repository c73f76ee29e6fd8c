// Package postgresengine provides PostgreSQL implementations of lending.BookStore and lending.LoanStore.
//
// Queries are built with goqu and run through one of the supported connection types:
// pgxpool.Pool (optionally with a read replica), database/sql with lib/pq, or sqlx.
//
// Reads honour the consistency level carried by the context (see lending.WithEventualConsistency):
// strongly consistent reads always hit the primary, eventually consistent ones may use a replica.
//
// The schema created by Engine.Migrate backs the domain rules with constraints: a UNIQUE isbn and
// a partial unique index allowing one unreturned loan per book. A unique violation caused by a
// concurrent writer is reported as lending.ErrDuplicateIsbn or lending.ErrBookAlreadyLoaned.
package postgresengine
