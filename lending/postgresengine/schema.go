package postgresengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const opMigrate = "migrate"

// schemaStatements returns the idempotent DDL for the configured table names.
func (q queryBuilder) schemaStatements() []sqlQueryString {
	books := pq.QuoteIdentifier(q.bookTable)
	loans := pq.QuoteIdentifier(q.loanTable)
	activeLoanIndex := pq.QuoteIdentifier(q.loanTable + "_one_active_loan_per_book")
	customerIndex := pq.QuoteIdentifier(q.loanTable + "_customer_idx")
	overdueIndex := pq.QuoteIdentifier(q.loanTable + "_overdue_idx")

	return []sqlQueryString{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	isbn TEXT NOT NULL UNIQUE
)`, books),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	book_id BIGINT NOT NULL REFERENCES %s (id),
	customer TEXT NOT NULL,
	customer_email TEXT NOT NULL,
	loan_date DATE NOT NULL DEFAULT CURRENT_DATE,
	returned BOOLEAN
)`, loans, books),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (book_id) WHERE returned IS NOT TRUE`, activeLoanIndex, loans),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (customer)`, customerIndex, loans),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (loan_date) WHERE returned IS NOT TRUE`, overdueIndex, loans),
	}
}

// Migrate creates the tables and indexes if they do not exist yet.
func (e *Engine) Migrate(ctx context.Context) error {
	return e.observe(ctx, opMigrate, func(ctx context.Context, o *observation) error {
		for _, statement := range e.queries.schemaStatements() {
			if _, err := e.exec(ctx, statement); err != nil {
				return errors.Join(ErrMigrationFailed, err)
			}

			o.rows++
			e.logOperation(ctx, logMsgMigrationApplied, logAttrQuery, statement)
		}

		return nil
	})
}
