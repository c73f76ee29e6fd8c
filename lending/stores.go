package lending

import (
	"context"
	"time"
)

// BookStore is the persistence capability for Book records.
// Lookups report absence with found == false, never with an error.
type BookStore interface {
	ExistsByIsbn(ctx context.Context, isbn string) (bool, error)

	// Save inserts a book without ID (assigning one) or updates the book with the given ID.
	Save(ctx context.Context, book Book) (Book, error)

	FindByID(ctx context.Context, id BookID) (Book, bool, error)
	FindByIsbn(ctx context.Context, isbn string) (Book, bool, error)
	Delete(ctx context.Context, book Book) error

	// FindMatching matches all non-empty fields of filter; empty fields are wildcards.
	FindMatching(ctx context.Context, filter Book, pageRequest PageRequest) (Page[Book], error)
}

// LoanStore is the persistence capability for Loan records.
// Lookups report absence with found == false, never with an error.
type LoanStore interface {
	ExistsByBookAndNotReturned(ctx context.Context, book Book) (bool, error)

	// Save inserts a loan without ID (assigning one) or updates the loan with the given ID.
	Save(ctx context.Context, loan Loan) (Loan, error)

	FindByID(ctx context.Context, id LoanID) (Loan, bool, error)
	FindByBookIsbnOrCustomer(ctx context.Context, isbn string, customer string, pageRequest PageRequest) (Page[Loan], error)
	FindByBook(ctx context.Context, book Book, pageRequest PageRequest) (Page[Loan], error)

	// FindOverdue returns all loans with a loan date before threshold that are not returned.
	FindOverdue(ctx context.Context, threshold time.Time) ([]Loan, error)
}

// Notifier delivers a message to a set of recipient addresses.
// Retries and partial delivery are the Notifier's own concern.
type Notifier interface {
	Send(ctx context.Context, message string, recipients []string) error
}
