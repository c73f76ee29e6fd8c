package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/service"
)

const loansPageSize = 20

// ErrBookNotFound is returned by -isbn when no book has the ISBN.
var ErrBookNotFound = errors.New("book not found")

func (a *application) runScan(ctx context.Context) (service.OverdueReport, error) {
	return a.loans.NotifyOverdueLoans(ctx)
}

// printBook writes the book with isbn and up to loansPageSize of its loans to w.
func (a *application) printBook(ctx context.Context, w io.Writer, isbn string) error {
	book, found, err := a.books.GetByIsbn(ctx, isbn)
	if err != nil {
		return err
	}

	if !found {
		return fmt.Errorf("%w: isbn %q", ErrBookNotFound, isbn)
	}

	loans, err := a.loans.GetLoansByBook(ctx, book, lending.BuildPageRequest(0, loansPageSize))
	if err != nil {
		return err
	}

	return writeBook(w, book, loans)
}

func writeBook(w io.Writer, book lending.Book, loans lending.Page[lending.Loan]) error {
	if _, err := fmt.Fprintf(w, "#%d %s by %s (ISBN %s)\n", book.ID, book.Title, book.Author, book.ISBN); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "loans: %d\n", loans.TotalElements); err != nil {
		return err
	}

	for _, loan := range loans.Content {
		state := "active"
		if loan.IsReturned() {
			state = "returned"
		}

		_, err := fmt.Fprintf(
			w,
			"  #%d %s <%s> since %s, %s\n",
			loan.ID,
			loan.Customer,
			loan.CustomerEmail,
			loan.LoanDate.Format("2006-01-02"),
			state,
		)
		if err != nil {
			return err
		}
	}

	if loans.HasNext() {
		_, err := fmt.Fprintf(w, "  ... %d more\n", loans.TotalElements-int64(len(loans.Content)))
		return err
	}

	return nil
}
