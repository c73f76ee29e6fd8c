package lending

import (
	"time"
)

// LoanID is the surrogate identifier of a Loan. Zero means "not yet assigned".
type LoanID = int64

// LoanDate is a calendar date, represented as midnight UTC.
type LoanDate = time.Time

// Loan records that a book was lent to a customer.
//
// Returned is tri-state: nil and false both mean the book has not been returned yet.
type Loan struct {
	ID            LoanID
	Book          Book
	Customer      string
	CustomerEmail string
	LoanDate      LoanDate
	Returned      *bool
}

// BuildLoan creates a Loan without identity for the given book, ready to be saved.
func BuildLoan(book Book, customer string, customerEmail string, loanDate time.Time) Loan {
	return Loan{
		Book:          book,
		Customer:      customer,
		CustomerEmail: customerEmail,
		LoanDate:      ToLoanDate(loanDate),
	}
}

// HasID reports whether the store has assigned an identity to the loan.
func (l Loan) HasID() bool {
	return l.ID != 0
}

// IsReturned reports whether the returned flag is set to true.
func (l Loan) IsReturned() bool {
	return l.Returned != nil && *l.Returned
}

// IsActive reports whether the loan still blocks its book, i.e. it was not returned.
func (l Loan) IsActive() bool {
	return !l.IsReturned()
}

// MarkReturned returns a copy of the loan with the returned flag set to true.
func (l Loan) MarkReturned() Loan {
	returned := true
	l.Returned = &returned

	return l
}

// LoanFilter selects loans by the ISBN of their book OR by customer name.
type LoanFilter struct {
	ISBN     string
	Customer string
}

// ToLoanDate keeps the calendar date of t as seen in t's own location, stored as midnight UTC.
func ToLoanDate(t time.Time) LoanDate {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
