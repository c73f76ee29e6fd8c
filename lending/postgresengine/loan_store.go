package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine/internal/adapters"
)

const (
	opLoanExistsActive     = "loan_exists_active"
	opLoanInsert           = "loan_insert"
	opLoanUpdate           = "loan_update"
	opLoanFindByID         = "loan_find_by_id"
	opLoanFindByIsbnOrCust = "loan_find_by_isbn_or_customer"
	opLoanFindByBook       = "loan_find_by_book"
	opLoanFindOverdue      = "loan_find_overdue"
)

var loanViolations = violationMapping{
	unique:     lending.ErrBookAlreadyLoaned,
	foreignKey: ErrReferencedRecordMissing,
}

// LoanStore implements lending.LoanStore on top of the Engine.
// Loans are read together with their book.
type LoanStore struct {
	engine *Engine
}

var _ lending.LoanStore = LoanStore{}

// ExistsByBookAndNotReturned reports whether the book has a loan whose returned flag is not true.
func (s LoanStore) ExistsByBookAndNotReturned(ctx context.Context, book lending.Book) (bool, error) {
	var exists bool

	err := s.engine.observe(ctx, opLoanExistsActive, func(ctx context.Context, o *observation) error {
		sqlQuery, buildErr := s.engine.queries.existsActiveLoanForBook(book.ID)
		if buildErr != nil {
			return buildErr
		}

		var queryErr error
		exists, queryErr = s.engine.exists(ctx, sqlQuery)
		if exists {
			o.rows = 1
		}

		return queryErr
	})

	return exists, err
}

// Save inserts a loan without ID and returns it with the assigned ID, or updates the loan with the given ID.
// A concurrent second active loan for the same book fails with lending.ErrBookAlreadyLoaned.
func (s LoanStore) Save(ctx context.Context, loan lending.Loan) (lending.Loan, error) {
	operation := opLoanInsert
	build := s.engine.queries.insertLoan

	if loan.HasID() {
		operation = opLoanUpdate
		build = s.engine.queries.updateLoan
	}

	loan.LoanDate = lending.ToLoanDate(loan.LoanDate)

	err := s.engine.observe(ctx, operation, func(ctx context.Context, o *observation) error {
		sqlQuery, buildErr := build(loan)
		if buildErr != nil {
			return buildErr
		}

		ids, writeErr := writeAndCollect(ctx, s.engine, sqlQuery, loanViolations, scanID)
		if writeErr != nil {
			return writeErr
		}

		if len(ids) == 0 {
			return errors.Join(ErrSavingFailed, ErrRecordNotFound)
		}

		loan.ID = ids[0]
		o.rows = 1

		return nil
	})
	if err != nil {
		return lending.Loan{}, err
	}

	return loan, nil
}

// FindByID looks up a loan by ID. Absence is reported with found == false.
func (s LoanStore) FindByID(ctx context.Context, id lending.LoanID) (lending.Loan, bool, error) {
	var loans []lending.Loan

	err := s.engine.observe(ctx, opLoanFindByID, func(ctx context.Context, o *observation) error {
		sqlQuery, buildErr := s.engine.queries.selectLoans(loanByID(id), nil)
		if buildErr != nil {
			return buildErr
		}

		var readErr error
		loans, readErr = readAndCollect(ctx, s.engine, sqlQuery, scanLoan)
		o.rows = len(loans)

		return readErr
	})
	if err != nil || len(loans) == 0 {
		return lending.Loan{}, false, err
	}

	return loans[0], true, nil
}

// FindByBookIsbnOrCustomer returns the loans whose book has the given ISBN OR whose customer matches.
func (s LoanStore) FindByBookIsbnOrCustomer(
	ctx context.Context,
	isbn string,
	customer string,
	pageRequest lending.PageRequest,
) (lending.Page[lending.Loan], error) {

	return s.findPage(ctx, opLoanFindByIsbnOrCust, loansByIsbnOrCustomer(isbn, customer), pageRequest)
}

// FindByBook returns all loans of the book, returned or not.
func (s LoanStore) FindByBook(
	ctx context.Context,
	book lending.Book,
	pageRequest lending.PageRequest,
) (lending.Page[lending.Loan], error) {

	return s.findPage(ctx, opLoanFindByBook, loansByBook(book.ID), pageRequest)
}

func (s LoanStore) findPage(
	ctx context.Context,
	operation string,
	where exp.Expression,
	pageRequest lending.PageRequest,
) (lending.Page[lending.Loan], error) {

	var page lending.Page[lending.Loan]

	err := s.engine.observe(ctx, operation, func(ctx context.Context, o *observation) error {
		selectQuery, buildErr := s.engine.queries.selectLoans(where, &pageRequest)
		if buildErr != nil {
			return buildErr
		}

		countQuery, buildCountErr := s.engine.queries.countLoans(where)
		if buildCountErr != nil {
			return buildCountErr
		}

		loans, readErr := readAndCollect(ctx, s.engine, selectQuery, scanLoan)
		if readErr != nil {
			return readErr
		}

		total, countErr := s.engine.count(ctx, countQuery)
		if countErr != nil {
			return countErr
		}

		page = lending.NewPage(loans, pageRequest, total)
		o.rows = len(loans)

		return nil
	})
	if err != nil {
		return lending.Page[lending.Loan]{}, err
	}

	return page, nil
}

// FindOverdue returns all unreturned loans dated before the threshold date.
func (s LoanStore) FindOverdue(ctx context.Context, threshold time.Time) ([]lending.Loan, error) {
	var loans []lending.Loan

	err := s.engine.observe(ctx, opLoanFindOverdue, func(ctx context.Context, o *observation) error {
		sqlQuery, buildErr := s.engine.queries.selectLoans(overdueLoans(threshold), nil)
		if buildErr != nil {
			return buildErr
		}

		var readErr error
		loans, readErr = readAndCollect(ctx, s.engine, sqlQuery, scanLoan)
		o.rows = len(loans)

		return readErr
	})
	if err != nil {
		return nil, err
	}

	return loans, nil
}

func scanLoan(rows adapters.DBRows) (lending.Loan, error) {
	var loan lending.Loan
	var loanDate time.Time
	var returned sql.NullBool

	err := rows.Scan(
		&loan.ID,
		&loan.Customer,
		&loan.CustomerEmail,
		&loanDate,
		&returned,
		&loan.Book.ID,
		&loan.Book.Title,
		&loan.Book.Author,
		&loan.Book.ISBN,
	)
	if err != nil {
		return lending.Loan{}, err
	}

	loan.LoanDate = lending.ToLoanDate(loanDate)

	if returned.Valid {
		loan.Returned = &returned.Bool
	}

	return loan, nil
}
