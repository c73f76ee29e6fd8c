package postgresengine

import (
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	defaultBookTableName = "books"
	defaultLoanTableName = "loans"
	dialectPostgres      = "postgres"
	colID                = "id"
	colTitle             = "title"
	colAuthor            = "author"
	colIsbn              = "isbn"
	colBookID            = "book_id"
	colCustomer          = "customer"
	colCustomerEmail     = "customer_email"
	colLoanDate          = "loan_date"
	colReturned          = "returned"
	aliasLoan            = "l"
	aliasBook            = "b"
	castDate             = "?::date"
	dateLayout           = "2006-01-02"
)

type sqlQueryString = string

// queryBuilder renders all statements of the stores as interpolated SQL.
type queryBuilder struct {
	bookTable string
	loanTable string
}

func newQueryBuilder() queryBuilder {
	return queryBuilder{
		bookTable: defaultBookTableName,
		loanTable: defaultLoanTableName,
	}
}

func (q queryBuilder) dialect() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

func (q queryBuilder) existsBookByIsbn(isbn string) (sqlQueryString, error) {
	return toSQL(
		q.dialect().
			From(q.bookTable).
			Select(goqu.L("1")).
			Where(goqu.Ex{colIsbn: isbn}).
			Limit(1),
	)
}

func (q queryBuilder) insertBook(book lending.Book) (sqlQueryString, error) {
	return toSQL(
		q.dialect().
			Insert(q.bookTable).
			Rows(goqu.Record{
				colTitle:  book.Title,
				colAuthor: book.Author,
				colIsbn:   book.ISBN,
			}).
			Returning(colID),
	)
}

// updateBook only touches title and author, the isbn of a book is immutable.
func (q queryBuilder) updateBook(book lending.Book) (sqlQueryString, error) {
	return toSQL(
		q.dialect().
			Update(q.bookTable).
			Set(goqu.Record{
				colTitle:  book.Title,
				colAuthor: book.Author,
			}).
			Where(goqu.Ex{colID: book.ID}).
			Returning(colID, colTitle, colAuthor, colIsbn),
	)
}

func (q queryBuilder) deleteBook(id lending.BookID) (sqlQueryString, error) {
	return toSQL(
		q.dialect().
			Delete(q.bookTable).
			Where(goqu.Ex{colID: id}),
	)
}

func (q queryBuilder) selectBook(where goqu.Ex) (sqlQueryString, error) {
	return toSQL(
		q.dialect().
			From(q.bookTable).
			Select(colID, colTitle, colAuthor, colIsbn).
			Where(where).
			Limit(1),
	)
}

func (q queryBuilder) selectMatchingBooks(filter lending.Book, pageRequest lending.PageRequest) (sqlQueryString, error) {
	selectStmt := q.dialect().
		From(q.bookTable).
		Select(colID, colTitle, colAuthor, colIsbn).
		Order(goqu.C(colID).Asc()).
		Limit(uint(pageRequest.Size)).
		Offset(uint(pageRequest.Offset()))

	if where := bookFilterExpression(filter); len(where) > 0 {
		selectStmt = selectStmt.Where(where)
	}

	return toSQL(selectStmt)
}

func (q queryBuilder) countMatchingBooks(filter lending.Book) (sqlQueryString, error) {
	selectStmt := q.dialect().
		From(q.bookTable).
		Select(goqu.COUNT("*"))

	if where := bookFilterExpression(filter); len(where) > 0 {
		selectStmt = selectStmt.Where(where)
	}

	return toSQL(selectStmt)
}

// bookFilterExpression matches all non-empty fields of filter, empty fields are wildcards.
func bookFilterExpression(filter lending.Book) goqu.Ex {
	where := goqu.Ex{}

	if filter.HasID() {
		where[colID] = filter.ID
	}

	if filter.Title != "" {
		where[colTitle] = filter.Title
	}

	if filter.Author != "" {
		where[colAuthor] = filter.Author
	}

	if filter.ISBN != "" {
		where[colIsbn] = filter.ISBN
	}

	return where
}

func (q queryBuilder) existsActiveLoanForBook(bookID lending.BookID) (sqlQueryString, error) {
	return toSQL(
		q.dialect().
			From(q.loanTable).
			Select(goqu.L("1")).
			Where(
				goqu.C(colBookID).Eq(bookID),
				goqu.C(colReturned).IsNotTrue(),
			).
			Limit(1),
	)
}

func (q queryBuilder) insertLoan(loan lending.Loan) (sqlQueryString, error) {
	return toSQL(
		q.dialect().
			Insert(q.loanTable).
			Rows(loanRecord(loan)).
			Returning(colID),
	)
}

func (q queryBuilder) updateLoan(loan lending.Loan) (sqlQueryString, error) {
	return toSQL(
		q.dialect().
			Update(q.loanTable).
			Set(loanRecord(loan)).
			Where(goqu.Ex{colID: loan.ID}).
			Returning(colID),
	)
}

func loanRecord(loan lending.Loan) goqu.Record {
	var returned any
	if loan.Returned != nil {
		returned = *loan.Returned
	}

	return goqu.Record{
		colBookID:        loan.Book.ID,
		colCustomer:      loan.Customer,
		colCustomerEmail: loan.CustomerEmail,
		colLoanDate:      dateLiteral(loan.LoanDate),
		colReturned:      returned,
	}
}

func (q queryBuilder) selectLoans(where exp.Expression, pageRequest *lending.PageRequest) (sqlQueryString, error) {
	selectStmt := q.joinedLoans().
		Select(
			goqu.I(aliasLoan+"."+colID),
			goqu.I(aliasLoan+"."+colCustomer),
			goqu.I(aliasLoan+"."+colCustomerEmail),
			goqu.I(aliasLoan+"."+colLoanDate),
			goqu.I(aliasLoan+"."+colReturned),
			goqu.I(aliasBook+"."+colID),
			goqu.I(aliasBook+"."+colTitle),
			goqu.I(aliasBook+"."+colAuthor),
			goqu.I(aliasBook+"."+colIsbn),
		).
		Where(where).
		Order(goqu.I(aliasLoan + "." + colID).Asc())

	if pageRequest != nil {
		selectStmt = selectStmt.
			Limit(uint(pageRequest.Size)).
			Offset(uint(pageRequest.Offset()))
	}

	return toSQL(selectStmt)
}

func (q queryBuilder) countLoans(where exp.Expression) (sqlQueryString, error) {
	return toSQL(
		q.joinedLoans().
			Select(goqu.COUNT("*")).
			Where(where),
	)
}

func (q queryBuilder) joinedLoans() *goqu.SelectDataset {
	return q.dialect().
		From(goqu.T(q.loanTable).As(aliasLoan)).
		InnerJoin(
			goqu.T(q.bookTable).As(aliasBook),
			goqu.On(goqu.I(aliasLoan+"."+colBookID).Eq(goqu.I(aliasBook+"."+colID))),
		)
}

func loanByID(id lending.LoanID) exp.Expression {
	return goqu.I(aliasLoan + "." + colID).Eq(id)
}

func loansByBook(bookID lending.BookID) exp.Expression {
	return goqu.I(aliasLoan + "." + colBookID).Eq(bookID)
}

// loansByIsbnOrCustomer matches either field, an empty value only matches empty column values.
func loansByIsbnOrCustomer(isbn string, customer string) exp.Expression {
	return goqu.Or(
		goqu.I(aliasBook+"."+colIsbn).Eq(isbn),
		goqu.I(aliasLoan+"."+colCustomer).Eq(customer),
	)
}

func overdueLoans(threshold lending.LoanDate) exp.Expression {
	return goqu.And(
		goqu.I(aliasLoan+"."+colLoanDate).Lt(dateLiteral(threshold)),
		goqu.I(aliasLoan+"."+colReturned).IsNotTrue(),
	)
}

func dateLiteral(date lending.LoanDate) exp.LiteralExpression {
	return goqu.L(castDate, lending.ToLoanDate(date).Format(dateLayout))
}

type sqlRenderer interface {
	ToSQL() (string, []any, error)
}

func toSQL(stmt sqlRenderer) (sqlQueryString, error) {
	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}
