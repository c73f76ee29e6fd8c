package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine/internal/adapters"
)

const (
	opBookExistsByIsbn = "book_exists_by_isbn"
	opBookInsert       = "book_insert"
	opBookUpdate       = "book_update"
	opBookFindByID     = "book_find_by_id"
	opBookFindByIsbn   = "book_find_by_isbn"
	opBookDelete       = "book_delete"
	opBookFindMatching = "book_find_matching"
)

var bookViolations = violationMapping{
	unique: lending.ErrDuplicateIsbn,
}

// BookStore implements lending.BookStore on top of the Engine.
type BookStore struct {
	engine *Engine
}

var _ lending.BookStore = BookStore{}

// ExistsByIsbn reports whether a book with the given ISBN is stored.
func (s BookStore) ExistsByIsbn(ctx context.Context, isbn string) (bool, error) {
	var exists bool

	err := s.engine.observe(ctx, opBookExistsByIsbn, func(ctx context.Context, o *observation) error {
		sqlQuery, buildErr := s.engine.queries.existsBookByIsbn(isbn)
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

// Save inserts a book without ID and returns it with the assigned ID,
// or updates title and author of the book with the given ID.
// A concurrent insert of the same ISBN fails with lending.ErrDuplicateIsbn.
func (s BookStore) Save(ctx context.Context, book lending.Book) (lending.Book, error) {
	if book.HasID() {
		return s.update(ctx, book)
	}

	return s.insert(ctx, book)
}

func (s BookStore) insert(ctx context.Context, book lending.Book) (lending.Book, error) {
	err := s.engine.observe(ctx, opBookInsert, func(ctx context.Context, o *observation) error {
		sqlQuery, buildErr := s.engine.queries.insertBook(book)
		if buildErr != nil {
			return buildErr
		}

		ids, writeErr := writeAndCollect(ctx, s.engine, sqlQuery, bookViolations, scanID)
		if writeErr != nil {
			return writeErr
		}

		if len(ids) == 0 {
			return ErrSavingFailed
		}

		book.ID = ids[0]
		o.rows = 1

		return nil
	})
	if err != nil {
		return lending.Book{}, err
	}

	return book, nil
}

func (s BookStore) update(ctx context.Context, book lending.Book) (lending.Book, error) {
	var updated lending.Book

	err := s.engine.observe(ctx, opBookUpdate, func(ctx context.Context, o *observation) error {
		sqlQuery, buildErr := s.engine.queries.updateBook(book)
		if buildErr != nil {
			return buildErr
		}

		books, writeErr := writeAndCollect(ctx, s.engine, sqlQuery, bookViolations, scanBook)
		if writeErr != nil {
			return writeErr
		}

		if len(books) == 0 {
			return errors.Join(ErrSavingFailed, ErrRecordNotFound)
		}

		updated = books[0]
		o.rows = 1

		return nil
	})
	if err != nil {
		return lending.Book{}, err
	}

	return updated, nil
}

// FindByID looks up a book by ID. Absence is reported with found == false.
func (s BookStore) FindByID(ctx context.Context, id lending.BookID) (lending.Book, bool, error) {
	return s.findOne(ctx, opBookFindByID, goqu.Ex{colID: id})
}

// FindByIsbn looks up a book by ISBN. Absence is reported with found == false.
func (s BookStore) FindByIsbn(ctx context.Context, isbn string) (lending.Book, bool, error) {
	return s.findOne(ctx, opBookFindByIsbn, goqu.Ex{colIsbn: isbn})
}

func (s BookStore) findOne(ctx context.Context, operation string, where goqu.Ex) (lending.Book, bool, error) {
	var books []lending.Book

	err := s.engine.observe(ctx, operation, func(ctx context.Context, o *observation) error {
		sqlQuery, buildErr := s.engine.queries.selectBook(where)
		if buildErr != nil {
			return buildErr
		}

		var readErr error
		books, readErr = readAndCollect(ctx, s.engine, sqlQuery, scanBook)
		o.rows = len(books)

		return readErr
	})
	if err != nil || len(books) == 0 {
		return lending.Book{}, false, err
	}

	return books[0], true, nil
}

// Delete removes the book with the ID of the given book.
// It fails with ErrRecordStillReferenced while loans reference the book.
func (s BookStore) Delete(ctx context.Context, book lending.Book) error {
	return s.engine.observe(ctx, opBookDelete, func(ctx context.Context, o *observation) error {
		sqlQuery, buildErr := s.engine.queries.deleteBook(book.ID)
		if buildErr != nil {
			return buildErr
		}

		rowsAffected, execErr := s.engine.exec(ctx, sqlQuery)
		if execErr != nil {
			return translateWriteError(execErr, violationMapping{foreignKey: ErrRecordStillReferenced}, ErrDeletingFailed)
		}

		if rowsAffected == 0 {
			return errors.Join(ErrDeletingFailed, ErrRecordNotFound)
		}

		o.rows = int(rowsAffected)

		return nil
	})
}

// FindMatching returns one page of the books matching all non-empty fields of filter, ordered by ID.
func (s BookStore) FindMatching(
	ctx context.Context,
	filter lending.Book,
	pageRequest lending.PageRequest,
) (lending.Page[lending.Book], error) {

	var page lending.Page[lending.Book]

	err := s.engine.observe(ctx, opBookFindMatching, func(ctx context.Context, o *observation) error {
		selectQuery, buildErr := s.engine.queries.selectMatchingBooks(filter, pageRequest)
		if buildErr != nil {
			return buildErr
		}

		countQuery, buildCountErr := s.engine.queries.countMatchingBooks(filter)
		if buildCountErr != nil {
			return buildCountErr
		}

		books, readErr := readAndCollect(ctx, s.engine, selectQuery, scanBook)
		if readErr != nil {
			return readErr
		}

		total, countErr := s.engine.count(ctx, countQuery)
		if countErr != nil {
			return countErr
		}

		page = lending.NewPage(books, pageRequest, total)
		o.rows = len(books)

		return nil
	})
	if err != nil {
		return lending.Page[lending.Book]{}, err
	}

	return page, nil
}

func scanBook(rows adapters.DBRows) (lending.Book, error) {
	var book lending.Book
	err := rows.Scan(&book.ID, &book.Title, &book.Author, &book.ISBN)

	return book, err
}
