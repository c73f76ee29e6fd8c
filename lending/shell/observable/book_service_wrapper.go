package observable

import (
	"context"
	"strconv"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	serviceBook = "book"

	opSave      = "save"
	opGetByID   = "get_by_id"
	opUpdate    = "update"
	opDelete    = "delete"
	opFind      = "find"
	opGetByIsbn = "get_by_isbn"

	attrFound   = "found"
	attrResults = "results"
)

// BookOperations is what the book domain service offers. *service.BookService implements it.
type BookOperations interface {
	Save(ctx context.Context, book lending.Book) (lending.Book, error)
	GetByID(ctx context.Context, id lending.BookID) (lending.Book, bool, error)
	Update(ctx context.Context, book lending.Book) (lending.Book, error)
	Delete(ctx context.Context, book lending.Book) error
	Find(ctx context.Context, filter lending.Book, pageRequest lending.PageRequest) (lending.Page[lending.Book], error)
	GetByIsbn(ctx context.Context, isbn string) (lending.Book, bool, error)
}

// BookServiceWrapper instruments a book domain service.
type BookServiceWrapper struct {
	core BookOperations
	instrumentation
}

var _ BookOperations = (*BookServiceWrapper)(nil)

// NewBookServiceWrapper wraps core with the configured observability.
func NewBookServiceWrapper(core BookOperations, opts ...Option) (*BookServiceWrapper, error) {
	if core == nil {
		return nil, ErrNilService
	}

	instr, err := newInstrumentation(serviceBook, opts)
	if err != nil {
		return nil, err
	}

	return &BookServiceWrapper{core: core, instrumentation: instr}, nil
}

func (w *BookServiceWrapper) Save(ctx context.Context, book lending.Book) (lending.Book, error) {
	var saved lending.Book

	err := w.run(ctx, opSave, func(ctx context.Context, _ map[string]string) error {
		var err error
		saved, err = w.core.Save(ctx, book)

		return err
	})

	return saved, err
}

func (w *BookServiceWrapper) GetByID(ctx context.Context, id lending.BookID) (lending.Book, bool, error) {
	var book lending.Book
	var found bool

	err := w.run(ctx, opGetByID, func(ctx context.Context, attrs map[string]string) error {
		var err error
		book, found, err = w.core.GetByID(ctx, id)
		attrs[attrFound] = strconv.FormatBool(found)

		return err
	})

	return book, found, err
}

func (w *BookServiceWrapper) Update(ctx context.Context, book lending.Book) (lending.Book, error) {
	var updated lending.Book

	err := w.run(ctx, opUpdate, func(ctx context.Context, _ map[string]string) error {
		var err error
		updated, err = w.core.Update(ctx, book)

		return err
	})

	return updated, err
}

func (w *BookServiceWrapper) Delete(ctx context.Context, book lending.Book) error {
	return w.run(ctx, opDelete, func(ctx context.Context, _ map[string]string) error {
		return w.core.Delete(ctx, book)
	})
}

func (w *BookServiceWrapper) Find(
	ctx context.Context,
	filter lending.Book,
	pageRequest lending.PageRequest,
) (lending.Page[lending.Book], error) {

	var page lending.Page[lending.Book]

	err := w.run(ctx, opFind, func(ctx context.Context, attrs map[string]string) error {
		var err error
		page, err = w.core.Find(ctx, filter, pageRequest)
		attrs[attrResults] = strconv.Itoa(len(page.Content))

		return err
	})

	return page, err
}

func (w *BookServiceWrapper) GetByIsbn(ctx context.Context, isbn string) (lending.Book, bool, error) {
	var book lending.Book
	var found bool

	err := w.run(ctx, opGetByIsbn, func(ctx context.Context, attrs map[string]string) error {
		var err error
		book, found, err = w.core.GetByIsbn(ctx, isbn)
		attrs[attrFound] = strconv.FormatBool(found)

		return err
	})

	return book, found, err
}
