package service

import (
	"context"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// BookService applies the catalog rules on top of a lending.BookStore.
type BookService struct {
	store lending.BookStore
}

// NewBookService creates a BookService.
func NewBookService(store lending.BookStore) (*BookService, error) {
	if store == nil {
		return nil, ErrNilBookStore
	}

	return &BookService{store: store}, nil
}

// Save registers a new book. It fails with lending.ErrDuplicateIsbn if the ISBN is already taken.
func (s *BookService) Save(ctx context.Context, book lending.Book) (lending.Book, error) {
	if book.HasID() {
		return lending.Book{}, lending.InvalidArgument(lending.ErrBookIDAlreadyAssigned)
	}

	ctx = lending.WithStrongConsistency(ctx)

	taken, err := s.store.ExistsByIsbn(ctx, book.ISBN)
	if err != nil {
		return lending.Book{}, err
	}

	if taken {
		return lending.Book{}, lending.ErrDuplicateIsbn
	}

	return s.store.Save(ctx, book)
}

// GetByID looks up a book. Absence is reported with found == false.
func (s *BookService) GetByID(ctx context.Context, id lending.BookID) (lending.Book, bool, error) {
	return s.store.FindByID(ctx, id)
}

// Update persists changed title and author of an existing book.
func (s *BookService) Update(ctx context.Context, book lending.Book) (lending.Book, error) {
	if !book.HasID() {
		return lending.Book{}, lending.InvalidArgument(lending.ErrBookIDMissing)
	}

	return s.store.Save(lending.WithStrongConsistency(ctx), book)
}

// Delete removes an existing book.
func (s *BookService) Delete(ctx context.Context, book lending.Book) error {
	if !book.HasID() {
		return lending.InvalidArgument(lending.ErrBookIDMissing)
	}

	return s.store.Delete(lending.WithStrongConsistency(ctx), book)
}

// Find returns the books matching all non-empty fields of filter.
func (s *BookService) Find(
	ctx context.Context,
	filter lending.Book,
	pageRequest lending.PageRequest,
) (lending.Page[lending.Book], error) {

	if err := pageRequest.Validate(); err != nil {
		return lending.Page[lending.Book]{}, lending.InvalidArgument(err)
	}

	return s.store.FindMatching(lending.WithEventualConsistency(ctx), filter, pageRequest)
}

// GetByIsbn looks up a book by its ISBN. Absence is reported with found == false.
func (s *BookService) GetByIsbn(ctx context.Context, isbn string) (lending.Book, bool, error) {
	return s.store.FindByIsbn(ctx, isbn)
}
