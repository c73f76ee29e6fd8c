// Package mocks provides testify mocks of the lending collaborator contracts.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// BookStore is a testify mock of lending.BookStore.
type BookStore struct {
	mock.Mock
}

func (m *BookStore) ExistsByIsbn(ctx context.Context, isbn string) (bool, error) {
	args := m.Called(ctx, isbn)

	return args.Bool(0), args.Error(1)
}

func (m *BookStore) Save(ctx context.Context, book lending.Book) (lending.Book, error) {
	args := m.Called(ctx, book)

	return args.Get(0).(lending.Book), args.Error(1)
}

func (m *BookStore) FindByID(ctx context.Context, id lending.BookID) (lending.Book, bool, error) {
	args := m.Called(ctx, id)

	return args.Get(0).(lending.Book), args.Bool(1), args.Error(2)
}

func (m *BookStore) FindByIsbn(ctx context.Context, isbn string) (lending.Book, bool, error) {
	args := m.Called(ctx, isbn)

	return args.Get(0).(lending.Book), args.Bool(1), args.Error(2)
}

func (m *BookStore) Delete(ctx context.Context, book lending.Book) error {
	args := m.Called(ctx, book)

	return args.Error(0)
}

func (m *BookStore) FindMatching(
	ctx context.Context,
	filter lending.Book,
	pageRequest lending.PageRequest,
) (lending.Page[lending.Book], error) {

	args := m.Called(ctx, filter, pageRequest)

	return args.Get(0).(lending.Page[lending.Book]), args.Error(1)
}

// LoanStore is a testify mock of lending.LoanStore.
type LoanStore struct {
	mock.Mock
}

func (m *LoanStore) ExistsByBookAndNotReturned(ctx context.Context, book lending.Book) (bool, error) {
	args := m.Called(ctx, book)

	return args.Bool(0), args.Error(1)
}

func (m *LoanStore) Save(ctx context.Context, loan lending.Loan) (lending.Loan, error) {
	args := m.Called(ctx, loan)

	return args.Get(0).(lending.Loan), args.Error(1)
}

func (m *LoanStore) FindByID(ctx context.Context, id lending.LoanID) (lending.Loan, bool, error) {
	args := m.Called(ctx, id)

	return args.Get(0).(lending.Loan), args.Bool(1), args.Error(2)
}

func (m *LoanStore) FindByBookIsbnOrCustomer(
	ctx context.Context,
	isbn string,
	customer string,
	pageRequest lending.PageRequest,
) (lending.Page[lending.Loan], error) {

	args := m.Called(ctx, isbn, customer, pageRequest)

	return args.Get(0).(lending.Page[lending.Loan]), args.Error(1)
}

func (m *LoanStore) FindByBook(
	ctx context.Context,
	book lending.Book,
	pageRequest lending.PageRequest,
) (lending.Page[lending.Loan], error) {

	args := m.Called(ctx, book, pageRequest)

	return args.Get(0).(lending.Page[lending.Loan]), args.Error(1)
}

func (m *LoanStore) FindOverdue(ctx context.Context, threshold time.Time) ([]lending.Loan, error) {
	args := m.Called(ctx, threshold)

	loans, _ := args.Get(0).([]lending.Loan)

	return loans, args.Error(1)
}

// Notifier is a testify mock of lending.Notifier.
type Notifier struct {
	mock.Mock
}

func (m *Notifier) Send(ctx context.Context, message string, recipients []string) error {
	args := m.Called(ctx, message, recipients)

	return args.Error(0)
}
