package service

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// LoanService applies the lending rules on top of a lending.LoanStore and drives overdue notifications.
type LoanService struct {
	store                lending.LoanStore
	notifier             lending.Notifier
	clock                Clock
	overdueThresholdDays int
	overdueMessage       string
}

// NewLoanService creates a LoanService with optional configuration.
func NewLoanService(
	store lending.LoanStore,
	notifier lending.Notifier,
	options ...LoanServiceOption,
) (*LoanService, error) {

	if store == nil {
		return nil, ErrNilLoanStore
	}

	if notifier == nil {
		return nil, ErrNilNotifier
	}

	s := &LoanService{
		store:                store,
		notifier:             notifier,
		clock:                time.Now,
		overdueThresholdDays: DefaultOverdueThresholdDays,
		overdueMessage:       DefaultOverdueMessage,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Save registers a new loan. It fails with lending.ErrBookAlreadyLoaned while the book has an unreturned loan.
// A zero loan date defaults to today.
func (s *LoanService) Save(ctx context.Context, loan lending.Loan) (lending.Loan, error) {
	if loan.HasID() {
		return lending.Loan{}, lending.InvalidArgument(lending.ErrLoanIDAlreadyAssigned)
	}

	if loan.LoanDate.IsZero() {
		loan.LoanDate = s.today()
	} else {
		loan.LoanDate = lending.ToLoanDate(loan.LoanDate)
	}

	ctx = lending.WithStrongConsistency(ctx)

	loaned, err := s.store.ExistsByBookAndNotReturned(ctx, loan.Book)
	if err != nil {
		return lending.Loan{}, err
	}

	if loaned {
		return lending.Loan{}, lending.ErrBookAlreadyLoaned
	}

	return s.store.Save(ctx, loan)
}

// GetByID looks up a loan. Absence is reported with found == false.
func (s *LoanService) GetByID(ctx context.Context, id lending.LoanID) (lending.Loan, bool, error) {
	return s.store.FindByID(ctx, id)
}

// Update persists a changed loan, typically to mark it returned.
// Returned is terminal: a returned loan cannot be saved as unreturned again.
func (s *LoanService) Update(ctx context.Context, loan lending.Loan) (lending.Loan, error) {
	if !loan.HasID() {
		return lending.Loan{}, lending.InvalidArgument(lending.ErrLoanIDMissing)
	}

	ctx = lending.WithStrongConsistency(ctx)

	if loan.IsActive() {
		current, found, err := s.store.FindByID(ctx, loan.ID)
		if err != nil {
			return lending.Loan{}, err
		}

		if found && current.IsReturned() {
			return lending.Loan{}, lending.InvalidArgument(lending.ErrLoanAlreadyReturned)
		}
	}

	return s.store.Save(ctx, loan)
}

// Find returns the loans whose book has filter.ISBN OR whose customer is filter.Customer.
func (s *LoanService) Find(
	ctx context.Context,
	filter lending.LoanFilter,
	pageRequest lending.PageRequest,
) (lending.Page[lending.Loan], error) {

	if err := pageRequest.Validate(); err != nil {
		return lending.Page[lending.Loan]{}, lending.InvalidArgument(err)
	}

	return s.store.FindByBookIsbnOrCustomer(
		lending.WithEventualConsistency(ctx),
		filter.ISBN,
		filter.Customer,
		pageRequest,
	)
}

// GetLoansByBook returns all loans of the given book, returned or not.
func (s *LoanService) GetLoansByBook(
	ctx context.Context,
	book lending.Book,
	pageRequest lending.PageRequest,
) (lending.Page[lending.Loan], error) {

	if err := pageRequest.Validate(); err != nil {
		return lending.Page[lending.Loan]{}, lending.InvalidArgument(err)
	}

	return s.store.FindByBook(lending.WithEventualConsistency(ctx), book, pageRequest)
}

func (s *LoanService) today() lending.LoanDate {
	return lending.ToLoanDate(s.clock())
}
