package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/service"
	"github.com/AntonStoeckl/library-lending-go/testutil/mocks"
)

var fixedNow = time.Date(2024, time.March, 15, 14, 30, 0, 0, time.UTC)

func Test_NewLoanService_Validates_Collaborators_And_Options(t *testing.T) {
	_, err := service.NewLoanService(nil, new(mocks.Notifier))
	assert.ErrorIs(t, err, service.ErrNilLoanStore)

	_, err = service.NewLoanService(new(mocks.LoanStore), nil)
	assert.ErrorIs(t, err, service.ErrNilNotifier)

	_, err = service.NewLoanService(new(mocks.LoanStore), new(mocks.Notifier), service.WithOverdueThreshold(-1))
	assert.ErrorIs(t, err, service.ErrNegativeOverdueThreshold)

	_, err = service.NewLoanService(new(mocks.LoanStore), new(mocks.Notifier), service.WithOverdueMessage(""))
	assert.ErrorIs(t, err, service.ErrEmptyOverdueMessage)

	_, err = service.NewLoanService(new(mocks.LoanStore), new(mocks.Notifier), service.WithClock(nil))
	assert.ErrorIs(t, err, service.ErrNilClock)
}

func Test_LoanService_Save_Persists_Loan_For_Available_Book(t *testing.T) {
	// arrange
	store := new(mocks.LoanStore)
	loanService := newLoanService(t, store, new(mocks.Notifier))
	loan := lending.BuildLoan(lending.Book{ID: 1}, "Fulano", "fulano@example.com", fixedNow)
	persisted := loan
	persisted.ID = 10

	store.On("ExistsByBookAndNotReturned", mock.Anything, loan.Book).Return(false, nil).Once()
	store.On("Save", mock.Anything, loan).Return(persisted, nil).Once()

	// act
	saved, err := loanService.Save(context.Background(), loan)

	// assert
	require.NoError(t, err)
	assert.Equal(t, persisted, saved)
	store.AssertExpectations(t)
}

func Test_LoanService_Save_Rejects_Book_Already_Loaned(t *testing.T) {
	// arrange
	store := new(mocks.LoanStore)
	loanService := newLoanService(t, store, new(mocks.Notifier))
	loan := lending.BuildLoan(lending.Book{ID: 1}, "Fulano", "fulano@example.com", fixedNow)

	store.On("ExistsByBookAndNotReturned", mock.Anything, loan.Book).Return(true, nil).Once()

	// act
	_, err := loanService.Save(context.Background(), loan)

	// assert
	assert.ErrorIs(t, err, lending.ErrBookAlreadyLoaned)
	assert.True(t, lending.IsBusinessError(err))
	assert.EqualError(t, err, "book already loaned")
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func Test_LoanService_Save_Defaults_Loan_Date_To_Today(t *testing.T) {
	// arrange
	store := new(mocks.LoanStore)
	loanService := newLoanService(t, store, new(mocks.Notifier))
	loan := lending.Loan{Book: lending.Book{ID: 1}, Customer: "Fulano", CustomerEmail: "fulano@example.com"}
	today := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	store.On("ExistsByBookAndNotReturned", mock.Anything, loan.Book).Return(false, nil).Once()
	store.On("Save", mock.Anything, mock.MatchedBy(func(l lending.Loan) bool {
		return l.LoanDate.Equal(today)
	})).Return(loan, nil).Once()

	// act
	_, err := loanService.Save(context.Background(), loan)

	// assert
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func Test_LoanService_Save_Uses_Calendar_Date_Of_Non_UTC_Clock_And_Loan_Date(t *testing.T) {
	cet := time.FixedZone("CET", 60*60)
	shortlyAfterMidnight := time.Date(2024, time.March, 15, 0, 30, 0, 0, cet)

	testCases := []struct {
		name     string
		loanDate time.Time
		expected string
	}{
		{name: "default loan date", loanDate: time.Time{}, expected: "2024-03-15"},
		{name: "given loan date", loanDate: time.Date(2024, time.March, 10, 0, 0, 0, 0, cet), expected: "2024-03-10"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			store := new(mocks.LoanStore)
			loanService := newLoanService(
				t,
				store,
				new(mocks.Notifier),
				service.WithClock(func() time.Time { return shortlyAfterMidnight }),
			)
			loan := lending.Loan{
				Book:          lending.Book{ID: 1},
				Customer:      "Fulano",
				CustomerEmail: "fulano@example.com",
				LoanDate:      tc.loanDate,
			}

			store.On("ExistsByBookAndNotReturned", mock.Anything, loan.Book).Return(false, nil).Once()
			store.On("Save", mock.Anything, mock.MatchedBy(func(l lending.Loan) bool {
				return l.LoanDate.Format(time.DateOnly) == tc.expected
			})).Return(loan, nil).Once()

			// act
			_, err := loanService.Save(context.Background(), loan)

			// assert
			require.NoError(t, err)
			store.AssertExpectations(t)
		})
	}
}

func Test_LoanService_Save_Rejects_Loan_With_ID(t *testing.T) {
	// arrange
	store := new(mocks.LoanStore)
	loanService := newLoanService(t, store, new(mocks.Notifier))
	loan := lending.Loan{ID: 3, Book: lending.Book{ID: 1}}

	// act
	_, err := loanService.Save(context.Background(), loan)

	// assert
	assert.ErrorIs(t, err, lending.ErrInvalidArgument)
	assert.ErrorIs(t, err, lending.ErrLoanIDAlreadyAssigned)
	assert.Empty(t, store.Calls)
}

func Test_LoanService_GetByID_Reports_Absence_Without_Error(t *testing.T) {
	// arrange
	store := new(mocks.LoanStore)
	loanService := newLoanService(t, store, new(mocks.Notifier))

	store.On("FindByID", mock.Anything, int64(99)).Return(lending.Loan{}, false, nil).Once()

	// act
	_, found, err := loanService.GetByID(context.Background(), 99)

	// assert
	assert.NoError(t, err)
	assert.False(t, found)
}

func Test_LoanService_Update_Marks_Loan_Returned(t *testing.T) {
	// arrange
	store := new(mocks.LoanStore)
	loanService := newLoanService(t, store, new(mocks.Notifier))
	loan := lending.BuildLoan(lending.Book{ID: 1}, "Fulano", "fulano@example.com", fixedNow)
	loan.ID = 10
	returned := loan.MarkReturned()

	store.On("Save", mock.Anything, returned).Return(returned, nil).Once()

	// act
	updated, err := loanService.Update(context.Background(), returned)

	// assert
	require.NoError(t, err)
	require.NotNil(t, updated.Returned)
	assert.True(t, *updated.Returned)
	assert.True(t, updated.IsReturned())
	store.AssertExpectations(t)
}

func Test_LoanService_Update_Rejects_Reactivating_Returned_Loan(t *testing.T) {
	notReturned := false

	testCases := []struct {
		name     string
		returned *bool
	}{
		{name: "returned unset", returned: nil},
		{name: "returned false", returned: &notReturned},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			store := new(mocks.LoanStore)
			loanService := newLoanService(t, store, new(mocks.Notifier))
			stored := lending.BuildLoan(lending.Book{ID: 1}, "Fulano", "fulano@example.com", fixedNow).MarkReturned()
			stored.ID = 10
			reactivated := stored
			reactivated.Returned = tc.returned

			store.On("FindByID", mock.Anything, stored.ID).Return(stored, true, nil).Once()

			// act
			_, err := loanService.Update(context.Background(), reactivated)

			// assert
			assert.ErrorIs(t, err, lending.ErrInvalidArgument)
			assert.ErrorIs(t, err, lending.ErrLoanAlreadyReturned)
			store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func Test_LoanService_Update_Saves_Changes_To_Active_Loan(t *testing.T) {
	// arrange
	store := new(mocks.LoanStore)
	loanService := newLoanService(t, store, new(mocks.Notifier))
	stored := lending.BuildLoan(lending.Book{ID: 1}, "Fulano", "fulano@example.com", fixedNow)
	stored.ID = 10
	changed := stored
	changed.CustomerEmail = "fulano@example.org"

	store.On("FindByID", mock.Anything, stored.ID).Return(stored, true, nil).Once()
	store.On("Save", mock.Anything, changed).Return(changed, nil).Once()

	// act
	updated, err := loanService.Update(context.Background(), changed)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "fulano@example.org", updated.CustomerEmail)
	store.AssertExpectations(t)
}

func Test_LoanService_Update_Without_ID_Never_Reaches_The_Store(t *testing.T) {
	// arrange
	store := new(mocks.LoanStore)
	loanService := newLoanService(t, store, new(mocks.Notifier))

	// act
	_, err := loanService.Update(context.Background(), lending.Loan{Book: lending.Book{ID: 1}})

	// assert
	assert.ErrorIs(t, err, lending.ErrInvalidArgument)
	assert.ErrorIs(t, err, lending.ErrLoanIDMissing)
	assert.Empty(t, store.Calls)
}

func Test_LoanService_Find_Queries_Isbn_Or_Customer(t *testing.T) {
	// arrange
	store := new(mocks.LoanStore)
	loanService := newLoanService(t, store, new(mocks.Notifier))
	pageRequest := lending.BuildPageRequest(1, 5)
	expected := lending.NewPage[lending.Loan](nil, pageRequest, 0)

	store.On("FindByBookIsbnOrCustomer", mock.Anything, "123", "Fulano", pageRequest).Return(expected, nil).Once()

	// act
	page, err := loanService.Find(context.Background(), lending.LoanFilter{ISBN: "123", Customer: "Fulano"}, pageRequest)

	// assert
	require.NoError(t, err)
	assert.Equal(t, expected, page)
	assert.NotNil(t, page.Content)
	store.AssertExpectations(t)
}

func Test_LoanService_GetLoansByBook(t *testing.T) {
	// arrange
	store := new(mocks.LoanStore)
	loanService := newLoanService(t, store, new(mocks.Notifier))
	book := lending.Book{ID: 1}
	pageRequest := lending.BuildPageRequest(0, 20)
	expected := lending.NewPage([]lending.Loan{{ID: 1, Book: book}, {ID: 2, Book: book}}, pageRequest, 2)

	store.On("FindByBook", mock.Anything, book, pageRequest).Return(expected, nil).Once()

	// act
	page, err := loanService.GetLoansByBook(context.Background(), book, pageRequest)

	// assert
	require.NoError(t, err)
	assert.Len(t, page.Content, 2)
	store.AssertExpectations(t)
}

func Test_LoanService_Paged_Queries_Reject_Invalid_Page_Request(t *testing.T) {
	// arrange
	store := new(mocks.LoanStore)
	loanService := newLoanService(t, store, new(mocks.Notifier))
	invalid := lending.BuildPageRequest(-1, 10)

	// act
	_, findErr := loanService.Find(context.Background(), lending.LoanFilter{}, invalid)
	_, byBookErr := loanService.GetLoansByBook(context.Background(), lending.Book{ID: 1}, invalid)

	// assert
	assert.ErrorIs(t, findErr, lending.ErrInvalidPageRequest)
	assert.ErrorIs(t, byBookErr, lending.ErrInvalidPageRequest)
	assert.Empty(t, store.Calls)
}

func Test_LoanService_NotifyOverdueLoans_Notifies_Distinct_Customers(t *testing.T) {
	// arrange
	store := new(mocks.LoanStore)
	notifier := new(mocks.Notifier)
	loanService := newLoanService(t, store, notifier)
	threshold := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)
	overdue := []lending.Loan{
		{ID: 1, CustomerEmail: "a@example.com"},
		{ID: 2, CustomerEmail: "b@example.com"},
		{ID: 3, CustomerEmail: "a@example.com"},
	}

	store.On("FindOverdue", mock.Anything, threshold).Return(overdue, nil).Once()
	notifier.On("Send", mock.Anything, service.DefaultOverdueMessage, []string{"a@example.com", "b@example.com"}).
		Return(nil).Once()

	// act
	report, err := loanService.NotifyOverdueLoans(context.Background())

	// assert
	require.NoError(t, err)
	assert.Equal(t, threshold, report.Threshold)
	assert.Equal(t, 3, report.LoanCount)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, report.Recipients)
	assert.True(t, report.Notified())
	assert.NotEmpty(t, report.RunID.String())
	store.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func Test_LoanService_NotifyOverdueLoans_Skips_Notifier_Without_Overdue_Loans(t *testing.T) {
	// arrange
	store := new(mocks.LoanStore)
	notifier := new(mocks.Notifier)
	loanService := newLoanService(t, store, notifier)

	store.On("FindOverdue", mock.Anything, mock.Anything).Return([]lending.Loan{}, nil).Once()

	// act
	report, err := loanService.NotifyOverdueLoans(context.Background())

	// assert
	require.NoError(t, err)
	assert.False(t, report.Notified())
	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func Test_LoanService_NotifyOverdueLoans_Uses_Configured_Threshold_And_Message(t *testing.T) {
	// arrange
	store := new(mocks.LoanStore)
	notifier := new(mocks.Notifier)
	loanService := newLoanService(
		t, store, notifier,
		service.WithOverdueThreshold(10),
		service.WithOverdueMessage("please return your book"),
	)
	threshold := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)

	store.On("FindOverdue", mock.Anything, threshold).
		Return([]lending.Loan{{ID: 1, CustomerEmail: "a@example.com"}}, nil).Once()
	notifier.On("Send", mock.Anything, "please return your book", []string{"a@example.com"}).Return(nil).Once()

	// act
	_, err := loanService.NotifyOverdueLoans(context.Background())

	// assert
	require.NoError(t, err)
	store.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func Test_LoanService_NotifyOverdueLoans_Propagates_Failures(t *testing.T) {
	t.Run("store failure", func(t *testing.T) {
		// arrange
		store := new(mocks.LoanStore)
		notifier := new(mocks.Notifier)
		loanService := newLoanService(t, store, notifier)
		storeErr := errors.New("connection refused")

		store.On("FindOverdue", mock.Anything, mock.Anything).Return(nil, storeErr).Once()

		// act
		_, err := loanService.NotifyOverdueLoans(context.Background())

		// assert
		assert.Same(t, storeErr, err)
		notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("notifier failure", func(t *testing.T) {
		// arrange
		store := new(mocks.LoanStore)
		notifier := new(mocks.Notifier)
		loanService := newLoanService(t, store, notifier)
		sendErr := errors.New("smtp unavailable")

		store.On("FindOverdue", mock.Anything, mock.Anything).
			Return([]lending.Loan{{ID: 1, CustomerEmail: "a@example.com"}}, nil).Once()
		notifier.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(sendErr).Once()

		// act
		report, err := loanService.NotifyOverdueLoans(context.Background())

		// assert
		assert.Same(t, sendErr, err)
		assert.False(t, report.Notified())
	})
}

func Test_LoanService_OverdueThreshold_Is_Today_Minus_Days(t *testing.T) {
	// arrange
	loanService := newLoanService(t, new(mocks.LoanStore), new(mocks.Notifier))
	included := lending.ToLoanDate(fixedNow.AddDate(0, 0, -5))
	excluded := lending.ToLoanDate(fixedNow.AddDate(0, 0, -2))

	// act
	threshold := loanService.OverdueThreshold()

	// assert
	assert.True(t, included.Before(threshold), "a loan from five days ago is overdue")
	assert.False(t, excluded.Before(threshold), "a loan from two days ago is not overdue")
}

func Test_LoanService_OverdueThreshold_Uses_Calendar_Date_Of_Non_UTC_Clock(t *testing.T) {
	// arrange
	cet := time.FixedZone("CET", 60*60)
	shortlyAfterMidnight := time.Date(2024, time.March, 15, 0, 30, 0, 0, cet)
	loanService := newLoanService(
		t,
		new(mocks.LoanStore),
		new(mocks.Notifier),
		service.WithClock(func() time.Time { return shortlyAfterMidnight }),
	)
	boundary := lending.BuildLoan(lending.Book{ID: 1}, "Fulano", "fulano@example.com", time.Date(2024, time.March, 11, 0, 0, 0, 0, cet))

	// act
	threshold := loanService.OverdueThreshold()

	// assert
	assert.Equal(t, "2024-03-11", threshold.Format(time.DateOnly))
	assert.False(t, boundary.LoanDate.Before(threshold), "a loan from exactly four days ago is not overdue yet")
}

func newLoanService(
	t *testing.T,
	store lending.LoanStore,
	notifier lending.Notifier,
	options ...service.LoanServiceOption,
) *service.LoanService {

	t.Helper()

	options = append([]service.LoanServiceOption{service.WithClock(func() time.Time { return fixedNow })}, options...)

	loanService, err := service.NewLoanService(store, notifier, options...)
	require.NoError(t, err)

	return loanService
}
