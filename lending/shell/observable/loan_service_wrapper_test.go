package observable_test

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
	"github.com/AntonStoeckl/library-lending-go/lending/shell"
	"github.com/AntonStoeckl/library-lending-go/lending/shell/observable"
	"github.com/AntonStoeckl/library-lending-go/testutil/helper"
	"github.com/AntonStoeckl/library-lending-go/testutil/mocks"
)

var fixedNow = time.Date(2024, time.March, 15, 14, 30, 0, 0, time.UTC)

func Test_LoanServiceWrapper_NotifyOverdueLoans_Records_Recipients_And_Run_ID(t *testing.T) {
	// arrange
	store := new(mocks.LoanStore)
	notifier := new(mocks.Notifier)
	overdue := []lending.Loan{
		{ID: 1, CustomerEmail: "a@example.com"},
		{ID: 2, CustomerEmail: "b@example.com"},
		{ID: 3, CustomerEmail: "a@example.com"},
	}
	store.On("FindOverdue", mock.Anything, mock.Anything).Return(overdue, nil)
	notifier.On("Send", mock.Anything, service.DefaultOverdueMessage, []string{"a@example.com", "b@example.com"}).Return(nil)

	metrics := helper.NewMetricsCollectorSpy(true)
	tracing := helper.NewTracingCollectorSpy(true)
	logger := helper.NewContextualLoggerSpy(true)
	wrapper := newLoanWrapper(t, store, notifier, metrics, tracing, logger)

	// act
	report, err := wrapper.NotifyOverdueLoans(context.Background())

	// assert
	require.NoError(t, err)
	assert.Equal(t, 3, report.LoanCount)
	assert.True(t, metrics.HasValueRecordForMetric(shell.OverdueNotifiedRecipientsMetric).Assert())
	assert.Equal(t, 2.0, metrics.GetValueRecords()[0].Value)
	assert.True(t, tracing.HasSpanRecordForName("lending.loan.notify_overdue").
		WithStatus(shell.StatusSuccess).
		WithEndAttribute(shell.LogAttrRunID, report.RunID.String()).
		WithEndAttribute(shell.LogAttrThreshold, "2024-03-11").
		WithEndAttribute(shell.LogAttrRecipients, "2").
		Assert())
	assert.True(t, logger.HasLogWithArg("info", shell.LogMsgOverdueScanDone, shell.LogAttrRunID, report.RunID.String()))
}

func Test_LoanServiceWrapper_NotifyOverdueLoans_Reports_Notifier_Failure(t *testing.T) {
	// arrange
	store := new(mocks.LoanStore)
	notifier := new(mocks.Notifier)
	store.On("FindOverdue", mock.Anything, mock.Anything).Return([]lending.Loan{{ID: 1, CustomerEmail: "a@example.com"}}, nil)
	notifier.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp unavailable"))

	metrics := helper.NewMetricsCollectorSpy(true)
	logger := helper.NewContextualLoggerSpy(true)
	wrapper := newLoanWrapper(t, store, notifier, metrics, nil, logger)

	// act
	_, err := wrapper.NotifyOverdueLoans(context.Background())

	// assert
	assert.EqualError(t, err, "smtp unavailable")
	assert.Empty(t, metrics.GetValueRecords())
	assert.True(t, metrics.HasDurationRecordForMetric(shell.ServiceOperationDurationMetric).
		WithOperation("notify_overdue").
		WithStatus(shell.StatusError).
		Assert())
	assert.False(t, logger.HasLog("info", shell.LogMsgOverdueScanDone))
}

func Test_LoanServiceWrapper_Save_Counts_Already_Loaned_Rejection(t *testing.T) {
	// arrange
	store := new(mocks.LoanStore)
	book := lending.Book{ID: 1}
	store.On("ExistsByBookAndNotReturned", mock.Anything, book).Return(true, nil)
	metrics := helper.NewMetricsCollectorSpy(true)
	wrapper := newLoanWrapper(t, store, new(mocks.Notifier), metrics, nil, nil)

	// act
	_, err := wrapper.Save(context.Background(), lending.BuildLoan(book, "Fulano", "f@example.com", fixedNow))

	// assert
	assert.ErrorIs(t, err, lending.ErrBookAlreadyLoaned)
	assert.True(t, metrics.HasCounterRecordForMetric(shell.ServiceBusinessRejectionsMetric).
		WithLabel(shell.LogAttrService, "loan").
		WithOperation("save").
		Assert())
}

func Test_LoanServiceWrapper_GetLoansByBook_Delegates(t *testing.T) {
	// arrange
	store := new(mocks.LoanStore)
	book := lending.Book{ID: 1}
	pageRequest := lending.BuildPageRequest(0, 5)
	store.On("FindByBook", mock.Anything, book, pageRequest).
		Return(lending.NewPage([]lending.Loan{{ID: 7}}, pageRequest, 1), nil)
	tracing := helper.NewTracingCollectorSpy(true)
	wrapper := newLoanWrapper(t, store, new(mocks.Notifier), nil, tracing, nil)

	// act
	page, err := wrapper.GetLoansByBook(context.Background(), book, pageRequest)

	// assert
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalElements)
	assert.True(t, tracing.HasSpanRecordForName("lending.loan.get_loans_by_book").
		WithEndAttribute("results", "1").
		Assert())
}

func newLoanWrapper(
	t *testing.T,
	store lending.LoanStore,
	notifier lending.Notifier,
	metrics *helper.MetricsCollectorSpy,
	tracing *helper.TracingCollectorSpy,
	logger *helper.ContextualLoggerSpy,
) *observable.LoanServiceWrapper {

	t.Helper()

	core, err := service.NewLoanService(store, notifier, service.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	wrapper, err := observable.NewLoanServiceWrapper(core, observabilityOptions(metrics, tracing, logger)...)
	require.NoError(t, err)

	return wrapper
}
