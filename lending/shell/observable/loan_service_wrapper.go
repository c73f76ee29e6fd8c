package observable

import (
	"context"
	"strconv"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/service"
	"github.com/AntonStoeckl/library-lending-go/lending/shell"
)

const (
	serviceLoan = "loan"

	opGetLoansByBook = "get_loans_by_book"
	opNotifyOverdue  = "notify_overdue"

	dateLayout = "2006-01-02"
)

// LoanOperations is what the loan domain service offers. *service.LoanService implements it.
type LoanOperations interface {
	Save(ctx context.Context, loan lending.Loan) (lending.Loan, error)
	GetByID(ctx context.Context, id lending.LoanID) (lending.Loan, bool, error)
	Update(ctx context.Context, loan lending.Loan) (lending.Loan, error)
	Find(ctx context.Context, filter lending.LoanFilter, pageRequest lending.PageRequest) (lending.Page[lending.Loan], error)
	GetLoansByBook(ctx context.Context, book lending.Book, pageRequest lending.PageRequest) (lending.Page[lending.Loan], error)
	NotifyOverdueLoans(ctx context.Context) (service.OverdueReport, error)
}

// LoanServiceWrapper instruments a loan domain service.
type LoanServiceWrapper struct {
	core LoanOperations
	instrumentation
}

var _ LoanOperations = (*LoanServiceWrapper)(nil)

// NewLoanServiceWrapper wraps core with the configured observability.
func NewLoanServiceWrapper(core LoanOperations, opts ...Option) (*LoanServiceWrapper, error) {
	if core == nil {
		return nil, ErrNilService
	}

	instr, err := newInstrumentation(serviceLoan, opts)
	if err != nil {
		return nil, err
	}

	return &LoanServiceWrapper{core: core, instrumentation: instr}, nil
}

func (w *LoanServiceWrapper) Save(ctx context.Context, loan lending.Loan) (lending.Loan, error) {
	var saved lending.Loan

	err := w.run(ctx, opSave, func(ctx context.Context, _ map[string]string) error {
		var err error
		saved, err = w.core.Save(ctx, loan)

		return err
	})

	return saved, err
}

func (w *LoanServiceWrapper) GetByID(ctx context.Context, id lending.LoanID) (lending.Loan, bool, error) {
	var loan lending.Loan
	var found bool

	err := w.run(ctx, opGetByID, func(ctx context.Context, attrs map[string]string) error {
		var err error
		loan, found, err = w.core.GetByID(ctx, id)
		attrs[attrFound] = strconv.FormatBool(found)

		return err
	})

	return loan, found, err
}

func (w *LoanServiceWrapper) Update(ctx context.Context, loan lending.Loan) (lending.Loan, error) {
	var updated lending.Loan

	err := w.run(ctx, opUpdate, func(ctx context.Context, _ map[string]string) error {
		var err error
		updated, err = w.core.Update(ctx, loan)

		return err
	})

	return updated, err
}

func (w *LoanServiceWrapper) Find(
	ctx context.Context,
	filter lending.LoanFilter,
	pageRequest lending.PageRequest,
) (lending.Page[lending.Loan], error) {

	var page lending.Page[lending.Loan]

	err := w.run(ctx, opFind, func(ctx context.Context, attrs map[string]string) error {
		var err error
		page, err = w.core.Find(ctx, filter, pageRequest)
		attrs[attrResults] = strconv.Itoa(len(page.Content))

		return err
	})

	return page, err
}

func (w *LoanServiceWrapper) GetLoansByBook(
	ctx context.Context,
	book lending.Book,
	pageRequest lending.PageRequest,
) (lending.Page[lending.Loan], error) {

	var page lending.Page[lending.Loan]

	err := w.run(ctx, opGetLoansByBook, func(ctx context.Context, attrs map[string]string) error {
		var err error
		page, err = w.core.GetLoansByBook(ctx, book, pageRequest)
		attrs[attrResults] = strconv.Itoa(len(page.Content))

		return err
	})

	return page, err
}

// NotifyOverdueLoans runs the overdue scan and additionally records the notified recipient count
// and one summary log record carrying the run ID.
func (w *LoanServiceWrapper) NotifyOverdueLoans(ctx context.Context) (service.OverdueReport, error) {
	var report service.OverdueReport

	err := w.run(ctx, opNotifyOverdue, func(ctx context.Context, attrs map[string]string) error {
		var err error
		report, err = w.core.NotifyOverdueLoans(ctx)

		attrs[shell.LogAttrRunID] = report.RunID.String()
		attrs[shell.LogAttrThreshold] = formatDate(report.Threshold)
		attrs[shell.LogAttrLoans] = strconv.Itoa(report.LoanCount)
		attrs[shell.LogAttrRecipients] = strconv.Itoa(len(report.Recipients))

		return err
	})
	if err != nil {
		return report, err
	}

	shell.RecordNotifiedRecipients(ctx, w.Metrics, len(report.Recipients))
	shell.LogInfo(
		ctx,
		w.Instrumentation,
		shell.LogMsgOverdueScanDone,
		shell.LogAttrRunID, report.RunID.String(),
		shell.LogAttrThreshold, formatDate(report.Threshold),
		shell.LogAttrLoans, report.LoanCount,
		shell.LogAttrRecipients, len(report.Recipients),
	)

	return report, nil
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}
