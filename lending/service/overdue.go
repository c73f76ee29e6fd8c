package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// OverdueReport summarizes one overdue scan.
type OverdueReport struct {
	RunID      uuid.UUID
	Threshold  time.Time
	LoanCount  int
	Recipients []string
}

// Notified reports whether the scan sent a notification.
func (r OverdueReport) Notified() bool {
	return len(r.Recipients) > 0
}

// NotifyOverdueLoans sends one message to every distinct customer holding a loan older than the
// overdue threshold that is not returned yet. Without overdue loans the notifier is not called.
func (s *LoanService) NotifyOverdueLoans(ctx context.Context) (OverdueReport, error) {
	threshold := s.OverdueThreshold()

	report := OverdueReport{
		RunID:      uuid.New(),
		Threshold:  threshold,
		Recipients: make([]string, 0),
	}

	overdue, err := s.store.FindOverdue(lending.WithStrongConsistency(ctx), threshold)
	if err != nil {
		return report, err
	}

	report.LoanCount = len(overdue)
	recipients := distinctCustomerEmails(overdue)

	if len(recipients) == 0 {
		return report, nil
	}

	if err = s.notifier.Send(ctx, s.overdueMessage, recipients); err != nil {
		return report, err
	}

	report.Recipients = recipients

	return report, nil
}

// OverdueThreshold is today minus the configured number of days. Loans dated before it are overdue.
func (s *LoanService) OverdueThreshold() time.Time {
	return s.today().AddDate(0, 0, -s.overdueThresholdDays)
}

func distinctCustomerEmails(loans []lending.Loan) []string {
	seen := make(map[string]struct{}, len(loans))
	emails := make([]string, 0, len(loans))

	for _, loan := range loans {
		if loan.CustomerEmail == "" {
			continue
		}

		if _, ok := seen[loan.CustomerEmail]; ok {
			continue
		}

		seen[loan.CustomerEmail] = struct{}{}
		emails = append(emails, loan.CustomerEmail)
	}

	return emails
}
