package service

import (
	"time"
)

const (
	// DefaultOverdueThresholdDays is the number of days after which a loan counts as overdue.
	DefaultOverdueThresholdDays = 4

	// DefaultOverdueMessage is the notification text sent to customers with overdue loans.
	DefaultOverdueMessage = "Book with loan overdue"
)

// Clock returns the current time.
type Clock func() time.Time

// LoanServiceOption defines a functional option for configuring LoanService.
type LoanServiceOption func(*LoanService) error

// WithClock sets the clock used for default loan dates and the overdue threshold.
func WithClock(clock Clock) LoanServiceOption {
	return func(s *LoanService) error {
		if clock == nil {
			return ErrNilClock
		}

		s.clock = clock

		return nil
	}
}

// WithOverdueThreshold sets the number of days after which an unreturned loan is overdue.
func WithOverdueThreshold(days int) LoanServiceOption {
	return func(s *LoanService) error {
		if days < 0 {
			return ErrNegativeOverdueThreshold
		}

		s.overdueThresholdDays = days

		return nil
	}
}

// WithOverdueMessage sets the text sent to customers with overdue loans.
func WithOverdueMessage(message string) LoanServiceOption {
	return func(s *LoanService) error {
		if message == "" {
			return ErrEmptyOverdueMessage
		}

		s.overdueMessage = message

		return nil
	}
}
