package service

import "errors"

var (
	// ErrNilBookStore is returned when a nil book store is supplied.
	ErrNilBookStore = errors.New("book store must not be nil")

	// ErrNilLoanStore is returned when a nil loan store is supplied.
	ErrNilLoanStore = errors.New("loan store must not be nil")

	// ErrNilNotifier is returned when a nil notifier is supplied.
	ErrNilNotifier = errors.New("notifier must not be nil")

	// ErrNilClock is returned when a nil clock is supplied to WithClock.
	ErrNilClock = errors.New("clock must not be nil")

	// ErrNegativeOverdueThreshold is returned when the overdue threshold is negative.
	ErrNegativeOverdueThreshold = errors.New("overdue threshold days must not be negative")

	// ErrEmptyOverdueMessage is returned when an empty overdue message is supplied.
	ErrEmptyOverdueMessage = errors.New("overdue message must not be empty")
)
