package lending

import (
	"errors"
)

// BusinessError is a domain rule violation that should be surfaced to the end user as a rejected request.
// It is not a programming mistake and must not be retried.
type BusinessError struct {
	reason string
}

func (e *BusinessError) Error() string {
	return e.reason
}

var (
	// ErrDuplicateIsbn is returned when a book with the same ISBN is already registered.
	ErrDuplicateIsbn error = &BusinessError{reason: "isbn already registered"}

	// ErrBookAlreadyLoaned is returned when the book of a new loan still has an unreturned loan.
	ErrBookAlreadyLoaned error = &BusinessError{reason: "book already loaned"}
)

var (
	// ErrInvalidArgument marks caller misuse. It is always joined with a more specific reason.
	ErrInvalidArgument = errors.New("invalid argument")

	ErrBookIDMissing         = errors.New("book id must be set")
	ErrBookIDAlreadyAssigned = errors.New("book id must not be set for a new book")
	ErrLoanIDMissing         = errors.New("loan id must be set")
	ErrLoanIDAlreadyAssigned = errors.New("loan id must not be set for a new loan")
	ErrLoanAlreadyReturned   = errors.New("a returned loan cannot become active again")
	ErrInvalidPageRequest    = errors.New("page must not be negative and size must be positive")
	ErrPageOffsetTooLarge    = errors.New("page offset exceeds the supported range")
)

// InvalidArgument joins ErrInvalidArgument with the specific reason.
func InvalidArgument(reason error) error {
	return errors.Join(ErrInvalidArgument, reason)
}

// IsBusinessError reports whether err is, or wraps, a BusinessError.
func IsBusinessError(err error) bool {
	var businessErr *BusinessError

	return errors.As(err, &businessErr)
}
