package lending

import (
	"math"
)

// PageRequest selects a zero-based page of the given size.
type PageRequest struct {
	Page int
	Size int
}

// BuildPageRequest creates a PageRequest.
func BuildPageRequest(page int, size int) PageRequest {
	return PageRequest{Page: page, Size: size}
}

// Validate returns ErrInvalidPageRequest if the page is negative or the size is not positive,
// and ErrPageOffsetTooLarge if Offset would overflow.
func (p PageRequest) Validate() error {
	if p.Page < 0 || p.Size < 1 {
		return ErrInvalidPageRequest
	}

	if p.Page > math.MaxInt/p.Size {
		return ErrPageOffsetTooLarge
	}

	return nil
}

// Offset is the number of records to skip before the page starts.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is one page of a paged query plus the total number of matching records.
type Page[T any] struct {
	Content       []T
	PageRequest   PageRequest
	TotalElements int64
}

// NewPage creates a Page. A nil content slice is normalized to an empty one.
func NewPage[T any](content []T, pageRequest PageRequest, totalElements int64) Page[T] {
	if content == nil {
		content = make([]T, 0)
	}

	return Page[T]{
		Content:       content,
		PageRequest:   pageRequest,
		TotalElements: totalElements,
	}
}

// TotalPages returns the number of pages needed to hold TotalElements.
func (p Page[T]) TotalPages() int {
	if p.PageRequest.Size < 1 {
		return 0
	}

	size := int64(p.PageRequest.Size)

	return int((p.TotalElements + size - 1) / size)
}

// HasNext reports whether a page after this one exists.
func (p Page[T]) HasNext() bool {
	return p.PageRequest.Page+1 < p.TotalPages()
}
