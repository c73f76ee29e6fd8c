package lending_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

func Test_PageRequest_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		request lending.PageRequest
		valid   bool
	}{
		{name: "first page", request: lending.BuildPageRequest(0, 10), valid: true},
		{name: "later page", request: lending.BuildPageRequest(3, 1), valid: true},
		{name: "negative page", request: lending.BuildPageRequest(-1, 10), valid: false},
		{name: "zero size", request: lending.BuildPageRequest(0, 0), valid: false},
		{name: "negative size", request: lending.BuildPageRequest(0, -5), valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.request.Validate()

			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, lending.ErrInvalidPageRequest)
			}
		})
	}
}

func Test_PageRequest_Validate_Rejects_Offset_Overflow(t *testing.T) {
	testCases := []struct {
		name    string
		request lending.PageRequest
		valid   bool
	}{
		{name: "largest page of size one", request: lending.BuildPageRequest(math.MaxInt, 1), valid: true},
		{name: "largest page of size two", request: lending.BuildPageRequest(math.MaxInt/2, 2), valid: true},
		{name: "one page beyond", request: lending.BuildPageRequest(math.MaxInt/2+1, 2), valid: false},
		{name: "huge page and size", request: lending.BuildPageRequest(math.MaxInt/2, math.MaxInt/2), valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.request.Validate()

			if tc.valid {
				assert.NoError(t, err)
				assert.GreaterOrEqual(t, tc.request.Offset(), 0)
			} else {
				assert.ErrorIs(t, err, lending.ErrPageOffsetTooLarge)
			}
		})
	}
}

func Test_PageRequest_Offset(t *testing.T) {
	assert.Equal(t, 0, lending.BuildPageRequest(0, 25).Offset())
	assert.Equal(t, 50, lending.BuildPageRequest(2, 25).Offset())
}

func Test_Page_TotalPages_And_HasNext(t *testing.T) {
	// arrange
	pageRequest := lending.BuildPageRequest(1, 10)

	// act
	page := lending.NewPage([]int{11, 12, 13}, pageRequest, 23)

	// assert
	assert.Equal(t, 3, page.TotalPages())
	assert.True(t, page.HasNext())

	last := lending.NewPage([]int{21, 22, 23}, lending.BuildPageRequest(2, 10), 23)
	assert.False(t, last.HasNext())
}

func Test_NewPage_Normalizes_Nil_Content(t *testing.T) {
	// act
	page := lending.NewPage[string](nil, lending.BuildPageRequest(0, 10), 0)

	// assert
	assert.NotNil(t, page.Content)
	assert.Empty(t, page.Content)
	assert.Equal(t, 0, page.TotalPages())
	assert.False(t, page.HasNext())
}
