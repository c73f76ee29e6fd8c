package rediscache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/rediscache"
	"github.com/AntonStoeckl/library-lending-go/testutil/helper"
	"github.com/AntonStoeckl/library-lending-go/testutil/mocks"
)

var dune = lending.Book{ID: 5, Title: "Dune", Author: "Herbert", ISBN: "978"}

func Test_BookStore_FindByID_Loads_On_Miss_And_Serves_From_Cache_Afterwards(t *testing.T) {
	// arrange
	store := new(mocks.BookStore)
	store.On("FindByID", mock.Anything, lending.BookID(5)).Return(dune, true, nil).Once()
	client := newFakeClient()
	metrics := helper.NewMetricsCollectorSpy(true)
	cache := newCache(t, store, client, rediscache.WithMetrics(metrics))

	// act
	first, firstFound, firstErr := cache.FindByID(context.Background(), 5)
	second, secondFound, secondErr := cache.FindByID(context.Background(), 5)

	// assert
	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	assert.True(t, firstFound)
	assert.True(t, secondFound)
	assert.Equal(t, dune, first)
	assert.Equal(t, dune, second)
	assert.Contains(t, client.data, rediscache.DefaultKeyPrefix+"id:5")
	assert.Contains(t, client.data, rediscache.DefaultKeyPrefix+"isbn:978")
	assert.Equal(t, rediscache.DefaultTTL, client.ttls[rediscache.DefaultKeyPrefix+"id:5"])
	assert.True(t, metrics.HasCounterRecordForMetric(rediscache.MetricCacheLookups).WithLabel("result", "miss").Assert())
	assert.True(t, metrics.HasCounterRecordForMetric(rediscache.MetricCacheLookups).WithLabel("result", "hit").Assert())
	store.AssertExpectations(t)
}

func Test_BookStore_FindByIsbn_Uses_Entry_Cached_By_ID_Lookup(t *testing.T) {
	// arrange
	store := new(mocks.BookStore)
	store.On("FindByID", mock.Anything, lending.BookID(5)).Return(dune, true, nil).Once()
	cache := newCache(t, store, newFakeClient())

	// act
	_, _, err := cache.FindByID(context.Background(), 5)
	require.NoError(t, err)
	book, found, err := cache.FindByIsbn(context.Background(), "978")

	// assert
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, dune, book)
	store.AssertNotCalled(t, "FindByIsbn", mock.Anything, mock.Anything)
}

func Test_BookStore_Does_Not_Cache_Absence(t *testing.T) {
	// arrange
	store := new(mocks.BookStore)
	store.On("FindByIsbn", mock.Anything, "404").Return(lending.Book{}, false, nil).Twice()
	client := newFakeClient()
	cache := newCache(t, store, client)

	// act
	_, found, err := cache.FindByIsbn(context.Background(), "404")
	_, _, _ = cache.FindByIsbn(context.Background(), "404")

	// assert
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, client.data)
	store.AssertExpectations(t)
}

func Test_BookStore_Falls_Back_To_Store_When_Cache_Fails(t *testing.T) {
	// arrange
	store := new(mocks.BookStore)
	store.On("FindByID", mock.Anything, lending.BookID(5)).Return(dune, true, nil)
	client := newFakeClient()
	client.getErr = errors.New("connection refused")
	logger := helper.NewContextualLoggerSpy(true)
	cache := newCache(t, store, client, rediscache.WithContextualLogger(logger))

	// act
	book, found, err := cache.FindByID(context.Background(), 5)

	// assert
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, dune, book)
	assert.True(t, logger.HasLog("warn", "book cache read failed"))
}

func Test_BookStore_Save_Invalidates_Cached_Entries(t *testing.T) {
	// arrange
	renamed := dune
	renamed.Title = "Dune (Deluxe)"
	store := new(mocks.BookStore)
	store.On("FindByID", mock.Anything, lending.BookID(5)).Return(dune, true, nil).Once()
	store.On("Save", mock.Anything, renamed).Return(renamed, nil).Once()
	store.On("FindByID", mock.Anything, lending.BookID(5)).Return(renamed, true, nil).Once()
	cache := newCache(t, store, newFakeClient())

	// act
	_, _, err := cache.FindByID(context.Background(), 5)
	require.NoError(t, err)
	_, err = cache.Save(context.Background(), renamed)
	require.NoError(t, err)
	book, _, err := cache.FindByID(context.Background(), 5)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "Dune (Deluxe)", book.Title)
	store.AssertExpectations(t)
}

func Test_BookStore_Delete_Invalidates_Both_Keys(t *testing.T) {
	// arrange
	store := new(mocks.BookStore)
	store.On("FindByID", mock.Anything, lending.BookID(5)).Return(dune, true, nil)
	store.On("Delete", mock.Anything, lending.Book{ID: 5}).Return(nil).Once()
	client := newFakeClient()
	cache := newCache(t, store, client)
	_, _, err := cache.FindByID(context.Background(), 5)
	require.NoError(t, err)

	// act
	err = cache.Delete(context.Background(), lending.Book{ID: 5})

	// assert
	require.NoError(t, err)
	assert.Empty(t, client.data)
}

func Test_BookStore_Passes_Failed_Writes_Through_Without_Invalidating(t *testing.T) {
	// arrange
	store := new(mocks.BookStore)
	store.On("Save", mock.Anything, mock.Anything).Return(lending.Book{}, lending.ErrDuplicateIsbn)
	client := newFakeClient()
	cache := newCache(t, store, client)

	// act
	_, err := cache.Save(context.Background(), lending.BuildBook("T", "A", "978"))

	// assert
	assert.ErrorIs(t, err, lending.ErrDuplicateIsbn)
	assert.Zero(t, client.delCalls)
}

func Test_BookStore_ExistsByIsbn_And_FindMatching_Always_Reach_The_Store(t *testing.T) {
	// arrange
	store := new(mocks.BookStore)
	store.On("ExistsByIsbn", mock.Anything, "978").Return(true, nil)
	store.On("FindMatching", mock.Anything, lending.Book{}, lending.BuildPageRequest(0, 10)).
		Return(lending.NewPage([]lending.Book{dune}, lending.BuildPageRequest(0, 10), 1), nil)
	client := newFakeClient()
	cache := newCache(t, store, client)

	// act
	exists, existsErr := cache.ExistsByIsbn(context.Background(), "978")
	page, findErr := cache.FindMatching(context.Background(), lending.Book{}, lending.BuildPageRequest(0, 10))

	// assert
	require.NoError(t, existsErr)
	require.NoError(t, findErr)
	assert.True(t, exists)
	assert.Len(t, page.Content, 1)
	assert.Zero(t, client.getCalls)
}

func Test_NewBookStore_Validates_Arguments(t *testing.T) {
	_, err := rediscache.NewBookStore(nil, newFakeClient())
	assert.ErrorIs(t, err, rediscache.ErrNilBookStore)

	_, err = rediscache.NewBookStore(new(mocks.BookStore), nil)
	assert.ErrorIs(t, err, rediscache.ErrNilClient)

	_, err = rediscache.NewBookStore(new(mocks.BookStore), newFakeClient(), rediscache.WithTTL(0))
	assert.ErrorIs(t, err, rediscache.ErrInvalidTTL)
}

func newCache(
	t *testing.T,
	store lending.BookStore,
	client rediscache.KeyValueClient,
	options ...rediscache.Option,
) *rediscache.BookStore {

	t.Helper()

	cache, err := rediscache.NewBookStore(store, client, options...)
	require.NoError(t, err)

	return cache
}

type fakeClient struct {
	data     map[string][]byte
	ttls     map[string]time.Duration
	getErr   error
	getCalls int
	delCalls int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (c *fakeClient) Get(key string) ([]byte, error) {
	c.getCalls++

	if c.getErr != nil {
		return nil, c.getErr
	}

	value, ok := c.data[key]
	if !ok {
		return nil, rediscache.ErrCacheMiss
	}

	return value, nil
}

func (c *fakeClient) Set(key string, value []byte, ttl time.Duration) error {
	c.data[key] = value
	c.ttls[key] = ttl

	return nil
}

func (c *fakeClient) Del(keys ...string) error {
	c.delCalls++

	for _, key := range keys {
		delete(c.data, key)
		delete(c.ttls, key)
	}

	return nil
}
