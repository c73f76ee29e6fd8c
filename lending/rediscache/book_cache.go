package rediscache

import (
	"context"
	"errors"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	// MetricCacheLookups counts cache lookups, labeled by operation and result (hit, miss, error).
	MetricCacheLookups = "book_cache_lookups_total"

	DefaultTTL       = 10 * time.Minute
	DefaultKeyPrefix = "library:book:"

	keyByID   = "id:"
	keyByIsbn = "isbn:"

	opFindByID   = "find_by_id"
	opFindByIsbn = "find_by_isbn"

	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"

	labelOperation = "operation"
	labelResult    = "result"

	logMsgCacheMiss          = "book cache miss"
	logMsgCacheReadFailed    = "book cache read failed"
	logMsgCacheWriteFailed   = "book cache write failed"
	logMsgCacheInvalidFailed = "book cache invalidation failed"
	logAttrKey               = "key"
	logAttrError             = "error"
)

var (
	ErrNilBookStore = errors.New("book store must not be nil")
	ErrNilClient    = errors.New("cache client must not be nil")
	ErrInvalidTTL   = errors.New("cache ttl must be positive")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// cachedBook is the cached representation of a lending.Book.
type cachedBook struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

// BookStore is a lending.BookStore that caches single book lookups in Redis.
type BookStore struct {
	next             lending.BookStore
	client           KeyValueClient
	ttl              time.Duration
	keyPrefix        string
	logger           lending.Logger
	contextualLogger lending.ContextualLogger
	metricsCollector lending.MetricsCollector
}

var _ lending.BookStore = (*BookStore)(nil)

// Option defines a functional option for configuring the BookStore.
type Option func(*BookStore) error

// WithTTL sets how long cached books live.
func WithTTL(ttl time.Duration) Option {
	return func(s *BookStore) error {
		if ttl <= 0 {
			return ErrInvalidTTL
		}

		s.ttl = ttl

		return nil
	}
}

// WithKeyPrefix sets the prefix of all cache keys.
func WithKeyPrefix(prefix string) Option {
	return func(s *BookStore) error {
		s.keyPrefix = prefix
		return nil
	}
}

// WithLogger sets the logger for cache misses (debug) and cache failures (warn).
func WithLogger(logger lending.Logger) Option {
	return func(s *BookStore) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets a contextual logger, it takes precedence over the plain logger.
func WithContextualLogger(logger lending.ContextualLogger) Option {
	return func(s *BookStore) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for hit/miss counting.
func WithMetrics(collector lending.MetricsCollector) Option {
	return func(s *BookStore) error {
		s.metricsCollector = collector
		return nil
	}
}

// NewBookStore wraps next with a read-through cache.
func NewBookStore(next lending.BookStore, client KeyValueClient, options ...Option) (*BookStore, error) {
	if next == nil {
		return nil, ErrNilBookStore
	}

	if client == nil {
		return nil, ErrNilClient
	}

	s := &BookStore{
		next:      next,
		client:    client,
		ttl:       DefaultTTL,
		keyPrefix: DefaultKeyPrefix,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *BookStore) ExistsByIsbn(ctx context.Context, isbn string) (bool, error) {
	return s.next.ExistsByIsbn(ctx, isbn)
}

// Save persists the book and drops its cached entries.
func (s *BookStore) Save(ctx context.Context, book lending.Book) (lending.Book, error) {
	saved, err := s.next.Save(ctx, book)
	if err != nil {
		return lending.Book{}, err
	}

	s.invalidate(ctx, saved.ID, saved.ISBN)

	return saved, nil
}

// FindByID serves the book from the cache or loads and caches it.
func (s *BookStore) FindByID(ctx context.Context, id lending.BookID) (lending.Book, bool, error) {
	return s.readThrough(ctx, opFindByID, s.idKey(id), func() (lending.Book, bool, error) {
		return s.next.FindByID(ctx, id)
	})
}

// FindByIsbn serves the book from the cache or loads and caches it.
func (s *BookStore) FindByIsbn(ctx context.Context, isbn string) (lending.Book, bool, error) {
	return s.readThrough(ctx, opFindByIsbn, s.isbnKey(isbn), func() (lending.Book, bool, error) {
		return s.next.FindByIsbn(ctx, isbn)
	})
}

// Delete removes the book and drops its cached entries.
// A book given without ISBN is looked up first to find its ISBN entry.
func (s *BookStore) Delete(ctx context.Context, book lending.Book) error {
	isbn := book.ISBN
	if isbn == "" {
		if stored, found, err := s.next.FindByID(ctx, book.ID); err == nil && found {
			isbn = stored.ISBN
		}
	}

	if err := s.next.Delete(ctx, book); err != nil {
		return err
	}

	s.invalidate(ctx, book.ID, isbn)

	return nil
}

func (s *BookStore) FindMatching(
	ctx context.Context,
	filter lending.Book,
	pageRequest lending.PageRequest,
) (lending.Page[lending.Book], error) {

	return s.next.FindMatching(ctx, filter, pageRequest)
}

func (s *BookStore) readThrough(
	ctx context.Context,
	operation string,
	key string,
	load func() (lending.Book, bool, error),
) (lending.Book, bool, error) {

	if book, ok := s.lookup(ctx, operation, key); ok {
		return book, true, nil
	}

	book, found, err := load()
	if err != nil || !found {
		return book, found, err
	}

	s.store(ctx, book)

	return book, true, nil
}

func (s *BookStore) lookup(ctx context.Context, operation string, key string) (lending.Book, bool) {
	data, err := s.client.Get(key)

	switch {
	case errors.Is(err, ErrCacheMiss):
		s.countLookup(ctx, operation, resultMiss)
		s.logDebug(ctx, logMsgCacheMiss, logAttrKey, key)

		return lending.Book{}, false

	case err != nil:
		s.countLookup(ctx, operation, resultError)
		s.logWarn(ctx, logMsgCacheReadFailed, logAttrKey, key, logAttrError, err.Error())

		return lending.Book{}, false
	}

	var cached cachedBook
	if unmarshalErr := json.Unmarshal(data, &cached); unmarshalErr != nil {
		s.countLookup(ctx, operation, resultError)
		s.logWarn(ctx, logMsgCacheReadFailed, logAttrKey, key, logAttrError, unmarshalErr.Error())

		return lending.Book{}, false
	}

	s.countLookup(ctx, operation, resultHit)

	return lending.Book{
		ID:     cached.ID,
		Title:  cached.Title,
		Author: cached.Author,
		ISBN:   cached.ISBN,
	}, true
}

// store caches the book under both its ID and its ISBN.
func (s *BookStore) store(ctx context.Context, book lending.Book) {
	data, err := json.Marshal(cachedBook{
		ID:     book.ID,
		Title:  book.Title,
		Author: book.Author,
		ISBN:   book.ISBN,
	})
	if err != nil {
		s.logWarn(ctx, logMsgCacheWriteFailed, logAttrError, err.Error())
		return
	}

	for _, key := range []string{s.idKey(book.ID), s.isbnKey(book.ISBN)} {
		if setErr := s.client.Set(key, data, s.ttl); setErr != nil {
			s.logWarn(ctx, logMsgCacheWriteFailed, logAttrKey, key, logAttrError, setErr.Error())
		}
	}
}

func (s *BookStore) invalidate(ctx context.Context, id lending.BookID, isbn string) {
	keys := []string{s.idKey(id)}
	if isbn != "" {
		keys = append(keys, s.isbnKey(isbn))
	}

	if err := s.client.Del(keys...); err != nil {
		s.logWarn(ctx, logMsgCacheInvalidFailed, logAttrKey, keys[0], logAttrError, err.Error())
	}
}

func (s *BookStore) idKey(id lending.BookID) string {
	return s.keyPrefix + keyByID + strconv.FormatInt(id, 10)
}

func (s *BookStore) isbnKey(isbn string) string {
	return s.keyPrefix + keyByIsbn + isbn
}

func (s *BookStore) countLookup(ctx context.Context, operation string, result string) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		labelOperation: operation,
		labelResult:    result,
	}

	if contextualCollector, ok := s.metricsCollector.(lending.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, MetricCacheLookups, labels)
	} else {
		s.metricsCollector.IncrementCounter(MetricCacheLookups, labels)
	}
}

func (s *BookStore) logDebug(ctx context.Context, msg string, args ...any) {
	switch {
	case s.contextualLogger != nil:
		s.contextualLogger.DebugContext(ctx, msg, args...)
	case s.logger != nil:
		s.logger.Debug(msg, args...)
	}
}

func (s *BookStore) logWarn(ctx context.Context, msg string, args ...any) {
	switch {
	case s.contextualLogger != nil:
		s.contextualLogger.WarnContext(ctx, msg, args...)
	case s.logger != nil:
		s.logger.Warn(msg, args...)
	}
}
