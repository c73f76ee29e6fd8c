// Package rediscache provides a read-through cache for book lookups in front of any lending.BookStore.
//
// FindByID and FindByIsbn are served from Redis when possible and fill the cache on a miss.
// Save and Delete invalidate the cached entries of the book. Existence checks and searches
// always reach the wrapped store, so the ISBN uniqueness check never sees stale data.
//
// The cache degrades gracefully: if Redis fails, the lookup falls through to the wrapped store
// and the failure is logged at warn level.
package rediscache
