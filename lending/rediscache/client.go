package rediscache

import (
	"errors"
	"time"

	"gopkg.in/redis.v5"
)

// ErrCacheMiss is returned by a KeyValueClient when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// KeyValueClient is the subset of a Redis client the cache needs.
type KeyValueClient interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
	Del(keys ...string) error
}

// RedisClient adapts a redis.v5 client to KeyValueClient.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a RedisClient connected to addr.
func NewRedisClient(addr string, password string, db int) *RedisClient {
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// NewRedisClientFrom wraps an existing redis.v5 client.
func NewRedisClientFrom(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

func (c *RedisClient) Get(key string) ([]byte, error) {
	value, err := c.client.Get(key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}

	return value, err
}

func (c *RedisClient) Set(key string, value []byte, ttl time.Duration) error {
	return c.client.Set(key, value, ttl).Err()
}

func (c *RedisClient) Del(keys ...string) error {
	return c.client.Del(keys...).Err()
}

// Ping checks the connection.
func (c *RedisClient) Ping() error {
	return c.client.Ping().Err()
}

// Close releases the connection pool.
func (c *RedisClient) Close() error {
	return c.client.Close()
}
