// Package cache stores ranked search results in Redis so repeated queries
// skip the index.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces result keys.
const keyPrefix = "spidersearch:results:"

// Cache stores result lists by term set.
type Cache interface {
	// Get returns the cached URLs for terms. ok is false on a miss.
	Get(ctx context.Context, terms []string) (urls []string, ok bool, err error)
	// Set stores urls for terms.
	Set(ctx context.Context, terms []string, urls []string) error
}

// Key returns the cache key of a term set. Order and repetition of terms
// do not change the key.
func Key(terms []string) string {
	set := slices.Clone(terms)
	slices.Sort(set)
	set = slices.Compact(set)

	sum := sha256.Sum256([]byte(strings.Join(set, " ")))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// RedisCache keeps results in Redis with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Cache = (*RedisCache)(nil)

// NewRedisClient returns a client for addr. No connection is made until the
// first command.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedis returns a cache on client whose entries expire after ttl.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, terms []string) ([]string, bool, error) {
	data, err := c.client.Get(ctx, Key(terms)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached results: %w", err)
	}

	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached results: %w", err)
	}
	return urls, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, terms []string, urls []string) error {
	if urls == nil {
		urls = []string{}
	}
	data, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	if err := c.client.Set(ctx, Key(terms), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache results: %w", err)
	}
	return nil
}

// Nop never stores anything. It is used when no Redis address is configured.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, []string) ([]string, bool, error) { return nil, false, nil }

// Set discards urls.
func (Nop) Set(context.Context, []string, []string) error { return nil }
