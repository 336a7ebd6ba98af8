// Package cache holds short-lived copies of backend collections
package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"golang.org/x/sync/singleflight"
)

// Cache defines the interface for a generic cache with TTL support
type Cache interface {
	Get(ctx context.Context, key string) (any, bool)
	Set(ctx context.Context, key string, value any, ttl time.Duration) bool
	Delete(ctx context.Context, key string)
	GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) (any, error)) (any, error)
	Wait()
}

// RistrettoCache implements Cache on top of ristretto, collapsing concurrent loads of one key
type RistrettoCache struct {
	store       *ristretto.Cache
	singleGroup singleflight.Group
	config      *Config
}

// Config holds configuration for the cache
type Config struct {
	// MaxCost bounds the number of cached entries; every entry costs 1
	MaxCost     int64
	NumCounters int64
	BufferItems int64
}

// DefaultConfig returns a default cache configuration
func DefaultConfig() *Config {
	return &Config{
		MaxCost:     1 << 12,
		NumCounters: 1 << 15,
		BufferItems: 64,
	}
}

// New creates a new RistrettoCache
func New(config *Config) (*RistrettoCache, error) {
	if config == nil {
		config = DefaultConfig()
	}

	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: config.NumCounters,
		MaxCost:     config.MaxCost,
		BufferItems: config.BufferItems,
		// Cost counts entries, not bytes
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}

	c := &RistrettoCache{
		store:  store,
		config: config,
	}
	c.store.Wait()
	return c, nil
}

// Get retrieves a value from the cache
func (c *RistrettoCache) Get(ctx context.Context, key string) (any, bool) {
	select {
	case <-ctx.Done():
		return nil, false
	default:
	}
	return c.store.Get(key)
}

// Set stores a value with TTL. A zero ttl keeps the value until evicted.
func (c *RistrettoCache) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	default:
	}
	return c.store.SetWithTTL(key, value, 1, ttl)
}

// Delete removes a value from the cache
func (c *RistrettoCache) Delete(ctx context.Context, key string) {
	c.store.Del(key)
}

// GetOrSet returns the cached value for key or runs loader once for all concurrent callers.
// The loader receives the context of the caller that started the load.
func (c *RistrettoCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) (any, error)) (any, error) {
	if value, found := c.Get(ctx, key); found {
		return value, nil
	}

	ch := c.singleGroup.DoChan(key, func() (any, error) {
		// Double-check after winning the flight
		if value, found := c.store.Get(key); found {
			return value, nil
		}

		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}

		c.store.SetWithTTL(key, value, 1, ttl)
		// Make the value visible to the next Get
		c.store.Wait()
		return value, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// Wait blocks until buffered writes are applied
func (c *RistrettoCache) Wait() {
	c.store.Wait()
}

// Close stops the ristretto goroutines
func (c *RistrettoCache) Close() {
	c.store.Close()
}
