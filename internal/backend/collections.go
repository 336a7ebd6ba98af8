package backend

import (
	"context"
	stderrors "errors"
	"strconv"
	"sync"
	"time"

	"github.com/aethra/misight/internal/cache"
	"github.com/aethra/misight/internal/schema"
)

// Collections serves whole-resource listings from a short-lived cache. Each resource has a
// generation number; invalidating bumps it, so a load that started before a mutation can
// never be served after it.
type Collections struct {
	client  *Client
	cache   cache.Cache
	ttl     time.Duration
	metrics *Metrics

	mu          sync.Mutex
	generations map[string]uint64
}

// NewCollections creates the collection store
func NewCollections(client *Client, c cache.Cache, ttl time.Duration, metrics *Metrics) *Collections {
	return &Collections{
		client:      client,
		cache:       c,
		ttl:         ttl,
		metrics:     metrics,
		generations: make(map[string]uint64),
	}
}

// Client returns the underlying backend client
func (s *Collections) Client() *Client {
	return s.client
}

func (s *Collections) key(resource string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return resource + "#" + strconv.FormatUint(s.generations[resource], 10)
}

// Load returns the collection of resource, fetching it when not cached
func (s *Collections) Load(ctx context.Context, resource string) (schema.Collection, error) {
	key := s.key(resource)
	if v, ok := s.cache.Get(ctx, key); ok {
		s.metrics.cacheOutcome(resource, true)
		return v.(schema.Collection), nil
	}
	s.metrics.cacheOutcome(resource, false)

	v, err := s.cache.GetOrSet(ctx, key, s.ttl, func(loadCtx context.Context) (any, error) {
		return s.client.List(loadCtx, resource)
	})
	if err != nil {
		// The shared load belonged to a request that went away; fetch on our own behalf
		if (stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)) && ctx.Err() == nil {
			return s.client.List(ctx, resource)
		}
		return nil, err
	}
	return v.(schema.Collection), nil
}

// Invalidate drops the cached collection of resource
func (s *Collections) Invalidate(ctx context.Context, resource string) {
	s.mu.Lock()
	old := resource + "#" + strconv.FormatUint(s.generations[resource], 10)
	s.generations[resource]++
	s.mu.Unlock()
	s.cache.Delete(ctx, old)
}

// Reload invalidates resource and fetches it again
func (s *Collections) Reload(ctx context.Context, resource string) (schema.Collection, error) {
	s.Invalidate(ctx, resource)
	return s.Load(ctx, resource)
}
