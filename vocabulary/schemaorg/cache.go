package schemaorg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTTL is how long a fetched vocabulary is considered fresh.
	DefaultTTL = 24 * time.Hour

	// DefaultRetryBackoff is how long a failed load suppresses further
	// attempts.
	DefaultRetryBackoff = 5 * time.Minute
)

// ErrUnavailable is returned when the vocabulary cannot be fetched and no
// earlier copy is cached.
var ErrUnavailable = errors.New("schema.org vocabulary unavailable")

// Source produces a vocabulary, typically by fetching and parsing the
// schema.org release.
type Source interface {
	Load(ctx context.Context) (*Vocabulary, error)
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL sets the freshness window.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithRetryBackoff sets how long a failed load suppresses further attempts.
func WithRetryBackoff(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// WithCacheClock overrides the clock used for freshness checks.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Cache holds one vocabulary for the whole process. It loads lazily,
// refreshes after the TTL, collapses concurrent refreshes into one load and
// keeps serving the previous copy when a refresh fails. After a failed load
// no new attempt is made until the retry backoff has passed.
type Cache struct {
	source  Source
	ttl     time.Duration
	backoff time.Duration
	now     func() time.Time
	logger  *slog.Logger

	group     singleflight.Group
	mu        sync.RWMutex
	vocab     *Vocabulary
	fetchedAt time.Time
	retryAt   time.Time
	lastErr   error
}

// NewCache creates a Cache over source.
func NewCache(source Source, opts ...CacheOption) *Cache {
	c := &Cache{
		source:  source,
		ttl:     DefaultTTL,
		backoff: DefaultRetryBackoff,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached vocabulary, loading or refreshing it as needed.
func (c *Cache) Get(ctx context.Context) (*Vocabulary, error) {
	if vocab, ok, err := c.cached(); ok {
		return vocab, err
	}
	c.mu.RLock()
	vocab := c.vocab
	c.mu.RUnlock()

	ch := c.group.DoChan("vocabulary", func() (any, error) {
		return c.refresh(ctx)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Vocabulary), nil
	case <-ctx.Done():
		if vocab != nil {
			return vocab, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}
}

// cached answers without loading when the copy is fresh or a failed load is
// still backing off. ok is false when a load should be attempted.
func (c *Cache) cached() (*Vocabulary, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	switch {
	case c.vocab != nil && now.Sub(c.fetchedAt) < c.ttl:
		return c.vocab, true, nil
	case now.Before(c.retryAt) && c.vocab != nil:
		return c.vocab, true, nil
	case now.Before(c.retryAt):
		return nil, true, fmt.Errorf("%w: %v", ErrUnavailable, c.lastErr)
	}
	return nil, false, nil
}

func (c *Cache) refresh(ctx context.Context) (*Vocabulary, error) {
	if vocab, ok, err := c.cached(); ok {
		return vocab, err
	}
	c.mu.RLock()
	vocab, fetchedAt := c.vocab, c.fetchedAt
	c.mu.RUnlock()

	fresh, err := c.source.Load(ctx)
	if err != nil {
		c.mu.Lock()
		c.retryAt = c.now().Add(c.backoff)
		c.lastErr = err
		c.mu.Unlock()
		if vocab != nil {
			c.logger.Warn("schema.org vocabulary refresh failed, serving stale copy",
				"error", err, "fetched_at", fetchedAt, "retry_in", c.backoff)
			return vocab, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	c.mu.Lock()
	c.vocab = fresh
	c.fetchedAt = c.now()
	c.retryAt = time.Time{}
	c.lastErr = nil
	c.mu.Unlock()

	c.logger.Debug("schema.org vocabulary loaded",
		"classes", len(fresh.Classes), "properties", len(fresh.Properties))
	return fresh, nil
}

// LastFetchedAt returns when the cached copy was loaded; zero when nothing
// is cached.
func (c *Cache) LastFetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}
