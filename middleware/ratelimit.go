package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dframe-go/dframe/config"
	apperrors "github.com/dframe-go/dframe/pkg/errors"
	"github.com/dframe-go/dframe/router"
)

// RateLimiter defines the interface for rate limiting
type RateLimiter interface {
	// Allow checks if a request is allowed
	Allow(key string) bool

	// Reset resets the rate limiter for a key
	Reset(key string)
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// KeyFunc extracts the key from the request. Defaults to the client IP.
	KeyFunc func(c *router.Context) string

	// Skip determines if rate limiting should be skipped
	Skip func(c *router.Context) bool

	// Store is the rate limiter implementation
	Store RateLimiter

	// RetryAfter is advertised to rejected clients
	RetryAfter time.Duration
}

// limiterEntry holds a rate limiter and its last access time
type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// MemoryStore keeps one token bucket per key and forgets keys idle for
// longer than its TTL. A zero rate means unlimited.
type MemoryStore struct {
	rate     rate.Limit
	burst    int
	ttl      time.Duration
	limiters map[string]*limiterEntry
	mu       sync.Mutex
	now      func() time.Time
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a store from the rate_limit config section and
// starts its eviction loop. Stop ends it.
func NewMemoryStore(cfg config.RateLimitConfig) *MemoryStore {
	s := newMemoryStore(cfg)
	interval := cfg.IdleTTL / 2
	if interval <= 0 {
		interval = time.Minute
	}
	go s.cleanupRoutine(interval)
	return s
}

func newMemoryStore(cfg config.RateLimitConfig) *MemoryStore {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	limit := rate.Limit(cfg.Rate)
	if cfg.Rate <= 0 {
		limit = rate.Inf
	}
	return &MemoryStore{
		rate:     limit,
		burst:    cfg.Burst,
		ttl:      ttl,
		limiters: make(map[string]*limiterEntry),
		now:      time.Now,
		stopped:  make(chan struct{}),
	}
}

// Allow checks if a request is allowed
func (s *MemoryStore) Allow(key string) bool {
	now := s.now()

	s.mu.Lock()
	entry, exists := s.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.rate, s.burst)}
		s.limiters[key] = entry
	}
	entry.lastAccess = now
	s.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// Reset resets the rate limiter for a key
func (s *MemoryStore) Reset(key string) {
	s.mu.Lock()
	delete(s.limiters, key)
	s.mu.Unlock()
}

// Size returns the current number of limiters in the store
func (s *MemoryStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// Stop stops the cleanup routine
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopped) })
}

func (s *MemoryStore) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.evict()
		case <-s.stopped:
			return
		}
	}
}

// evict removes limiters idle for longer than the TTL
func (s *MemoryStore) evict() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.limiters {
		if now.Sub(entry.lastAccess) > s.ttl {
			delete(s.limiters, key)
		}
	}
}

// RateLimit rejects clients that exceed their budget with 429 and a
// Retry-After header. API requests get the error envelope.
func RateLimit(cfg RateLimitConfig) router.MiddlewareFunc {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *router.Context) string { return c.RealIP() }
	}
	if cfg.RetryAfter <= 0 {
		cfg.RetryAfter = time.Second
	}
	retryAfter := strconv.Itoa(int(cfg.RetryAfter.Round(time.Second) / time.Second))

	return func(c *router.Context) router.Result {
		if cfg.Skip != nil && cfg.Skip(c) {
			return router.Next()
		}
		if cfg.Store.Allow(cfg.KeyFunc(c)) {
			return router.Next()
		}

		c.Response().Header().Set("Retry-After", retryAfter)
		resp := apperrors.NewFromCode(apperrors.CodeRateLimitExceeded).
			WithRequestID(apperrors.GetRequestID(c.Response(), c.Request()))
		if c.IsAPI() {
			return router.Halt(resp.Envelope(http.StatusTooManyRequests))
		}
		c.Status(http.StatusTooManyRequests)
		return router.Halt(resp.ErrorDetail.Message)
	}
}
