package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"vetslots/pkg/logger"
)

const CallerIDHeader = "X-Caller-Id"

// RateLimiter counts a request against key and reports whether it may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type KeyExtractor func(r *http.Request) string

// CallerKey limits by caller identity, falling back to the remote address for
// anonymous reads.
func CallerKey(r *http.Request) string {
	if caller := r.Header.Get(CallerIDHeader); caller != "" {
		return "caller:" + caller
	}
	return "addr:" + r.RemoteAddr
}

// MemoryRateLimiter is a sliding-window limiter for single-instance deployments.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	limiter := &MemoryRateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *MemoryRateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, timestamps := range rl.requests {
				if len(timestamps) == 0 || now.Sub(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *MemoryRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	if key == "" {
		return true, nil
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	valid := rl.requests[key][:0]
	for _, ts := range rl.requests[key] {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false, nil
	}

	rl.requests[key] = append(valid, now)
	return true, nil
}

// RateLimit rejects requests over the limiter's budget. When the limiter
// itself fails, failOpen decides whether the request is served.
func RateLimit(limiter RateLimiter, extract KeyExtractor, failOpen bool, log *logger.Logger) func(http.Handler) http.Handler {
	if extract == nil {
		extract = CallerKey
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extract(r)

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				log.Warn("Rate limiter error",
					"request_id", RequestIDFrom(r.Context()),
					"error", err,
					"fail_open", failOpen,
				)
				if failOpen {
					next.ServeHTTP(w, r)
					return
				}
				writeJSONError(w, http.StatusServiceUnavailable, `{"error":"Rate limiter unavailable","code":"SERVICE_UNAVAILABLE"}`)
				return
			}

			if !allowed {
				log.Warn("Rate limit exceeded",
					"request_id", RequestIDFrom(r.Context()),
					"key", key,
					"path", r.URL.Path,
				)
				writeJSONError(w, http.StatusTooManyRequests, `{"error":"Rate limit exceeded","code":"RATE_LIMITED"}`)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
