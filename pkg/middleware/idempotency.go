package middleware

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"vetslots/pkg/logger"
)

const IdempotencyKeyHeader = "Idempotency-Key"

// IdempotencyStore tracks one request per key. Claim either hands back the
// response recorded for a finished key, reports that another request holds
// the key, or claims it for the caller. A claimed key must be finished with
// Complete or Release.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string) (cached *CachedResponse, claimed bool, err error)
	Complete(ctx context.Context, key string, response *CachedResponse) error
	Release(ctx context.Context, key string) error
	Stop()
}

type CachedResponse struct {
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers,omitempty"`
	Body       []byte      `json:"body,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

type idempotencyEntry struct {
	response *CachedResponse
	expires  time.Time
}

// InMemoryIdempotencyStore keeps keys in process memory. It only covers
// retries that land on the same instance; NewRedisIdempotencyStore shares
// keys across instances.
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]*idempotencyEntry
	ttl     time.Duration
	lockTTL time.Duration
	now     func() time.Time
	stopCh  chan struct{}
}

func NewInMemoryIdempotencyStore(ttl, lockTTL time.Duration) *InMemoryIdempotencyStore {
	if lockTTL <= 0 {
		lockTTL = time.Minute
	}
	store := &InMemoryIdempotencyStore{
		entries: make(map[string]*idempotencyEntry),
		ttl:     ttl,
		lockTTL: lockTTL,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go store.cleanup()

	return store
}

func (s *InMemoryIdempotencyStore) Claim(_ context.Context, key string) (*CachedResponse, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if entry, ok := s.entries[key]; ok && now.Before(entry.expires) {
		if entry.response == nil {
			return nil, false, nil
		}
		return entry.response, false, nil
	}

	s.entries[key] = &idempotencyEntry{expires: now.Add(s.lockTTL)}
	return nil, true, nil
}

func (s *InMemoryIdempotencyStore) Complete(_ context.Context, key string, response *CachedResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	response.CreatedAt = now
	s.entries[key] = &idempotencyEntry{response: response, expires: now.Add(s.ttl)}
	return nil
}

func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[key]; ok && entry.response == nil {
		delete(s.entries, key)
	}
	return nil
}

func (s *InMemoryIdempotencyStore) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for key, entry := range s.entries {
				if !now.Before(entry.expires) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	close(s.stopCh)
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the first successful response for a repeated key and
// answers 409 while the first request is still running. Keys are scoped to
// the caller, method and path. When the store cannot be reached the request
// is served without replay protection.
func Idempotency(store IdempotencyStore, headerName string, log *logger.Logger) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = IdempotencyKeyHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractIdempotencyKey(r, headerName)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			cached, claimed, err := store.Claim(r.Context(), key)
			switch {
			case err != nil:
				log.Warn("Idempotency store unavailable, serving without replay",
					"request_id", RequestIDFrom(r.Context()),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			case cached != nil:
				replayCachedResponse(w, cached)
				return
			case !claimed:
				writeJSONError(w, http.StatusConflict, `{"error":"A request with this idempotency key is still in progress","code":"REQUEST_IN_PROGRESS"}`)
				return
			}

			capture := captureResponse(w)
			next.ServeHTTP(capture, r)
			finishClaim(context.WithoutCancel(r.Context()), store, key, capture, w, log)
		})
	}
}

func extractIdempotencyKey(r *http.Request, headerName string) string {
	key := strings.TrimSpace(r.Header.Get(headerName))
	if key == "" || r.Method == http.MethodGet {
		return ""
	}
	return strings.Join([]string{r.Header.Get(CallerIDHeader), r.Method, r.URL.Path, key}, "|")
}

func replayCachedResponse(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}

func captureResponse(w http.ResponseWriter) *responseCapture {
	return &responseCapture{
		ResponseWriter: w,
		statusCode:     200,
		body:           &bytes.Buffer{},
	}
}

// finishClaim records 2xx responses for replay and releases the key for
// anything else so the client may retry.
func finishClaim(ctx context.Context, store IdempotencyStore, key string, capture *responseCapture, w http.ResponseWriter, log *logger.Logger) {
	var err error
	if shouldCacheResponse(capture.statusCode) {
		err = store.Complete(ctx, key, &CachedResponse{
			StatusCode: capture.statusCode,
			Headers:    w.Header().Clone(),
			Body:       capture.body.Bytes(),
		})
	} else {
		err = store.Release(ctx, key)
	}
	if err != nil {
		log.Error("Failed to finish idempotency key", "error", err)
	}
}

func shouldCacheResponse(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
