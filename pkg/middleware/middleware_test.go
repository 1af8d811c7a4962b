package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"vetslots/pkg/logger"
)

func okHandler(calls *int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":"ok"}`))
	})
}

func TestMemoryRateLimiter_Window(t *testing.T) {
	limiter := NewMemoryRateLimiter(2, time.Minute)
	defer limiter.Stop()

	current := time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	for i := 0; i < 2; i++ {
		if ok, _ := limiter.Allow(context.Background(), "caller:a"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if ok, _ := limiter.Allow(context.Background(), "caller:a"); ok {
		t.Fatal("third request inside the window should be rejected")
	}
	if ok, _ := limiter.Allow(context.Background(), "caller:b"); !ok {
		t.Fatal("other callers have their own budget")
	}

	current = current.Add(time.Minute)
	if ok, _ := limiter.Allow(context.Background(), "caller:a"); !ok {
		t.Fatal("request after the window should be allowed")
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimit(t *testing.T) {
	log := logger.Discard()

	t.Run("rejects over budget", func(t *testing.T) {
		limiter := NewMemoryRateLimiter(1, time.Minute)
		defer limiter.Stop()
		var calls int32
		h := RateLimit(limiter, nil, true, log)(okHandler(&calls))

		for i, want := range []int{http.StatusCreated, http.StatusTooManyRequests} {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
			req.Header.Set(CallerIDHeader, "owner-1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != want {
				t.Errorf("request %d: status = %d, want %d", i+1, rec.Code, want)
			}
		}
	})

	t.Run("fail open", func(t *testing.T) {
		var calls int32
		h := RateLimit(failingLimiter{}, nil, true, log)(okHandler(&calls))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusCreated || calls != 1 {
			t.Errorf("status = %d calls = %d, want request served", rec.Code, calls)
		}
	})

	t.Run("fail closed", func(t *testing.T) {
		var calls int32
		h := RateLimit(failingLimiter{}, nil, false, log)(okHandler(&calls))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusServiceUnavailable || calls != 0 {
			t.Errorf("status = %d calls = %d, want 503 and no call", rec.Code, calls)
		}
	})
}

func TestIdempotency_ReplaysSuccessfulWrite(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour, time.Minute)
	defer store.Stop()

	var calls int32
	h := Idempotency(store, "", logger.Discard())(okHandler(&calls))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(`{}`))
		req.Header.Set(IdempotencyKeyHeader, "booking-1")
		req.Header.Set(CallerIDHeader, "owner-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("request %d: status = %d", i+1, rec.Code)
		}
	}
	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(`{}`))
	req.Header.Set(IdempotencyKeyHeader, "booking-1")
	req.Header.Set(CallerIDHeader, "owner-2")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if calls != 2 {
		t.Errorf("same key from another caller must not replay, calls = %d", calls)
	}
}

func TestContentTypeValidation(t *testing.T) {
	var calls int32
	h := ContentTypeValidation(logger.Discard())(okHandler(&calls))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/appointments/id/1/cancel", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Errorf("bodiless PATCH status = %d, want pass-through", rec.Code)
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRequestLogging_PropagatesRequestID(t *testing.T) {
	var seen string
	h := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "req-123" {
		t.Errorf("request id = %q, want req-123", seen)
	}
	if rec.Header().Get(RequestIDHeader) != "req-123" {
		t.Errorf("response header = %q", rec.Header().Get(RequestIDHeader))
	}
}

func TestRequestTimeout(t *testing.T) {
	h := RequestTimeout(20*time.Millisecond, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"code":"TIMEOUT"`) {
		t.Errorf("body = %s, want TIMEOUT code", rec.Body.String())
	}
}

func TestRequestTimeout_LateHandlerHeadersDoNotLeak(t *testing.T) {
	served := make(chan struct{})
	finished := make(chan struct{})
	h := RequestTimeout(20*time.Millisecond, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(finished)
		<-served
		w.Header().Set("X-Late", "1")
		w.WriteHeader(http.StatusCreated)
		if _, err := w.Write([]byte("late")); !errors.Is(err, http.ErrHandlerTimeout) {
			t.Errorf("late write err = %v, want ErrHandlerTimeout", err)
		}
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	close(served)
	<-finished

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
	if rec.Header().Get("X-Late") != "" {
		t.Error("header set after the deadline reached the client")
	}
	if strings.Contains(rec.Body.String(), "late") {
		t.Errorf("body = %s, late write leaked", rec.Body.String())
	}
}

func TestRequestTimeout_CopiesHandlerHeaders(t *testing.T) {
	h := RequestTimeout(time.Second, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Request-Trace", "abc")
		_, _ = w.Write([]byte(`{}`))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Request-Trace") != "abc" || rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("headers = %v, handler headers missing", rec.Header())
	}
}
