package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"vetslots/pkg/config"
	"vetslots/pkg/contracts"
	"vetslots/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore middleware.IdempotencyStore
	memoryLimiter    *middleware.MemoryRateLimiter
	healthHandler    http.Handler
	appHttpHandler   http.Handler
	closers          []func() error
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

// OnShutdown registers a resource to release after the server drains.
func (a *Application) OnShutdown(closer func() error) {
	a.closers = append(a.closers, closer)
}

func (a *Application) SetApp(handlers ...contracts.Handler) {
	a.setHealthHandler()
	a.setAppHandler(handlers)
	a.setAppServer()
}

// Handler returns the fully wrapped application handler.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

func (a *Application) setHealthHandler() {
	checks := map[string]Pinger{}
	if a.cfg.Client.Mongo != nil {
		checks["mongo"] = func(ctx context.Context) error {
			return a.cfg.Client.Mongo.Ping(ctx, nil)
		}
	}
	if a.cfg.Client.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return a.cfg.Client.Redis.Ping(ctx).Err()
		}
	}

	healthRouter := httprouter.New()
	NewHealthHandler(checks, a.cfg.Log).RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(handlers []contracts.Handler) {
	appRouter := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(appRouter)
	}

	a.idempotencyStore = a.newIdempotencyStore()

	var appHttpHandler http.Handler = appRouter
	appHttpHandler = middleware.Idempotency(a.idempotencyStore, middleware.IdempotencyKeyHeader, a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.RequestTimeout(a.cfg.RequestTimeout, a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.RateLimit(a.rateLimiter(), middleware.CallerKey, a.cfg.RateLimitFailOpen, a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.ContentTypeValidation(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(appHttpHandler)
	appHttpHandler = middleware.RequestLogging(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.Recovery(a.cfg.Log)(appHttpHandler)
	a.appHttpHandler = appHttpHandler
	a.cfg.Log.Info("Application endpoints configured with full middleware stack")
}

// newIdempotencyStore shares keys through Redis when it is configured, so a
// retry that lands on another instance still replays. An in-flight claim
// lives as long as the request timeout allows the first attempt to run.
func (a *Application) newIdempotencyStore() middleware.IdempotencyStore {
	if a.cfg.Client.Redis != nil {
		return middleware.NewRedisIdempotencyStore(a.cfg.Client.Redis, a.cfg.IdempotencyTTL, a.cfg.RequestTimeout, "")
	}
	return middleware.NewInMemoryIdempotencyStore(a.cfg.IdempotencyTTL, a.cfg.RequestTimeout)
}

// rateLimiter prefers the shared Redis limiter so every instance draws from
// one budget; without Redis each instance limits on its own.
func (a *Application) rateLimiter() middleware.RateLimiter {
	if a.cfg.Client.Redis != nil {
		return middleware.NewRedisRateLimiter(
			a.cfg.Client.Redis,
			a.cfg.RateLimitRequests,
			a.cfg.RateLimitWindow,
			a.cfg.RateLimitPrefix,
		)
	}
	a.memoryLimiter = middleware.NewMemoryRateLimiter(a.cfg.RateLimitRequests, a.cfg.RateLimitWindow)
	return a.memoryLimiter
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/", a.appHttpHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig.String())
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Error("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Stopping background workers...")
	a.idempotencyStore.Stop()
	if a.memoryLimiter != nil {
		a.memoryLimiter.Stop()
	}
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			a.cfg.Log.Error("Failed to release resource", "error", err)
		}
	}

	a.cfg.GracefulShutdown()
	a.cfg.Log.Info("Server stopped gracefully")
}
