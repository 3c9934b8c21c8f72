// Package app hosts a dframe router behind an echo server: recovery, gzip,
// CORS and body limits in front, Prometheus metrics on the side, and a router
// that can be swapped while the server runs.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/dframe-go/dframe/config"
	"github.com/dframe-go/dframe/observability/metrics"
	"github.com/dframe-go/dframe/router"
)

// ShutdownHook is a function that gets called during shutdown
type ShutdownHook func(ctx context.Context) error

// App represents the main application instance
type App struct {
	e               *echo.Echo
	config          *config.Config
	logger          *zap.Logger
	router          atomic.Pointer[router.Router]
	metrics         *metrics.Prometheus
	shutdownHooks   []ShutdownHook
	shutdownTimeout time.Duration
	mu              sync.RWMutex
}

// Option defines a functional option for App
type Option func(*App) error

// NewApp creates a new application instance with the given options
func NewApp(opts ...Option) (*App, error) {
	app := &App{
		e:               echo.New(),
		config:          config.DefaultConfig(),
		logger:          zap.NewNop(),
		shutdownTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	proxies, err := router.ParseTrustedProxies(app.config.Router.TrustedProxies)
	if err != nil {
		return nil, err
	}
	app.e.IPExtractor = proxies.RealIP

	app.setupEcho()
	return app, nil
}

// WithConfig sets the application configuration
func WithConfig(cfg *config.Config) Option {
	return func(app *App) error {
		if cfg == nil {
			return fmt.Errorf("config cannot be nil")
		}
		app.config = cfg
		if cfg.Server.ShutdownTimeout > 0 {
			app.shutdownTimeout = cfg.Server.ShutdownTimeout
		}
		return nil
	}
}

// WithLogger sets the application logger
func WithLogger(logger *zap.Logger) Option {
	return func(app *App) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		app.logger = logger
		return nil
	}
}

// WithRouter installs the initial router
func WithRouter(r *router.Router) Option {
	return func(app *App) error {
		return app.SwapRouter(r)
	}
}

// WithMetrics exposes p on the configured metrics path
func WithMetrics(p *metrics.Prometheus) Option {
	return func(app *App) error {
		app.metrics = p
		return nil
	}
}

// WithShutdownTimeout sets the shutdown timeout duration
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(app *App) error {
		if timeout <= 0 {
			return fmt.Errorf("shutdown timeout must be positive")
		}
		app.shutdownTimeout = timeout
		return nil
	}
}

// setupEcho configures the Echo instance with middleware and settings
func (app *App) setupEcho() {
	app.e.HideBanner = true
	app.e.HidePort = true
	app.e.Debug = app.config.App.Debug

	srv := app.config.Server
	app.e.Server.ReadTimeout = srv.ReadTimeout
	app.e.Server.WriteTimeout = srv.WriteTimeout
	app.e.Server.IdleTimeout = srv.IdleTimeout

	if srv.Recovery {
		app.e.Use(middleware.Recover())
	}
	if srv.BodyLimit != "" {
		app.e.Use(middleware.BodyLimit(srv.BodyLimit))
	}
	if srv.GZip {
		app.e.Use(middleware.Gzip())
	}
	if srv.CORS {
		app.e.Use(middleware.CORS())
	}

	if app.metrics != nil && app.config.Metrics.Enabled {
		app.e.GET(app.config.Metrics.Path, echo.WrapHandler(app.metrics.Handler()))
	}
	if app.config.App.Debug {
		app.e.GET("/_routes", app.routes)
		app.logger.Info("Development routes registered", zap.String("routes", "/_routes"))
	}

	h := echo.WrapHandler(app)
	app.e.Any("/", h)
	app.e.Any("/*", h)
}

// ServeHTTP hands the request to the current router
func (app *App) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r := app.router.Load()
	if r == nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}
	r.ServeHTTP(w, req)
}

// routes lists the current router's table
func (app *App) routes(c echo.Context) error {
	r := app.router.Load()
	if r == nil {
		return c.JSON(http.StatusOK, map[string]any{"total_routes": 0, "routes": []router.RouteInfo{}})
	}
	routes := r.Routes()
	return c.JSON(http.StatusOK, map[string]any{
		"total_routes": len(routes),
		"routes":       routes,
	})
}

// Router returns the router currently serving requests
func (app *App) Router() *router.Router {
	return app.router.Load()
}

// SwapRouter freezes r and makes it serve every following request. Requests
// already dispatched finish on the previous router.
func (app *App) SwapRouter(r *router.Router) error {
	if r == nil {
		return fmt.Errorf("router cannot be nil")
	}
	if !r.Frozen() {
		if err := r.Freeze(); err != nil {
			return fmt.Errorf("freeze router: %w", err)
		}
	}
	if old := app.router.Swap(r); old != nil {
		app.logger.Info("Router swapped", zap.Int("routes", len(r.Routes())))
	}
	return nil
}

// Echo returns the underlying Echo instance
func (app *App) Echo() *echo.Echo {
	return app.e
}

// Config returns the configuration the app was built with
func (app *App) Config() *config.Config {
	return app.config
}

// Run starts the HTTP server and blocks until it stops. A server stopped by
// Shutdown returns nil.
func (app *App) Run() error {
	address := app.config.Server.Address
	if address == "" {
		address = ":8080"
	}

	app.logger.Info("Starting server", zap.String("address", address))

	if err := app.e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RegisterShutdownHook registers a function to be called during shutdown
func (app *App) RegisterShutdownHook(hook ShutdownHook) {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.shutdownHooks = append(app.shutdownHooks, hook)
}

// OnShutdown is a convenience method for registering shutdown hooks
func (app *App) OnShutdown(fn func(context.Context) error) {
	app.RegisterShutdownHook(ShutdownHook(fn))
}

// Shutdown stops the server and runs the shutdown hooks. Without a deadline
// on ctx the configured shutdown timeout applies.
func (app *App) Shutdown(ctx context.Context) error {
	app.logger.Info("Starting graceful shutdown")

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.shutdownTimeout)
		defer cancel()
	}

	app.logger.Info("Shutting down HTTP server")
	if err := app.e.Shutdown(ctx); err != nil {
		app.logger.Error("Error shutting down HTTP server", zap.Error(err))
		return err
	}

	if err := app.runShutdownHooks(ctx); err != nil {
		app.logger.Error("Error running shutdown hooks", zap.Error(err))
		return err
	}

	app.logger.Info("Graceful shutdown completed")
	return nil
}

// runShutdownHooks executes all registered shutdown hooks in parallel
func (app *App) runShutdownHooks(ctx context.Context) error {
	app.mu.RLock()
	hooks := make([]ShutdownHook, len(app.shutdownHooks))
	copy(hooks, app.shutdownHooks)
	app.mu.RUnlock()

	if len(hooks) == 0 {
		return nil
	}

	app.logger.Info("Running shutdown hooks", zap.Int("count", len(hooks)))

	var wg sync.WaitGroup
	errs := make([]error, len(hooks))
	for i, hook := range hooks {
		wg.Add(1)
		go func(idx int, h ShutdownHook) {
			defer wg.Done()
			if err := h(ctx); err != nil {
				errs[idx] = fmt.Errorf("shutdown hook %d failed: %w", idx, err)
			}
		}(i, hook)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("shutdown hooks timed out: %w", ctx.Err())
	}

	return errors.Join(errs...)
}
