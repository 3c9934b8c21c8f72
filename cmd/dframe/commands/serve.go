package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dframe-go/dframe/app"
	"github.com/dframe-go/dframe/auth"
	"github.com/dframe-go/dframe/config"
	"github.com/dframe-go/dframe/internal/sample"
	"github.com/dframe-go/dframe/middleware"
	"github.com/dframe-go/dframe/observability/metrics"
	"github.com/dframe-go/dframe/pkg/logger"
	"github.com/dframe-go/dframe/pkg/store"
	"github.com/dframe-go/dframe/pkg/validation"
	"github.com/dframe-go/dframe/router"
)

func newServeCmd(configPath *string) *cobra.Command {
	var address string
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long:  "Run the sample application. With --watch the router is rebuilt whenever the config file changes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if address != "" {
				cfg.Server.Address = address
			}

			log, err := logger.ForApp(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, build, err := newServer(ctx, cfg, log)
			if err != nil {
				return err
			}

			if watch {
				loader := config.NewBofryLoader().WithYAMLFile(*configPath)
				go func() {
					if err := a.Watch(ctx, *configPath, loader, build); err != nil {
						log.Warn("Config watcher stopped", zap.Error(err))
					}
				}()
			}

			errCh := make(chan error, 1)
			go func() { errCh <- a.Run() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			return a.Shutdown(context.Background())
		},
	}

	cmd.Flags().StringVarP(&address, "address", "a", "", "listen address, overrides server.address")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "rebuild the router when the config file changes")

	return cmd
}

// newServer wires the long-lived dependencies and the first router. The
// returned build func makes routers for reloaded configurations.
func newServer(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app.App, app.BuildFunc, error) {
	users, closeUsers, err := store.Open[sample.User](ctx, cfg.Store, "users")
	if err != nil {
		return nil, nil, err
	}
	items, closeItems, err := store.Open[sample.Item](ctx, cfg.Store, "items")
	if err != nil {
		_ = closeUsers()
		return nil, nil, err
	}

	limiter := middleware.NewMemoryStore(cfg.RateLimit)
	deps := sample.Deps{
		Users:     users,
		Items:     items,
		Validator: validation.NewValidator(),
		Limiter:   limiter,
		Logger:    log,
	}
	if jwtService, err := auth.NewJWTServiceFromConfig(cfg.JWT); err == nil {
		deps.JWT = jwtService
	} else {
		log.Warn("JWT disabled", zap.Error(err))
	}

	opts := []app.Option{app.WithConfig(cfg), app.WithLogger(log)}
	var routerOpts []router.Option
	if cfg.Metrics.Enabled {
		prom := metrics.NewPrometheus()
		opts = append(opts, app.WithMetrics(prom))
		routerOpts = append(routerOpts, router.WithRecorder(prom))
	}

	build := func(cfg *config.Config) (*router.Router, error) {
		return sample.NewRouter(cfg, deps, routerOpts...)
	}
	r, err := build(cfg)
	if err != nil {
		limiter.Stop()
		return nil, nil, errors.Join(err, closeUsers(), closeItems())
	}
	opts = append(opts, app.WithRouter(r))

	a, err := app.NewApp(opts...)
	if err != nil {
		limiter.Stop()
		return nil, nil, errors.Join(err, closeUsers(), closeItems())
	}

	a.OnShutdown(func(context.Context) error {
		limiter.Stop()
		return errors.Join(closeUsers(), closeItems())
	})
	return a, build, nil
}
