package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/dframe-go/dframe/config"
	"github.com/dframe-go/dframe/router"
)

// BuildFunc builds a router for a configuration
type BuildFunc func(cfg *config.Config) (*router.Router, error)

// Reload builds a router from cfg and swaps it in. When building fails the
// current router keeps serving. Server settings are not reloaded.
func (app *App) Reload(cfg *config.Config, build BuildFunc) error {
	r, err := build(cfg)
	if err == nil {
		err = app.SwapRouter(r)
	}
	if err != nil {
		app.logger.Error("Router rebuild failed, keeping current router", zap.Error(err))
		return err
	}
	return nil
}

// Watch rebuilds the router every time the configuration file at path
// changes. It blocks until ctx is done.
func (app *App) Watch(ctx context.Context, path string, loader config.Loader, build BuildFunc) error {
	return config.Watch(ctx, path, loader, func(cfg *config.Config) {
		_ = app.Reload(cfg, build)
	}, config.WithWatchLogger(app.logger))
}
