// Package sample is the demo application served by `dframe serve`: user
// management pages, an items API and JWT token issuing, on top of the
// configured record store.
package sample

import (
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/dframe-go/dframe/auth"
	"github.com/dframe-go/dframe/config"
	"github.com/dframe-go/dframe/middleware"
	apperrors "github.com/dframe-go/dframe/pkg/errors"
	"github.com/dframe-go/dframe/pkg/store"
	"github.com/dframe-go/dframe/pkg/validation"
	"github.com/dframe-go/dframe/router"
)

func init() {
	apperrors.Register(store.ErrNotFound, apperrors.CodeResourceNotFound, http.StatusNotFound, "Record not found")
}

// Deps are the long-lived services shared by every router built for the
// application. They survive configuration reloads.
type Deps struct {
	Users     store.Store[User]
	Items     store.Store[Item]
	Validator *validation.Validator
	// JWT enables the auth middleware and the token endpoints when set
	JWT *auth.JWTService
	// Limiter enables the throttle middleware on API routes when set
	Limiter middleware.RateLimiter
	Logger  *zap.Logger
}

// NewDeps builds in-memory dependencies, for tests and the routes listing
func NewDeps() Deps {
	return Deps{
		Users:     store.NewMemory[User](),
		Items:     store.NewMemory[Item](),
		Validator: validation.NewValidator(),
		Logger:    zap.NewNop(),
	}
}

// Handlers lists the handler references usable from a route manifest
func Handlers() *router.HandlerSet {
	return router.NewHandlerSet().
		Controller("UserController", map[string]any{
			"listUsers":  listUsers,
			"addUser":    addUser,
			"storeUser":  storeUser,
			"editUser":   editUser,
			"updateUser": updateUser,
			"deleteUser": deleteUser,
		}).
		Controller("SitemapController", map[string]any{
			"index": sitemap,
		})
}

// NewRouter builds the application's router for cfg. Extra options are
// applied after the ones derived from cfg.
func NewRouter(cfg *config.Config, deps Deps, opts ...router.Option) (*router.Router, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Validator == nil {
		deps.Validator = validation.NewValidator()
	}

	container := router.NewContainer()
	router.Register(container, deps.Users)
	router.Register(container, deps.Items)
	router.Register(container, deps.Validator)
	if deps.JWT != nil {
		router.Register(container, deps.JWT)
	}

	proxies, err := router.ParseTrustedProxies(cfg.Router.TrustedProxies)
	if err != nil {
		return nil, err
	}

	registry := router.NewRegistry()
	middleware.Register(registry, cfg, deps.JWT, deps.Limiter, logger)

	base := []router.Option{
		router.WithLogger(logger),
		router.WithContainer(container),
		router.WithRegistry(registry),
		router.WithHandlerSet(Handlers()),
		router.WithBasePath(cfg.Router.BasePath),
		router.WithBaseURL(cfg.Router.BaseURL),
		router.WithMethodOverride(cfg.Router.MethodOverride),
		router.WithTrustedProxies(proxies),
	}
	r := router.New(append(base, opts...)...)

	global := []string{middleware.RequestIDName, middleware.MaintenanceName}
	r.Use(router.Names(global...)...)
	if deps.Limiter != nil {
		global = append(global, middleware.ThrottleName)
	}
	r.UseAPI(router.Names(global...)...)

	if err := registerRoutes(r, deps); err != nil {
		return nil, err
	}

	if cfg.Router.Manifest != "" {
		f, err := os.Open(cfg.Router.Manifest)
		if err != nil {
			return nil, fmt.Errorf("open route manifest: %w", err)
		}
		defer f.Close()
		if err := r.LoadManifest(f); err != nil {
			return nil, fmt.Errorf("load route manifest %s: %w", cfg.Router.Manifest, err)
		}
	}

	return r, nil
}

// registerRoutes declares the web and API routes. Registration helpers panic
// on conflicts; those panics come back as errors.
func registerRoutes(r *router.Router, deps Deps) (err error) {
	defer func() {
		if p := recover(); p != nil {
			if e, ok := p.(error); ok {
				err = e
				return
			}
			panic(p)
		}
	}()

	r.Sign("GET /", func() string { return "<h1>Hello, World!</h1>" }).Name("home")

	r.Group("/user").NamePrefix("user.").Action(func(g *router.Group) {
		g.Sign("GET /list", "UserController@listUsers").Name("list")
		g.Sign("GET /store", "UserController@addUser").Name("add")
		g.Sign("POST /store", "UserController@storeUser").Name("store")
		g.Sign("GET /edit/{id}", "UserController@editUser").Name("edit")
		g.Sign("POST /edit/{id}", "UserController@updateUser").Name("update")
		g.Sign("DELETE /delete/{id}", "UserController@deleteUser").Name("delete")
	})

	r.Sign("GET /sitemap.xml", "SitemapController@index").Name("sitemap")

	if err := r.Default(func() string { return "<h1>404 Not Found</h1>" }); err != nil {
		return err
	}

	r.SignAPI("GET /", func() string { return "Hello, World!" }).Name("api.home")

	if err := r.ScanControllers(&ItemController{Items: deps.Items, Validator: deps.Validator}); err != nil {
		return err
	}

	if deps.JWT != nil {
		r.SignAPI("POST /auth/token", issueToken).Name("api.auth.token")
		r.SignAPI("POST /auth/refresh", refreshToken).Name("api.auth.refresh")
		r.SignAPI("GET /me", me, router.Named(middleware.AuthName)).Name("api.me")
	}
	return nil
}
