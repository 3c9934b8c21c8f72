package router

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Router holds the standard and API route tables, the named route registry
// and the dispatch configuration.
//
// Routes are registered at startup, from one goroutine, before the router
// serves requests. Freeze ends the registration phase; dispatch then reads the
// tables without locking.
type Router struct {
	mu sync.RWMutex

	standard *table
	api      *table
	order    []*Route

	global    []Middleware
	globalAPI []Middleware

	names map[string]NamedRoute
	last  *NamedRoute

	def    *defaultRoute
	frozen bool

	root    *Group
	current *Group

	logger         *zap.Logger
	container      *Container
	registry       *Registry
	handlers       *HandlerSet
	recorder       Recorder
	errorHandler   ErrorHandler
	basePath       string
	baseURL        string
	methodOverride bool
	proxies        *TrustedProxies
}

type defaultRoute struct {
	handler HandlerFunc
	status  int
	deps    []reflect.Type
}

// RouteInfo describes a registered route
type RouteInfo struct {
	Method     Method   `json:"method" yaml:"method"`
	Path       string   `json:"path" yaml:"path"`
	API        bool     `json:"api" yaml:"api"`
	Name       string   `json:"name,omitempty" yaml:"name,omitempty"`
	Middleware []string `json:"middleware,omitempty" yaml:"middleware,omitempty"`
}

// New creates an empty router
func New(opts ...Option) *Router {
	r := &Router{
		standard:       newTable(),
		api:            newTable(),
		names:          make(map[string]NamedRoute),
		logger:         zap.NewNop(),
		container:      NewContainer(),
		registry:       NewRegistry(),
		handlers:       NewHandlerSet(),
		recorder:       nopRecorder{},
		errorHandler:   defaultErrorHandler,
		methodOverride: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.root = &Group{router: r}
	return r
}

// Logger returns the router logger
func (r *Router) Logger() *zap.Logger { return r.logger }

// Container returns the dependency container used by bound handlers
func (r *Router) Container() *Container { return r.container }

// Registry returns the named middleware registry
func (r *Router) Registry() *Registry { return r.registry }

// Handlers returns the "Controller@method" handler registry
func (r *Router) Handlers() *HandlerSet { return r.handlers }

// RegisterMiddleware adds a named middleware to the router's registry
func (r *Router) RegisterMiddleware(name string, fn MiddlewareFunc) {
	r.registry.Register(name, fn)
}

// Use appends global middleware run before every standard route
func (r *Router) Use(mw ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.global = append(r.global, mw...)
}

// UseAPI appends global middleware run before every API route
func (r *Router) UseAPI(mw ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.globalAPI = append(r.globalAPI, mw...)
}

// scope is the group registrations on the router itself go to: the group
// whose Action is running, or the root.
func (r *Router) scope() *Group {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current != nil {
		return r.current
	}
	return r.root
}

// Group opens a scope below the active one
func (r *Router) Group(prefix string) *Group { return r.scope().Group(prefix) }

// Handle registers a standard route in the active scope
func (r *Router) Handle(spec string, handler any, mw ...Middleware) error {
	return r.scope().Handle(spec, handler, mw...)
}

// HandleAPI registers an API route in the active scope
func (r *Router) HandleAPI(spec string, handler any, mw ...Middleware) error {
	return r.scope().HandleAPI(spec, handler, mw...)
}

// Sign is Handle that panics on a registration error
func (r *Router) Sign(spec string, handler any, mw ...Middleware) *Group {
	return r.scope().Sign(spec, handler, mw...)
}

// SignAPI is HandleAPI that panics on a registration error
func (r *Router) SignAPI(spec string, handler any, mw ...Middleware) *Group {
	return r.scope().SignAPI(spec, handler, mw...)
}

// All registers path for every supported verb
func (r *Router) All(path string, handler any, mw ...Middleware) *Group {
	return r.scope().All(path, handler, mw...)
}

// Name names the most recently registered route in the active scope
func (r *Router) Name(name string) *Group { return r.scope().Name(name) }

// Default sets the handler for requests no route accepts. The response
// status is status (404 when omitted) unless the handler sets another one.
func (r *Router) Default(handler any, status ...int) error {
	h, deps, err := r.adapt(handler)
	if err != nil {
		return err
	}
	code := 404
	if len(status) > 0 && status[0] > 0 {
		code = status[0]
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return &RegistrationError{Kind: ErrRouterFrozen}
	}
	r.def = &defaultRoute{handler: h, status: code, deps: deps}
	return nil
}

// register adds one route per verb of spec to the standard or API table
func (r *Router) register(g *Group, api bool, spec string, handler any, mw []Middleware) error {
	parsed, err := parseSpec(spec)
	if err != nil {
		return err
	}
	path := joinPath(g.prefix, parsed.path)
	if api {
		path = apiPath(path)
	}

	h, deps, err := r.adapt(handler)
	if err != nil {
		var regErr *RegistrationError
		if errors.As(err, &regErr) && regErr.Path == "" {
			regErr.Method = parsed.methods[0]
			regErr.Path = path
			regErr.Spec = spec
		}
		return err
	}

	chain := make([]Middleware, 0, len(g.middleware)+len(mw))
	chain = append(chain, g.middleware...)
	chain = append(chain, mw...)
	matcher, params := compilePattern(path)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return &RegistrationError{Kind: ErrRouterFrozen, Method: parsed.methods[0], Path: path, Spec: spec}
	}

	tbl := r.standard
	if api {
		tbl = r.api
	}
	seen := make(map[Method]bool, len(parsed.methods))
	for _, m := range parsed.methods {
		if seen[m] || tbl.has(m, path) {
			return &RegistrationError{Kind: ErrDuplicateRoute, Method: m, Path: path, Spec: spec}
		}
		seen[m] = true
	}

	for _, m := range parsed.methods {
		rt := &Route{
			Method:     m,
			Pattern:    path,
			API:        api,
			Handler:    h,
			Middleware: chain,
			params:     params,
			matcher:    matcher,
			deps:       deps,
		}
		tbl.insert(rt)
		r.order = append(r.order, rt)
	}
	r.last = &NamedRoute{Method: parsed.methods[0], Path: path, API: api}

	r.logger.Debug("Route registered",
		zap.String("spec", spec),
		zap.String("path", path),
		zap.Bool("api", api),
		zap.Int("middleware", len(chain)))
	return nil
}

// adapt turns any supported handler form into a HandlerFunc
func (r *Router) adapt(handler any) (HandlerFunc, []reflect.Type, error) {
	switch h := handler.(type) {
	case nil:
		return nil, nil, &RegistrationError{Kind: ErrInvalidHandler, Err: errors.New("nil handler")}
	case HandlerFunc:
		return h, nil, nil
	case func(*Context) (any, error):
		return h, nil, nil
	case string:
		if !strings.Contains(h, "@") {
			return nil, nil, &RegistrationError{Kind: ErrInvalidHandler, Err: fmt.Errorf("handler reference %q must look like Controller@method", h)}
		}
		target, ok := r.handlers.Lookup(h)
		if !ok {
			return nil, nil, &RegistrationError{Kind: ErrInvalidHandler, Err: fmt.Errorf("handler %q is not registered", h)}
		}
		if _, isRef := target.(string); isRef {
			return nil, nil, &RegistrationError{Kind: ErrInvalidHandler, Err: fmt.Errorf("handler %q resolves to another reference", h)}
		}
		return r.adapt(target)
	default:
		return bind(handler)
	}
}

// Freeze verifies that the dependencies of every bound handler can be
// resolved and closes registration. Every unresolvable dependency is
// reported.
func (r *Router) Freeze() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, rt := range r.order {
		for _, dep := range rt.deps {
			if err := r.container.Check(dep); err != nil {
				errs = append(errs, &RegistrationError{Kind: ErrUnresolvableDep, Method: rt.Method, Path: rt.Pattern, Err: err})
			}
		}
	}
	if r.def != nil {
		for _, dep := range r.def.deps {
			if err := r.container.Check(dep); err != nil {
				errs = append(errs, &RegistrationError{Kind: ErrUnresolvableDep, Path: "<default>", Err: err})
			}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	r.frozen = true
	r.logger.Info("Router frozen",
		zap.Int("routes", len(r.order)),
		zap.Int("named", len(r.names)))
	return nil
}

// Frozen reports whether registration is closed
func (r *Router) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Routes lists every route in registration order
func (r *Router) Routes() []RouteInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	named := make(map[NamedRoute]string, len(r.names))
	keys := make([]string, 0, len(r.names))
	for name := range r.names {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	for _, name := range keys {
		nr := r.names[name]
		if _, taken := named[nr]; !taken {
			named[nr] = name
		}
	}

	out := make([]RouteInfo, 0, len(r.order))
	for _, rt := range r.order {
		out = append(out, RouteInfo{
			Method:     rt.Method,
			Path:       rt.Pattern,
			API:        rt.API,
			Name:       named[NamedRoute{Method: rt.Method, Path: rt.Pattern, API: rt.API}],
			Middleware: middlewareNames(rt.Middleware),
		})
	}
	return out
}
