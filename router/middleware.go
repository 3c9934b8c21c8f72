package router

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

type resultKind uint8

const (
	resultNext resultKind = iota
	resultHalt
	resultAbort
)

// Result is what a middleware decides for the request.
type Result struct {
	kind  resultKind
	value any
}

// Next continues with the rest of the chain.
func Next() Result { return Result{kind: resultNext} }

// Halt short-circuits the chain; v becomes the response. API requests get v as
// JSON with the status taken from its "code" (default 400), standard requests
// get v as the raw body. Halt(nil) is the same as Next.
func Halt(v any) Result {
	if v == nil {
		return Next()
	}
	return Result{kind: resultHalt, value: v}
}

// Abort stops the chain without writing anything further.
func Abort() Result { return Result{kind: resultAbort} }

// Halted reports whether the result short-circuits the request
func (r Result) Halted() bool { return r.kind == resultHalt }

// Aborted reports whether the result silently stops the request
func (r Result) Aborted() bool { return r.kind == resultAbort }

// Value returns the short-circuit value, if any
func (r Result) Value() any { return r.value }

// Middleware is an entry of a route's middleware chain.
type Middleware interface {
	Run(c *Context) Result
}

// MiddlewareFunc is an inline middleware.
type MiddlewareFunc func(c *Context) Result

// Run implements Middleware
func (f MiddlewareFunc) Run(c *Context) Result { return f(c) }

// Named references a middleware in the router's Registry. The name is resolved
// at dispatch time; an unknown name lets the request through.
type Named string

// Run implements Middleware
func (n Named) Run(c *Context) Result {
	fn, ok := c.router.registry.Get(string(n))
	if !ok {
		c.router.logger.Warn("Unknown middleware, skipping", zap.String("middleware", string(n)))
		return Next()
	}
	return fn(c)
}

// Names converts middleware names to Named entries
func Names(names ...string) []Middleware {
	out := make([]Middleware, 0, len(names))
	for _, n := range names {
		out = append(out, Named(n))
	}
	return out
}

// Registry maps middleware names to implementations.
type Registry struct {
	mu          sync.RWMutex
	middlewares map[string]MiddlewareFunc
}

// NewRegistry creates an empty middleware registry
func NewRegistry() *Registry {
	return &Registry{middlewares: make(map[string]MiddlewareFunc)}
}

// Register adds or replaces a named middleware. Empty names and nil
// functions are ignored.
func (r *Registry) Register(name string, fn MiddlewareFunc) {
	if name == "" || fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares[name] = fn
}

// Get looks up a middleware by name
func (r *Registry) Get(name string) (MiddlewareFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.middlewares[name]
	return fn, ok
}

// Has reports whether name is registered
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns the registered names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.middlewares))
	for name := range r.middlewares {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// middlewareNames renders a chain for route listings
func middlewareNames(chain []Middleware) []string {
	names := make([]string, 0, len(chain))
	for _, mw := range chain {
		if n, ok := mw.(Named); ok {
			names = append(names, string(n))
			continue
		}
		names = append(names, "<inline>")
	}
	return names
}
