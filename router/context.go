package router

import (
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// Context carries one request through the middleware chain and the handler.
type Context struct {
	request  *http.Request
	response http.ResponseWriter
	router   *Router
	route    *Route
	method   Method
	params   []string
	api      bool
	status   int

	mu     sync.RWMutex
	values map[string]any
}

func newContext(r *Router, w http.ResponseWriter, req *http.Request) *Context {
	return &Context{router: r, response: w, request: req}
}

// Request returns the inbound request
func (c *Context) Request() *http.Request { return c.request }

// SetRequest replaces the request, typically with one carrying a derived context
func (c *Context) SetRequest(req *http.Request) { c.request = req }

// Method returns the effective verb, after any POST method override
func (c *Context) Method() Method { return c.method }

// Response returns the response writer
func (c *Context) Response() http.ResponseWriter { return c.response }

// Params returns the captured path segments in pattern order
func (c *Context) Params() []string {
	return append([]string(nil), c.params...)
}

// Param returns the i-th captured path segment, or "" when absent
func (c *Context) Param(i int) string {
	if i < 0 || i >= len(c.params) {
		return ""
	}
	return c.params[i]
}

// ParamByName returns the segment captured by the named placeholder
func (c *Context) ParamByName(name string) string {
	if c.route == nil {
		return ""
	}
	for i, n := range c.route.params {
		if n == name {
			return c.Param(i)
		}
	}
	return ""
}

// Status sets the status used when writing a standard response. API responses
// take their status from the result's "code" instead.
func (c *Context) Status(code int) { c.status = code }

// RealIP returns the client address, honouring X-Forwarded-For only from
// trusted proxies
func (c *Context) RealIP() string { return c.router.proxies.RealIP(c.request) }

// IsAPI reports whether the request matched an API route
func (c *Context) IsAPI() bool { return c.api }

// Route returns the matched route, nil for default and error responses
func (c *Context) Route() *Route { return c.route }

// Router returns the dispatching router
func (c *Context) Router() *Router { return c.router }

// Container returns the router's dependency container
func (c *Context) Container() *Container { return c.router.container }

// Logger returns the router logger
func (c *Context) Logger() *zap.Logger { return c.router.logger }

// Set stores a request-scoped value
func (c *Context) Set(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = v
}

// Get retrieves a request-scoped value
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// URL builds the absolute URL of a named route for the current request
func (c *Context) URL(name string, params ...string) (string, bool) {
	return c.router.URL(c.request, name, params...)
}
