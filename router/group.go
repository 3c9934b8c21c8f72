package router

import (
	"fmt"
	"strings"
)

// Group is a registration scope: a path prefix, the middleware prepended to
// every route it registers and the prefix of the names it assigns.
//
// Groups are values. Group, Middleware and NamePrefix return a new scope and
// leave the receiver untouched. A nested group starts with no middleware and
// no name prefix; only the path prefix carries over.
type Group struct {
	router     *Router
	parent     *Group
	prefix     string
	middleware []Middleware
	namePrefix string
}

// Prefix returns the scope's path prefix
func (g *Group) Prefix() string { return g.prefix }

// Group opens a nested scope
func (g *Group) Group(prefix string) *Group {
	p := strings.Trim(prefix, "/")
	full := g.prefix
	if p != "" {
		full = normalizePath(g.prefix + "/" + p)
	}
	return &Group{router: g.router, parent: g, prefix: full}
}

// Middleware returns a copy of the scope whose middleware list is mw
func (g *Group) Middleware(mw ...Middleware) *Group {
	cp := *g
	cp.middleware = append([]Middleware(nil), mw...)
	return &cp
}

// NamePrefix returns a copy of the scope whose names are prefixed with p
func (g *Group) NamePrefix(p string) *Group {
	cp := *g
	cp.namePrefix = p
	return &cp
}

// Action runs fn with the scope active and returns the parent scope, or the
// router's root scope for top-level groups. fn is either func() or
// func(*Group); registrations made through the Router while fn runs land in
// this scope.
func (g *Group) Action(fn any) *Group {
	r := g.router

	r.mu.Lock()
	prev := r.current
	r.current = g
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.current = prev
		r.mu.Unlock()
	}()

	switch f := fn.(type) {
	case func():
		f()
	case func(*Group):
		f(g)
	case nil:
	default:
		panic(fmt.Sprintf("router: group action must be func() or func(*Group), got %T", fn))
	}

	if g.parent != nil {
		return g.parent
	}
	return r.root
}

// Handle registers a standard route. spec is "METHOD /path" or
// "METHOD1|METHOD2 /path"; the path is joined to the scope prefix.
func (g *Group) Handle(spec string, handler any, mw ...Middleware) error {
	return g.router.register(g, false, spec, handler, mw)
}

// HandleAPI registers an API route. The final path is prefixed with /api
// unless it already starts with it.
func (g *Group) HandleAPI(spec string, handler any, mw ...Middleware) error {
	return g.router.register(g, true, spec, handler, mw)
}

// Sign is Handle that panics on a registration error. It returns the scope so
// the route can be named.
func (g *Group) Sign(spec string, handler any, mw ...Middleware) *Group {
	if err := g.Handle(spec, handler, mw...); err != nil {
		panic(err)
	}
	return g
}

// SignAPI is HandleAPI that panics on a registration error
func (g *Group) SignAPI(spec string, handler any, mw ...Middleware) *Group {
	if err := g.HandleAPI(spec, handler, mw...); err != nil {
		panic(err)
	}
	return g
}

// All registers path for every supported verb
func (g *Group) All(path string, handler any, mw ...Middleware) *Group {
	verbs := make([]string, len(Methods))
	for i, m := range Methods {
		verbs[i] = string(m)
	}
	return g.Sign(strings.Join(verbs, "|")+" "+path, handler, mw...)
}
