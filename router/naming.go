package router

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

// NamedRoute is the target of a route name
type NamedRoute struct {
	Method Method
	Path   string
	API    bool
}

// Name binds name, prefixed with the scope's name prefix, to the route
// registered last on the router. It does nothing when no route has been
// registered yet. Binding an existing name again replaces it.
func (g *Group) Name(name string) *Group {
	r := g.router
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil || name == "" {
		return g
	}
	r.names[g.namePrefix+name] = *r.last
	return g
}

// Lookup returns the route bound to name
func (r *Router) Lookup(name string) (NamedRoute, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nr, ok := r.names[name]
	return nr, ok
}

// Path returns the path of a named route with params substituted, in order,
// for its placeholders. Placeholders left without a param stay as they are.
func (r *Router) Path(name string, params ...string) (string, bool) {
	nr, ok := r.Lookup(name)
	if !ok {
		return "", false
	}
	return fillPlaceholders(nr.Path, params), true
}

// URL returns the absolute URL of a named route. The scheme and host come from
// req followed by the base path, unless the router was given a fixed base URL.
// The scheme is https for TLS requests; X-Forwarded-Proto counts only when
// the request came from a trusted proxy.
func (r *Router) URL(req *http.Request, name string, params ...string) (string, bool) {
	path, ok := r.Path(name, params...)
	if !ok {
		return "", false
	}

	base := r.baseURL
	if base == "" {
		base = r.requestScheme(req) + "://" + requestHost(req) + r.basePath
	}
	return collapseSlashes(strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")), true
}

func fillPlaceholders(path string, params []string) string {
	for _, p := range params {
		loc := placeholderPattern.FindStringIndex(path)
		if loc == nil {
			break
		}
		path = path[:loc[0]] + url.PathEscape(p) + path[loc[1]:]
	}
	return path
}

func (r *Router) requestScheme(req *http.Request) string {
	if req == nil {
		return "http"
	}
	if req.TLS != nil {
		return "https"
	}
	if !r.proxies.Trusts(req) {
		return "http"
	}
	if proto := req.Header.Get(echo.HeaderXForwardedProto); proto != "" {
		proto, _, _ = strings.Cut(proto, ",")
		return strings.ToLower(strings.TrimSpace(proto))
	}
	return "http"
}

func requestHost(req *http.Request) string {
	if req == nil || req.Host == "" {
		return "localhost"
	}
	return req.Host
}

// collapseSlashes reduces runs of slashes to one, except for the "//" that
// directly follows a colon.
func collapseSlashes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '/' && i > 0 && s[i-1] == '/' && (i < 2 || s[i-2] != ':') {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
