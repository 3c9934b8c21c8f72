// Package router provides the dframe HTTP router: verb route tables for standard
// and API routes, route groups, named routes with reverse lookup, declarative
// controller metadata and a dispatcher that injects handler dependencies.
package router

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// Method is an HTTP verb accepted by the route tables.
type Method string

// Supported HTTP methods
const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

// Methods lists every supported verb in canonical order. The Allow header of a
// 405 response follows this order.
var Methods = []Method{MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch, MethodHead, MethodOptions}

// ParseMethod validates a verb token
func ParseMethod(s string) (Method, bool) {
	for _, m := range Methods {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// HandlerFunc is the canonical route handler. Its result is serialized by the
// dispatcher: raw for standard routes, JSON for API routes.
type HandlerFunc func(c *Context) (any, error)

// Route is a single verb + path pattern entry of a route table.
type Route struct {
	Method     Method
	Pattern    string
	API        bool
	Handler    HandlerFunc
	Middleware []Middleware

	params  []string
	matcher *regexp.Regexp
	deps    []reflect.Type
}

// ParamNames returns the placeholder names of the pattern in appearance order
func (rt *Route) ParamNames() []string {
	return append([]string(nil), rt.params...)
}

// match tests path against the compiled pattern and returns the captured segments
func (rt *Route) match(path string) ([]string, bool) {
	if rt.matcher == nil {
		return nil, false
	}
	m := rt.matcher.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	return m[1:], true
}

var (
	specPattern        = regexp.MustCompile(`^([A-Z|]+)\s+(.+)$`)
	placeholderPattern = regexp.MustCompile(`\{([^/}]+)\}`)
)

// routeSpec is a parsed "GET|POST /path" specification
type routeSpec struct {
	methods []Method
	path    string
}

// parseSpec parses the route spec mini-language: "METHOD /path" or
// "METHOD1|METHOD2 /path".
func parseSpec(spec string) (routeSpec, error) {
	m := specPattern.FindStringSubmatch(strings.TrimSpace(spec))
	if m == nil {
		return routeSpec{}, &RegistrationError{
			Kind: ErrInvalidSpec,
			Spec: spec,
			Err:  fmt.Errorf("use 'METHOD /path' or 'METHOD1|METHOD2 /path'"),
		}
	}

	var methods []Method
	for _, token := range strings.Split(m[1], "|") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		method, ok := ParseMethod(token)
		if !ok {
			return routeSpec{}, &RegistrationError{Kind: ErrInvalidMethod, Spec: spec, Method: Method(token)}
		}
		methods = append(methods, method)
	}
	if len(methods) == 0 {
		return routeSpec{}, &RegistrationError{Kind: ErrInvalidSpec, Spec: spec}
	}

	return routeSpec{methods: methods, path: strings.TrimSpace(m[2])}, nil
}

// normalizePath returns p with a single leading slash, no trailing slash and
// no duplicate slashes.
func normalizePath(p string) string {
	parts := strings.Split(p, "/")
	kept := parts[:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return "/" + strings.Join(kept, "/")
}

// joinPath combines a group prefix with a route path
func joinPath(prefix, path string) string {
	return normalizePath(prefix + "/" + path)
}

// apiPath prefixes p with /api/ unless it already is
func apiPath(p string) string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "api" || strings.HasPrefix(trimmed, "api/") {
		return normalizePath(trimmed)
	}
	return normalizePath("api/" + trimmed)
}

// compilePattern builds the single-segment matcher for a path pattern. Literal
// paths get a nil matcher; they are only reachable by exact lookup.
func compilePattern(pattern string) (*regexp.Regexp, []string) {
	locs := placeholderPattern.FindAllStringSubmatchIndex(pattern, -1)
	if len(locs) == 0 {
		return nil, nil
	}

	var (
		b     strings.Builder
		names = make([]string, 0, len(locs))
		last  int
	)
	b.WriteString("^")
	for _, loc := range locs {
		b.WriteString(regexp.QuoteMeta(pattern[last:loc[0]]))
		b.WriteString("([^/]+)")
		names = append(names, pattern[loc[2]:loc[3]])
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(pattern[last:]))
	b.WriteString("$")

	return regexp.MustCompile(b.String()), names
}

// stripPlaceholders removes every {param} from a pattern, used to detect a
// request that omitted a required segment.
func stripPlaceholders(pattern string) string {
	return placeholderPattern.ReplaceAllString(pattern, "")
}
