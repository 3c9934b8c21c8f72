package router

import "strings"

// table holds the routes of one namespace (standard or API) by verb. Routes
// keep their registration order, which is the order pattern matching uses.
type table struct {
	routes map[Method][]*Route
	exact  map[Method]map[string]*Route
}

func newTable() *table {
	return &table{
		routes: make(map[Method][]*Route, len(Methods)),
		exact:  make(map[Method]map[string]*Route, len(Methods)),
	}
}

func (t *table) has(method Method, path string) bool {
	_, ok := t.exact[method][path]
	return ok
}

func (t *table) insert(rt *Route) {
	if t.exact[rt.Method] == nil {
		t.exact[rt.Method] = make(map[string]*Route)
	}
	t.exact[rt.Method][rt.Pattern] = rt
	t.routes[rt.Method] = append(t.routes[rt.Method], rt)
}

// lookup resolves method+path: exact entry first, then patterns in
// registration order. exact reports which of the two matched.
func (t *table) lookup(method Method, path string) (rt *Route, params []string, exact bool) {
	if rt, ok := t.exact[method][path]; ok {
		return rt, nil, true
	}
	for _, candidate := range t.routes[method] {
		if params, ok := candidate.match(path); ok {
			return candidate, params, false
		}
	}
	return nil, nil, false
}

// matches reports whether any route of method accepts path
func (t *table) matches(method Method, path string) bool {
	rt, _, _ := t.lookup(method, path)
	return rt != nil
}

// missingParam returns the first pattern of method that equals path once its
// placeholders are stripped, meaning the caller left a required segment out.
func (t *table) missingParam(method Method, path string) (string, bool) {
	want := strings.TrimRight(path, "/")
	for _, rt := range t.routes[method] {
		if rt.matcher == nil {
			continue
		}
		clean := stripPlaceholders(rt.Pattern)
		if clean == "" {
			continue
		}
		if strings.TrimRight(clean, "/") == want {
			return rt.Pattern, true
		}
	}
	return "", false
}
