package router

import (
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	headerMethodOverride = "X-HTTP-Method-Override"
	headerMethod         = "X-HTTP-Method"
	methodField          = "_method"
)

// ServeHTTP dispatches the request. Exactly one outcome applies, checked in
// order: exact standard route, pattern standard route, API route, 405 when
// another verb accepts the path, 400 when the path is a pattern with its
// parameters left out, the default handler, 404.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	method := r.requestMethod(req)
	class := r.serve(w, req, method, r.cleanPath(req.URL.Path))
	r.recorder.RecordDispatch(class, string(method), time.Since(start))
}

func (r *Router) serve(w http.ResponseWriter, req *http.Request, method Method, path string) Classification {
	if rt, params, exact := r.standard.lookup(method, path); rt != nil {
		r.dispatch(newRequestContext(r, w, req, method), rt, params, false)
		if exact {
			return ClassExact
		}
		return ClassPattern
	}

	if rt, params, _ := r.api.lookup(method, path); rt != nil {
		r.dispatch(newRequestContext(r, w, req, method), rt, params, true)
		return ClassAPI
	}

	if allowed := r.allowed(path); len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		writeText(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return ClassMethodNotAllowed
	}

	if pattern, ok := r.standard.missingParam(method, path); ok {
		writeText(w, http.StatusBadRequest, "Bad Request: missing parameter for "+pattern)
		return ClassBadRequest
	}
	if pattern, ok := r.api.missingParam(method, path); ok {
		writeText(w, http.StatusBadRequest, "Bad Request: missing parameter for "+pattern)
		return ClassBadRequest
	}

	if r.def != nil {
		r.dispatchDefault(newRequestContext(r, w, req, method))
		return ClassDefault
	}

	writeText(w, http.StatusNotFound, "Not Found")
	return ClassNotFound
}

func newRequestContext(r *Router, w http.ResponseWriter, req *http.Request, method Method) *Context {
	c := newContext(r, w, req)
	c.method = method
	return c
}

// dispatch runs the global then route middleware and, unless one of them
// stops the request, the handler.
func (r *Router) dispatch(c *Context, rt *Route, params []string, api bool) {
	c.route = rt
	c.params = params
	c.api = api

	global := r.global
	if api {
		global = r.globalAPI
	}
	for _, chain := range [][]Middleware{global, rt.Middleware} {
		for _, mw := range chain {
			res := mw.Run(c)
			switch {
			case res.Aborted():
				return
			case res.Halted():
				if api {
					r.writeAPI(c, res.Value(), true)
				} else {
					r.writeStandard(c, res.Value())
				}
				return
			}
		}
	}

	result, err := rt.Handler(c)
	if err != nil {
		r.errorHandler(c, err)
		return
	}
	if api {
		r.writeAPI(c, result, false)
		return
	}
	r.writeStandard(c, result)
}

func (r *Router) dispatchDefault(c *Context) {
	c.status = r.def.status
	result, err := r.def.handler(c)
	if err != nil {
		r.errorHandler(c, err)
		return
	}
	r.writeStandard(c, result)
}

// allowed lists, in canonical order, the verbs whose standard or API table
// accepts path.
func (r *Router) allowed(path string) []string {
	var out []string
	for _, m := range Methods {
		if r.standard.matches(m, path) || r.api.matches(m, path) {
			out = append(out, string(m))
		}
	}
	return out
}

// requestMethod applies the POST method override: the override headers
// first, then a _method query or form field.
func (r *Router) requestMethod(req *http.Request) Method {
	method := strings.ToUpper(req.Method)
	if !r.methodOverride || method != http.MethodPost {
		return Method(method)
	}

	override := req.Header.Get(headerMethodOverride)
	if override == "" {
		override = req.Header.Get(headerMethod)
	}
	if override == "" {
		if isFormRequest(req) {
			override = req.FormValue(methodField)
		} else {
			override = req.URL.Query().Get(methodField)
		}
	}
	if override = strings.TrimSpace(override); override == "" {
		return Method(method)
	}

	r.logger.Debug("Method overridden",
		zap.String("from", method),
		zap.String("to", strings.ToUpper(override)))
	return Method(strings.ToUpper(override))
}

func isFormRequest(req *http.Request) bool {
	ct, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data"
}

// cleanPath strips the base path and surrounding slashes
func (r *Router) cleanPath(p string) string {
	if r.basePath != "" && strings.HasPrefix(p, r.basePath) {
		rest := p[len(r.basePath):]
		if rest == "" || rest[0] == '/' {
			p = rest
		}
	}
	return "/" + strings.Trim(p, "/")
}
