package router

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/dframe-go/dframe/pkg/errors"
)

// Classification is the dispatch outcome of a request. Exactly one applies.
type Classification string

// Dispatch outcomes in priority order
const (
	ClassExact            Classification = "exact"
	ClassPattern          Classification = "pattern"
	ClassAPI              Classification = "api"
	ClassMethodNotAllowed Classification = "method_not_allowed"
	ClassBadRequest       Classification = "bad_request"
	ClassDefault          Classification = "default"
	ClassNotFound         Classification = "not_found"
)

// Recorder receives one observation per dispatched request.
type Recorder interface {
	RecordDispatch(class Classification, method string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordDispatch(Classification, string, time.Duration) {}

// ErrorHandler writes the response for a handler that returned an error
type ErrorHandler func(c *Context, err error)

// Option configures a Router
type Option func(*Router)

// WithLogger sets the router logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithContainer sets the dependency container used by bound handlers
func WithContainer(c *Container) Option {
	return func(r *Router) {
		if c != nil {
			r.container = c
		}
	}
}

// WithRegistry sets the registry that Named middleware resolves against
func WithRegistry(reg *Registry) Option {
	return func(r *Router) {
		if reg != nil {
			r.registry = reg
		}
	}
}

// WithHandlerSet sets the registry used for "Controller@method" handler references
func WithHandlerSet(hs *HandlerSet) Option {
	return func(r *Router) {
		if hs != nil {
			r.handlers = hs
		}
	}
}

// WithRecorder sets the dispatch metrics recorder
func WithRecorder(rec Recorder) Option {
	return func(r *Router) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// WithErrorHandler overrides how handler errors are written
func WithErrorHandler(h ErrorHandler) Option {
	return func(r *Router) {
		if h != nil {
			r.errorHandler = h
		}
	}
}

// WithBasePath sets a prefix stripped from every request path before matching,
// for applications mounted below the site root.
func WithBasePath(base string) Option {
	return func(r *Router) {
		base = strings.Trim(base, "/")
		if base == "" {
			r.basePath = ""
			return
		}
		r.basePath = "/" + base
	}
}

// WithBaseURL fixes the scheme, host and base used by URL instead of deriving
// them from the request.
func WithBaseURL(base string) Option {
	return func(r *Router) {
		r.baseURL = strings.TrimRight(base, "/")
	}
}

// WithTrustedProxies sets the peers allowed to report the client address and
// scheme through X-Forwarded-For and X-Forwarded-Proto
func WithTrustedProxies(tp *TrustedProxies) Option {
	return func(r *Router) {
		r.proxies = tp
	}
}

// WithMethodOverride toggles the POST method override (header or _method field).
// Enabled by default.
func WithMethodOverride(enabled bool) Option {
	return func(r *Router) {
		r.methodOverride = enabled
	}
}

// defaultErrorHandler logs the failure and answers with the status the error
// maps to: a JSON envelope for API routes, plain text otherwise.
func defaultErrorHandler(c *Context, err error) {
	status, resp := apperrors.HandleBusinessError(err)
	fields := []zap.Field{
		zap.Error(err),
		zap.String("method", c.Request().Method),
		zap.String("path", c.Request().URL.Path),
		zap.Int("status", status),
	}
	if c.route != nil {
		fields = append(fields, zap.String("route", c.route.Pattern))
	}
	if status >= http.StatusInternalServerError {
		c.Logger().Error("Handler failed", fields...)
	} else {
		c.Logger().Debug("Handler rejected request", fields...)
	}

	if c.api {
		if err := resp.Send(c.Response(), c.Request(), status); err != nil {
			c.Logger().Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	c.Response().Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.Response().WriteHeader(status)
	_, _ = c.Response().Write([]byte(resp.ErrorDetail.Message))
}
