// Package middleware provides the named middleware dframe routes reference
// by name: request ids, authentication, rate limiting and maintenance mode.
package middleware

import (
	"github.com/google/uuid"

	apperrors "github.com/dframe-go/dframe/pkg/errors"
	"github.com/dframe-go/dframe/router"
)

// RequestIDKey is the context key holding the request id
const RequestIDKey = "request_id"

// RequestIDConfig defines the config for RequestID middleware.
type RequestIDConfig struct {
	// Generator defines a function to generate an ID.
	// Optional. Defaults to UUID v4.
	Generator func() string

	// TargetHeader defines the header name to look for existing request ID.
	// Optional. Defaults to X-Request-ID
	TargetHeader string
}

// DefaultRequestIDConfig is the default RequestID middleware config.
var DefaultRequestIDConfig = RequestIDConfig{
	Generator:    generateRequestID,
	TargetHeader: apperrors.HeaderXRequestID,
}

func generateRequestID() string {
	return uuid.New().String()
}

// RequestID returns a middleware that tags every request with an id: the one
// the client sent, or a fresh UUID v4. The id is echoed in the response
// header and stored in the context.
func RequestID() router.MiddlewareFunc {
	return RequestIDWithConfig(DefaultRequestIDConfig)
}

// RequestIDWithConfig returns a RequestID middleware with config.
func RequestIDWithConfig(config RequestIDConfig) router.MiddlewareFunc {
	if config.Generator == nil {
		config.Generator = DefaultRequestIDConfig.Generator
	}
	if config.TargetHeader == "" {
		config.TargetHeader = DefaultRequestIDConfig.TargetHeader
	}

	return func(c *router.Context) router.Result {
		rid := c.Request().Header.Get(config.TargetHeader)
		if rid == "" {
			rid = config.Generator()
		}
		c.Response().Header().Set(config.TargetHeader, rid)
		c.Set(RequestIDKey, rid)
		return router.Next()
	}
}

// GetRequestID retrieves the request ID from context
func GetRequestID(c *router.Context) string {
	if rid, ok := c.Get(RequestIDKey); ok {
		if s, ok := rid.(string); ok {
			return s
		}
	}
	return ""
}
