package auth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/dframe-go/dframe/pkg/errors"
	"github.com/dframe-go/dframe/router"
)

const (
	// ClaimsContextKey is the key used to store claims in the request context
	ClaimsContextKey = "jwt-claims"

	// MiddlewareName is the name Middleware is registered under
	MiddlewareName = "auth"
)

// Middleware creates a JWT authentication middleware. A request without a
// valid bearer token is halted: API requests get a 401 error envelope,
// standard requests a plain 401 body.
func Middleware(jwtService *JWTService) router.MiddlewareFunc {
	return func(c *router.Context) router.Result {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return reject(c, apperrors.NewFromCode(apperrors.CodeTokenMissing))
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return reject(c, apperrors.Unauthorized("invalid authorization header format"))
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			c.Logger().Debug("Rejected token", zap.Error(err))
			_, resp := apperrors.HandleBusinessError(err)
			return reject(c, resp)
		}

		c.Set(ClaimsContextKey, claims)
		return router.Next()
	}
}

// Disabled stands in for Middleware when no signing secret is configured.
// It refuses every request with 503, so routes that require authentication
// stay closed instead of running unauthenticated.
func Disabled() router.MiddlewareFunc {
	return func(c *router.Context) router.Result {
		resp := apperrors.New(apperrors.CodeServiceUnavailable, "Authentication is not configured").
			WithRequestID(apperrors.GetRequestID(c.Response(), c.Request()))
		if c.IsAPI() {
			return router.Halt(resp.Envelope(http.StatusServiceUnavailable))
		}
		c.Status(http.StatusServiceUnavailable)
		return router.Halt(resp.ErrorDetail.Message)
	}
}

func reject(c *router.Context, resp *apperrors.ErrorResponse) router.Result {
	resp.WithRequestID(apperrors.GetRequestID(c.Response(), c.Request()))
	c.Response().Header().Set("WWW-Authenticate", `Bearer realm="dframe"`)
	if c.IsAPI() {
		return router.Halt(resp.Envelope(http.StatusUnauthorized))
	}
	c.Status(http.StatusUnauthorized)
	return router.Halt(resp.ErrorDetail.Message)
}

// GetClaims retrieves JWT claims from the request context
func GetClaims(c *router.Context) *Claims {
	v, _ := c.Get(ClaimsContextKey)
	claims, _ := v.(*Claims)
	return claims
}

// GetUserID retrieves user ID from JWT claims
func GetUserID(c *router.Context) string {
	if claims := GetClaims(c); claims != nil {
		return claims.UserID
	}
	return ""
}
