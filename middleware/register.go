package middleware

import (
	"go.uber.org/zap"

	"github.com/dframe-go/dframe/auth"
	"github.com/dframe-go/dframe/config"
	"github.com/dframe-go/dframe/router"
)

// Names the built-in middleware are registered under
const (
	RequestIDName   = "request_id"
	AuthName        = auth.MiddlewareName
	ThrottleName    = "throttle"
	MaintenanceName = "maintenance"
)

// Register installs the built-in named middleware into reg. Without
// jwtService the auth name refuses every request. Throttling is skipped when
// limiter is nil.
// The limiter outlives router rebuilds, so the caller owns it.
func Register(reg *router.Registry, cfg *config.Config, jwtService *auth.JWTService, limiter RateLimiter, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reg.Register(RequestIDName, RequestID())
	reg.Register(MaintenanceName, Maintenance(cfg.App.Maintenance))
	if limiter != nil {
		reg.Register(ThrottleName, RateLimit(RateLimitConfig{Store: limiter}))
	}
	if jwtService != nil {
		reg.Register(AuthName, auth.Middleware(jwtService))
	} else {
		reg.Register(AuthName, auth.Disabled())
		logger.Warn("No JWT secret configured, routes requiring auth answer 503")
	}

	logger.Debug("Registered middleware", zap.Strings("names", reg.Names()))
}
