package middleware

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dframe-go/dframe/config"
	apperrors "github.com/dframe-go/dframe/pkg/errors"
	"github.com/dframe-go/dframe/router"
)

const maintenanceTimeLayout = "15:04:05 02/01/2006"

// Maintenance answers 503 with a Retry-After header while the maintenance
// window is open. Allow-listed client IPs pass through. A window with an end
// in the past is closed; one with a start in the future is not yet open.
func Maintenance(cfg config.MaintenanceConfig) router.MiddlewareFunc {
	return maintenance(cfg, time.Now)
}

func maintenance(cfg config.MaintenanceConfig, now func() time.Time) router.MiddlewareFunc {
	retryAfter := cfg.RetryAfter
	if retryAfter <= 0 {
		retryAfter = time.Hour
	}

	return func(c *router.Context) router.Result {
		if !cfg.Enabled || slices.Contains(cfg.AllowIPs, c.RealIP()) {
			return router.Next()
		}
		t := now()
		if !cfg.End.IsZero() && t.After(cfg.End) {
			return router.Next()
		}
		if !cfg.Start.IsZero() && t.Before(cfg.Start) {
			return router.Next()
		}

		c.Response().Header().Set("Retry-After", strconv.Itoa(int(retryAfter/time.Second)))

		if c.IsAPI() {
			meta := map[string]any{}
			if !cfg.Start.IsZero() {
				meta["start"] = cfg.Start
			}
			if !cfg.End.IsZero() {
				meta["end"] = cfg.End
				meta["remaining_seconds"] = int(cfg.End.Sub(t) / time.Second)
			}
			resp := apperrors.NewFromCode(apperrors.CodeServiceUnavailable).
				WithRequestID(apperrors.GetRequestID(c.Response(), c.Request()))
			if len(meta) > 0 {
				resp.WithMeta(meta)
			}
			return router.Halt(resp.Envelope(http.StatusServiceUnavailable))
		}

		c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
		c.Status(http.StatusServiceUnavailable)
		return router.Halt(maintenancePage(cfg, t))
	}
}

func maintenancePage(cfg config.MaintenanceConfig, now time.Time) string {
	var b strings.Builder
	b.WriteString("<h1>Maintenance Mode</h1>")
	if !cfg.Start.IsZero() {
		fmt.Fprintf(&b, "<p>Start: %s</p>", cfg.Start.Format(maintenanceTimeLayout))
	}
	if !cfg.End.IsZero() {
		fmt.Fprintf(&b, "<p>End: %s</p>", cfg.End.Format(maintenanceTimeLayout))
		if left := cfg.End.Sub(now).Truncate(time.Second); left > 0 {
			h := int(left.Hours())
			m := int(left.Minutes()) % 60
			s := int(left.Seconds()) % 60
			fmt.Fprintf(&b, "<p>Remaining: %dh %dm %ds</p>", h, m, s)
		}
	}
	b.WriteString("<p>The site is currently under maintenance. Please check back later.</p>")
	return b.String()
}
