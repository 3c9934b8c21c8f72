package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dframe-go/dframe/auth"
	"github.com/dframe-go/dframe/config"
	apperrors "github.com/dframe-go/dframe/pkg/errors"
	"github.com/dframe-go/dframe/router"
)

func do(r *router.Router, method, target string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for _, fn := range mutate {
		fn(req)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func fromIP(ip string) func(*http.Request) {
	return func(req *http.Request) { req.RemoteAddr = ip + ":40000" }
}

func TestRequestID(t *testing.T) {
	r := router.New()
	r.Use(RequestID())
	r.Sign("GET /", func(c *router.Context) string { return GetRequestID(c) })

	t.Run("generates", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/")
		rid := rec.Header().Get("X-Request-ID")
		assert.Len(t, rid, 36)
		assert.Equal(t, rid, rec.Body.String())
	})

	t.Run("keeps incoming", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/", func(req *http.Request) {
			req.Header.Set("X-Request-ID", "abc-123")
		})
		assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
		assert.Equal(t, "abc-123", rec.Body.String())
	})

	t.Run("custom generator and header", func(t *testing.T) {
		r := router.New()
		r.Use(RequestIDWithConfig(RequestIDConfig{
			Generator:    func() string { return "fixed" },
			TargetHeader: "X-Trace",
		}))
		r.Sign("GET /", func(c *router.Context) string { return GetRequestID(c) })

		rec := do(r, http.MethodGet, "/")
		assert.Equal(t, "fixed", rec.Header().Get("X-Trace"))
		assert.Equal(t, "fixed", rec.Body.String())
	})
}

func forwardedFor(xff string) func(*http.Request) {
	return func(req *http.Request) { req.Header.Set("X-Forwarded-For", xff) }
}

func TestForwardedForFromUntrustedPeer(t *testing.T) {
	cfg := config.MaintenanceConfig{Enabled: true, AllowIPs: []string{"127.0.0.1"}}

	t.Run("maintenance allow-list", func(t *testing.T) {
		r := router.New()
		r.Use(Maintenance(cfg))
		r.Sign("GET /", func() string { return "home" })

		rec := do(r, http.MethodGet, "/", fromIP("203.0.113.9"), forwardedFor("127.0.0.1"))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("rate limit buckets", func(t *testing.T) {
		store := newMemoryStore(config.RateLimitConfig{Rate: 0.001, Burst: 1, IdleTTL: time.Minute})
		r := router.New()
		r.Sign("GET /", func() string { return "ok" }, RateLimit(RateLimitConfig{Store: store}))

		allowed := 0
		for i := 0; i < 20; i++ {
			rec := do(r, http.MethodGet, "/", fromIP("203.0.113.9"), forwardedFor(fmt.Sprintf("198.51.100.%d", i)))
			if rec.Code == http.StatusOK {
				allowed++
			}
		}
		assert.Equal(t, 1, allowed)
		assert.Equal(t, 1, store.Size())
	})
}

func TestForwardedForFromTrustedProxy(t *testing.T) {
	proxies, err := router.ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	cfg := config.MaintenanceConfig{Enabled: true, AllowIPs: []string{"198.51.100.7"}}

	r := router.New(router.WithTrustedProxies(proxies))
	r.Use(Maintenance(cfg))
	r.Sign("GET /", func() string { return "home" })

	rec := do(r, http.MethodGet, "/", fromIP("10.0.0.2"), forwardedFor("198.51.100.7"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/", fromIP("10.0.0.2"), forwardedFor("198.51.100.8"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMemoryStore(t *testing.T) {
	s := newMemoryStore(config.RateLimitConfig{Rate: 1, Burst: 2, IdleTTL: time.Minute})
	now := time.Now()
	s.now = func() time.Time { return now }

	assert.True(t, s.Allow("a"))
	assert.True(t, s.Allow("a"))
	assert.False(t, s.Allow("a"))
	assert.True(t, s.Allow("b"))

	s.Reset("a")
	assert.True(t, s.Allow("a"))
	assert.Equal(t, 2, s.Size())

	now = now.Add(2 * time.Minute)
	s.evict()
	assert.Equal(t, 0, s.Size())
}

func TestMemoryStoreUnlimited(t *testing.T) {
	s := newMemoryStore(config.RateLimitConfig{Rate: 0, Burst: 0})
	for i := 0; i < 100; i++ {
		require.True(t, s.Allow("a"))
	}
}

func TestRateLimit(t *testing.T) {
	store := newMemoryStore(config.RateLimitConfig{Rate: 0.001, Burst: 1})
	r := router.New()
	throttle := RateLimit(RateLimitConfig{Store: store, RetryAfter: 30 * time.Second})
	r.Sign("GET /page", func() string { return "ok" }, throttle)
	r.SignAPI("GET /data", func() any { return map[string]any{"ok": true} }, throttle)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/page", fromIP("1.1.1.1")).Code)

	rec := do(r, http.MethodGet, "/page", fromIP("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Equal(t, "Rate limit exceeded", rec.Body.String())

	rec = do(r, http.MethodGet, "/api/data", fromIP("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body, "code")
	assert.Equal(t, float64(apperrors.CodeRateLimitExceeded), body["error"].(map[string]any)["code"])

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/data", fromIP("2.2.2.2")).Code)
}

func TestRateLimitSkip(t *testing.T) {
	store := newMemoryStore(config.RateLimitConfig{Rate: 0.001, Burst: 1})
	r := router.New()
	r.Sign("GET /", func() string { return "ok" }, RateLimit(RateLimitConfig{
		Store: store,
		Skip:  func(c *router.Context) bool { return c.Request().Header.Get("X-Internal") != "" },
	}))

	internal := func(req *http.Request) { req.Header.Set("X-Internal", "1") }
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", internal).Code)
	}
}

func TestMaintenance(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	base := config.MaintenanceConfig{
		Enabled:    true,
		RetryAfter: time.Hour,
		AllowIPs:   []string{"127.0.0.1", "::1"},
	}

	tests := []struct {
		name   string
		mutate func(*config.MaintenanceConfig)
		ip     string
		status int
	}{
		{"disabled", func(c *config.MaintenanceConfig) { c.Enabled = false }, "9.9.9.9", http.StatusOK},
		{"enabled", nil, "9.9.9.9", http.StatusServiceUnavailable},
		{"allow-listed", nil, "127.0.0.1", http.StatusOK},
		{"window over", func(c *config.MaintenanceConfig) { c.End = now.Add(-time.Minute) }, "9.9.9.9", http.StatusOK},
		{"window not started", func(c *config.MaintenanceConfig) { c.Start = now.Add(time.Minute) }, "9.9.9.9", http.StatusOK},
		{"inside window", func(c *config.MaintenanceConfig) {
			c.Start = now.Add(-time.Hour)
			c.End = now.Add(time.Hour)
		}, "9.9.9.9", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			r := router.New()
			r.Use(maintenance(cfg, clock))
			r.Sign("GET /", func() string { return "home" })

			rec := do(r, http.MethodGet, "/", fromIP(tt.ip))
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusServiceUnavailable {
				assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
				assert.Contains(t, rec.Body.String(), "Maintenance Mode")
			}
		})
	}
}

func TestMaintenancePage(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := config.MaintenanceConfig{
		Enabled: true,
		Start:   now.Add(-time.Hour),
		End:     now.Add(90*time.Minute + 5*time.Second),
	}

	r := router.New()
	r.UseAPI(maintenance(cfg, func() time.Time { return now }))
	r.Use(maintenance(cfg, func() time.Time { return now }))
	r.Sign("GET /", func() string { return "home" })
	r.SignAPI("GET /", func() string { return "home" })

	rec := do(r, http.MethodGet, "/", fromIP("9.9.9.9"))
	assert.Contains(t, rec.Body.String(), "<p>Start: 11:00:00 01/03/2026</p>")
	assert.Contains(t, rec.Body.String(), "<p>Remaining: 1h 30m 5s</p>")
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = do(r, http.MethodGet, "/api", fromIP("9.9.9.9"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(5405), meta["remaining_seconds"])
}

func TestRegister(t *testing.T) {
	cfg := config.DefaultConfig()

	reg := router.NewRegistry()
	Register(reg, cfg, nil, nil, nil)
	assert.Equal(t, []string{AuthName, MaintenanceName, RequestIDName}, reg.Names())

	r := router.New(router.WithRegistry(reg))
	r.SignAPI("POST /items", func() string { return "created" }, router.Named(AuthName))
	rec := do(r, http.MethodPost, "/api/items")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authentication is not configured")

	reg = router.NewRegistry()
	svc := auth.NewJWTService("secret", time.Hour, time.Hour, "dframe")
	Register(reg, cfg, svc, newMemoryStore(cfg.RateLimit), nil)
	assert.Equal(t, []string{AuthName, MaintenanceName, RequestIDName, ThrottleName}, reg.Names())

	r = router.New(router.WithRegistry(reg))
	r.Sign("GET /private", func() string { return "secret" }, router.Names(RequestIDName, ThrottleName, AuthName)...)
	rec = do(r, http.MethodGet, "/private")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
