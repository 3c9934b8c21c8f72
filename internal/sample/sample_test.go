package sample

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dframe-go/dframe/auth"
	"github.com/dframe-go/dframe/config"
	"github.com/dframe-go/dframe/router"
)

func newTestRouter(t *testing.T, deps Deps, mutate ...func(*config.Config)) *router.Router {
	t.Helper()
	cfg := config.DefaultConfig()
	for _, fn := range mutate {
		fn(cfg)
	}
	r, err := NewRouter(cfg, deps)
	require.NoError(t, err)
	require.NoError(t, r.Freeze())
	return r
}

func send(r *router.Router, method, target string, body string, header ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func form(values url.Values) (string, []string) {
	return values.Encode(), []string{"Content-Type", "application/x-www-form-urlencoded"}
}

func TestHomeAndDefault(t *testing.T) {
	r := newTestRouter(t, NewDeps())

	rec := send(r, http.MethodGet, "/", "")
	assert.Equal(t, "<h1>Hello, World!</h1>", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	assert.JSONEq(t, `"Hello, World!"`, send(r, http.MethodGet, "/api", "").Body.String())

	rec = send(r, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "<h1>404 Not Found</h1>", rec.Body.String())
}

func TestUserPages(t *testing.T) {
	deps := NewDeps()
	r := newTestRouter(t, deps)
	ctx := context.Background()

	rec := send(r, http.MethodGet, "/user/store", "")
	assert.Contains(t, rec.Body.String(), `action="/user/store"`)

	body, hdr := form(url.Values{"name": {"Ada"}, "email": {"ada@example.com"}})
	rec = send(r, http.MethodPost, "/user/store", body, hdr...)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "http://example.com/user/list", rec.Header().Get("Location"))

	users, err := deps.Users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, User{Name: "Ada", Email: "ada@example.com"}, users[0].Value)

	rec = send(r, http.MethodGet, "/user/list", "")
	assert.Contains(t, rec.Body.String(), `<a href="/user/edit/1">Ada</a>`)

	rec = send(r, http.MethodGet, "/user/edit/1", "")
	assert.Contains(t, rec.Body.String(), `value="ada@example.com"`)
	assert.Contains(t, rec.Body.String(), `action="/user/edit/1"`)

	body, hdr = form(url.Values{"name": {"Ada L."}, "email": {"ada@lovelace.org"}})
	rec = send(r, http.MethodPost, "/user/edit/1", body, hdr...)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	u, err := deps.Users.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", u.Name)

	rec = send(r, http.MethodGet, "/user/edit/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Record not found", rec.Body.String())

	body, hdr = form(url.Values{"_method": {"DELETE"}})
	rec = send(r, http.MethodPost, "/user/delete/1", body, hdr...)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	_, err = deps.Users.Get(ctx, "1")
	assert.Error(t, err)

	rec = send(r, http.MethodGet, "/user/edit", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoreUserValidation(t *testing.T) {
	deps := NewDeps()
	r := newTestRouter(t, deps)

	body, hdr := form(url.Values{"name": {"Ada"}, "email": {"not-an-email"}})
	rec := send(r, http.MethodPost, "/user/store", body, hdr...)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "email must be a valid email")
	assert.Contains(t, rec.Body.String(), `value="Ada"`)

	users, err := deps.Users.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestItemsAPI(t *testing.T) {
	deps := NewDeps()
	deps.JWT = auth.NewJWTService("secret", time.Hour, time.Hour, "dframe")
	token, err := deps.JWT.GenerateAccessToken("1", "Ada", "ada@example.com", "user")
	require.NoError(t, err)
	r := newTestRouter(t, deps)
	jsonHdr := []string{"Content-Type", "application/json", "Authorization", "Bearer " + token}

	rec := send(r, http.MethodPost, "/api/items", `{"title":"Lamp","price":12.5,"quantity":3}`, jsonHdr...)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"item":{"id":"1","title":"Lamp","price":12.5,"quantity":3}}`, rec.Body.String())

	rec = send(r, http.MethodGet, "/api/items/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Lamp"`)

	rec = send(r, http.MethodPatch, "/api/items/1", `{"title":"Desk lamp","quantity":4}`, jsonHdr...)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = send(r, http.MethodGet, "/api/items", "")
	assert.JSONEq(t, `{"items":[{"id":"1","title":"Desk lamp","price":0,"quantity":4}]}`, rec.Body.String())

	rec = send(r, http.MethodPost, "/api/items", `{"price":-1}`, jsonHdr...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var env map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, false, env["success"])

	rec = send(r, http.MethodDelete, "/api/items/1", "", jsonHdr...)
	assert.JSONEq(t, `{"deleted":"1"}`, rec.Body.String())

	rec = send(r, http.MethodGet, "/api/items/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = send(r, http.MethodPost, "/api/items/1", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, PUT, DELETE, PATCH", rec.Header().Get("Allow"))
}

func TestItemWritesClosedWithoutJWT(t *testing.T) {
	r := newTestRouter(t, NewDeps())

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		target := "/api/items/1"
		if method == http.MethodPost {
			target = "/api/items"
		}
		rec := send(r, method, target, `{"title":"Lamp"}`, "Content-Type", "application/json")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, method)
		assert.Contains(t, rec.Body.String(), "Authentication is not configured", method)
	}

	rec := send(r, http.MethodGet, "/api/items", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestTokensAndAuth(t *testing.T) {
	deps := NewDeps()
	deps.JWT = auth.NewJWTService("secret", time.Hour, time.Hour, "dframe")
	_, err := deps.Users.Create(context.Background(), User{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	r := newTestRouter(t, deps)
	jsonHdr := []string{"Content-Type", "application/json"}

	rec := send(r, http.MethodPost, "/api/items", `{"title":"Lamp"}`, jsonHdr...)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = send(r, http.MethodPost, "/api/auth/token", `{"email":"nobody@example.com"}`, jsonHdr...)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = send(r, http.MethodPost, "/api/auth/token", `{"email":"ada@example.com"}`, jsonHdr...)
	require.Equal(t, http.StatusOK, rec.Code)
	var tokens map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokens))
	bearer := "Bearer " + tokens["access_token"]

	rec = send(r, http.MethodGet, "/api/me", "", "Authorization", bearer)
	assert.JSONEq(t, `{"id":"1","name":"Ada","email":"ada@example.com"}`, rec.Body.String())

	rec = send(r, http.MethodPost, "/api/items", `{"title":"Lamp"}`, "Content-Type", "application/json", "Authorization", bearer)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = send(r, http.MethodPost, "/api/auth/refresh", `{"refresh_token":"`+tokens["refresh_token"]+`"}`, jsonHdr...)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "access_token")
}

func TestSitemap(t *testing.T) {
	r := newTestRouter(t, NewDeps(), func(cfg *config.Config) {
		cfg.Router.BaseURL = "https://dframe.dev/"
	})

	rec := send(r, http.MethodGet, "/sitemap.xml", "")
	assert.Equal(t, "application/xml; charset=UTF-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "<?xml"))
	assert.Contains(t, body, "<loc>https://dframe.dev/</loc>")
	assert.Contains(t, body, "<loc>https://dframe.dev/user/list</loc>")
	assert.Contains(t, body, "<loc>https://dframe.dev/sitemap.xml</loc>")
	assert.NotContains(t, body, "edit")
	assert.NotContains(t, body, "/api")
	assert.Equal(t, 4, strings.Count(body, "<url>"))
}

func TestMaintenanceFromConfig(t *testing.T) {
	r := newTestRouter(t, NewDeps(), func(cfg *config.Config) {
		cfg.App.Maintenance.Enabled = true
	})

	rec := send(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = send(r, http.MethodGet, "/", "", "X-Forwarded-For", "127.0.0.1")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// httptest requests come from 192.0.2.1
	r = newTestRouter(t, NewDeps(), func(cfg *config.Config) {
		cfg.App.Maintenance.Enabled = true
		cfg.Router.TrustedProxies = []string{"192.0.2.0/24"}
	})
	rec = send(r, http.MethodGet, "/", "", "X-Forwarded-For", "127.0.0.1")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouteNames(t *testing.T) {
	r := newTestRouter(t, NewDeps())

	for name, want := range map[string]string{
		"home":             "/",
		"user.list":        "/user/list",
		"user.delete":      "/user/delete/{id}",
		"sitemap":          "/sitemap.xml",
		"api.home":         "/api",
		"api.items.update": "/api/items/{id}",
	} {
		nr, ok := r.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, want, nr.Path, name)
	}
	_, ok := r.Lookup("api.me")
	assert.False(t, ok)
}

func TestManifestAndBasePath(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "routes.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`
routes:
  - path: /people
    name: people
    handler: UserController@listUsers
`), 0o644))

	r := newTestRouter(t, NewDeps(), func(cfg *config.Config) {
		cfg.Router.Manifest = manifest
		cfg.Router.BasePath = "/app"
	})

	rec := send(r, http.MethodGet, "/app/people", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Users</h1>")

	_, err := NewRouter(&config.Config{Router: config.RouterConfig{Manifest: filepath.Join(dir, "missing.yaml")}}, NewDeps())
	assert.ErrorContains(t, err, "open route manifest")
}
