package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tag(name string, trail *[]string) MiddlewareFunc {
	return func(*Context) Result {
		*trail = append(*trail, name)
		return Next()
	}
}

func TestGroupPrefixAndMiddleware(t *testing.T) {
	var trail []string
	r := New()

	r.Group("/admin").Middleware(tag("group", &trail)).Action(func(g *Group) {
		g.Sign("GET /users", text("users"), tag("route", &trail))
	})

	rec := serve(r, http.MethodGet, "/admin/users")
	assert.Equal(t, "users", rec.Body.String())
	assert.Equal(t, []string{"group", "route"}, trail)
}

func TestGroupActionWithoutArgument(t *testing.T) {
	r := New()
	next := r.Group("/shop").Action(func() {
		r.Sign("GET /cart", text("cart"))
	})
	r.Sign("GET /outside", text("out"))

	assert.Equal(t, "", next.Prefix())
	assert.Equal(t, "cart", serve(r, http.MethodGet, "/shop/cart").Body.String())
	assert.Equal(t, "out", serve(r, http.MethodGet, "/outside").Body.String())
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/shop/outside").Code)
}

func TestNestedGroupsDoNotInheritMiddleware(t *testing.T) {
	var trail []string
	r := New()

	outer := r.Group("/v1").Middleware(tag("outer", &trail)).NamePrefix("v1.")
	back := outer.Action(func(g *Group) {
		inner := g.Group("users")
		assert.Equal(t, "/v1/users", inner.Prefix())
		inner.Action(func(ig *Group) {
			ig.Sign("GET /{id}", text("user")).Name("show")
		})
		g.Sign("GET /status", text("ok")).Name("status")
	})

	assert.Equal(t, "user", serve(r, http.MethodGet, "/v1/users/3").Body.String())
	assert.Empty(t, trail, "nested group must not run the outer middleware")

	assert.Equal(t, "ok", serve(r, http.MethodGet, "/v1/status").Body.String())
	assert.Equal(t, []string{"outer"}, trail)

	_, ok := r.Lookup("show")
	assert.True(t, ok, "inner scope has no name prefix")
	_, ok = r.Lookup("v1.status")
	assert.True(t, ok)

	assert.Equal(t, "", back.Prefix())
}

func TestGroupAppliesToAPIRoutes(t *testing.T) {
	var trail []string
	r := New()
	r.Group("/v2").Middleware(tag("api-group", &trail)).Action(func(g *Group) {
		g.SignAPI("GET /items", func(*Context) (any, error) {
			return map[string]any{"ok": true}, nil
		})
	})

	rec := serve(r, http.MethodGet, "/api/v2/items")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Equal(t, []string{"api-group"}, trail)
}

func TestGroupScopesAreValues(t *testing.T) {
	r := New()
	base := r.Group("/a")
	withMw := base.Middleware(Named("auth"))

	assert.Empty(t, base.middleware)
	assert.Len(t, withMw.middleware, 1)
	assert.Equal(t, base.Prefix(), withMw.Prefix())
}

func TestActionRejectsOtherFuncs(t *testing.T) {
	r := New()
	assert.Panics(t, func() { r.Group("/x").Action(func(int) {}) })
	// the active scope is restored after a panic
	r.Sign("GET /root", text("root"))
	assert.Equal(t, "root", serve(r, http.MethodGet, "/root").Body.String())
}

func TestNaming(t *testing.T) {
	r := New()

	// nothing registered yet
	r.Name("ghost")
	_, ok := r.Lookup("ghost")
	assert.False(t, ok)

	r.Sign("GET|POST /users/{id}/posts/{post}", text("post")).Name("post")
	nr, ok := r.Lookup("post")
	require.True(t, ok)
	assert.Equal(t, NamedRoute{Method: MethodGet, Path: "/users/{id}/posts/{post}"}, nr)

	path, ok := r.Path("post", "5", "hello world")
	require.True(t, ok)
	assert.Equal(t, "/users/5/posts/hello%20world", path)

	path, _ = r.Path("post", "5")
	assert.Equal(t, "/users/5/posts/{post}", path)

	_, ok = r.Path("nope")
	assert.False(t, ok)

	// naming twice binds the same route; last write wins for a name
	r.Sign("GET /about", text("about")).Name("post")
	nr, _ = r.Lookup("post")
	assert.Equal(t, "/about", nr.Path)

	r.SignAPI("GET /items", text("items")).Name("api.items")
	nr, _ = r.Lookup("api.items")
	assert.True(t, nr.API)
	assert.Equal(t, "/api/items", nr.Path)
}

func TestURL(t *testing.T) {
	r := New(WithBasePath("/app/"))
	r.Sign("GET /items/{id}", text("item")).Name("item")

	req := httptest.NewRequest(http.MethodGet, "http://example.com/app/", nil)
	u, ok := r.URL(req, "item", "7")
	require.True(t, ok)
	assert.Equal(t, "http://example.com/app/items/7", u)

	req.Header.Set("X-Forwarded-Proto", "https, http")
	u, _ = r.URL(req, "item", "7")
	assert.Equal(t, "http://example.com/app/items/7", u, "forwarded scheme from an untrusted peer")

	fixed := New(WithBaseURL("https://cdn.example.com//site/"))
	fixed.Sign("GET /x", text("x")).Name("x")
	u, _ = fixed.URL(nil, "x")
	assert.Equal(t, "https://cdn.example.com/site/x", u)

	_, ok = r.URL(req, "unknown")
	assert.False(t, ok)
}

func TestURLForwardedProtoFromTrustedProxy(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	r := New(WithTrustedProxies(proxies))
	r.Sign("GET /items/{id}", text("item")).Name("item")

	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	req.Header.Set("X-Forwarded-Proto", "HTTPS")

	req.RemoteAddr = "10.1.2.3:5000"
	u, _ := r.URL(req, "item", "7")
	assert.Equal(t, "https://example.com/items/7", u)

	req.RemoteAddr = "203.0.113.9:5000"
	u, _ = r.URL(req, "item", "7")
	assert.Equal(t, "http://example.com/items/7", u)
}

func TestContextURL(t *testing.T) {
	r := New()
	r.Sign("GET /users/{id}", text("u")).Name("user")
	r.Sign("GET /link", func(c *Context) (any, error) {
		u, _ := c.URL("user", "9")
		return u, nil
	})

	rec := serve(r, http.MethodGet, "/link")
	assert.Equal(t, "http://example.com/users/9", rec.Body.String())
}

func TestCollapseSlashes(t *testing.T) {
	assert.Equal(t, "http://a/b/c", collapseSlashes("http://a//b///c"))
	assert.Equal(t, "http://x", collapseSlashes("http:///x"))
	assert.Equal(t, "/a/b", collapseSlashes("//a/b"))
}
