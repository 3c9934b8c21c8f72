package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemRepo struct {
	names map[int]string
}

type itemController struct {
	Repo *itemRepo `inject:""`
}

func (ic *itemController) show(id int) (map[string]any, error) {
	name, ok := ic.Repo.names[id]
	if !ok {
		return map[string]any{"code": 404, "error": "missing"}, nil
	}
	return map[string]any{"id": id, "name": name}, nil
}

func TestBindParameterSources(t *testing.T) {
	c := NewContainer()
	Register(c, &itemRepo{names: map[int]string{3: "lamp"}})
	r := New(WithContainer(c))

	r.SignAPI("GET /items/{id}", func(ctrl *itemController, id int) (map[string]any, error) {
		return ctrl.show(id)
	})
	r.Sign("GET /echo/{a}/{b}", func(req *http.Request, w http.ResponseWriter, a string, c *Context, b float64, missing bool) string {
		w.Header().Set("X-Seen", req.URL.Path)
		out, _ := json.Marshal([]any{a, b, missing, c.Param(1)})
		return string(out)
	})
	require.NoError(t, r.Freeze())

	rec := serve(r, http.MethodGet, "/api/items/3")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":3,"name":"lamp"}`, rec.Body.String())

	rec = serve(r, http.MethodGet, "/api/items/9")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"missing"}`, rec.Body.String())

	rec = serve(r, http.MethodGet, "/echo/x/2.5")
	assert.Equal(t, `["x",2.5,false,"2.5"]`, rec.Body.String())
	assert.Equal(t, "/echo/x/2.5", rec.Header().Get("X-Seen"))
}

func TestBindConversionFailure(t *testing.T) {
	r := New()
	r.SignAPI("GET /items/{id}", func(id uint8) uint8 { return id })

	rec := serve(r, http.MethodGet, "/api/items/300")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid path parameter")

	rec = serve(r, http.MethodGet, "/api/items/12")
	assert.Equal(t, "12", rec.Body.String())
}

func TestBindReturnShapes(t *testing.T) {
	var called bool
	tests := []struct {
		name    string
		fn      any
		want    any
		wantErr string
	}{
		{name: "no results", fn: func() { called = true }},
		{name: "value", fn: func() int { return 7 }, want: 7},
		{name: "error only", fn: func() error { return errors.New("bad") }, wantErr: "bad"},
		{name: "nil error", fn: func() error { return nil }},
		{name: "value and error", fn: func() (string, error) { return "ok", nil }, want: "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Bind(tt.fn)
			got, err := h(newContext(New(), httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)))
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.True(t, called)
}

func TestBindRejectsUnsupportedShapes(t *testing.T) {
	assert.Panics(t, func() { Bind("not a func") })
	assert.Panics(t, func() { Bind(func(...string) {}) })
	assert.Panics(t, func() { Bind(func() (int, int) { return 0, 0 }) })
	assert.Panics(t, func() { Bind(func() (int, int, error) { return 0, 0, nil }) })
	assert.Panics(t, func() { Bind(func(map[string]int) {}) })
}

func TestBindResolveFailureAtDispatch(t *testing.T) {
	r := New()
	r.Sign("GET /x", func(a auditor) string { return "never" })

	rec := serve(r, http.MethodGet, "/x")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
