package validation_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dframe-go/dframe/pkg/errors"
	"github.com/dframe-go/dframe/pkg/validation"
)

type signup struct {
	Name  string `json:"name" form:"name" validate:"required,username"`
	Email string `json:"email" form:"email" validate:"required,email"`
	Age   int    `json:"age" form:"age" validate:"min=18,max=100"`
	Admin bool   `json:"admin" form:"admin"`
}

func TestValidate(t *testing.T) {
	v := validation.NewValidator()

	assert.NoError(t, v.Validate(signup{Name: "john_doe", Email: "john@example.com", Age: 25}))

	err := v.Validate(signup{Name: "_jo", Email: "invalid", Age: 15})
	require.Error(t, err)

	ve, ok := err.(*validation.ValidationError)
	require.True(t, ok)
	assert.Len(t, ve.Errors, 3)
	assert.Contains(t, ve.Errors["name"], "alphanumeric")
	assert.Contains(t, ve.Errors["email"], "valid email")
	assert.Contains(t, ve.Errors["age"], "at least 18")
	assert.True(t, strings.HasPrefix(ve.Error(), "age: "))
}

func TestUsernameRule(t *testing.T) {
	v := validation.NewValidator()
	type user struct {
		Name string `validate:"username"`
	}

	for _, name := range []string{"abc", "john_doe", "a-b-c", "User123"} {
		assert.NoError(t, v.Validate(user{Name: name}), name)
	}
	for _, name := range []string{"ab", "_john", "john-", "john doe", strings.Repeat("a", 31)} {
		assert.Error(t, v.Validate(user{Name: name}), name)
	}
}

func TestBindJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"jane","email":"j@x.io","age":30}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	var s signup
	require.NoError(t, validation.Bind(req, &s))
	assert.Equal(t, signup{Name: "jane", Email: "j@x.io", Age: 30}, s)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	assert.Error(t, validation.Bind(req, &s))
}

func TestBindForm(t *testing.T) {
	form := url.Values{"name": {"jane"}, "email": {"j@x.io"}, "age": {"41"}, "admin": {"true"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var s signup
	require.NoError(t, validation.Bind(req, &s))
	assert.Equal(t, signup{Name: "jane", Email: "j@x.io", Age: 41, Admin: true}, s)

	req = httptest.NewRequest(http.MethodPost, "/?age=old", nil)
	assert.Error(t, validation.Bind(req, &s))

	assert.Error(t, validation.Bind(httptest.NewRequest(http.MethodGet, "/", nil), s))
}

func TestBindAndValidate(t *testing.T) {
	v := validation.NewValidator()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"jane","email":"bad","age":30}`))
	req.Header.Set("Content-Type", "application/json")
	var s signup
	err := v.BindAndValidate(req, &s)

	var resp *apperrors.ErrorResponse
	require.ErrorAs(t, err, &resp)
	assert.Equal(t, apperrors.CodeValidationFailed.Int(), resp.ErrorDetail.Code)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	assert.Contains(t, resp.ErrorDetail.Details, "email")

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`nope`))
	req.Header.Set("Content-Type", "application/json")
	err = v.BindAndValidate(req, &s)
	require.ErrorAs(t, err, &resp)
	assert.Equal(t, apperrors.CodeInvalidFormat.Int(), resp.ErrorDetail.Code)
}
