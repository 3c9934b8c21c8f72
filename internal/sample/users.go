package sample

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	apperrors "github.com/dframe-go/dframe/pkg/errors"
	"github.com/dframe-go/dframe/pkg/store"
	"github.com/dframe-go/dframe/pkg/validation"
	"github.com/dframe-go/dframe/router"
)

// User is a registered account
type User struct {
	Name  string `json:"name" form:"name" validate:"required,max=255"`
	Email string `json:"email" form:"email" validate:"required,email,max=255"`
}

// UserController carries what the user pages need. Handlers receive it
// resolved from the router's container.
type UserController struct {
	Users     store.Store[User]     `inject:""`
	Validator *validation.Validator `inject:""`
}

func listUsers(uc *UserController, c *router.Context) (string, error) {
	entries, err := uc.Users.List(c.Request().Context())
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("<h1>Users</h1>\n<ul>\n")
	for _, e := range entries {
		edit, _ := c.Router().Path("user.edit", e.ID)
		fmt.Fprintf(&b, "  <li><a href=\"%s\">%s</a> &lt;%s&gt;</li>\n",
			html.EscapeString(edit), html.EscapeString(e.Value.Name), html.EscapeString(e.Value.Email))
	}
	b.WriteString("</ul>\n")
	add, _ := c.Router().Path("user.add")
	fmt.Fprintf(&b, "<a href=\"%s\">Add user</a>\n", html.EscapeString(add))
	return b.String(), nil
}

func addUser(c *router.Context) string {
	action, _ := c.Router().Path("user.store")
	return userForm("Add user", action, User{}, nil)
}

func storeUser(uc *UserController, c *router.Context) (any, error) {
	var in User
	if err := uc.Validator.BindAndValidate(c.Request(), &in); err != nil {
		action, _ := c.Router().Path("user.store")
		return invalidForm(c, "Add user", action, in, err)
	}
	if _, err := uc.Users.Create(c.Request().Context(), in); err != nil {
		return nil, err
	}
	return redirect(c, "user.list")
}

func editUser(uc *UserController, c *router.Context, id string) (string, error) {
	u, err := uc.Users.Get(c.Request().Context(), id)
	if err != nil {
		return "", err
	}
	action, _ := c.Router().Path("user.update", id)
	return userForm("Edit user", action, u, nil), nil
}

func updateUser(uc *UserController, c *router.Context, id string) (any, error) {
	var in User
	if err := uc.Validator.BindAndValidate(c.Request(), &in); err != nil {
		action, _ := c.Router().Path("user.update", id)
		return invalidForm(c, "Edit user", action, in, err)
	}
	if err := uc.Users.Update(c.Request().Context(), id, in); err != nil {
		return nil, err
	}
	return redirect(c, "user.list")
}

func deleteUser(uc *UserController, c *router.Context, id string) (any, error) {
	if err := uc.Users.Delete(c.Request().Context(), id); err != nil {
		return nil, err
	}
	return redirect(c, "user.list")
}

// invalidForm renders the form again with the validation messages and a 422
func invalidForm(c *router.Context, title, action string, in User, err error) (any, error) {
	var resp *apperrors.ErrorResponse
	if !errors.As(err, &resp) {
		return nil, err
	}
	c.Status(http.StatusUnprocessableEntity)
	return userForm(title, action, in, resp.ErrorDetail.Details), nil
}

// redirect answers 303 See Other pointing at the named route
func redirect(c *router.Context, name string, params ...string) (any, error) {
	loc, ok := c.URL(name, params...)
	if !ok {
		return nil, fmt.Errorf("redirect to unknown route %q", name)
	}
	c.Response().Header().Set("Location", loc)
	c.Status(http.StatusSeeOther)
	return nil, nil
}

func userForm(title, action string, u User, errs map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(title))
	if msg, ok := errs["error"]; ok {
		fmt.Fprintf(&b, "<p class=\"error\">%s</p>\n", html.EscapeString(fmt.Sprint(msg)))
	}
	fmt.Fprintf(&b, "<form method=\"POST\" action=\"%s\">\n", html.EscapeString(action))
	for _, f := range []struct{ name, value string }{{"name", u.Name}, {"email", u.Email}} {
		fmt.Fprintf(&b, "  <input name=\"%s\" value=\"%s\">\n", f.name, html.EscapeString(f.value))
		if msg, ok := errs[f.name]; ok {
			fmt.Fprintf(&b, "  <p class=\"error\">%s</p>\n", html.EscapeString(fmt.Sprint(msg)))
		}
	}
	b.WriteString("  <button type=\"submit\">Save</button>\n</form>\n")
	return b.String()
}
