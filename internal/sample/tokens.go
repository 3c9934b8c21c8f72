package sample

import (
	"github.com/dframe-go/dframe/auth"
	apperrors "github.com/dframe-go/dframe/pkg/errors"
	"github.com/dframe-go/dframe/pkg/store"
	"github.com/dframe-go/dframe/pkg/validation"
	"github.com/dframe-go/dframe/router"
)

// TokenController issues JWTs for registered users
type TokenController struct {
	Users     store.Store[User]     `inject:""`
	JWT       *auth.JWTService      `inject:""`
	Validator *validation.Validator `inject:""`
}

type tokenRequest struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token" validate:"required"`
}

// findByEmail scans the user store for email
func findByEmail(tc *TokenController, c *router.Context, email string) (store.Entry[User], error) {
	entries, err := tc.Users.List(c.Request().Context())
	if err != nil {
		return store.Entry[User]{}, err
	}
	for _, e := range entries {
		if e.Value.Email == email {
			return e, nil
		}
	}
	return store.Entry[User]{}, apperrors.Unauthorized("unknown user")
}

func issueToken(tc *TokenController, c *router.Context) (any, error) {
	var in tokenRequest
	if err := tc.Validator.BindAndValidate(c.Request(), &in); err != nil {
		return nil, err
	}
	u, err := findByEmail(tc, c, in.Email)
	if err != nil {
		return nil, err
	}

	access, err := tc.JWT.GenerateAccessToken(u.ID, u.Value.Name, u.Value.Email, "user")
	if err != nil {
		return nil, err
	}
	refresh, err := tc.JWT.GenerateRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "Bearer",
	}, nil
}

func refreshToken(tc *TokenController, c *router.Context) (any, error) {
	var in refreshRequest
	if err := tc.Validator.BindAndValidate(c.Request(), &in); err != nil {
		return nil, err
	}
	access, err := tc.JWT.RefreshAccessToken(in.RefreshToken, func(userID string) (string, string, string, error) {
		u, err := tc.Users.Get(c.Request().Context(), userID)
		if err != nil {
			return "", "", "", apperrors.Unauthorized("unknown user")
		}
		return u.Name, u.Email, "user", nil
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"access_token": access, "token_type": "Bearer"}, nil
}

func me(c *router.Context) any {
	claims := auth.GetClaims(c)
	return map[string]any{
		"id":    claims.UserID,
		"name":  claims.Username,
		"email": claims.Email,
	}
}
