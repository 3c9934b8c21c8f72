// Package auth provides JWT authentication for dframe routes
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dframe-go/dframe/config"
	apperrors "github.com/dframe-go/dframe/pkg/errors"
)

// JWTService handles JWT token generation and validation
type JWTService struct {
	secretKey       []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	issuer          string
	now             func() time.Time
}

// Claims represents the JWT claims structure
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// NewJWTService creates a new JWT service instance
func NewJWTService(secretKey string, accessTTL, refreshTTL time.Duration, issuer string) *JWTService {
	return &JWTService{
		secretKey:       []byte(secretKey),
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
		issuer:          issuer,
		now:             time.Now,
	}
}

// NewJWTServiceFromConfig creates a JWT service from the jwt config section
func NewJWTServiceFromConfig(cfg config.JWTConfig) (*JWTService, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("jwt secret key is required")
	}
	return NewJWTService(cfg.SecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.Issuer), nil
}

// GenerateAccessToken generates a new access token
func (s *JWTService) GenerateAccessToken(userID, username, email, role string) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   userID,
		},
		UserID:   userID,
		Username: username,
		Email:    email,
		Role:     role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// GenerateRefreshToken generates a new refresh token
func (s *JWTService) GenerateRefreshToken(userID string) (string, error) {
	now := s.now()
	claims := &jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    s.issuer,
		Subject:   userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

func (s *JWTService) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.secretKey, nil
}

// ValidateToken validates a JWT token and returns the claims. Failures are
// *errors.ErrorResponse values carrying CodeTokenExpired or CodeTokenInvalid.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, s.keyFunc,
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.NewFromCode(apperrors.CodeTokenExpired)
		}
		return nil, apperrors.NewFromCode(apperrors.CodeTokenInvalid).WithDetail("error", err.Error())
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.NewFromCode(apperrors.CodeTokenInvalid)
	}

	return claims, nil
}

// RefreshAccessToken generates a new access token from a refresh token
func (s *JWTService) RefreshAccessToken(refreshToken string, getUserInfo func(userID string) (username, email, role string, err error)) (string, error) {
	token, err := jwt.ParseWithClaims(refreshToken, &jwt.RegisteredClaims{}, s.keyFunc,
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", apperrors.NewFromCode(apperrors.CodeTokenInvalid).WithDetail("error", err.Error())
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", apperrors.NewFromCode(apperrors.CodeTokenInvalid)
	}

	username, email, role, err := getUserInfo(claims.Subject)
	if err != nil {
		return "", err
	}

	return s.GenerateAccessToken(claims.Subject, username, email, role)
}
