package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys set by JWT.
const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxIsAdmin  = "is_admin"
)

// Claims extends jwt.RegisteredClaims with application-specific fields.
type Claims struct {
	UserID   int    `json:"uid"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// JWT returns an Echo middleware that validates the Authorization header token
// using the provided signing key. A "Bearer " prefix is optional.
func JWT(key []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := strings.TrimSpace(strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer "))
			if token == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "missing authorization header")
			}

			claims := &Claims{}
			tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
				return key, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil {
				if errors.Is(err, jwt.ErrSignatureInvalid) || errors.Is(err, jwt.ErrTokenExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
				}
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			if !tkn.Valid || claims.UserID == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxUsername, claims.Username)
			c.Set(CtxIsAdmin, claims.IsAdmin)
			return next(c)
		}
	}
}

// RequireAdmin rejects requests whose token lacks the admin claim. It must
// run after JWT.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if admin, _ := c.Get(CtxIsAdmin).(bool); !admin {
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}
			return next(c)
		}
	}
}

// UserID returns the authenticated user id, zero when unauthenticated.
func UserID(c echo.Context) int {
	id, _ := c.Get(CtxUserID).(int)
	return id
}
