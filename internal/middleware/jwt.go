package middleware // middleware contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/backend/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's subject (username) and role claims into the
// request context.  The provided secret must match the one used when
// issuing tokens.  Handlers downstream read `c.Get("username")` and
// `c.Get("role")`; the Identity middleware turns the username into a
// loaded user record.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, errorBody(c, http.StatusUnauthorized, "missing bearer token"))
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			username, role, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorBody(c, http.StatusUnauthorized, "invalid token"))
			}

			c.Set("username", username)
			c.Set("role", role)
			return next(c)
		}
	}
}

// errorBody builds the uniform error payload {status, message, path}.
func errorBody(c echo.Context, status int, message string) map[string]interface{} {
	return map[string]interface{}{
		"status":  status,
		"message": message,
		"path":    c.Request().URL.Path,
	}
}
