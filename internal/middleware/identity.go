package middleware

// identity.go resolves the authenticated principal once per request at
// the boundary.  It loads the stored user for the JWT subject set by
// JWTAuth and places it in the context, so handlers receive an explicit
// user record instead of re-deriving it from ambient claims.

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/backend/internal/model"
	"github.com/volunteerhub/backend/internal/repository"
)

// CurrentUserKey is the context key under which Identity stores the
// resolved *model.User.
const CurrentUserKey = "current_user"

// Identity returns a middleware that maps the authenticated username to
// its user row.  A token whose subject no longer exists in the database
// is rejected with 401.
func Identity(users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			username, ok := c.Get("username").(string)
			if !ok || username == "" {
				return c.JSON(http.StatusUnauthorized, errorBody(c, http.StatusUnauthorized, "unauthenticated"))
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.GetByUsername(ctx, username)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, errorBody(c, http.StatusUnauthorized, "unknown principal"))
				}
				return c.JSON(http.StatusInternalServerError, errorBody(c, http.StatusInternalServerError, "load user failed"))
			}

			c.Set(CurrentUserKey, &u)
			return next(c)
		}
	}
}

// UserFrom extracts the resolved principal stored by Identity.
func UserFrom(c echo.Context) (*model.User, bool) {
	u, ok := c.Get(CurrentUserKey).(*model.User)
	return u, ok
}
