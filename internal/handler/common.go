// Package handler contains the HTTP handlers implementing the
// volunteer-coordination API.  Every write path resolves the explicit
// principal placed in context by the Identity middleware, enforces
// ownership/role rules, mutates one aggregate and returns a projection.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/backend/internal/middleware"
	"github.com/volunteerhub/backend/internal/model"
	"github.com/volunteerhub/backend/internal/repository"
)

// errUnauthenticated signals that no principal was resolved for the
// request; it should never happen behind the Identity middleware.
var errUnauthenticated = errors.New("unauthenticated")

// fail writes the uniform error payload {status, message, path}.
func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{
		"status":  status,
		"message": message,
		"path":    c.Request().URL.Path,
	})
}

// httpStatusFor maps the repository error taxonomy to HTTP statuses.
// Everything outside the taxonomy is an internal error.
func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrInvalidOperation):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrUsernameExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// failWith renders err through httpStatusFor with a caller-supplied
// message.  Handlers raise the sentinel matching the rule they detected
// and this is the single place deciding the wire status.
func failWith(c echo.Context, err error, message string) error {
	return fail(c, httpStatusFor(err), message)
}

// currentUser returns the principal resolved by the Identity middleware.
func currentUser(c echo.Context) (*model.User, error) {
	u, ok := middleware.UserFrom(c)
	if !ok || u == nil {
		return nil, errUnauthenticated
	}
	return u, nil
}

// isOwnerOrAdmin reports whether user owns the resource or is an admin.
func isOwnerOrAdmin(resourceOwnerID uint64, user *model.User) bool {
	return user.ID == resourceOwnerID || user.IsAdmin()
}

// parseID extracts a positive uint64 path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// formatID renders a numeric ID for URLs and notification payloads.
func formatID(id uint64) string { return strconv.FormatUint(id, 10) }

// pageParams reads limit/offset query parameters with sane bounds.
func pageParams(c echo.Context) (limit, offset int) {
	limit = 20
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
