package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRole(t *testing.T, role interface{}, allowed ...string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/events/1/approve", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set("role", role)
	}

	mw := RequireRole(allowed...)
	err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	require.NoError(t, err)
	return rec
}

func TestRequireRoleAllows(t *testing.T) {
	rec := runRole(t, "ADMIN", "ADMIN")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleRejectsOther(t *testing.T) {
	rec := runRole(t, "USER", "ADMIN")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleRejectsMissing(t *testing.T) {
	rec := runRole(t, nil, "ADMIN")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleMultiple(t *testing.T) {
	rec := runRole(t, "USER", "ADMIN", "USER")
	assert.Equal(t, http.StatusOK, rec.Code)
}
