package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/volunteerhub/backend/internal/model"
)

func TestValidateEventDates(t *testing.T) {
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	// deadline before start, end after start
	assert.NoError(t, validateEventDates(base.Add(-time.Hour), base, base.Add(2*time.Hour)))
	// deadline equal to start is still fine
	assert.NoError(t, validateEventDates(base, base, base))

	assert.Error(t, validateEventDates(base.Add(time.Minute), base, base.Add(time.Hour)))
	assert.Error(t, validateEventDates(base.Add(-time.Hour), base, base.Add(-time.Minute)))
}

func TestToEventResp(t *testing.T) {
	now := time.Now()
	e := model.Event{
		ID: 3, OwnerID: 8, Name: "Cleanup", Description: "Beach cleanup",
		DateDeadline: now, StartDate: now, EndDate: now,
		Status: model.EventDraft, CreatedAt: now, UpdatedAt: now,
	}
	resp := toEventResp(e)
	assert.Equal(t, uint64(3), resp.ID)
	assert.Equal(t, uint64(8), resp.OwnerID)
	assert.Equal(t, "Cleanup", resp.Name)
	assert.Equal(t, model.EventDraft, resp.Status)
}

func newTestContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestParseID(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/api/events/12")
	c.SetParamNames("id")
	c.SetParamValues("12")
	id, err := parseID(c, "id")
	assert.NoError(t, err)
	assert.Equal(t, uint64(12), id)

	for _, bad := range []string{"0", "-4", "abc", ""} {
		c, _ := newTestContext(http.MethodGet, "/api/events/"+bad)
		c.SetParamNames("id")
		c.SetParamValues(bad)
		_, err := parseID(c, "id")
		assert.Error(t, err, "value %q", bad)
	}
}

func TestPageParams(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/api/events")
	limit, offset := pageParams(c)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	c, _ = newTestContext(http.MethodGet, "/api/events?limit=50&offset=10")
	limit, offset = pageParams(c)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 10, offset)

	// Values out of range fall back to the defaults.
	c, _ = newTestContext(http.MethodGet, "/api/events?limit=500&offset=-3")
	limit, offset = pageParams(c)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)
}

func TestIsOwnerOrAdmin(t *testing.T) {
	owner := &model.User{ID: 5, Role: model.RoleUser}
	admin := &model.User{ID: 9, Role: model.RoleAdmin}
	other := &model.User{ID: 6, Role: model.RoleUser}

	assert.True(t, isOwnerOrAdmin(5, owner))
	assert.True(t, isOwnerOrAdmin(5, admin))
	assert.False(t, isOwnerOrAdmin(5, other))
}

func TestFailShape(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/api/events/1")
	err := fail(c, http.StatusNotFound, "event not found")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t,
		`{"status":404,"message":"event not found","path":"/api/events/1"}`,
		rec.Body.String())
}
