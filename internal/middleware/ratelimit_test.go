package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/volunteerhub/backend/internal/config"
)

func rateCtx(username string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/events")
	if username != "" {
		c.Set("username", username)
	}
	return c
}

func TestBuildRateKeyStrategies(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "vhrl"}

	cfg.KeyStrategy = "ip"
	assert.Equal(t, "vhrl:ip:10.0.0.1", buildRateKey(cfg, rateCtx("alice")))

	cfg.KeyStrategy = "ip_route"
	assert.Equal(t, "vhrl:ip:10.0.0.1:route:/api/events", buildRateKey(cfg, rateCtx("alice")))

	cfg.KeyStrategy = "user_route"
	assert.Equal(t, "vhrl:user:alice:route:/api/events", buildRateKey(cfg, rateCtx("alice")))

	cfg.KeyStrategy = "ip_user_route"
	assert.Equal(t, "vhrl:ip:10.0.0.1:user:alice:route:/api/events", buildRateKey(cfg, rateCtx("alice")))
}

func TestBuildRateKeyGuestFallback(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "vhrl", KeyStrategy: "user_route"}
	assert.Equal(t, "vhrl:user:guest:route:/api/events", buildRateKey(cfg, rateCtx("")))
}

func TestTokenBucketDisabledIsPassThrough(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil)
	c := rateCtx("alice")
	err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	assert.NoError(t, err)
}
