package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/backend/internal/model"
	"github.com/volunteerhub/backend/internal/push"
	"github.com/volunteerhub/backend/internal/repository"
)

// WebPushHandler manages browser push subscriptions.  When push is
// disabled by configuration the sender is nil and every endpoint
// answers 503.
type WebPushHandler struct {
	Subs   *repository.SubscriptionRepo
	Sender *push.Sender
}

func NewWebPushHandler(subs *repository.SubscriptionRepo, sender *push.Sender) *WebPushHandler {
	if subs == nil {
		panic("nil repository passed to NewWebPushHandler")
	}
	return &WebPushHandler{Subs: subs, Sender: sender}
}

type subscribeReq struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (h *WebPushHandler) disabled(c echo.Context) error {
	return fail(c, http.StatusServiceUnavailable, "push notifications are disabled")
}

// PublicKey handles GET /api/webpush/public-key, returning the VAPID
// public key browsers need to subscribe.
func (h *WebPushHandler) PublicKey(c echo.Context) error {
	if h.Sender == nil {
		return h.disabled(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"publicKey": h.Sender.PublicKey()})
}

// Subscribe handles POST /api/webpush/subscribe.  A freshly stored
// subscription gets a confirmation push so the browser wiring is
// verified end to end; re-subscribing an existing endpoint is a no-op.
func (h *WebPushHandler) Subscribe(c echo.Context) error {
	if h.Sender == nil {
		return h.disabled(c)
	}
	u, err := currentUser(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req subscribeReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Endpoint = strings.TrimSpace(req.Endpoint)
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		return fail(c, http.StatusBadRequest, "endpoint, keys.p256dh and keys.auth are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	inserted, err := h.Subs.Create(ctx, model.PushSubscription{
		UserID:   u.ID,
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "store subscription failed")
	}

	if inserted {
		sub, err := h.Subs.GetByEndpoint(ctx, req.Endpoint)
		if err == nil {
			payload, _ := json.Marshal(echo.Map{
				"title": "Notifications enabled",
				"body":  "You will now receive updates about your events.",
			})
			if err := h.Sender.Send(ctx, sub, payload); err != nil {
				log.Printf("webpush: confirmation push failed: %v", err)
			}
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"subscribed": true})
}

// VerifySubscription handles POST /api/webpush/verify-subscription.
// Browsers call it on startup to learn whether their stored subscription
// is still known to the server.
func (h *WebPushHandler) VerifySubscription(c echo.Context) error {
	if h.Sender == nil {
		return h.disabled(c)
	}
	u, err := currentUser(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req subscribeReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Endpoint = strings.TrimSpace(req.Endpoint)
	if req.Endpoint == "" {
		return fail(c, http.StatusBadRequest, "endpoint is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sub, err := h.Subs.GetByEndpoint(ctx, req.Endpoint)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusOK, echo.Map{"exists": false})
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}
	return c.JSON(http.StatusOK, echo.Map{"exists": sub.UserID == u.ID})
}

// Test handles GET /api/webpush/test, pushing a test message to every
// browser the caller has subscribed.  Dead endpoints found on the way
// are pruned.
func (h *WebPushHandler) Test(c echo.Context) error {
	if h.Sender == nil {
		return h.disabled(c)
	}
	u, err := currentUser(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	subs, err := h.Subs.ListByUser(ctx, u.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	payload, _ := json.Marshal(echo.Map{
		"title": "Test notification",
		"body":  "Push delivery is working.",
	})

	sent := 0
	for _, sub := range subs {
		if err := h.Sender.Send(ctx, sub, payload); err != nil {
			if errors.Is(err, push.ErrGone) {
				_ = h.Subs.DeleteByEndpoint(ctx, sub.Endpoint)
			} else {
				log.Printf("webpush: test push failed: %v", err)
			}
			continue
		}
		sent++
	}
	return c.JSON(http.StatusOK, echo.Map{"sent": sent, "subscriptions": len(subs)})
}
