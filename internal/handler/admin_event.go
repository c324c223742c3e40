package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/backend/internal/config"
	"github.com/volunteerhub/backend/internal/model"
	"github.com/volunteerhub/backend/internal/queue"
	"github.com/volunteerhub/backend/internal/repository"
	queue_publisher "github.com/volunteerhub/backend/internal/service"
)

// AdminEventHandler carries the moderation endpoints, mounted behind the
// ADMIN role guard.  Approving or rejecting publishes a notification for
// the event owner; delivery is best-effort and never blocks the response.
type AdminEventHandler struct {
	Cfg    config.Config
	Events *repository.EventRepo
}

func NewAdminEventHandler(cfg config.Config, events *repository.EventRepo) *AdminEventHandler {
	if events == nil {
		panic("nil repository passed to NewAdminEventHandler")
	}
	return &AdminEventHandler{Cfg: cfg, Events: events}
}

// Approve handles POST /api/admin/events/:id/approve.
func (h *AdminEventHandler) Approve(c echo.Context) error {
	return h.moderate(c, model.EventApproved)
}

// Reject handles POST /api/admin/events/:id/reject.  The owner may fix
// the event and resubmit.
func (h *AdminEventHandler) Reject(c echo.Context) error {
	return h.moderate(c, model.EventRejected)
}

func (h *AdminEventHandler) moderate(c echo.Context, target string) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "event not found")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if !e.CanModerate() {
		return failWith(c, repository.ErrInvalidOperation, "event is not pending review")
	}

	updated, err := h.Events.UpdateStatus(ctx, id, target)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "update event failed")
	}

	h.notifyOwner(updated, target)
	return c.JSON(http.StatusOK, toEventResp(updated))
}

// notifyOwner enqueues a push notification about the moderation outcome.
// Failures are logged by the publisher; the moderation result stands
// either way.
func (h *AdminEventHandler) notifyOwner(e model.Event, target string) {
	title := "Event approved"
	body := "Your event \"" + e.Name + "\" was approved and is now public."
	if target == model.EventRejected {
		title = "Event rejected"
		body = "Your event \"" + e.Name + "\" was rejected. You can edit and resubmit it."
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := queue_publisher.PublishNotification(ctx, h.Cfg.AMQPURL, queue.NotificationEvent{
		UserID: e.OwnerID,
		Title:  title,
		Body:   body,
		URL:    "/events/" + formatID(e.ID),
	}); err != nil {
		log.Printf("notify: moderation event %d: %v", e.ID, err)
	}
}
