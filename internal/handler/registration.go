package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/backend/internal/config"
	"github.com/volunteerhub/backend/internal/model"
	"github.com/volunteerhub/backend/internal/queue"
	"github.com/volunteerhub/backend/internal/repository"
	queue_publisher "github.com/volunteerhub/backend/internal/service"
)

// RegistrationHandler implements the volunteer side (join, cancel) and
// the owner side (approve, reject, complete) of the registration
// workflow.  Status changes by the owner notify the volunteer.
type RegistrationHandler struct {
	Cfg           config.Config
	Events        *repository.EventRepo
	Registrations *repository.RegistrationRepo
}

func NewRegistrationHandler(cfg config.Config, events *repository.EventRepo, regs *repository.RegistrationRepo) *RegistrationHandler {
	if events == nil || regs == nil {
		panic("nil repository passed to NewRegistrationHandler")
	}
	return &RegistrationHandler{Cfg: cfg, Events: events, Registrations: regs}
}

type registrationResp struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"userId"`
	EventID   uint64    `json:"eventId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toRegistrationResp(r model.Registration) registrationResp {
	return registrationResp{
		ID: r.ID, UserID: r.UserID, EventID: r.EventID, Status: r.Status,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// Join handles POST /api/registrations/:eventId/join.  The event must
// be APPROVED and its registration deadline in the future.  Joining
// twice returns the existing registration instead of an error.
func (h *RegistrationHandler) Join(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	eventID, err := parseID(c, "eventId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "event not found")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if e.Status != model.EventApproved {
		return failWith(c, repository.ErrInvalidOperation, "event is not open for registration")
	}
	if e.DeadlinePassed(time.Now()) {
		return failWith(c, repository.ErrInvalidOperation, "registration deadline has passed")
	}

	if existing, err := h.Registrations.GetByUserAndEvent(ctx, u.ID, eventID); err == nil {
		return c.JSON(http.StatusOK, toRegistrationResp(existing))
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusInternalServerError, "database error")
	}

	reg, err := h.Registrations.Create(ctx, u.ID, eventID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "join event failed")
	}
	return c.JSON(http.StatusCreated, toRegistrationResp(reg))
}

// CancelJoin handles POST /api/registrations/:eventId/cancel-join.  The
// volunteer withdraws their own registration; COMPLETED work cannot be
// withdrawn.
func (h *RegistrationHandler) CancelJoin(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	eventID, err := parseID(c, "eventId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reg, err := h.Registrations.GetByUserAndEvent(ctx, u.ID, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "registration not found")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if !reg.Cancellable() {
		return failWith(c, repository.ErrInvalidOperation, "completed registrations cannot be withdrawn")
	}
	if err := h.Registrations.Delete(ctx, reg.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "registration not found")
		}
		return fail(c, http.StatusInternalServerError, "cancel registration failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// Get handles GET /api/registrations/:id.  Visible to the volunteer, the
// event owner and admins.
func (h *RegistrationHandler) Get(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Registrations.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "registration not found")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if d.UserID != u.ID && !isOwnerOrAdmin(d.EventOwnerID, u) {
		return failWith(c, repository.ErrForbidden, "not allowed to view this registration")
	}
	return c.JSON(http.StatusOK, d)
}

// List handles GET /api/registrations with optional status, eventId and
// userId filters.  Non-admins only see rows where they are the volunteer
// or own the referenced event.
func (h *RegistrationHandler) List(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	f := repository.RegistrationFilter{
		ViewerID:    u.ID,
		ViewerAdmin: u.IsAdmin(),
	}
	if s := strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))); s != "" {
		if !model.ValidRegistrationStatus(s) {
			return fail(c, http.StatusBadRequest, "invalid status filter")
		}
		f.Status = s
	}
	for param, dst := range map[string]*uint64{"eventId": &f.EventID, "userId": &f.UserID} {
		if s := c.QueryParam(param); s != "" {
			id, err := strconv.ParseUint(s, 10, 64)
			if err != nil || id == 0 {
				return fail(c, http.StatusBadRequest, "invalid "+param+" filter")
			}
			*dst = id
		}
	}
	f.Limit, f.Offset = pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, total, err := h.Registrations.List(ctx, f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":  items,
		"total":  total,
		"limit":  f.Limit,
		"offset": f.Offset,
	})
}

// Delete handles DELETE /api/registrations/:id.  The volunteer or an
// admin may remove the row; owners use reject instead.
func (h *RegistrationHandler) Delete(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Registrations.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "registration not found")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if d.UserID != u.ID && !u.IsAdmin() {
		return failWith(c, repository.ErrForbidden, "not allowed to remove this registration")
	}
	if err := h.Registrations.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "registration not found")
		}
		return fail(c, http.StatusInternalServerError, "delete registration failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// Approve handles POST /api/registrations/:id/approve.
func (h *RegistrationHandler) Approve(c echo.Context) error {
	return h.transition(c, model.RegistrationApproved)
}

// Reject handles POST /api/registrations/:id/reject.
func (h *RegistrationHandler) Reject(c echo.Context) error {
	return h.transition(c, model.RegistrationRejected)
}

// Complete handles POST /api/registrations/:id/complete, marking
// approved work as done after the event.
func (h *RegistrationHandler) Complete(c echo.Context) error {
	return h.transition(c, model.RegistrationCompleted)
}

// transition applies an owner-side status change.  Only the event owner
// or an admin may moderate; an unreachable target is an invalid
// operation and the row stays untouched.
func (h *RegistrationHandler) transition(c echo.Context, target string) error {
	u, err := currentUser(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Registrations.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "registration not found")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if !isOwnerOrAdmin(d.EventOwnerID, u) {
		return failWith(c, repository.ErrForbidden, "only the event owner may moderate registrations")
	}

	reg := model.Registration{ID: d.ID, UserID: d.UserID, EventID: d.EventID, Status: d.Status}
	if !reg.CanTransition(target) {
		return failWith(c, repository.ErrInvalidOperation, "registration cannot move from "+d.Status+" to "+target)
	}

	updated, err := h.Registrations.UpdateStatus(ctx, id, target)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "update registration failed")
	}

	h.notifyVolunteer(d, target)
	return c.JSON(http.StatusOK, toRegistrationResp(updated))
}

// notifyVolunteer enqueues a push notification about the status change.
func (h *RegistrationHandler) notifyVolunteer(d repository.RegistrationDetail, target string) {
	var title, body string
	switch target {
	case model.RegistrationApproved:
		title = "Registration approved"
		body = "You are confirmed for \"" + d.EventName + "\"."
	case model.RegistrationRejected:
		title = "Registration rejected"
		body = "Your request to join \"" + d.EventName + "\" was declined."
	case model.RegistrationCompleted:
		title = "Participation completed"
		body = "Thank you for volunteering at \"" + d.EventName + "\"!"
	default:
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := queue_publisher.PublishNotification(ctx, h.Cfg.AMQPURL, queue.NotificationEvent{
		UserID: d.UserID,
		Title:  title,
		Body:   body,
		URL:    "/events/" + formatID(d.EventID),
	}); err != nil {
		log.Printf("notify: registration %d: %v", d.ID, err)
	}
}
