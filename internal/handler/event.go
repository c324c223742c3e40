package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/backend/internal/model"
	"github.com/volunteerhub/backend/internal/repository"
)

// EventHandler implements the event lifecycle: CRUD by the owner, the
// DRAFT -> PENDING submission step, and visibility-filtered listing.
type EventHandler struct {
	Events *repository.EventRepo
}

func NewEventHandler(events *repository.EventRepo) *EventHandler {
	if events == nil {
		panic("nil repository passed to NewEventHandler")
	}
	return &EventHandler{Events: events}
}

// ----- DTOs -----

type eventReq struct {
	Name         string     `json:"name"`
	Description  *string    `json:"description"`
	DateDeadline *time.Time `json:"dateDeadline"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
}

type eventResp struct {
	ID           uint64    `json:"id"`
	OwnerID      uint64    `json:"ownerId"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	DateDeadline time.Time `json:"dateDeadline"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toEventResp(e model.Event) eventResp {
	return eventResp{
		ID: e.ID, OwnerID: e.OwnerID, Name: e.Name, Description: e.Description,
		DateDeadline: e.DateDeadline, StartDate: e.StartDate, EndDate: e.EndDate,
		Status: e.Status, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt,
	}
}

// validateEventDates rejects inconsistent schedules: the registration
// deadline must not fall after the start, and the end not before the
// start.
func validateEventDates(deadline, start, end time.Time) error {
	if deadline.After(start) {
		return errors.New("dateDeadline must not be after startDate")
	}
	if end.Before(start) {
		return errors.New("endDate must not be before startDate")
	}
	return nil
}

// Create handles POST /api/events.  The caller becomes the owner and the
// event starts in DRAFT.
func (h *EventHandler) Create(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.DateDeadline == nil || req.StartDate == nil || req.EndDate == nil {
		return fail(c, http.StatusBadRequest, "name, dateDeadline, startDate and endDate are required")
	}
	if err := validateEventDates(*req.DateDeadline, *req.StartDate, *req.EndDate); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	e := model.Event{
		OwnerID:      u.ID,
		Name:         req.Name,
		DateDeadline: *req.DateDeadline,
		StartDate:    *req.StartDate,
		EndDate:      *req.EndDate,
	}
	if req.Description != nil {
		e.Description = *req.Description
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	created, err := h.Events.Create(ctx, e)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "create event failed")
	}
	return c.JSON(http.StatusCreated, toEventResp(created))
}

// Get handles GET /api/events/:id.  Non-approved events are visible only
// to their owner or an admin.
func (h *EventHandler) Get(c echo.Context) error {
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

	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "event not found")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if e.Status != model.EventApproved && !isOwnerOrAdmin(e.OwnerID, u) {
		return failWith(c, repository.ErrForbidden, "not allowed to view this event")
	}
	return c.JSON(http.StatusOK, toEventResp(e))
}

// List handles GET /api/events with optional status, ownerId and search
// filters.  Admins see everything; everyone else sees APPROVED events or
// their own, conjunctively with the filters.
func (h *EventHandler) List(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	f := repository.EventFilter{
		Search:      strings.TrimSpace(c.QueryParam("search")),
		ViewerID:    u.ID,
		ViewerAdmin: u.IsAdmin(),
	}
	if s := strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))); s != "" {
		if !model.ValidEventStatus(s) {
			return fail(c, http.StatusBadRequest, "invalid status filter")
		}
		f.Status = s
	}
	if s := c.QueryParam("ownerId"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil || id == 0 {
			return fail(c, http.StatusBadRequest, "invalid ownerId filter")
		}
		f.OwnerID = id
	}
	f.Limit, f.Offset = pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, total, err := h.Events.List(ctx, f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	items := make([]eventResp, 0, len(events))
	for _, e := range events {
		items = append(items, toEventResp(e))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":  items,
		"total":  total,
		"limit":  f.Limit,
		"offset": f.Offset,
	})
}

// Update handles PATCH /api/events/:id.  Only the owner may edit; fields
// absent from the body are left untouched.
func (h *EventHandler) Update(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
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
	if e.OwnerID != u.ID {
		return failWith(c, repository.ErrForbidden, "only the owner may edit this event")
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		e.Name = name
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.DateDeadline != nil {
		e.DateDeadline = *req.DateDeadline
	}
	if req.StartDate != nil {
		e.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		e.EndDate = *req.EndDate
	}
	if err := validateEventDates(e.DateDeadline, e.StartDate, e.EndDate); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	updated, err := h.Events.Update(ctx, e)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "update event failed")
	}
	return c.JSON(http.StatusOK, toEventResp(updated))
}

// Delete handles DELETE /api/events/:id.  The owner or an admin removes
// the event and all dependent rows in one transaction.
func (h *EventHandler) Delete(c echo.Context) error {
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

	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "event not found")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if !isOwnerOrAdmin(e.OwnerID, u) {
		return failWith(c, repository.ErrForbidden, "only the owner may delete this event")
	}

	tx, err := h.Events.DB().BeginTx(ctx, nil)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to start transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.Events.Delete(ctx, tx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "event not found")
		}
		return fail(c, http.StatusInternalServerError, "delete event failed")
	}
	if err := tx.Commit(); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to commit transaction")
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}

// Submit handles POST /api/events/:id/submit.  Only the owner may
// submit, and only from DRAFT or REJECTED; anything else is an invalid
// operation.
func (h *EventHandler) Submit(c echo.Context) error {
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

	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "event not found")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if e.OwnerID != u.ID {
		return failWith(c, repository.ErrForbidden, "only the owner may submit this event")
	}
	if !e.CanSubmit() {
		return failWith(c, repository.ErrInvalidOperation, "event cannot be submitted from status "+e.Status)
	}

	updated, err := h.Events.UpdateStatus(ctx, id, model.EventPending)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "submit event failed")
	}
	return c.JSON(http.StatusOK, toEventResp(updated))
}
