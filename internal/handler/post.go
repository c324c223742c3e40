package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/backend/internal/model"
	"github.com/volunteerhub/backend/internal/repository"
	"github.com/volunteerhub/backend/internal/storage"
)

// PostHandler implements the event wall: posts with staged media
// attachments and per-user reactions.  Posting is limited to the event
// owner and approved volunteers; reading follows event visibility.
type PostHandler struct {
	Events        *repository.EventRepo
	Registrations *repository.RegistrationRepo
	Posts         *repository.PostRepo
	Reactions     *repository.ReactionRepo
	Store         *storage.Store
}

func NewPostHandler(events *repository.EventRepo, regs *repository.RegistrationRepo,
	posts *repository.PostRepo, reactions *repository.ReactionRepo, store *storage.Store) *PostHandler {
	if events == nil || regs == nil || posts == nil || reactions == nil || store == nil {
		panic("nil dependency passed to NewPostHandler")
	}
	return &PostHandler{Events: events, Registrations: regs, Posts: posts, Reactions: reactions, Store: store}
}

// ----- DTOs -----

type createPostReq struct {
	Content string   `json:"content"`
	Media   []string `json:"media"` // staged temp file names returned by the upload endpoint
}

type updatePostReq struct {
	Content string   `json:"content"`
	Media   []string `json:"media"` // additional staged files to attach
}

type reactionReq struct {
	Type string `json:"type"`
}

type postResp struct {
	ID        uint64    `json:"id"`
	EventID   uint64    `json:"eventId"`
	AuthorID  uint64    `json:"authorId"`
	Content   string    `json:"content"`
	Media     []string  `json:"media"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toPostResp(p model.Post, media []string) postResp {
	if media == nil {
		media = []string{}
	}
	return postResp{
		ID: p.ID, EventID: p.EventID, AuthorID: p.AuthorID, Content: p.Content,
		Media: media, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

// visibleEvent loads the event and applies the read-visibility rule,
// raising ErrNotFound or ErrForbidden for the caller to map.
func (h *PostHandler) visibleEvent(ctx context.Context, eventID uint64, u *model.User) (model.Event, error) {
	e, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		return e, err
	}
	if e.Status != model.EventApproved && !isOwnerOrAdmin(e.OwnerID, u) {
		return e, repository.ErrForbidden
	}
	return e, nil
}

// failVisibility renders a visibleEvent error.
func failVisibility(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return failWith(c, err, "event not found")
	case errors.Is(err, repository.ErrForbidden):
		return failWith(c, err, "not allowed to view this event")
	}
	return fail(c, http.StatusInternalServerError, "database error")
}

// attachMedia moves each staged file into the post's permanent directory
// and records the media rows within tx, returning the public paths.
func (h *PostHandler) attachMedia(ctx context.Context, tx *sql.Tx, eventID, postID uint64, tempNames []string) ([]string, error) {
	paths := make([]string, 0, len(tempNames))
	for _, tempName := range tempNames {
		path, err := h.Store.MoveToPermanent(tempName, eventID, postID)
		if err != nil {
			return nil, err
		}
		resourceID := tempName
		if i := strings.LastIndex(resourceID, "."); i >= 0 {
			resourceID = resourceID[:i]
		}
		if err := h.Posts.CreateMediaTx(ctx, tx, model.PostMedia{
			PostID: postID, ResourceID: resourceID, Path: path,
		}); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// canPost reports whether u may write on the event's wall: the owner
// always, volunteers once their registration is APPROVED.
func (h *PostHandler) canPost(ctx context.Context, e model.Event, u *model.User) (bool, error) {
	if isOwnerOrAdmin(e.OwnerID, u) {
		return true, nil
	}
	reg, err := h.Registrations.GetByUserAndEvent(ctx, u.ID, e.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return reg.Status == model.RegistrationApproved, nil
}

// ListByEvent handles GET /api/events/:id/posts, newest first, each post
// carrying the public paths of its attachments.
func (h *PostHandler) ListByEvent(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	eventID, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	limit, offset := pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.visibleEvent(ctx, eventID, u); err != nil {
		return failVisibility(c, err)
	}

	posts, total, err := h.Posts.ListByEvent(ctx, eventID, limit, offset)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}

	ids := make([]uint64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	mediaByPost, err := h.Posts.MediaPathsByPosts(ctx, ids)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}

	items := make([]postResp, 0, len(posts))
	for _, p := range posts {
		items = append(items, toPostResp(p, mediaByPost[p.ID]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":  items,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// Create handles POST /api/events/:id/posts.  The post row and its media
// rows commit in one transaction; staged files are moved into the
// permanent tree as they are attached.  A missing staged file aborts the
// whole post.
func (h *PostHandler) Create(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	eventID, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	var req createPostReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return fail(c, http.StatusBadRequest, "content is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	e, err := h.visibleEvent(ctx, eventID, u)
	if err != nil {
		return failVisibility(c, err)
	}
	ok, err := h.canPost(ctx, e, u)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if !ok {
		return failWith(c, repository.ErrForbidden, "only the owner and approved volunteers may post")
	}

	tx, err := h.Posts.DB().BeginTx(ctx, nil)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to start transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	p, err := h.Posts.CreateTx(ctx, tx, model.Post{EventID: eventID, AuthorID: u.ID, Content: req.Content})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "create post failed")
	}

	paths, err := h.attachMedia(ctx, tx, eventID, p.ID, req.Media)
	if err != nil {
		if errors.Is(err, storage.ErrTempNotFound) {
			return fail(c, http.StatusBadRequest, "unknown staged file")
		}
		return fail(c, http.StatusInternalServerError, "attach media failed")
	}

	if err := tx.Commit(); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to commit transaction")
	}
	committed = true
	return c.JSON(http.StatusCreated, toPostResp(p, paths))
}

// Get handles GET /api/posts/:id, returning the post with its media and
// reaction counts.
func (h *PostHandler) Get(c echo.Context) error {
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

	p, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "post not found")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if _, err := h.visibleEvent(ctx, p.EventID, u); err != nil {
		return failVisibility(c, err)
	}

	media, err := h.Posts.MediaPathsByPost(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	counts, err := h.Reactions.CountByPost(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}

	resp := toPostResp(p, media)
	return c.JSON(http.StatusOK, echo.Map{
		"id": resp.ID, "eventId": resp.EventID, "authorId": resp.AuthorID,
		"content": resp.Content, "media": resp.Media,
		"createdAt": resp.CreatedAt, "updatedAt": resp.UpdatedAt,
		"reactions": counts,
	})
}

// Update handles PATCH /api/posts/:id.  The author or an admin may edit
// the content and attach freshly staged media; new attachments commit
// with the content change in one transaction.
func (h *PostHandler) Update(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	var req updatePostReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return fail(c, http.StatusBadRequest, "content is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	p, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "post not found")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if p.AuthorID != u.ID && !u.IsAdmin() {
		return failWith(c, repository.ErrForbidden, "only the author may edit this post")
	}

	tx, err := h.Posts.DB().BeginTx(ctx, nil)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to start transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	updated, err := h.Posts.UpdateContentTx(ctx, tx, id, req.Content)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "update post failed")
	}
	if _, err := h.attachMedia(ctx, tx, p.EventID, id, req.Media); err != nil {
		if errors.Is(err, storage.ErrTempNotFound) {
			return fail(c, http.StatusBadRequest, "unknown staged file")
		}
		return fail(c, http.StatusInternalServerError, "attach media failed")
	}

	if err := tx.Commit(); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to commit transaction")
	}
	committed = true

	media, err := h.Posts.MediaPathsByPost(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	return c.JSON(http.StatusOK, toPostResp(updated, media))
}

// Delete handles DELETE /api/posts/:id.  The author, the event owner or
// an admin may remove a post; reactions and media rows go with it.
func (h *PostHandler) Delete(c echo.Context) error {
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

	p, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "post not found")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}
	e, err := h.Events.GetByID(ctx, p.EventID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if p.AuthorID != u.ID && !isOwnerOrAdmin(e.OwnerID, u) {
		return failWith(c, repository.ErrForbidden, "not allowed to delete this post")
	}

	tx, err := h.Posts.DB().BeginTx(ctx, nil)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to start transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.Posts.Delete(ctx, tx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "post not found")
		}
		return fail(c, http.StatusInternalServerError, "delete post failed")
	}
	if err := tx.Commit(); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to commit transaction")
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}

// React handles POST /api/posts/:id/react.  LIKE/LOVE/CARE overwrite
// the caller's previous reaction; NONE removes it.
func (h *PostHandler) React(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	var req reactionReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Type = strings.ToUpper(strings.TrimSpace(req.Type))
	if req.Type != model.ReactionNone && !model.ValidReaction(req.Type) {
		return fail(c, http.StatusBadRequest, "invalid reaction type")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "post not found")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if _, err := h.visibleEvent(ctx, p.EventID, u); err != nil {
		return failVisibility(c, err)
	}

	if req.Type == model.ReactionNone {
		err = h.Reactions.Delete(ctx, id, u.ID)
	} else {
		err = h.Reactions.Upsert(ctx, id, u.ID, req.Type)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "store reaction failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"type": req.Type})
}

// GetReaction handles GET /api/posts/:id/reaction, returning the
// caller's own reaction alongside the per-type counts.
func (h *PostHandler) GetReaction(c echo.Context) error {
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

	p, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "post not found")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if _, err := h.visibleEvent(ctx, p.EventID, u); err != nil {
		return failVisibility(c, err)
	}

	own, err := h.Reactions.Get(ctx, id, u.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	counts, err := h.Reactions.CountByPost(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	return c.JSON(http.StatusOK, echo.Map{"type": own, "counts": counts})
}
