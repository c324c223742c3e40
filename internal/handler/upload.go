package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/backend/internal/storage"
)

// maxUploadBytes caps a single staged file at 20 MiB.
const maxUploadBytes = 20 << 20

// UploadHandler stages multipart uploads into the temp area.  Staged
// files become permanent only when a post references them.
type UploadHandler struct {
	Store *storage.Store
}

func NewUploadHandler(store *storage.Store) *UploadHandler {
	if store == nil {
		panic("nil store passed to NewUploadHandler")
	}
	return &UploadHandler{Store: store}
}

// Stage handles POST /api/uploads.  It expects a multipart form with a
// "file" part and returns the generated temp name clients pass back when
// creating a post.
func (h *UploadHandler) Stage(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, http.StatusBadRequest, "multipart field 'file' is required")
	}
	if fh.Size > maxUploadBytes {
		return fail(c, http.StatusRequestEntityTooLarge, "file exceeds the upload limit")
	}

	src, err := fh.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "cannot read uploaded file")
	}
	defer src.Close()

	name, err := h.Store.SaveTemp(src, fh.Filename)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "stage upload failed")
	}
	return c.JSON(http.StatusCreated, echo.Map{"tempId": name})
}
