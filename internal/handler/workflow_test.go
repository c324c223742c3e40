package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunteerhub/backend/internal/config"
	"github.com/volunteerhub/backend/internal/middleware"
	"github.com/volunteerhub/backend/internal/model"
	"github.com/volunteerhub/backend/internal/repository"
	"github.com/volunteerhub/backend/internal/storage"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// authedContext builds an echo context carrying a resolved principal,
// the way the Identity middleware would.
func authedContext(method, target, body string, u *model.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.CurrentUserKey, u)
	return c, rec
}

const eventColumns = "id,owner_id,name,description,date_deadline,start_date,end_date,status,created_at,updated_at"

func eventRow(id, ownerID uint64, status string, deadline time.Time) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(strings.Split(eventColumns, ",")).
		AddRow(id, ownerID, "Beach cleanup", "", deadline, deadline.Add(time.Hour), deadline.Add(2*time.Hour), status, now, now)
}

func registrationRow(id, userID, eventID uint64, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "user_id", "event_id", "status", "created_at", "updated_at"}).
		AddRow(id, userID, eventID, status, now, now)
}

func TestJoinOwnApprovedEvent(t *testing.T) {
	db, mock := newMockDB(t)
	deadline := time.Now().Add(time.Hour)

	// Caller 7 owns event 3; owners may register for their own event.
	mock.ExpectQuery("SELECT (.+) FROM events WHERE id=").
		WillReturnRows(eventRow(3, 7, model.EventApproved, deadline))
	mock.ExpectQuery("SELECT (.+) FROM registrations WHERE user_id=").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO registrations").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT (.+) FROM registrations WHERE id=").
		WillReturnRows(registrationRow(11, 7, 3, model.RegistrationPending))

	h := NewRegistrationHandler(config.Config{},
		repository.NewEventRepo(db), repository.NewRegistrationRepo(db))

	c, rec := authedContext(http.MethodPost, "/api/registrations/3/join", "", &model.User{ID: 7, Role: model.RoleUser})
	c.SetParamNames("eventId")
	c.SetParamValues("3")

	require.NoError(t, h.Join(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), model.RegistrationPending)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinAfterDeadline(t *testing.T) {
	db, mock := newMockDB(t)
	deadline := time.Now().Add(-time.Hour)

	mock.ExpectQuery("SELECT (.+) FROM events WHERE id=").
		WillReturnRows(eventRow(3, 4, model.EventApproved, deadline))

	h := NewRegistrationHandler(config.Config{},
		repository.NewEventRepo(db), repository.NewRegistrationRepo(db))

	c, rec := authedContext(http.MethodPost, "/api/registrations/3/join", "", &model.User{ID: 7, Role: model.RoleUser})
	c.SetParamNames("eventId")
	c.SetParamValues("3")

	require.NoError(t, h.Join(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "deadline")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitApprovedEventRejected(t *testing.T) {
	db, mock := newMockDB(t)

	// No UPDATE expectation: an invalid submission must not touch the row.
	mock.ExpectQuery("SELECT (.+) FROM events WHERE id=").
		WillReturnRows(eventRow(3, 7, model.EventApproved, time.Now().Add(time.Hour)))

	h := NewEventHandler(repository.NewEventRepo(db))

	c, rec := authedContext(http.MethodPost, "/api/events/3/submit", "", &model.User{ID: 7, Role: model.RoleUser})
	c.SetParamNames("id")
	c.SetParamValues("3")

	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot be submitted")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePostAttachesStagedMedia(t *testing.T) {
	db, mock := newMockDB(t)
	store := storage.New(t.TempDir())
	require.NoError(t, store.Init())

	name, err := store.SaveTemp(strings.NewReader("pixels"), "pic.png")
	require.NoError(t, err)

	now := time.Now()
	postRows := func(content string) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "event_id", "author_id", "content", "created_at", "updated_at"}).
			AddRow(5, 3, 7, content, now, now)
	}

	mock.ExpectQuery("SELECT (.+) FROM posts WHERE id=").WillReturnRows(postRows("old"))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE posts SET content=").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM posts WHERE id=").WillReturnRows(postRows("edited"))
	mock.ExpectExec("INSERT INTO post_medias").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT path FROM post_medias WHERE post_id=").
		WillReturnRows(sqlmock.NewRows([]string{"path"}).AddRow("/uploads/3/5/" + name))

	h := NewPostHandler(repository.NewEventRepo(db), repository.NewRegistrationRepo(db),
		repository.NewPostRepo(db), repository.NewReactionRepo(db), store)

	body := `{"content":"edited","media":["` + name + `"]}`
	c, rec := authedContext(http.MethodPatch, "/api/posts/5", body, &model.User{ID: 7, Role: model.RoleUser})
	c.SetParamNames("id")
	c.SetParamValues("5")

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/uploads/3/5/"+name)

	// The staged file moved into the permanent tree.
	_, err = os.Stat(store.TempPath(name))
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHTTPStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, httpStatusFor(repository.ErrNotFound))
	assert.Equal(t, http.StatusForbidden, httpStatusFor(repository.ErrForbidden))
	assert.Equal(t, http.StatusBadRequest, httpStatusFor(repository.ErrInvalidOperation))
	assert.Equal(t, http.StatusConflict, httpStatusFor(repository.ErrUsernameExists))
	assert.Equal(t, http.StatusInternalServerError, httpStatusFor(errors.New("broken pipe")))
}
