package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunteerhub/backend/internal/model"
)

func newMockReactionRepo(t *testing.T) (*ReactionRepo, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewReactionRepo(db), mock
}

func TestReactionUpsertOverwrites(t *testing.T) {
	r, mock := newMockReactionRepo(t)
	ctx := context.Background()

	// Both writes go through the same upsert; the second hits the
	// duplicate key and updates in place (MySQL reports 2 affected rows).
	mock.ExpectExec("INSERT INTO reactions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO reactions").WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, r.Upsert(ctx, 3, 7, model.ReactionLike))
	require.NoError(t, r.Upsert(ctx, 3, 7, model.ReactionLove))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReactionGetDefaultsToNone(t *testing.T) {
	r, mock := newMockReactionRepo(t)

	mock.ExpectQuery("SELECT reaction_type FROM reactions").WillReturnError(sql.ErrNoRows)

	got, err := r.Get(context.Background(), 3, 7)
	require.NoError(t, err)
	assert.Equal(t, model.ReactionNone, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReactionGetReturnsStored(t *testing.T) {
	r, mock := newMockReactionRepo(t)

	mock.ExpectQuery("SELECT reaction_type FROM reactions").
		WillReturnRows(sqlmock.NewRows([]string{"reaction_type"}).AddRow(model.ReactionCare))

	got, err := r.Get(context.Background(), 3, 7)
	require.NoError(t, err)
	assert.Equal(t, model.ReactionCare, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReactionDeleteMissingIsNoop(t *testing.T) {
	r, mock := newMockReactionRepo(t)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM reactions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM reactions").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, r.Delete(ctx, 3, 7))
	require.NoError(t, r.Delete(ctx, 3, 7), "deleting an absent reaction must not error")
	require.NoError(t, mock.ExpectationsWereMet())
}
