package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/volunteerhub/backend/internal/model"
)

func TestBuildEventListQueryAdminNoFilters(t *testing.T) {
	where, args := buildEventListQuery(EventFilter{ViewerAdmin: true})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBuildEventListQueryNonAdminVisibility(t *testing.T) {
	where, args := buildEventListQuery(EventFilter{ViewerID: 9})
	assert.Equal(t, " WHERE (status = ? OR owner_id = ?)", where)
	assert.Equal(t, []interface{}{model.EventApproved, uint64(9)}, args)
}

func TestBuildEventListQueryCombinesFilters(t *testing.T) {
	where, args := buildEventListQuery(EventFilter{
		Status:   model.EventPending,
		OwnerID:  4,
		Search:   "beach",
		ViewerID: 9,
	})
	assert.Equal(t,
		" WHERE status = ? AND owner_id = ? AND name LIKE ? AND (status = ? OR owner_id = ?)",
		where)
	assert.Equal(t, []interface{}{
		model.EventPending, uint64(4), "%beach%", model.EventApproved, uint64(9),
	}, args)
}

func TestBuildRegistrationListQueryAdmin(t *testing.T) {
	where, args := buildRegistrationListQuery(RegistrationFilter{
		Status:      model.RegistrationPending,
		EventID:     3,
		ViewerAdmin: true,
	})
	assert.Equal(t, " WHERE r.status = ? AND r.event_id = ?", where)
	assert.Equal(t, []interface{}{model.RegistrationPending, uint64(3)}, args)
}

func TestBuildRegistrationListQueryNonAdminVisibility(t *testing.T) {
	where, args := buildRegistrationListQuery(RegistrationFilter{ViewerID: 5})
	assert.Equal(t, " WHERE (r.user_id = ? OR e.owner_id = ?)", where)
	assert.Equal(t, []interface{}{uint64(5), uint64(5)}, args)
}

func TestBuildRegistrationListQueryUserFilter(t *testing.T) {
	where, args := buildRegistrationListQuery(RegistrationFilter{
		UserID:   7,
		ViewerID: 7,
	})
	assert.Equal(t, " WHERE r.user_id = ? AND (r.user_id = ? OR e.owner_id = ?)", where)
	assert.Equal(t, []interface{}{uint64(7), uint64(7), uint64(7)}, args)
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(errDup{}))
	assert.False(t, isDuplicateKey(nil))
	assert.False(t, isDuplicateKey(errPlain{}))
}

type errDup struct{}

func (errDup) Error() string { return "Error 1062: Duplicate entry 'x' for key 'uniq'" }

type errPlain struct{}

func (errPlain) Error() string { return "connection reset" }
